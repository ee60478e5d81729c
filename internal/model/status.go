package model

import "strings"

// Status は応募の選考段階を表す。
// 値はStatusesに列挙されたもののみ有効。
type Status string

const (
	// StatusWishlist は応募予定（初期値）。
	StatusWishlist Status = "Wishlist/To Apply"
	// StatusApplied は応募済み。
	StatusApplied Status = "Applied"
	// StatusOnlineAssessment はオンライン試験。
	StatusOnlineAssessment Status = "Online Assessment"
	// StatusHRScreening は人事面談。
	StatusHRScreening Status = "HR Screening"
	// StatusTechnicalRound1 は技術面接（1次）。
	StatusTechnicalRound1 Status = "Technical Interview (Round 1)"
	// StatusTechnicalRound2Plus は技術面接（2次以降）。
	StatusTechnicalRound2Plus Status = "Technical Interview (Round 2+)"
	// StatusHiringManager は採用責任者面接。
	StatusHiringManager Status = "Hiring Manager Interview"
	// StatusFinalInterview はオンサイト/最終面接。
	StatusFinalInterview Status = "On-site/Final Interview"
	// StatusOfferExtended はオファー提示。
	StatusOfferExtended Status = "Offer Extended"
	// StatusOfferAccepted はオファー承諾。
	StatusOfferAccepted Status = "Offer Accepted"
	// StatusOfferDeclined はオファー辞退。
	StatusOfferDeclined Status = "Offer Declined"
	// StatusRejected は不採用。
	StatusRejected Status = "Rejected"
	// StatusWithdrew は応募取り下げ。
	StatusWithdrew Status = "Withdrew Application"
)

// DefaultStatus は未指定・不正な初期ステータスの代わりに使われる値。
const DefaultStatus = StatusWishlist

// Statuses は選考段階を表示順に並べたもの。
// 順序は選択UI用であり、遷移の制約ではない。
var Statuses = []Status{
	StatusWishlist,
	StatusApplied,
	StatusOnlineAssessment,
	StatusHRScreening,
	StatusTechnicalRound1,
	StatusTechnicalRound2Plus,
	StatusHiringManager,
	StatusFinalInterview,
	StatusOfferExtended,
	StatusOfferAccepted,
	StatusOfferDeclined,
	StatusRejected,
	StatusWithdrew,
}

// Valid はステータスが定義済みの値かを返す。
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// String はステータスの表示名を返す。
func (s Status) String() string {
	return string(s)
}

// ParseStatus は任意の文字列を定義済みステータスに変換する。
// 前後の空白を除去し、大文字小文字を区別せずに照合する。
// 一致しない場合はINVALID_STATUSエラーを返す。
func ParseStatus(raw string) (Status, error) {
	trimmed := strings.TrimSpace(raw)
	for _, v := range Statuses {
		if strings.EqualFold(trimmed, string(v)) {
			return v, nil
		}
	}
	return "", NewInvalidStatusError(raw)
}

// StatusAt は1始まりの番号に対応するステータスを返す。
func StatusAt(n int) (Status, bool) {
	if n < 1 || n > len(Statuses) {
		return "", false
	}
	return Statuses[n-1], true
}
