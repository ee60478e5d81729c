package companylist

import (
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/hitoshi/jobtracker/internal/model"
)

// Result はMergeAndRewriteの結果。
type Result struct {
	// Companies は書き出した全レコード（企業名順）。
	Companies []model.CompanyURL
	// WithURL はURLが設定済みの企業。
	WithURL []model.CompanyURL
	// NeedsURL はURLが未設定の企業名。
	NeedsURL []string
	// Added は新規企業リストから追加された企業数。
	Added int
}

// MergeAndRewrite は新規企業リストを統合先CSVへ統合し、統合先を書き直す。
//
// 企業名は大文字小文字を区別せずに重複を除き、同じ基準で安定ソートする。
// 既存レコードのURLは保持され、新規企業はURL空で追加される。
// 同じ入力に対して繰り返し実行しても結果は変わらない。
//
// 統合先がファイルとして読めない場合（FILE_ACCESS）は書き直さない。
// ヘッダー不正等の形式エラーでは書き直す。
// 読み込みや書き込みで起きた異常はまとめてerrorで返すが、
// Resultは常に利用できる状態で返す。
func (m *Merger) MergeAndRewrite(existingPath, newPath string) (*Result, error) {
	var errs []error

	records, known, err := m.ReadExisting(existingPath)
	if err != nil {
		errs = append(errs, err)
	}
	// 統合先が読めない場合に書き直すと、既存のURLが失われる
	writable := err == nil || hasCode(err, model.ErrCodeCSVSchema)
	names, err := m.ReadNewCompanyNames(newPath)
	if err != nil {
		errs = append(errs, err)
	}

	added := 0
	for _, name := range names {
		key := foldKey(name)
		if _, ok := known[key]; ok {
			continue
		}
		known[key] = struct{}{}
		records = append(records, model.CompanyURL{Company: name})
		added++
	}

	sortCompanies(records)

	if !writable {
		m.logger.Warn("統合先CSVを読み込めなかったため書き込みを中止しました",
			slog.String("path", existingPath),
		)
	} else if err := writeCompanies(existingPath, records); err != nil {
		m.logger.Error("統合先CSVの書き込みに失敗しました",
			slog.String("path", existingPath),
			slog.String("error", err.Error()),
		)
		errs = append(errs, err)
	} else {
		m.logger.Info("企業一覧を統合しました",
			slog.String("path", existingPath),
			slog.Int("companies", len(records)),
			slog.Int("added", added),
		)
	}
	m.metrics.RecordCompaniesMerged(added)

	res := &Result{Companies: records, Added: added}
	for _, rec := range records {
		if rec.HasURL() {
			res.WithURL = append(res.WithURL, rec)
		} else {
			res.NeedsURL = append(res.NeedsURL, rec.Company)
		}
	}
	return res, errors.Join(errs...)
}

// hasCode はerrを構成するエラーが全て指定コードのAPIErrorであるかを返す。
func hasCode(err error, code string) bool {
	for _, e := range flatten(err) {
		var apiErr *model.APIError
		if !errors.As(e, &apiErr) || apiErr.Code != code {
			return false
		}
	}
	return true
}

func flatten(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

// sortCompanies は企業名の比較キー順に安定ソートする。
func sortCompanies(records []model.CompanyURL) {
	keys := make(map[string]string, len(records))
	for _, rec := range records {
		keys[rec.Company] = foldKey(rec.Company)
	}
	slices.SortStableFunc(records, func(a, b model.CompanyURL) int {
		return strings.Compare(keys[a.Company], keys[b.Company])
	})
}
