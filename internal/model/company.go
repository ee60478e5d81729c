package model

// CompanyURL は企業名と採用ページURLの組を表す。
// 同一性は企業名（大文字小文字を区別しない）で判定する。URLは空でもよい。
type CompanyURL struct {
	Company string
	URL     string
}

// HasURL はURLが設定済みかを返す。
func (c CompanyURL) HasURL() bool {
	return c.URL != ""
}
