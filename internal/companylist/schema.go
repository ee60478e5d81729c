// Package companylist は企業とキャリアページURLの一覧CSVを統合する。
package companylist

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// 列名
const (
	ColumnCompany = "Company"
	ColumnURL     = "URL"
)

const utf8BOM = "\ufeff"

// Schema は入力CSVの構造を宣言する。
// SkipRows行のメタデータを読み飛ばした次の行をヘッダーとして扱い、
// Columnsに挙げた列を名前で探す。
type Schema struct {
	SkipRows int
	Columns  []string
}

// ExistingSchema は統合先CSV（Company,URL）のスキーマ。
var ExistingSchema = Schema{
	SkipRows: 0,
	Columns:  []string{ColumnCompany, ColumnURL},
}

// NewListSchema は新規企業リストCSVのスキーマ。
// 先頭1行はメタデータで、ヘッダーは2行目にある。
var NewListSchema = Schema{
	SkipRows: 1,
	Columns:  []string{ColumnCompany},
}

// locate はヘッダー行から各列の位置を求める。
// 見つからない列があればエラーを返す。
func (s Schema) locate(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	found := make(map[string]int, len(s.Columns))
	var missing []string
	for _, col := range s.Columns {
		i, ok := index[col]
		if !ok {
			missing = append(missing, col)
			continue
		}
		found[col] = i
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("header %q is missing column(s) %v", header, missing)
	}
	return found, nil
}

// foldKey は企業名の比較キーを返す。大文字小文字はUnicodeのケースフォールディングで同一視する。
func foldKey(name string) string {
	return cases.Fold().String(name)
}

// cleanCompanyName は企業名の括弧以降（"Beta Corp (BCRP)" の " (BCRP)"）を取り除く。
func cleanCompanyName(raw string) string {
	name := strings.TrimSpace(raw)
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}
	return name
}

// field は行からi番目の値を前後の空白を除いて返す。列が足りない場合は空文字列。
func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
