package companylist

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hitoshi/jobtracker/internal/metrics"
	"github.com/hitoshi/jobtracker/internal/model"
)

// Merger は企業一覧CSVの読み込みと統合を行う。
// 異常は致命的エラーにせず、ログに記録したうえで戻り値のerrorとして返す。
type Merger struct {
	logger  *slog.Logger
	metrics metrics.MetricsCollector
}

// NewMerger はMergerを生成する。loggerとcollectorはnilを許容する。
func NewMerger(logger *slog.Logger, collector metrics.MetricsCollector) *Merger {
	if logger == nil {
		logger = slog.Default()
	}
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Merger{logger: logger, metrics: collector}
}

// ReadExisting は統合先CSVを読み込み、レコードと企業名の比較キー集合を返す。
//
// ファイルが存在しない場合はヘッダーのみのファイルを作成して空を返す。
// ヘッダーにCompanyまたはURLが無い場合もヘッダーのみで作り直して空を返す。
// 企業名が空の行は読み飛ばす。
// 開けない、読めないといったファイル自体の異常はFILE_ACCESSエラーとして返す。
func (m *Merger) ReadExisting(path string) ([]model.CompanyURL, map[string]struct{}, error) {
	known := make(map[string]struct{})

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		if werr := writeCompanies(path, nil); werr != nil {
			m.logger.Error("統合先CSVの作成に失敗しました", slog.String("path", path), slog.String("error", werr.Error()))
			return nil, known, werr
		}
		m.logger.Info("統合先CSVが存在しないためヘッダーのみで作成しました", slog.String("path", path))
		return nil, known, nil
	}
	if err != nil {
		m.logger.Error("統合先CSVを開けませんでした", slog.String("path", path), slog.String("error", err.Error()))
		return nil, known, model.NewFileAccessError(path, err)
	}
	defer f.Close()

	r := newReader(f)
	header, err := r.read()
	if err != nil && !errors.Is(err, io.EOF) {
		m.logger.Error("統合先CSVの読み込みに失敗しました", slog.String("path", path), slog.String("error", err.Error()))
		return nil, known, readError(path, err)
	}
	cols, lerr := ExistingSchema.locate(header)
	if lerr != nil {
		schemaErr := model.NewCSVSchemaError(path, lerr.Error())
		m.logger.Warn("統合先CSVのヘッダーが不正なため作り直します",
			slog.String("path", path),
			slog.String("error", lerr.Error()),
		)
		f.Close()
		if werr := writeCompanies(path, nil); werr != nil {
			return nil, known, errors.Join(schemaErr, werr)
		}
		return nil, known, schemaErr
	}

	var records []model.CompanyURL
	for {
		row, err := r.read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			m.logger.Warn("統合先CSVの読み込みを途中で打ち切りました",
				slog.String("path", path),
				slog.Int("records", len(records)),
				slog.String("error", err.Error()),
			)
			return records, known, readError(path, err)
		}

		company := field(row, cols[ColumnCompany])
		if company == "" {
			continue
		}
		records = append(records, model.CompanyURL{
			Company: company,
			URL:     field(row, cols[ColumnURL]),
		})
		known[foldKey(company)] = struct{}{}
	}

	m.logger.Debug("統合先CSVを読み込みました", slog.String("path", path), slog.Int("records", len(records)))
	return records, known, nil
}

// ReadNewCompanyNames は新規企業リストCSVから企業名を順に読み込む。
// 企業名は括弧以降を取り除き、空になった行は読み飛ばす。
// ファイルが無い、行が足りない、Company列が無いといった場合は、
// それまでに読めた企業名とエラーを返す。
func (m *Merger) ReadNewCompanyNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		m.logger.Error("新規企業リストを開けませんでした", slog.String("path", path), slog.String("error", err.Error()))
		return nil, model.NewFileAccessError(path, err)
	}
	defer f.Close()

	r := newReader(f)
	for i := 0; i < NewListSchema.SkipRows; i++ {
		if _, err := r.read(); err != nil {
			return nil, m.schemaError(path, "too few rows for headers", err)
		}
	}
	header, err := r.read()
	if err != nil {
		return nil, m.schemaError(path, "too few rows for headers", err)
	}
	cols, err := NewListSchema.locate(header)
	if err != nil {
		return nil, m.schemaError(path, "company column not found", err)
	}
	idx := cols[ColumnCompany]

	var names []string
	for {
		row, err := r.read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return names, m.schemaError(path, "read aborted", err)
		}
		if idx >= len(row) {
			continue
		}
		if name := cleanCompanyName(row[idx]); name != "" {
			names = append(names, name)
		}
	}

	m.logger.Debug("新規企業リストを読み込みました", slog.String("path", path), slog.Int("companies", len(names)))
	return names, nil
}

func (m *Merger) schemaError(path, reason string, cause error) error {
	if cause != nil && !errors.Is(cause, io.EOF) {
		reason = fmt.Sprintf("%s: %v", reason, cause)
	}
	m.logger.Warn("新規企業リストの形式が不正です", slog.String("path", path), slog.String("reason", reason))
	return model.NewCSVSchemaError(path, reason)
}

// readError はCSVの構文エラーをCSV_SCHEMA、それ以外の読み込み失敗をFILE_ACCESSに分類する。
func readError(path string, err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return model.NewCSVSchemaError(path, err.Error())
	}
	return model.NewFileAccessError(path, err)
}

// rowReader はcsv.Readerを包み、ファイル先頭のBOMを取り除く。
type rowReader struct {
	r       *csv.Reader
	started bool
}

func newReader(r io.Reader) *rowReader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return &rowReader{r: cr}
}

func (rr *rowReader) read() ([]string, error) {
	row, err := rr.r.Read()
	if err != nil {
		return nil, err
	}
	if !rr.started {
		rr.started = true
		if len(row) > 0 {
			row[0] = strings.TrimPrefix(row[0], utf8BOM)
		}
	}
	return row, nil
}

// writeCompanies はヘッダーとレコード（Company, URLのみ）を一時ファイルに書き出し、
// pathへリネームして置き換える。
func writeCompanies(path string, records []model.CompanyURL) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))+"-*.csv")
	if err != nil {
		return model.NewFileAccessError(path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { os.Remove(tmpName) }

	w := csv.NewWriter(tmp)
	if err := w.Write([]string{ColumnCompany, ColumnURL}); err != nil {
		tmp.Close()
		cleanup()
		return model.NewFileAccessError(path, err)
	}
	for _, rec := range records {
		if err := w.Write([]string{rec.Company, rec.URL}); err != nil {
			tmp.Close()
			cleanup()
			return model.NewFileAccessError(path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		cleanup()
		return model.NewFileAccessError(path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return model.NewFileAccessError(path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return model.NewFileAccessError(path, err)
	}
	return nil
}
