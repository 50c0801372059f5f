package catalog

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/liao/sommelier/internal/wine"
)

// RawRow 一行未经处理的目录数据，列名到原始文本
type RawRow map[string]string

// Source 目录数据来源
type Source interface {
	Rows(ctx context.Context) ([]RawRow, error)
}

// Columns 目录表的列，CSV 表头与数据库表共用
var Columns = []string{
	"name_ko", "name_en", "winery", "country", "region", "wine_type", "price",
	"sweetness", "acidity", "body", "tannin", "aroma", "food_matching",
	"image_url", "detail_url",
}

// CSVSource 从 CSV 文件读取目录
type CSVSource struct {
	Path string
}

// Resolve 先找主路径，相对路径找不到时再试一次上级目录
func (s CSVSource) Resolve() (string, error) {
	if _, err := os.Stat(s.Path); err == nil {
		return s.Path, nil
	}
	if !filepath.IsAbs(s.Path) {
		alt := filepath.Join("..", s.Path)
		slog.Info("catalog file not found, trying parent directory", "path", s.Path, "alt", alt)
		if _, err := os.Stat(alt); err == nil {
			return alt, nil
		}
	}
	return "", fmt.Errorf("%w: file not found at %s", wine.ErrDataSource, s.Path)
}

func (s CSVSource) Rows(ctx context.Context) ([]RawRow, error) {
	path, err := s.Resolve()
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", wine.ErrDataSource, path, err)
	}
	defer f.Close()

	rows, err := readCSV(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", wine.ErrDataSource, path, err)
	}
	slog.Info("catalog file read", "path", path, "rows", len(rows))
	return rows, nil
}

func readCSV(ctx context.Context, r io.Reader) ([]RawRow, error) {
	cr := csv.NewReader(r)
	// 列数不一致的行交给逐行校验处理
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var rows []RawRow
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			slog.Warn("skip unreadable csv line", "line", line, "err", err)
			continue
		}
		row := make(RawRow, len(header))
		for i, name := range header {
			if i < len(rec) {
				row[name] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// PostgresSource 从 PostgreSQL 表读取目录
type PostgresSource struct {
	db    *sql.DB
	table string
}

// OpenPostgres 打开连接池并确认可用
func OpenPostgres(ctx context.Context, dsn, table string) (*PostgresSource, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open postgres: %v", wine.ErrDataSource, err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping postgres: %v", wine.ErrDataSource, err)
	}

	slog.Info("postgres connected", "table", table)
	return NewPostgresSource(db, table), nil
}

func NewPostgresSource(db *sql.DB, table string) *PostgresSource {
	if table == "" {
		table = "wines"
	}
	return &PostgresSource{db: db, table: table}
}

// Query 所有列转成文本读取，和 CSV 走同一套转换规则
func (s *PostgresSource) Query() string {
	cols := make([]string, len(Columns))
	for i, c := range Columns {
		cols[i] = fmt.Sprintf("CAST(%s AS TEXT)", c)
	}
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY 1", strings.Join(cols, ", "), s.table)
}

func (s *PostgresSource) Rows(ctx context.Context) ([]RawRow, error) {
	rs, err := s.db.QueryContext(ctx, s.Query())
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %v", wine.ErrDataSource, s.table, err)
	}
	defer rs.Close()

	var rows []RawRow
	for rs.Next() {
		vals := make([]sql.NullString, len(Columns))
		dest := make([]any, len(Columns))
		for i := range vals {
			dest[i] = &vals[i]
		}
		if err := rs.Scan(dest...); err != nil {
			slog.Warn("skip unreadable catalog row", "table", s.table, "err", err)
			continue
		}
		row := make(RawRow, len(Columns))
		for i, c := range Columns {
			if vals[i].Valid {
				row[c] = vals[i].String
			}
		}
		rows = append(rows, row)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate %s: %v", wine.ErrDataSource, s.table, err)
	}
	return rows, nil
}

func (s *PostgresSource) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
