package warehouse

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	_ "github.com/mattn/go-sqlite3"

	"go-tennis-pipeline/internal/blob"
	"go-tennis-pipeline/internal/schema"
)

// SQLite is a local Warehouse. Datasets are rows of a catalog table and each
// warehouse table is a SQLite table named "<dataset>.<table>". Load jobs read
// their objects through a blob.Store.
type SQLite struct {
	db    *sql.DB
	blobs blob.Store
}

// OpenSQLite opens (or creates) the warehouse database at path.
func OpenSQLite(path string, blobs blob.Store) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// Serialize access; load jobs are single transactions.
	db.SetMaxOpenConns(1)

	catalog := `
	CREATE TABLE IF NOT EXISTS _datasets (
		id TEXT PRIMARY KEY,
		created_at DATETIME
	);
	`
	if _, err := db.Exec(catalog); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db, blobs: blobs}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) EnsureDataset(ctx context.Context, dataset string) error {
	if err := ValidateDatasetID(dataset); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO _datasets (id, created_at) VALUES (?, ?)`,
		dataset, time.Now().UTC())
	return err
}

func (s *SQLite) EnsureTable(ctx context.Context, dataset, table string, bq bigquery.Schema) error {
	if err := ValidateTableID(table); err != nil {
		return err
	}
	sch, err := schema.FromBigQuery(bq)
	if err != nil {
		return err
	}
	if err := s.requireDataset(ctx, s.db, dataset); err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, createTableSQL(dataset, table, sch, true))
	return err
}

// LoadCSV parses every object before writing, so a bad row leaves the table
// untouched.
func (s *SQLite) LoadCSV(ctx context.Context, req LoadRequest) (LoadResult, error) {
	if err := req.Validate(); err != nil {
		return LoadResult{}, err
	}
	sch, err := schema.FromBigQuery(req.Schema)
	if err != nil {
		return LoadResult{}, err
	}

	var rows [][]interface{}
	for _, object := range req.Objects {
		parsed, err := s.readObject(ctx, req, object, sch)
		if err != nil {
			return LoadResult{}, err
		}
		rows = append(rows, parsed...)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return LoadResult{}, err
	}
	defer tx.Rollback()

	if err := s.requireDataset(ctx, tx, req.Dataset); err != nil {
		return LoadResult{}, err
	}
	exists, err := tableExists(ctx, tx, req.Dataset, req.Table)
	if err != nil {
		return LoadResult{}, err
	}
	if !exists && req.CreateDisposition == bigquery.CreateNever {
		return LoadResult{}, fmt.Errorf("%s: %w", req.Destination(), ErrNotFound)
	}

	switch req.WriteDisposition {
	case bigquery.WriteTruncate:
		// Truncation replaces both the rows and the table schema.
		if exists {
			if _, err := tx.ExecContext(ctx, `DROP TABLE `+tableIdent(req.Dataset, req.Table)); err != nil {
				return LoadResult{}, err
			}
		}
		exists = false
	case bigquery.WriteEmpty:
		if exists {
			var n int64
			if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+tableIdent(req.Dataset, req.Table)).Scan(&n); err != nil {
				return LoadResult{}, err
			}
			if n > 0 {
				return LoadResult{}, fmt.Errorf("%s: table is not empty", req.Destination())
			}
		}
	}
	if !exists {
		if _, err := tx.ExecContext(ctx, createTableSQL(req.Dataset, req.Table, sch, false)); err != nil {
			return LoadResult{}, err
		}
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", sch.Len()), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		tableIdent(req.Dataset, req.Table), columnList(sch), placeholders))
	if err != nil {
		return LoadResult{}, err
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return LoadResult{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return LoadResult{}, err
	}
	return LoadResult{OutputRows: int64(len(rows)), Objects: len(req.Objects)}, nil
}

func (s *SQLite) readObject(ctx context.Context, req LoadRequest, object string, sch *schema.Schema) ([][]interface{}, error) {
	rc, err := s.blobs.Open(ctx, req.Bucket, object)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	rows, err := ParseCSV(rc, sch, req.SkipLeadingRows, req.AllowJaggedRows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", blob.URI(req.Bucket, object), err)
	}
	return rows, nil
}

// ParseCSV reads typed rows from r. The first skip records are discarded. Rows
// shorter than the schema are null-filled when jagged rows are allowed and
// rejected otherwise; longer rows are always rejected.
func ParseCSV(r io.Reader, sch *schema.Schema, skip int64, allowJagged bool) ([][]interface{}, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	cols := sch.Columns()
	var rows [][]interface{}
	var line int64
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return rows, nil
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("csv read error: %w", err)
		}
		if line <= skip {
			continue
		}

		if len(record) > len(cols) {
			return nil, fmt.Errorf("row %d: too many columns: got %d, schema has %d", line, len(record), len(cols))
		}
		if len(record) < len(cols) && !allowJagged {
			return nil, fmt.Errorf("row %d: missing columns: got %d, schema has %d", line, len(record), len(cols))
		}

		row := make([]interface{}, len(cols))
		for i, c := range cols {
			if i < len(record) {
				v, err := schema.ParseCell(c.Type, record[i])
				if err != nil {
					return nil, fmt.Errorf("row %d, column %s: %w", line, c.Name, err)
				}
				row[i] = v
			}
			if row[i] == nil && !c.Nullable {
				return nil, fmt.Errorf("row %d: required column %s is null", line, c.Name)
			}
		}
		rows = append(rows, row)
	}
}

func (s *SQLite) DescribeTable(ctx context.Context, dataset, table string) (TableInfo, error) {
	exists, err := tableExists(ctx, s.db, dataset, table)
	if err != nil {
		return TableInfo{}, err
	}
	if !exists {
		return TableInfo{}, fmt.Errorf("%s.%s: %w", dataset, table, ErrNotFound)
	}

	rows, err := s.db.QueryContext(ctx, `PRAGMA table_info(`+tableIdent(dataset, table)+`)`)
	if err != nil {
		return TableInfo{}, err
	}
	defer rows.Close()

	info := TableInfo{Dataset: dataset, Table: table}
	for rows.Next() {
		var (
			cid     int
			name    string
			decl    string
			notNull bool
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &decl, &notNull, &dflt, &pk); err != nil {
			return TableInfo{}, err
		}
		ct, err := schema.FromSQLiteType(decl)
		if err != nil {
			return TableInfo{}, fmt.Errorf("column %s: %w", name, err)
		}
		info.Schema = append(info.Schema, &bigquery.FieldSchema{
			Name:     name,
			Type:     schema.FieldType(ct),
			Required: notNull,
		})
	}
	if err := rows.Err(); err != nil {
		return TableInfo{}, err
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+tableIdent(dataset, table)).Scan(&info.NumRows); err != nil {
		return TableInfo{}, err
	}
	return info, nil
}

// Rows returns every row of a table in insertion order.
func (s *SQLite) Rows(ctx context.Context, dataset, table string) ([][]interface{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT * FROM `+tableIdent(dataset, table)+` ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out [][]interface{}
	for rows.Next() {
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		out = append(out, vals)
	}
	return out, rows.Err()
}

func (s *SQLite) DeleteDataset(ctx context.Context, dataset string, deleteContents bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.requireDataset(ctx, tx, dataset); errors.Is(err, ErrNotFound) {
		return nil
	} else if err != nil {
		return err
	}

	prefix := dataset + "."
	rows, err := tx.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND substr(name, 1, ?) = ?`, len(prefix), prefix)
	if err != nil {
		return err
	}
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return err
		}
		tables = append(tables, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if len(tables) > 0 && !deleteContents {
		return fmt.Errorf("dataset %s is not empty (%d tables)", dataset, len(tables))
	}
	for _, t := range tables {
		if _, err := tx.ExecContext(ctx, `DROP TABLE `+quoteIdent(t)); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM _datasets WHERE id = ?`, dataset); err != nil {
		return err
	}
	return tx.Commit()
}

// DatasetExists reports whether the dataset is in the catalog.
func (s *SQLite) DatasetExists(ctx context.Context, dataset string) (bool, error) {
	err := s.requireDataset(ctx, s.db, dataset)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (s *SQLite) requireDataset(ctx context.Context, q querier, dataset string) error {
	var id string
	err := q.QueryRowContext(ctx, `SELECT id FROM _datasets WHERE id = ?`, dataset).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("dataset %s: %w", dataset, ErrNotFound)
	}
	return err
}

func tableExists(ctx context.Context, q querier, dataset, table string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, dataset+"."+table).Scan(&n)
	return n > 0, err
}

func createTableSQL(dataset, table string, sch *schema.Schema, ifNotExists bool) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	if ifNotExists {
		b.WriteString("IF NOT EXISTS ")
	}
	b.WriteString(tableIdent(dataset, table))
	b.WriteString(" (")
	for i, c := range sch.Columns() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteIdent(c.Name))
		b.WriteString(" ")
		b.WriteString(schema.SQLiteType(c.Type))
		if !c.Nullable {
			b.WriteString(" NOT NULL")
		}
	}
	b.WriteString(")")
	return b.String()
}

func columnList(sch *schema.Schema) string {
	names := sch.Names()
	for i, n := range names {
		names[i] = quoteIdent(n)
	}
	return strings.Join(names, ", ")
}

func tableIdent(dataset, table string) string {
	return quoteIdent(dataset + "." + table)
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
