// Package warehouse is the data warehouse boundary: datasets, tables and CSV
// load jobs.
package warehouse

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"cloud.google.com/go/bigquery"
)

// ErrNotFound is returned when a dataset or table does not exist.
var ErrNotFound = errors.New("warehouse: not found")

// Warehouse is implemented by BigQuery and by the local SQLite warehouse.
// EnsureDataset and EnsureTable succeed when the target already exists.
type Warehouse interface {
	EnsureDataset(ctx context.Context, dataset string) error
	EnsureTable(ctx context.Context, dataset, table string, schema bigquery.Schema) error
	LoadCSV(ctx context.Context, req LoadRequest) (LoadResult, error)
	DescribeTable(ctx context.Context, dataset, table string) (TableInfo, error)
	DeleteDataset(ctx context.Context, dataset string, deleteContents bool) error
}

// LoadRequest describes a CSV load from object storage into a table.
type LoadRequest struct {
	Bucket            string
	Objects           []string
	Dataset           string
	Table             string
	Schema            bigquery.Schema
	SkipLeadingRows   int64
	CreateDisposition bigquery.TableCreateDisposition
	WriteDisposition  bigquery.TableWriteDisposition
	AllowJaggedRows   bool
}

// Destination is the dataset.table form of the target.
func (r LoadRequest) Destination() string {
	return r.Dataset + "." + r.Table
}

// Validate checks the request before any I/O.
func (r LoadRequest) Validate() error {
	if r.Bucket == "" {
		return errors.New("load: bucket is required")
	}
	if len(r.Objects) == 0 {
		return errors.New("load: at least one source object is required")
	}
	if err := ValidateDatasetID(r.Dataset); err != nil {
		return err
	}
	if err := ValidateTableID(r.Table); err != nil {
		return err
	}
	if len(r.Schema) == 0 {
		return errors.New("load: schema is required")
	}
	if r.SkipLeadingRows < 0 {
		return fmt.Errorf("load: skip leading rows must be >= 0, got %d", r.SkipLeadingRows)
	}
	switch r.CreateDisposition {
	case "", bigquery.CreateIfNeeded, bigquery.CreateNever:
	default:
		return fmt.Errorf("load: unknown create disposition %q", r.CreateDisposition)
	}
	switch r.WriteDisposition {
	case "", bigquery.WriteTruncate, bigquery.WriteAppend, bigquery.WriteEmpty:
	default:
		return fmt.Errorf("load: unknown write disposition %q", r.WriteDisposition)
	}
	return nil
}

// LoadResult reports what a load job wrote.
type LoadResult struct {
	OutputRows int64
	Objects    int
}

// TableInfo is the subset of table metadata the pipeline inspects.
type TableInfo struct {
	Dataset string
	Table   string
	Schema  bigquery.Schema
	NumRows int64
}

var (
	datasetIDPattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,1024}$`)
	tableIDPattern   = regexp.MustCompile(`^[\p{L}\p{M}\p{N}\p{Pc}\p{Pd} ]{1,1024}$`)
)

// ValidateDatasetID checks the BigQuery dataset naming rules.
func ValidateDatasetID(id string) error {
	if !datasetIDPattern.MatchString(id) {
		return fmt.Errorf("invalid dataset id %q: use letters, digits and underscores", id)
	}
	return nil
}

// ValidateTableID checks the BigQuery table naming rules.
func ValidateTableID(id string) error {
	if !tableIDPattern.MatchString(id) {
		return fmt.Errorf("invalid table id %q", id)
	}
	return nil
}
