// Package quality holds optional post-load checks on a warehouse table.
package quality

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"go-tennis-pipeline/internal/schema"
	"go-tennis-pipeline/internal/warehouse"
)

// Checker verifies a loaded table. A nil error means the check passed.
type Checker interface {
	Check(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Check(ctx context.Context) error { return f(ctx) }

// TableCheck requires the table to match the schema exactly and hold at least
// MinRows rows (and no more than MaxRows when set).
type TableCheck struct {
	Warehouse warehouse.Warehouse
	Dataset   string
	Table     string
	Schema    *schema.Schema
	MinRows   int64
	MaxRows   int64
}

// Check reports every failed expectation, not just the first.
func (c *TableCheck) Check(ctx context.Context) error {
	info, err := c.Warehouse.DescribeTable(ctx, c.Dataset, c.Table)
	if err != nil {
		return err
	}

	var errs error
	if c.Schema != nil {
		got, err := schema.FromBigQuery(info.Schema)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("table schema: %w", err))
		} else if diff := c.Schema.Diff(got); diff != "" {
			errs = multierr.Append(errs, fmt.Errorf("schema mismatch: %s", diff))
		}
	}
	if info.NumRows < c.MinRows {
		errs = multierr.Append(errs, fmt.Errorf("row count below minimum: got %d, want >= %d", info.NumRows, c.MinRows))
	}
	if c.MaxRows > 0 && info.NumRows > c.MaxRows {
		errs = multierr.Append(errs, fmt.Errorf("row count above maximum: got %d, want <= %d", info.NumRows, c.MaxRows))
	}
	if errs != nil {
		return fmt.Errorf("quality check on %s.%s failed: %w", c.Dataset, c.Table, errs)
	}
	return nil
}
