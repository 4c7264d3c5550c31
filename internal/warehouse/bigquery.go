package warehouse

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"go-tennis-pipeline/internal/blob"
)

// BigQuery is the Warehouse backed by Google BigQuery.
type BigQuery struct {
	client *bigquery.Client
	// Location of datasets created by EnsureDataset. Empty uses the
	// project default.
	Location string
}

// NewBigQuery creates a client for the project.
func NewBigQuery(ctx context.Context, projectID string, opts ...option.ClientOption) (*BigQuery, error) {
	client, err := bigquery.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bigquery client: %w", err)
	}
	return &BigQuery{client: client}, nil
}

// Close releases the client.
func (b *BigQuery) Close() error {
	return b.client.Close()
}

func (b *BigQuery) EnsureDataset(ctx context.Context, dataset string) error {
	err := b.client.Dataset(dataset).Create(ctx, &bigquery.DatasetMetadata{Location: b.Location})
	if err != nil && !isStatus(err, http.StatusConflict) {
		return err
	}
	return nil
}

func (b *BigQuery) EnsureTable(ctx context.Context, dataset, table string, schema bigquery.Schema) error {
	err := b.client.Dataset(dataset).Table(table).Create(ctx, &bigquery.TableMetadata{Schema: schema})
	if err != nil && !isStatus(err, http.StatusConflict) {
		return err
	}
	return nil
}

// LoadCSV runs a load job and waits for it to finish.
func (b *BigQuery) LoadCSV(ctx context.Context, req LoadRequest) (LoadResult, error) {
	if err := req.Validate(); err != nil {
		return LoadResult{}, err
	}
	loader := b.client.Dataset(req.Dataset).Table(req.Table).LoaderFrom(gcsReference(req))
	configureLoader(loader, req)

	job, err := loader.Run(ctx)
	if err != nil {
		return LoadResult{}, err
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return LoadResult{}, err
	}
	if err := status.Err(); err != nil {
		return LoadResult{}, fmt.Errorf("load job %s: %w", job.ID(), err)
	}

	res := LoadResult{Objects: len(req.Objects)}
	if status.Statistics != nil {
		if stats, ok := status.Statistics.Details.(*bigquery.LoadStatistics); ok {
			res.OutputRows = stats.OutputRows
		}
	}
	return res, nil
}

func (b *BigQuery) DescribeTable(ctx context.Context, dataset, table string) (TableInfo, error) {
	md, err := b.client.Dataset(dataset).Table(table).Metadata(ctx)
	if isStatus(err, http.StatusNotFound) {
		return TableInfo{}, fmt.Errorf("%s.%s: %w", dataset, table, ErrNotFound)
	}
	if err != nil {
		return TableInfo{}, err
	}
	return TableInfo{
		Dataset: dataset,
		Table:   table,
		Schema:  md.Schema,
		NumRows: int64(md.NumRows),
	}, nil
}

func (b *BigQuery) DeleteDataset(ctx context.Context, dataset string, deleteContents bool) error {
	ds := b.client.Dataset(dataset)
	var err error
	if deleteContents {
		err = ds.DeleteWithContents(ctx)
	} else {
		err = ds.Delete(ctx)
	}
	if err != nil && !isStatus(err, http.StatusNotFound) {
		return err
	}
	return nil
}

// gcsReference builds the CSV source of a load job.
func gcsReference(req LoadRequest) *bigquery.GCSReference {
	uris := make([]string, len(req.Objects))
	for i, o := range req.Objects {
		uris[i] = blob.URI(req.Bucket, o)
	}
	ref := bigquery.NewGCSReference(uris...)
	ref.SourceFormat = bigquery.CSV
	ref.Schema = req.Schema
	ref.SkipLeadingRows = req.SkipLeadingRows
	ref.AllowJaggedRows = req.AllowJaggedRows
	return ref
}

func configureLoader(l *bigquery.Loader, req LoadRequest) {
	l.CreateDisposition = req.CreateDisposition
	if l.CreateDisposition == "" {
		l.CreateDisposition = bigquery.CreateIfNeeded
	}
	l.WriteDisposition = req.WriteDisposition
	if l.WriteDisposition == "" {
		l.WriteDisposition = bigquery.WriteAppend
	}
}

func isStatus(err error, code int) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == code
}
