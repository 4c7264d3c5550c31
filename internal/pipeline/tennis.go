package pipeline

import (
	"context"

	"cloud.google.com/go/bigquery"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"go-tennis-pipeline/internal/blob"
	"go-tennis-pipeline/internal/model"
	"go-tennis-pipeline/internal/quality"
	"go-tennis-pipeline/internal/schema"
	"go-tennis-pipeline/internal/warehouse"
)

// Stage ids of the tennis matches pipeline.
const (
	StageBegin         = "begin"
	StageCreateDataset = "create_dataset"
	StageCreateTable   = "create_temp_table"
	StageUpload        = "upload_tennis_data"
	StageLoad          = "tennis_data_gcs_to_bigquery"
	StageQualityCheck  = "ge_bigquery_validation"
	StageDeleteDataset = "delete_dataset"
	StageEnd           = "end"
)

// DefaultName is the pipeline name used when Params.Name is empty.
const DefaultName = "tennis_atp_matches"

// Params are the global parameters of the tennis pipeline.
type Params struct {
	Name              string
	Dataset           string
	Table             string
	Bucket            string
	SourcePath        string
	DestinationObject string
	Schema            *schema.Schema

	// QualityCheck adds a check stage after the load. It uses
	// Collaborators.Checker, or a TableCheck requiring MinRows rows.
	QualityCheck bool
	MinRows      int64
	// Cleanup deletes the dataset and its tables before the end stage.
	Cleanup bool
}

// Collaborators are the external services the stages call.
type Collaborators struct {
	Warehouse warehouse.Warehouse
	Blob      blob.Store
	Checker   quality.Checker
	Logger    *zap.Logger
}

func (p Params) validate(c Collaborators) error {
	var errs error
	required := map[string]string{
		"dataset":            p.Dataset,
		"table":              p.Table,
		"bucket":             p.Bucket,
		"source_path":        p.SourcePath,
		"destination_object": p.DestinationObject,
	}
	for _, key := range []string{"dataset", "table", "bucket", "source_path", "destination_object"} {
		if required[key] == "" {
			errs = multierr.Append(errs, model.NewConfigurationError(key, "is required"))
		}
	}
	if p.Dataset != "" {
		if err := warehouse.ValidateDatasetID(p.Dataset); err != nil {
			errs = multierr.Append(errs, model.NewConfigurationError("dataset", "%v", err))
		}
	}
	if p.Table != "" {
		if err := warehouse.ValidateTableID(p.Table); err != nil {
			errs = multierr.Append(errs, model.NewConfigurationError("table", "%v", err))
		}
	}
	if p.Schema == nil {
		errs = multierr.Append(errs, model.NewConfigurationError("schema", "is required"))
	}
	if p.MinRows < 0 {
		errs = multierr.Append(errs, model.NewConfigurationError("min_rows", "must be >= 0"))
	}
	if c.Warehouse == nil {
		errs = multierr.Append(errs, model.NewConfigurationError("warehouse", "no warehouse configured"))
	}
	if c.Blob == nil {
		errs = multierr.Append(errs, model.NewConfigurationError("blob", "no blob store configured"))
	}
	return errs
}

// NewTennisDefinition builds the tennis matches pipeline:
//
//	begin -> create_dataset -> create_temp_table -> upload_tennis_data ->
//	tennis_data_gcs_to_bigquery [-> ge_bigquery_validation] [-> delete_dataset] -> end
//
// Both the create-table and the load stage reference the same Schema value.
func NewTennisDefinition(p Params, c Collaborators) (*Definition, error) {
	if err := p.validate(c); err != nil {
		return nil, err
	}
	if p.Name == "" {
		p.Name = DefaultName
	}
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	load := warehouse.LoadRequest{
		Bucket:            p.Bucket,
		Objects:           []string{p.DestinationObject},
		Dataset:           p.Dataset,
		Table:             p.Table,
		Schema:            p.Schema.LoadSchema(),
		SkipLeadingRows:   1,
		CreateDisposition: bigquery.CreateIfNeeded,
		WriteDisposition:  bigquery.WriteTruncate,
		AllowJaggedRows:   true,
	}

	specs := []StageSpec{
		{
			Stage: model.Stage{ID: StageBegin, Operation: model.OpNoOp},
			Task:  noop,
		},
		{
			Stage: model.Stage{
				ID:        StageCreateDataset,
				Operation: model.OpCreateDataset,
				Params:    map[string]interface{}{"dataset_id": p.Dataset},
			},
			Task: TaskFunc(func(ctx context.Context) error {
				return c.Warehouse.EnsureDataset(ctx, p.Dataset)
			}),
		},
		{
			Stage: model.Stage{
				ID:        StageCreateTable,
				Operation: model.OpCreateTable,
				Params: map[string]interface{}{
					"dataset_id":    p.Dataset,
					"table_id":      p.Table,
					"schema_fields": p.Schema.Len(),
				},
			},
			Task: TaskFunc(func(ctx context.Context) error {
				return c.Warehouse.EnsureTable(ctx, p.Dataset, p.Table, p.Schema.TableSchema())
			}),
		},
		{
			Stage: model.Stage{
				ID:        StageUpload,
				Operation: model.OpUploadFile,
				Params: map[string]interface{}{
					"src":    p.SourcePath,
					"dst":    p.DestinationObject,
					"bucket": p.Bucket,
				},
			},
			Task: TaskFunc(func(ctx context.Context) error {
				return c.Blob.Upload(ctx, p.SourcePath, p.Bucket, p.DestinationObject)
			}),
		},
		{
			Stage: model.Stage{
				ID:        StageLoad,
				Operation: model.OpLoadToWarehouse,
				Params: map[string]interface{}{
					"bucket":                            load.Bucket,
					"source_objects":                    load.Objects,
					"destination_project_dataset_table": load.Destination(),
					"schema_fields":                     len(load.Schema),
					"skip_leading_rows":                 load.SkipLeadingRows,
					"source_format":                     string(bigquery.CSV),
					"create_disposition":                string(load.CreateDisposition),
					"write_disposition":                 string(load.WriteDisposition),
					"allow_jagged_rows":                 load.AllowJaggedRows,
				},
			},
			Task: TaskFunc(func(ctx context.Context) error {
				res, err := c.Warehouse.LoadCSV(ctx, load)
				if err != nil {
					return err
				}
				logger.Info("📄 load finished",
					zap.String("destination", load.Destination()),
					zap.Int64("output_rows", res.OutputRows))
				return nil
			}),
		},
	}

	if p.QualityCheck {
		checker := c.Checker
		if checker == nil {
			checker = &quality.TableCheck{
				Warehouse: c.Warehouse,
				Dataset:   p.Dataset,
				Table:     p.Table,
				Schema:    p.Schema,
				MinRows:   p.MinRows,
			}
		}
		specs = append(specs, StageSpec{
			Stage: model.Stage{
				ID:        StageQualityCheck,
				Operation: model.OpQualityCheck,
				Params: map[string]interface{}{
					"dataset_id": p.Dataset,
					"table_id":   p.Table,
					"min_rows":   p.MinRows,
				},
			},
			Task: TaskFunc(checker.Check),
		})
	}
	if p.Cleanup {
		specs = append(specs, StageSpec{
			Stage: model.Stage{
				ID:        StageDeleteDataset,
				Operation: model.OpDeleteDataset,
				Params: map[string]interface{}{
					"dataset_id":      p.Dataset,
					"delete_contents": true,
				},
			},
			Task: TaskFunc(func(ctx context.Context) error {
				return c.Warehouse.DeleteDataset(ctx, p.Dataset, true)
			}),
		})
	}
	specs = append(specs, StageSpec{
		Stage: model.Stage{ID: StageEnd, Operation: model.OpNoOp},
		Task:  noop,
	})

	return Define(p.Name, specs...)
}

var noop = TaskFunc(func(context.Context) error { return nil })

// Describe returns the declarative view of a definition with its schema.
func Describe(d *Definition, s *schema.Schema) model.PipelineDescription {
	desc := model.PipelineDescription{
		Name:   d.Name(),
		Order:  d.Order(),
		Stages: d.Stages(),
	}
	if s != nil {
		desc.Columns = s.Output()
	}
	return desc
}

