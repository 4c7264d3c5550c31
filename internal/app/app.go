// Package app wires configuration, collaborators, run tracking and the
// runner into the tennis pipeline used by both binaries.
package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"go-tennis-pipeline/internal/blob"
	"go-tennis-pipeline/internal/config"
	"go-tennis-pipeline/internal/model"
	"go-tennis-pipeline/internal/pipeline"
	"go-tennis-pipeline/internal/schema"
	"go-tennis-pipeline/internal/store"
	"go-tennis-pipeline/internal/warehouse"
	"go-tennis-pipeline/pkg/utils"
)

// App is a configured pipeline together with its run store.
type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	store      *store.Store
	runner     *pipeline.Runner
	definition *pipeline.Definition
	schema     *schema.Schema
	closers    []func() error
}

// Collaborators builds the warehouse and blob store for the configured
// backend. The returned close function releases both.
func Collaborators(ctx context.Context, cfg *config.Config) (warehouse.Warehouse, blob.Store, func() error, error) {
	switch cfg.Backend {
	case config.BackendLocal:
		blobs, err := blob.NewLocal(cfg.Local.BlobRoot)
		if err != nil {
			return nil, nil, nil, err
		}
		wh, err := warehouse.OpenSQLite(cfg.Local.WarehousePath, blobs)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to open local warehouse: %w", err)
		}
		return wh, blobs, wh.Close, nil

	case config.BackendGCP:
		var opts []option.ClientOption
		if cfg.GCP.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.GCP.CredentialsFile))
		}
		bq, err := warehouse.NewBigQuery(ctx, cfg.GCP.ProjectID, opts...)
		if err != nil {
			return nil, nil, nil, err
		}
		bq.Location = cfg.GCP.Location

		storageOpts := opts
		if cfg.GCP.StorageEndpoint != "" {
			storageOpts = append(append([]option.ClientOption{}, opts...),
				option.WithEndpoint(cfg.GCP.StorageEndpoint), option.WithoutAuthentication())
		}
		gcs, err := blob.NewGCS(ctx, storageOpts...)
		if err != nil {
			bq.Close()
			return nil, nil, nil, err
		}
		return bq, gcs, func() error { return multierr.Combine(gcs.Close(), bq.Close()) }, nil

	default:
		return nil, nil, nil, model.NewConfigurationError("backend", "unknown backend %q", cfg.Backend)
	}
}

// Params maps the configuration onto the pipeline parameters.
func Params(cfg *config.Config) pipeline.Params {
	return pipeline.Params{
		Name:              cfg.Pipeline.Name,
		Dataset:           cfg.Pipeline.Dataset,
		Table:             cfg.Pipeline.Table,
		Bucket:            cfg.GCP.Bucket,
		SourcePath:        cfg.Pipeline.SourcePath,
		DestinationObject: cfg.Pipeline.DestinationObject,
		Schema:            schema.ATPMatches,
		QualityCheck:      cfg.Pipeline.QualityCheck,
		MinRows:           cfg.Pipeline.MinRows,
		Cleanup:           cfg.Pipeline.Cleanup,
	}
}

// New validates cfg and builds the pipeline. Every configuration problem is
// reported before any collaborator is contacted.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &App{cfg: cfg, logger: logger, schema: schema.ATPMatches}

	wh, blobs, closeCollaborators, err := Collaborators(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeCollaborators)

	a.definition, err = pipeline.NewTennisDefinition(Params(cfg), pipeline.Collaborators{
		Warehouse: wh,
		Blob:      blobs,
		Logger:    logger,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	a.store, err = store.Open(cfg.Store.Path)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open run store: %w", err)
	}
	a.closers = append(a.closers, a.store.Close)

	a.runner = pipeline.NewRunner(
		pipeline.WithRecorder(a.store),
		pipeline.WithLogger(logger),
		pipeline.WithRetry(cfg.Retry()),
	)

	source, _ := filepath.Abs(cfg.Pipeline.SourcePath)
	logger.Info("✅ pipeline configured",
		zap.String("pipeline", a.definition.Name()),
		zap.String("backend", cfg.Backend),
		zap.String("project", utils.Redact(cfg.GCP.ProjectID)),
		zap.String("bucket", cfg.GCP.Bucket),
		zap.String("source", source),
		zap.String("destination", cfg.Pipeline.Dataset+"."+cfg.Pipeline.Table),
		zap.Strings("stages", a.definition.Order()),
	)
	return a, nil
}

// Definition returns the configured pipeline.
func (a *App) Definition() *pipeline.Definition { return a.definition }

// Store returns the run store.
func (a *App) Store() *store.Store { return a.store }

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger { return a.logger }

// Describe returns the declarative view of the pipeline.
func (a *App) Describe() model.PipelineDescription {
	return pipeline.Describe(a.definition, a.schema)
}

// NewRunID returns a fresh run id.
func NewRunID() string {
	return uuid.New().String()
}

// Submit registers a pending run and returns it. retryOf names the run being
// retried, if any.
func (a *App) Submit(ctx context.Context, retryOf string) (model.RunRecord, error) {
	run := model.RunRecord{
		ID:       NewRunID(),
		Pipeline: a.definition.Name(),
		Status:   model.RunPending,
		RetryOf:  retryOf,
	}
	if err := a.store.CreateRun(ctx, run); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

// Execute runs a submitted run to completion, bounded by the configured
// timeout.
func (a *App) Execute(ctx context.Context, runID string) (*pipeline.RunResult, error) {
	if timeout := a.cfg.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return a.runner.Run(ctx, a.definition, runID)
}

// Run submits and executes a run.
func (a *App) Run(ctx context.Context) (*pipeline.RunResult, error) {
	run, err := a.Submit(ctx, "")
	if err != nil {
		return nil, err
	}
	return a.Execute(ctx, run.ID)
}

// Close releases the store and the collaborators.
func (a *App) Close() error {
	var err error
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, a.closers[i]())
	}
	a.closers = nil
	return err
}
