package api

import (
	"context"

	"go.uber.org/zap"

	"go-tennis-pipeline/internal/api/handler"
	"go-tennis-pipeline/internal/app"
	"go-tennis-pipeline/pkg/router"
)

// Serve runs the API on addr until ctx is cancelled. Background runs see the
// cancellation between stages and are waited for before Serve returns.
func Serve(ctx context.Context, a *app.App, addr string) error {
	logger := a.Logger()
	h := handler.New(ctx, a, a.Store(), logger)
	r := router.New(logger)
	RegisterRoutes(r, h)

	logger.Info("📚 Swagger UI available", zap.String("url", "http://localhost"+addr+"/swagger/index.html"))
	err := r.Start(ctx, addr)
	h.Wait()
	return err
}
