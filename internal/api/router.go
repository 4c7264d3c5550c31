// Package api exposes the pipeline runs over HTTP.
//
// @title Tennis Pipeline API
// @version 1.0
// @description Runs the ATP matches pipeline (local CSV to Cloud Storage to BigQuery) and reports run progress.
// @BasePath /api/v1
package api

import (
	httpSwagger "github.com/swaggo/http-swagger"

	_ "go-tennis-pipeline/docs"
	"go-tennis-pipeline/internal/api/handler"
	"go-tennis-pipeline/pkg/router"
)

func RegisterRoutes(r *router.Router, h *handler.Handler) {
	r.POST(handler.RunsPath, h.CreateRun)
	r.GET(handler.RunsPath, h.ListRuns)
	r.GET(handler.PipelinePath, h.GetPipeline)
	// More specific routes first
	r.GET(handler.RunErrorsPath, h.GetRunErrors)
	r.POST(handler.RunRetryPath, h.RetryRun)
	// Generic run route last
	r.GET(handler.RunPath, h.GetRun)

	r.GET("/swagger/*", router.HandlerFunc(httpSwagger.WrapHandler))
}
