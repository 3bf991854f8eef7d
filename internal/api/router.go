package api

import (
	"supplyline/internal/api/handler"
	"supplyline/pkg/router"
)

func RegisterRoutes(r *router.Router) {
	r.POST("/api/v1/datasets", handler.CreateDataset)
	r.GET("/api/v1/datasets", handler.ListDatasets)
	// Overlapping wildcard routes resolve to the most specific pattern.
	r.POST("/api/v1/datasets/*/query", handler.QueryDataset)
	r.GET("/api/v1/datasets/*/export", handler.ExportDataset)
	r.GET("/api/v1/datasets/*", handler.GetDataset)

	r.PUT("/api/v1/agents", handler.PutAgentsConfig)
	r.GET("/api/v1/agents", handler.GetAgentsConfig)
	r.POST("/api/v1/agents/run", handler.RunAgents)
	r.POST("/api/v1/agents/steps/*/run", handler.RunAgentStep)

	r.GET("/api/v1/runs/*/logs", handler.GetRunLogs)
	r.POST("/api/v1/runs/*/cancel", handler.CancelRun)
	r.GET("/api/v1/runs/*", handler.GetRun)
}
