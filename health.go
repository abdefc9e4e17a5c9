package main

import (
	"context"
	"net/http"
	"time"

	"github.com/floydspace/project-mgmt-graphql-go/store"
	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	DB        string    `json:"db"`
}

type healthHandler struct {
	serviceName string
	version     string
	store       store.Store
}

func newHealthHandler(serviceName, version string, st store.Store) *healthHandler {
	return &healthHandler{
		serviceName: serviceName,
		version:     version,
		store:       st,
	}
}

func (h *healthHandler) healthCheck(c *gin.Context) {
	dbStatus := "up"
	pingCtx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
	defer cancel()
	if err := h.store.Ping(pingCtx); err != nil {
		dbStatus = "down"
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		DB:        dbStatus,
	})
}

func (h *healthHandler) registerRoutes(r gin.IRouter) {
	r.GET("/health", h.healthCheck)
	r.GET("/healthz", h.healthCheck)
}
