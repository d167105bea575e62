// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package healthcheck_api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rapidaai/recorder/config"
	"github.com/rapidaai/recorder/pkg/commons"
	"github.com/rapidaai/recorder/pkg/connectors"
)

type HealthCheckApi interface {
	Healthz(c *gin.Context)
	Readiness(c *gin.Context)
}

type healthCheckApi struct {
	cfg    *config.AppConfig
	logger commons.Logger
	sqlite connectors.SqliteConnector
}

func New(cfg *config.AppConfig, logger commons.Logger, sqlite connectors.SqliteConnector) HealthCheckApi {
	return &healthCheckApi{
		cfg:    cfg,
		logger: logger,
		sqlite: sqlite,
	}
}

// Healthz is the liveness probe.
func (api *healthCheckApi) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": api.cfg.Name,
		"version": api.cfg.Version,
	})
}

// Readiness reports ok only when the metadata database answers a ping.
func (api *healthCheckApi) Readiness(c *gin.Context) {
	if err := api.sqlite.Ping(c.Request.Context()); err != nil {
		api.logger.Errorf("readiness: database ping failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
