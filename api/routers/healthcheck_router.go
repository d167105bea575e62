// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package recorder_routers

import (
	"github.com/gin-gonic/gin"
	healthCheckApi "github.com/rapidaai/recorder/api/health-check-api"
	"github.com/rapidaai/recorder/config"
	"github.com/rapidaai/recorder/pkg/commons"
	"github.com/rapidaai/recorder/pkg/connectors"
)

func HealthCheckRoutes(cfg *config.AppConfig, engine *gin.Engine, logger commons.Logger, sqlite connectors.SqliteConnector) {
	logger.Info("Internal HealthCheckRoutes and Connectors added to engine.")
	apiv1 := engine.Group("")
	hcApi := healthCheckApi.New(cfg, logger, sqlite)
	{
		apiv1.GET("/health", hcApi.Healthz)
		apiv1.GET("/readiness", hcApi.Readiness)
	}
}
