// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package recorder_routers

import (
	"github.com/gin-gonic/gin"
	recordingApi "github.com/rapidaai/recorder/api/recording-api"
	"github.com/rapidaai/recorder/config"
	"github.com/rapidaai/recorder/pkg/commons"
	"github.com/rapidaai/recorder/pkg/connectors"
)

func RecordingRoutes(cfg *config.AppConfig, engine *gin.Engine, logger commons.Logger, sqlite connectors.SqliteConnector) {
	logger.Info("Internal RecordingRoutes and Connectors added to engine.")
	apiv1 := engine.Group("/api")
	recApi := recordingApi.New(cfg, logger, sqlite)
	{
		apiv1.POST("/recordings", recApi.Upload)
		apiv1.GET("/recordings", recApi.GetAll)
		apiv1.GET("/recordings/:id", recApi.Stream)
	}
}
