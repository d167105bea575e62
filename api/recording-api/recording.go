// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package recording_api

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	internal_service "github.com/rapidaai/recorder/internal/service"
	"github.com/rapidaai/recorder/config"
	"github.com/rapidaai/recorder/pkg/commons"
	"github.com/rapidaai/recorder/pkg/connectors"
)

type RecordingApi interface {
	Upload(c *gin.Context)
	GetAll(c *gin.Context)
	Stream(c *gin.Context)
}

type recordingApi struct {
	cfg              *config.AppConfig
	logger           commons.Logger
	sqlite           connectors.SqliteConnector
	recordingService internal_service.RecordingService
}

func New(cfg *config.AppConfig, logger commons.Logger, sqlite connectors.SqliteConnector) RecordingApi {
	return &recordingApi{
		cfg:              cfg,
		logger:           logger,
		sqlite:           sqlite,
		recordingService: internal_service.NewRecordingService(logger, sqlite),
	}
}

// Upload handles POST /api/recordings: a multipart body with the artifact in
// the `video` field. The server assigns the filename; the row and the file
// are written together and the new id is returned.
func (api *recordingApi) Upload(c *gin.Context) {
	file, err := c.FormFile("video")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no video file provided"})
		return
	}
	if file.Size > api.cfg.StorageConfig.MaxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "video exceeds the maximum upload size"})
		return
	}

	filename := uuid.New().String() + ".webm"
	if err := os.MkdirAll(api.cfg.StorageConfig.Dir, 0o755); err != nil {
		api.logger.Errorf("unable to create storage dir: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to store recording"})
		return
	}
	destination := filepath.Join(api.cfg.StorageConfig.Dir, filename)
	if err := c.SaveUploadedFile(file, destination); err != nil {
		api.logger.Errorf("unable to save uploaded file %s: %v", filename, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to store recording"})
		return
	}

	recording, err := api.recordingService.Create(c.Request.Context(), filename, file.Size)
	if err != nil {
		// Keep disk and table consistent; the upload as a whole failed.
		_ = os.Remove(destination)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to store recording"})
		return
	}

	api.logger.Infof("stored recording %d (%s, %d bytes)", recording.Id, filename, file.Size)
	c.JSON(http.StatusCreated, gin.H{"recordingId": recording.Id})
}

// GetAll handles GET /api/recordings, newest first.
func (api *recordingApi) GetAll(c *gin.Context) {
	recordings, err := api.recordingService.GetAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to list recordings"})
		return
	}
	c.JSON(http.StatusOK, recordings)
}

// Stream handles GET /api/recordings/:id, serving the stored webm for
// playback or download. A missing row or a missing backing file both map
// to 404.
func (api *recordingApi) Stream(c *gin.Context) {
	recordingId, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recording id"})
		return
	}
	recording, err := api.recordingService.Get(c.Request.Context(), recordingId)
	if err != nil {
		if errors.Is(err, internal_service.ErrRecordingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "recording not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to read recording"})
		return
	}
	path := filepath.Join(api.cfg.StorageConfig.Dir, recording.Filename)
	if _, err := os.Stat(path); err != nil {
		api.logger.Errorf("recording %d has no backing file %s", recording.Id, recording.Filename)
		c.JSON(http.StatusNotFound, gin.H{"error": "recording not found"})
		return
	}
	c.Header("Content-Type", "video/webm")
	c.File(path)
}
