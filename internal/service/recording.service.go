// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_service

import (
	"context"
	"errors"
	"fmt"

	internal_entity "github.com/rapidaai/recorder/internal/entity"
	"github.com/rapidaai/recorder/pkg/commons"
	"github.com/rapidaai/recorder/pkg/connectors"
	"gorm.io/gorm"
)

// ErrRecordingNotFound is returned when no row exists for the requested id.
var ErrRecordingNotFound = errors.New("recording not found")

type RecordingService interface {
	Create(c context.Context, filename string, size int64) (*internal_entity.Recording, error)
	Get(c context.Context, recordingId uint64) (*internal_entity.Recording, error)
	// GetAll returns every stored recording, newest first.
	GetAll(c context.Context) ([]*internal_entity.Recording, error)
}

type recordingService struct {
	logger commons.Logger
	sqlite connectors.SqliteConnector
}

func NewRecordingService(logger commons.Logger, sqlite connectors.SqliteConnector) RecordingService {
	return &recordingService{
		logger: logger,
		sqlite: sqlite,
	}
}

func (svc *recordingService) Create(c context.Context, filename string, size int64) (*internal_entity.Recording, error) {
	recording := &internal_entity.Recording{
		Filename: filename,
		Size:     size,
	}
	if err := svc.sqlite.Database().WithContext(c).Create(recording).Error; err != nil {
		svc.logger.Errorf("unable to create recording row for %s: %v", filename, err)
		return nil, fmt.Errorf("unable to create recording: %w", err)
	}
	return recording, nil
}

func (svc *recordingService) Get(c context.Context, recordingId uint64) (*internal_entity.Recording, error) {
	var recording internal_entity.Recording
	err := svc.sqlite.Database().WithContext(c).First(&recording, recordingId).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordingNotFound
	}
	if err != nil {
		svc.logger.Errorf("unable to get recording %d: %v", recordingId, err)
		return nil, fmt.Errorf("unable to get recording: %w", err)
	}
	return &recording, nil
}

func (svc *recordingService) GetAll(c context.Context) ([]*internal_entity.Recording, error) {
	recordings := []*internal_entity.Recording{}
	err := svc.sqlite.Database().WithContext(c).
		Order("created_at DESC").
		Find(&recordings).Error
	if err != nil {
		svc.logger.Errorf("unable to list recordings: %v", err)
		return nil, fmt.Errorf("unable to list recordings: %w", err)
	}
	return recordings, nil
}
