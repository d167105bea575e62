// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package recording_client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rapidaai/recorder/config"
	"github.com/rapidaai/recorder/pkg/capture"
	"github.com/rapidaai/recorder/pkg/commons"
)

const (
	// uploadTimeout bounds a single Submit call. There is no retry: a failed
	// upload leaves the local artifact intact for the caller to try again.
	uploadTimeout = 30 * time.Second
	listTimeout   = 10 * time.Second
)

var (
	ErrNetworkTimeout = errors.New("recording service did not respond in time")
	ErrNetworkFailure = errors.New("recording service unreachable")
	ErrNotFound       = errors.New("recording not found")
	ErrServerFailure  = errors.New("recording service failure")
)

// StoredRecording mirrors the list entry served by the recording service.
type StoredRecording struct {
	Id        uint64    `json:"id"`
	Filename  string    `json:"filename"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RecordingServiceClient interface {
	// Submit uploads the artifact as a single binary payload and returns the
	// server-assigned recording id.
	Submit(c context.Context, artifact *capture.Artifact) (uint64, error)
	// GetAll fetches the full stored set, newest first.
	GetAll(c context.Context) ([]*StoredRecording, error)
	// Fetch streams the playback bytes of one recording. The caller owns the
	// returned reader.
	Fetch(c context.Context, recordingId uint64) (io.ReadCloser, error)
}

type recordingServiceClient struct {
	cfg    *config.AppConfig
	logger commons.Logger
	rest   *resty.Client
}

func NewRecordingServiceClient(cfg *config.AppConfig, logger commons.Logger) RecordingServiceClient {
	return &recordingServiceClient{
		cfg:    cfg,
		logger: logger,
		rest:   resty.New().SetBaseURL(cfg.RecorderHost),
	}
}

type submitResponse struct {
	RecordingId uint64 `json:"recordingId"`
}

func (client *recordingServiceClient) Submit(c context.Context, artifact *capture.Artifact) (uint64, error) {
	if artifact == nil || len(artifact.Data) == 0 {
		return 0, fmt.Errorf("%w: empty artifact", ErrServerFailure)
	}
	ctx, cancel := context.WithTimeout(c, uploadTimeout)
	defer cancel()

	var result submitResponse
	resp, err := client.rest.R().
		SetContext(ctx).
		SetFileReader("video", "recording.webm", bytes.NewReader(artifact.Data)).
		SetResult(&result).
		Post("/api/recordings")
	if err != nil {
		return 0, classifyTransportError(err)
	}
	if resp.StatusCode() != http.StatusCreated {
		client.logger.Errorf("upload rejected with status %d: %s", resp.StatusCode(), resp.String())
		return 0, fmt.Errorf("%w: status %d", ErrServerFailure, resp.StatusCode())
	}
	client.logger.Infof("uploaded recording %d (%d bytes)", result.RecordingId, len(artifact.Data))
	return result.RecordingId, nil
}

func (client *recordingServiceClient) GetAll(c context.Context) ([]*StoredRecording, error) {
	ctx, cancel := context.WithTimeout(c, listTimeout)
	defer cancel()

	recordings := []*StoredRecording{}
	resp, err := client.rest.R().
		SetContext(ctx).
		SetResult(&recordings).
		Get("/api/recordings")
	if err != nil {
		return nil, classifyTransportError(err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrServerFailure, resp.StatusCode())
	}
	return recordings, nil
}

func (client *recordingServiceClient) Fetch(c context.Context, recordingId uint64) (io.ReadCloser, error) {
	resp, err := client.rest.R().
		SetContext(c).
		SetDoNotParseResponse(true).
		Get(fmt.Sprintf("/api/recordings/%d", recordingId))
	if err != nil {
		return nil, classifyTransportError(err)
	}
	body := resp.RawBody()
	switch {
	case resp.StatusCode() == http.StatusOK:
		return body, nil
	case resp.StatusCode() == http.StatusNotFound:
		body.Close()
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, recordingId)
	default:
		body.Close()
		return nil, fmt.Errorf("%w: status %d", ErrServerFailure, resp.StatusCode())
	}
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrNetworkTimeout, err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrNetworkTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrNetworkFailure, err)
}
