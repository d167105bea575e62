// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package recording_api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	internal_entity "github.com/rapidaai/recorder/internal/entity"
	recorder_routers "github.com/rapidaai/recorder/api/routers"
	"github.com/rapidaai/recorder/config"
	"github.com/rapidaai/recorder/pkg/capture"
	recording_client "github.com/rapidaai/recorder/pkg/clients/recording"
	"github.com/rapidaai/recorder/pkg/commons"
	"github.com/rapidaai/recorder/pkg/connectors"
)

type testEnv struct {
	cfg    *config.AppConfig
	engine *gin.Engine
	server *httptest.Server
	client recording_client.RecordingServiceClient
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	cfg := &config.AppConfig{
		Name:     "test-recording-api",
		Version:  "0.0.1",
		Host:     "127.0.0.1",
		Port:     0,
		LogLevel: "debug",
		LogPath:  dir,
		StorageConfig: config.StorageConfig{
			Dir:            filepath.Join(dir, "recordings"),
			SqlitePath:     filepath.Join(dir, "recordings.db"),
			MaxUploadBytes: 100 * 1024 * 1024,
		},
	}
	logger, err := commons.NewApplicationLogger(
		commons.Name(cfg.Name),
		commons.Path(cfg.LogPath),
		commons.Level(cfg.LogLevel),
	)
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	sqlite, err := connectors.NewSqliteConnector(logger, cfg.StorageConfig.SqlitePath)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })
	if err := sqlite.Migrate(&internal_entity.Recording{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	engine := gin.New()
	recorder_routers.HealthCheckRoutes(cfg, engine, logger, sqlite)
	recorder_routers.RecordingRoutes(cfg, engine, logger, sqlite)

	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)
	cfg.RecorderHost = server.URL

	return &testEnv{
		cfg:    cfg,
		engine: engine,
		server: server,
		client: recording_client.NewRecordingServiceClient(cfg, logger),
	}
}

func multipartUpload(t *testing.T, field string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, "recording.webm")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("write payload: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestUploadCreatesRecording(t *testing.T) {
	env := newTestEnv(t)
	payload := bytes.Repeat([]byte{0xAB}, 2048)
	body, contentType := multipartUpload(t, "video", payload)

	resp, err := http.Post(env.server.URL+"/api/recordings", contentType, body)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var result struct {
		RecordingId uint64 `json:"recordingId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.RecordingId == 0 {
		t.Error("expected a positive recording id")
	}

	entries, err := os.ReadDir(env.cfg.StorageConfig.Dir)
	if err != nil {
		t.Fatalf("read storage dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 stored file, got %d", len(entries))
	}
	info, _ := entries[0].Info()
	if info.Size() != int64(len(payload)) {
		t.Errorf("stored file size %d, expected %d", info.Size(), len(payload))
	}
}

func TestUploadWithoutFile(t *testing.T) {
	env := newTestEnv(t)
	body, contentType := multipartUpload(t, "document", []byte("not a video"))

	resp, err := http.Post(env.server.URL+"/api/recordings", contentType, body)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestUploadOverSizeLimit(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.StorageConfig.MaxUploadBytes = 16
	body, contentType := multipartUpload(t, "video", bytes.Repeat([]byte{0x01}, 64))

	resp, err := http.Post(env.server.URL+"/api/recordings", contentType, body)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestListIsNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.client.Submit(ctx, &capture.Artifact{Data: []byte("first"), MimeType: "video/webm"})
	if err != nil {
		t.Fatalf("submit first: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	second, err := env.client.Submit(ctx, &capture.Artifact{Data: []byte("second-longer"), MimeType: "video/webm"})
	if err != nil {
		t.Fatalf("submit second: %v", err)
	}

	recordings, err := env.client.GetAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recordings) != 2 {
		t.Fatalf("expected 2 recordings, got %d", len(recordings))
	}
	if recordings[0].Id != second || recordings[1].Id != first {
		t.Errorf("expected newest-first order [%d %d], got [%d %d]",
			second, first, recordings[0].Id, recordings[1].Id)
	}
}

// Round-trip: an uploaded artifact of size S is listed with size S and
// fetches back exactly S bytes.
func TestUploadFetchRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	payload := bytes.Repeat([]byte{0xC4, 0x11}, 1500)

	recordingId, err := env.client.Submit(ctx, &capture.Artifact{Data: payload, MimeType: "video/webm"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	recordings, err := env.client.GetAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recordings) != 1 || recordings[0].Size != int64(len(payload)) {
		t.Fatalf("list must report the uploaded size %d, got %+v", len(payload), recordings)
	}

	body, err := env.client.Fetch(ctx, recordingId)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	defer body.Close()
	fetched, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(fetched, payload) {
		t.Errorf("fetched bytes differ: got %d bytes, expected %d", len(fetched), len(payload))
	}
}

func TestStreamContentType(t *testing.T) {
	env := newTestEnv(t)
	recordingId, err := env.client.Submit(context.Background(), &capture.Artifact{Data: []byte("webm-bytes"), MimeType: "video/webm"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	resp, err := http.Get(env.server.URL + "/api/recordings/" + strconv.FormatUint(recordingId, 10))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get("Content-Type"); got != "video/webm" {
		t.Errorf("expected Content-Type video/webm, got %q", got)
	}
}

func TestFetchUnknownIdIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	body, err := env.client.Fetch(context.Background(), 424242)
	if !errors.Is(err, recording_client.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if body != nil {
		t.Error("no partial bytes may be delivered on not-found")
	}
}

func TestStreamMissingBackingFileIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	recordingId, err := env.client.Submit(ctx, &capture.Artifact{Data: []byte("doomed"), MimeType: "video/webm"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	entries, _ := os.ReadDir(env.cfg.StorageConfig.Dir)
	for _, entry := range entries {
		os.Remove(filepath.Join(env.cfg.StorageConfig.Dir, entry.Name()))
	}

	if _, err := env.client.Fetch(ctx, recordingId); !errors.Is(err, recording_client.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing backing file, got %v", err)
	}
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/health", "/readiness"} {
		resp, err := http.Get(env.server.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, resp.StatusCode)
		}
	}
}
