// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rapidaai/recorder/pkg/commons"
)

// State is the lifecycle state of a capture session.
type State string

const (
	StateIdle      State = "IDLE"
	StateAcquiring State = "ACQUIRING"
	StateRecording State = "RECORDING"
	StateStopping  State = "STOPPING"
	StateFinalized State = "FINALIZED"
	StateFailed    State = "FAILED"
)

// Config holds the fixed session parameters. TickInterval is the elapsed
// counter granularity; production uses one second, tests shrink it.
type Config struct {
	MaxDuration        time.Duration
	Timeslice          time.Duration
	TickInterval       time.Duration
	VideoBitsPerSecond int
	AudioBitsPerSecond int
	// MimeTypes is the encoding preference order, richer codec first.
	MimeTypes []string
}

func DefaultConfig() Config {
	return Config{
		MaxDuration:        180 * time.Second,
		Timeslice:          time.Second,
		TickInterval:       time.Second,
		VideoBitsPerSecond: 2_500_000,
		AudioBitsPerSecond: 128_000,
		MimeTypes: []string{
			"video/webm;codecs=vp9,opus",
			"video/webm",
		},
	}
}

// maxTicks is the elapsed ceiling; reaching it forces an automatic stop.
func (c Config) maxTicks() int {
	return int(c.MaxDuration / c.TickInterval)
}

// ============================================================================
// Controller - capture session lifecycle
// ============================================================================

// Controller owns the lifecycle of a single recording attempt: acquiring
// media devices, combining streams, driving the encoder, enforcing the
// maximum duration and producing the final artifact. Exactly one session is
// active at a time; Start while a session is in progress is rejected.
//
// All state transitions are serialized on one mutex. Timer ticks, user
// actions and encoder/track callbacks all funnel through it, standing in
// for the single-threaded event loop of the original environment.
type Controller struct {
	mu       sync.Mutex
	logger   commons.Logger
	devices  MediaDevices
	encoders EncoderFactory
	cfg      Config

	sessionID string
	state     State
	elapsed   int
	tracks    []MediaTrack
	encoder   Encoder
	chunks    [][]byte
	artifact  *Artifact
	failure   error

	// tickStop is the owned handle of the per-session tick loop; created on
	// entering Recording, closed on leaving it.
	tickStop chan struct{}
	// done is closed when the session reaches Finalized or Failed.
	done chan struct{}
}

func NewController(logger commons.Logger, devices MediaDevices, encoders EncoderFactory, cfg Config) *Controller {
	return &Controller{
		logger:   logger,
		devices:  devices,
		encoders: encoders,
		cfg:      cfg,
		state:    StateIdle,
	}
}

// Start begins a new capture session. A prior Finalized or Failed session is
// implicitly discarded; a session still in progress rejects the call with
// ErrSessionActive. On return the session is either Recording or Failed.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateAcquiring, StateRecording, StateStopping:
		c.mu.Unlock()
		return ErrSessionActive
	}
	c.resetLocked()
	c.sessionID = uuid.New().String()
	c.done = make(chan struct{})
	c.state = StateAcquiring
	c.mu.Unlock()

	c.logger.Infof("capture session %s acquiring devices", c.sessionID)

	if !c.devices.SupportsDisplayCapture() {
		return c.fail(fmt.Errorf("%w", ErrUnsupportedPlatform))
	}

	display, err := c.devices.AcquireDisplay(ctx)
	if err != nil {
		return c.fail(fmt.Errorf("unable to acquire screen capture: %w", err))
	}
	videoTracks := display.VideoTracks()
	audioTracks := display.AudioTracks()

	c.mu.Lock()
	c.tracks = append(c.tracks, videoTracks...)
	c.tracks = append(c.tracks, audioTracks...)
	c.mu.Unlock()

	if len(videoTracks) == 0 {
		return c.fail(fmt.Errorf("screen capture produced no video track: %w", ErrDeviceLost))
	}

	// Microphone is best-effort: a denied or missing microphone never fails
	// the session, the recording proceeds with screen-sourced audio only.
	if mic, micErr := c.devices.AcquireMicrophone(ctx); micErr != nil {
		c.logger.Warnf("capture session %s: microphone unavailable, continuing without it: %v", c.sessionID, micErr)
	} else {
		micTracks := mic.AudioTracks()
		c.mu.Lock()
		c.tracks = append(c.tracks, micTracks...)
		c.mu.Unlock()
	}

	mimeType := c.pickMimeType()
	if mimeType == "" {
		return c.fail(fmt.Errorf("%w", ErrEncodingUnsupported))
	}

	c.mu.Lock()
	combined := make([]MediaTrack, 0, len(c.tracks))
	combined = append(combined, c.tracks...)
	c.mu.Unlock()

	encoder, err := c.encoders.NewEncoder(combined, EncoderOptions{
		MimeType:           mimeType,
		VideoBitsPerSecond: c.cfg.VideoBitsPerSecond,
		AudioBitsPerSecond: c.cfg.AudioBitsPerSecond,
	})
	if err != nil {
		return c.fail(fmt.Errorf("unable to create encoder: %w", err))
	}

	encoder.OnData(c.handleEncoderData)
	encoder.OnStop(c.handleEncoderStop)
	encoder.OnError(c.handleEncoderError)
	for _, track := range videoTracks {
		track.OnEnded(c.handleTrackEnded)
	}

	if err := encoder.Start(c.cfg.Timeslice); err != nil {
		return c.fail(fmt.Errorf("unable to start encoder: %w", err))
	}

	c.mu.Lock()
	c.encoder = encoder
	c.state = StateRecording
	c.tickStop = make(chan struct{})
	go c.runTickLoop(c.tickStop)
	c.mu.Unlock()

	c.logger.Infof("capture session %s recording as %s", c.sessionID, mimeType)
	return nil
}

// Stop ends the active recording manually. The session transitions to
// Stopping and finalizes once the encoder has flushed.
func (c *Controller) Stop() error {
	return c.stop("manual stop")
}

// Discard drops the result of a Finalized or Failed session and returns the
// controller to Idle.
func (c *Controller) Discard() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateFinalized, StateFailed, StateIdle:
		c.resetLocked()
		c.state = StateIdle
		return nil
	}
	return ErrSessionActive
}

// Wait blocks until the current session reaches Finalized or Failed.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done == nil {
		return ErrNoActiveSession
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Elapsed is the number of completed ticks (seconds, in production) of the
// current session. It never exceeds the configured maximum.
func (c *Controller) Elapsed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed
}

// Artifact returns the encoded result of a Finalized session.
func (c *Controller) Artifact() (*Artifact, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateFinalized || c.artifact == nil {
		return nil, fmt.Errorf("no artifact: session is %s", c.state)
	}
	return c.artifact, nil
}

// Err returns the failure reason of a Failed session, nil otherwise.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failure
}

func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// ============================================================================
// Transitions
// ============================================================================

// resetLocked performs the full session reset: prior artifact, failure and
// elapsed time all return to their initial values.
func (c *Controller) resetLocked() {
	c.sessionID = ""
	c.elapsed = 0
	c.tracks = nil
	c.encoder = nil
	c.chunks = nil
	c.artifact = nil
	c.failure = nil
	c.done = nil
}

func (c *Controller) pickMimeType() string {
	for _, mimeType := range c.cfg.MimeTypes {
		if c.encoders.IsTypeSupported(mimeType) {
			return mimeType
		}
	}
	return ""
}

// stop moves Recording to Stopping and asks the encoder to flush. The
// finalize step happens in handleEncoderStop once the flush completes.
func (c *Controller) stop(reason string) error {
	c.mu.Lock()
	if c.state != StateRecording {
		c.mu.Unlock()
		return ErrNoActiveSession
	}
	c.stopTickLoopLocked()
	c.state = StateStopping
	encoder := c.encoder
	sessionID := c.sessionID
	c.mu.Unlock()

	c.logger.Infof("capture session %s stopping (%s)", sessionID, reason)
	encoder.RequestStop()
	return nil
}

// fail aborts the session from any state: partial data is discarded and all
// acquired tracks are released.
func (c *Controller) fail(err error) error {
	c.mu.Lock()
	if c.state == StateFinalized || c.state == StateFailed || c.state == StateIdle {
		c.mu.Unlock()
		return err
	}
	c.stopTickLoopLocked()
	c.releaseTracksLocked()
	c.chunks = nil
	c.failure = err
	c.state = StateFailed
	sessionID := c.sessionID
	done := c.done
	c.mu.Unlock()

	c.logger.Errorf("capture session %s failed: %v", sessionID, err)
	if done != nil {
		close(done)
	}
	return err
}

// releaseTracksLocked stops every acquired track exactly once. Every exit
// path of the session funnels through here.
func (c *Controller) releaseTracksLocked() {
	for _, track := range c.tracks {
		track.Stop()
	}
	c.tracks = nil
}

func (c *Controller) stopTickLoopLocked() {
	if c.tickStop != nil {
		close(c.tickStop)
		c.tickStop = nil
	}
}

// runTickLoop advances the elapsed counter while Recording and enforces the
// duration ceiling. The loop is owned by the session: it exits when the
// stop handle closes or the state leaves Recording.
func (c *Controller) runTickLoop(stop chan struct{}) {
	ticker := time.NewTicker(c.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.state != StateRecording {
				c.mu.Unlock()
				return
			}
			c.elapsed++
			reached := c.elapsed >= c.cfg.maxTicks()
			c.mu.Unlock()
			if reached {
				// Hard ceiling, not a warning.
				_ = c.stop("maximum duration reached")
				return
			}
		}
	}
}

// ============================================================================
// Encoder / device callbacks
// ============================================================================

func (c *Controller) handleEncoderData(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRecording && c.state != StateStopping {
		return
	}
	// Copy to avoid caller mutations.
	buf := make([]byte, len(chunk))
	copy(buf, chunk)
	c.chunks = append(c.chunks, buf)
}

// handleEncoderStop finalizes the session: buffered chunks concatenate into
// the single output artifact and the tracks are released, unconditionally,
// regardless of which trigger caused the stop.
func (c *Controller) handleEncoderStop() {
	c.mu.Lock()
	if c.state != StateStopping && c.state != StateRecording {
		c.mu.Unlock()
		return
	}
	c.stopTickLoopLocked()

	total := 0
	for _, chunk := range c.chunks {
		total += len(chunk)
	}
	data := make([]byte, 0, total)
	for _, chunk := range c.chunks {
		data = append(data, chunk...)
	}
	c.artifact = &Artifact{Data: data, MimeType: c.encoder.MimeType()}
	c.chunks = nil
	c.releaseTracksLocked()
	c.state = StateFinalized
	sessionID := c.sessionID
	elapsed := c.elapsed
	done := c.done
	c.mu.Unlock()

	c.logger.Infof("capture session %s finalized: %d bytes after %d ticks", sessionID, total, elapsed)
	if done != nil {
		close(done)
	}
}

func (c *Controller) handleEncoderError(err error) {
	_ = c.fail(fmt.Errorf("%w: %v", ErrEncoderFailure, err))
}

// handleTrackEnded fires when the screen share ends externally. While
// Recording this is a regular stop trigger: whatever was captured so far
// still finalizes into an artifact.
func (c *Controller) handleTrackEnded() {
	_ = c.stop("screen sharing ended")
}
