// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"sync"

	"github.com/rapidaai/recorder/pkg/capture"
	"github.com/rapidaai/recorder/pkg/commons"
	"github.com/rapidaai/recorder/pkg/utils"
)

// Devices implements capture.MediaDevices by describing ffmpeg inputs:
// x11grab for the display, pulse for the microphone. Tracks carry their
// ffmpeg input arguments; the encoder assembles them into one command.
type Devices struct {
	logger      commons.Logger
	display     string
	audioSource string
	lookPath    func(string) (string, error)
}

func NewDevices(logger commons.Logger, display, audioSource string) *Devices {
	return &Devices{
		logger:      logger,
		display:     display,
		audioSource: audioSource,
		lookPath:    exec.LookPath,
	}
}

func (d *Devices) SupportsDisplayCapture() bool {
	if utils.IsEmpty(d.display) {
		return false
	}
	_, err := d.lookPath("ffmpeg")
	return err == nil
}

func (d *Devices) AcquireDisplay(ctx context.Context) (capture.MediaStream, error) {
	if !d.SupportsDisplayCapture() {
		return nil, fmt.Errorf("%w: ffmpeg or display unavailable", capture.ErrUnsupportedPlatform)
	}
	video := &track{
		kind:  capture.TrackKindVideo,
		label: "display " + d.display,
		inputArgs: []string{
			"-f", "x11grab",
			"-framerate", "30",
			"-i", d.display,
		},
	}
	d.logger.Debugf("acquired display capture on %s", d.display)
	return &stream{video: []capture.MediaTrack{video}}, nil
}

func (d *Devices) AcquireMicrophone(ctx context.Context) (capture.MediaStream, error) {
	if utils.IsEmpty(d.audioSource) {
		return nil, fmt.Errorf("%w: no audio source configured", capture.ErrPermissionDenied)
	}
	audio := &track{
		kind:  capture.TrackKindAudio,
		label: "microphone " + d.audioSource,
		inputArgs: []string{
			"-f", "pulse",
			"-i", d.audioSource,
		},
	}
	d.logger.Debugf("acquired microphone capture on %s", d.audioSource)
	return &stream{audio: []capture.MediaTrack{audio}}, nil
}

type stream struct {
	video []capture.MediaTrack
	audio []capture.MediaTrack
}

func (s *stream) VideoTracks() []capture.MediaTrack { return s.video }
func (s *stream) AudioTracks() []capture.MediaTrack { return s.audio }

type track struct {
	kind      string
	label     string
	inputArgs []string

	mu      sync.Mutex
	stopped bool
	onEnded func()
}

func (t *track) Kind() string  { return t.kind }
func (t *track) Label() string { return t.label }

func (t *track) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

func (t *track) OnEnded(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onEnded = fn
}
