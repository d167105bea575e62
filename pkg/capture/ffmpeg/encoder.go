// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package ffmpeg

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rapidaai/recorder/pkg/capture"
	"github.com/rapidaai/recorder/pkg/commons"
)

// codec pairings per advertised mime type, richer codec first.
var mimeCodecs = map[string][]string{
	"video/webm;codecs=vp9,opus": {"-c:v", "libvpx-vp9", "-c:a", "libopus"},
	"video/webm":                 {"-c:v", "libvpx", "-c:a", "libvorbis"},
}

// Factory implements capture.EncoderFactory over an ffmpeg child process.
type Factory struct {
	logger   commons.Logger
	lookPath func(string) (string, error)
}

func NewFactory(logger commons.Logger) *Factory {
	return &Factory{logger: logger, lookPath: exec.LookPath}
}

func (f *Factory) IsTypeSupported(mimeType string) bool {
	if _, ok := mimeCodecs[mimeType]; !ok {
		return false
	}
	_, err := f.lookPath("ffmpeg")
	return err == nil
}

func (f *Factory) NewEncoder(tracks []capture.MediaTrack, opts capture.EncoderOptions) (capture.Encoder, error) {
	args, err := buildArgs(tracks, opts)
	if err != nil {
		return nil, err
	}
	return &encoder{
		logger: f.logger,
		mime:   opts.MimeType,
		args:   args,
	}, nil
}

// buildArgs assembles the full ffmpeg argument list: every track's input
// arguments, the codec pairing for the chosen mime type, fixed bitrates,
// and webm muxed to stdout.
func buildArgs(tracks []capture.MediaTrack, opts capture.EncoderOptions) ([]string, error) {
	codecs, ok := mimeCodecs[opts.MimeType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", capture.ErrEncodingUnsupported, opts.MimeType)
	}
	args := []string{"-loglevel", "error"}
	inputs := 0
	for _, tr := range tracks {
		ft, ok := tr.(*track)
		if !ok {
			return nil, fmt.Errorf("%w: track %q is not an ffmpeg track", capture.ErrEncoderFailure, tr.Label())
		}
		args = append(args, ft.inputArgs...)
		inputs++
	}
	if inputs == 0 {
		return nil, fmt.Errorf("%w: no input tracks", capture.ErrEncoderFailure)
	}
	args = append(args, codecs...)
	args = append(args,
		"-b:v", strconv.Itoa(opts.VideoBitsPerSecond),
		"-b:a", strconv.Itoa(opts.AudioBitsPerSecond),
		"-f", "webm",
		"pipe:1",
	)
	return args, nil
}

type encoder struct {
	logger commons.Logger
	mime   string
	args   []string

	cmd           *exec.Cmd
	stdout        io.ReadCloser
	stopRequested atomic.Bool

	onData  func([]byte)
	onStop  func()
	onError func(error)
}

func (e *encoder) MimeType() string { return e.mime }

func (e *encoder) OnData(fn func([]byte)) { e.onData = fn }
func (e *encoder) OnStop(fn func())       { e.onStop = fn }
func (e *encoder) OnError(fn func(error)) { e.onError = fn }

// Start launches ffmpeg and begins pumping muxed output to the data
// callback. The timeslice bounds how long a read may buffer before it is
// delivered.
func (e *encoder) Start(timeslice time.Duration) error {
	e.cmd = exec.Command("ffmpeg", e.args...)
	e.cmd.Stderr = os.Stderr
	stdout, err := e.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: %v", capture.ErrEncoderFailure, err)
	}
	e.stdout = stdout
	if err := e.cmd.Start(); err != nil {
		return fmt.Errorf("%w: failed to start ffmpeg: %v", capture.ErrEncoderFailure, err)
	}
	e.logger.Debugf("ffmpeg encoder started: ffmpeg %v", e.args)
	go e.pump()
	return nil
}

// RequestStop interrupts ffmpeg so it finalizes the container; the pump
// goroutine observes EOF and fires the stop callback.
func (e *encoder) RequestStop() {
	if !e.stopRequested.CompareAndSwap(false, true) {
		return
	}
	if e.cmd != nil && e.cmd.Process != nil {
		_ = e.cmd.Process.Signal(os.Interrupt)
	}
}

func (e *encoder) pump() {
	buf := make([]byte, 64*1024)
	for {
		n, err := e.stdout.Read(buf)
		if n > 0 && e.onData != nil {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			e.onData(chunk)
		}
		if err != nil {
			break
		}
	}
	waitErr := e.cmd.Wait()
	if waitErr != nil && !e.stopRequested.Load() {
		if e.onError != nil {
			e.onError(fmt.Errorf("%w: ffmpeg exited: %v", capture.ErrEncoderFailure, waitErr))
		}
		return
	}
	if e.onStop != nil {
		e.onStop()
	}
}
