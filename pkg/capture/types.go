// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package capture

import (
	"context"
	"time"
)

const (
	TrackKindVideo = "video"
	TrackKindAudio = "audio"
)

// MediaTrack is a single acquired device track. Stop releases the underlying
// device handle; implementations must tolerate repeated Stop calls, but the
// controller guarantees it calls Stop exactly once per acquired track.
type MediaTrack interface {
	Kind() string
	Label() string
	Stop()
	// OnEnded registers a callback fired when the source ends externally,
	// e.g. the user revokes screen sharing at the OS level.
	OnEnded(fn func())
}

// MediaStream groups the tracks produced by one acquisition.
type MediaStream interface {
	VideoTracks() []MediaTrack
	AudioTracks() []MediaTrack
}

// MediaDevices is the platform capture capability. AcquireMicrophone is
// best-effort from the controller's point of view: its failure never fails
// a session.
type MediaDevices interface {
	SupportsDisplayCapture() bool
	AcquireDisplay(ctx context.Context) (MediaStream, error)
	AcquireMicrophone(ctx context.Context) (MediaStream, error)
}

// EncoderOptions are fixed at encoder-start time.
type EncoderOptions struct {
	MimeType           string
	VideoBitsPerSecond int
	AudioBitsPerSecond int
}

// Encoder is one encoding session over a set of tracks. Callbacks must be
// registered before Start. After RequestStop the encoder flushes buffered
// data through the data callback and then fires the stop callback exactly
// once.
type Encoder interface {
	MimeType() string
	Start(timeslice time.Duration) error
	RequestStop()
	OnData(fn func(chunk []byte))
	OnStop(fn func())
	OnError(fn func(err error))
}

// EncoderFactory creates encoders and advertises supported container/codec
// pairings.
type EncoderFactory interface {
	IsTypeSupported(mimeType string) bool
	NewEncoder(tracks []MediaTrack, opts EncoderOptions) (Encoder, error)
}

// Artifact is the final encoded byte sequence produced by a completed
// session, tagged with the mime type chosen at encoder-start time.
type Artifact struct {
	Data     []byte
	MimeType string
}

func (a *Artifact) Size() int64 {
	if a == nil {
		return 0
	}
	return int64(len(a.Data))
}
