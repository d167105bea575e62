// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package capture

import "errors"

var (
	// ErrUnsupportedPlatform is returned when the platform has no screen
	// capture capability at all.
	ErrUnsupportedPlatform = errors.New("screen capture is not supported on this platform")

	// ErrPermissionDenied is returned when the user denies or cancels a
	// capture prompt. On the microphone source it is recovered locally.
	ErrPermissionDenied = errors.New("capture permission denied")

	// ErrDeviceLost signals that an acquired capture source ended
	// externally, e.g. screen sharing was revoked.
	ErrDeviceLost = errors.New("capture device lost")

	// ErrEncodingUnsupported is returned when none of the preferred
	// container/codec pairings is supported.
	ErrEncodingUnsupported = errors.New("no supported recording format")

	// ErrEncoderFailure signals an unrecoverable encoder error; partial
	// data is discarded.
	ErrEncoderFailure = errors.New("encoder failure")

	// ErrSessionActive is returned by Start while a session is already in
	// progress. The controller is not reentrant.
	ErrSessionActive = errors.New("a recording session is already active")

	// ErrNoActiveSession is returned by Stop when nothing is recording.
	ErrNoActiveSession = errors.New("no active recording session")
)
