package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrNoGPSData means the image carries no usable location
	// metadata. Expected for screenshots and stripped images; callers
	// surface it per file instead of failing the batch.
	ErrNoGPSData = errors.New("no GPS data in image")

	// ErrTranscodeFailed means the image bytes could not be decoded
	// for re-encoding.
	ErrTranscodeFailed = errors.New("image could not be transcoded")
)

// Stage identifies which pipeline step a failure happened in.
type Stage string

const (
	StageExtracting  Stage = "extracting"
	StageTranscoding Stage = "transcoding"
	StageUploading   Stage = "uploading"
	StageResolving   Stage = "resolving"
)

// StageError carries the failing stage alongside the cause so the
// caller can report which file failed, where, and why.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
