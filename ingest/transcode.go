package ingest

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/disintegration/imaging"
)

// TranscodeOptions bound the stored copy of an uploaded image.
type TranscodeOptions struct {
	// MaxSizeBytes is the upper bound on the encoded output size,
	// met best-effort by stepping JPEG quality down to MinQuality.
	MaxSizeBytes int64
	// MaxWidthOrHeight bounds the longer edge; larger images are
	// resized to fit, preserving aspect ratio.
	MaxWidthOrHeight int
	// MinQuality is the JPEG quality floor. When even this quality
	// exceeds MaxSizeBytes the oversized output is returned anyway.
	MinQuality int
}

func DefaultTranscodeOptions() TranscodeOptions {
	return TranscodeOptions{
		MaxSizeBytes:     1 << 20,
		MaxWidthOrHeight: 1920,
		MinQuality:       30,
	}
}

// Transcoder re-encodes raw image bytes into a compressed,
// size-bounded blob suitable for storage.
type Transcoder interface {
	Transcode(data []byte) ([]byte, error)
}

type ImagingTranscoder struct {
	Opts TranscodeOptions
}

func (t ImagingTranscoder) Transcode(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranscodeFailed, err)
	}

	bounds := img.Bounds()
	if max := t.Opts.MaxWidthOrHeight; max > 0 && (bounds.Dx() > max || bounds.Dy() > max) {
		img = imaging.Fit(img, max, max, imaging.Lanczos)
	}

	var out []byte
	for quality := 85; quality >= t.Opts.MinQuality; quality -= 10 {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTranscodeFailed, err)
		}
		out = buf.Bytes()
		if t.Opts.MaxSizeBytes <= 0 || int64(len(out)) <= t.Opts.MaxSizeBytes {
			break
		}
	}
	return out, nil
}

// TranscodedName rewrites a file name's extension to match the JPEG
// output of the transcoder.
func TranscodedName(filename string) string {
	ext := path.Ext(filename)
	return strings.TrimSuffix(filename, ext) + ".jpg"
}
