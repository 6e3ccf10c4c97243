package ingest

import (
	"bytes"

	"photomap/model"

	"github.com/rwcarlsen/goexif/exif"
)

// CoordinateExtractor reads geographic coordinates out of raw image
// bytes. Absence of location metadata is reported as ErrNoGPSData.
type CoordinateExtractor interface {
	Extract(data []byte) (model.Coordinates, error)
}

// ExifExtractor extracts GPS coordinates from EXIF metadata. An image
// without an EXIF block, or with one that lacks a GPS IFD, yields
// ErrNoGPSData rather than a decode error: from the pipeline's point
// of view both mean the same thing.
type ExifExtractor struct{}

func (ExifExtractor) Extract(data []byte) (model.Coordinates, error) {
	meta, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return model.Coordinates{}, ErrNoGPSData
	}

	lat, lng, err := meta.LatLong()
	if err != nil {
		return model.Coordinates{}, ErrNoGPSData
	}

	return model.Coordinates{Latitude: lat, Longitude: lng}, nil
}
