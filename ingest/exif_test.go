package ingest

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exifJPEG builds a minimal JPEG whose APP1 EXIF segment carries a GPS
// IFD for 50°30'00" lat and 8°15'00" lng, with the given hemisphere
// refs. Layout of the little-endian TIFF block: header (0), IFD0 with
// the GPS pointer (8), GPS IFD (26), coordinate rationals (80, 104).
func exifJPEG(t *testing.T, nsRef, ewRef string) []byte {
	t.Helper()

	var tiff bytes.Buffer
	write := func(v any) {
		require.NoError(t, binary.Write(&tiff, binary.LittleEndian, v))
	}
	writeRef := func(ref string) {
		val := make([]byte, 4)
		copy(val, ref+"\x00")
		tiff.Write(val)
	}

	tiff.WriteString("II")
	write(uint16(0x2A))
	write(uint32(8))

	// IFD0: a single entry pointing at the GPS sub-IFD.
	write(uint16(1))
	write(uint16(0x8825)) // GPSInfo pointer
	write(uint16(4))      // LONG
	write(uint32(1))
	write(uint32(26))
	write(uint32(0))

	// GPS IFD: hemisphere refs inline, rationals out-of-line.
	write(uint16(4))
	write(uint16(0x0001)) // GPSLatitudeRef
	write(uint16(2))      // ASCII
	write(uint32(2))
	writeRef(nsRef)
	write(uint16(0x0002)) // GPSLatitude
	write(uint16(5))      // RATIONAL
	write(uint32(3))
	write(uint32(80))
	write(uint16(0x0003)) // GPSLongitudeRef
	write(uint16(2))
	write(uint32(2))
	writeRef(ewRef)
	write(uint16(0x0004)) // GPSLongitude
	write(uint16(5))
	write(uint32(3))
	write(uint32(104))
	write(uint32(0))

	// Degree/minute/second rationals: 50/1 30/1 0/1, then 8/1 15/1 0/1.
	for _, v := range []uint32{50, 1, 30, 1, 0, 1, 8, 1, 15, 1, 0, 1} {
		write(v)
	}

	var jpg bytes.Buffer
	jpg.Write([]byte{0xFF, 0xD8, 0xFF, 0xE1})
	require.NoError(t, binary.Write(&jpg, binary.BigEndian, uint16(tiff.Len()+8)))
	jpg.WriteString("Exif\x00\x00")
	jpg.Write(tiff.Bytes())
	jpg.Write([]byte{0xFF, 0xD9})
	return jpg.Bytes()
}

func TestExtractGPSCoordinates(t *testing.T) {
	coords, err := ExifExtractor{}.Extract(exifJPEG(t, "N", "E"))
	require.NoError(t, err)
	assert.InDelta(t, 50.5, coords.Latitude, 1e-9)
	assert.InDelta(t, 8.25, coords.Longitude, 1e-9)
}

func TestExtractSouthernWesternHemisphere(t *testing.T) {
	coords, err := ExifExtractor{}.Extract(exifJPEG(t, "S", "W"))
	require.NoError(t, err)
	assert.InDelta(t, -50.5, coords.Latitude, 1e-9)
	assert.InDelta(t, -8.25, coords.Longitude, 1e-9)
}

func TestExtractNoExifBlock(t *testing.T) {
	// A freshly encoded JPEG has no EXIF metadata at all.
	data := encodeTestImage(t, 10, 10)

	_, err := ExifExtractor{}.Extract(data)
	assert.ErrorIs(t, err, ErrNoGPSData)
}

func TestExtractGarbageInput(t *testing.T) {
	_, err := ExifExtractor{}.Extract([]byte("definitely not a JPEG"))
	assert.ErrorIs(t, err, ErrNoGPSData)
}

func TestExtractEmptyInput(t *testing.T) {
	_, err := ExifExtractor{}.Extract(nil)
	assert.ErrorIs(t, err, ErrNoGPSData)
}
