// Package exif reads the GPS position and capture time embedded in photo
// metadata. Missing or unreadable metadata is an expected case and never
// surfaces as an error: callers check Metadata.HasGPS.
package exif

import (
	"bytes"
	"errors"
	"io"
	"math"
	"time"

	goexif "github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/mr1hm/civic-eye/internal/geo"
)

// ErrMetadataUnavailable marks a photo without usable GPS tags.
var ErrMetadataUnavailable = errors.New("photo has no usable GPS metadata")

// GPSHPositioningError is not part of the decoder's GPS field table.
const GPSHPositioningError goexif.FieldName = "GPSHPositioningError"

const gpsHPositioningErrorTag = 0x001f

type Metadata struct {
	Coordinate     geo.Coordinate `json:"coordinate"`
	HasGPS         bool           `json:"hasGPS"`
	CapturedAt     *time.Time     `json:"capturedAt,omitempty"`
	AccuracyMeters *float64       `json:"accuracyMeters,omitempty"`
}

// Location returns the extracted coordinate, or nil when the photo had none.
func (m Metadata) Location() *geo.Coordinate {
	if !m.HasGPS {
		return nil
	}
	c := m.Coordinate
	return &c
}

// Err returns ErrMetadataUnavailable when the photo carried no GPS position.
func (m Metadata) Err() error {
	if m.HasGPS {
		return nil
	}
	return ErrMetadataUnavailable
}

func ExtractBytes(b []byte) Metadata {
	return Extract(bytes.NewReader(b))
}

// Extract decodes EXIF metadata from r. The zero coordinate is returned with
// HasGPS=false whenever no valid position can be read.
func Extract(r io.Reader) (meta Metadata) {
	defer func() {
		// The decoder can panic on truncated IFDs.
		if recover() != nil {
			meta = Metadata{}
		}
	}()

	x, err := goexif.Decode(r)
	if err != nil || x == nil {
		return Metadata{}
	}

	lat, lon, err := x.LatLong()
	if err != nil {
		return Metadata{}
	}
	c := geo.Coordinate{Latitude: lat, Longitude: lon}
	if c.Validate() != nil || (lat == 0 && lon == 0) {
		return Metadata{}
	}

	meta = Metadata{Coordinate: c, HasGPS: true}
	if tm, err := x.DateTime(); err == nil {
		meta.CapturedAt = &tm
	}
	if acc, ok := positioningError(x); ok {
		meta.AccuracyMeters = &acc
	}
	return meta
}

func positioningError(x *goexif.Exif) (float64, bool) {
	ptr, err := x.Get(goexif.GPSInfoIFDPointer)
	if err != nil {
		return 0, false
	}
	offset, err := ptr.Int64(0)
	if err != nil {
		return 0, false
	}
	r := bytes.NewReader(x.Raw)
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return 0, false
	}
	dir, _, err := tiff.DecodeDir(r, x.Tiff.Order)
	if err != nil {
		return 0, false
	}
	x.LoadTags(dir, map[uint16]goexif.FieldName{gpsHPositioningErrorTag: GPSHPositioningError}, false)

	tag, err := x.Get(GPSHPositioningError)
	if err != nil {
		return 0, false
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		return 0, false
	}
	v := float64(num) / float64(den)
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
