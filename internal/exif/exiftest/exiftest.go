// Package exiftest builds JPEG images carrying EXIF GPS tags for tests.
package exiftest

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"time"

	"github.com/mr1hm/civic-eye/internal/geo"
)

type Options struct {
	Location       *geo.Coordinate
	CapturedAt     time.Time
	AccuracyMeters float64
}

// JPEG encodes img and splices an APP1 EXIF segment built from opts right
// after the SOI marker.
func JPEG(img image.Image, opts Options) []byte {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		panic(err)
	}
	raw := buf.Bytes()

	payload := append([]byte("Exif\x00\x00"), tiffBlock(opts)...)
	seg := []byte{0xFF, 0xE1, 0, 0}
	binary.BigEndian.PutUint16(seg[2:], uint16(len(payload)+2))
	seg = append(seg, payload...)

	out := make([]byte, 0, len(raw)+len(seg))
	out = append(out, raw[:2]...)
	out = append(out, seg...)
	out = append(out, raw[2:]...)
	return out
}

// Gradient returns a deterministic test image. Different seeds give visually
// distinct images.
func Gradient(w, h int, seed uint8) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var v uint8
			switch seed % 3 {
			case 0:
				v = uint8(x * 255 / w)
			case 1:
				v = uint8(y * 255 / h)
			default:
				if (x/(w/8)+y/(h/8))%2 == 0 {
					v = 255
				}
			}
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte // out-of-line when longer than 4 bytes
	value uint32 // used when data is nil
}

const (
	typeASCII    = 2
	typeLong     = 4
	typeRational = 5
)

func tiffBlock(opts Options) []byte {
	le := binary.LittleEndian

	var ifd0 []ifdEntry
	if !opts.CapturedAt.IsZero() {
		ifd0 = append(ifd0, asciiEntry(0x0132, opts.CapturedAt.Format("2006:01:02 15:04:05")))
	}

	var gps []ifdEntry
	if opts.Location != nil {
		latRef, lonRef := "N", "E"
		if opts.Location.Latitude < 0 {
			latRef = "S"
		}
		if opts.Location.Longitude < 0 {
			lonRef = "W"
		}
		gps = append(gps,
			asciiEntry(0x0001, latRef),
			ifdEntry{tag: 0x0002, typ: typeRational, count: 3, data: dmsRationals(opts.Location.Latitude)},
			asciiEntry(0x0003, lonRef),
			ifdEntry{tag: 0x0004, typ: typeRational, count: 3, data: dmsRationals(opts.Location.Longitude)},
		)
		if opts.AccuracyMeters > 0 {
			gps = append(gps, ifdEntry{tag: 0x001f, typ: typeRational, count: 1, data: rational(opts.AccuracyMeters, 100)})
		}
		// Placeholder, patched once the GPS IFD offset is known.
		ifd0 = append(ifd0, ifdEntry{tag: 0x8825, typ: typeLong, count: 1})
	}

	ifd0Off := uint32(8)
	ifd0Size := uint32(2 + 12*len(ifd0) + 4)
	gpsOff := ifd0Off + ifd0Size
	gpsSize := uint32(0)
	if len(gps) > 0 {
		gpsSize = uint32(2 + 12*len(gps) + 4)
		ifd0[len(ifd0)-1].value = gpsOff
	}
	dataOff := gpsOff + gpsSize

	var data bytes.Buffer
	var out bytes.Buffer
	out.Write([]byte{'I', 'I', 0x2A, 0x00})
	binary.Write(&out, le, ifd0Off)

	writeIFD := func(entries []ifdEntry) {
		binary.Write(&out, le, uint16(len(entries)))
		for _, e := range entries {
			binary.Write(&out, le, e.tag)
			binary.Write(&out, le, e.typ)
			binary.Write(&out, le, e.count)
			switch {
			case e.data == nil:
				binary.Write(&out, le, e.value)
			case len(e.data) <= 4:
				inline := make([]byte, 4)
				copy(inline, e.data)
				out.Write(inline)
			default:
				binary.Write(&out, le, dataOff+uint32(data.Len()))
				data.Write(e.data)
			}
		}
		binary.Write(&out, le, uint32(0))
	}

	writeIFD(ifd0)
	if len(gps) > 0 {
		writeIFD(gps)
	}
	out.Write(data.Bytes())
	return out.Bytes()
}

func asciiEntry(tag uint16, s string) ifdEntry {
	b := append([]byte(s), 0)
	return ifdEntry{tag: tag, typ: typeASCII, count: uint32(len(b)), data: b}
}

func dmsRationals(decimal float64) []byte {
	v := math.Abs(decimal)
	deg := math.Floor(v)
	minutes := math.Floor((v - deg) * 60)
	seconds := ((v-deg)*60 - minutes) * 60

	var b []byte
	b = append(b, rational(deg, 1)...)
	b = append(b, rational(minutes, 1)...)
	b = append(b, rational(seconds, 10000)...)
	return b
}

func rational(v float64, den uint32) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint32(b[:4], uint32(math.Round(v*float64(den))))
	binary.LittleEndian.PutUint32(b[4:], den)
	return b
}
