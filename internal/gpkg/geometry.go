package gpkg

import (
	"encoding/binary"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
)

// A GeoPackage geometry blob is a fixed header followed by standard WKB:
// magic "GP", a version byte, a flags byte, a 4-byte SRS id, and an optional
// envelope whose size the flags encode.
const gpkgHeaderSize = 8

// envelopeDoubles maps the flags envelope indicator to the number of float64
// values the envelope occupies.
var envelopeDoubles = [5]int{0, 4, 6, 6, 8}

// DecodeGeometry parses a GeoPackage geometry blob into a go-geom geometry.
// An empty-geometry blob decodes to nil.
func DecodeGeometry(blob []byte) (geom.T, error) {
	if len(blob) < gpkgHeaderSize {
		return nil, eris.New("gpkg: geometry blob shorter than header")
	}
	if blob[0] != 'G' || blob[1] != 'P' {
		return nil, eris.New("gpkg: bad geometry magic")
	}

	flags := blob[3]
	if flags&0x20 != 0 {
		// Extension geometries carry a nonstandard body.
		return nil, eris.New("gpkg: extended geometry type not supported")
	}

	envIndicator := int(flags>>1) & 0x07
	if envIndicator >= len(envelopeDoubles) {
		return nil, eris.Errorf("gpkg: invalid envelope indicator %d", envIndicator)
	}

	offset := gpkgHeaderSize + envelopeDoubles[envIndicator]*8
	if len(blob) < offset {
		return nil, eris.New("gpkg: geometry blob shorter than envelope")
	}

	if flags&0x10 != 0 {
		// Empty geometry flag.
		return nil, nil
	}

	g, err := wkb.Unmarshal(blob[offset:])
	if err != nil {
		return nil, eris.Wrap(err, "gpkg: decode wkb")
	}
	return g, nil
}

// SRSID reads the spatial reference id out of a geometry blob header.
func SRSID(blob []byte) (int32, error) {
	if len(blob) < gpkgHeaderSize {
		return 0, eris.New("gpkg: geometry blob shorter than header")
	}
	if blob[0] != 'G' || blob[1] != 'P' {
		return 0, eris.New("gpkg: bad geometry magic")
	}
	if blob[3]&0x01 != 0 {
		return int32(binary.LittleEndian.Uint32(blob[4:8])), nil
	}
	return int32(binary.BigEndian.Uint32(blob[4:8])), nil
}
