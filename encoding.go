package terrainrgb

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strings"
)

// An Encoding describes how elevations are packed into the RGB channels of a
// tile. The raw value is the 24-bit big-endian integer formed by R, G, and B,
// and the elevation is Raw*Factor + Offset.
type Encoding struct {
	Signed    bool    // Treat R as a signed byte.
	Factor    float64 // Meters per raw unit.
	Offset    float64 // Meters added after scaling.
	NoData    int32   // Raw value denoting no data, if HasNoData.
	HasNoData bool
}

var (
	// EncodingGSJ is the encoding of the GSJ seamless elevation tiles.
	EncodingGSJ = Encoding{
		Signed:    true,
		Factor:    0.01,
		NoData:    -1 << 23,
		HasNoData: true,
	}

	// EncodingMapbox is the Mapbox Terrain-RGB encoding.
	EncodingMapbox = Encoding{
		Factor: 0.1,
		Offset: -10000,
	}

	// EncodingTerrarium is the Terrarium encoding used by the AWS elevation
	// tiles.
	EncodingTerrarium = Encoding{
		Factor: 1.0 / 256,
		Offset: -32768,
	}
)

var encodingsByName = map[string]Encoding{
	"gsj":       EncodingGSJ,
	"mapbox":    EncodingMapbox,
	"terrarium": EncodingTerrarium,
}

// ParseEncoding returns the named encoding.
func ParseEncoding(name string) (Encoding, error) {
	encoding, ok := encodingsByName[strings.ToLower(name)]
	if !ok {
		return Encoding{}, fmt.Errorf("%s: unknown encoding: %w", name, errors.ErrUnsupported)
	}
	return encoding, nil
}

// Raw returns the raw value packed into c.
func (e Encoding) Raw(c color.NRGBA) int32 {
	r := int32(c.R)
	if e.Signed {
		r = int32(int8(c.R))
	}
	return r<<16 | int32(c.G)<<8 | int32(c.B)
}

// Decode returns the elevation packed into c, or NaN if c is transparent or
// holds the no data value.
func (e Encoding) Decode(c color.NRGBA) float64 {
	raw := e.Raw(c)
	if c.A != 0xff || e.HasNoData && raw == e.NoData {
		return math.NaN()
	}
	return float64(raw)*e.Factor + e.Offset
}
