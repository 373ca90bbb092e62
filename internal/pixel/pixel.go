// Package pixel converts between stored pixel values and normalized float
// channel values.
//
// Three storage depths are supported. Integer depths map [0, Max] onto
// [0, 1]; float storage is passed through unchanged and is never clamped.
// Every arithmetic and convolution operation reads through ToFloat and writes
// through FromFloat so the two conversions stay symmetric.
package pixel

import "fmt"

// Depth identifies how a channel value is stored.
type Depth uint8

const (
	U8 Depth = iota
	U16
	F32
)

type depthInfo struct {
	name    string
	max     float32
	bits    int
	integer bool
}

// depths is indexed by Depth.
var depths = [...]depthInfo{
	U8:  {name: "u8", max: 255, bits: 8, integer: true},
	U16: {name: "u16", max: 65535, bits: 16, integer: true},
	F32: {name: "f32", max: 1, bits: 32, integer: false},
}

// Valid reports whether d is one of the known depths.
func (d Depth) Valid() bool {
	return int(d) < len(depths)
}

// String returns the short name of the depth ("u8", "u16" or "f32").
func (d Depth) String() string {
	if !d.Valid() {
		return fmt.Sprintf("depth(%d)", uint8(d))
	}
	return depths[d].name
}

// Max returns the largest stored value of an integer depth, 1 for float.
func (d Depth) Max() float32 {
	return depths[d].max
}

// Bits returns the storage width of one channel value.
func (d Depth) Bits() int {
	return depths[d].bits
}

// IsInteger reports whether values are stored as unsigned integers.
func (d Depth) IsInteger() bool {
	return depths[d].integer
}

// ParseDepth parses "u8", "u16" or "f32".
func ParseDepth(s string) (Depth, error) {
	for i, info := range depths {
		if info.name == s {
			return Depth(i), nil
		}
	}
	return 0, fmt.Errorf("unknown pixel depth %q", s)
}

// ToFloat normalizes a stored value by the depth's maximum.
func ToFloat(d Depth, raw float32) float32 {
	info := depths[d]
	if !info.integer {
		return raw
	}
	return raw / info.max
}

// FromFloat clamps v to [0, 1] and scales it to the depth's range, rounding to
// the nearest representable value. Float storage returns v unchanged.
func FromFloat(d Depth, v float32) float32 {
	info := depths[d]
	if !info.integer {
		return v
	}
	// NaN compares false on both sides and ends up as 0.
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return info.max
	}
	return float32(int64(v*info.max + 0.5))
}

// Convert re-expresses a stored value of depth from as a stored value of depth to.
func Convert(from, to Depth, raw float32) float32 {
	if from == to {
		return raw
	}
	return FromFloat(to, ToFloat(from, raw))
}
