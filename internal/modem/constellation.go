package modem

import (
	"math"
)

// BitsPerSymbol is the number of bits carried by one 16-QAM symbol.
const BitsPerSymbol = 4

// Constellation holds the 16-QAM constellation points.
//
// The 16 four-bit patterns map bijectively onto a 4x4 grid. The two
// high bits select the in-phase (real) level, the two low bits the
// quadrature (imaginary) level. Each axis is Gray coded so that
// neighboring points differ in exactly one bit:
//
//	00 -> -3, 01 -> -1, 11 -> +1, 10 -> +3
//
// Levels are scaled by 1/sqrt(10) for unit average power.
type Constellation struct {
	points []complex128
	scale  float64
}

// NewConstellation creates the Gray-coded 16-QAM constellation.
func NewConstellation() *Constellation {
	c := &Constellation{points: make([]complex128, 16)}
	for i := 0; i < 16; i++ {
		c.points[i] = complex(grayLevel(i>>2), grayLevel(i&3))
	}
	c.normalize()
	return c
}

// grayLevel maps a 2-bit pattern to one of the four amplitude levels.
func grayLevel(b int) float64 {
	return float64(2*(b^(b>>1)) - 3)
}

func (c *Constellation) normalize() {
	var avgPower float64
	for _, p := range c.points {
		avgPower += real(p)*real(p) + imag(p)*imag(p)
	}
	avgPower /= float64(len(c.points))

	c.scale = 1.0 / math.Sqrt(avgPower)
	for i := range c.points {
		c.points[i] = complex(real(c.points[i])*c.scale, imag(c.points[i])*c.scale)
	}
}

// Scale returns the normalization factor applied to the raw {-3,-1,1,3} grid.
func (c *Constellation) Scale() float64 {
	return c.scale
}

// Points returns a copy of the 16 constellation points, indexed by the
// 4-bit pattern they encode.
func (c *Constellation) Points() []complex128 {
	out := make([]complex128, len(c.points))
	copy(out, c.points)
	return out
}

// Map maps 4 bits (MSB first) to a constellation point.
func (c *Constellation) Map(bits []byte) complex128 {
	idx := bitsToIndex(bits)
	if idx >= len(c.points) {
		idx = 0
	}
	return c.points[idx]
}

// Demap finds the closest constellation point and returns its 4 bits.
// Distance ties resolve to the lowest table index.
func (c *Constellation) Demap(symbol complex128) []byte {
	minDist := math.MaxFloat64
	minIdx := 0

	for i, p := range c.points {
		d := real(symbol-p)*real(symbol-p) + imag(symbol-p)*imag(symbol-p)
		if d < minDist {
			minDist = d
			minIdx = i
		}
	}

	return indexToBits(minIdx, BitsPerSymbol)
}

// MapBits maps a bit slice (0/1 bytes, length a multiple of 4) to
// constellation symbols.
func (c *Constellation) MapBits(bits []byte) []complex128 {
	numSymbols := len(bits) / BitsPerSymbol
	symbols := make([]complex128, numSymbols)

	for i := 0; i < numSymbols; i++ {
		symbols[i] = c.Map(bits[i*BitsPerSymbol : (i+1)*BitsPerSymbol])
	}
	return symbols
}

// DemapSymbols demaps constellation symbols back to bits.
func (c *Constellation) DemapSymbols(symbols []complex128) []byte {
	bits := make([]byte, 0, len(symbols)*BitsPerSymbol)

	for _, s := range symbols {
		bits = append(bits, c.Demap(s)...)
	}
	return bits
}

func bitsToIndex(bits []byte) int {
	idx := 0
	for _, b := range bits {
		idx = (idx << 1) | int(b&1)
	}
	return idx
}

func indexToBits(idx, numBits int) []byte {
	bits := make([]byte, numBits)
	for i := numBits - 1; i >= 0; i-- {
		bits[i] = byte(idx & 1)
		idx >>= 1
	}
	return bits
}
