// Package kernel builds the packed Gaussian weight table sampled by the
// Gaussian blur program.
//
// The table is a square grid of float32 weights. Row r-1 holds the
// right half (offsets 0..r) of the symmetric kernel for radius r; the
// remaining columns of the row stay zero. Each row is normalized so that
// the mirrored kernel (center once, every other offset twice) sums to 1.
package kernel

import (
	"encoding/binary"
	"math"
)

// MaxRadius is the largest blur radius the filter exposes.
const MaxRadius = 25

// Table is a packed kernel lookup table. Side is a power of two so the
// backing texture has power-of-two dimensions.
type Table struct {
	Side      int
	MaxRadius int
	Data      []float32
}

// Gaussian1D evaluates the normal density with standard deviation sigma at x.
func Gaussian1D(x, sigma float64) float64 {
	return math.Exp(-0.5*(x/sigma)*(x/sigma)) / (sigma * math.Sqrt(2*math.Pi))
}

// NextPowerOfTwo returns the smallest power of two >= n. Values below 1 yield 1.
func NextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Generate builds the table for radii 1..maxRadius.
// maxRadius values below 1 produce an empty 1x1 table.
func Generate(maxRadius int) *Table {
	if maxRadius < 1 {
		return &Table{Side: 1, Data: make([]float32, 1)}
	}

	// Row r needs r+1 columns.
	side := NextPowerOfTwo(maxRadius + 1)
	t := &Table{
		Side:      side,
		MaxRadius: maxRadius,
		Data:      make([]float32, side*side),
	}

	samples := make([]float64, maxRadius+1)
	for r := 1; r <= maxRadius; r++ {
		sigma := float64(r)

		// Center counts once, mirrored offsets twice.
		var sum float64
		for x := 0; x <= r; x++ {
			samples[x] = Gaussian1D(float64(x), sigma)
			if x == 0 {
				sum += samples[x]
			} else {
				sum += 2 * samples[x]
			}
		}

		row := t.Data[(r-1)*side : r*side]
		for x := 0; x <= r; x++ {
			row[x] = float32(samples[x] / sum)
		}
	}

	return t
}

// Row returns the half kernel for radius r (offsets 0..r).
// It returns nil for radii outside the table.
func (t *Table) Row(r int) []float32 {
	if r < 1 || r > t.MaxRadius {
		return nil
	}
	start := (r - 1) * t.Side
	return t.Data[start : start+r+1]
}

// TexelSize returns the reciprocal texture dimensions of the table.
func (t *Table) TexelSize() (float32, float32) {
	return 1 / float32(t.Side), 1 / float32(t.Side)
}

// BytesPerRow is the upload row pitch of the R32Float texture.
func (t *Table) BytesPerRow() uint32 {
	return uint32(t.Side) * 4 //nolint:gosec // Side is at most a few hundred
}

// Bytes encodes the table as tightly packed little-endian float32 values,
// the layout expected for an R32Float texture upload.
func (t *Table) Bytes() []byte {
	buf := make([]byte, len(t.Data)*4)
	for i, v := range t.Data {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}
