package bb84

import (
	"fmt"

	"github.com/qdemo/qdemo/bitbuf"
)

// A toeplitz represents a matrix whose diagonals are all constant. It operates
// in F_2, i.e. all of its scalars are 0 or 1.
type toeplitz struct {
	// The diagonal constants for this toeplitz matrix, starting from the bottom
	// left and ending with the top right.
	diags bitbuf.Buffer

	m int
	n int
}

// Mul computes the matrix product Av between the toeplitz matrix t and the
// provided vector.
func (t toeplitz) Mul(vec bitbuf.Buffer) (bitbuf.Buffer, error) {
	if t.diags.Len() < t.m+t.n-1 {
		return bitbuf.Buffer{}, fmt.Errorf("improper toeplitz construction, has %d diagonals, needs %d", t.diags.Len(), t.m+t.n-1)
	}
	if t.n != vec.Len() {
		return bitbuf.Buffer{}, fmt.Errorf("multiplying %dx%d matrix into %d-dim vector", t.m, t.n, vec.Len())
	}

	var r bitbuf.Buffer
	for off := t.m - 1; off >= 0; off-- {
		row, err := t.diags.Slice(off, off+t.n)
		if err != nil {
			return bitbuf.Buffer{}, err
		}
		r.AppendBit(bitbuf.Parity(bitbuf.And(row, vec)))
	}
	return r, nil
}

// SeedBits returns the number of seed bits Amplify needs to compress an n-bit
// key down to m bits.
func SeedBits(n, m int) int {
	return n + m - 1
}

// Amplify compresses key to outLen bits by multiplying it with the random
// Toeplitz matrix described by seed. Both parties must use the same seed,
// which may be public; the output is close to uniform as long as outLen stays
// below the key's entropy from Eve's point of view (see LeakageBound).
func Amplify(key, seed bitbuf.Buffer, outLen int) (bitbuf.Buffer, error) {
	if outLen < 1 || outLen > key.Len() {
		return bitbuf.Buffer{}, fmt.Errorf("amplified length %d must lie in [1, %d]", outLen, key.Len())
	}
	t := toeplitz{diags: seed, m: outLen, n: key.Len()}
	return t.Mul(key)
}
