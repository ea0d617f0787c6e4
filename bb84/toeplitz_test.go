package bb84

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/qdemo/qdemo/bitbuf"
)

func mustBuffer(t *testing.T, s string) bitbuf.Buffer {
	b, err := bitbuf.FromString(s)
	if err != nil {
		t.Fatalf("bugged test setup: %v", err)
	}
	return b
}

func TestToeplitzMul(t *testing.T) {
	tcs := []struct {
		mat  toeplitz
		vec  bitbuf.Buffer
		eout bitbuf.Buffer
	}{
		{
			// Diagonals (bottom left to top right) 1 0 0 1 0:
			// (0 1 0)
			// (0 0 1)
			// (1 0 0)
			mat:  toeplitz{diags: mustBuffer(t, "10010"), m: 3, n: 3},
			vec:  mustBuffer(t, "011"),
			eout: mustBuffer(t, "110"),
		}, {
			// Diagonals 1 0 1 0 0:
			// (0 0)
			// (1 0)
			// (0 1)
			// (1 0)
			mat:  toeplitz{diags: mustBuffer(t, "10100"), m: 4, n: 2},
			vec:  mustBuffer(t, "10"),
			eout: mustBuffer(t, "0101"),
		}, {
			// Diagonals 0 1 1 1 0:
			// (1 1 1 0)
			// (0 1 1 1)
			mat:  toeplitz{diags: mustBuffer(t, "01110"), m: 2, n: 4},
			vec:  mustBuffer(t, "0101"),
			eout: mustBuffer(t, "10"),
		},
	}

	for _, tc := range tcs {
		t.Run(fmt.Sprintf("%dx%d", tc.mat.m, tc.mat.n), func(t *testing.T) {
			out, err := tc.mat.Mul(tc.vec)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bitbuf.Equal(out, tc.eout) {
				t.Errorf("T*v == %v, want %v", out, tc.eout)
			}
		})
	}
}

func TestToeplitzShape(t *testing.T) {
	tcs := []struct {
		name string
		mat  toeplitz
		vec  bitbuf.Buffer
		eErr bool
	}{
		{
			name: "mismatched dims",
			mat:  toeplitz{diags: bitbuf.FromBits(make([]uint8, 5)), m: 3, n: 3},
			vec:  bitbuf.FromBits(make([]uint8, 2)),
			eErr: true,
		}, {
			name: "insufficient diags",
			mat:  toeplitz{diags: bitbuf.FromBits(make([]uint8, 2)), m: 3, n: 3},
			vec:  bitbuf.FromBits(make([]uint8, 3)),
			eErr: true,
		}, {
			name: "extra diags",
			mat:  toeplitz{diags: bitbuf.FromBits(make([]uint8, 1024)), m: 3, n: 3},
			vec:  bitbuf.FromBits(make([]uint8, 3)),
			eErr: false,
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.mat.Mul(tc.vec)
			if !tc.eErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tc.eErr && err == nil {
				t.Errorf("expected error: got nil")
			}
		})
	}
}

func TestAmplify(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	key := randomBuffer(r, 200)
	seed := randomBuffer(r, SeedBits(200, 64))

	out, err := Amplify(key, seed, 64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() != 64 {
		t.Errorf("amplified key has %d bits, want 64", out.Len())
	}
	again, err := Amplify(key, seed, 64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bitbuf.Equal(out, again) {
		t.Errorf("amplification is not deterministic: %v != %v", out, again)
	}

	if _, err := Amplify(key, seed, 201); err == nil {
		t.Errorf("Amplify to a longer key succeeded")
	}
	if _, err := Amplify(key, randomBuffer(r, 10), 64); err == nil {
		t.Errorf("Amplify with a short seed succeeded")
	}
}

func randomBuffer(r *rand.Rand, n int) bitbuf.Buffer {
	bits := make([]uint8, n)
	for i := range bits {
		bits[i] = uint8(r.Intn(2))
	}
	return bitbuf.FromBits(bits)
}

func BenchmarkToeplitzMul(b *testing.B) {
	m := 40
	n := 1 << 14
	r := rand.New(rand.NewSource(1))
	t := toeplitz{
		diags: randomBuffer(r, m+n),
		m:     m,
		n:     n,
	}
	x := randomBuffer(r, n)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := t.Mul(x); err != nil {
			b.Errorf("unexpected error: %v", err)
		}
	}
}
