package qrng

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/qdemo/qdemo/quantum"
)

// sequenceOracle replays outcomes in order, one per shot.
func sequenceOracle(outcomes ...string) *quantum.StubOracle {
	next := 0
	return &quantum.StubOracle{Shot: func(*quantum.Circuit, int) (string, error) {
		out := outcomes[next%len(outcomes)]
		next++
		return out, nil
	}}
}

func TestBits(t *testing.T) {
	tcs := []struct {
		name  string
		n     int
		shots int
		eruns int
	}{
		{"single batch", 100, 1024, 1},
		{"exact batches", 2048, 1024, 2},
		{"partial batch", 3000, 1024, 3},
		{"default batch size", 10, 0, 1},
		{"tiny batches", 10, 3, 4},
		{"nothing", 0, 1024, 0},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			o := sequenceOracle("1", "0", "0")
			bits, err := Bits(context.Background(), o, tc.n, tc.shots)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(bits) != tc.n {
				t.Errorf("Bits() returned %d bits, want %d", len(bits), tc.n)
			}
			if o.Calls != tc.eruns {
				t.Errorf("Bits() ran %d batches, want %d", o.Calls, tc.eruns)
			}
			for i, b := range bits {
				want := uint8(0)
				if i%3 == 0 {
					want = 1
				}
				if b != want {
					t.Fatalf("bit %d == %d, want %d", i, b, want)
				}
			}
		})
	}
}

func TestBitsErrors(t *testing.T) {
	ctx := context.Background()
	if _, err := Bits(ctx, nil, 8, 0); err == nil {
		t.Errorf("Bits() without an oracle succeeded")
	}
	if _, err := Bits(ctx, quantum.FixedOracle("0"), -1, 0); err == nil {
		t.Errorf("Bits(-1) succeeded")
	}
	if _, err := Bits(ctx, quantum.FixedOracle("2"), 8, 0); err == nil {
		t.Errorf("Bits() accepted a non-binary outcome")
	}
	boom := errors.New("backend unavailable")
	failing := &quantum.StubOracle{Shot: func(*quantum.Circuit, int) (string, error) { return "", boom }}
	if _, err := Bits(ctx, failing, 8, 0); !errors.Is(err, boom) {
		t.Errorf("Bits() error == %v, want %v", err, boom)
	}
}

func TestBitsUniform(t *testing.T) {
	o := quantum.NewPolarizationOracle(rand.New(rand.NewSource(99)))
	bits, err := Bits(context.Background(), o, 20000, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, p, err := Uniformity(bits)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p < 1e-4 {
		t.Errorf("Uniformity() p-value == %v, bits look biased", p)
	}
}

func TestUniformity(t *testing.T) {
	tcs := []struct {
		name  string
		bits  []uint8
		echi2 float64
		lowP  bool
	}{
		{"balanced", []uint8{0, 1, 0, 1, 1, 0}, 0, false},
		{"all ones", make100(1), 100, true},
		{"all zeros", make100(0), 100, true},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			chi2, p, err := Uniformity(tc.bits)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if chi2 != tc.echi2 {
				t.Errorf("Uniformity() statistic == %v, want %v", chi2, tc.echi2)
			}
			if tc.lowP != (p < 1e-6) {
				t.Errorf("Uniformity() p-value == %v", p)
			}
		})
	}
	if _, _, err := Uniformity(nil); err == nil {
		t.Errorf("Uniformity(nil) succeeded")
	}
}

func make100(b uint8) []uint8 {
	bits := make([]uint8, 100)
	for i := range bits {
		bits[i] = b
	}
	return bits
}

func TestCoinFlips(t *testing.T) {
	counts, err := CoinFlips(context.Background(), quantum.NewPolarizationOracle(rand.New(rand.NewSource(4))), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counts.Total() != 10 {
		t.Errorf("CoinFlips() tallied %d flips, want 10", counts.Total())
	}
	for k := range counts {
		if k != "0" && k != "1" {
			t.Errorf("CoinFlips() produced outcome %q", k)
		}
	}
}

func TestRollDie(t *testing.T) {
	tcs := []struct {
		name     string
		outcomes []string
		eout     int
		ecalls   int
	}{
		{"zero maps to one", []string{"000"}, 1, 1},
		{"five maps to six", []string{"101"}, 6, 1},
		{"rejects six and seven", []string{"110", "111", "011"}, 4, 3},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			o := sequenceOracle(tc.outcomes...)
			v, err := RollDie(context.Background(), o)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v != tc.eout || o.Calls != tc.ecalls {
				t.Errorf("RollDie() == %d after %d calls, want %d after %d", v, o.Calls, tc.eout, tc.ecalls)
			}
		})
	}

	if _, err := RollDie(context.Background(), quantum.FixedOracle("111")); err == nil {
		t.Errorf("RollDie() succeeded although every roll was rejected")
	}
}

func TestRollDieFaces(t *testing.T) {
	o := quantum.NewPolarizationOracle(rand.New(rand.NewSource(6)))
	seen := map[int]int{}
	for i := 0; i < 600; i++ {
		v, err := RollDie(context.Background(), o)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v < 1 || v > 6 {
			t.Fatalf("RollDie() == %d", v)
		}
		seen[v]++
	}
	for face := 1; face <= 6; face++ {
		if seen[face] < 50 {
			t.Errorf("face %d came up %d times in 600 rolls", face, seen[face])
		}
	}
}

func TestNewPassword(t *testing.T) {
	// "AB" is 0x41 0x42.
	var outcomes []string
	for _, c := range "0100000101000010" {
		outcomes = append(outcomes, string(c))
	}
	pw, err := NewPassword(context.Background(), sequenceOracle(outcomes...), 16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pw.Hex != "4142" || pw.ASCII != "AB" || pw.BitString() != "0100000101000010" {
		t.Errorf("NewPassword() == %+v", pw)
	}
}
