package grover

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/qdemo/qdemo/quantum"
)

func TestIterations(t *testing.T) {
	tcs := []struct {
		n         int
		eiters    int
		eclassics float64
	}{
		{1, 1, 1},
		{2, 1, 2},
		{3, 2, 4},
		{4, 3, 8},
	}
	for _, tc := range tcs {
		if got := Iterations(tc.n); got != tc.eiters {
			t.Errorf("Iterations(%d) == %d, want %d", tc.n, got, tc.eiters)
		}
		if got := ClassicalAverageChecks(tc.n); got != tc.eclassics {
			t.Errorf("ClassicalAverageChecks(%d) == %v, want %v", tc.n, got, tc.eclassics)
		}
	}
}

func TestCircuit(t *testing.T) {
	tcs := []struct {
		name   string
		n      int
		target int
		eops   int
		emcx   int
	}{
		{"one qubit marked one", 1, 1, 8, 0},
		{"one qubit marked zero", 1, 0, 10, 0},
		{"two qubits", 2, 3, 14, 0},
		{"three qubits", 3, 5, 0, 4},
		{"four qubits", 4, 0, 0, 6},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			c, err := Circuit(tc.n, tc.target)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := c.Validate(); err != nil {
				t.Fatalf("invalid circuit: %v", err)
			}
			if c.NumQubits != tc.n || c.NumClbits != tc.n {
				t.Errorf("circuit has %d qubits and %d clbits, want %d of each", c.NumQubits, c.NumClbits, tc.n)
			}
			if tc.eops > 0 && len(c.Ops) != tc.eops {
				t.Errorf("circuit has %d ops, want %d", len(c.Ops), tc.eops)
			}
			mcx, measures := 0, 0
			for _, op := range c.Ops {
				switch op.Gate {
				case quantum.GateMCX:
					mcx++
					if len(op.Qubits) != tc.n {
						t.Errorf("mcx over %d qubits, want %d", len(op.Qubits), tc.n)
					}
				case quantum.GateMeasure:
					measures++
				}
			}
			if mcx != tc.emcx || measures != tc.n {
				t.Errorf("circuit has %d mcx and %d measurements, want %d and %d", mcx, measures, tc.emcx, tc.n)
			}
		})
	}
}

func TestCircuitRejectsBadInput(t *testing.T) {
	tcs := []struct {
		name      string
		n, target int
	}{
		{"no qubits", 0, 0},
		{"too many qubits", 5, 0},
		{"negative target", 2, -1},
		{"target too large", 2, 4},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Circuit(tc.n, tc.target); err == nil {
				t.Errorf("Circuit(%d, %d) succeeded", tc.n, tc.target)
			}
		})
	}
}

func TestSearch(t *testing.T) {
	res, err := Search(context.Background(), quantum.FixedOracle("101"), 3, 5, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Found() || res.Iterations != 2 || res.Target != "101" {
		t.Errorf("Search() == %+v", res)
	}

	res, err = Search(context.Background(), quantum.FixedOracle("00"), 2, 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Found() {
		t.Errorf("Search() found %q looking for %q", res.Best, res.Target)
	}

	// Entangling search circuits are beyond the polarization model.
	o := quantum.NewPolarizationOracle(rand.New(rand.NewSource(1)))
	if _, err := Search(context.Background(), o, 2, 1, 10); !errors.Is(err, quantum.ErrUnsupported) {
		t.Errorf("Search() error == %v, want ErrUnsupported", err)
	}
}

func TestSearchSingleQubitPolarization(t *testing.T) {
	for target := 0; target < 2; target++ {
		o := quantum.NewPolarizationOracle(rand.New(rand.NewSource(int64(target))))
		res, err := Search(context.Background(), o, 1, target, 200)
		if err != nil {
			t.Fatalf("Search(1, %d) error: %v", target, err)
		}
		if res.Counts.Total() != 200 || res.Iterations != 1 {
			t.Errorf("Search(1, %d) == %+v", target, res)
		}
	}
}

func TestTargetFromBits(t *testing.T) {
	bits := []uint8{1, 0, 1, 1}
	tcs := []struct {
		n    int
		eout int
		eErr bool
	}{
		{1, 1, false},
		{2, 2, false},
		{4, 11, false},
		{0, 0, true},
		{5, 0, true},
	}
	for _, tc := range tcs {
		got, err := TargetFromBits(bits, tc.n)
		if tc.eErr != (err != nil) {
			t.Errorf("TargetFromBits(%v, %d) error == %v", bits, tc.n, err)
		}
		if got != tc.eout {
			t.Errorf("TargetFromBits(%v, %d) == %d, want %d", bits, tc.n, got, tc.eout)
		}
	}
	if _, err := TargetFromBits([]uint8{1}, 2); err == nil {
		t.Errorf("TargetFromBits with too few bits succeeded")
	}
}

func TestExtrapolate(t *testing.T) {
	classical, grover := Extrapolate(64)
	if HumanReadable(classical) != "9.22E" {
		t.Errorf("classical checks for 64 bits == %s", HumanReadable(classical))
	}
	if HumanReadable(grover) != "3.37B" {
		t.Errorf("grover calls for 64 bits == %s", HumanReadable(grover))
	}
}

func TestHumanReadable(t *testing.T) {
	tcs := []struct {
		in   float64
		eout string
	}{
		{0, "0"},
		{8, "8.00"},
		{999, "999.00"},
		{1500, "1.50K"},
		{2.5e6, "2.50M"},
		{-4200, "-4.20K"},
		{1e24, "1000000.00E"},
	}
	for _, tc := range tcs {
		if got := HumanReadable(tc.in); got != tc.eout {
			t.Errorf("HumanReadable(%v) == %q, want %q", tc.in, got, tc.eout)
		}
	}
}
