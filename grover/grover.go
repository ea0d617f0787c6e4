// Package grover builds small Grover search circuits and compares their
// oracle-call counts with classical brute force.
package grover

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/qdemo/qdemo/quantum"
)

// MaxQubits is the largest search register Circuit supports, i.e. a space of
// 16 items.
const MaxQubits = 4

// Iterations returns the number of Grover iterations for an n-qubit search,
// max(1, floor(pi/4 * sqrt(2^n))).
func Iterations(n int) int {
	r := int(math.Floor(math.Pi / 4 * math.Sqrt(math.Ldexp(1, n))))
	return max(1, r)
}

// ClassicalAverageChecks returns the expected number of guesses a classical
// brute-force search of 2^n items needs.
func ClassicalAverageChecks(n int) float64 {
	return math.Ldexp(1, n) / 2
}

// Outcome returns the measurement string that identifies target in an
// n-qubit register: target in binary, most significant bit first.
func Outcome(n, target int) string {
	return fmt.Sprintf("%0*b", n, target)
}

func check(n, target int) error {
	if n < 1 || n > MaxQubits {
		return fmt.Errorf("qubit count must be between 1 and %d, got %d", MaxQubits, n)
	}
	if target < 0 || target >= 1<<n {
		return fmt.Errorf("target index %d out of range [0, %d)", target, 1<<n)
	}
	return nil
}

// Circuit returns the Grover search for target over n qubits: a uniform
// superposition, Iterations(n) rounds of phase oracle plus diffusion, and a
// measurement of every qubit. Qubit i carries bit i of the index, so the
// outcome string reads as Outcome(n, target).
func Circuit(n, target int) (*quantum.Circuit, error) {
	if err := check(n, target); err != nil {
		return nil, err
	}
	c := quantum.NewCircuit(n, n)
	for q := 0; q < n; q++ {
		c.H(q)
	}
	for i := Iterations(n); i > 0; i-- {
		phaseOracle(c, n, target)
		diffusion(c, n)
	}
	return c.MeasureAll(), nil
}

// phaseOracle flips the phase of |target>.
func phaseOracle(c *quantum.Circuit, n, target int) {
	for q := 0; q < n; q++ {
		if target>>q&1 == 0 {
			c.X(q)
		}
	}
	flipAllOnes(c, n)
	for q := 0; q < n; q++ {
		if target>>q&1 == 0 {
			c.X(q)
		}
	}
}

// diffusion inverts every amplitude about the mean.
func diffusion(c *quantum.Circuit, n int) {
	for q := 0; q < n; q++ {
		c.H(q)
	}
	for q := 0; q < n; q++ {
		c.X(q)
	}
	flipAllOnes(c, n)
	for q := 0; q < n; q++ {
		c.X(q)
	}
	for q := 0; q < n; q++ {
		c.H(q)
	}
}

// flipAllOnes applies a multi-controlled Z to the register.
func flipAllOnes(c *quantum.Circuit, n int) {
	switch n {
	case 1:
		c.Z(0)
	case 2:
		c.CZ(0, 1)
	default:
		controls := make([]int, n-1)
		for q := range controls {
			controls[q] = q
		}
		c.H(n - 1)
		c.MCX(controls, n-1)
		c.H(n - 1)
	}
}

// A Result summarises one Grover search run.
type Result struct {
	Counts     quantum.Counts
	Iterations int
	Target     string
	Best       string
}

// Found reports whether the target was the most frequent outcome.
func (r *Result) Found() bool {
	return r.Best == r.Target
}

// Search runs the Grover circuit for target on o.
func Search(ctx context.Context, o quantum.Oracle, n, target, shots int) (*Result, error) {
	if o == nil {
		return nil, errors.New("must provide Oracle")
	}
	c, err := Circuit(n, target)
	if err != nil {
		return nil, err
	}
	res, err := o.Run(ctx, c, shots)
	if err != nil {
		return nil, fmt.Errorf("running grover circuit: %w", err)
	}
	best, _ := res.Counts.MostFrequent()
	return &Result{
		Counts:     res.Counts,
		Iterations: Iterations(n),
		Target:     Outcome(n, target),
		Best:       best,
	}, nil
}

// TargetFromBits reads the first n bits (most significant first) as a search
// index.
func TargetFromBits(bits []uint8, n int) (int, error) {
	if n < 1 || n > MaxQubits {
		return 0, fmt.Errorf("qubit count must be between 1 and %d, got %d", MaxQubits, n)
	}
	if len(bits) < n {
		return 0, fmt.Errorf("need %d bits, have %d", n, len(bits))
	}
	target := 0
	for _, b := range bits[:n] {
		target <<= 1
		if b != 0 {
			target |= 1
		}
	}
	return target, nil
}

// Extrapolate returns the average classical checks and the ideal Grover
// oracle calls for exhausting a key of the given size.
func Extrapolate(keyBits int) (classical, grover float64) {
	return math.Ldexp(1, keyBits-1), math.Pi / 4 * math.Sqrt(math.Ldexp(1, keyBits))
}

var units = []string{"", "K", "M", "B", "T", "P", "E"}

// HumanReadable renders x with two decimals and a thousands suffix, e.g.
// 3.37B.
func HumanReadable(x float64) string {
	if x == 0 {
		return "0"
	}
	i := 0
	for ; i < len(units)-1 && math.Abs(x) >= 1000; i++ {
		x /= 1000
	}
	return fmt.Sprintf("%.2f%s", x, units[i])
}
