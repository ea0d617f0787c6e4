package quantum

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
)

// A polarization is one of the four BB84 photon states.
type polarization uint8

const (
	horizontal polarization = iota // |0>
	vertical                       // |1>
	diagonal                       // |+>
	antidiagonal                   // |->
)

func (p polarization) classical() bool {
	return p == horizontal || p == vertical
}

// Single-qubit gates permute the four polarizations (up to global phase).
var transitions = map[Gate][4]polarization{
	GateX: {vertical, horizontal, diagonal, antidiagonal},
	GateY: {vertical, horizontal, antidiagonal, diagonal},
	GateZ: {horizontal, vertical, antidiagonal, diagonal},
	GateH: {diagonal, antidiagonal, horizontal, vertical},
}

// A PolarizationOracle executes circuits whose qubits stay unentangled, i.e.
// every qubit remains one of |0>, |1>, |+>, |-> throughout. This covers
// prepare-and-measure circuits such as BB84 rounds, coin flips and dice.
//
// Measuring |+> or |-> in the computational basis yields a fair coin drawn
// from Rand and collapses the qubit. Controlled gates are supported only while
// their controls are in |0> or |1>; anything else returns ErrUnsupported.
//
// A PolarizationOracle is not safe for concurrent use.
type PolarizationOracle struct {
	Rand *rand.Rand

	// ReadoutError is the probability that a measurement reports the flipped
	// value. Zero models a noiseless detector.
	ReadoutError float64
}

// NewPolarizationOracle returns a noiseless PolarizationOracle drawing its
// randomness from r.
func NewPolarizationOracle(r *rand.Rand) *PolarizationOracle {
	return &PolarizationOracle{Rand: r}
}

// Run implements the Oracle interface.
func (o *PolarizationOracle) Run(ctx context.Context, c *Circuit, shots int) (*Result, error) {
	if o.Rand == nil {
		return nil, errors.New("must provide Rand")
	}
	if err := checkRun(ctx, c, shots); err != nil {
		return nil, err
	}
	res := &Result{Counts: Counts{}, Memory: make([]string, 0, shots)}
	for i := 0; i < shots; i++ {
		out, err := o.shot(c)
		if err != nil {
			return nil, err
		}
		res.record(out)
	}
	return res, nil
}

func (o *PolarizationOracle) shot(c *Circuit) (string, error) {
	qubits := make([]polarization, c.NumQubits)
	clbits := make([]byte, c.NumClbits)
	for i := range clbits {
		clbits[i] = '0'
	}
	for i, op := range c.Ops {
		switch op.Gate {
		case GateX, GateY, GateZ, GateH:
			q := op.Qubits[0]
			qubits[q] = transitions[op.Gate][qubits[q]]
		case GateCX, GateMCX:
			n := len(op.Qubits) - 1
			fire, err := controlsSet(qubits, op.Qubits[:n])
			if err != nil {
				return "", fmt.Errorf("op %d (%s): %w", i, op.Gate, err)
			}
			if fire {
				t := op.Qubits[n]
				qubits[t] = transitions[GateX][qubits[t]]
			}
		case GateCZ:
			a, b := op.Qubits[0], op.Qubits[1]
			if !qubits[a].classical() {
				a, b = b, a
			}
			fire, err := controlsSet(qubits, []int{a})
			if err != nil {
				return "", fmt.Errorf("op %d (%s): %w", i, op.Gate, err)
			}
			if fire {
				qubits[b] = transitions[GateZ][qubits[b]]
			}
		case GateMeasure:
			q := op.Qubits[0]
			bit := o.measure(&qubits[q])
			if o.ReadoutError > 0 && o.Rand.Float64() < o.ReadoutError {
				bit = !bit
			}
			// Classical bit 0 is the rightmost character.
			pos := c.NumClbits - 1 - op.Clbit
			if bit {
				clbits[pos] = '1'
			} else {
				clbits[pos] = '0'
			}
		default:
			return "", fmt.Errorf("op %d: gate %q: %w", i, op.Gate, ErrUnsupported)
		}
	}
	return string(clbits), nil
}

// measure collapses p in the computational basis and returns the outcome.
func (o *PolarizationOracle) measure(p *polarization) bool {
	switch *p {
	case horizontal:
		return false
	case vertical:
		return true
	}
	one := o.Rand.Intn(2) == 1
	if one {
		*p = vertical
	} else {
		*p = horizontal
	}
	return one
}

// controlsSet reports whether every control qubit is |1>. Controls in
// superposition would entangle the register, which this oracle cannot model.
func controlsSet(qubits []polarization, controls []int) (bool, error) {
	fire := true
	for _, q := range controls {
		if !qubits[q].classical() {
			return false, fmt.Errorf("control qubit %d in superposition: %w", q, ErrUnsupported)
		}
		fire = fire && qubits[q] == vertical
	}
	return fire, nil
}
