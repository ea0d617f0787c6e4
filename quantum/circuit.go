// Package quantum describes small quantum circuits and the oracles that
// execute them.
//
// A Circuit is a plain descriptor: an ordered list of gates and measurements
// over a fixed number of qubits and classical bits. Executing a circuit is the
// job of an Oracle, which returns the sampled measurement outcomes.
package quantum

import (
	"fmt"
	"strings"
)

// MaxQubits is the largest register any circuit may declare.
const MaxQubits = 16

// A Gate names an operation on one or more qubits.
type Gate string

const (
	GateX       Gate = "x"
	GateY       Gate = "y"
	GateZ       Gate = "z"
	GateH       Gate = "h"
	GateCX      Gate = "cx"
	GateCZ      Gate = "cz"
	GateMCX     Gate = "mcx"
	GateMeasure Gate = "measure"
)

// arity returns the number of qubit operands g takes, or -1 for gates with a
// variable operand count.
func (g Gate) arity() int {
	switch g {
	case GateX, GateY, GateZ, GateH, GateMeasure:
		return 1
	case GateCX, GateCZ:
		return 2
	case GateMCX:
		return -1
	}
	return 0
}

// An Instruction is a single step of a Circuit. For controlled gates the
// controls come first in Qubits and the target last. Clbit is only meaningful
// for measurements.
type Instruction struct {
	Gate   Gate
	Qubits []int
	Clbit  int
}

// A Circuit is an ordered sequence of instructions over NumQubits qubits and
// NumClbits classical bits. All qubits start in |0>.
type Circuit struct {
	NumQubits int
	NumClbits int
	Ops       []Instruction
}

// NewCircuit returns an empty circuit with the given register sizes.
func NewCircuit(qubits, clbits int) *Circuit {
	return &Circuit{NumQubits: qubits, NumClbits: clbits}
}

func (c *Circuit) add(g Gate, qubits ...int) *Circuit {
	c.Ops = append(c.Ops, Instruction{Gate: g, Qubits: qubits})
	return c
}

// X appends a Pauli-X (bit flip) on q.
func (c *Circuit) X(q int) *Circuit { return c.add(GateX, q) }

// Y appends a Pauli-Y on q.
func (c *Circuit) Y(q int) *Circuit { return c.add(GateY, q) }

// Z appends a Pauli-Z (phase flip) on q.
func (c *Circuit) Z(q int) *Circuit { return c.add(GateZ, q) }

// H appends a Hadamard on q.
func (c *Circuit) H(q int) *Circuit { return c.add(GateH, q) }

// CX appends a controlled-X from control onto target.
func (c *Circuit) CX(control, target int) *Circuit { return c.add(GateCX, control, target) }

// CZ appends a controlled-Z between control and target.
func (c *Circuit) CZ(control, target int) *Circuit { return c.add(GateCZ, control, target) }

// MCX appends an X on target controlled on every qubit in controls.
func (c *Circuit) MCX(controls []int, target int) *Circuit {
	qs := append(append([]int{}, controls...), target)
	return c.add(GateMCX, qs...)
}

// Measure appends a Z-basis measurement of q into classical bit clbit.
func (c *Circuit) Measure(q, clbit int) *Circuit {
	c.Ops = append(c.Ops, Instruction{Gate: GateMeasure, Qubits: []int{q}, Clbit: clbit})
	return c
}

// MeasureAll measures qubit i into classical bit i for every qubit.
func (c *Circuit) MeasureAll() *Circuit {
	for q := 0; q < c.NumQubits; q++ {
		c.Measure(q, q)
	}
	return c
}

// Validate reports the first structural problem with c, if any.
func (c *Circuit) Validate() error {
	if c.NumQubits < 1 || c.NumQubits > MaxQubits {
		return fmt.Errorf("unsupported qubit count %d, must be in [1, %d]", c.NumQubits, MaxQubits)
	}
	if c.NumClbits < 0 {
		return fmt.Errorf("negative classical bit count %d", c.NumClbits)
	}
	for i, op := range c.Ops {
		n := op.Gate.arity()
		switch {
		case n == 0:
			return fmt.Errorf("op %d: unknown gate %q", i, op.Gate)
		case n < 0 && len(op.Qubits) < 2:
			return fmt.Errorf("op %d: %s needs at least one control, got %d operands", i, op.Gate, len(op.Qubits))
		case n > 0 && len(op.Qubits) != n:
			return fmt.Errorf("op %d: %s takes %d operands, got %d", i, op.Gate, n, len(op.Qubits))
		}
		seen := make(map[int]bool, len(op.Qubits))
		for _, q := range op.Qubits {
			if q < 0 || q >= c.NumQubits {
				return fmt.Errorf("op %d: qubit index %d out of range [0, %d)", i, q, c.NumQubits)
			}
			if seen[q] {
				return fmt.Errorf("op %d: qubit %d used twice", i, q)
			}
			seen[q] = true
		}
		if op.Gate == GateMeasure && (op.Clbit < 0 || op.Clbit >= c.NumClbits) {
			return fmt.Errorf("op %d: classical bit index %d out of range [0, %d)", i, op.Clbit, c.NumClbits)
		}
	}
	return nil
}

// QASM renders c as an OpenQASM 2.0 program.
func (c *Circuit) QASM() string {
	var sb strings.Builder
	sb.WriteString("OPENQASM 2.0;\n")
	sb.WriteString("include \"qelib1.inc\";\n\n")
	fmt.Fprintf(&sb, "qreg q[%d];\n", c.NumQubits)
	if c.NumClbits > 0 {
		fmt.Fprintf(&sb, "creg c[%d];\n", c.NumClbits)
	}
	sb.WriteString("\n")
	for _, op := range c.Ops {
		if op.Gate == GateMeasure {
			fmt.Fprintf(&sb, "measure q[%d] -> c[%d];\n", op.Qubits[0], op.Clbit)
			continue
		}
		operands := make([]string, len(op.Qubits))
		for i, q := range op.Qubits {
			operands[i] = fmt.Sprintf("q[%d]", q)
		}
		fmt.Fprintf(&sb, "%s %s;\n", qasmName(op), strings.Join(operands, ", "))
	}
	return sb.String()
}

// qasmName maps multi-controlled X onto the qelib1 names for its arity.
func qasmName(op Instruction) string {
	if op.Gate != GateMCX {
		return string(op.Gate)
	}
	switch len(op.Qubits) {
	case 2:
		return "cx"
	case 3:
		return "ccx"
	case 4:
		return "c3x"
	case 5:
		return "c4x"
	}
	return fmt.Sprintf("mcx_%d", len(op.Qubits)-1)
}
