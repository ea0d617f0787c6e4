package quantum

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrUnsupported is returned by oracles asked to execute a circuit outside
// the class of circuits they can model.
var ErrUnsupported = errors.New("circuit not supported by oracle")

// Counts maps a measured bit-string to the number of shots that produced it.
// Classical bit 0 is the rightmost character of each key.
type Counts map[string]int

// Total returns the number of shots recorded in c.
func (c Counts) Total() int {
	var n int
	for _, v := range c {
		n += v
	}
	return n
}

// Keys returns the outcomes in c in lexical order.
func (c Counts) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MostFrequent returns the outcome with the highest count. Ties go to the
// lexically smallest outcome.
func (c Counts) MostFrequent() (outcome string, count int) {
	for _, k := range c.Keys() {
		if c[k] > count {
			outcome, count = k, c[k]
		}
	}
	return outcome, count
}

// A Result is the outcome of executing a circuit for some number of shots.
type Result struct {
	Counts Counts
	// Memory holds the outcome of every shot, in execution order.
	Memory []string
}

// An Oracle executes circuits, returning measurement outcomes distributed
// according to the state the circuit prepares.
type Oracle interface {
	// Run executes c shots times. Implementations must return counts summing
	// to shots, or an error.
	Run(ctx context.Context, c *Circuit, shots int) (*Result, error)
}

// A StubOracle is an Oracle whose behaviour is supplied by a function. It is
// intended for exercising protocol logic without a real backend.
type StubOracle struct {
	// Shot returns the outcome of the i-th shot of c.
	Shot func(c *Circuit, i int) (string, error)
	// Calls counts invocations of Run.
	Calls int
}

// FixedOracle returns a StubOracle that yields outcome on every shot.
func FixedOracle(outcome string) *StubOracle {
	return &StubOracle{Shot: func(*Circuit, int) (string, error) { return outcome, nil }}
}

// Run implements the Oracle interface.
func (s *StubOracle) Run(ctx context.Context, c *Circuit, shots int) (*Result, error) {
	s.Calls++
	if err := checkRun(ctx, c, shots); err != nil {
		return nil, err
	}
	res := &Result{Counts: Counts{}, Memory: make([]string, 0, shots)}
	for i := 0; i < shots; i++ {
		out, err := s.Shot(c, i)
		if err != nil {
			return nil, err
		}
		res.record(out)
	}
	return res, nil
}

func (r *Result) record(outcome string) {
	r.Counts[outcome]++
	r.Memory = append(r.Memory, outcome)
}

func checkRun(ctx context.Context, c *Circuit, shots int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c == nil {
		return errors.New("must provide a circuit")
	}
	if shots < 1 {
		return fmt.Errorf("shot count must be positive, got %d", shots)
	}
	return c.Validate()
}
