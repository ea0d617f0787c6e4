package bb84

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/google/uuid"
	"github.com/qdemo/qdemo/quantum"
	"gonum.org/v1/gonum/stat"
)

// A Session is the record of one BB84 exchange.
type Session struct {
	ID     string
	Rounds []Round

	// Sifted holds the indices into Rounds where the bases matched, in round
	// order.
	Sifted []int

	// Disclosed holds the sifted indices revealed for error estimation, in
	// ascending order. It is always a subset of Sifted.
	Disclosed []int

	// OracleCalls counts the circuits submitted while running the session.
	OracleCalls int
}

// A Disclosure is one publicly compared bit pair.
type Disclosure struct {
	Round       int
	SenderBit   uint8
	ReceiverBit uint8
}

// RunSession performs a full BB84 exchange: it draws the sender's bits and
// bases and the receiver's bases from opts.Rand, runs one circuit per round
// on opts.Oracle, sifts the matching-basis rounds and discloses a sample of
// them.
//
// Oracle failures abort the session and are returned to the caller.
func RunSession(ctx context.Context, opts SessionOpts) (*Session, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	s := &Session{
		ID:     uuid.NewString(),
		Rounds: make([]Round, 0, opts.Rounds),
	}
	for i := 0; i < opts.Rounds; i++ {
		r := Round{
			SenderBit:     uint8(opts.Rand.Intn(2)),
			SenderBasis:   Basis(opts.Rand.Intn(2)),
			ReceiverBasis: Basis(opts.Rand.Intn(2)),
		}
		if opts.Eavesdrop > 0 && opts.Rand.Float64() < opts.Eavesdrop {
			r.Intercepted = true
			r.EveBasis = Basis(opts.Rand.Intn(2))
		}
		bit, err := measure(ctx, opts.Oracle, r)
		s.OracleCalls++
		if err != nil {
			return nil, fmt.Errorf("round %d: %w", i, err)
		}
		r.MeasuredBit = bit
		s.Rounds = append(s.Rounds, r)
	}
	s.Sifted = Sift(s.Rounds)
	s.Disclosed = Disclose(s.Sifted, opts.DiscloseFraction, opts.Rand)
	return s, nil
}

// RoundCircuit returns the single-qubit circuit realising r: the sender's
// preparation, the eavesdropper's measure-and-resend if any, and the
// receiver's measurement into classical bit 0.
func RoundCircuit(r Round) *quantum.Circuit {
	clbits := 1
	if r.Intercepted {
		clbits = 2
	}
	c := quantum.NewCircuit(1, clbits)
	if r.SenderBit == 1 {
		c.X(0)
	}
	if r.SenderBasis == X {
		c.H(0)
	}
	if r.Intercepted {
		if r.EveBasis == X {
			c.H(0)
		}
		c.Measure(0, 1)
		if r.EveBasis == X {
			c.H(0)
		}
	}
	if r.ReceiverBasis == X {
		c.H(0)
	}
	return c.Measure(0, 0)
}

func measure(ctx context.Context, o quantum.Oracle, r Round) (uint8, error) {
	c := RoundCircuit(r)
	res, err := o.Run(ctx, c, 1)
	if err != nil {
		return 0, fmt.Errorf("running circuit: %w", err)
	}
	if len(res.Memory) != 1 || len(res.Memory[0]) != c.NumClbits {
		return 0, fmt.Errorf("oracle returned malformed outcome %v for %d classical bits", res.Memory, c.NumClbits)
	}
	out := res.Memory[0]
	// The receiver's result is classical bit 0, the rightmost character.
	switch out[len(out)-1] {
	case '0':
		return 0, nil
	case '1':
		return 1, nil
	}
	return 0, fmt.Errorf("oracle returned non-binary outcome %q", out)
}

// Sift returns the indices of rounds whose bases match, in round order.
func Sift(rounds []Round) []int {
	var sifted []int
	for i, r := range rounds {
		if r.Matched() {
			sifted = append(sifted, i)
		}
	}
	return sifted
}

// DisclosureSize returns how many of n sifted bits to reveal for a given
// fraction: max(1, floor(fraction*n)), or 0 if n is 0.
func DisclosureSize(fraction float64, n int) int {
	if n <= 0 {
		return 0
	}
	// The epsilon absorbs products like 0.29*100 landing just under 29.
	k := int(math.Floor(fraction*float64(n) + 1e-9))
	return min(max(1, k), n)
}

// Disclose samples DisclosureSize(fraction, len(sifted)) distinct entries of
// sifted without replacement, returning them in ascending order.
func Disclose(sifted []int, fraction float64, r *rand.Rand) []int {
	k := DisclosureSize(fraction, len(sifted))
	if k == 0 {
		return nil
	}
	disclosed := make([]int, 0, k)
	for _, p := range r.Perm(len(sifted))[:k] {
		disclosed = append(disclosed, sifted[p])
	}
	sort.Ints(disclosed)
	return disclosed
}

// Disclosures returns the publicly compared (sender, receiver) bit pairs.
func (s *Session) Disclosures() []Disclosure {
	d := make([]Disclosure, 0, len(s.Disclosed))
	for _, i := range s.Disclosed {
		r := s.Rounds[i]
		d = append(d, Disclosure{Round: i, SenderBit: r.SenderBit, ReceiverBit: r.MeasuredBit})
	}
	return d
}

// ErrorRate returns the fraction of disclosed pairs that disagree, or 0 when
// nothing was disclosed.
func (s *Session) ErrorRate() float64 {
	if len(s.Disclosed) == 0 {
		return 0
	}
	mismatches := make([]float64, 0, len(s.Disclosed))
	for _, d := range s.Disclosures() {
		if d.SenderBit != d.ReceiverBit {
			mismatches = append(mismatches, 1)
		} else {
			mismatches = append(mismatches, 0)
		}
	}
	return stat.Mean(mismatches, nil)
}

// SiftedSenderBits returns the sender's bits at the sifted positions.
func (s *Session) SiftedSenderBits() []uint8 {
	return s.collect(s.Sifted, false, nil)
}

// SiftedReceiverBits returns the receiver's bits at the sifted positions.
func (s *Session) SiftedReceiverBits() []uint8 {
	return s.collect(s.Sifted, true, nil)
}

// SenderKey returns the sender's final key: sifted bits minus disclosed ones,
// in round order.
func (s *Session) SenderKey() []uint8 {
	return s.collect(s.Sifted, false, s.disclosedSet())
}

// ReceiverKey returns the receiver's final key. Absent noise or
// eavesdropping it equals SenderKey.
func (s *Session) ReceiverKey() []uint8 {
	return s.collect(s.Sifted, true, s.disclosedSet())
}

// FinalKey returns the agreed key, taken from the sender's side.
func (s *Session) FinalKey() []uint8 {
	return s.SenderKey()
}

// FinalKeyPositions returns the round indices contributing to the final key.
func (s *Session) FinalKeyPositions() []int {
	skip := s.disclosedSet()
	pos := make([]int, 0, len(s.Sifted)-len(s.Disclosed))
	for _, i := range s.Sifted {
		if !skip[i] {
			pos = append(pos, i)
		}
	}
	return pos
}

// Stats summarises s.
func (s *Session) Stats() Stats {
	st := Stats{
		Rounds:      len(s.Rounds),
		Sifted:      len(s.Sifted),
		Disclosed:   len(s.Disclosed),
		KeyBits:     len(s.Sifted) - len(s.Disclosed),
		OracleCalls: s.OracleCalls,
		QBER:        s.ErrorRate(),
	}
	for _, r := range s.Rounds {
		if r.Intercepted {
			st.Intercepted++
		}
	}
	return st
}

func (s *Session) disclosedSet() map[int]bool {
	set := make(map[int]bool, len(s.Disclosed))
	for _, i := range s.Disclosed {
		set[i] = true
	}
	return set
}

func (s *Session) collect(idx []int, receiver bool, skip map[int]bool) []uint8 {
	bits := make([]uint8, 0, len(idx))
	for _, i := range idx {
		if skip[i] {
			continue
		}
		if receiver {
			bits = append(bits, s.Rounds[i].MeasuredBit)
		} else {
			bits = append(bits, s.Rounds[i].SenderBit)
		}
	}
	return bits
}
