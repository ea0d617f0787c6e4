// Package bb84 simulates BB84 key exchange: a sender encodes random bits in
// randomly chosen bases, a receiver measures in bases of its own, and the two
// keep only the positions where their bases agree.
package bb84

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/qdemo/qdemo/quantum"
)

// A Basis is a measurement/preparation basis for a single qubit.
type Basis uint8

const (
	// Z is the computational (rectilinear) basis.
	Z Basis = iota
	// X is the Hadamard (diagonal) basis.
	X
)

func (b Basis) String() string {
	switch b {
	case Z:
		return "Z"
	case X:
		return "X"
	}
	return fmt.Sprintf("Basis(%d)", uint8(b))
}

// A Round records one qubit exchanged between sender and receiver.
type Round struct {
	SenderBit     uint8
	SenderBasis   Basis
	ReceiverBasis Basis
	MeasuredBit   uint8

	// Intercepted is set when an eavesdropper measured and resent the qubit,
	// in which case EveBasis is the basis she used.
	Intercepted bool
	EveBasis    Basis
}

// Matched reports whether sender and receiver used the same basis.
func (r Round) Matched() bool {
	return r.SenderBasis == r.ReceiverBasis
}

// Stats packages together a collection of potentially interesting metrics
// pertaining to a BB84 session.
type Stats struct {
	Rounds      int
	Sifted      int
	Disclosed   int
	KeyBits     int
	Intercepted int
	OracleCalls int
	QBER        float64
}

// A SessionOpts packages together the arguments to RunSession.
type SessionOpts struct {
	// Rounds is the number of qubits to exchange. Zero yields an empty
	// session.
	Rounds int

	// DiscloseFraction is the proportion of sifted bits revealed for error
	// estimation; at least one bit is revealed whenever anything survives
	// sifting, so zero discloses exactly one. Must lie in [0, 1].
	DiscloseFraction float64

	// Rand provides the sender's and receiver's random choices. Seed it for
	// reproducible sessions. Must be non-nil.
	Rand *rand.Rand

	// Oracle executes the per-round circuits. Defaults to a noiseless
	// quantum.PolarizationOracle drawing from Rand.
	Oracle quantum.Oracle

	// Eavesdrop is the probability that an intercept-resend attacker measures
	// each qubit in a random basis before forwarding it. Zero models a clean
	// channel.
	Eavesdrop float64
}

func (opts SessionOpts) withDefaults() (SessionOpts, error) {
	if opts.Rand == nil {
		return opts, errors.New("must provide Rand")
	}
	if opts.Rounds < 0 {
		return opts, fmt.Errorf("round count must not be negative, got %d", opts.Rounds)
	}
	if opts.DiscloseFraction < 0 || opts.DiscloseFraction > 1 || math.IsNaN(opts.DiscloseFraction) {
		return opts, fmt.Errorf("disclose fraction must lie in [0, 1], got %v", opts.DiscloseFraction)
	}
	if opts.Eavesdrop < 0 || opts.Eavesdrop > 1 || math.IsNaN(opts.Eavesdrop) {
		return opts, fmt.Errorf("eavesdrop probability must lie in [0, 1], got %v", opts.Eavesdrop)
	}
	if opts.Oracle == nil {
		opts.Oracle = quantum.NewPolarizationOracle(opts.Rand)
	}
	return opts, nil
}

// LeakageBound returns a theoretical bound on the number of bits of
// information that Eve could have discerned from a key of n bits, given that
// an error rate of qber was observed on a sample of k further bits. eps is the
// tolerated probability that the bound fails; outside (0, 1) no bound is
// meaningful and the whole key is counted as leaked.
//
// See also, https://link.springer.com/article/10.1007/BF00191318
func LeakageBound(qber, eps float64, n, k int) float64 {
	if n <= 0 || k <= 0 || !(eps > 0 && eps < 1) {
		return float64(max(n, 0))
	}
	// See https://arxiv.org/abs/1506.08458, lemma 6.
	A := float64(n*k*k) / float64((n+k)*(k+1))
	nu := math.Sqrt(0.5 * math.Log(1/eps) / A)
	qberPessimistic := qber + nu

	bound := 2 * math.Sqrt(2) * qberPessimistic * float64(n)
	return math.Min(bound, float64(n))
}
