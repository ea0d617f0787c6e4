// Package qrng draws random bits, coin flips, die rolls and passwords from
// single-qubit Hadamard measurements.
package qrng

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/qdemo/qdemo/bitbuf"
	"github.com/qdemo/qdemo/quantum"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultShotsPerRun is the batch size Bits uses when none is given.
const DefaultShotsPerRun = 1024

// maxRejections bounds the rerolls RollDie performs before giving up.
const maxRejections = 1000

// CoinCircuit returns the one-qubit H+measure circuit behind every draw.
func CoinCircuit() *quantum.Circuit {
	return quantum.NewCircuit(1, 1).H(0).Measure(0, 0)
}

// Bits returns n random bits, running CoinCircuit in batches of shotsPerRun
// shots. Bits are taken from the per-shot memory in execution order.
func Bits(ctx context.Context, o quantum.Oracle, n, shotsPerRun int) ([]uint8, error) {
	if o == nil {
		return nil, errors.New("must provide Oracle")
	}
	if n < 0 {
		return nil, fmt.Errorf("bit count must not be negative, got %d", n)
	}
	if shotsPerRun <= 0 {
		shotsPerRun = DefaultShotsPerRun
	}
	bits := make([]uint8, 0, n)
	for len(bits) < n {
		res, err := o.Run(ctx, CoinCircuit(), shotsPerRun)
		if err != nil {
			return nil, fmt.Errorf("sampling bits: %w", err)
		}
		for _, m := range res.Memory {
			switch m {
			case "0":
				bits = append(bits, 0)
			case "1":
				bits = append(bits, 1)
			default:
				return nil, fmt.Errorf("oracle returned non-binary outcome %q", m)
			}
		}
		if len(res.Memory) == 0 {
			return nil, errors.New("oracle returned no shots")
		}
	}
	return bits[:n], nil
}

// CoinFlips flips a quantum coin shots times and returns the tally.
func CoinFlips(ctx context.Context, o quantum.Oracle, shots int) (quantum.Counts, error) {
	if o == nil {
		return nil, errors.New("must provide Oracle")
	}
	res, err := o.Run(ctx, CoinCircuit(), shots)
	if err != nil {
		return nil, fmt.Errorf("flipping coins: %w", err)
	}
	return res.Counts, nil
}

// DieCircuit puts three qubits in uniform superposition and measures them.
func DieCircuit() *quantum.Circuit {
	return quantum.NewCircuit(3, 3).H(0).H(1).H(2).MeasureAll()
}

// RollDie returns a uniform value in 1..6. Three-qubit outcomes of 6 or 7 are
// rejected and rerolled.
func RollDie(ctx context.Context, o quantum.Oracle) (int, error) {
	if o == nil {
		return 0, errors.New("must provide Oracle")
	}
	for i := 0; i < maxRejections; i++ {
		res, err := o.Run(ctx, DieCircuit(), 1)
		if err != nil {
			return 0, fmt.Errorf("rolling die: %w", err)
		}
		if len(res.Memory) != 1 {
			return 0, fmt.Errorf("oracle returned %d shots, want 1", len(res.Memory))
		}
		v, err := strconv.ParseUint(res.Memory[0], 2, 8)
		if err != nil {
			return 0, fmt.Errorf("oracle returned malformed outcome %q: %w", res.Memory[0], err)
		}
		if v < 6 {
			return int(v) + 1, nil
		}
	}
	return 0, fmt.Errorf("no valid roll after %d attempts", maxRejections)
}

// A Password is a random bit string with its printable renderings.
type Password struct {
	Bits  []uint8
	Hex   string
	ASCII string
}

// NewPassword generates a password of n random bits.
func NewPassword(ctx context.Context, o quantum.Oracle, n int) (*Password, error) {
	bits, err := Bits(ctx, o, n, DefaultShotsPerRun)
	if err != nil {
		return nil, err
	}
	return &Password{
		Bits:  bits,
		Hex:   bitbuf.Hex(bits),
		ASCII: bitbuf.ASCII(bits),
	}, nil
}

// BitString renders the password bits as '0'/'1' characters.
func (p *Password) BitString() string {
	return bitbuf.FromBits(p.Bits).String()
}

// Uniformity runs a chi-square goodness-of-fit test of bits against a fair
// coin, returning the statistic and its p-value.
func Uniformity(bits []uint8) (chi2, p float64, err error) {
	if len(bits) == 0 {
		return 0, 0, errors.New("no bits to test")
	}
	var ones float64
	for _, b := range bits {
		if b != 0 {
			ones++
		}
	}
	n := float64(len(bits))
	obs := []float64{n - ones, ones}
	exp := []float64{n / 2, n / 2}
	chi2 = stat.ChiSquare(obs, exp)
	p = distuv.ChiSquared{K: 1}.Survival(chi2)
	return chi2, p, nil
}
