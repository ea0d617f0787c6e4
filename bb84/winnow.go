package bb84

import (
	"errors"
	"fmt"
	"math/bits"
	"math/rand"

	"github.com/qdemo/qdemo/bitbuf"
)

// DefaultWinnowIters is the Hamming parity-bit count of each winnow pass
// Reconcile makes when WinnowOpts.Iters is empty.
var DefaultWinnowIters = []int{3, 3, 3, 4, 6, 7, 7, 7}

// maxWinnowBits bounds the Hamming parity-bit count of a single pass.
const maxWinnowBits = 16

// A WinnowOpts packages together the arguments to Reconcile.
type WinnowOpts struct {
	// Iters lists the Hamming parity-bit count of each pass. Blocks hold
	// 2^Iters[i] bits. Defaults to DefaultWinnowIters.
	Iters []int

	// Rand shuffles the keys before every pass. Both parties must draw the
	// same permutations, i.e. share a seed. Must be non-nil.
	Rand *rand.Rand
}

// A WinnowResult is the output of Reconcile.
type WinnowResult struct {
	Sender   []uint8
	Receiver []uint8

	// Leaked counts the parity bits announced in public. The same number of
	// key bits is discarded to compensate.
	Leaked int
	// Corrections counts the receiver bits flipped.
	Corrections int
}

// Reconcile corrects the receiver's key towards the sender's with the Winnow
// algorithm, as described in https://arxiv.org/abs/quant-ph/0203096.
//
// Each pass shuffles both keys, splits them into blocks and compares block
// parities. Blocks whose parities differ exchange Hamming syndromes, letting
// the receiver fix a single error. Bits whose values were revealed by the
// announcements are dropped from both keys.
func Reconcile(sender, receiver []uint8, opts WinnowOpts) (WinnowResult, error) {
	if opts.Rand == nil {
		return WinnowResult{}, errors.New("must provide Rand")
	}
	if len(sender) != len(receiver) {
		return WinnowResult{}, fmt.Errorf("reconciling keys of different lengths: %d != %d", len(sender), len(receiver))
	}
	iters := opts.Iters
	if len(iters) == 0 {
		iters = DefaultWinnowIters
	}
	res := WinnowResult{
		Sender:   append([]uint8(nil), sender...),
		Receiver: append([]uint8(nil), receiver...),
	}
	for _, hBits := range iters {
		if hBits < 1 || hBits > maxWinnowBits {
			return WinnowResult{}, fmt.Errorf("winnow pass with %d parity bits, must be in [1, %d]", hBits, maxWinnowBits)
		}
		if len(res.Sender) == 0 {
			break
		}
		perm := opts.Rand.Perm(len(res.Sender))
		res.Sender = permute(res.Sender, perm)
		res.Receiver = permute(res.Receiver, perm)
		res.winnow(hBits)
	}
	return res, nil
}

// Reconcile runs Reconcile over the session's final keys.
func (s *Session) Reconcile(opts WinnowOpts) (WinnowResult, error) {
	return Reconcile(s.SenderKey(), s.ReceiverKey(), opts)
}

func permute(x []uint8, perm []int) []uint8 {
	r := make([]uint8, len(x))
	for i, p := range perm {
		r[i] = x[p]
	}
	return r
}

func (res *WinnowResult) winnow(hBits int) {
	n := 1 << hBits
	var x, y []uint8
	for start := 0; start < len(res.Sender); start += n {
		end := min(start+n, len(res.Sender))
		xs, ys := res.Sender[start:end], res.Receiver[start:end]
		diff := bitbuf.XOr(secded(xs, hBits), secded(ys, hBits))

		res.Leaked++
		todo := diff.Get(hBits)
		if todo {
			res.Leaked += hBits
			if pos := errorPosition(diff, hBits); pos < len(ys) {
				ys[pos] ^= 1
				res.Corrections++
			}
		}
		drop := privacyMask(len(xs), hBits, todo)
		for j := range xs {
			if !drop[j] {
				x = append(x, xs[j])
				y = append(y, ys[j])
			}
		}
	}
	res.Sender, res.Receiver = x, y
}

// errorPosition decodes the in-block index flagged by a syndrome difference.
func errorPosition(diff bitbuf.Buffer, hBits int) int {
	pos := 0
	for j := 0; j < hBits; j++ {
		if diff.Get(j) {
			pos |= 1 << j
		}
	}
	pos-- // cardinal/ordinal correction
	if pos < 0 {
		pos = 1<<hBits - 1 // total parity flip
	}
	return pos
}

// privacyMask marks the bits of a block to discard. A block that only
// announced its total parity loses its last bit. A block that also announced
// a syndrome loses the Hamming parity positions 2^p-1 along with its last
// bit. Short trailing blocks give up bits from the end until the count
// matches what was announced.
func privacyMask(size, hBits int, todo bool) []bool {
	drop := make([]bool, size)
	want, dropped := 1, 0
	if todo {
		want = hBits + 1
		for j := 0; j < size; j++ {
			if bits.OnesCount(uint(j+1)) == 1 {
				drop[j] = true
				dropped++
			}
		}
	}
	for j := size - 1; j >= 0 && dropped < want; j-- {
		if !drop[j] {
			drop[j] = true
			dropped++
		}
	}
	return drop
}

// secded returns the Hamming syndrome of block followed by its total parity,
// hBits+1 bits in all. Blocks shorter than 2^hBits are treated as zero
// padded.
func secded(block []uint8, hBits int) bitbuf.Buffer {
	var r bitbuf.Buffer

	// The p-th hamming parity bit checks the parity of bits in strides of 2^p. E.g.
	// the 0th bit checks positions {0, 2, 4, ...}, the 1st checks
	// {1,2, 5,6, ...}, the 2nd {3,4,5,6, 11,12,13,14, ...}.
	n := 1 << hBits
	for p := 0; p < hBits; p++ {
		stride := 1 << p
		parity := false
		for i := stride - 1; i < n; i += 2 * stride {
			for j := i; j < i+stride && j < len(block); j++ {
				parity = parity != (block[j] != 0)
			}
		}
		r.AppendBit(parity)
	}

	// Finish by inserting a total parity bit.
	r.AppendBit(bitbuf.Parity(bitbuf.FromBits(block)))
	return r
}
