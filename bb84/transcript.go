package bb84

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/golang/snappy"
	"google.golang.org/protobuf/encoding/protowire"
)

// maxFrame bounds the size of a single transcript frame.
const maxFrame = 1 << 24

// maxRoundsHint caps the capacity preallocated from a header's round count.
const maxRoundsHint = 4096

// snappyMagic opens every snappy framed stream.
var snappyMagic = []byte("\xff\x06\x00\x00sNaPpY")

// Field numbers of the transcript records.
const (
	headerID          protowire.Number = 1
	headerRounds      protowire.Number = 2
	headerOracleCalls protowire.Number = 3

	roundSenderBit     protowire.Number = 1
	roundSenderBasis   protowire.Number = 2
	roundReceiverBasis protowire.Number = 3
	roundMeasuredBit   protowire.Number = 4
	roundIntercepted   protowire.Number = 5
	roundEveBasis      protowire.Number = 6

	disclosedRounds protowire.Number = 1
)

// TranscriptOpts controls how WriteTranscript encodes a session.
type TranscriptOpts struct {
	// Compress wraps the transcript in a snappy framed stream.
	Compress bool
}

// WriteTranscript serialises s to w. A transcript is a sequence of frames,
// each laid out as payload-length | payload, with the length a little endian
// int32 and the payload a protobuf record: one header, one record per round,
// then the disclosed indices.
func WriteTranscript(w io.Writer, s *Session, opts TranscriptOpts) error {
	if s == nil {
		return errors.New("must provide a session")
	}
	if !opts.Compress {
		return writeFrames(w, s)
	}
	sw := snappy.NewBufferedWriter(w)
	if err := writeFrames(sw, s); err != nil {
		return err
	}
	return sw.Close()
}

func writeFrames(w io.Writer, s *Session) error {
	var hdr []byte
	hdr = protowire.AppendTag(hdr, headerID, protowire.BytesType)
	hdr = protowire.AppendString(hdr, s.ID)
	hdr = protowire.AppendTag(hdr, headerRounds, protowire.VarintType)
	hdr = protowire.AppendVarint(hdr, uint64(len(s.Rounds)))
	hdr = appendVarintField(hdr, headerOracleCalls, uint64(s.OracleCalls))
	if err := writeFrame(w, hdr); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, r := range s.Rounds {
		if err := writeFrame(w, marshalRound(r)); err != nil {
			return fmt.Errorf("writing round %d: %w", i, err)
		}
	}

	var packed []byte
	for _, i := range s.Disclosed {
		packed = protowire.AppendVarint(packed, uint64(i))
	}
	var disc []byte
	if len(packed) > 0 {
		disc = protowire.AppendTag(disc, disclosedRounds, protowire.BytesType)
		disc = protowire.AppendBytes(disc, packed)
	}
	if err := writeFrame(w, disc); err != nil {
		return fmt.Errorf("writing disclosures: %w", err)
	}
	return nil
}

func writeFrame(w io.Writer, payload []byte) error {
	if err := binary.Write(w, binary.LittleEndian, int32(len(payload))); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

func marshalRound(r Round) []byte {
	var b []byte
	b = appendVarintField(b, roundSenderBit, uint64(r.SenderBit))
	b = appendVarintField(b, roundSenderBasis, uint64(r.SenderBasis))
	b = appendVarintField(b, roundReceiverBasis, uint64(r.ReceiverBasis))
	b = appendVarintField(b, roundMeasuredBit, uint64(r.MeasuredBit))
	if r.Intercepted {
		b = appendVarintField(b, roundIntercepted, 1)
		b = appendVarintField(b, roundEveBasis, uint64(r.EveBasis))
	}
	return b
}

// appendVarintField omits zero values, as proto3 does.
func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// ReadTranscript parses a transcript produced by WriteTranscript, detecting
// compression automatically. The sifted indices are recomputed from the
// rounds.
func ReadTranscript(r io.Reader) (*Session, error) {
	br := bufio.NewReader(r)
	var src io.Reader = br
	if magic, err := br.Peek(len(snappyMagic)); err == nil && bytes.Equal(magic, snappyMagic) {
		src = snappy.NewReader(br)
	}

	hdr, err := readFrame(src)
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	s := &Session{}
	var n uint64
	err = walkFields(hdr, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == headerID && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(b)
			s.ID = v
			return m, nil
		case num == headerRounds && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			n = v
			return m, nil
		case num == headerOracleCalls && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			s.OracleCalls = int(v)
			return m, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing header: %w", err)
	}
	if n > maxFrame || uint64(s.OracleCalls) > maxFrame {
		return nil, fmt.Errorf("transcript claims %d rounds and %d oracle calls", n, s.OracleCalls)
	}

	// The header is untrusted; let the round frames grow the slice.
	s.Rounds = make([]Round, 0, min(n, maxRoundsHint))
	for i := 0; i < int(n); i++ {
		payload, err := readFrame(src)
		if err != nil {
			return nil, fmt.Errorf("reading round %d: %w", i, err)
		}
		rd, err := unmarshalRound(payload)
		if err != nil {
			return nil, fmt.Errorf("parsing round %d: %w", i, err)
		}
		s.Rounds = append(s.Rounds, rd)
	}
	s.Sifted = Sift(s.Rounds)

	disc, err := readFrame(src)
	if err != nil {
		return nil, fmt.Errorf("reading disclosures: %w", err)
	}
	err = walkFields(disc, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != disclosedRounds || typ != protowire.BytesType {
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
		packed, m := protowire.ConsumeBytes(b)
		if m < 0 {
			return m, nil
		}
		for len(packed) > 0 {
			v, k := protowire.ConsumeVarint(packed)
			if k < 0 {
				return 0, protowire.ParseError(k)
			}
			s.Disclosed = append(s.Disclosed, int(v))
			packed = packed[k:]
		}
		return m, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing disclosures: %w", err)
	}
	if err := s.checkDisclosed(); err != nil {
		return nil, err
	}
	return s, nil
}

func readFrame(r io.Reader) ([]byte, error) {
	var n int32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	if n < 0 || n > maxFrame {
		return nil, fmt.Errorf("invalid frame length %d", n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func unmarshalRound(payload []byte) (Round, error) {
	var r Round
	err := walkFields(payload, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ != protowire.VarintType {
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
		v, m := protowire.ConsumeVarint(b)
		if m < 0 {
			return m, nil
		}
		if v > 1 {
			return 0, fmt.Errorf("field %d holds %d, want 0 or 1", num, v)
		}
		switch num {
		case roundSenderBit:
			r.SenderBit = uint8(v)
		case roundSenderBasis:
			r.SenderBasis = Basis(v)
		case roundReceiverBasis:
			r.ReceiverBasis = Basis(v)
		case roundMeasuredBit:
			r.MeasuredBit = uint8(v)
		case roundIntercepted:
			r.Intercepted = v == 1
		case roundEveBasis:
			r.EveBasis = Basis(v)
		}
		return m, nil
	})
	return r, err
}

// walkFields calls fn for every field in b. fn consumes the field value and
// reports how many bytes it used, or a negative protowire error code.
func walkFields(b []byte, fn func(protowire.Number, protowire.Type, []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		m, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if m < 0 {
			return protowire.ParseError(m)
		}
		b = b[m:]
	}
	return nil
}

func (s *Session) checkDisclosed() error {
	sifted := make(map[int]bool, len(s.Sifted))
	for _, i := range s.Sifted {
		sifted[i] = true
	}
	for j, i := range s.Disclosed {
		if !sifted[i] {
			return fmt.Errorf("disclosed round %d was not sifted", i)
		}
		if j > 0 && s.Disclosed[j-1] >= i {
			return fmt.Errorf("disclosed rounds out of order at %d", i)
		}
	}
	return nil
}
