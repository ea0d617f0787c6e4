package otp

import (
	"bytes"
	"testing"
)

func TestXOR(t *testing.T) {
	tcs := []struct {
		name string
		msg  []byte
		key  []byte
		eout []byte
	}{
		{"empty", nil, nil, []byte{}},
		{"exact key", []byte{0xf0, 0x0f}, []byte{0xff, 0xff}, []byte{0x0f, 0xf0}},
		{"long key", []byte("hi"), []byte{0x00, 0x01, 0x02}, []byte("hh")},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			out, err := XOR(tc.msg, tc.key)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(out, tc.eout) {
				t.Errorf("XOR() == %x, want %x", out, tc.eout)
			}
			back, err := XOR(out, tc.key)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(back, tc.msg) {
				t.Errorf("XOR twice == %x, want %x", back, tc.msg)
			}
		})
	}

	if _, err := XOR([]byte("hello"), []byte{1, 2}); err == nil {
		t.Errorf("XOR() with a short key succeeded")
	}
}

func TestStretch(t *testing.T) {
	key := []byte{0xde, 0xad, 0xbe, 0xef}
	a, err := Stretch(key, 64, "session", "pad")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a) != 64 {
		t.Fatalf("Stretch() returned %d bytes, want 64", len(a))
	}
	b, err := Stretch(key, 64, "session", "pad")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Errorf("Stretch() is not deterministic")
	}
	c, err := Stretch(key, 64, "other session", "pad")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bytes.Equal(a, c) {
		t.Errorf("Stretch() ignores the salt")
	}

	tcs := []struct {
		name string
		key  []byte
		n    int
	}{
		{"empty key", nil, 8},
		{"negative length", key, -1},
		{"too long", key, MaxStretch + 1},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Stretch(tc.key, tc.n, "", ""); err == nil {
				t.Errorf("Stretch() succeeded")
			}
		})
	}
}
