package wire

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestRoundTrip(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Nanosecond)
	payload := []byte("portfolio-weights-v2")

	b := Encode(exp, payload)
	gotExp, gotPayload, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !gotExp.Equal(exp) {
		t.Fatalf("expiry mismatch: got %v want %v", gotExp, exp)
	}
	if !bytes.Equal(gotPayload, payload) {
		t.Fatalf("payload mismatch: got %q", gotPayload)
	}
}

func TestRoundTripNoExpiry(t *testing.T) {
	b := Encode(time.Time{}, []byte("x"))
	exp, payload, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !exp.IsZero() {
		t.Fatalf("expected zero expiry, got %v", exp)
	}
	if string(payload) != "x" {
		t.Fatalf("payload mismatch: %q", payload)
	}
}

func TestEmptyPayload(t *testing.T) {
	b := Encode(time.Time{}, nil)
	_, payload, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(payload) != 0 {
		t.Fatalf("expected empty payload, got %q", payload)
	}
}

func TestCorruptInputs(t *testing.T) {
	good := Encode(time.Now().Add(time.Minute), []byte("value"))

	cases := map[string][]byte{
		"empty":         {},
		"short":         good[:5],
		"bad magic":     append([]byte("XXXX"), good[4:]...),
		"bad version":   func() []byte { b := append([]byte(nil), good...); b[4] = 99; return b }(),
		"bad kind":      func() []byte { b := append([]byte(nil), good...); b[5] = 7; return b }(),
		"truncated":     good[:len(good)-2],
		"foreign bytes": []byte("some stray value written by another client"),
	}
	for name, b := range cases {
		if _, _, err := Decode(b); !errors.Is(err, ErrCorrupt) {
			t.Errorf("%s: expected ErrCorrupt, got %v", name, err)
		}
	}
}

func TestLengthFieldBounds(t *testing.T) {
	b := Encode(time.Time{}, []byte("abc"))
	// Inflate the declared payload length past the buffer end.
	b[len(b)-4-3] = 0xFF
	if _, _, err := Decode(b); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("oversized vlen should be corrupt, got %v", err)
	}
}

func TestExpired(t *testing.T) {
	now := time.Now()
	if Expired(time.Time{}, now) {
		t.Fatal("zero expiry must never be expired")
	}
	if Expired(now.Add(time.Minute), now) {
		t.Fatal("future expiry reported expired")
	}
	if !Expired(now.Add(-time.Minute), now) {
		t.Fatal("past expiry not reported expired")
	}
}
