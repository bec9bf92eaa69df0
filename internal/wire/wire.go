// Package wire frames cache entries for tiers without native per-entry
// expiry. The envelope is versioned and magic-tagged so foreign or
// truncated values read back from a shared store are detected as corrupt
// instead of being misinterpreted.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"time"
)

const (
	version   byte = 1
	kindEntry byte = 1
)

var (
	ErrCorrupt = errors.New("wire: corrupt entry")
	magic4     = [...]byte{'M', 'M', 'G', '1'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Encode frames payload with its absolute expiry.
// Layout: magic(4) | ver(1) | kind(1) | exp(i64 be, unix nanos; 0 = never) | vlen(u32 be) | payload.
func Encode(expiresAt time.Time, payload []byte) []byte {
	var exp int64
	if !expiresAt.IsZero() {
		exp = expiresAt.UnixNano()
	}

	var buf bytes.Buffer
	buf.Grow(4 + 1 + 1 + 8 + 4 + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kindEntry)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], uint64(exp))
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes()
}

// Decode unpacks an envelope. expiresAt is zero when the entry never
// expires. The returned payload aliases b.
func Decode(b []byte) (expiresAt time.Time, payload []byte, err error) {
	const hdr = 4 + 1 + 1 + 8 + 4
	if len(b) < hdr || !hasMagic(b) || b[4] != version || b[5] != kindEntry {
		return time.Time{}, nil, ErrCorrupt
	}

	off := 6

	exp := int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8

	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen < 0 || vlen > len(b)-off { // overflow-safe bound check
		return time.Time{}, nil, ErrCorrupt
	}

	if exp != 0 {
		expiresAt = time.Unix(0, exp)
	}
	return expiresAt, b[off : off+vlen], nil
}

// Expired reports whether an entry with expiry exp is stale at now.
func Expired(exp time.Time, now time.Time) bool {
	return !exp.IsZero() && now.After(exp)
}
