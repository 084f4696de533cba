package mrt

import (
	"encoding/binary"
	"fmt"
	"io"
)

// headerSize is the fixed 12-byte MRT common header: time, type, subtype,
// length (all big-endian).
const headerSize = 12

// RawRecord is one undecoded MRT record: the common header fields plus its
// body bytes.
type RawRecord struct {
	Time    uint32
	Type    uint16
	Subtype uint16
	Body    []byte
}

// ReadRawRecord reads one MRT record's header and body from r. A short read
// of zero bytes on the header returns ErrEndOfStream; any other short read
// (on the header or the body) returns ErrCorrupted, per spec.md §4.9.
func ReadRawRecord(r io.Reader) (*RawRecord, error) {
	var hdr [headerSize]byte
	n, err := io.ReadFull(r, hdr[:])
	if n == 0 && (err == io.EOF || err == nil) {
		return nil, ErrEndOfStream
	}
	if n != headerSize {
		return nil, fmt.Errorf("%w: short header read (%d of %d bytes)", ErrCorrupted, n, headerSize)
	}

	rec := &RawRecord{
		Time:    binary.BigEndian.Uint32(hdr[0:4]),
		Type:    binary.BigEndian.Uint16(hdr[4:6]),
		Subtype: binary.BigEndian.Uint16(hdr[6:8]),
	}
	length := binary.BigEndian.Uint32(hdr[8:12])

	body := make([]byte, length)
	bn, err := io.ReadFull(r, body)
	if bn != int(length) {
		return nil, fmt.Errorf("%w: short body read (%d of %d bytes)", ErrCorrupted, bn, length)
	}
	rec.Body = body
	return rec, nil
}
