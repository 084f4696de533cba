package mrt

import (
	"errors"
	"fmt"
	"io"
)

// Record is one decoded MRT record together with the raw header fields it
// was read from. Exactly one of the typed fields is populated, matching the
// record's Type/Subtype; Unsupported is set for record kinds this decoder
// does not parse, per spec.md's "skip, don't abort" rule.
type Record struct {
	Time    uint32
	Type    uint16
	Subtype uint16

	TableDump     *TableDumpRecord
	PeerIndex     *PeerIndexTable
	RIB           *RIBRecord
	StateChange   *StateChange
	Message       *Message

	Unsupported bool
}

// Decoder reads a stream of MRT records, tracking the TABLE_DUMP_V2
// peer-index table a RIB_IPVx_UNICAST record needs to resolve its entries'
// peers. The table is replaced wholesale by each new PEER_INDEX_TABLE
// record (spec.md §4.9) — it is never merged with a prior one.
type Decoder struct {
	r         io.Reader
	peerTable *PeerIndexTable

	// corrupted is set once a truncated read or a missing-peer-index-table
	// fault occurs. Per spec.md §7 truncation is sticky: once set, every
	// subsequent Next() reports ErrEndOfStream without touching r again.
	corrupted bool
}

// NewDecoder wraps r as a Decoder.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// PeerIndexTable returns the most recently seen peer-index table, or nil if
// none has been read yet.
func (d *Decoder) PeerIndexTable() *PeerIndexTable {
	return d.peerTable
}

// Next reads and decodes the next MRT record. It returns ErrEndOfStream
// when the underlying reader is exhausted at a record boundary.
// Unsupported type/subtype combinations are returned as a Record with
// Unsupported set rather than as an error, so a caller can keep draining
// the stream.
func (d *Decoder) Next() (*Record, error) {
	if d.corrupted {
		return nil, ErrEndOfStream
	}

	raw, err := ReadRawRecord(d.r)
	if err != nil {
		if errors.Is(err, ErrCorrupted) {
			d.corrupted = true
		}
		return nil, err
	}

	rec := &Record{Time: raw.Time, Type: raw.Type, Subtype: raw.Subtype}

	switch raw.Type {
	case TypeTableDump:
		td, err := ParseTableDump(raw.Body, raw.Subtype)
		if err != nil {
			return nil, fmt.Errorf("mrt: table dump: %w", err)
		}
		rec.TableDump = td

	case TypeTableDumpV2:
		switch raw.Subtype {
		case SubtypePeerIndexTable:
			pit, err := ParsePeerIndexTable(raw.Body)
			if err != nil {
				return nil, fmt.Errorf("mrt: peer index table: %w", err)
			}
			d.peerTable = pit
			rec.PeerIndex = pit

		case SubtypeRIBIPv4Unicast, SubtypeRIBIPv4Multicast:
			if d.peerTable == nil {
				d.corrupted = true
				return nil, ErrMissingPeerIndexTable
			}
			rib, err := ParseRIBUnicast(raw.Body, AFIIPv4)
			if err != nil {
				return nil, fmt.Errorf("mrt: rib ipv4: %w", err)
			}
			rec.RIB = rib

		case SubtypeRIBIPv6Unicast, SubtypeRIBIPv6Multicast:
			if d.peerTable == nil {
				d.corrupted = true
				return nil, ErrMissingPeerIndexTable
			}
			rib, err := ParseRIBUnicast(raw.Body, AFIIPv6)
			if err != nil {
				return nil, fmt.Errorf("mrt: rib ipv6: %w", err)
			}
			rec.RIB = rib

		default:
			rec.Unsupported = true
		}

	case TypeBGP4MP:
		switch raw.Subtype {
		case SubtypeStateChange, SubtypeStateChangeAS4:
			sc, err := ParseStateChange(raw.Body, raw.Subtype)
			if err != nil {
				return nil, fmt.Errorf("mrt: bgp4mp state change: %w", err)
			}
			rec.StateChange = sc

		case SubtypeMessage, SubtypeMessageAS4:
			msg, err := ParseMessage(raw.Body, raw.Subtype)
			if errors.Is(err, ErrBadMarker) {
				// spec.md: a bad marker skips this record, not the stream.
				rec.Unsupported = true
				break
			}
			if err != nil {
				return nil, fmt.Errorf("mrt: bgp4mp message: %w", err)
			}
			rec.Message = msg

		default:
			rec.Unsupported = true
		}

	default:
		rec.Unsupported = true
	}

	return rec, nil
}
