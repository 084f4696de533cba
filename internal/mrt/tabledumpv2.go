package mrt

import (
	"github.com/bgpstream-go/mrt/internal/ipval"
	"github.com/bgpstream-go/mrt/internal/wire"
)

// RIBEntry is one route entry within a TABLE_DUMP_V2 RIB_IPVx_UNICAST
// record: a reference to the owning stream's peer-index slot plus the
// entry's own attributes.
type RIBEntry struct {
	PeerIndex     uint16
	OriginatedAt  uint32
	Attrs         *Attributes
}

// RIBRecord is a decoded TABLE_DUMP_V2 RIB_IPVx_UNICAST record.
type RIBRecord struct {
	AFI      uint16
	Sequence uint32
	Prefix   ipval.Prefix
	Entries  []RIBEntry
}

// ParseRIBUnicast decodes a RIB_IPV4_UNICAST or RIB_IPV6_UNICAST record
// body. It does not consult the peer-index table; Decoder.Next returns
// ErrMissingPeerIndexTable instead of calling it when no PEER_INDEX_TABLE
// has been seen yet (spec.md §4.9).
func ParseRIBUnicast(body []byte, afi uint16) (*RIBRecord, error) {
	s := wire.New(body)
	rec := &RIBRecord{AFI: afi, Sequence: s.ReadU32()}

	addrLen := 4
	if afi == AFIIPv6 {
		addrLen = 16
	}

	maskLen := int(s.ReadU8())
	byteLen := (maskLen + 7) / 8
	raw := s.ReadBytes(byteLen)
	padded := make([]byte, addrLen)
	copy(padded, raw)
	addr, err := ipval.AddrFromBytes(padded)
	if err != nil {
		return nil, err
	}
	prefix, err := ipval.NewPrefix(addr, maskLen, ipval.MatchAny)
	if err != nil {
		return nil, err
	}
	rec.Prefix = prefix

	entryCount := int(s.ReadU16())
	rec.Entries = make([]RIBEntry, 0, entryCount)
	for i := 0; i < entryCount; i++ {
		peerIndex := s.ReadU16()
		originated := s.ReadU32()
		attrs, err := ParseAttributeBlock(s, 32)
		if err != nil {
			return nil, err
		}
		rec.Entries = append(rec.Entries, RIBEntry{
			PeerIndex:    peerIndex,
			OriginatedAt: originated,
			Attrs:        attrs,
		})
	}

	return rec, nil
}
