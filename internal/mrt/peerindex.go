package mrt

import (
	"github.com/bgpstream-go/mrt/internal/ipval"
	"github.com/bgpstream-go/mrt/internal/wire"
)

// PeerIndexEntry is one row of a TABLE_DUMP_V2 PEER_INDEX_TABLE.
type PeerIndexEntry struct {
	BGPID  ipval.Address
	PeerIP ipval.Address
	ASN    uint32
}

// PeerIndexTable is the shared peer-index table a TABLE_DUMP_V2 stream
// carries: it is replaced wholesale by each new PEER_INDEX_TABLE record
// (spec.md §4.9), never merged.
type PeerIndexTable struct {
	LocalBGPID ipval.Address
	ViewName   string
	Entries    []PeerIndexEntry
}

const maxViewNameLen = 255

// ParsePeerIndexTable decodes a PEER_INDEX_TABLE record body.
func ParsePeerIndexTable(body []byte) (*PeerIndexTable, error) {
	s := wire.New(body)

	localID, err := ipval.AddrFromBytes(s.ReadBytes(4))
	if err != nil {
		return nil, err
	}

	viewNameLen := int(s.ReadU16())
	t := &PeerIndexTable{LocalBGPID: localID}
	if viewNameLen > maxViewNameLen {
		// longer than the maximum: skip and clear, not truncate-and-keep.
		s.ReadBytes(viewNameLen)
	} else {
		t.ViewName = string(s.ReadBytes(viewNameLen))
	}

	peerCount := int(s.ReadU16())
	t.Entries = make([]PeerIndexEntry, 0, peerCount)
	for i := 0; i < peerCount; i++ {
		entry, err := parsePeerIndexEntry(s)
		if err != nil {
			return nil, err
		}
		t.Entries = append(t.Entries, entry)
	}
	return t, nil
}

func parsePeerIndexEntry(s *wire.Stream) (PeerIndexEntry, error) {
	typeByte := s.ReadU8()

	bgpID, err := ipval.AddrFromBytes(s.ReadBytes(4))
	if err != nil {
		return PeerIndexEntry{}, err
	}

	var peerIPLen int
	if typeByte&peerFlagAFIIPv6 != 0 {
		peerIPLen = 16
	} else {
		peerIPLen = 4
	}
	peerIP, err := ipval.AddrFromBytes(s.ReadBytes(peerIPLen))
	if err != nil {
		return PeerIndexEntry{}, err
	}

	var asn uint32
	if typeByte&peerFlagAS4 != 0 {
		asn = s.ReadU32()
	} else {
		asn = uint32(s.ReadU16())
	}

	return PeerIndexEntry{BGPID: bgpID, PeerIP: peerIP, ASN: asn}, nil
}

// Lookup returns the peer-index entry at idx, or false if out of range.
func (t *PeerIndexTable) Lookup(idx uint16) (PeerIndexEntry, bool) {
	if t == nil || int(idx) >= len(t.Entries) {
		return PeerIndexEntry{}, false
	}
	return t.Entries[idx], true
}
