package mrt

import (
	"github.com/bgpstream-go/mrt/internal/ipval"
	"github.com/bgpstream-go/mrt/internal/wire"
)

// TableDumpRecord is a decoded TABLE_DUMP (type 12) record.
type TableDumpRecord struct {
	View     uint16
	Sequence uint16
	Prefix   ipval.Prefix
	Status   uint8
	Uptime   uint32
	PeerIP   ipval.Address
	PeerASN  uint32
	Attrs    *Attributes
}

// ParseTableDump decodes a TABLE_DUMP record body. The subtype selects the
// AFI and the peer-ASN width (16-bit, or the 32-bit variant some dumps use).
func ParseTableDump(body []byte, subtype uint16) (*TableDumpRecord, error) {
	s := wire.New(body)
	rec := &TableDumpRecord{
		View:     s.ReadU16(),
		Sequence: s.ReadU16(),
	}

	addrLen := 4
	if isV6Subtype(subtype) {
		addrLen = 16
	}
	prefixAddr, err := ipval.AddrFromBytes(s.ReadBytes(addrLen))
	if err != nil {
		return nil, err
	}

	mask := int(s.ReadU8())
	rec.Status = s.ReadU8()
	rec.Uptime = s.ReadU32()

	prefix, err := ipval.NewPrefix(prefixAddr, mask, ipval.MatchAny)
	if err != nil {
		return nil, err
	}
	rec.Prefix = prefix

	peerIP, err := ipval.AddrFromBytes(s.ReadBytes(addrLen))
	if err != nil {
		return nil, err
	}
	rec.PeerIP = peerIP

	asnWidth := asnWidthForSubtype(subtype)
	if asnWidth == 32 {
		rec.PeerASN = s.ReadU32()
	} else {
		rec.PeerASN = uint32(s.ReadU16())
	}

	attrs, err := ParseAttributeBlock(s, asnWidth)
	if err != nil {
		return nil, err
	}
	rec.Attrs = attrs

	return rec, nil
}
