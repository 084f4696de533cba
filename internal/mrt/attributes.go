package mrt

import (
	"fmt"

	"github.com/bgpstream-go/mrt/internal/community"
	"github.com/bgpstream-go/mrt/internal/ipval"
	"github.com/bgpstream-go/mrt/internal/wire"
)

// BGP path attribute type codes (RFC 4271 §5, RFC 4760, RFC 4893).
const (
	attrOrigin          uint8 = 1
	attrASPath          uint8 = 2
	attrNextHop         uint8 = 3
	attrMED             uint8 = 4
	attrLocalPref       uint8 = 5
	attrAtomicAggregate uint8 = 6
	attrAggregator      uint8 = 7
	attrCommunities     uint8 = 8
	attrOriginatorID    uint8 = 9
	attrClusterList     uint8 = 10
	attrMPReachNLRI     uint8 = 14
	attrMPUnreachNLRI   uint8 = 15
	attrNewASPath       uint8 = 17
	attrNewAggregator   uint8 = 18
)

const attrFlagExtendedLength uint8 = 0x10

// MPReach holds a decoded MP_REACH_NLRI attribute.
type MPReach struct {
	AFI              uint16
	SAFI             uint8
	NextHop          ipval.Address
	LinkLocalNextHop ipval.Address
	HasLinkLocal     bool
	Abbreviated      bool // sniffed first-byte-zero vendor form
	NLRI             []ipval.Prefix
}

// MPUnreach holds a decoded MP_UNREACH_NLRI attribute.
type MPUnreach struct {
	AFI  uint16
	SAFI uint8
	NLRI []ipval.Prefix
}

// Attributes is the decoded path-attribute block of one UPDATE/RIB entry.
// AS_PATH and NEW_AS_PATH are stored as raw wire bytes per spec.md §4.9
// ("parsed lazily with the supplied ASN width"); callers decode them with
// aspath.BuildFromWire using the ASN width appropriate to the record.
type Attributes struct {
	HasOrigin bool
	Origin    uint8

	HasASPath bool
	ASPathRaw []byte

	HasNextHop bool
	NextHop    ipval.Address

	HasMED bool
	MED    uint32

	HasLocalPref bool
	LocalPref    uint32

	AtomicAggregate bool

	HasAggregator  bool
	AggregatorASN  uint32
	AggregatorAddr ipval.Address

	Communities *community.Set

	HasNewASPath bool
	NewASPathRaw []byte

	HasNewAggregator  bool
	NewAggregatorASN  uint32
	NewAggregatorAddr ipval.Address

	HasOriginatorID bool
	OriginatorID    ipval.Address

	ClusterList []ipval.Address

	MPReach   *MPReach
	MPUnreach *MPUnreach
}

// ParseAttributeBlock reads the attribute block header (a u16 total length
// followed by exactly that many bytes, per spec.md §4.9) from s, then
// decodes each attribute TLV within that subrange. asnWidth (16 or 32)
// governs AGGREGATOR's ASN field; AS_PATH/NEW_AS_PATH are stored raw and
// decoded lazily by the caller. A duplicate occurrence of any attribute
// type aborts the block with an error.
func ParseAttributeBlock(s *wire.Stream, asnWidth int) (*Attributes, error) {
	totalLen := int(s.ReadU16())
	sub := s.Sub(totalLen)

	attrs := &Attributes{}
	seen := make(map[uint8]bool)

	for sub.Remaining() > 0 {
		flag := sub.ReadU8()
		typeCode := sub.ReadU8()

		var length int
		if flag&attrFlagExtendedLength != 0 {
			length = int(sub.ReadU16())
		} else {
			length = int(sub.ReadU8())
		}
		body := sub.Sub(length)

		if seen[typeCode] {
			return nil, fmt.Errorf("mrt: duplicate attribute type %d", typeCode)
		}
		seen[typeCode] = true

		if err := decodeAttribute(typeCode, body, asnWidth, attrs); err != nil {
			return nil, err
		}
	}

	return attrs, nil
}

func decodeAttribute(typeCode uint8, body *wire.Stream, asnWidth int, attrs *Attributes) error {
	switch typeCode {
	case attrOrigin:
		attrs.HasOrigin = true
		attrs.Origin = body.ReadU8()

	case attrASPath:
		attrs.HasASPath = true
		attrs.ASPathRaw = body.All()

	case attrNextHop:
		addr, err := ipval.AddrFromBytes(body.Bytes())
		if err != nil {
			return fmt.Errorf("mrt: NEXT_HOP: %w", err)
		}
		attrs.HasNextHop = true
		attrs.NextHop = addr

	case attrMED:
		attrs.HasMED = true
		attrs.MED = body.ReadU32()

	case attrLocalPref:
		attrs.HasLocalPref = true
		attrs.LocalPref = body.ReadU32()

	case attrAtomicAggregate:
		attrs.AtomicAggregate = true

	case attrAggregator:
		asn, addr, err := readAggregator(body, asnWidth)
		if err != nil {
			return fmt.Errorf("mrt: AGGREGATOR: %w", err)
		}
		attrs.HasAggregator = true
		attrs.AggregatorASN = asn
		attrs.AggregatorAddr = addr

	case attrCommunities:
		set, err := community.FromAttribute(body.All())
		if err != nil {
			return fmt.Errorf("mrt: COMMUNITIES: %w", err)
		}
		attrs.Communities = set

	case attrNewASPath:
		attrs.HasNewASPath = true
		attrs.NewASPathRaw = body.All()

	case attrNewAggregator:
		asn, addr, err := readAggregator(body, 32)
		if err != nil {
			return fmt.Errorf("mrt: NEW_AGGREGATOR: %w", err)
		}
		attrs.HasNewAggregator = true
		attrs.NewAggregatorASN = asn
		attrs.NewAggregatorAddr = addr

	case attrOriginatorID:
		addr, err := ipval.AddrFromBytes(body.Bytes())
		if err != nil {
			return fmt.Errorf("mrt: ORIGINATOR_ID: %w", err)
		}
		attrs.HasOriginatorID = true
		attrs.OriginatorID = addr

	case attrClusterList:
		raw := body.All()
		for i := 0; i+4 <= len(raw); i += 4 {
			addr, err := ipval.AddrFromBytes(raw[i : i+4])
			if err != nil {
				return fmt.Errorf("mrt: CLUSTER_LIST: %w", err)
			}
			attrs.ClusterList = append(attrs.ClusterList, addr)
		}

	case attrMPReachNLRI:
		mp, err := parseMPReach(body.All())
		if err != nil {
			return fmt.Errorf("mrt: MP_REACH_NLRI: %w", err)
		}
		attrs.MPReach = mp

	case attrMPUnreachNLRI:
		mp, err := parseMPUnreach(body.All())
		if err != nil {
			return fmt.Errorf("mrt: MP_UNREACH_NLRI: %w", err)
		}
		attrs.MPUnreach = mp

		// Unknown types are simply not captured; the wire cursor already
		// consumed exactly `length` bytes via body, so nothing else to do.
	}
	return nil
}

func readAggregator(body *wire.Stream, asnWidth int) (uint32, ipval.Address, error) {
	var asn uint32
	if asnWidth == 32 {
		asn = body.ReadU32()
	} else {
		asn = uint32(body.ReadU16())
	}
	addr, err := ipval.AddrFromBytes(body.Bytes())
	return asn, addr, err
}
