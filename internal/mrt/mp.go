package mrt

import (
	"fmt"

	"github.com/bgpstream-go/mrt/internal/ipval"
	"github.com/bgpstream-go/mrt/internal/wire"
)

func afiMaxBytes(afi uint16) (int, error) {
	switch afi {
	case AFIIPv4:
		return 4, nil
	case AFIIPv6:
		return 16, nil
	default:
		return 0, fmt.Errorf("mrt: unsupported AFI %d", afi)
	}
}

// parseMPReach decodes an MP_REACH_NLRI attribute body. Per spec.md §4.9, a
// leading zero byte signals the abbreviated vendor form used by some MRT
// dumps: a bare v6 next-hop with nothing else.
func parseMPReach(data []byte) (*MPReach, error) {
	if len(data) > 0 && data[0] == 0 {
		s := wire.New(data)
		s.ReadU8()
		nh, err := ipval.AddrFromBytes(s.ReadBytes(16))
		if err != nil {
			return nil, err
		}
		return &MPReach{Abbreviated: true, NextHop: nh}, nil
	}

	s := wire.New(data)
	afi := s.ReadU16()
	safi := s.ReadU8()
	if afi > 6 || safi > 3 {
		return nil, fmt.Errorf("mrt: rejected AFI/SAFI (%d, %d)", afi, safi)
	}

	nhLen := int(s.ReadU8())
	nhBytes := s.ReadBytes(nhLen)

	mp := &MPReach{AFI: afi, SAFI: safi}
	if afi == AFIIPv6 && nhLen == 32 {
		nh, err := ipval.AddrFromBytes(nhBytes[:16])
		if err != nil {
			return nil, err
		}
		ll, err := ipval.AddrFromBytes(nhBytes[16:])
		if err != nil {
			return nil, err
		}
		mp.NextHop = nh
		mp.LinkLocalNextHop = ll
		mp.HasLinkLocal = true
	} else {
		nh, err := ipval.AddrFromBytes(nhBytes)
		if err != nil {
			return nil, err
		}
		mp.NextHop = nh
	}

	snpaCount := int(s.ReadU8())
	for i := 0; i < snpaCount; i++ {
		snpaLen := int(s.ReadU8())
		s.ReadBytes((snpaLen + 1) / 2)
	}

	nlri, err := readPrefixList(s, afi)
	if err != nil {
		return nil, err
	}
	mp.NLRI = nlri
	return mp, nil
}

// parseMPUnreach decodes an MP_UNREACH_NLRI attribute body.
func parseMPUnreach(data []byte) (*MPUnreach, error) {
	s := wire.New(data)
	afi := s.ReadU16()
	safi := s.ReadU8()
	if afi > 6 || safi > 3 {
		return nil, fmt.Errorf("mrt: rejected AFI/SAFI (%d, %d)", afi, safi)
	}

	nlri, err := readPrefixList(s, afi)
	if err != nil {
		return nil, err
	}
	return &MPUnreach{AFI: afi, SAFI: safi, NLRI: nlri}, nil
}

// readPrefixList reads a sequence of (len:u8, ceil(len/8) address bytes)
// NLRI entries per spec.md's legacy/MP NLRI list format. If the declared
// byte count exceeds what remains, the list stops without an error and the
// truncated entry is discarded; readPrefixListWithIncomplete is the variant
// that reports it.
func readPrefixList(s *wire.Stream, afi uint16) ([]ipval.Prefix, error) {
	var out []ipval.Prefix
	maxBytes, err := afiMaxBytes(afi)
	if err != nil {
		return nil, err
	}

	for s.Remaining() > 0 {
		maskLen := int(s.ReadU8())
		byteLen := (maskLen + 7) / 8
		if byteLen > maxBytes {
			return out, fmt.Errorf("mrt: prefix mask length %d exceeds AFI width", maskLen)
		}
		if s.Remaining() < byteLen {
			// incomplete trailing prefix: spec.md's single "incomplete
			// prefix" side-channel condition — stop without erroring.
			break
		}
		raw := s.ReadBytes(byteLen)
		padded := make([]byte, maxBytes)
		copy(padded, raw)
		addr, err := ipval.AddrFromBytes(padded)
		if err != nil {
			return out, err
		}
		prefix, err := ipval.NewPrefix(addr, maskLen, ipval.MatchAny)
		if err != nil {
			return out, err
		}
		out = append(out, prefix)
	}
	return out, nil
}

// IncompletePrefix records a legacy/MP NLRI entry truncated mid-list: the
// AFI it was being read for, the declared mask length, and whatever
// partial address bytes were available.
type IncompletePrefix struct {
	AFI          uint16
	DeclaredMask int
	Partial      []byte
}

// readPrefixListWithIncomplete is readPrefixList's variant that surfaces the
// truncated tail as an IncompletePrefix instead of silently discarding it,
// used by the legacy (non-MP) NLRI lists inside BGP4MP UPDATE messages.
func readPrefixListWithIncomplete(s *wire.Stream, afi uint16) ([]ipval.Prefix, *IncompletePrefix, error) {
	var out []ipval.Prefix
	maxBytes, err := afiMaxBytes(afi)
	if err != nil {
		return nil, nil, err
	}

	for s.Remaining() > 0 {
		maskLen := int(s.ReadU8())
		byteLen := (maskLen + 7) / 8
		if byteLen > maxBytes {
			return out, nil, fmt.Errorf("mrt: prefix mask length %d exceeds AFI width", maskLen)
		}
		if s.Remaining() < byteLen {
			return out, &IncompletePrefix{AFI: afi, DeclaredMask: maskLen, Partial: append([]byte(nil), s.Bytes()...)}, nil
		}
		raw := s.ReadBytes(byteLen)
		padded := make([]byte, maxBytes)
		copy(padded, raw)
		addr, err := ipval.AddrFromBytes(padded)
		if err != nil {
			return out, nil, err
		}
		prefix, err := ipval.NewPrefix(addr, maskLen, ipval.MatchAny)
		if err != nil {
			return out, nil, err
		}
		out = append(out, prefix)
	}
	return out, nil, nil
}
