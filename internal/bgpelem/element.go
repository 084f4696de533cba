// Package bgpelem expands a decoded MRT record (internal/mrt) into zero or
// more elements: the per-prefix/per-state-change unit the rest of the
// pipeline consumes. Grounded on internal/history/pipeline.go:processRecord,
// generalized from one BMP message producing N *HistoryRow to one MRT
// record producing N Element.
package bgpelem

import (
	"github.com/bgpstream-go/mrt/internal/aspath"
	"github.com/bgpstream-go/mrt/internal/community"
	"github.com/bgpstream-go/mrt/internal/ipval"
)

// Kind identifies what an Element represents.
type Kind uint8

const (
	Rib Kind = iota
	Announcement
	Withdrawal
	PeerState
)

func (k Kind) String() string {
	switch k {
	case Rib:
		return "rib"
	case Announcement:
		return "announcement"
	case Withdrawal:
		return "withdrawal"
	case PeerState:
		return "peer_state"
	default:
		return "unknown"
	}
}

// Element is one unit of output from the generator: a RIB entry, an
// announcement, a withdrawal, or a peer state transition.
type Element struct {
	Kind Kind

	Timestamp  uint32
	PeerAddr   ipval.Address
	PeerASN    uint32

	Prefix  ipval.Prefix
	HasNextHop bool
	NextHop ipval.Address

	ASPath      *aspath.Path
	Communities *community.Set

	HasAggregator  bool
	AggregatorASN  uint32
	AggregatorAddr ipval.Address

	OldState uint16
	NewState uint16
}
