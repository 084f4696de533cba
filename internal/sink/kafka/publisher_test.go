package kafka

import (
	"testing"

	"github.com/bgpstream-go/mrt/internal/bgpelem"
	"github.com/bgpstream-go/mrt/internal/ipval"
)

func TestToElementJSONAnnouncement(t *testing.T) {
	peer, _ := ipval.ParseAddress("192.0.2.1")
	nh, _ := ipval.ParseAddress("192.0.2.1")
	prefix, _ := ipval.ParsePrefix("198.51.100.0/24")

	e := bgpelem.Element{
		Kind:       bgpelem.Announcement,
		Timestamp:  1_600_000_000,
		PeerAddr:   peer,
		PeerASN:    64500,
		Prefix:     prefix,
		HasNextHop: true,
		NextHop:    nh,
	}

	out := toElementJSON(e)
	if out.Kind != "announcement" {
		t.Fatalf("kind = %q, want announcement", out.Kind)
	}
	if out.Prefix != "198.51.100.0/24" {
		t.Fatalf("prefix = %q, want 198.51.100.0/24", out.Prefix)
	}
	if out.NextHop != "192.0.2.1" {
		t.Fatalf("next hop = %q, want 192.0.2.1", out.NextHop)
	}
}

func TestToElementJSONPeerState(t *testing.T) {
	peer, _ := ipval.ParseAddress("192.0.2.1")
	e := bgpelem.Element{
		Kind:     bgpelem.PeerState,
		PeerAddr: peer,
		OldState: 1,
		NewState: 6,
	}

	out := toElementJSON(e)
	if out.Kind != "peer_state" {
		t.Fatalf("kind = %q, want peer_state", out.Kind)
	}
	if out.OldState != 1 || out.NewState != 6 {
		t.Fatalf("states = %d/%d, want 1/6", out.OldState, out.NewState)
	}
	if out.Prefix != "" {
		t.Fatalf("prefix should be empty for peer state, got %q", out.Prefix)
	}
}
