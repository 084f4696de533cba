package postgres

import (
	"bytes"
	"testing"

	"github.com/bgpstream-go/mrt/internal/bgpelem"
	"github.com/bgpstream-go/mrt/internal/ipval"
)

func TestElementIDDeterministic(t *testing.T) {
	peer, _ := ipval.ParseAddress("192.0.2.1")
	prefix, _ := ipval.ParsePrefix("198.51.100.0/24")
	e := bgpelem.Element{Kind: bgpelem.Announcement, Timestamp: 1, PeerAddr: peer, PeerASN: 64500, Prefix: prefix}

	a := ElementID(e)
	b := ElementID(e)
	if !bytes.Equal(a, b) {
		t.Fatal("expected identical elements to hash identically")
	}
	if len(a) != 32 {
		t.Fatalf("expected 32-byte digest, got %d", len(a))
	}
}

func TestElementIDDiffersByPrefix(t *testing.T) {
	peer, _ := ipval.ParseAddress("192.0.2.1")
	p1, _ := ipval.ParsePrefix("198.51.100.0/24")
	p2, _ := ipval.ParsePrefix("203.0.113.0/24")

	e1 := bgpelem.Element{Kind: bgpelem.Announcement, PeerAddr: peer, Prefix: p1}
	e2 := bgpelem.Element{Kind: bgpelem.Announcement, PeerAddr: peer, Prefix: p2}

	if bytes.Equal(ElementID(e1), ElementID(e2)) {
		t.Fatal("expected different prefixes to hash differently")
	}
}
