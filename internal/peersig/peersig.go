// Package peersig implements the bidirectional peer-signature map: a
// (collector, peer-IP, peer-ASN) triple on one side, a compact peer ID on
// the other, with equality and hashing that deliberately ignore the ASN so
// that a peer's ASN renumbering never changes its ID.
package peersig

import (
	"fmt"

	"github.com/bgpstream-go/mrt/internal/ipval"
)

// V6Base is the first ID handed to a v6 peer; v4 peers are drawn from
// [1, V6Base) until that range is exhausted, then fall through to the v6
// range too.
const V6Base uint64 = 1 << 32

// Signature identifies a peer by (collector, peer-IP); PeerASN is carried
// for informational purposes only and never participates in equality or
// hashing.
type Signature struct {
	Collector string
	PeerIP    ipval.Address
	PeerASN   uint32
}

// key is the ASN-insensitive hash/equality projection of a Signature.
type key struct {
	collector string
	version   ipval.Version
	addr      [16]byte
}

func (s Signature) key() key {
	var a [16]byte
	copy(a[:], s.PeerIP.RawBytes())
	return key{collector: s.Collector, version: s.PeerIP.Version(), addr: a}
}

// Map is the bidirectional collector/peer-IP <-> peer-ID table.
type Map struct {
	byKey  map[key]uint64
	bySig  map[uint64]Signature
	nextV4 uint64
	nextV6 uint64
}

// New returns an empty Map.
func New() *Map {
	return &Map{
		byKey:  make(map[key]uint64),
		bySig:  make(map[uint64]Signature),
		nextV4: 1,
		nextV6: V6Base,
	}
}

// GetOrInsert looks up the peer ID for (collector, peerIP), ignoring ASN
// for equality; on a miss it allocates the next ID from the
// address-family-appropriate range (falling through to the v6 range if the
// v4 range is exhausted) and installs the signature in both tables.
func (m *Map) GetOrInsert(collector string, peerIP ipval.Address, peerASN uint32) (uint64, error) {
	if len(collector) > 128 {
		return 0, fmt.Errorf("peersig: collector name %q exceeds 128 bytes", collector)
	}
	sig := Signature{Collector: collector, PeerIP: peerIP, PeerASN: peerASN}
	k := sig.key()
	if id, ok := m.byKey[k]; ok {
		return id, nil
	}

	var id uint64
	if peerIP.Version() == ipval.V4 && m.nextV4 < V6Base {
		id = m.nextV4
		m.nextV4++
	} else {
		id = m.nextV6
		m.nextV6++
	}

	m.byKey[k] = id
	m.bySig[id] = sig
	return id, nil
}

// LookupByID returns the signature for a given peer ID, if present.
func (m *Map) LookupByID(id uint64) (Signature, bool) {
	sig, ok := m.bySig[id]
	return sig, ok
}

// Len returns the number of distinct signatures stored.
func (m *Map) Len() int { return len(m.bySig) }

// Clear releases every signature exactly once.
func (m *Map) Clear() {
	m.byKey = make(map[key]uint64)
	m.bySig = make(map[uint64]Signature)
	m.nextV4 = 1
	m.nextV6 = V6Base
}
