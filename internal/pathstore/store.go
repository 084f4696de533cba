// Package pathstore implements the global deduplicating AS-path store
// (spec.md §4.6): paths are canonicalised by stripping a leading peer
// segment ("core path") when possible, hashed, and deduplicated within a
// hash bucket; callers get back a stable composite ID.
package pathstore

import (
	"math"
	"sort"

	"github.com/bgpstream-go/mrt/internal/aspath"
)

// ID is the composite (hash, bucket-index) identity of a stored path.
type ID struct {
	Hash  uint32
	Index uint16
}

// NullID denotes the absence of a path.
var NullID = ID{Hash: math.MaxUint32, Index: math.MaxUint16}

// IsNull reports whether id is the null path ID.
func (id ID) IsNull() bool { return id == NullID }

type storedPath struct {
	isCore bool
	index  uint16
	path   *aspath.Path
}

// Store is a hash->bucket map of deduplicated core paths. The zero value is
// not ready to use; call New.
type Store struct {
	buckets map[uint32][]storedPath
	size    int
}

// New returns an empty Store.
func New() *Store {
	return &Store{buckets: make(map[uint32][]storedPath)}
}

// Size returns the total number of distinct paths held by the store.
func (s *Store) Size() int { return s.size }

// corePath computes the (possibly peer-segment-stripped) canonical path and
// whether it is a core path, per spec.md §4.6: if path has >= 2 segments
// and its first segment is a simple Asn equal to peerASN, the first segment
// is stripped and is_core=true; otherwise the path is used unchanged.
func corePath(path *aspath.Path, peerASN uint32) (core *aspath.Path, isCore bool, err error) {
	if path.SegmentCount() < 2 {
		return path, false, nil
	}
	first, ok := path.FirstSegment()
	if !ok || first.Kind != aspath.KindAsn || first.Asns[0] != peerASN {
		return path, false, nil
	}
	stripped, err := stripFirstSegment(path)
	if err != nil {
		return nil, false, err
	}
	return stripped, true, nil
}

// stripFirstSegment rebuilds a path without its first (Asn) segment.
func stripFirstSegment(path *aspath.Path) (*aspath.Path, error) {
	segs := path.Segments()
	b := aspath.NewBuilder()
	for _, s := range segs[1:] {
		if s.Kind == aspath.KindAsn {
			b.AppendAsn(s.Asns[0])
			continue
		}
		if err := b.AppendSet(s.Kind, s.Asns); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

// GetOrInsert returns the stable ID for (path, peerASN), inserting a new
// store entry on first sight. A hit is found by linearly scanning the
// bucket for a byte-equal path with the same is_core flag.
func (s *Store) GetOrInsert(path *aspath.Path, peerASN uint32) (ID, error) {
	core, isCore, err := corePath(path, peerASN)
	if err != nil {
		return ID{}, err
	}
	h := core.Hash()
	bucket := s.buckets[h]

	for i, sp := range bucket {
		if sp.isCore == isCore && sp.path.Equal(core) {
			return ID{Hash: h, Index: uint16(i)}, nil
		}
	}

	owned, err := cloneOwned(core)
	if err != nil {
		return ID{}, err
	}
	idx := uint16(len(bucket))
	s.buckets[h] = append(bucket, storedPath{isCore: isCore, index: idx, path: owned})
	s.size++
	return ID{Hash: h, Index: idx}, nil
}

// cloneOwned copies a path's bytes into a freshly owned Path, so the store
// never aliases a caller's (possibly borrowed, wire-buffer-backed) Path.
func cloneOwned(p *aspath.Path) (*aspath.Path, error) {
	buf := append([]byte(nil), p.Bytes()...)
	return aspath.FromPackedBytes(buf)
}

// Lookup returns the stored (core/full-stripped) path for id without
// reconstructing the peer segment.
func (s *Store) Lookup(id ID) (*aspath.Path, bool, bool) {
	bucket, ok := s.buckets[id.Hash]
	if !ok || int(id.Index) >= len(bucket) {
		return nil, false, false
	}
	sp := bucket[id.Index]
	return sp.path, sp.isCore, true
}

// Reconstruct rebuilds the full path for id given the peer's ASN: if the
// stored path is a core path, a synthesized Asn(peerASN) segment is
// prepended; otherwise the stored bytes are returned as-is.
func (s *Store) Reconstruct(id ID, peerASN uint32) (*aspath.Path, error) {
	stored, isCore, ok := s.Lookup(id)
	if !ok {
		return aspath.Empty(), nil
	}
	if !isCore {
		return stored, nil
	}
	return stored.Prepend([]aspath.Segment{{Kind: aspath.KindAsn, Asns: []uint32{peerASN}}})
}

// Cursor iterates every stored path exactly once. The order is unspecified
// but stable for the lifetime of the store (buckets in ascending hash
// order, then bucket-index order within each bucket; the set of buckets is
// fixed when NewCursor is called).
type Cursor struct {
	hashes  []uint32
	buckets map[uint32][]storedPath
	hi, bi  int
}

// NewCursor returns a Cursor over every path currently in the store.
func (s *Store) NewCursor() *Cursor {
	hashes := make([]uint32, 0, len(s.buckets))
	for h := range s.buckets {
		hashes = append(hashes, h)
	}
	sort.Slice(hashes, func(i, j int) bool { return hashes[i] < hashes[j] })
	return &Cursor{hashes: hashes, buckets: s.buckets}
}

// Next advances the cursor, returning the next (ID, path, isCore) triple
// and true, or false once exhausted.
func (c *Cursor) Next() (ID, *aspath.Path, bool, bool) {
	for c.hi < len(c.hashes) {
		h := c.hashes[c.hi]
		bucket := c.buckets[h]
		if c.bi >= len(bucket) {
			c.hi++
			c.bi = 0
			continue
		}
		sp := bucket[c.bi]
		c.bi++
		return ID{Hash: h, Index: sp.index}, sp.path, sp.isCore, true
	}
	return ID{}, nil, false, false
}
