package bgpelem

import (
	"github.com/bgpstream-go/mrt/internal/aspath"
	"github.com/bgpstream-go/mrt/internal/ipval"
	"github.com/bgpstream-go/mrt/internal/mrt"
)

// Generator expands decoded mrt.Records into Elements. It is populated once
// per record then iterated; the backing elements slice is reused across
// calls (clear-before-populate) rather than reallocated, per spec.md
// §4.10's generator lifecycle.
//
// A Generator is not safe for concurrent use: it holds the mutable elements
// slice a single decode loop iterates.
type Generator struct {
	elems []Element
}

// New returns an empty Generator.
func New() *Generator { return &Generator{} }

// Populate expands rec into zero or more elements and returns the reused
// backing slice. peerTable resolves RIB_IPVx_UNICAST peer indices; it may
// be nil for record kinds that don't need it (TABLE_DUMP, BGP4MP). The
// returned slice is only valid until the next Populate call.
func (g *Generator) Populate(rec *mrt.Record, peerTable *mrt.PeerIndexTable) []Element {
	g.elems = g.elems[:0]

	switch {
	case rec.TableDump != nil:
		g.appendTableDump(rec)
	case rec.RIB != nil:
		g.appendRIB(rec, peerTable)
	case rec.Message != nil && rec.Message.Update != nil:
		g.appendUpdate(rec)
	case rec.StateChange != nil:
		g.appendStateChange(rec)
	}

	return g.elems
}

func decodeASPath(raw []byte, asnWidth int) *aspath.Path {
	if len(raw) == 0 {
		return nil
	}
	p, err := aspath.BuildFromWire(raw, asnWidth)
	if err != nil {
		// MalformedPath per spec.md §7: surface attributes without the
		// offending path rather than failing the whole record.
		return nil
	}
	return p
}

// resolveASPath decodes an attribute block's canonical AS path and
// aggregator, applying the ASN32 transition merge (spec.md §4.3): when the
// outer message is ASN16 and carries NEW_AS_PATH, the leading segments of
// AS_PATH not covered by NEW_AS_PATH are prepended to it, and an AGGREGATOR
// whose ASN is AS_TRANS is replaced by NEW_AGGREGATOR.
func resolveASPath(attrs *mrt.Attributes, asnWidth int) (path *aspath.Path, hasAgg bool, aggASN uint32, aggAddr ipval.Address) {
	path = decodeASPath(attrs.ASPathRaw, asnWidth)
	hasAgg, aggASN, aggAddr = attrs.HasAggregator, attrs.AggregatorASN, attrs.AggregatorAddr

	if asnWidth == 16 && attrs.HasNewASPath {
		if newPath := decodeASPath(attrs.NewASPathRaw, 32); newPath != nil && path != nil {
			if merged, err := aspath.MergeTransition(path, newPath); err == nil {
				path = merged
			}
		}
	}

	if attrs.HasNewAggregator && (!hasAgg || aggASN == aspath.AS_TRANS) {
		hasAgg = true
		aggASN = attrs.NewAggregatorASN
		aggAddr = attrs.NewAggregatorAddr
	}

	return path, hasAgg, aggASN, aggAddr
}

func (g *Generator) appendTableDump(rec *mrt.Record) {
	td := rec.TableDump
	asnWidth := mrt.ASNWidthForTableDumpSubtype(rec.Subtype)
	e := Element{
		Kind:      Rib,
		Timestamp: rec.Time,
		PeerAddr:  td.PeerIP,
		PeerASN:   td.PeerASN,
		Prefix:    td.Prefix,
	}
	if td.Attrs != nil {
		if td.Attrs.HasNextHop {
			e.HasNextHop = true
			e.NextHop = td.Attrs.NextHop
		}
		e.ASPath, e.HasAggregator, e.AggregatorASN, e.AggregatorAddr = resolveASPath(td.Attrs, asnWidth)
		e.Communities = td.Attrs.Communities
	}
	g.elems = append(g.elems, e)
}

func (g *Generator) appendRIB(rec *mrt.Record, peerTable *mrt.PeerIndexTable) {
	rib := rec.RIB
	for _, entry := range rib.Entries {
		if entry.Attrs == nil {
			continue
		}
		peer, ok := peerTable.Lookup(entry.PeerIndex)
		if !ok {
			continue
		}
		e := Element{
			Kind:      Rib,
			Timestamp: rec.Time,
			PeerAddr:  peer.PeerIP,
			PeerASN:   peer.ASN,
			Prefix:    rib.Prefix,
		}
		if entry.Attrs.HasNextHop {
			e.HasNextHop = true
			e.NextHop = entry.Attrs.NextHop
		} else if entry.Attrs.MPReach != nil {
			e.HasNextHop = true
			e.NextHop = entry.Attrs.MPReach.NextHop
		}
		e.ASPath, e.HasAggregator, e.AggregatorASN, e.AggregatorAddr = resolveASPath(entry.Attrs, 32)
		e.Communities = entry.Attrs.Communities
		g.elems = append(g.elems, e)
	}
}

func (g *Generator) appendUpdate(rec *mrt.Record) {
	msg := rec.Message
	u := msg.Update
	asnWidth := mrt.ASNWidthForBGP4MPSubtype(rec.Subtype)

	var path *aspath.Path
	var hasAgg bool
	var aggASN uint32
	var aggAddr ipval.Address
	legacyNextHop := msg.PeerIP
	hasLegacyNextHop := false
	if u.Attrs != nil {
		path, hasAgg, aggASN, aggAddr = resolveASPath(u.Attrs, asnWidth)
		if u.Attrs.HasNextHop {
			legacyNextHop = u.Attrs.NextHop
			hasLegacyNextHop = true
		}
	}

	base := Element{
		Timestamp:      rec.Time,
		PeerAddr:       msg.PeerIP,
		PeerASN:        msg.PeerASN,
		ASPath:         path,
		HasAggregator:  hasAgg,
		AggregatorASN:  aggASN,
		AggregatorAddr: aggAddr,
	}
	if u.Attrs != nil {
		base.Communities = u.Attrs.Communities
	}

	// Withdrawals: legacy list first, then MP_UNREACH_NLRI, in wire order.
	for _, prefix := range u.Withdrawn {
		e := base
		e.Kind = Withdrawal
		e.Prefix = prefix
		g.elems = append(g.elems, e)
	}
	if u.Attrs != nil && u.Attrs.MPUnreach != nil {
		for _, prefix := range u.Attrs.MPUnreach.NLRI {
			e := base
			e.Kind = Withdrawal
			e.Prefix = prefix
			g.elems = append(g.elems, e)
		}
	}

	// Announcements: legacy list first (v4 next-hop from NEXT_HOP), then
	// MP_REACH_NLRI (next-hop from the MP attribute itself).
	for _, prefix := range u.Announced {
		e := base
		e.Kind = Announcement
		e.Prefix = prefix
		if hasLegacyNextHop {
			e.HasNextHop = true
			e.NextHop = legacyNextHop
		}
		g.elems = append(g.elems, e)
	}
	if u.Attrs != nil && u.Attrs.MPReach != nil {
		mp := u.Attrs.MPReach
		for _, prefix := range mp.NLRI {
			e := base
			e.Kind = Announcement
			e.Prefix = prefix
			e.HasNextHop = true
			e.NextHop = mp.NextHop
			g.elems = append(g.elems, e)
		}
	}
}

func (g *Generator) appendStateChange(rec *mrt.Record) {
	sc := rec.StateChange
	g.elems = append(g.elems, Element{
		Kind:      PeerState,
		Timestamp: rec.Time,
		PeerAddr:  sc.PeerIP,
		PeerASN:   sc.PeerASN,
		OldState:  sc.OldState,
		NewState:  sc.NewState,
	})
}
