package aspath

import "fmt"

// AS_TRANS is the reserved ASN signalling an ASN16 speaker relaying an
// ASN32 path via AGGREGATOR/NEW_AGGREGATOR.
const AS_TRANS uint32 = 23456

// Builder incrementally constructs a Path's packed byte encoding.
type Builder struct {
	buf       []byte
	lastKind  SegmentKind
	haveLast  bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder { return &Builder{} }

// AppendAsn appends a single KindAsn segment. AS_SEQUENCE wire segments are
// expanded into one AppendAsn call per ASN by BuildFromWire.
func (b *Builder) AppendAsn(asn uint32) {
	b.buf = append(b.buf, encodeSegment(KindAsn, []uint32{asn})...)
	b.haveLast = false // KindAsn never participates in the consecutive-kind check
}

// AppendSet appends a Set/ConfedSet/ConfedSeq segment carrying all asns.
// Returns an error if this segment is the same non-sequence kind as the
// immediately preceding segment (malformed input per spec invariant).
func (b *Builder) AppendSet(kind SegmentKind, asns []uint32) error {
	if len(asns) > 255 {
		return fmt.Errorf("aspath: segment carries %d ASNs, maximum 255", len(asns))
	}
	if b.haveLast && b.lastKind == kind {
		return fmt.Errorf("aspath: two consecutive %v segments are malformed", kind)
	}
	b.buf = append(b.buf, encodeSegment(kind, asns)...)
	b.lastKind = kind
	b.haveLast = true
	return nil
}

// Build finalizes the path, computing segment_count and origin_offset.
func (b *Builder) Build() (*Path, error) {
	p := &Path{buf: b.buf}
	if err := p.rebuild(); err != nil {
		return nil, err
	}
	return p, nil
}

// wireSegmentKind maps a wire AS_PATH segment type byte to a SegmentKind,
// rejecting anything outside {Set, Sequence, ConfedSet, ConfedSeq}.
func wireSegmentKind(wireType uint8) (SegmentKind, bool) {
	switch wireType {
	case wireSet:
		return KindSet, true
	case wireSequence:
		return KindAsn, true // expanded one record per ASN by the caller
	case wireConfedSeq:
		return KindConfedSeq, true
	case wireConfedSet:
		return KindConfedSet, true
	default:
		return 0, false
	}
}

// BuildFromWire decodes a wire AS_PATH (or NEW_AS_PATH) attribute body.
// asnWidth is 16 or 32, as declared by the enclosing MRT/BGP subtype.
// AS_SEQUENCE segments are expanded to one Asn record per ASN; the three
// set kinds each become a single record carrying every member ASN. Two
// back-to-back non-sequence segments of identical kind are rejected as
// malformed.
func BuildFromWire(data []byte, asnWidth int) (*Path, error) {
	if asnWidth != 16 && asnWidth != 32 {
		return nil, fmt.Errorf("aspath: invalid asn width %d", asnWidth)
	}
	b := NewBuilder()
	offset := 0
	asnBytes := asnWidth / 8

	for offset < len(data) {
		if offset+2 > len(data) {
			return nil, fmt.Errorf("aspath: segment header truncated at offset %d", offset)
		}
		wireType := data[offset]
		segLen := int(data[offset+1])
		header := 2
		need := header + segLen*asnBytes
		if offset+need > len(data) {
			return nil, fmt.Errorf("aspath: segment at offset %d overflows buffer (need %d, have %d)", offset, need, len(data)-offset)
		}

		kind, ok := wireSegmentKind(wireType)
		if !ok {
			return nil, fmt.Errorf("aspath: invalid segment type %d at offset %d", wireType, offset)
		}

		asns := make([]uint32, segLen)
		p := offset + header
		for i := 0; i < segLen; i++ {
			if asnBytes == 2 {
				asns[i] = uint32(data[p])<<8 | uint32(data[p+1])
			} else {
				asns[i] = uint32(data[p])<<24 | uint32(data[p+1])<<16 | uint32(data[p+2])<<8 | uint32(data[p+3])
			}
			p += asnBytes
		}

		if wireType == wireSequence {
			for _, a := range asns {
				b.AppendAsn(a)
			}
		} else {
			if err := b.AppendSet(kind, asns); err != nil {
				return nil, err
			}
		}

		offset += need
	}

	return b.Build()
}

// Prepend returns a new path with lead's segments placed before p's
// segments. Used by the ASN32 transition merge.
func (p *Path) Prepend(lead []Segment) (*Path, error) {
	b := NewBuilder()
	for _, s := range lead {
		if s.Kind == KindAsn {
			b.AppendAsn(s.Asns[0])
			continue
		}
		if err := b.AppendSet(s.Kind, s.Asns); err != nil {
			return nil, err
		}
	}
	b.buf = append(b.buf, p.buf...)
	return b.Build()
}

// MergeTransition implements the ASN16 + NEW_AS_PATH transition merge
// (spec.md §4.3). as16 is the ordinary AS_PATH attribute (ASNs already
// widened to uint32 internally); newPath is NEW_AS_PATH (always 32-bit on
// the wire). If newPath contains any ConfedSet/ConfedSeq segment, the merge
// is rejected. If len(as16) < len(newPath), newPath itself is returned
// unchanged (spec: "do nothing"). Otherwise the leading
// len(as16)-len(newPath) segments of as16 are prepended to newPath.
func MergeTransition(as16, newPath *Path) (*Path, error) {
	for _, s := range newPath.Segments() {
		if s.Kind == KindConfedSet || s.Kind == KindConfedSeq {
			return nil, fmt.Errorf("aspath: NEW_AS_PATH must not contain confederation segments")
		}
	}

	if as16.SegmentCount() < newPath.SegmentCount() {
		return newPath, nil
	}

	lead := as16.Segments()[:as16.SegmentCount()-newPath.SegmentCount()]
	return newPath.Prepend(lead)
}
