package aspath

import "testing"

func wireSeq(asns ...uint32) []byte {
	out := []byte{wireSequence, byte(len(asns))}
	for _, a := range asns {
		out = append(out, byte(a>>24), byte(a>>16), byte(a>>8), byte(a))
	}
	return out
}

func TestBuildFromWireSequenceExpansion(t *testing.T) {
	data := wireSeq(64500, 64501, 64502)
	p, err := BuildFromWire(data, 32)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.SegmentCount() != 3 {
		t.Fatalf("expected 3 expanded segments, got %d", p.SegmentCount())
	}
	if got, want := p.String(), "64500 64501 64502"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
	if got, want := p.FilterableString(), "64500_64501_64502"; got != want {
		t.Fatalf("FilterableString() = %q, want %q", got, want)
	}
	asn, ok := p.OriginASN()
	if !ok || asn != 64502 {
		t.Fatalf("OriginASN() = (%d, %v), want (64502, true)", asn, ok)
	}
}

func TestBuildFromWireSetFormatting(t *testing.T) {
	data := []byte{wireSet, 2, 0, 0, 0xFB, 0xF4, 0, 0, 0xFB, 0xF5} // {64500,64501}
	p, err := BuildFromWire(data, 32)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := p.String(), "{64500,64501}"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
	if _, ok := p.OriginASN(); ok {
		t.Fatalf("OriginASN() should fail on a set origin")
	}
}

func TestConsecutiveSameKindSetsRejected(t *testing.T) {
	var data []byte
	data = append(data, wireSet, 1, 0, 0, 0, 1)
	data = append(data, wireSet, 1, 0, 0, 0, 2)
	if _, err := BuildFromWire(data, 32); err == nil {
		t.Fatalf("expected error for two consecutive AS_SET segments")
	}
}

func TestEmptyPathHashesToZero(t *testing.T) {
	p := Empty()
	if p.Hash() != 0 {
		t.Fatalf("empty path hash = %d, want 0", p.Hash())
	}
	if !p.IsEmpty() {
		t.Fatalf("expected empty path")
	}
}

func TestHashStability(t *testing.T) {
	data := wireSeq(1, 2, 3)
	p1, _ := BuildFromWire(data, 32)
	p2, _ := BuildFromWire(data, 32)
	if p1.Hash() != p2.Hash() {
		t.Fatalf("identical paths hashed differently")
	}
	if !p1.Equal(p2) {
		t.Fatalf("identical paths should compare equal")
	}
}

func TestMergeTransition(t *testing.T) {
	// AS_PATH (ASN16): 1 2 3 23456 23456 -- widened to uint32 already.
	as16, err := BuildFromWire(wireSeq(1, 2, 3, AS_TRANS, AS_TRANS), 32)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	newPath, err := BuildFromWire(wireSeq(70000, 80000), 32)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	merged, err := MergeTransition(as16, newPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := merged.String(), "1 2 3 70000 80000"; got != want {
		t.Fatalf("merged path = %q, want %q", got, want)
	}
	if got, want := merged.SegmentCount(), max(as16.SegmentCount(), newPath.SegmentCount()); got != want {
		t.Fatalf("merged length = %d, want %d", got, want)
	}
	originAsn, ok := merged.OriginASN()
	if !ok || originAsn != 80000 {
		t.Fatalf("merged origin = (%d,%v), want (80000,true)", originAsn, ok)
	}
}

func TestMergeTransitionShorterASPathNoop(t *testing.T) {
	as16, _ := BuildFromWire(wireSeq(1), 32)
	newPath, _ := BuildFromWire(wireSeq(70000, 80000, 90000), 32)
	merged, err := MergeTransition(as16, newPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !merged.Equal(newPath) {
		t.Fatalf("expected NEW_AS_PATH to be used unchanged")
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
