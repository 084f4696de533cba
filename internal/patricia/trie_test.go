package patricia

import (
	"testing"

	"github.com/bgpstream-go/mrt/internal/ipval"
)

func mustPrefix(t *testing.T, s string) ipval.Prefix {
	t.Helper()
	p, err := ipval.ParsePrefix(s)
	if err != nil {
		t.Fatalf("ParsePrefix(%q): %v", s, err)
	}
	return p
}

// TestOverlapScenario implements the spec's S6 scenario: 10.0.0.0/8,
// 10.1.0.0/16, 10.1.1.0/24, and 11.0.0.0/8 inserted into the same v4 trie.
func TestOverlapScenario(t *testing.T) {
	tr := New(nil)

	p8 := mustPrefix(t, "10.0.0.0/8")
	p16 := mustPrefix(t, "10.1.0.0/16")
	p24 := mustPrefix(t, "10.1.1.0/24")
	other8 := mustPrefix(t, "11.0.0.0/8")

	n8 := tr.Insert(p8)
	n16 := tr.Insert(p16)
	n24 := tr.Insert(p24)
	tr.Insert(other8)

	if tr.Count(ipval.V4) != 4 {
		t.Fatalf("Count = %d, want 4", tr.Count(ipval.V4))
	}

	if got, ok := tr.SearchExact(p16); !ok || !got.Prefix(tr).Equal(p16) {
		t.Fatalf("SearchExact(10.1.0.0/16) failed: ok=%v", ok)
	}

	info8 := tr.OverlapInfoForNode(n8)
	if !info8.Exact || info8.LessSpecific || !info8.MoreSpecific {
		t.Fatalf("overlap(10.0.0.0/8) = %+v, want {true false true}", info8)
	}

	info16 := tr.OverlapInfoForNode(n16)
	if !info16.Exact || !info16.LessSpecific || !info16.MoreSpecific {
		t.Fatalf("overlap(10.1.0.0/16) = %+v, want {true true true}", info16)
	}

	info24 := tr.OverlapInfoForNode(n24)
	if !info24.Exact || !info24.LessSpecific || info24.MoreSpecific {
		t.Fatalf("overlap(10.1.1.0/24) = %+v, want {true true false}", info24)
	}

	absent := mustPrefix(t, "10.1.2.0/24")
	infoAbsent := tr.OverlapInfoForPrefix(absent)
	if infoAbsent.Exact || !infoAbsent.LessSpecific || infoAbsent.MoreSpecific {
		t.Fatalf("overlap(10.1.2.0/24, absent) = %+v, want {false true false}", infoAbsent)
	}
	// The transient insert/remove used to compute it must leave no trace.
	if tr.Count(ipval.V4) != 4 {
		t.Fatalf("Count after OverlapInfoForPrefix on absent prefix = %d, want 4", tr.Count(ipval.V4))
	}
	if _, ok := tr.SearchExact(absent); ok {
		t.Fatalf("SearchExact(10.1.2.0/24) should fail after transient probe")
	}

	more := tr.MoreSpecifics(n8, nil)
	if len(more) != 2 {
		t.Fatalf("MoreSpecifics(10.0.0.0/8) = %d nodes, want 2", len(more))
	}

	less := tr.LessSpecifics(n24, nil)
	if len(less) != 2 {
		t.Fatalf("LessSpecifics(10.1.1.0/24) = %d nodes, want 2", len(less))
	}

	min := tr.MinimumCoverage(n8, nil)
	if len(min) != 1 || !min[0].Prefix(tr).Equal(p16) {
		t.Fatalf("MinimumCoverage(10.0.0.0/8) = %v, want just 10.1.0.0/16", min)
	}
}

func TestSearchExactMissOnNonPresentMaskLen(t *testing.T) {
	tr := New(nil)
	tr.Insert(mustPrefix(t, "10.0.0.0/8"))
	if _, ok := tr.SearchExact(mustPrefix(t, "10.0.0.0/16")); ok {
		t.Fatalf("SearchExact(10.0.0.0/16) should miss: only /8 was inserted")
	}
}

// TestRemoveSplicesOutChainNode verifies Testable Property 4: removing a
// node with one child from a chain of nested prefixes leaves the trie
// internally consistent (SearchExact still finds every remaining value node).
func TestRemoveSplicesOutChainNode(t *testing.T) {
	tr := New(nil)
	a := mustPrefix(t, "10.0.0.0/8")
	b := mustPrefix(t, "10.1.0.0/16")
	c := mustPrefix(t, "10.1.1.0/24")

	tr.Insert(a)
	nb := tr.Insert(b)
	tr.Insert(c)

	tr.Remove(nb)
	if tr.Count(ipval.V4) != 2 {
		t.Fatalf("Count after remove = %d, want 2", tr.Count(ipval.V4))
	}
	if _, ok := tr.SearchExact(b); ok {
		t.Fatalf("removed prefix 10.1.0.0/16 still found")
	}
	if _, ok := tr.SearchExact(a); !ok {
		t.Fatalf("10.0.0.0/8 lost after removing 10.1.0.0/16")
	}
	if _, ok := tr.SearchExact(c); !ok {
		t.Fatalf("10.1.1.0/24 lost after removing 10.1.0.0/16")
	}
}

// TestCountSubnets exercises the recursive /s subnet-counting formula.
func TestCountSubnets(t *testing.T) {
	tr := New(nil)
	tr.Insert(mustPrefix(t, "10.0.0.0/8"))

	got := tr.CountSubnets(ipval.V4, 10)
	want := uint64(1) << 2 // /8 covers 4 distinct /10s
	if got != want {
		t.Fatalf("CountSubnets(10) = %d, want %d", got, want)
	}
}

// TestWalkInOrderSkipsGlue verifies Testable Property 5: Walk visits every
// value node exactly once and never surfaces a glue node.
func TestWalkInOrderSkipsGlue(t *testing.T) {
	tr := New(nil)
	prefixes := []string{"10.0.0.0/8", "10.1.0.0/16", "10.1.1.0/24", "11.0.0.0/8"}
	for _, s := range prefixes {
		tr.Insert(mustPrefix(t, s))
	}

	seen := 0
	tr.Walk(ipval.V4, func(n Node) bool {
		seen++
		return true
	})
	if seen != len(prefixes) {
		t.Fatalf("Walk visited %d nodes, want %d", seen, len(prefixes))
	}
}

func TestMerge(t *testing.T) {
	src := New(nil)
	src.Insert(mustPrefix(t, "10.0.0.0/8"))
	src.Insert(mustPrefix(t, "11.0.0.0/8"))

	dst := New(nil)
	dst.Insert(mustPrefix(t, "10.0.0.0/8"))

	Merge(dst, src)
	if dst.Count(ipval.V4) != 2 {
		t.Fatalf("Count after Merge = %d, want 2", dst.Count(ipval.V4))
	}
}
