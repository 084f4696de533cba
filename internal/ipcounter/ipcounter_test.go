package ipcounter

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

func TestAddAndTotalCountV4(t *testing.T) {
	c := New()
	if err := c.Add(mustPrefix(t, "10.0.0.0/24")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := c.TotalCount(ipval.V4), uint64(256); got != want {
		t.Fatalf("TotalCount = %d, want %d", got, want)
	}
}

// TestMonotonicity is Testable Property 6: adding more prefixes never
// decreases total_count for a family.
func TestMonotonicity(t *testing.T) {
	c := New()
	prev := uint64(0)
	for _, s := range []string{"10.0.0.0/24", "10.0.1.0/24", "10.0.0.128/25", "192.168.0.0/16"} {
		if err := c.Add(mustPrefix(t, s)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		cur := c.TotalCount(ipval.V4)
		if cur < prev {
			t.Fatalf("TotalCount decreased: %d -> %d after adding %s", prev, cur, s)
		}
		prev = cur
	}
}

func TestOverlappingAddsMerge(t *testing.T) {
	c := New()
	if err := c.Add(mustPrefix(t, "10.0.0.0/24")); err != nil {
		t.Fatal(err)
	}
	if err := c.Add(mustPrefix(t, "10.0.1.0/24")); err != nil {
		t.Fatal(err)
	}
	// 10.0.0.0/23 fully covers both adjacent /24s: no net growth in
	// distinct address count when added a third time.
	if err := c.Add(mustPrefix(t, "10.0.0.0/23")); err != nil {
		t.Fatal(err)
	}
	if got, want := c.TotalCount(ipval.V4), uint64(512); got != want {
		t.Fatalf("TotalCount after merge = %d, want %d", got, want)
	}
}

func TestOverlapMoreSpecific(t *testing.T) {
	c := New()
	if err := c.Add(mustPrefix(t, "10.0.0.0/8")); err != nil {
		t.Fatal(err)
	}
	count, more := c.Overlap(mustPrefix(t, "10.1.0.0/16"))
	if !more {
		t.Fatalf("expected 10.1.0.0/16 to be fully contained in 10.0.0.0/8")
	}
	if want := uint64(1) << 16; count != want {
		t.Fatalf("Overlap count = %d, want %d", count, want)
	}
}

func TestOverlapPartial(t *testing.T) {
	c := New()
	if err := c.Add(mustPrefix(t, "10.0.0.0/24")); err != nil {
		t.Fatal(err)
	}
	count, more := c.Overlap(mustPrefix(t, "10.0.0.0/16"))
	if more {
		t.Fatalf("a /16 query over a /24 coverage should not be more-specific")
	}
	if want := uint64(256); count != want {
		t.Fatalf("Overlap count = %d, want %d", count, want)
	}
}

func TestV6BasicAddAndOverlap(t *testing.T) {
	c := New()
	if err := c.Add(mustPrefix(t, "2001:db8::/32")); err != nil {
		t.Fatal(err)
	}
	count, more := c.Overlap(mustPrefix(t, "2001:db8::/48"))
	if !more {
		t.Fatalf("expected 2001:db8::/48 to be fully contained in 2001:db8::/32")
	}
	if count == 0 {
		t.Fatalf("expected nonzero overlap count")
	}
}

func TestClear(t *testing.T) {
	c := New()
	if err := c.Add(mustPrefix(t, "10.0.0.0/24")); err != nil {
		t.Fatal(err)
	}
	c.Clear()
	if got := c.TotalCount(ipval.V4); got != 0 {
		t.Fatalf("TotalCount after Clear = %d, want 0", got)
	}
}
