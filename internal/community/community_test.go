package community

import "testing"

func attrBytes(vals ...Community) []byte {
	var out []byte
	for _, v := range vals {
		out = append(out, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	}
	return out
}

func TestFromAttributeAndExists(t *testing.T) {
	s, err := FromAttribute(attrBytes(New(64500, 100), New(64500, 200)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	if !s.Exists(New(64500, 100)) {
		t.Fatalf("expected community to exist")
	}
	if s.Exists(New(64500, 999)) {
		t.Fatalf("unexpected community match")
	}
}

func TestWildcardMatch(t *testing.T) {
	s, _ := FromAttribute(attrBytes(New(64500, 100)))
	q, err := ParseQuery("64500:*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.Match(q) {
		t.Fatalf("expected wildcard match on ASN")
	}
	q2, _ := ParseQuery("*:999")
	if s.Match(q2) {
		t.Fatalf("unexpected wildcard match")
	}
}

func TestOrFoldPrefilter(t *testing.T) {
	s, _ := FromAttribute(attrBytes(New(1, 2)))
	// A community whose bits are not a subset of the or-fold can never be a member.
	q, _ := ParseQuery("65535:65535")
	if s.Match(q) {
		t.Fatalf("prefilter should have rejected a community outside or_mask")
	}
}

func TestEqualRequiresOrder(t *testing.T) {
	a, _ := FromAttribute(attrBytes(New(1, 1), New(2, 2)))
	b, _ := FromAttribute(attrBytes(New(2, 2), New(1, 1)))
	if a.Equal(b) {
		t.Fatalf("sets with different order should not be equal")
	}
}
