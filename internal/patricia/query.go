package patricia

import "github.com/bgpstream-go/mrt/internal/ipval"

// OverlapInfo is the three-bit summary of a prefix's relationship to the
// rest of the trie: whether it is itself present, whether an ancestor
// (less specific) value node covers it, and whether any descendant (more
// specific) value node lies beneath it.
type OverlapInfo struct {
	Exact        bool
	LessSpecific bool
	MoreSpecific bool
}

// OverlapInfoForNode computes overlap info for a node already present in
// the trie: Exact is always true; LessSpecific is found by walking up for
// any value ancestor; MoreSpecific by scanning the subtree beneath it.
func (t *Tree) OverlapInfoForNode(n Node) OverlapInfo {
	v, h := n.v, n.h
	info := OverlapInfo{Exact: true}

	for p := t.get(v, h).parent; p != noHandle; p = t.get(v, p).parent {
		if t.get(v, p).hasValue {
			info.LessSpecific = true
			break
		}
	}

	nd := t.get(v, h)
	info.MoreSpecific = t.subtreeHasValue(v, nd.left) || t.subtreeHasValue(v, nd.right)
	return info
}

// OverlapInfoForPrefix computes overlap info for a prefix that may or may
// not already exist in the trie. When absent, it is inserted, its overlap
// info computed as for any node, then removed again — clearing the Exact
// bit the transient insert would otherwise report.
func (t *Tree) OverlapInfoForPrefix(prefix ipval.Prefix) OverlapInfo {
	if n, ok := t.SearchExact(prefix); ok {
		return t.OverlapInfoForNode(n)
	}

	n := t.Insert(prefix)
	info := t.OverlapInfoForNode(n)
	info.Exact = false
	t.Remove(n)
	return info
}

func (t *Tree) subtreeHasValue(v ipval.Version, h handle) bool {
	if h == noHandle {
		return false
	}
	n := t.get(v, h)
	if n.hasValue {
		return true
	}
	return t.subtreeHasValue(v, n.left) || t.subtreeHasValue(v, n.right)
}

// MoreSpecifics appends every value node strictly beneath n (pre-order) to
// result, which may be reused across calls (it is never itself cleared by
// this method — callers that want a fresh result set pass result[:0]).
func (t *Tree) MoreSpecifics(n Node, result []Node) []Node {
	nd := t.get(n.v, n.h)
	result = t.collectSubtree(n.v, nd.left, result)
	result = t.collectSubtree(n.v, nd.right, result)
	return result
}

// MoreSpecificsForPrefix is OverlapInfoForPrefix's insert-then-remove trick
// applied to MoreSpecifics, for prefixes that may not already be present.
func (t *Tree) MoreSpecificsForPrefix(prefix ipval.Prefix, result []Node) []Node {
	if n, ok := t.SearchExact(prefix); ok {
		return t.MoreSpecifics(n, result)
	}
	n := t.Insert(prefix)
	result = t.MoreSpecifics(n, result)
	t.Remove(n)
	return result
}

func (t *Tree) collectSubtree(v ipval.Version, h handle, result []Node) []Node {
	if h == noHandle {
		return result
	}
	n := t.get(v, h)
	if n.hasValue {
		result = append(result, Node{v: v, h: h})
	}
	result = t.collectSubtree(v, n.left, result)
	result = t.collectSubtree(v, n.right, result)
	return result
}

// LessSpecifics appends every value ancestor of n (root-ward) to result.
func (t *Tree) LessSpecifics(n Node, result []Node) []Node {
	v, h := n.v, n.h
	for p := t.get(v, h).parent; p != noHandle; p = t.get(v, p).parent {
		if t.get(v, p).hasValue {
			result = append(result, Node{v: v, h: p})
		}
	}
	return result
}

// MinimumCoverage appends the set of value nodes reachable beneath n without
// passing through another value node first: a pre-order traversal of the
// subtree that stops descending once it has emitted a value node on a path.
func (t *Tree) MinimumCoverage(n Node, result []Node) []Node {
	nd := t.get(n.v, n.h)
	result = t.minimumCoverageWalk(n.v, nd.left, result)
	result = t.minimumCoverageWalk(n.v, nd.right, result)
	return result
}

func (t *Tree) minimumCoverageWalk(v ipval.Version, h handle, result []Node) []Node {
	if h == noHandle {
		return result
	}
	n := t.get(v, h)
	if n.hasValue {
		return append(result, Node{v: v, h: h})
	}
	result = t.minimumCoverageWalk(v, n.left, result)
	result = t.minimumCoverageWalk(v, n.right, result)
	return result
}

// CountSubnets returns the number of distinct /s subnets covered by the
// trie's nodes (s <= the trie's address width): each value node at
// bitIndex < s contributes 2^(s-bitIndex) subnets, any node (glue or value)
// at bitIndex >= s contributes 1, and the recursion never descends beneath
// a counted node, so no subnet is counted twice.
func (t *Tree) CountSubnets(v ipval.Version, s int) uint64 {
	return t.countSubnetsWalk(v, t.root(v), s)
}

func (t *Tree) countSubnetsWalk(v ipval.Version, h handle, s int) uint64 {
	if h == noHandle {
		return 0
	}
	n := t.get(v, h)
	// A node whose branch bit is at or past s — whether a glue node or a
	// value node more specific than /s — covers exactly one /s subnet: every
	// descendant shares the same first s bits, so recursing further would
	// either double count or miss glue subtrees with no value node at all.
	if n.bitIndex >= s {
		return 1
	}
	if n.hasValue {
		return uint64(1) << uint(s-n.bitIndex)
	}
	return t.countSubnetsWalk(v, n.left, s) + t.countSubnetsWalk(v, n.right, s)
}

// Walk performs an in-order traversal of the given family, invoking fn on
// every value node (glue nodes are skipped). Traversal stops early if fn
// returns false.
func (t *Tree) Walk(v ipval.Version, fn func(Node) bool) {
	t.walk(v, t.root(v), fn)
}

func (t *Tree) walk(v ipval.Version, h handle, fn func(Node) bool) bool {
	if h == noHandle {
		return true
	}
	n := t.get(v, h)
	if !t.walk(v, n.left, fn) {
		return false
	}
	if n.hasValue {
		if !fn(Node{v: v, h: h}) {
			return false
		}
	}
	return t.walk(v, n.right, fn)
}

// Merge inserts every value node of src into dst (both families), under
// dst's own per-user-pointer semantics (src's user pointers are copied by
// reference, not cloned).
func Merge(dst, src *Tree) {
	for _, v := range []ipval.Version{ipval.V4, ipval.V6} {
		src.Walk(v, func(n Node) bool {
			dn := dst.Insert(n.Prefix(src))
			dn.SetUser(dst, n.User(src))
			return true
		})
	}
}
