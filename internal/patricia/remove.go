package patricia

import "github.com/bgpstream-go/mrt/internal/ipval"

func (t *Tree) destroy(user any) {
	if t.destructor != nil && user != nil {
		t.destructor.Destroy(user)
	}
}

// Remove deletes n from the trie. If n has two children, it is converted
// to a glue node (prefix cleared) rather than physically removed, per
// spec.md §4.7. If it has zero or one child, it is spliced out; if that
// leaves its former parent a glue node with only one child, the parent is
// collapsed too (glue nodes never keep fewer than two children).
func (t *Tree) Remove(n Node) {
	v, h := n.v, n.h
	nd := t.get(v, h)
	if nd == nil || !nd.hasValue {
		return
	}

	if nd.left != noHandle && nd.right != noHandle {
		t.destroy(nd.user)
		nd.user = nil
		nd.hasValue = false
		nd.prefix = ipval.Prefix{}
		t.bumpCount(v, -1)
		return
	}

	var child handle = noHandle
	if nd.left != noHandle {
		child = nd.left
	} else if nd.right != noHandle {
		child = nd.right
	}

	parentH := nd.parent
	t.destroy(nd.user)
	t.bumpCount(v, -1)

	t.relinkParent(v, h, parentH, child)
	if child != noHandle {
		t.get(v, child).parent = parentH
	}

	t.collapseIfGlueLeaf(v, parentH)
}

// collapseIfGlueLeaf collapses a glue node that, after a child was spliced
// away, has only one remaining child: the glue is removed and its
// surviving child is reattached directly to the glue's former parent.
func (t *Tree) collapseIfGlueLeaf(v ipval.Version, h handle) {
	if h == noHandle {
		return
	}
	p := t.get(v, h)
	if p.hasValue {
		return
	}
	if p.left != noHandle && p.right != noHandle {
		return // still branches two ways, not collapsible
	}

	var remaining handle = noHandle
	if p.left != noHandle {
		remaining = p.left
	} else if p.right != noHandle {
		remaining = p.right
	}

	grand := p.parent
	t.relinkParent(v, h, grand, remaining)
	if remaining != noHandle {
		t.get(v, remaining).parent = grand
	}
}

// Clear removes every node from both families, invoking the destructor for
// every value node's user pointer.
func (t *Tree) Clear() {
	for _, arenaPtr := range []*[]node{&t.nodes4, &t.nodes6} {
		for i := range *arenaPtr {
			n := &(*arenaPtr)[i]
			if n.hasValue {
				t.destroy(n.user)
			}
		}
		*arenaPtr = nil
	}
	t.root4, t.root6 = noHandle, noHandle
	t.count4, t.count6 = 0, 0
}
