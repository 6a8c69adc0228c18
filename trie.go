// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmq4

// Trie is a prefix trie over subscription topics, refcounted so that a
// topic subscribed several times is only removed once every one of those
// subscriptions is withdrawn. PUB and XPUB keep one Trie per pipe: PUB to
// decide which pipes to fan a publish out to, XPUB also to decide which
// subscriptions are new or fully withdrawn and therefore worth
// forwarding upstream.
type Trie struct {
	root *trieNode
}

type trieNode struct {
	children map[byte]*trieNode
	refcount int
}

// NewTrie returns an empty subscription trie.
func NewTrie() *Trie {
	return &Trie{root: &trieNode{}}
}

// Add registers prefix as a subscription, returning true iff this was
// the first subscription for that exact prefix (refcount 0 -> 1) — the
// signal XPUB uses to decide whether to propagate a SUBSCRIBE
// upstream.
func (t *Trie) Add(prefix []byte) bool {
	n := t.root
	for _, b := range prefix {
		if n.children == nil {
			n.children = make(map[byte]*trieNode)
		}
		child, ok := n.children[b]
		if !ok {
			child = &trieNode{}
			n.children[b] = child
		}
		n = child
	}
	n.refcount++
	return n.refcount == 1
}

// Remove withdraws one subscription to prefix, returning true iff that
// was the last one (refcount 1 -> 0). Removing an unknown prefix is a
// no-op that returns false.
func (t *Trie) Remove(prefix []byte) bool {
	return removeHelper(t.root, prefix)
}

func removeHelper(n *trieNode, prefix []byte) bool {
	if len(prefix) == 0 {
		if n.refcount == 0 {
			return false
		}
		n.refcount--
		return n.refcount == 0
	}

	child, ok := n.children[prefix[0]]
	if !ok {
		return false
	}
	last := removeHelper(child, prefix[1:])
	if child.refcount == 0 && len(child.children) == 0 {
		delete(n.children, prefix[0])
	}
	return last
}

// Match reports whether data is covered by any registered subscription,
// i.e. whether some subscribed prefix (including the empty "subscribe
// all" prefix) is a prefix of data.
func (t *Trie) Match(data []byte) bool {
	n := t.root
	if n.refcount > 0 {
		return true
	}
	for _, b := range data {
		child, ok := n.children[b]
		if !ok {
			return false
		}
		if child.refcount > 0 {
			return true
		}
		n = child
	}
	return false
}

// Empty reports whether the trie holds no subscriptions at all.
func (t *Trie) Empty() bool {
	return t.root.refcount == 0 && len(t.root.children) == 0
}
