// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package cache

// lruNode is a node in a doubly-linked LRU list. The node stores its key
// and weight for O(1) eviction from the parent map.
type lruNode[K comparable] struct {
	key    K
	weight int64
	prev   *lruNode[K]
	next   *lruNode[K]
}

// lruList is a doubly-linked list ordered by recency. The head is the most
// recently used. The list is not thread-safe.
type lruList[K comparable] struct {
	head   *lruNode[K]
	tail   *lruNode[K]
	len    int
	weight int64
}

// pushFront inserts a new node at the front.
func (l *lruList[K]) pushFront(key K, weight int64) *lruNode[K] {
	node := &lruNode[K]{key: key, weight: weight}
	l.linkFront(node)
	l.len++
	l.weight += weight
	return node
}

// moveToFront marks node as most recently used.
func (l *lruList[K]) moveToFront(node *lruNode[K]) {
	if node == l.head {
		return
	}
	l.unlink(node)
	l.linkFront(node)
}

// reweigh updates the weight of node.
func (l *lruList[K]) reweigh(node *lruNode[K], weight int64) {
	l.weight += weight - node.weight
	node.weight = weight
}

// remove deletes node from the list.
func (l *lruList[K]) remove(node *lruNode[K]) {
	l.unlink(node)
	l.len--
	l.weight -= node.weight
}

// oldest returns the least recently used node, or nil.
func (l *lruList[K]) oldest() *lruNode[K] { return l.tail }

func (l *lruList[K]) linkFront(node *lruNode[K]) {
	node.prev = nil
	node.next = l.head
	if l.head != nil {
		l.head.prev = node
	}
	l.head = node
	if l.tail == nil {
		l.tail = node
	}
}

func (l *lruList[K]) unlink(node *lruNode[K]) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		l.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		l.tail = node.prev
	}
	node.prev = nil
	node.next = nil
}
