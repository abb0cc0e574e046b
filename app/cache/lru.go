package cache

// LRUList tracks image-key recency for the in-memory cache: most recently
// touched at the front, eviction candidates at the back.
type LRUList struct {
	head  *LRUNode
	tail  *LRUNode
	nodes map[string]*LRUNode
	size  int
}

// LRUNode is one image key in the recency list
type LRUNode struct {
	key        string
	prev, next *LRUNode
}

// NewLRUList creates an empty recency list
func NewLRUList() *LRUList {
	head := &LRUNode{}
	tail := &LRUNode{}
	head.next = tail
	tail.prev = head

	return &LRUList{
		head:  head,
		tail:  tail,
		nodes: make(map[string]*LRUNode),
	}
}

// AddToFront records a key as most recently used, inserting it if new
func (l *LRUList) AddToFront(key string) {
	if node, exists := l.nodes[key]; exists {
		l.moveToFront(node)
		return
	}

	node := &LRUNode{key: key}
	l.nodes[key] = node

	node.next = l.head.next
	node.prev = l.head
	l.head.next.prev = node
	l.head.next = node

	l.size++
}

// MoveToFront refreshes an existing key's recency; unknown keys are ignored
func (l *LRUList) MoveToFront(key string) {
	if node, exists := l.nodes[key]; exists {
		l.moveToFront(node)
	}
}

// Remove drops a key from the recency list
func (l *LRUList) Remove(key string) {
	if node, exists := l.nodes[key]; exists {
		l.removeNode(node)
		delete(l.nodes, key)
		l.size--
	}
}

// RemoveOldest pops the least recently used key, the next eviction victim.
// Returns "" when the list is empty.
func (l *LRUList) RemoveOldest() string {
	if l.size == 0 {
		return ""
	}

	oldest := l.tail.prev
	key := oldest.key
	l.removeNode(oldest)
	delete(l.nodes, key)
	l.size--

	return key
}

// Size returns how many keys are tracked
func (l *LRUList) Size() int {
	return l.size
}

func (l *LRUList) moveToFront(node *LRUNode) {
	l.removeNode(node)

	node.next = l.head.next
	node.prev = l.head
	l.head.next.prev = node
	l.head.next = node
}

func (l *LRUList) removeNode(node *LRUNode) {
	node.prev.next = node.next
	node.next.prev = node.prev
}
