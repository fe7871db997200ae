package core

import "sync"

// Broadcaster delivers events to one connection, a room group, or everyone.
// Delivery is fire-and-forget: implementations must never block on a slow
// recipient.
type Broadcaster interface {
	ToCaller(clientID string, ev *Event)
	ToGroup(room string, ev *Event)
	ToAll(ev *Event)
	AddToGroup(room, clientID string)
}

// connections is the hub's set of live sessions and their room groups.
type connections struct {
	mu      sync.RWMutex
	clients map[string]*Client
	groups  map[string]map[string]struct{}

	// onSlow is invoked once for a recipient whose buffer overflowed.
	onSlow func(*Client)
}

func newConnections(onSlow func(*Client)) *connections {
	return &connections{
		clients: make(map[string]*Client),
		groups:  make(map[string]map[string]struct{}),
		onSlow:  onSlow,
	}
}

func (c *connections) add(cl *Client) {
	c.mu.Lock()
	c.clients[cl.ID] = cl
	c.mu.Unlock()
}

// remove drops cl from the set and from every group. It reports whether cl
// was present.
func (c *connections) remove(cl *Client) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.clients[cl.ID]; !ok {
		return false
	}
	delete(c.clients, cl.ID)
	for room, members := range c.groups {
		delete(members, cl.ID)
		if len(members) == 0 {
			delete(c.groups, room)
		}
	}
	return true
}

func (c *connections) count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.clients)
}

func (c *connections) snapshot() []*Client {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Client, 0, len(c.clients))
	for _, cl := range c.clients {
		out = append(out, cl)
	}
	return out
}

// inGroup reports whether clientID belongs to the room group.
func (c *connections) inGroup(room, clientID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.groups[room][clientID]
	return ok
}

// AddToGroup puts a live connection into the room group. Unknown IDs are ignored.
func (c *connections) AddToGroup(room, clientID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.clients[clientID]; !ok {
		return
	}
	members, ok := c.groups[room]
	if !ok {
		members = make(map[string]struct{})
		c.groups[room] = members
	}
	members[clientID] = struct{}{}
}

func (c *connections) ToCaller(clientID string, ev *Event) {
	c.mu.RLock()
	cl, ok := c.clients[clientID]
	c.mu.RUnlock()
	if ok {
		c.deliver(cl, ev)
	}
}

func (c *connections) ToGroup(room string, ev *Event) {
	c.mu.RLock()
	targets := make([]*Client, 0, len(c.groups[room]))
	for id := range c.groups[room] {
		if cl, ok := c.clients[id]; ok {
			targets = append(targets, cl)
		}
	}
	c.mu.RUnlock()

	for _, cl := range targets {
		c.deliver(cl, ev)
	}
}

func (c *connections) ToAll(ev *Event) {
	for _, cl := range c.snapshot() {
		c.deliver(cl, ev)
	}
}

func (c *connections) deliver(cl *Client, ev *Event) {
	if cl.send(ev) || cl.Terminated() {
		return
	}
	// Overflow: the client is terminated rather than left with a gap.
	cl.Terminate()
	if c.onSlow != nil {
		c.onSlow(cl)
	}
}
