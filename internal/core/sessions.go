package core

// Sessions is the set of connected clients that broadcasts fan out to.
// It is owned by the hub loop and never touched concurrently.
type Sessions struct {
	clients map[string]*Client
}

// NewSessions constructs an empty session set.
func NewSessions() *Sessions {
	return &Sessions{clients: make(map[string]*Client)}
}

// Add inserts a client. Returns true if newly added.
func (s *Sessions) Add(c *Client) bool {
	if _, exists := s.clients[c.ID]; exists {
		return false
	}
	s.clients[c.ID] = c
	return true
}

// Remove deletes a client. Returns true if removed.
func (s *Sessions) Remove(c *Client) bool {
	if existing, exists := s.clients[c.ID]; !exists || existing != c {
		return false
	}
	delete(s.clients, c.ID)
	return true
}

// Broadcast offers an event to every session and reports how many accepted it.
// Closed or full sessions are skipped.
func (s *Sessions) Broadcast(event *Event) (delivered, dropped int) {
	for _, client := range s.clients {
		if client.offer(event) {
			delivered++
		} else {
			dropped++
		}
	}
	return delivered, dropped
}

// Len returns the number of sessions.
func (s *Sessions) Len() int {
	return len(s.clients)
}

// CloseAll closes and removes every session.
func (s *Sessions) CloseAll() {
	for id, client := range s.clients {
		client.Close()
		delete(s.clients, id)
	}
}
