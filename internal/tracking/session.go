package tracking

import "sync"

// Session remembers the last (component, page) pair tracked for one
// component instance, so re-renders of the same pair are not re-counted.
type Session struct {
	mu          sync.Mutex
	componentID string
	page        string
	seen        bool
}

// ShouldTrack reports whether the pair differs from the last tracked one,
// and records it as tracked when it does.
func (s *Session) ShouldTrack(componentID, page string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seen && s.componentID == componentID && s.page == page {
		return false
	}
	s.componentID, s.page, s.seen = componentID, page, true
	return true
}
