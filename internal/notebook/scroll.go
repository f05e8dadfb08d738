package notebook

import "sync"

// ScrollLock freezes the page behind the creation panel.
type ScrollLock interface {
	Lock()
	Unlock()
}

// ScrollState is a ScrollLock that records whether the page is frozen.
type ScrollState struct {
	mu     sync.Mutex
	locked bool
}

// Lock freezes scrolling.
func (s *ScrollState) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locked = true
}

// Unlock restores scrolling.
func (s *ScrollState) Unlock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locked = false
}

// Locked reports whether scrolling is frozen.
func (s *ScrollState) Locked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked
}

type noopScrollLock struct{}

func (noopScrollLock) Lock()   {}
func (noopScrollLock) Unlock() {}
