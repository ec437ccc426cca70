// Package route models client-side navigation between entry points.
package route

import "sync"

// Navigator moves the client to another entry point
type Navigator interface {
	Navigate(target string)
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(target string)

func (f NavigatorFunc) Navigate(target string) { f(target) }

// Location is a Navigator that remembers where the client is
type Location struct {
	mu      sync.Mutex
	current string
	history []string
	onMove  func(target string)
}

// NewLocation starts at initial. onMove, if non-nil, is called after each navigation.
func NewLocation(initial string, onMove func(target string)) *Location {
	return &Location{
		current: initial,
		history: []string{initial},
		onMove:  onMove,
	}
}

// Navigate records target as the current location
func (l *Location) Navigate(target string) {
	l.mu.Lock()
	l.current = target
	l.history = append(l.history, target)
	cb := l.onMove
	l.mu.Unlock()

	if cb != nil {
		cb(target)
	}
}

// Current returns the current location
func (l *Location) Current() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// History returns every location visited, oldest first
func (l *Location) History() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.history))
	copy(out, l.history)
	return out
}

// Fixed entry points
const (
	Login        = "/login.html"
	Unauthorized = "/unauthorized.html"
	Dashboard    = "/dashboard.html"
)
