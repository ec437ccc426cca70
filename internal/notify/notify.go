// Package notify implements transient toasts and the global busy indicator.
package notify

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Severity of a toast
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// DefaultTTL is how long a toast stays up unless dismissed
const DefaultTTL = 5 * time.Second

// SpinnerID identifies the singleton busy overlay
const SpinnerID = "globalSpinner"

// normalize maps unknown severities to info
func (s Severity) normalize() Severity {
	switch s {
	case SeveritySuccess, SeverityWarning, SeverityError:
		return s
	default:
		return SeverityInfo
	}
}

// Toast is a transient notification
type Toast struct {
	ID        string
	Message   string
	Severity  Severity
	CreatedAt time.Time
}

// Renderer displays surface changes. Calls are serialized by the Surface;
// implementations must not call back into it.
type Renderer interface {
	ToastShown(t Toast)
	ToastRemoved(t Toast)
	SpinnerShown(id string)
	SpinnerHidden(id string)
}

type toastEntry struct {
	toast Toast
	timer *time.Timer
}

// Surface owns the live toasts and the spinner slot
type Surface struct {
	mu       sync.Mutex
	renderer Renderer
	logger   *slog.Logger
	ttl      time.Duration
	toasts   map[string]*toastEntry
	order    []string
	spinner  bool
	closed   bool
}

// NewSurface creates a surface drawing through renderer. A ttl <= 0 uses DefaultTTL.
func NewSurface(renderer Renderer, ttl time.Duration, logger *slog.Logger) *Surface {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Surface{
		renderer: renderer,
		logger:   logger,
		ttl:      ttl,
		toasts:   make(map[string]*toastEntry),
	}
}

// ShowToast displays message and schedules its removal after the TTL.
// Every call produces its own toast. It returns the toast id for Dismiss.
func (s *Surface) ShowToast(message string, severity Severity) string {
	t := Toast{
		ID:        uuid.NewString(),
		Message:   message,
		Severity:  severity.normalize(),
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return t.ID
	}

	entry := &toastEntry{toast: t}
	s.toasts[t.ID] = entry
	s.order = append(s.order, t.ID)
	entry.timer = time.AfterFunc(s.ttl, func() { s.remove(t.ID) })

	s.logger.Debug("toast shown", "id", t.ID, "severity", t.Severity)
	s.renderer.ToastShown(t)
	return t.ID
}

// Showf is ShowToast with a format string
func (s *Surface) Showf(severity Severity, format string, args ...any) string {
	return s.ShowToast(fmt.Sprintf(format, args...), severity)
}

// Dismiss removes a toast before it expires. It reports whether the toast was live.
func (s *Surface) Dismiss(id string) bool {
	return s.remove(id)
}

func (s *Surface) remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.toasts[id]
	if !ok {
		return false
	}
	entry.timer.Stop()
	delete(s.toasts, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	s.renderer.ToastRemoved(entry.toast)
	return true
}

// Toasts returns the live toasts, oldest first
func (s *Surface) Toasts() []Toast {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Toast, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.toasts[id].toast)
	}
	return out
}

// ShowSpinner shows the busy overlay unless it is already up
func (s *Surface) ShowSpinner() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.spinner || s.closed {
		return
	}
	s.spinner = true
	s.renderer.SpinnerShown(SpinnerID)
}

// HideSpinner removes the busy overlay; no-op when none is shown
func (s *Surface) HideSpinner() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.spinner {
		return
	}
	s.spinner = false
	s.renderer.SpinnerHidden(SpinnerID)
}

// SpinnerVisible reports whether the busy overlay is up
func (s *Surface) SpinnerVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spinner
}

// WithBusyIndicator runs fn with the spinner shown and hides it on every
// exit path, panics included.
func (s *Surface) WithBusyIndicator(fn func() error) error {
	s.ShowSpinner()
	defer s.HideSpinner()
	return fn()
}

// Close stops pending expiry timers and drops live toasts without rendering.
func (s *Surface) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.toasts {
		entry.timer.Stop()
	}
	s.toasts = make(map[string]*toastEntry)
	s.order = nil
	s.closed = true
}
