package language

import (
	"fmt"
	"sync"
)

// Tracker holds the last confirmed spoken language of one session.
//
// Unknown or missing codes never replace the current language, a noisy
// detection is not allowed to downgrade a confirmed one. The current
// language is always a member of the supported set.
type Tracker struct {
	supported Set

	mu      sync.RWMutex
	current string
}

// NewTracker creates a tracker starting at defaultCode, which has to be a
// member of supported once normalized.
func NewTracker(supported Set, defaultCode string) (*Tracker, error) {
	defaultCode = Normalize(defaultCode)
	if supported.Len() == 0 {
		return nil, ErrEmptySet
	}
	if !supported.Contains(defaultCode) {
		return nil, fmt.Errorf("language: default language %q is not one of %q", defaultCode, supported.String())
	}

	return &Tracker{supported: supported, current: defaultCode}, nil
}

// Update sets the current language to code if it is supported and reports
// whether the current language changed. Absent (empty) and unsupported codes
// are ignored.
func (t *Tracker) Update(code string) (changed bool) {
	if !t.supported.Contains(code) {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	changed = t.current != code
	t.current = code
	return changed
}

// Current returns the most recently observed supported language.
func (t *Tracker) Current() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

func (t *Tracker) Supported() Set { return t.supported }
