package gateway

import "sync"

// Navigator performs the full navigation to the sign-in entry point.
type Navigator interface {
	Redirect(target string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(target string)

func (f NavigatorFunc) Redirect(target string) { f(target) }

// RecordingNavigator remembers every redirect. Used by tests.
type RecordingNavigator struct {
	mu      sync.Mutex
	targets []string
}

func (r *RecordingNavigator) Redirect(target string) {
	r.mu.Lock()
	r.targets = append(r.targets, target)
	r.mu.Unlock()
}

func (r *RecordingNavigator) Targets() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.targets...)
}

func (r *RecordingNavigator) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.targets)
}
