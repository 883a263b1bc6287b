package workspace

import "sync"

// Workspace holds the editor buffer for each lesson. The runner reads
// from it and the instructor may overwrite it when a reply carries a
// code update, so access is synchronized.
type Workspace struct {
	mu      sync.RWMutex
	buffers map[string]string
}

// New creates an empty workspace.
func New() *Workspace {
	return &Workspace{buffers: make(map[string]string)}
}

// Get returns the current buffer for a lesson, empty if never set.
func (w *Workspace) Get(lessonID string) string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.buffers[lessonID]
}

// Set replaces the buffer for a lesson.
func (w *Workspace) Set(lessonID, code string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buffers[lessonID] = code
}

// Clear removes the buffer for a lesson.
func (w *Workspace) Clear(lessonID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.buffers, lessonID)
}
