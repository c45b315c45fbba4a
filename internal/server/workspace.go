package server

import (
	"sync"

	"github.com/vesaa/homebuilder/internal/project"
)

// Workspaces holds each user's open project between requests. Only the
// owning user reads or writes their entry; documents handed out are copies.
type Workspaces struct {
	mu   sync.Mutex
	open map[uint]*workspace
}

type workspace struct {
	doc   *project.Document
	dirty bool
	// rev counts successful updates so a save can tell whether edits
	// landed while it was writing.
	rev uint64
}

// NewWorkspaces returns an empty cache.
func NewWorkspaces() *Workspaces {
	return &Workspaces{open: map[uint]*workspace{}}
}

// Open makes d the user's current project.
func (w *Workspaces) Open(userID uint, d *project.Document) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.open[userID] = &workspace{doc: project.Clone(d)}
}

// Get returns a copy of the user's current project and whether it has
// unsaved edits.
func (w *Workspaces) Get(userID uint) (*project.Document, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	ws, ok := w.open[userID]
	if !ok {
		return nil, false, ErrNoWorkspace
	}
	return project.Clone(ws.doc), ws.dirty, nil
}

// Checkout returns a copy of the user's current project and its revision,
// to be handed back to MarkSaved after the copy is persisted.
func (w *Workspaces) Checkout(userID uint) (*project.Document, uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	ws, ok := w.open[userID]
	if !ok {
		return nil, 0, ErrNoWorkspace
	}
	return project.Clone(ws.doc), ws.rev, nil
}

// Update runs fn on the user's current project. The change is kept only if
// fn succeeds, so a failing batch of edits leaves the workspace untouched.
func (w *Workspaces) Update(userID uint, fn func(d *project.Document) error) (*project.Document, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	ws, ok := w.open[userID]
	if !ok {
		return nil, ErrNoWorkspace
	}
	work := project.Clone(ws.doc)
	if err := fn(work); err != nil {
		return nil, err
	}
	ws.doc = work
	ws.dirty = true
	ws.rev++
	return project.Clone(work), nil
}

// MarkSaved records that saved, checked out at rev, was persisted. When no
// edit landed since the checkout the workspace becomes clean; otherwise only
// the save stamps are copied and the newer edits stay dirty. It reports
// whether the workspace is clean afterwards.
func (w *Workspaces) MarkSaved(userID uint, saved *project.Document, rev uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	ws, ok := w.open[userID]
	if !ok || ws.doc.ProjectID != saved.ProjectID {
		return false
	}
	if ws.rev == rev {
		ws.doc = project.Clone(saved)
		ws.dirty = false
		return true
	}
	ws.doc.CreatedAt = saved.CreatedAt
	ws.doc.UpdatedAt = saved.UpdatedAt
	ws.doc.UpdatedBy = saved.UpdatedBy
	return false
}

// Close drops the user's workspace.
func (w *Workspaces) Close(userID uint) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.open, userID)
}

// Forget drops every workspace holding projectID, e.g. after a delete.
func (w *Workspaces) Forget(projectID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for id, ws := range w.open {
		if ws.doc.ProjectID == projectID {
			delete(w.open, id)
		}
	}
}
