package recording

import (
	"fmt"
	"sync"

	"focuslens/internal/services"
)

// Registry owns the live session map. Admission control and insertion
// happen under one lock so two concurrent starts for the same project can
// never both pass the active-session scan.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Insert admits a session if no active session exists for its project.
func (r *Registry) Insert(session *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.sessions {
		if existing.ProjectID == session.ProjectID && existing.State().Active() {
			return services.Wrap(
				services.ErrConflict,
				"RECORDING_ALREADY_ACTIVE",
				fmt.Sprintf("project %s already has an active recording", session.ProjectID),
				"stop the running session first",
				nil,
			)
		}
	}
	r.sessions[session.ID] = session
	return nil
}

// Get looks up a session by id.
func (r *Registry) Get(sessionID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return nil, services.Wrap(services.ErrPrecondition, "SESSION_NOT_FOUND", fmt.Sprintf("no session %s", sessionID), "", nil)
	}
	return session, nil
}

// Remove deletes a session from the registry. Removing an absent id is a
// no-op so cleanup paths stay unconditional.
func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

// ActiveForProject returns the live session for a project, if any.
func (r *Registry) ActiveForProject(projectID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, session := range r.sessions {
		if session.ProjectID == projectID && session.State().Active() {
			return session
		}
	}
	return nil
}

// List snapshots all registered sessions.
func (r *Registry) List() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		out = append(out, session)
	}
	return out
}
