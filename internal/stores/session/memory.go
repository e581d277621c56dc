package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
)

// MemoryStore keeps sessions in memory with a JSON mirror on disk.
// The mirror is last-writer-wins with no versioning; it exists so
// sessions survive restarts and so session state can be inspected.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	baseDir  string
}

// NewMemoryStore creates an in-memory session store mirroring under baseDir
func NewMemoryStore(baseDir string) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		baseDir:  baseDir,
	}
}

// Create stores a new session and writes its disk mirror
func (m *MemoryStore) Create(ctx context.Context, s *Session) error {
	return m.Put(ctx, s)
}

// Get retrieves a session by id, falling back to the disk mirror when the
// in-memory map misses (e.g. after a restart)
func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if ok {
		return s.Clone(), nil
	}

	loaded, err := m.loadMirror(id)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	m.mu.Lock()
	m.sessions[id] = loaded
	m.mu.Unlock()

	return loaded.Clone(), nil
}

// Put replaces the stored session and rewrites its disk mirror
func (m *MemoryStore) Put(_ context.Context, s *Session) error {
	clone := s.Clone()

	m.mu.Lock()
	m.sessions[s.ID] = clone
	m.mu.Unlock()

	if err := m.writeMirror(clone); err != nil {
		// The in-memory copy stays authoritative; a failed mirror only
		// costs durability
		log.Printf("[SESSION-STORE]: Failed to mirror session %s: %v", s.ID, err)
	}

	return nil
}

// SetAnswer records the answer for one question index. The mutation runs
// under the write lock, so concurrent pipelines for different indexes
// never lose each other's records.
func (m *MemoryStore) SetAnswer(_ context.Context, id string, idx int, record *AnswerRecord) error {
	return m.update(id, func(s *Session) {
		if s.Answers == nil {
			s.Answers = make(map[int]*AnswerRecord)
		}
		s.Answers[idx] = record
	})
}

// SetStatus moves the session lifecycle forward, carrying the finalize
// bundles when completing
func (m *MemoryStore) SetStatus(_ context.Context, id string, status Status, feedback *FeedbackBundle, key *AnswerKey) error {
	return m.update(id, func(s *Session) {
		s.Status = status
		if feedback != nil {
			s.Feedback = feedback
		}
		if key != nil {
			s.AnswerKey = key
		}
	})
}

// update applies fn to the live session under the write lock
func (m *MemoryStore) update(id string, fn func(*Session)) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		if loaded, err := m.loadMirror(id); err == nil {
			s, ok = loaded, true
			m.sessions[id] = loaded
		}
	}
	if !ok {
		m.mu.Unlock()
		return ErrSessionNotFound
	}

	fn(s)
	clone := s.Clone()
	m.mu.Unlock()

	if err := m.writeMirror(clone); err != nil {
		log.Printf("[SESSION-STORE]: Failed to mirror session %s: %v", id, err)
	}
	return nil
}

// List returns every stored session
func (m *MemoryStore) List(_ context.Context) ([]*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s.Clone())
	}
	return sessions, nil
}

// Delete removes a session from memory and deletes its disk mirror
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	mirror := OpenDir(m.baseDir, id).MetadataPath()
	if err := os.Remove(mirror); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session mirror: %w", err)
	}
	return nil
}

// writeMirror persists the session metadata under its session directory
func (m *MemoryStore) writeMirror(s *Session) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	path := OpenDir(m.baseDir, s.ID).MetadataPath()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write session mirror: %w", err)
	}
	return nil
}

// loadMirror reads a session back from its metadata file
func (m *MemoryStore) loadMirror(id string) (*Session, error) {
	path := OpenDir(m.baseDir, id).MetadataPath()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse session mirror: %w", err)
	}
	return &s, nil
}
