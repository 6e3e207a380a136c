package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// StorageKey is the key the auth payload is persisted under.
const StorageKey = "ems.auth"

// SessionStore persists the auth payload between runs.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: Load returns ErrNoSession when nothing is stored.
type SessionStore interface {
	Load() (Session, error)
	Save(s Session) error
	Clear() error

	// UpdateUser applies fn to the stored user and saves the result.
	UpdateUser(fn func(*User)) error
}

// FileSessionStore keeps a small key/value document on disk and stores
// the auth payload under StorageKey.
type FileSessionStore struct {
	path string
	mu   sync.Mutex
}

// NewFileSessionStore creates a store backed by the file at path.
func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{path: path}
}

// Path returns the backing file path.
func (f *FileSessionStore) Path() string {
	return f.path
}

// Load reads the persisted session.
func (f *FileSessionStore) Load() (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadLocked()
}

// Save persists the session, keeping other keys in the document.
func (f *FileSessionStore) Save(s Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saveLocked(s)
}

// Clear removes the session. Idempotent.
func (f *FileSessionStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.readDoc()
	if err != nil {
		return err
	}
	if _, ok := doc[StorageKey]; !ok {
		return nil
	}
	delete(doc, StorageKey)
	return f.writeDoc(doc)
}

// UpdateUser applies fn to the stored user.
func (f *FileSessionStore) UpdateUser(fn func(*User)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := f.loadLocked()
	if err != nil {
		return err
	}
	if s.User == nil {
		s.User = &User{}
	}
	fn(s.User)
	return f.saveLocked(s)
}

func (f *FileSessionStore) loadLocked() (Session, error) {
	doc, err := f.readDoc()
	if err != nil {
		return Session{}, err
	}
	raw, ok := doc[StorageKey]
	if !ok {
		return Session{}, ErrNoSession
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return Session{}, fmt.Errorf("%w: decode %s: %v", ErrStorage, StorageKey, err)
	}
	return s, nil
}

func (f *FileSessionStore) saveLocked(s Session) error {
	doc, err := f.readDoc()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrStorage, err)
	}
	doc[StorageKey] = raw
	return f.writeDoc(doc)
}

func (f *FileSessionStore) readDoc() (map[string]json.RawMessage, error) {
	doc := make(map[string]json.RawMessage)
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrStorage, f.path, err)
	}
	return doc, nil
}

// writeDoc replaces the file atomically with owner-only permissions.
func (f *FileSessionStore) writeDoc(doc map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

// MemorySessionStore keeps the session in memory.
type MemorySessionStore struct {
	mu      sync.Mutex
	session *Session
}

// NewMemorySessionStore creates an empty in-memory store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

// Load returns the stored session or ErrNoSession.
func (m *MemorySessionStore) Load() (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return Session{}, ErrNoSession
	}
	return copySession(*m.session), nil
}

// Save stores the session.
func (m *MemorySessionStore) Save(s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := copySession(s)
	m.session = &cp
	return nil
}

// Clear removes the session.
func (m *MemorySessionStore) Clear() error {
	m.mu.Lock()
	m.session = nil
	m.mu.Unlock()
	return nil
}

// UpdateUser applies fn to the stored user.
func (m *MemorySessionStore) UpdateUser(fn func(*User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return ErrNoSession
	}
	if m.session.User == nil {
		m.session.User = &User{}
	}
	fn(m.session.User)
	return nil
}

func copySession(s Session) Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

var (
	_ SessionStore = (*FileSessionStore)(nil)
	_ SessionStore = (*MemorySessionStore)(nil)
)
