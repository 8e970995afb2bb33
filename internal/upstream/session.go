package upstream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Session is the persisted part of a browsing session: the tabToken and the cookies it was issued with
type Session struct {
	Token     string         `json:"token,omitempty"`
	Cookies   []*http.Cookie `json:"cookies,omitempty"`
	UpdatedAt string         `json:"updated_at,omitempty"`
}

// Usable reports whether the session can be resumed without re-initialization
func (s *Session) Usable() bool {
	return s != nil && s.Token != "" && len(s.Cookies) > 0
}

// SessionStore persists the session between runs
type SessionStore interface {
	Load() (*Session, error)
	Save(s *Session) error
}

// MemorySessionStore keeps the session in process memory
type MemorySessionStore struct {
	mu      sync.Mutex
	session *Session
}

// NewMemorySessionStore creates an empty in-memory store
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

func (m *MemorySessionStore) Load() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return &Session{}, nil
	}
	cp := *m.session
	return &cp, nil
}

func (m *MemorySessionStore) Save(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *s
	m.session = &cp
	return nil
}

// FileSessionStore persists the session as JSON in a file readable only by the owner
type FileSessionStore struct {
	path   string
	logger *zap.Logger
}

// NewFileSessionStore creates a store backed by the given file
func NewFileSessionStore(path string, logger *zap.Logger) *FileSessionStore {
	return &FileSessionStore{
		path:   path,
		logger: logger,
	}
}

// Load reads the session file; a missing file yields an empty session
func (fs *FileSessionStore) Load() (*Session, error) {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			// Created on first save
			return &Session{}, nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}

	fs.logger.Debug("Session loaded",
		zap.String("file", fs.path),
		zap.Bool("has_token", s.Token != ""),
		zap.Int("cookies", len(s.Cookies)))

	return &s, nil
}

// Save writes the session file atomically
func (fs *FileSessionStore) Save(s *Session) error {
	s.UpdatedAt = time.Now().Format(time.RFC3339)

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if dir := filepath.Dir(fs.path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create session directory: %w", err)
		}
	}

	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}

	fs.logger.Debug("Session saved",
		zap.String("file", fs.path),
		zap.Bool("has_token", s.Token != ""))

	return nil
}
