package api

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/lookbusy1344/alya-vm/debugger"
	"github.com/lookbusy1344/alya-vm/vm"
)

var (
	// ErrSessionNotFound is returned when a session is not found.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionAlreadyExists is returned when trying to create a session with an existing ID.
	ErrSessionAlreadyExists = errors.New("session already exists")
)

// Session pairs one loaded program with one VM and one debugger, behind a
// mutex so concurrent requests to the same session serialize.
type Session struct {
	ID        string
	VM        *vm.VM
	Program   *vm.Program
	Debugger  *debugger.Debugger
	Output    *EventWriter
	CreatedAt time.Time
	mu        sync.Mutex
}

// Lock serializes access to a session's VM/debugger pair across requests.
func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// SessionManager manages multiple debug sessions.
type SessionManager struct {
	sessions    map[string]*Session
	broadcaster *Broadcaster
	mu          sync.RWMutex
}

// NewSessionManager creates a new session manager.
func NewSessionManager(broadcaster *Broadcaster) *SessionManager {
	return &SessionManager{
		sessions:    make(map[string]*Session),
		broadcaster: broadcaster,
	}
}

// CreateSession loads program into a fresh VM and attaches a debugger.
func (sm *SessionManager) CreateSession(program *vm.Program, memorySize uint64) (*Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	if memorySize == 0 {
		memorySize = vm.DefaultMemorySize
	}
	machine := vm.NewVM(memorySize)

	var output *EventWriter
	if sm.broadcaster != nil {
		output = NewEventWriter(sm.broadcaster, sessionID, "stdout")
		machine.OutputWriter = output
		debugLog("session %s: output broadcasting enabled", sessionID)
	}

	dbg := debugger.NewDebugger(machine, program)

	session := &Session{
		ID:        sessionID,
		VM:        machine,
		Program:   program,
		Debugger:  dbg,
		Output:    output,
		CreatedAt: time.Now(),
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, exists := sm.sessions[sessionID]; exists {
		return nil, ErrSessionAlreadyExists
	}

	sm.sessions[sessionID] = session
	return session, nil
}

// GetSession retrieves a session by ID.
func (sm *SessionManager) GetSession(sessionID string) (*Session, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, exists := sm.sessions[sessionID]
	if !exists {
		return nil, ErrSessionNotFound
	}

	return session, nil
}

// DestroySession removes a session by ID.
func (sm *SessionManager) DestroySession(sessionID string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, exists := sm.sessions[sessionID]; !exists {
		return ErrSessionNotFound
	}

	delete(sm.sessions, sessionID)
	return nil
}

// ListSessions returns the IDs of all active sessions.
func (sm *SessionManager) ListSessions() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	ids := make([]string, 0, len(sm.sessions))
	for id := range sm.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of active sessions.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return len(sm.sessions)
}

// generateSessionID generates a unique session ID.
func generateSessionID() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
