package state

import (
	"errors"
	"sync"
	"time"

	"ideaboard/internal/models"
	"ideaboard/internal/service"

	"github.com/google/uuid"
)

// Pages of the demo flow.
const (
	PageSetup      = "setup"
	PageProcessing = "processing"
	PageDeployment = "deployment"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is the per-login state the dashboard used to keep in ambient globals.
type Session struct {
	ID             string
	Username       string
	Page           string
	SelectedIdea   string
	DeploymentIdea string
	Goal           string
	Dataset        *models.DatasetProfile
	IdeaCount      int
	Run            *service.ProcessingRun
	CreatedAt      time.Time
}

// SessionStore holds sessions in memory, keyed by session id. Sessions older
// than ttl are dropped; a zero ttl keeps them until logout.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create starts a fresh session on the setup page and prunes expired ones.
func (s *SessionStore) Create(username string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, id)
		}
	}

	sess := &Session{
		ID:        uuid.NewString(),
		Username:  username,
		Page:      PageSetup,
		CreatedAt: now,
	}
	s.sessions[sess.ID] = sess
	return *sess
}

// Get returns a copy of the session.
func (s *SessionStore) Get(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.live(id)
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

// Update applies fn to the stored session under the write lock and returns
// the updated copy.
func (s *SessionStore) Update(id string, fn func(*Session)) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.live(id)
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	fn(sess)
	return *sess, nil
}

// live looks up id, deleting it if it has expired. Callers hold the write lock.
func (s *SessionStore) live(id string) (*Session, bool) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if s.expired(sess, s.now()) {
		delete(s.sessions, id)
		return nil, false
	}
	return sess, true
}

func (s *SessionStore) expired(sess *Session, now time.Time) bool {
	return s.ttl > 0 && !now.Before(sess.CreatedAt.Add(s.ttl))
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
