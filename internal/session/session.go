package session

import "sync"

// Step is the current position in the registration form.
type Step int

const (
	StepFirstName Step = iota
	StepLastName
	StepClass
	StepEmail
	StepConfirm
)

func (s Step) String() string {
	switch s {
	case StepFirstName:
		return "first_name"
	case StepLastName:
		return "last_name"
	case StepClass:
		return "school_class"
	case StepEmail:
		return "email"
	case StepConfirm:
		return "confirm"
	default:
		return "unknown"
	}
}

// Session holds the form fields collected so far for one user. Handlers
// mutate the session they get from the store; dispatch is sequential, so
// no session is touched by two handlers at once.
type Session struct {
	UserID      int64
	Step        Step
	FirstName   string
	LastName    string
	SchoolClass string
	Email       string
}

// Store keeps in-flight registration sessions keyed by user ID.
// Sessions live until confirmed or replaced; an abandoned form stays
// around indefinitely.
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[int64]*Session)}
}

// Start creates a fresh session at the first step, replacing any
// existing one for the user.
func (s *Store) Start(userID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := &Session{UserID: userID, Step: StepFirstName}
	s.sessions[userID] = sess
	return sess
}

func (s *Store) Get(userID int64) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sessions[userID]
}

func (s *Store) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, userID)
}
