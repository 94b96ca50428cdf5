// Package session owns the state of one import session: the transaction
// slice, the category assignments, and the default date range. All mutation
// goes through the Session so collections are replaced atomically from the
// caller's point of view.
package session

import (
	"errors"
	"sync"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrImportInProgress is returned when an import is started while a previous
// one is still running. The first import always runs to completion.
var ErrImportInProgress = errors.New("an import is already in progress")

// Session is the single in-memory owner of the current import's data.
// Transactions are discarded wholesale when a new file is imported or the
// session resets; category assignments reset with them.
type Session struct {
	mu  sync.Mutex
	log zerolog.Logger

	batchID      string
	transactions []*Transaction
	byID         map[string]*Transaction
	assignments  map[string]string

	startDate civil.Date
	endDate   civil.Date

	importing bool
}

// New creates an empty session.
func New(log zerolog.Logger) *Session {
	return &Session{
		log:         log,
		assignments: make(map[string]string),
	}
}

// BeginImport claims the import slot. It fails with ErrImportInProgress when
// another import has claimed it and not yet finished.
func (s *Session) BeginImport() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.importing {
		return ErrImportInProgress
	}
	s.importing = true
	return nil
}

// CompleteImport replaces the session contents with a finished build and
// releases the import slot. Returns the new import batch ID.
func (s *Session) CompleteImport(result *BuildResult) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batchID = uuid.NewString()
	s.transactions = result.Transactions
	s.byID = make(map[string]*Transaction, len(result.Transactions))
	for _, tx := range result.Transactions {
		s.byID[tx.ID] = tx
	}
	s.assignments = make(map[string]string, len(result.Assignments))
	for id, label := range result.Assignments {
		s.assignments[id] = label
	}
	s.startDate = result.MinDate
	s.endDate = result.MaxDate
	s.importing = false

	s.log.Info().
		Str("batch_id", s.batchID).
		Int("transactions", len(s.transactions)).
		Int("preassigned", len(s.assignments)).
		Msg("Import committed to session")

	return s.batchID
}

// FailImport releases the import slot without touching session state.
func (s *Session) FailImport() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.importing = false
}

// Reset discards all session data.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batchID = ""
	s.transactions = nil
	s.byID = nil
	s.assignments = make(map[string]string)
	s.startDate = civil.Date{}
	s.endDate = civil.Date{}
}

// Snapshot returns the current transactions and a copy of the assignment
// map. The transaction slice is shared; transactions are immutable so this
// is safe for read-only consumers.
func (s *Session) Snapshot() ([]*Transaction, map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	assignments := make(map[string]string, len(s.assignments))
	for id, label := range s.assignments {
		assignments[id] = label
	}
	return s.transactions, assignments
}

// BatchID returns the ID of the current import batch, or "" before any
// import completed.
func (s *Session) BatchID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batchID
}

// DefaultRange returns the min/max dates observed at import time.
func (s *Session) DefaultRange() (start, end civil.Date) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startDate, s.endDate
}

// AssignCategory sets the category label for a single transaction. An empty
// label clears the assignment, putting the transaction back to "unset".
func (s *Session) AssignCategory(id, label string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasTransaction(id) {
		return false
	}
	if label == "" {
		delete(s.assignments, id)
		return true
	}
	s.assignments[id] = label
	return true
}

// AssignCategoryBulk applies one label to every listed transaction, skipping
// unknown IDs. Returns how many assignments were written.
func (s *Session) AssignCategoryBulk(ids []string, label string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, id := range ids {
		if !s.hasTransaction(id) {
			continue
		}
		if label == "" {
			delete(s.assignments, id)
		} else {
			s.assignments[id] = label
		}
		n++
	}
	return n
}

func (s *Session) hasTransaction(id string) bool {
	_, ok := s.byID[id]
	return ok
}
