package testutil

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/melbminds/studyhub/internal/app/system/timezones"
	"github.com/melbminds/studyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Op names a MemStore operation that can be made to fail.
type Op string

const (
	OpListPast      Op = "list_past"
	OpClaim         Op = "claim"
	OpNotify        Op = "notify"
	OpTakeAttendees Op = "take_attendees"
	OpAddHours      Op = "add_hours"
	OpIncrement     Op = "increment"
)

// ErrGroupNotFound is returned by AddHours for an unknown group.
var ErrGroupNotFound = errors.New("group not found")

// MemStore is an in-memory stand-in for the reconcile collaborators
// (sessions, notifications, group ledger, counter). Units of work run through
// Tx are serialized and rolled back on error; DirectTx runs them without
// isolation, the way a standalone Mongo server does.
type MemStore struct {
	txMu sync.Mutex

	mu            sync.Mutex
	sessions      map[primitive.ObjectID]models.StudySession
	attendees     map[primitive.ObjectID][]models.SessionAttendee
	notifications []models.Notification
	groups        map[primitive.ObjectID]models.Group
	counter       int64
	faults        map[Op]error
	calls         map[Op]int
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		sessions:  make(map[primitive.ObjectID]models.StudySession),
		attendees: make(map[primitive.ObjectID][]models.SessionAttendee),
		groups:    make(map[primitive.ObjectID]models.Group),
		faults:    make(map[Op]error),
		calls:     make(map[Op]int),
	}
}

// Fail makes op return err until cleared with Fail(op, nil).
func (m *MemStore) Fail(op Op, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.faults, op)
		return
	}
	m.faults[op] = err
}

// Calls reports how many times op was invoked.
func (m *MemStore) Calls(op Op) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// enter records a call and returns the injected fault, if any. m.mu must be held.
func (m *MemStore) enter(op Op) error {
	m.calls[op]++
	return m.faults[op]
}

/*─────────────────────────────────────────────────────────────────────────────*
| Seeding and inspection                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// PutGroup stores g, assigning an ID when it has none.
func (m *MemStore) PutGroup(g models.Group) models.Group {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g.ID.IsZero() {
		g.ID = primitive.NewObjectID()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	m.groups[g.ID] = g
	return g
}

// Group returns the stored group.
func (m *MemStore) Group(id primitive.ObjectID) (models.Group, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[id]
	return g, ok
}

// PutSession stores s, assigning an ID when it has none.
func (m *MemStore) PutSession(s models.StudySession) models.StudySession {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	m.sessions[s.ID] = s
	return s
}

// AddAttendee registers userID on a session.
func (m *MemStore) AddAttendee(sessionID, userID primitive.ObjectID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attendees[sessionID] = append(m.attendees[sessionID], models.SessionAttendee{
		ID:        primitive.NewObjectID(),
		SessionID: sessionID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	})
}

// HasSession reports whether the session still exists.
func (m *MemStore) HasSession(id primitive.ObjectID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[id]
	return ok
}

// AttendeeCount returns the number of attendee rows for a session.
func (m *MemStore) AttendeeCount(sessionID primitive.ObjectID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.attendees[sessionID])
}

// NotificationsFor returns a group's notifications in creation order.
func (m *MemStore) NotificationsFor(groupID primitive.ObjectID) []models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Notification
	for _, n := range m.notifications {
		if n.GroupID == groupID {
			out = append(out, n)
		}
	}
	return out
}

// CounterValue returns the completed-sessions counter.
func (m *MemStore) CounterValue() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counter
}

// ListUpcoming returns future sessions ordered by (date, start_time).
func (m *MemStore) ListUpcoming(_ context.Context, c timezones.Cutoff, groupID *primitive.ObjectID) ([]models.StudySession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.StudySession
	for _, s := range m.sessions {
		if c.IsPast(s.Date, s.EndTime) {
			continue
		}
		if groupID != nil && s.GroupID != *groupID {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return out, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| reconcile.SessionStore / PastSessionLister                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// ListPast returns ended sessions ordered by (date, end_time).
func (m *MemStore) ListPast(_ context.Context, c timezones.Cutoff) ([]models.StudySession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpListPast); err != nil {
		return nil, err
	}
	return m.pastLocked(c, nil), nil
}

// ListPastByGroup returns a group's ended sessions.
func (m *MemStore) ListPastByGroup(_ context.Context, c timezones.Cutoff, groupID primitive.ObjectID) ([]models.StudySession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pastLocked(c, &groupID), nil
}

func (m *MemStore) pastLocked(c timezones.Cutoff, groupID *primitive.ObjectID) []models.StudySession {
	var out []models.StudySession
	for _, s := range m.sessions {
		if !c.IsPast(s.Date, s.EndTime) {
			continue
		}
		if groupID != nil && s.GroupID != *groupID {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].EndTime != out[j].EndTime {
			return out[i].EndTime < out[j].EndTime
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return out
}

// Claim deletes the session if present.
func (m *MemStore) Claim(_ context.Context, id primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpClaim); err != nil {
		return false, err
	}
	if _, ok := m.sessions[id]; !ok {
		return false, nil
	}
	delete(m.sessions, id)
	return true, nil
}

// Restore re-inserts a session unless it already exists.
func (m *MemStore) Restore(_ context.Context, s models.StudySession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; !ok {
		m.sessions[s.ID] = s
	}
	return nil
}

// TakeAttendees removes and returns a session's attendee rows.
func (m *MemStore) TakeAttendees(_ context.Context, sessionID primitive.ObjectID) ([]models.SessionAttendee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpTakeAttendees); err != nil {
		return nil, err
	}
	rows := m.attendees[sessionID]
	delete(m.attendees, sessionID)
	return rows, nil
}

// RestoreAttendees puts back rows that are not present.
func (m *MemStore) RestoreAttendees(_ context.Context, rows []models.SessionAttendee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		exists := false
		for _, cur := range m.attendees[r.SessionID] {
			if cur.ID == r.ID {
				exists = true
				break
			}
		}
		if !exists {
			m.attendees[r.SessionID] = append(m.attendees[r.SessionID], r)
		}
	}
	return nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| reconcile.NotificationSink / Ledger / Counter                              |
*─────────────────────────────────────────────────────────────────────────────*/

// Create appends a notification.
func (m *MemStore) Create(_ context.Context, groupID primitive.ObjectID, message string) (models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpNotify); err != nil {
		return models.Notification{}, err
	}
	n := models.Notification{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	m.notifications = append(m.notifications, n)
	return n, nil
}

// Delete removes a notification; unknown IDs are ignored.
func (m *MemStore) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, n := range m.notifications {
		if n.ID == id {
			m.notifications = append(m.notifications[:i], m.notifications[i+1:]...)
			return nil
		}
	}
	return nil
}

// AddHours credits a group's ledger.
func (m *MemStore) AddHours(_ context.Context, groupID primitive.ObjectID, hours float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpAddHours); err != nil {
		return err
	}
	g, ok := m.groups[groupID]
	if !ok {
		return ErrGroupNotFound
	}
	g.ProgressHours += hours
	m.groups[groupID] = g
	return nil
}

// Increment adds n to the counter.
func (m *MemStore) Increment(_ context.Context, n int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpIncrement); err != nil {
		return 0, err
	}
	m.counter += n
	return m.counter, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Units of work                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// Tx returns a unit of work with transaction semantics: units are
// serialized and a failing unit leaves no trace.
func (m *MemStore) Tx() TxFunc {
	return func(ctx context.Context, fn func(ctx context.Context) error) error {
		m.txMu.Lock()
		defer m.txMu.Unlock()

		snap := m.snapshot()
		if err := fn(ctx); err != nil {
			m.rollback(snap)
			return err
		}
		return nil
	}
}

// DirectTx returns a unit of work that runs fn with no isolation or rollback.
func (m *MemStore) DirectTx() TxFunc {
	return func(ctx context.Context, fn func(ctx context.Context) error) error {
		return fn(ctx)
	}
}

// TxFunc adapts a function to reconcile.UnitOfWork.
type TxFunc func(ctx context.Context, fn func(ctx context.Context) error) error

// Run calls f.
func (f TxFunc) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	return f(ctx, fn)
}

type memSnapshot struct {
	sessions      map[primitive.ObjectID]models.StudySession
	attendees     map[primitive.ObjectID][]models.SessionAttendee
	notifications []models.Notification
	groups        map[primitive.ObjectID]models.Group
}

// The counter is not part of a snapshot; it is only written outside units of
// work, and rolling it back would drop a concurrent reconciler's increment.
func (m *MemStore) snapshot() memSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := memSnapshot{
		sessions:      make(map[primitive.ObjectID]models.StudySession, len(m.sessions)),
		attendees:     make(map[primitive.ObjectID][]models.SessionAttendee, len(m.attendees)),
		notifications: append([]models.Notification(nil), m.notifications...),
		groups:        make(map[primitive.ObjectID]models.Group, len(m.groups)),
	}
	for k, v := range m.sessions {
		s.sessions[k] = v
	}
	for k, v := range m.attendees {
		s.attendees[k] = append([]models.SessionAttendee(nil), v...)
	}
	for k, v := range m.groups {
		s.groups[k] = v
	}
	return s
}

func (m *MemStore) rollback(s memSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = s.sessions
	m.attendees = s.attendees
	m.notifications = s.notifications
	m.groups = s.groups
}
