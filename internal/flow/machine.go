package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	userLockKeyPattern = "flow:lock:%d"
	lockTTL            = 5 * time.Second
)

var (
	// ErrInvalidTransition indicates that a requested step change is not allowed.
	ErrInvalidTransition = errors.New("invalid flow transition")
	// ErrSessionNotFound indicates that no flow is active for the user.
	ErrSessionNotFound = errors.New("flow session not found")
	// ErrSessionActive indicates that a new flow cannot start while one is active.
	ErrSessionActive = errors.New("a flow is already active")
	// ErrSessionLocked indicates that a concurrent update already holds the lock.
	ErrSessionLocked = errors.New("session is locked, try again later")
)

var transitionRecorder = func(kind, from, to string) {}

// RegisterTransitionRecorder allows external packages to observe flow transitions.
func RegisterTransitionRecorder(recorder func(kind, from, to string)) {
	if recorder == nil {
		transitionRecorder = func(string, string, string) {}
		return
	}

	transitionRecorder = recorder
}

// Machine drives per-user conversational sessions. All mutating operations
// are serialized per user via Redis locks so that two updates arriving for
// the same user cannot interleave.
type Machine interface {
	Session(ctx context.Context, userID int64) (*Session, error)
	Begin(ctx context.Context, userID int64, kind Kind) (*Session, error)
	Advance(ctx context.Context, userID int64, next Step, fields map[string]string) (*Session, error)
	Refine(ctx context.Context, userID int64, kind Kind, next Step) (*Session, error)
	Clear(ctx context.Context, userID int64) error
}

type machine struct {
	storage     Storage
	log         *slog.Logger
	redisClient *redis.Client
}

// NewMachine creates a flow controller using the provided storage backend and
// redis client for locking.
func NewMachine(storage Storage, log *slog.Logger, redisClient *redis.Client) Machine {
	if log == nil {
		log = slog.Default()
	}

	return &machine{
		storage:     storage,
		log:         log,
		redisClient: redisClient,
	}
}

// Session proxies to the underlying storage implementation.
func (m *machine) Session(ctx context.Context, userID int64) (*Session, error) {
	return m.storage.GetSession(ctx, userID)
}

// Begin creates a fresh session at the kind's initial step. An existing
// session is replaced: pressing a top-level action button abandons whatever
// flow was in progress.
func (m *machine) Begin(ctx context.Context, userID int64, kind Kind) (*Session, error) {
	if err := m.lock(ctx, userID); err != nil {
		return nil, err
	}
	defer m.unlock(ctx, userID)

	step := InitialStep(kind)
	if step == StepIdle {
		return nil, fmt.Errorf("%w: kind %q cannot start a session", ErrInvalidTransition, kind)
	}

	session := &Session{
		UserID: userID,
		Kind:   kind,
		Step:   step,
		Fields: make(map[string]string),
	}

	if err := m.storage.SetSession(ctx, userID, session); err != nil {
		return nil, err
	}

	transitionRecorder(string(kind), string(StepIdle), string(step))

	return session, nil
}

// Advance moves the session to the next step, merging the newly collected
// fields. The move must be listed in the transitions table.
func (m *machine) Advance(ctx context.Context, userID int64, next Step, fields map[string]string) (*Session, error) {
	if err := m.lock(ctx, userID); err != nil {
		return nil, err
	}
	defer m.unlock(ctx, userID)

	session, err := m.storage.GetSession(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !IsTransitionAllowed(session.Kind, session.Step, next) {
		m.log.Warn("invalid flow transition",
			"user_id", userID, "kind", session.Kind, "from", session.Step, "to", next)
		return nil, ErrInvalidTransition
	}

	transitionRecorder(string(session.Kind), string(session.Step), string(next))

	from := session.Step
	session.Step = next
	if session.Fields == nil {
		session.Fields = make(map[string]string)
	}
	for k, v := range fields {
		session.Fields[k] = v
	}

	if err := m.storage.SetSession(ctx, userID, session); err != nil {
		session.Step = from
		return nil, err
	}

	return session, nil
}

// Refine switches a parent flow into a concrete mode (sell -> sell_all or
// sell_manual), keeping the collected fields.
func (m *machine) Refine(ctx context.Context, userID int64, kind Kind, next Step) (*Session, error) {
	if err := m.lock(ctx, userID); err != nil {
		return nil, err
	}
	defer m.unlock(ctx, userID)

	session, err := m.storage.GetSession(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !IsRefinementAllowed(session.Kind, kind) {
		m.log.Warn("invalid flow refinement",
			"user_id", userID, "from", session.Kind, "to", kind)
		return nil, ErrInvalidTransition
	}

	transitionRecorder(string(kind), string(session.Step), string(next))

	session.Kind = kind
	session.Step = next

	if err := m.storage.SetSession(ctx, userID, session); err != nil {
		return nil, err
	}

	return session, nil
}

// Clear removes the stored session while holding the lock.
func (m *machine) Clear(ctx context.Context, userID int64) error {
	if err := m.lock(ctx, userID); err != nil {
		return err
	}
	defer m.unlock(ctx, userID)

	return m.storage.ClearSession(ctx, userID)
}

func (m *machine) lock(ctx context.Context, userID int64) error {
	if m.redisClient == nil {
		m.log.Warn("redis client not configured for flow locks; skipping", "user_id", userID)
		return nil
	}

	key := fmt.Sprintf(userLockKeyPattern, userID)
	acquired, err := m.redisClient.SetNX(ctx, key, 1, lockTTL).Result()
	if err != nil {
		m.log.Error("failed to acquire flow lock", "user_id", userID, "error", err)
		return err
	}

	if !acquired {
		m.log.Warn("flow lock already held", "user_id", userID)
		return ErrSessionLocked
	}

	return nil
}

func (m *machine) unlock(ctx context.Context, userID int64) {
	if m.redisClient == nil {
		return
	}

	key := fmt.Sprintf(userLockKeyPattern, userID)
	if err := m.redisClient.Del(ctx, key).Err(); err != nil {
		m.log.Error("failed to release flow lock", "user_id", userID, "error", err)
	}
}
