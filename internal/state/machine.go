package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Proton-105/plantshop-bot/internal/lock"
)

const (
	userLockKeyPattern = "user:lock:%d"
	lockWait           = 5 * time.Second
)

var (
	// ErrInvalidTransition indicates that a requested FSM transition is not allowed.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrStateNotFound indicates that a user state record does not exist.
	ErrStateNotFound = errors.New("user state not found")
	// ErrStateLocked indicates that a concurrent operation already holds the lock.
	ErrStateLocked = errors.New("state is locked, try again later")
	// ErrUnknownDialog indicates that Begin was called with an unregistered dialog.
	ErrUnknownDialog = errors.New("unknown dialog")
)

var transitionRecorder = func(from, to string) {}

// RegisterTransitionRecorder allows external packages to observe FSM transitions.
func RegisterTransitionRecorder(recorder func(from, to string)) {
	if recorder == nil {
		transitionRecorder = func(string, string) {}
		return
	}

	transitionRecorder = recorder
}

// StateMachine describes the operations supported by the FSM controller.
type StateMachine interface {
	GetState(ctx context.Context, userID int64) (*UserState, error)
	// Begin replaces whatever the user was doing with the first step of dialog.
	Begin(ctx context.Context, userID int64, dialog Dialog, contextData map[string]string) (*UserState, error)
	// Advance stores one collected field and moves to next.
	Advance(ctx context.Context, userID int64, next State, key, value string) (*UserState, error)
	ClearState(ctx context.Context, userID int64) error
	GetAllStates(ctx context.Context) ([]*UserState, error)
}

// machine is a concrete implementation of StateMachine backed by Storage and a per-user lock.
type machine struct {
	storage Storage
	log     *slog.Logger
	locker  lock.Locker
}

// NewStateMachine creates a FSM controller. A nil locker falls back to an in-process one.
func NewStateMachine(storage Storage, log *slog.Logger, locker lock.Locker) StateMachine {
	if log == nil {
		log = slog.Default()
	}
	if locker == nil {
		locker = lock.NewMemoryLocker()
	}

	return &machine{
		storage: storage,
		log:     log,
		locker:  locker,
	}
}

// GetState proxies to the underlying storage implementation.
func (m *machine) GetState(ctx context.Context, userID int64) (*UserState, error) {
	return m.storage.GetState(ctx, userID)
}

// GetAllStates returns every stored user state.
func (m *machine) GetAllStates(ctx context.Context) ([]*UserState, error) {
	return m.storage.GetAllStates(ctx)
}

func (m *machine) Begin(ctx context.Context, userID int64, dialog Dialog, contextData map[string]string) (*UserState, error) {
	first, ok := FirstState(dialog)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDialog, dialog)
	}

	unlock, err := m.lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	previous := StateIdle
	if stored, err := m.storage.GetState(ctx, userID); err == nil && stored != nil {
		previous = stored.CurrentState
	} else if err != nil && !errors.Is(err, ErrStateNotFound) {
		return nil, err
	}

	values := make(map[string]string, len(contextData))
	for k, v := range contextData {
		values[k] = v
	}

	userState := &UserState{
		UserID:       userID,
		Dialog:       dialog,
		CurrentState: first,
		Context:      values,
	}
	if err := m.storage.SetState(ctx, userID, userState); err != nil {
		return nil, err
	}

	if previous != StateIdle {
		transitionRecorder(string(previous), string(StateIdle))
	}
	transitionRecorder(string(StateIdle), string(first))

	return userState, nil
}

// Advance changes the state if the transition is allowed, guarded by the user lock.
func (m *machine) Advance(ctx context.Context, userID int64, next State, key, value string) (*UserState, error) {
	unlock, err := m.lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	stored, err := m.storage.GetState(ctx, userID)
	if err != nil {
		return nil, err
	}

	current := stored.CurrentState
	if !IsTransitionAllowed(current, next) {
		m.log.Warn("invalid state transition",
			slog.Int64("user_id", userID),
			slog.String("from", string(current)),
			slog.String("to", string(next)),
		)
		return nil, ErrInvalidTransition
	}

	updated := stored.clone()
	if key != "" {
		updated.Context[key] = value
	}
	updated.CurrentState = next

	if err := m.storage.SetState(ctx, userID, updated); err != nil {
		return nil, err
	}

	transitionRecorder(string(current), string(next))
	return updated, nil
}

// ClearState removes the stored state via the backing storage while holding the lock.
func (m *machine) ClearState(ctx context.Context, userID int64) error {
	unlock, err := m.lock(ctx, userID)
	if err != nil {
		return err
	}
	defer unlock()

	stored, err := m.storage.GetState(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrStateNotFound) {
			return nil
		}
		return err
	}

	if err := m.storage.ClearState(ctx, userID); err != nil {
		return err
	}

	transitionRecorder(string(stored.CurrentState), string(StateIdle))
	return nil
}

func (m *machine) lock(ctx context.Context, userID int64) (lock.Unlock, error) {
	waitCtx, cancel := context.WithTimeout(ctx, lockWait)
	defer cancel()

	unlock, err := m.locker.Lock(waitCtx, fmt.Sprintf(userLockKeyPattern, userID))
	if err != nil {
		m.log.Warn("user state lock not acquired", slog.Int64("user_id", userID), slog.Any("error", err))
		return nil, fmt.Errorf("%w: %v", ErrStateLocked, err)
	}

	return unlock, nil
}
