// Package dialog drives the multi-step booking and add-plant conversations.
package dialog

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/Proton-105/plantshop-bot/internal/domain"
	apperrors "github.com/Proton-105/plantshop-bot/internal/errors"
	"github.com/Proton-105/plantshop-bot/internal/i18n"
	"github.com/Proton-105/plantshop-bot/internal/notify"
	"github.com/Proton-105/plantshop-bot/internal/state"
)

// Shop is the subset of shop.Service the dialogs commit through.
type Shop interface {
	Reservable(ctx context.Context, plantID string) (domain.Plant, error)
	Reserve(ctx context.Context, req domain.ReservationRequest) (domain.Booking, error)
	AddPlant(ctx context.Context, draft domain.PlantDraft) (domain.Plant, error)
}

// Notifier delivers best-effort messages.
type Notifier interface {
	Broadcast(ctx context.Context, audience string, recipients []int64, msg notify.Message) notify.Report
	Notify(ctx context.Context, audience string, chatID int64, msg notify.Message) notify.Result
}

// AdminSet answers admin membership at the time of each step.
type AdminSet interface {
	IsAdmin(userID int64) bool
	IDs() []int64
}

// Input is one user message addressed to an active dialog.
type Input struct {
	UserID  int64
	ChatID  int64
	Text    string
	PhotoID string
}

// Reply is what the user should see after a step.
type Reply struct {
	Text string
	// Done is set when the dialog finished (committed or aborted) with this reply.
	Done bool
}

// StepHandler processes input for the state it is registered under.
type StepHandler func(ctx context.Context, st *state.UserState, in Input) (Reply, error)

// Options configures optional Engine behaviour.
type Options struct {
	// ChannelID receives new-plant announcements; zero disables them.
	ChannelID int64
	// DeepLink builds a t.me link that starts a booking for plantID.
	DeepLink func(plantID string) string
}

// Engine routes input to the step handler registered for the user's current state.
type Engine struct {
	fsm      state.StateMachine
	shop     Shop
	notifier Notifier
	admins   AdminSet
	t        i18n.Translator
	log      *slog.Logger
	opts     Options

	mu    sync.RWMutex
	steps map[state.State]StepHandler
}

// NewEngine constructs an Engine with the booking and add-plant steps registered.
func NewEngine(fsm state.StateMachine, shop Shop, notifier Notifier, admins AdminSet, t i18n.Translator, log *slog.Logger, opts Options) *Engine {
	if log == nil {
		log = slog.Default()
	}

	e := &Engine{
		fsm:      fsm,
		shop:     shop,
		notifier: notifier,
		admins:   admins,
		t:        t,
		log:      log,
		opts:     opts,
		steps:    make(map[state.State]StepHandler),
	}

	e.Register(state.StateBookingName, e.bookingName)
	e.Register(state.StateBookingPhone, e.bookingPhone)
	e.Register(state.StateBookingComment, e.bookingComment)

	e.Register(state.StateAddPlantName, e.adminOnly(e.addPlantName))
	e.Register(state.StateAddPlantDescription, e.adminOnly(e.addPlantDescription))
	e.Register(state.StateAddPlantPrice, e.adminOnly(e.addPlantPrice))
	e.Register(state.StateAddPlantQuantity, e.adminOnly(e.addPlantQuantity))
	e.Register(state.StateAddPlantPhoto, e.adminOnly(e.addPlantPhoto))

	return e
}

// Register installs handler for s, replacing any previous one.
func (e *Engine) Register(s state.State, handler StepHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.steps[s] = handler
}

func (e *Engine) handler(s state.State) StepHandler {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.steps[s]
}

// Handle feeds in to the user's active dialog. handled is false when the user has none.
func (e *Engine) Handle(ctx context.Context, in Input) (Reply, bool, error) {
	st, err := e.fsm.GetState(ctx, in.UserID)
	if err != nil {
		if errors.Is(err, state.ErrStateNotFound) {
			return Reply{}, false, nil
		}
		return Reply{}, true, apperrors.NewStorageError(err)
	}

	handler := e.handler(st.CurrentState)
	if handler == nil {
		e.log.Warn("no step handler for state",
			slog.Int64("user_id", in.UserID),
			slog.String("state", string(st.CurrentState)),
		)
		e.reset(ctx, in.UserID)
		return Reply{}, true, apperrors.NewStateError("no handler for state "+string(st.CurrentState), nil)
	}

	reply, err := handler(ctx, st, in)
	return reply, true, err
}

// Active reports whether the user is in the middle of a dialog.
func (e *Engine) Active(ctx context.Context, userID int64) (bool, error) {
	_, err := e.fsm.GetState(ctx, userID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, state.ErrStateNotFound) {
		return false, nil
	}
	return false, apperrors.NewStorageError(err)
}

// Cancel abandons the active dialog.
func (e *Engine) Cancel(ctx context.Context, userID int64) (Reply, error) {
	active, err := e.Active(ctx, userID)
	if err != nil {
		return Reply{}, err
	}
	if !active {
		return Reply{Text: e.t.T("dialog.nothing_to_cancel"), Done: true}, nil
	}

	if err := e.fsm.ClearState(ctx, userID); err != nil {
		return Reply{}, apperrors.NewStorageError(err)
	}
	return Reply{Text: e.t.T("dialog.cancelled"), Done: true}, nil
}

// Reset silently clears any dialog, as /start does.
func (e *Engine) Reset(ctx context.Context, userID int64) error {
	if err := e.fsm.ClearState(ctx, userID); err != nil {
		return apperrors.NewStorageError(err)
	}
	return nil
}

func (e *Engine) advance(ctx context.Context, userID int64, next state.State, key, value, prompt string) (Reply, error) {
	if _, err := e.fsm.Advance(ctx, userID, next, key, value); err != nil {
		if errors.Is(err, state.ErrInvalidTransition) || errors.Is(err, state.ErrStateNotFound) {
			return Reply{}, apperrors.NewStateError("dialog moved concurrently", err)
		}
		return Reply{}, apperrors.NewStorageError(err)
	}
	return Reply{Text: prompt}, nil
}

// reset clears state after a terminal outcome; failures are logged since the outcome already happened.
func (e *Engine) reset(ctx context.Context, userID int64) {
	if err := e.fsm.ClearState(ctx, userID); err != nil {
		e.log.Error("failed to clear dialog state", slog.Int64("user_id", userID), slog.Any("error", err))
	}
}

func (e *Engine) done(ctx context.Context, userID int64, text string) (Reply, error) {
	e.reset(ctx, userID)
	return Reply{Text: text, Done: true}, nil
}
