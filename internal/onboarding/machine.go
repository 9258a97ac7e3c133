package onboarding

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"giftgroup-onboarding/internal/models"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"github.com/rs/zerolog"
)

const (
	eventAdvance = "advance"
	eventRetreat = "retreat"
	eventSkip    = "skip"
)

func transitions() fsm.Events {
	var (
		join        = string(models.StepJoin)
		profile     = string(models.StepProfile)
		preferences = string(models.StepPreferences)
		linking     = string(models.StepLinking)
		complete    = string(models.StepComplete)
	)
	return fsm.Events{
		{Name: eventAdvance, Src: []string{join}, Dst: profile},
		{Name: eventAdvance, Src: []string{profile}, Dst: preferences},
		{Name: eventAdvance, Src: []string{preferences}, Dst: linking},
		{Name: eventAdvance, Src: []string{linking}, Dst: complete},
		{Name: eventRetreat, Src: []string{profile}, Dst: join},
		{Name: eventRetreat, Src: []string{preferences}, Dst: profile},
		{Name: eventRetreat, Src: []string{linking}, Dst: preferences},
		{Name: eventSkip, Src: []string{linking}, Dst: complete},
	}
}

// Input is what a step hands over when the user moves forward.
type Input interface {
	step() models.Step
}

// JoinInput carries the raw group code as typed.
type JoinInput struct{ GroupCode string }

// ProfileInput carries the display name and the chosen avatar.
type ProfileInput struct{ Name, Avatar string }

// PreferencesInput carries the ledger built on the preferences step.
type PreferencesInput struct{ Ledger *Ledger }

// LinkingInput records an account linking outcome obtained outside Link.
type LinkingInput struct{ Connected bool }

func (JoinInput) step() models.Step        { return models.StepJoin }
func (ProfileInput) step() models.Step     { return models.StepProfile }
func (PreferencesInput) step() models.Step { return models.StepPreferences }
func (LinkingInput) step() models.Step     { return models.StepLinking }

// Machine drives one user through join, profile, preferences, linking and
// complete, accumulating a UserRecord on the way. Going back never drops
// data. While the linker is running every transition fails with ErrBusy.
type Machine struct {
	mu      sync.Mutex
	id      string
	fsm     *fsm.FSM
	record  models.UserRecord
	busy    bool
	linker  Linker
	avatars []string
	log     zerolog.Logger
}

type Option func(*Machine)

// WithID sets the flow id used in logs. A random one is generated otherwise.
func WithID(id string) Option {
	return func(m *Machine) { m.id = id }
}

// WithAvatars replaces DefaultAvatars as the accepted avatar set.
func WithAvatars(avatars []string) Option {
	return func(m *Machine) { m.avatars = slices.Clone(avatars) }
}

func WithLogger(log zerolog.Logger) Option {
	return func(m *Machine) { m.log = log }
}

// NewMachine starts a flow on the join step. A nil linker connects instantly.
func NewMachine(linker Linker, opts ...Option) *Machine {
	if linker == nil {
		linker = SimulatedLinker{}
	}
	m := &Machine{
		id:      uuid.NewString(),
		record:  models.UserRecord{}.Clone(),
		linker:  linker,
		avatars: DefaultAvatars,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With().Str("flow", m.id).Logger()
	m.fsm = fsm.NewFSM(string(models.StepJoin), transitions(), fsm.Callbacks{
		"enter_state": func(_ context.Context, e *fsm.Event) {
			m.log.Debug().Str("event", e.Event).Str("from", e.Src).Str("to", e.Dst).Msg("Step changed")
		},
	})
	return m
}

func (m *Machine) ID() string {
	return m.id
}

// Step returns the current step.
func (m *Machine) Step() models.Step {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current()
}

// Busy reports whether a link call is in flight.
func (m *Machine) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.busy
}

// Record returns a copy of what has been collected so far.
func (m *Machine) Record() models.UserRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record.Clone()
}

// Avatars returns the avatar choices for the profile step.
func (m *Machine) Avatars() []string {
	return slices.Clone(m.avatars)
}

// Summary returns the finished record once the flow is complete.
func (m *Machine) Summary() (models.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current() != models.StepComplete {
		return models.UserRecord{}, ErrNotComplete
	}
	return m.record.Clone(), nil
}

// Advance validates in against the current step, merges it into the record
// and moves to the next step. On error nothing changes.
func (m *Machine) Advance(ctx context.Context, in Input) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check(eventAdvance); err != nil {
		return err
	}
	step := m.current()
	if in == nil || in.step() != step {
		return fmt.Errorf("%w: %T on %s", ErrWrongInput, in, step)
	}

	next := m.record.Clone()
	switch in := in.(type) {
	case JoinInput:
		code, err := ValidateGroupCode(in.GroupCode)
		if err != nil {
			return err
		}
		next.GroupCode = code
	case ProfileInput:
		name, err := ValidateProfile(in.Name, in.Avatar, m.avatars)
		if err != nil {
			return err
		}
		next.Name = name
		next.Avatar = in.Avatar
	case PreferencesInput:
		if err := ValidatePreferences(in.Ledger); err != nil {
			return err
		}
		next.Preferences = in.Ledger.Serialize()
	case LinkingInput:
		next.AmazonConnected = in.Connected
	}
	return m.fire(ctx, eventAdvance, next)
}

// Retreat moves to the previous step. The record is not touched.
func (m *Machine) Retreat(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check(eventRetreat); err != nil {
		return err
	}
	return m.fire(ctx, eventRetreat, m.record)
}

// SkipLinking completes the flow without an account connection.
func (m *Machine) SkipLinking(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check(eventSkip); err != nil {
		return err
	}
	next := m.record.Clone()
	next.AmazonConnected = false
	return m.fire(ctx, eventSkip, next)
}

// Link calls the linker and, if the account was connected, completes the
// flow. A decline or failure leaves the flow on the linking step so the
// user can try again or skip; nothing is retried here.
func (m *Machine) Link(ctx context.Context) error {
	if err := m.beginLink(); err != nil {
		return err
	}
	return m.finishLink(ctx)
}

// StartLink is Link without the wait. The flow is busy by the time it
// returns, and the outcome Link would have returned arrives on the channel.
func (m *Machine) StartLink(ctx context.Context) (<-chan error, error) {
	if err := m.beginLink(); err != nil {
		return nil, err
	}
	done := make(chan error, 1)
	go func() {
		done <- m.finishLink(ctx)
	}()
	return done, nil
}

func (m *Machine) beginLink() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check(eventAdvance); err != nil {
		return err
	}
	if step := m.current(); step != models.StepLinking {
		return fmt.Errorf("%w: link on %s", ErrInvalidTransition, step)
	}
	m.busy = true
	return nil
}

func (m *Machine) finishLink(ctx context.Context) error {
	m.log.Debug().Msg("Linking account")
	connected, err := m.linker.Link(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.busy = false

	if err != nil {
		m.log.Warn().Err(err).Msg("Account linking failed")
		return fmt.Errorf("%w: %w", ErrLinkFailed, err)
	}
	if !connected {
		m.log.Info().Msg("Account linking declined")
		return ErrLinkDeclined
	}
	next := m.record.Clone()
	next.AmazonConnected = true
	return m.fire(ctx, eventAdvance, next)
}

func (m *Machine) current() models.Step {
	return models.Step(m.fsm.Current())
}

// check must be called with m.mu held.
func (m *Machine) check(event string) error {
	if m.busy {
		return ErrBusy
	}
	step := m.current()
	if step == models.StepComplete {
		return ErrFlowComplete
	}
	if !m.fsm.Can(event) {
		return fmt.Errorf("%w: %s on %s", ErrInvalidTransition, event, step)
	}
	return nil
}

// fire must be called with m.mu held. The record is swapped only once the
// transition went through.
func (m *Machine) fire(ctx context.Context, event string, next models.UserRecord) error {
	// fsm refuses to transition on a done context
	if err := m.fsm.Event(context.WithoutCancel(ctx), event); err != nil {
		return fmt.Errorf("%s from %s: %w", event, m.current(), err)
	}
	m.record = next
	return nil
}
