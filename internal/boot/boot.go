// Package boot sequences a session from a fresh process to a usable prompt:
// load the schema, restore the profile, then hand off at READY.
package boot

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/joestump/lela/internal/profile"
	"github.com/joestump/lela/internal/store"
)

// ErrNotInitialized is returned when ticking a nil machine.
var ErrNotInitialized = errors.New("lela is not initialized")

// State is a boot stage.
type State int

const (
	Init State = iota
	DDL
	Boot
	Ready
	Idle
)

func (s State) String() string {
	switch s {
	case Init:
		return "INIT"
	case DDL:
		return "DDL"
	case Boot:
		return "BOOT"
	case Ready:
		return "READY"
	case Idle:
		return "IDLE"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Stage is the work performed while leaving a boot state.
type Stage interface {
	Run(ctx context.Context, q store.Querier) error
}

// SchemaStage applies the idempotent DDL.
type SchemaStage struct {
	DDL string
}

// Run executes the DDL script.
func (s SchemaStage) Run(ctx context.Context, q store.Querier) error {
	if err := q.Exec(ctx, s.DDL); err != nil {
		return fmt.Errorf("load ddl: %w", err)
	}
	return nil
}

// RestoreStage copies any persisted profile into Profile.
type RestoreStage struct {
	Profile *profile.Profile
}

// Run selects the profile row and assigns its columns by name.
func (s RestoreStage) Run(ctx context.Context, q store.Querier) error {
	if err := profile.Restore(ctx, q, s.Profile); err != nil {
		return fmt.Errorf("restore profile: %w", err)
	}
	return nil
}

// Machine drives the boot sequence. The zero value is not usable; build one
// with New.
type Machine struct {
	state   State
	q       store.Querier
	schema  Stage
	restore Stage
	logger  *zap.Logger

	// OnTransition, when set, observes every state change.
	OnTransition func(from, to State)
}

// New returns a machine in the INIT state that runs the schema and restore
// stages against q.
func New(q store.Querier, schema, restore Stage, logger *zap.Logger) *Machine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Machine{
		state:   Init,
		q:       q,
		schema:  schema,
		restore: restore,
		logger:  logger.Named("boot"),
	}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Tick advances the machine. INIT and DDL re-tick immediately; BOOT stops at
// READY, and READY and IDLE are fixed points. A failing stage leaves the
// state where it was.
func (m *Machine) Tick(ctx context.Context) error {
	if m == nil {
		return ErrNotInitialized
	}

	switch m.state {
	case Init:
		m.advance(DDL)
		return m.Tick(ctx)

	case DDL:
		m.logger.Debug("loading ddl")
		if err := m.schema.Run(ctx, m.q); err != nil {
			return err
		}
		m.advance(Boot)
		return m.Tick(ctx)

	case Boot:
		m.logger.Debug("loading data")
		if err := m.restore.Run(ctx, m.q); err != nil {
			return err
		}
		m.advance(Ready)
		return nil

	case Ready, Idle:
		return nil
	}

	return fmt.Errorf("unknown boot state %s", m.state)
}

// MarkIdle moves a READY machine to IDLE once the greeting or onboarding
// is done.
func (m *Machine) MarkIdle() error {
	if m == nil {
		return ErrNotInitialized
	}
	if m.state != Ready {
		return fmt.Errorf("cannot go idle from %s", m.state)
	}
	m.advance(Idle)
	return nil
}

func (m *Machine) advance(to State) {
	from := m.state
	m.state = to
	m.logger.Debug("state transition", zap.Stringer("from", from), zap.Stringer("to", to))
	if m.OnTransition != nil {
		m.OnTransition(from, to)
	}
}
