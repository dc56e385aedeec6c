// Package session owns a single lela session: it boots the store, greets or
// onboards the user, then reads commands until input runs out.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/joestump/lela/internal/boot"
	"github.com/joestump/lela/internal/config"
	"github.com/joestump/lela/internal/console"
	"github.com/joestump/lela/internal/dialogue"
	"github.com/joestump/lela/internal/profile"
	"github.com/joestump/lela/internal/prompt"
	"github.com/joestump/lela/internal/store"
)

// Options carries the collaborators a Session talks through. Zero fields get
// process defaults (stdin/stdout/stderr, a time-seeded dice, a no-op logger).
type Options struct {
	In     prompt.LineReader
	Out    io.Writer
	Err    io.Writer
	Dice   dialogue.Dice
	Logger *zap.Logger
}

// Session is the application context. It is owned by whoever calls Run and
// must be released with Close.
type Session struct {
	id      string
	cfg     config.Config
	store   *store.Store
	machine *boot.Machine
	profile profile.Profile
	in      prompt.LineReader
	console *console.Console
	engine  *dialogue.Engine
	logger  *zap.Logger
	sleep   func(time.Duration)

	closeMu  sync.Mutex
	inClosed bool
}

// New builds a session in the INIT state. Nothing is opened until Run.
func New(cfg config.Config, opts Options) *Session {
	id := uuid.NewString()

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("session", id))

	out, errOut := opts.Out, opts.Err
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}

	in := opts.In
	if in == nil {
		in = prompt.Stdin()
	}

	dice := opts.Dice
	if dice == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		dice = rand.New(rand.NewSource(seed))
	}

	s := &Session{
		id:      id,
		cfg:     cfg,
		store:   store.New(cfg.DB, logger),
		in:      in,
		console: console.New(out, errOut, cfg.Preamble, cfg.TypingDelay),
		logger:  logger,
		sleep:   time.Sleep,
	}
	s.machine = boot.New(s.store,
		boot.SchemaStage{DDL: store.Schema},
		boot.RestoreStage{Profile: &s.profile},
		logger)
	s.engine = dialogue.New(in, s.console, dice, logger)
	return s
}

// State returns the current boot state.
func (s *Session) State() boot.State {
	return s.machine.State()
}

// Profile returns a copy of the user profile.
func (s *Session) Profile() profile.Profile {
	return s.profile
}

// Run boots the session and polls its state until input is exhausted or the
// user quits, which return nil. Any other error is fatal.
func (s *Session) Run(ctx context.Context) error {
	if s == nil {
		return boot.ErrNotInitialized
	}
	s.logger.Info("session started",
		zap.String("db", s.cfg.DB.URI),
		zap.Duration("poll_interval", s.cfg.PollInterval))

	if err := s.store.Open(ctx); err != nil {
		return s.finish(err)
	}
	if err := s.machine.Tick(ctx); err != nil {
		return s.finish(err)
	}

	for {
		if s.cfg.PollInterval > 0 {
			s.sleep(s.cfg.PollInterval)
		}
		if ctx.Err() != nil {
			s.logger.Debug("session cancelled")
			return nil
		}

		var err error
		switch s.machine.State() {
		case boot.Ready:
			if err = s.welcome(ctx); err == nil {
				err = s.machine.MarkIdle()
			}
		case boot.Idle:
			err = s.parseInput(ctx)
		default:
			err = s.machine.Tick(ctx)
		}

		if err != nil {
			return s.finish(err)
		}
	}
}

// finish maps end of input, quit and cancellation to a clean exit.
func (s *Session) finish(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, ErrQuit) || errors.Is(err, context.Canceled) {
		s.logger.Debug("session ended", zap.Error(err))
		return nil
	}
	return err
}

// Close releases the database handle, then the line reader. It is safe to
// call more than once and from another goroutine.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	s.closeMu.Lock()
	defer s.closeMu.Unlock()

	var errs []error
	if err := s.store.Close(); err != nil {
		errs = append(errs, err)
	}
	if !s.inClosed {
		if err := s.in.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close input: %w", err))
		}
		s.inClosed = true
	}
	return errors.Join(errs...)
}

func (s *Session) welcome(ctx context.Context) error {
	if s.profile.Known() {
		s.engine.Greet(&s.profile)
		return nil
	}

	if err := s.engine.Onboard(ctx, &s.profile); err != nil {
		return err
	}
	return profile.Save(ctx, s.store, s.profile)
}
