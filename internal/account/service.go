// Package account drives onboarding and the signed-in session: identify,
// sign up, sign in, profile updates and logout.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/matheus3301/mingle/internal/backend"
	"github.com/matheus3301/mingle/internal/bus"
	"github.com/matheus3301/mingle/internal/chat"
	"github.com/matheus3301/mingle/internal/logging"
	"github.com/matheus3301/mingle/internal/outbox"
	"github.com/matheus3301/mingle/internal/poll"
	"github.com/matheus3301/mingle/internal/session"
	"github.com/matheus3301/mingle/internal/status"
)

// Service owns the account lifecycle.
type Service struct {
	actions backend.Actions
	keeper  *session.Keeper
	machine *status.Machine
	sched   *poll.Scheduler
	tracker *outbox.Tracker
	bus     *bus.Bus
	log     *zap.Logger
}

// NewService creates a Service. sched and tracker may be nil.
func NewService(actions backend.Actions, keeper *session.Keeper, machine *status.Machine, sched *poll.Scheduler, tracker *outbox.Tracker, b *bus.Bus, logger *zap.Logger) *Service {
	return &Service{
		actions: actions,
		keeper:  keeper,
		machine: machine,
		sched:   sched,
		tracker: tracker,
		bus:     b,
		log:     logging.OrNop(logger),
	}
}

// Restore loads the stored session. ok is false when the user has to sign in.
func (s *Service) Restore(ctx context.Context) (chat.User, bool, error) {
	u, err := s.keeper.Load(ctx)
	if errors.Is(err, session.ErrNoSession) {
		s.ensure(status.SignedOut)
		return chat.User{}, false, nil
	}
	if err != nil {
		return chat.User{}, false, err
	}
	s.log.Info("session restored", zap.String("user_id", string(u.ID)))
	s.ensure(status.Online)
	return u, true, nil
}

// Current returns the signed-in user.
func (s *Service) Current() (chat.User, bool) {
	return s.keeper.Current()
}

// Identify asks the server whether mobile has an account.
func (s *Service) Identify(ctx context.Context, mobile string) (backend.StartResult, error) {
	mobile = strings.TrimSpace(mobile)
	if mobile == "" {
		return backend.StartResult{}, &FieldError{Field: FieldMobile, Message: MsgMobileRequired}
	}
	res, err := s.actions.Start(ctx, mobile)
	if err != nil {
		return backend.StartResult{}, fmt.Errorf("identify: %w", err)
	}
	return res, nil
}

// SignUp validates the form locally and registers the account. Validation
// failures come back as FormErrors without any request being made.
func (s *Service) SignUp(ctx context.Context, form backend.SignUpForm) (string, error) {
	if errs := ValidateSignUp(form); len(errs) > 0 {
		return "", errs
	}
	form.Name = strings.TrimSpace(form.Name)

	name, err := s.actions.SignUp(ctx, form)
	if err == nil {
		s.log.Info("account registered", zap.String("mobile", form.Mobile))
		return name, nil
	}
	var rej *backend.RejectedError
	if errors.As(err, &rej) {
		field := FieldPassword
		if rej.Message == serverNameEmpty {
			field = FieldName
		}
		return "", FormErrors{{Field: field, Message: rej.Message}}
	}
	return "", fmt.Errorf("sign up: %w", err)
}

// ValidateSignUp returns the local validation failures of form.
func ValidateSignUp(form backend.SignUpForm) FormErrors {
	var errs FormErrors
	if strings.TrimSpace(form.Name) == "" {
		errs = append(errs, &FieldError{Field: FieldName, Message: MsgNameRequired})
	}
	if len(form.Password) < MinPasswordLen {
		errs = append(errs, &FieldError{Field: FieldPassword, Message: MsgPasswordShort})
	}
	return errs
}

// SignIn exchanges credentials for the user record and stores it as the session.
func (s *Service) SignIn(ctx context.Context, mobile, password string) (chat.User, error) {
	u, err := s.actions.SignIn(ctx, strings.TrimSpace(mobile), password)
	if err != nil {
		return chat.User{}, fmt.Errorf("sign in: %w", err)
	}
	if err := s.keeper.Save(ctx, u); err != nil {
		return chat.User{}, err
	}
	s.log.Info("signed in", zap.String("user_id", string(u.ID)))
	s.ensure(status.Online)
	s.bus.Publish(bus.NewEvent(bus.KindSignedIn, u))
	return u, nil
}

// UpdateProfile renames the user and optionally replaces the avatar. The
// server's user record replaces the stored session.
func (s *Service) UpdateProfile(ctx context.Context, name string, image *backend.Upload) (chat.User, error) {
	cur, ok := s.keeper.Current()
	if !ok {
		return chat.User{}, session.ErrNoSession
	}
	if name == "" {
		return chat.User{}, &FieldError{Field: FieldName, Message: MsgEmptyName}
	}
	u, err := s.actions.UpdateProfile(ctx, cur.ID, name, image)
	if err != nil {
		return chat.User{}, fmt.Errorf("update profile: %w", err)
	}
	if err := s.keeper.Save(ctx, u); err != nil {
		return chat.User{}, err
	}
	s.log.Info("profile updated", zap.String("user_id", string(u.ID)), zap.Bool("image", image != nil))
	return u, nil
}

// Logout stops every poll, drops pending sends and clears the session.
func (s *Service) Logout(ctx context.Context) error {
	if s.sched != nil {
		s.sched.StopAll()
	}
	if s.tracker != nil {
		s.tracker.Reset()
	}
	if err := s.keeper.Clear(ctx); err != nil {
		return err
	}
	s.log.Info("signed out")
	s.ensure(status.SignedOut)
	s.bus.Publish(bus.NewEvent(bus.KindSignedOut, nil))
	return nil
}

func (s *Service) ensure(to status.State) {
	if s.machine == nil {
		return
	}
	if err := s.machine.Ensure(to); err != nil {
		s.log.Debug("status transition skipped", zap.Error(err))
	}
}
