// Package service implements the donation marketplace operations on top of a
// store.Store. Every error returned to callers is an *apperror.Error.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"foodshare-api/apperror"
	"foodshare-api/auth"
	"foodshare-api/models"
	"foodshare-api/statemachine"
	"foodshare-api/store"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Caller is the authenticated user performing an operation.
type Caller struct {
	ID   string
	Role models.UserRole
}

type Option func(*deps)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(d *deps) { d.now = now }
}

type deps struct {
	store    store.Store
	logger   *zap.Logger
	now      func() time.Time
	validate *validator.Validate
}

func (d *deps) clock() time.Time { return d.now().UTC() }

func (d *deps) check(input any) error {
	if err := d.validate.Struct(input); err != nil {
		return apperror.FromBinding(err)
	}
	return nil
}

// Services bundles every domain service over one store.
type Services struct {
	Auth          *AuthService
	Donations     *DonationService
	Claims        *ClaimService
	Pickups       *PickupService
	Notifications *NotificationService
	Admin         *AdminService
}

func New(st store.Store, tokens *auth.TokenManager, logger *zap.Logger, opts ...Option) *Services {
	d := &deps{
		store:    st,
		logger:   logger,
		now:      time.Now,
		validate: apperror.NewValidator(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return &Services{
		Auth:          &AuthService{deps: d, tokens: tokens},
		Donations:     &DonationService{deps: d},
		Claims:        &ClaimService{deps: d},
		Pickups:       &PickupService{deps: d},
		Notifications: &NotificationService{deps: d},
		Admin:         &AdminService{deps: d},
	}
}

// Ping reports whether the backing store is reachable.
func (s *Services) Ping(ctx context.Context) error {
	return s.Auth.store.Ping(ctx)
}

// internal wraps an unexpected store failure; an *apperror.Error passes through.
func internal(op string, err error) error {
	if _, ok := apperror.As(err); ok {
		return err
	}
	return apperror.Internal(fmt.Errorf("%s: %w", op, err))
}

// transitionError maps a state machine rejection onto the error taxonomy.
func transitionError(err error) error {
	if errors.Is(err, statemachine.ErrActorNotAllowed) {
		return apperror.Authz(err.Error()).Wrap(err)
	}
	return apperror.Validation(err.Error()).Wrap(err)
}

func notify(ctx context.Context, st store.Store, userID string, typ models.NotificationType, msg string) error {
	if userID == "" {
		return nil
	}
	n := &models.Notification{UserID: userID, Type: typ, Message: msg}
	if err := st.Notifications().Create(ctx, n); err != nil {
		return fmt.Errorf("notify %s: %w", userID, err)
	}
	return nil
}

func statusField(allowed string) apperror.FieldError {
	return apperror.FieldError{Field: "status", Message: "must be one of: " + allowed}
}
