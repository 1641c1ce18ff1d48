package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"foodshare-api/apperror"
	"foodshare-api/auth"
	"foodshare-api/models"
	"foodshare-api/store"

	"go.uber.org/zap"
)

type RegisterInput struct {
	Name         string          `json:"name" binding:"required"`
	Email        string          `json:"email" binding:"required,email"`
	Password     string          `json:"password" binding:"required,min=6"`
	Role         models.UserRole `json:"role" binding:"required,oneof=donor ngo volunteer"`
	Phone        string          `json:"phone"`
	Organization string          `json:"organization"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ProfileInput changes only the fields that are set.
type ProfileInput struct {
	Name         *string `json:"name" binding:"omitempty,min=1"`
	Phone        *string `json:"phone"`
	Organization *string `json:"organization"`
}

// Session is what a successful register or login hands back.
type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type AuthService struct {
	*deps
	tokens *auth.TokenManager
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UnmarshalJSON normalizes the email before binding validates it.
func (in *RegisterInput) UnmarshalJSON(b []byte) error {
	type plain RegisterInput
	if err := json.Unmarshal(b, (*plain)(in)); err != nil {
		return err
	}
	in.Email = normalizeEmail(in.Email)
	return nil
}

func (in *LoginInput) UnmarshalJSON(b []byte) error {
	type plain LoginInput
	if err := json.Unmarshal(b, (*plain)(in)); err != nil {
		return err
	}
	in.Email = normalizeEmail(in.Email)
	return nil
}

// Register creates a donor, NGO or volunteer account and signs a token for it.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Email = normalizeEmail(in.Email)
	if err := s.check(in); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, internal("hash password", err)
	}

	user := &models.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		Phone:        strings.TrimSpace(in.Phone),
		Organization: strings.TrimSpace(in.Organization),
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperror.Validation("User already exists",
				apperror.FieldError{Field: "email", Message: "is already registered"})
		}
		return nil, internal("create user", err)
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return s.issue(user)
}

// Login checks credentials. Unknown emails and wrong passwords look the same.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	in.Email = normalizeEmail(in.Email)
	if err := s.check(in); err != nil {
		return nil, err
	}
	user, err := s.store.Users().FindByEmail(ctx, in.Email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.Auth("Invalid credentials")
	}
	if err != nil {
		return nil, internal("find user", err)
	}
	if !auth.CheckPassword(in.Password, user.PasswordHash) {
		return nil, apperror.Auth("Invalid credentials")
	}
	return s.issue(user)
}

// CurrentUser resolves a bearer token to a live account.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, apperror.Auth("Not authorized, no token")
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, apperror.Auth("Not authorized, token failed").Wrap(err)
	}
	user, err := s.store.Users().FindByID(ctx, claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.Auth("User no longer exists")
	}
	if err != nil {
		return nil, internal("find user", err)
	}
	return user, nil
}

func (s *AuthService) Profile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.store.Users().FindByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.NotFound("User not found")
	}
	if err != nil {
		return nil, internal("find user", err)
	}
	return user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*models.User, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		user.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Organization != nil {
		user.Organization = strings.TrimSpace(*in.Organization)
	}
	if err := s.store.Users().Update(ctx, user); err != nil {
		return nil, internal("update user", err)
	}
	return user, nil
}

// SeedAdmin creates the configured administrator unless the account exists.
// It reports whether a new account was created.
func (s *AuthService) SeedAdmin(ctx context.Context, email, password, name string) (bool, error) {
	email = normalizeEmail(email)
	existing, err := s.store.Users().FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role != models.RoleAdmin {
			return false, apperror.Conflict(fmt.Sprintf("%s is registered with role %s", email, existing.Role))
		}
		return false, nil
	case !errors.Is(err, store.ErrNotFound):
		return false, internal("find admin", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, internal("hash password", err)
	}
	if name == "" {
		name = "Administrator"
	}
	admin := &models.User{Name: name, Email: email, PasswordHash: hash, Role: models.RoleAdmin}
	if err := s.store.Users().Create(ctx, admin); err != nil {
		return false, internal("create admin", err)
	}
	s.logger.Info("admin account seeded", zap.String("user_id", admin.ID), zap.String("email", email))
	return true, nil
}

func (s *AuthService) issue(user *models.User) (*Session, error) {
	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, internal("generate token", err)
	}
	return &Session{Token: token, User: user}, nil
}
