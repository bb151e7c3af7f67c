// Package services contains server-side business logic. This file implements
// UserService, which registers users, verifies their credentials and issues
// access tokens on login.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
)

// Outcome labels reported to the Recorder.
const (
	OutcomeSuccess            = "success"
	OutcomeInvalidInput       = "invalid_input"
	OutcomeUsernameTaken      = "username_taken"
	OutcomePasswordTooLong    = "password_too_long"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeError              = "error"
)

// TokenIssuer mints an access token for an authenticated user.
type TokenIssuer interface {
	Issue(userID int64, username string) (string, error)
}

// Recorder counts registration and login outcomes.
type Recorder interface {
	ObserveRegistration(outcome string)
	ObserveLogin(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveRegistration(string) {}
func (nopRecorder) ObserveLogin(string)        {}

// LoginResult is what a successful login hands back to the caller.
type LoginResult struct {
	User  *models.User
	Token string
}

// UserService provides the credential operations:
// - Register: validate, hash and store a new user
// - Verify: check a username/password pair
// - Login: Verify, then issue an access token
type UserService struct {
	repo     users.Repository
	hasher   auth.PasswordHasher
	tokens   TokenIssuer
	recorder Recorder
}

// NewUserService wires the service. A nil recorder disables counting.
func NewUserService(repo users.Repository, hasher auth.PasswordHasher, tokens TokenIssuer, recorder Recorder) *UserService {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &UserService{repo: repo, hasher: hasher, tokens: tokens, recorder: recorder}
}

// Register creates a user with a bcrypt hash of password.
// It returns common.ErrInvalidInput, common.ErrUsernameTaken or
// common.ErrPasswordTooLong for caller mistakes; anything else is wrapped.
func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.register(ctx, username, password)
	s.recorder.ObserveRegistration(outcomeOf(err))
	return user, err
}

func (s *UserService) register(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, common.ErrInvalidInput
	}

	// Fast path: skip the hash when the name is obviously taken.
	_, err := s.repo.GetUserByLogin(ctx, username)
	switch {
	case err == nil:
		return nil, common.ErrUsernameTaken
	case !errors.Is(err, common.ErrorNotFound):
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, common.ErrPasswordTooLong) {
			return nil, err
		}
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user, err := s.repo.Create(ctx, username, hash)
	if err != nil {
		// Lost a race with a concurrent registration of the same name.
		if errors.Is(err, common.ErrorConflict) {
			return nil, common.ErrUsernameTaken
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return user, nil
}

// Verify returns the stored user when password matches. An unknown user and
// a wrong password both yield common.ErrInvalidCredentials.
func (s *UserService) Verify(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, common.ErrInvalidInput
	}

	user, err := s.repo.GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			return nil, err
		}
		return nil, fmt.Errorf("error comparing password: %w", err)
	}
	return user, nil
}

// Login verifies the credentials and issues an access token.
func (s *UserService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	res, err := s.login(ctx, username, password)
	s.recorder.ObserveLogin(outcomeOf(err))
	return res, err
}

func (s *UserService) login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.Verify(ctx, username, password)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID, user.UserName)
	if err != nil {
		return nil, fmt.Errorf("error issuing token: %w", err)
	}
	return &LoginResult{User: user, Token: token}, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, common.ErrInvalidInput):
		return OutcomeInvalidInput
	case errors.Is(err, common.ErrUsernameTaken):
		return OutcomeUsernameTaken
	case errors.Is(err, common.ErrPasswordTooLong):
		return OutcomePasswordTooLong
	case errors.Is(err, common.ErrInvalidCredentials):
		return OutcomeInvalidCredentials
	default:
		return OutcomeError
	}
}
