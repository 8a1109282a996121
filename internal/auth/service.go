package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taskboard/internal/apiclient"
	"github.com/taskboard/internal/apipaths"
	"github.com/taskboard/internal/session"
	"github.com/taskboard/internal/validation"
)

// Credentials is the login form
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the registration form. ConfirmPassword is checked locally
// and never sent.
type Registration struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"-"`
}

// RegisterResult is the body of POST /auth/register
type RegisterResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// RegisterError is returned when the API answers 2xx with success=false
type RegisterError struct {
	Message string
}

func (e *RegisterError) Error() string {
	if e.Message == "" {
		return "registration failed"
	}
	return "registration failed: " + e.Message
}

// Service drives the login, register and logout flows through the
// authenticated client.
type Service struct {
	client  *apiclient.Client
	session *session.Manager
	logger  *slog.Logger
}

// NewService creates an auth service over the client's session.
func NewService(client *apiclient.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client:  client,
		session: client.Session(),
		logger:  logger,
	}
}

// Login validates the form and signs in. The API sets the session cookies;
// a token in the body is mirrored as well.
func (s *Service) Login(ctx context.Context, creds Credentials) (session.Session, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if err := validation.ValidateCredentials(creds.Email, creds.Password); err != nil {
		return session.Session{}, err
	}

	resp, err := s.client.Post(ctx, apipaths.AuthLogin, creds)
	if err != nil {
		return session.Session{}, fmt.Errorf("login failed: %w", err)
	}

	var body struct {
		AccessToken string `json:"accessToken"`
	}
	// Body schema belongs to the API; a missing or odd body is fine
	_ = resp.Decode(&body)
	if body.AccessToken != "" {
		if err := s.session.Set(body.AccessToken); err != nil {
			s.logger.WarnContext(ctx, "auth: failed to persist session", "error", err)
		}
	}

	current, ok := s.session.Get()
	s.logger.InfoContext(ctx, "auth: logged in",
		"email", creds.Email,
		"has_token", ok,
	)
	return current, nil
}

// Register validates the form and creates an account.
func (s *Service) Register(ctx context.Context, reg Registration) (*RegisterResult, error) {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Email = strings.TrimSpace(reg.Email)
	if err := validation.ValidateRegistration(reg.Name, reg.Email, reg.Password, reg.ConfirmPassword); err != nil {
		return nil, err
	}

	resp, err := s.client.Post(ctx, apipaths.AuthRegister, reg)
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}

	var result RegisterResult
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, &RegisterError{Message: result.Message}
	}

	s.logger.InfoContext(ctx, "auth: registered", "email", reg.Email)
	return &result, nil
}

// Logout ends the session server-side, then clears local state and goes to
// the login page. On failure local state is left alone.
func (s *Service) Logout(ctx context.Context) error {
	if _, err := s.client.Post(ctx, apipaths.AuthLogout, nil); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	s.logger.InfoContext(ctx, "auth: logged out")
	s.session.Terminate()
	return nil
}
