package identity

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/akith22/DiagNote-sub000/internal/platform/apiclient"
	"github.com/akith22/DiagNote-sub000/internal/platform/session"
)

// MinPasswordLength is enforced before registration requests are sent.
const MinPasswordLength = 6

type Service struct {
	api     *apiclient.Client
	session *session.Session
}

func NewService(api *apiclient.Client, sess *session.Session) *Service {
	return &Service{api: api, session: sess}
}

// Login authenticates, stores token and user, and returns the dashboard route.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apiclient.Validation("email and password are required")
	}

	var resp loginResponse
	if err := s.api.Post(ctx, "/auth/login", LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, &apiclient.Error{Kind: apiclient.KindUnexpected, Message: "login response did not include a token"}
	}

	user := resp.user()
	if user.Email == "" {
		user.Email = email
	}
	if err := s.session.Save(ctx, resp.Token, user); err != nil {
		return nil, &apiclient.Error{Kind: apiclient.KindUnexpected, Message: apiclient.MsgUnexpected, Err: err}
	}
	return &LoginResult{User: user, Route: DashboardRoute(user.Role)}, nil
}

// Register validates the request client-side and creates the account.
func (s *Service) Register(ctx context.Context, req RegisterRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Role = NormalizeRole(req.Role)
	if err := validateRegistration(req); err != nil {
		return err
	}
	return s.api.Post(ctx, "/auth/register", req, nil)
}

func validateRegistration(req RegisterRequest) error {
	if req.Name == "" {
		return apiclient.Validation("name is required")
	}
	if req.Email == "" {
		return apiclient.Validation("email is required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil || !strings.Contains(req.Email, "@") {
		return apiclient.Validation("email is not valid")
	}
	if len(req.Password) < MinPasswordLength {
		return apiclient.Validationf("password must be at least %d characters", MinPasswordLength)
	}
	if !ValidRole(req.Role) {
		return apiclient.Validationf("role must be %s, %s, or %s", RoleDoctor, RolePatient, RoleLabTech)
	}
	return nil
}

// Logout clears the stored session.
func (s *Service) Logout(ctx context.Context) error {
	return s.session.Clear(ctx)
}

// Current returns the cached user, its route and the token expiry if the
// token carries one.
func (s *Service) Current(ctx context.Context) (*Current, error) {
	user, err := s.session.User(ctx)
	if err != nil {
		return nil, err
	}
	tok, err := s.session.Token(ctx)
	if err != nil {
		return nil, err
	}
	if tok == "" {
		return nil, session.ErrNoSession
	}
	cur := &Current{User: *user, Route: DashboardRoute(user.Role)}
	if exp, ok := session.TokenExpiry(tok); ok {
		cur.ExpiresAt = &exp
	}
	return cur, nil
}

// RequireRole fails with a validation error unless the session user has role.
func (s *Service) RequireRole(ctx context.Context, role string) (*session.User, error) {
	user, err := s.session.User(ctx)
	if errors.Is(err, session.ErrNoSession) {
		return nil, apiclient.Validation("not logged in, run `diagnote login` first")
	}
	if err != nil {
		return nil, err
	}
	if NormalizeRole(user.Role) != role {
		return nil, apiclient.Validationf("this action requires the %s role, you are logged in as %s", role, user.Role)
	}
	return user, nil
}
