package identity

import (
	"strings"
	"time"

	"github.com/akith22/DiagNote-sub000/internal/platform/session"
)

// Roles recognised by the portal.
const (
	RoleDoctor  = "DOCTOR"
	RolePatient = "PATIENT"
	RoleLabTech = "LABTECH"
)

var dashboardRoutes = map[string]string{
	RoleDoctor:  "/doctor/dashboard",
	RolePatient: "/patient/dashboard",
	RoleLabTech: "/labtech/dashboard",
}

// NormalizeRole uppercases role and strips a Spring-style ROLE_ prefix.
func NormalizeRole(role string) string {
	r := strings.ToUpper(strings.TrimSpace(role))
	return strings.TrimPrefix(r, "ROLE_")
}

// ValidRole reports whether role is one of the three portal roles.
func ValidRole(role string) bool {
	_, ok := dashboardRoutes[NormalizeRole(role)]
	return ok
}

// DashboardRoute returns the landing route for role; unknown roles go to "/".
func DashboardRoute(role string) string {
	if r, ok := dashboardRoutes[NormalizeRole(role)]; ok {
		return r
	}
	return "/"
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// loginResponse accepts the user nested under "user" or flattened next to
// the token.
type loginResponse struct {
	Token  string        `json:"token"`
	User   *session.User `json:"user,omitempty"`
	UserID int64         `json:"userId"`
	Name   string        `json:"name"`
	Email  string        `json:"email"`
	Role   string        `json:"role"`
}

func (r loginResponse) user() session.User {
	u := session.User{UserID: r.UserID, Name: r.Name, Email: r.Email, Role: r.Role}
	if r.User != nil {
		u = *r.User
	}
	u.Role = NormalizeRole(u.Role)
	return u
}

// LoginResult is returned after a successful login.
type LoginResult struct {
	User  session.User
	Route string
}

// Current describes the active session.
type Current struct {
	User      session.User
	Route     string
	ExpiresAt *time.Time
}
