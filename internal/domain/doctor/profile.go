package doctor

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/akith22/DiagNote-sub000/internal/domain/availability"
	"github.com/akith22/DiagNote-sub000/internal/platform/apiclient"
)

var ErrNoProfile = errors.New("doctor profile not created yet")

// Profile mirrors the backend doctor profile.
type Profile struct {
	DoctorID        int64  `json:"doctorId,omitempty"`
	Name            string `json:"name,omitempty"`
	Email           string `json:"email,omitempty"`
	Specialization  string `json:"specialization"`
	LicenseNumber   string `json:"licenseNumber"`
	AvailableTimes  string `json:"availableTimes"`
	ProfileComplete bool   `json:"profileComplete"`
}

// Availability parses AvailableTimes.
func (p Profile) Availability() availability.Filter {
	return availability.ParseList(p.AvailableTimes)
}

type Service struct {
	api *apiclient.Client
}

func NewService(api *apiclient.Client) *Service {
	return &Service{api: api}
}

// Get returns the signed-in doctor's profile, or ErrNoProfile when the
// backend has none.
func (s *Service) Get(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := s.api.Get(ctx, "/doctor/profile", &p); err != nil {
		if apiclient.StatusOf(err) == http.StatusNotFound {
			return nil, ErrNoProfile
		}
		return nil, err
	}
	if p.Specialization == "" && p.LicenseNumber == "" && p.AvailableTimes == "" && !p.ProfileComplete {
		return nil, ErrNoProfile
	}
	return &p, nil
}

// Validate checks the editable fields.
func Validate(p Profile) error {
	if strings.TrimSpace(p.Specialization) == "" {
		return apiclient.Validation("specialization is required")
	}
	if strings.TrimSpace(p.LicenseNumber) == "" {
		return apiclient.Validation("license number is required")
	}
	if bad := availability.ParseList(p.AvailableTimes).Malformed(); len(bad) > 0 {
		return apiclient.Validationf("invalid availability %q, use \"Day HH:MM-HH:MM\"", bad[0])
	}
	return nil
}

// Save creates the profile when none exists yet, otherwise updates it.
// The server's copy is returned.
func (s *Service) Save(ctx context.Context, p Profile) (*Profile, error) {
	p.Specialization = strings.TrimSpace(p.Specialization)
	p.LicenseNumber = strings.TrimSpace(p.LicenseNumber)
	p.AvailableTimes = availability.Format(availability.ParseList(p.AvailableTimes).Windows())
	if err := Validate(p); err != nil {
		return nil, err
	}

	_, err := s.Get(ctx)
	switch {
	case errors.Is(err, ErrNoProfile):
		return s.write(ctx, http.MethodPost, p)
	case err != nil:
		return nil, err
	}
	return s.write(ctx, http.MethodPut, p)
}

func (s *Service) write(ctx context.Context, method string, p Profile) (*Profile, error) {
	var out Profile
	if err := s.api.Do(ctx, method, "/doctor/profile", p, &out); err != nil {
		return nil, err
	}
	if out.Specialization == "" && out.LicenseNumber == "" {
		out = p
	}
	return &out, nil
}
