package patient

import (
	"context"
	"strings"
	"time"

	"github.com/akith22/DiagNote-sub000/internal/platform/apiclient"
)

// DateLayout is the wire format of DateOfBirth.
const DateLayout = "2006-01-02"

// Profile mirrors the backend patient profile.
type Profile struct {
	PatientID   int64  `json:"patientId,omitempty"`
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	DateOfBirth string `json:"dateOfBirth"`
	Gender      string `json:"gender"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
}

type Service struct {
	api *apiclient.Client
	now func() time.Time
}

func NewService(api *apiclient.Client) *Service {
	return &Service{api: api, now: time.Now}
}

func (s *Service) Get(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := s.api.Get(ctx, "/patient/profile", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Update writes the editable fields and returns the server's copy.
func (s *Service) Update(ctx context.Context, p Profile) (*Profile, error) {
	p.DateOfBirth = strings.TrimSpace(p.DateOfBirth)
	p.Gender = strings.ToUpper(strings.TrimSpace(p.Gender))
	p.Phone = strings.TrimSpace(p.Phone)
	p.Address = strings.TrimSpace(p.Address)

	if p.DateOfBirth != "" {
		dob, err := time.Parse(DateLayout, p.DateOfBirth)
		if err != nil {
			return nil, apiclient.Validation("date of birth must be YYYY-MM-DD")
		}
		if dob.After(s.now()) {
			return nil, apiclient.Validation("date of birth cannot be in the future")
		}
	}

	var out Profile
	if err := s.api.Put(ctx, "/patient/profile", p, &out); err != nil {
		return nil, err
	}
	if out == (Profile{}) {
		out = p
	}
	return &out, nil
}
