package prescription

import (
	"context"
	"fmt"
	"strings"

	"github.com/akith22/DiagNote-sub000/internal/platform/apiclient"
)

// Prescription mirrors the backend prescription. In practice there is one
// per appointment; nothing here enforces that.
type Prescription struct {
	ID            int64  `json:"id"`
	AppointmentID int64  `json:"appointmentId"`
	Notes         string `json:"notes"`
	DateIssued    string `json:"dateIssued"`
	PatientName   string `json:"patientName"`
	DoctorName    string `json:"doctorName,omitempty"`
}

type notesRequest struct {
	Notes string `json:"notes"`
}

type Service struct {
	api *apiclient.Client
}

func NewService(api *apiclient.Client) *Service {
	return &Service{api: api}
}

func cleanNotes(notes string) (string, error) {
	n := strings.TrimSpace(notes)
	if n == "" {
		return "", apiclient.Validation("prescription notes are required")
	}
	return n, nil
}

// Create writes a prescription for an appointment.
func (s *Service) Create(ctx context.Context, appointmentID int64, notes string) (*Prescription, error) {
	if appointmentID <= 0 {
		return nil, apiclient.Validation("an appointment must be selected")
	}
	n, err := cleanNotes(notes)
	if err != nil {
		return nil, err
	}
	var p Prescription
	if err := s.api.Post(ctx, fmt.Sprintf("/doctor/appointments/%d/prescriptions", appointmentID), notesRequest{Notes: n}, &p); err != nil {
		return nil, err
	}
	if p.AppointmentID == 0 {
		p.AppointmentID = appointmentID
	}
	return &p, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Prescription, error) {
	var p Prescription
	if err := s.api.Get(ctx, fmt.Sprintf("/doctor/prescriptions/%d", id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Update replaces the notes and returns the server's copy.
func (s *Service) Update(ctx context.Context, id int64, notes string) (*Prescription, error) {
	n, err := cleanNotes(notes)
	if err != nil {
		return nil, err
	}
	var p Prescription
	if err := s.api.Put(ctx, fmt.Sprintf("/doctor/prescriptions/%d", id), notesRequest{Notes: n}, &p); err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return s.Get(ctx, id)
	}
	return &p, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.api.Delete(ctx, fmt.Sprintf("/doctor/prescriptions/%d", id))
}

// Mine lists the signed-in patient's prescriptions.
func (s *Service) Mine(ctx context.Context) ([]Prescription, error) {
	var list []Prescription
	if err := s.api.Get(ctx, "/patient/prescriptions", &list); err != nil {
		return nil, err
	}
	return list, nil
}
