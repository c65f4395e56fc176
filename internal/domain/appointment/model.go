package appointment

import (
	"fmt"
	"strings"
	"time"

	"github.com/akith22/DiagNote-sub000/internal/domain/status"
)

// Appointment mirrors the backend AppointmentDto.
type Appointment struct {
	ID          int64  `json:"id"`
	PatientName string `json:"patientName"`
	PatientID   int64  `json:"patientId"`
	DoctorName  string `json:"doctorName,omitempty"`
	DoctorID    int64  `json:"doctorId,omitempty"`
	Date        string `json:"date"`
	Status      string `json:"status"`
}

// normalized returns a copy with a canonical status.
func (a Appointment) normalized() Appointment {
	a.Status = status.Normalize(a.Status)
	return a
}

// dateLayouts covers what the backend has been seen to emit for date.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDate parses a backend date string. Zone-less values are read in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// FormatDate renders t the way the backend expects booking dates.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02T15:04:05")
}

// Action is a doctor-side transition.
type Action string

const (
	ActionAccept  Action = "accept"
	ActionDecline Action = "decline"
	ActionCancel  Action = "cancel"
)

// ParseAction validates a user-supplied action name.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionAccept, ActionDecline, ActionCancel:
		return a, nil
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// transitionPaths maps an action to the backend transition it invokes.
// Cancel is served by the decline transition on the backend, so both share
// one route.
var transitionPaths = map[Action]string{
	ActionAccept:  "accept",
	ActionDecline: "decline",
	ActionCancel:  "decline",
}

// offered lists the actions the dashboard exposes per canonical status.
// DECLINED -> accept is the "Accept Again" affordance.
var offered = map[string][]Action{
	status.Pending:  {ActionAccept, ActionDecline},
	status.Accepted: {ActionCancel},
	status.Declined: {ActionAccept},
}

// Actions returns the actions offered for st, which is normalized first.
func Actions(st string) []Action {
	return append([]Action(nil), offered[status.Normalize(st)]...)
}

// Offers reports whether action is offered for st.
func Offers(st string, action Action) bool {
	for _, a := range Actions(st) {
		if a == action {
			return true
		}
	}
	return false
}

// Doctor is an entry of the patient-facing doctor directory.
type Doctor struct {
	DoctorID       int64  `json:"doctorId"`
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
	AvailableTimes string `json:"availableTimes"`
}

// BookingRequest is the body of POST /patient/appointments.
type BookingRequest struct {
	DoctorID int64  `json:"doctorId"`
	Date     string `json:"date"`
}
