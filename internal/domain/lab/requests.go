package lab

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/akith22/DiagNote-sub000/internal/platform/apiclient"
)

// Requests reads lab requests and moves them through their lifecycle.
type Requests struct {
	api *apiclient.Client
}

func NewRequests(api *apiclient.Client) *Requests {
	return &Requests{api: api}
}

// ForAppointment lists the lab requests a doctor raised for an appointment.
func (r *Requests) ForAppointment(ctx context.Context, appointmentID int64) ([]LabRequest, error) {
	var list []LabRequest
	if err := r.api.Get(ctx, fmt.Sprintf("/doctor/appointments/%d/labrequests", appointmentID), &list); err != nil {
		return nil, err
	}
	return normalizeAll(list), nil
}

// Assigned lists the lab requests visible to the lab technician.
func (r *Requests) Assigned(ctx context.Context) ([]LabRequest, error) {
	var list []LabRequest
	if err := r.api.Get(ctx, "/labtech/lab-requests", &list); err != nil {
		return nil, err
	}
	return normalizeAll(list), nil
}

// UpdateStatus moves a request to target. Only REQUESTED -> COMPLETED is
// accepted.
func (r *Requests) UpdateStatus(ctx context.Context, req LabRequest, target string) (*LabRequest, error) {
	from := strings.ToUpper(req.Status)
	to := strings.ToUpper(strings.TrimSpace(target))
	if from != StatusRequested || to != StatusCompleted {
		return nil, apiclient.Validationf("lab request %d cannot move from %s to %s", req.ID, from, to)
	}

	var updated LabRequest
	p := fmt.Sprintf("/lab-requests/%d/status/%s", req.ID, url.PathEscape(to))
	if err := r.api.Put(ctx, p, nil, &updated); err != nil {
		return nil, err
	}
	if updated.ID == 0 {
		updated = req
		updated.Status = to
	}
	updated.Status = strings.ToUpper(updated.Status)
	return &updated, nil
}

// UploadReport attaches a report file to a lab request.
func (r *Requests) UploadReport(ctx context.Context, requestID int64, fileName string, content io.Reader) (*LabReport, error) {
	if requestID <= 0 {
		return nil, apiclient.Validation("a lab request must be selected")
	}
	if strings.TrimSpace(fileName) == "" {
		return nil, apiclient.Validation("a report file is required")
	}
	var report LabReport
	p := fmt.Sprintf("/labtech/lab-requests/%d/report", requestID)
	if err := r.api.Upload(ctx, p, "file", fileName, content, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func normalizeAll(list []LabRequest) []LabRequest {
	for i := range list {
		list[i].Status = strings.ToUpper(list[i].Status)
	}
	return list
}
