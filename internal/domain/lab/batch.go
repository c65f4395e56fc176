package lab

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/akith22/DiagNote-sub000/internal/platform/apiclient"
)

// BatchResult is the outcome for one test type of a batch.
type BatchResult struct {
	TestType string
	Request  *LabRequest
	Err      error
}

// BatchError reports a batch where at least one item failed. Results holds
// every item, successful ones included.
type BatchError struct {
	Results []BatchResult
}

func (e *BatchError) Failed() []BatchResult {
	var out []BatchResult
	for _, r := range e.Results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

func (e *BatchError) Error() string {
	failed := e.Failed()
	if len(failed) == 0 {
		return "lab request batch failed"
	}
	return fmt.Sprintf("%d of %d lab requests failed: %s: %s",
		len(failed), len(e.Results), failed[0].TestType, apiclient.Message(failed[0].Err))
}

func (e *BatchError) Unwrap() []error {
	var errs []error
	for _, r := range e.Results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errs
}

// FormOption configures a RequestForm.
type FormOption func(*RequestForm)

// WithConcurrency caps in-flight create calls. n <= 0 means unbounded.
func WithConcurrency(n int) FormOption {
	return func(f *RequestForm) { f.limit = n }
}

// WithOnCreated registers the callback run after a fully successful submit.
func WithOnCreated(fn func(appointmentID int64, created []LabRequest)) FormOption {
	return func(f *RequestForm) { f.onCreated = fn }
}

// RequestForm is the editable list of test types for one submission. It
// always holds at least one row.
type RequestForm struct {
	api       *apiclient.Client
	limit     int
	onCreated func(appointmentID int64, created []LabRequest)

	mu   sync.Mutex
	rows []string
}

func NewRequestForm(api *apiclient.Client, opts ...FormOption) *RequestForm {
	f := &RequestForm{api: api, rows: []string{""}}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Rows returns a copy of the current rows.
func (f *RequestForm) Rows() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.rows...)
}

// Add appends an empty row and returns its index.
func (f *RequestForm) Add() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, "")
	return len(f.rows) - 1
}

// Set edits row i.
func (f *RequestForm) Set(i int, testType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i < 0 || i >= len(f.rows) {
		return fmt.Errorf("row %d out of range", i)
	}
	f.rows[i] = testType
	return nil
}

// Remove deletes row i. Removing the last row leaves one empty row.
func (f *RequestForm) Remove(i int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i < 0 || i >= len(f.rows) {
		return fmt.Errorf("row %d out of range", i)
	}
	f.rows = append(f.rows[:i], f.rows[i+1:]...)
	if len(f.rows) == 0 {
		f.rows = []string{""}
	}
	return nil
}

// Fill replaces every row, used when test types come from the command line.
func (f *RequestForm) Fill(testTypes []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append([]string(nil), testTypes...)
	if len(f.rows) == 0 {
		f.rows = []string{""}
	}
}

// Submit creates one lab request per non-blank row, concurrently. With no
// non-blank rows it fails validation without any call. Failures are
// reported per item through *BatchError and only the failed rows remain in
// the form; on full success the form resets and OnCreated runs.
func (f *RequestForm) Submit(ctx context.Context, appointmentID int64) ([]LabRequest, error) {
	if appointmentID <= 0 {
		return nil, apiclient.Validation("an appointment must be selected")
	}
	var entries []string
	for _, r := range f.Rows() {
		if t := strings.TrimSpace(r); t != "" {
			entries = append(entries, t)
		}
	}
	if len(entries) == 0 {
		return nil, apiclient.Validation("enter at least one test type")
	}

	results := make([]BatchResult, len(entries))
	path := fmt.Sprintf("/doctor/appointments/%d/labrequests", appointmentID)

	var g errgroup.Group
	if f.limit > 0 {
		g.SetLimit(f.limit)
	}
	for i, testType := range entries {
		i, testType := i, testType
		g.Go(func() error {
			var created LabRequest
			err := f.api.Post(ctx, path, createRequest{TestType: testType}, &created)
			results[i] = BatchResult{TestType: testType, Err: err}
			if err == nil {
				created.Status = strings.ToUpper(created.Status)
				results[i].Request = &created
			}
			return nil
		})
	}
	g.Wait()

	var created []LabRequest
	var failedRows []string
	for _, r := range results {
		if r.Err != nil {
			failedRows = append(failedRows, r.TestType)
			continue
		}
		created = append(created, *r.Request)
	}

	if len(failedRows) > 0 {
		f.Fill(failedRows)
		return created, &BatchError{Results: results}
	}

	f.Fill(nil)
	if f.onCreated != nil {
		f.onCreated(appointmentID, created)
	}
	return created, nil
}
