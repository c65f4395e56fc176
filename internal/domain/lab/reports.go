package lab

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/akith22/DiagNote-sub000/internal/platform/apiclient"
)

// Reports lists the patient's lab reports.
type Reports struct {
	api *apiclient.Client
}

func NewReports(api *apiclient.Client) *Reports {
	return &Reports{api: api}
}

func (r *Reports) List(ctx context.Context) ([]LabReport, error) {
	var list []LabReport
	if err := r.api.Get(ctx, "/patient/lab-reports", &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Find returns the report with id from List.
func (r *Reports) Find(ctx context.Context, id int64) (*LabReport, error) {
	list, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == id {
			return &list[i], nil
		}
	}
	return nil, apiclient.Validationf("lab report %d not found", id)
}

// Publisher exposes fetched content under a transient local URL until
// released.
type Publisher interface {
	Publish(name, contentType string, data []byte, inline bool) (id, url string, err error)
	Release(id string) bool
}

// Preview describes an opened report.
type Preview struct {
	ID          string
	ReportID    int64
	FileName    string
	Kind        ViewKind
	URL         string
	ContentType string
	Size        int
	Message     string
}

// Viewer shows one report at a time. Opening another report or closing the
// viewer releases the previous local reference. Nothing is cached: every
// Open fetches again.
type Viewer struct {
	api *apiclient.Client
	pub Publisher

	mu      sync.Mutex
	current *Preview
}

func NewViewer(api *apiclient.Client, pub Publisher) *Viewer {
	return &Viewer{api: api, pub: pub}
}

// Open fetches report content and publishes it.
func (v *Viewer) Open(ctx context.Context, report LabReport) (*Preview, error) {
	name := strings.TrimSpace(report.ReportFile)
	if name == "" {
		return nil, apiclient.Validation("report has no stored file")
	}

	blob, err := v.api.Download(ctx, "/patient/lab-reports/file/"+url.PathEscape(name))
	if err != nil {
		return nil, err
	}

	kind := KindFor(report.FileFormat, blob.ContentType)
	ct := ContentTypeFor(kind, report.FileFormat, blob.ContentType)
	id, link, err := v.pub.Publish(name, ct, blob.Data, kind != KindDownload)
	if err != nil {
		return nil, &apiclient.Error{Kind: apiclient.KindUnexpected, Message: apiclient.MsgUnexpected, Err: fmt.Errorf("publish preview: %w", err)}
	}

	p := &Preview{
		ID:          id,
		ReportID:    report.ID,
		FileName:    name,
		Kind:        kind,
		URL:         link,
		ContentType: ct,
		Size:        len(blob.Data),
	}
	if kind == KindDownload {
		p.Message = DownloadOnlyMessage
	}

	v.mu.Lock()
	prev := v.current
	v.current = p
	v.mu.Unlock()
	if prev != nil {
		v.pub.Release(prev.ID)
	}
	return p, nil
}

// Current returns the open preview, if any.
func (v *Viewer) Current() *Preview {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Close releases the open preview.
func (v *Viewer) Close() {
	v.mu.Lock()
	prev := v.current
	v.current = nil
	v.mu.Unlock()
	if prev != nil {
		v.pub.Release(prev.ID)
	}
}
