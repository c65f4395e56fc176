package lab

import (
	"mime"
	"strings"
)

// Lab request statuses. A request moves one way, REQUESTED -> COMPLETED.
const (
	StatusRequested = "REQUESTED"
	StatusCompleted = "COMPLETED"
)

// LabRequest mirrors LabRequestDto.
type LabRequest struct {
	ID            int64  `json:"id"`
	TestType      string `json:"testType"`
	AppointmentID int64  `json:"appointmentId"`
	Status        string `json:"status"`
	PatientName   string `json:"patientName"`
}

// LabReport is report metadata; content is fetched on demand.
type LabReport struct {
	ID           int64  `json:"id"`
	ReportFile   string `json:"reportFile"`
	DateIssued   string `json:"dateIssued"`
	UploadedBy   string `json:"uploadedBy"`
	FileFormat   string `json:"fileFormat"`
	LabRequestID int64  `json:"labRequestId,omitempty"`
	TestType     string `json:"testType,omitempty"`
}

type createRequest struct {
	TestType string `json:"testType"`
}

// ViewKind is how a report is presented.
type ViewKind string

const (
	KindPDF      ViewKind = "pdf"
	KindImage    ViewKind = "image"
	KindDownload ViewKind = "download"
)

// DownloadOnlyMessage is shown for formats that cannot be previewed inline.
const DownloadOnlyMessage = "Preview is not available for this file type. Use the download link instead."

var imageFormats = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "gif": true,
}

// KindFor decides the presentation from the report's declared format. The
// fetched content type is consulted only when no format is declared.
func KindFor(format, contentType string) ViewKind {
	f := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), "."))
	switch {
	case f == "pdf":
		return KindPDF
	case imageFormats[f]:
		return KindImage
	case f != "":
		return KindDownload
	}

	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return KindDownload
	}
	switch {
	case mt == "application/pdf":
		return KindPDF
	case strings.HasPrefix(mt, "image/"):
		return KindImage
	}
	return KindDownload
}

// ContentTypeFor picks the content type to serve a report with.
func ContentTypeFor(kind ViewKind, format, fetched string) string {
	switch kind {
	case KindPDF:
		return "application/pdf"
	case KindImage:
		if strings.HasPrefix(fetched, "image/") {
			return fetched
		}
		switch strings.ToLower(strings.TrimPrefix(format, ".")) {
		case "png":
			return "image/png"
		case "gif":
			return "image/gif"
		default:
			return "image/jpeg"
		}
	}
	if fetched == "" {
		return "application/octet-stream"
	}
	return fetched
}
