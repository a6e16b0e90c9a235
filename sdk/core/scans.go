package core

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/praxis-health/praxis/sdk/internal/schemas"
	"github.com/praxis-health/praxis/sdk/meta"
	"github.com/praxis-health/praxis/sdk/restmachinery"
)

// ScanPhase represents where a Scan is within its lifecycle, as reported by
// the API server.
type ScanPhase string

const (
	// ScanPhasePending represents the state wherein a Scan has been launched
	// but its assessment and report are not yet complete.
	ScanPhasePending ScanPhase = "pending"
	// ScanPhaseComplete represents the state wherein a Scan's assessment is
	// complete and its report can be downloaded.
	ScanPhaseComplete ScanPhase = "complete"
)

// ReportContentType is the only content type accepted for Scan reports.
const ReportContentType = "application/pdf"

// Scan represents a completed or in-progress mobility assessment of a Client.
type Scan struct {
	ID             int64     `json:"id"`
	ClientID       int64     `json:"client_id"`
	ClientFullName string    `json:"client_full_name,omitempty"`
	ClientAge      string    `json:"client_age,omitempty"`
	Date           meta.Time `json:"scan_date"`
	Reason         string    `json:"scan_reason"`
	// Assessment scores are absent until the Scan is complete.
	BalanceScore  *float64 `json:"balance_score,omitempty"`
	SteppingScore *float64 `json:"stepping_score,omitempty"`
	SquatScore    *float64 `json:"squat_score,omitempty"`
	PostureScore  *float64 `json:"posture_score,omitempty"`
	OverallScore  *float64 `json:"overall_score,omitempty"`
	// ReportPDF is the server-side name of the Scan's report, once generated.
	ReportPDF   string     `json:"report_pdf,omitempty"`
	Created     *meta.Time `json:"created_at,omitempty"`
	LastUpdated *meta.Time `json:"updated_at,omitempty"`
}

// ScanRequest is a request to launch a new Scan.
type ScanRequest struct {
	// ClientID identifies the Client being scanned.
	ClientID int64 `json:"client_id"`
	// Reason is a free-text justification for the Scan.
	Reason string `json:"scan_reason"`
}

// ScanLaunch is the API server's acknowledgement of a ScanRequest.
type ScanLaunch struct {
	Message string `json:"message,omitempty"`
	// ScanID identifies the launched Scan. Not every API server version
	// returns it, in which case it is zero.
	ScanID int64 `json:"scan_id,omitempty"`
}

// ScanStatus reports the state of a Client's most recent Scan.
type ScanStatus struct {
	Phase  ScanPhase `json:"status"`
	ScanID int64     `json:"scan_id,omitempty"`
}

// Report is a downloaded Scan report.
type Report struct {
	ScanID int64
	// Filename is a suggested name under which to save Content.
	Filename    string
	ContentType string
	Content     []byte
}

// ScansClient is the specialized client for managing Scans.
type ScansClient interface {
	// Launch submits a ScanRequest. The Scan proceeds asynchronously on the
	// server; use LatestStatus to follow its progress.
	Launch(context.Context, ScanRequest) (ScanLaunch, error)
	// LatestStatus returns the status of the specified Client's most recent
	// Scan.
	LatestStatus(ctx context.Context, clientID int64) (ScanStatus, error)
	// DownloadReport retrieves the PDF report of the specified Scan. A
	// response of any other content type results in a
	// *meta.ErrUnexpectedContent error.
	DownloadReport(ctx context.Context, scanID int64) (Report, error)
	// List returns all Scans.
	List(context.Context) ([]Scan, error)
	// Get retrieves a single Scan specified by its identifier.
	Get(ctx context.Context, id int64) (Scan, error)
	// Delete deletes a single Scan specified by its identifier.
	Delete(ctx context.Context, id int64) error
}

type scansClient struct {
	*restmachinery.BaseClient
}

// NewScansClient returns a specialized client for managing Scans.
func NewScansClient(
	apiAddress string,
	tokenSource restmachinery.TokenSource,
	opts *restmachinery.APIClientOptions,
) ScansClient {
	return &scansClient{
		BaseClient: restmachinery.NewBaseClient(apiAddress, tokenSource, opts),
	}
}

func (s *scansClient) Launch(
	ctx context.Context,
	req ScanRequest,
) (ScanLaunch, error) {
	launch := ScanLaunch{}
	if err := schemas.Validate(schemas.ScanRequest, req); err != nil {
		return launch, err
	}
	return launch, s.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:     http.MethodPost,
			Path:       "ai/run-script",
			ReqBodyObj: req,
			RespObj:    &launch,
		},
	)
}

func (s *scansClient) LatestStatus(
	ctx context.Context,
	clientID int64,
) (ScanStatus, error) {
	status := ScanStatus{}
	return status, s.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodGet,
			Path:        fmt.Sprintf("scans/status/%d/latest", clientID),
			SuccessCode: http.StatusOK,
			RespObj:     &status,
		},
	)
}

func (s *scansClient) DownloadReport(
	ctx context.Context,
	scanID int64,
) (Report, error) {
	report := Report{
		ScanID: scanID,
	}
	resp, err := s.SubmitRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodGet,
			Path:        fmt.Sprintf("scans/download-report/%d", scanID),
			Headers:     map[string]string{"Accept": ReportContentType},
			SuccessCode: http.StatusOK,
		},
	)
	if err != nil {
		return report, err
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != ReportContentType {
		return report, &meta.ErrUnexpectedContent{
			Expected: ReportContentType,
			Actual:   contentType,
		}
	}
	report.ContentType = mediaType
	if report.Content, err = io.ReadAll(resp.Body); err != nil {
		return report, &meta.ErrNetwork{
			Err: errors.Wrap(err, "error reading report"),
		}
	}
	report.Filename = reportFilename(
		scanID,
		resp.Header.Get("Content-Disposition"),
	)
	return report, nil
}

// reportFilename derives a filename for a Scan report, preferring the one
// suggested by the API server.
func reportFilename(scanID int64, contentDisposition string) string {
	if contentDisposition != "" {
		if _, params, err :=
			mime.ParseMediaType(contentDisposition); err == nil {
			if name := filepath.Base(params["filename"]); name != "." &&
				name != "/" && name != "" {
				return name
			}
		}
	}
	return fmt.Sprintf("scan-report-%d.pdf", scanID)
}

func (s *scansClient) List(ctx context.Context) ([]Scan, error) {
	scans := []Scan{}
	return scans, s.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodGet,
			Path:        "scans",
			SuccessCode: http.StatusOK,
			RespObj:     &scans,
		},
	)
}

func (s *scansClient) Get(ctx context.Context, id int64) (Scan, error) {
	scan := Scan{}
	return scan, s.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodGet,
			Path:        fmt.Sprintf("scans/%d", id),
			SuccessCode: http.StatusOK,
			RespObj:     &scan,
		},
	)
}

func (s *scansClient) Delete(ctx context.Context, id int64) error {
	return s.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodDelete,
			Path:        fmt.Sprintf("scans/%d", id),
			SuccessCode: http.StatusOK,
		},
	)
}
