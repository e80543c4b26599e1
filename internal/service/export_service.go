package service

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/errors"
	"github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/export"
)

// Export formats.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

var proposalExportHeaders = []string{"Date", "Start", "End", "Therapist ID", "Client ID", "Score", "Latitude", "Longitude"}

// ExportFile is a rendered proposal ready to stream.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders proposals through the configured renderers.
type ExportService struct {
	renderers map[string]export.Renderer
	loc       *time.Location
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to the
// stock CSV and PDF exporters.
func NewExportService(loc *time.Location, logger *zap.Logger, csv, pdf export.Renderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		renderers: map[string]export.Renderer{FormatCSV: csv, FormatPDF: pdf},
		loc:       loc,
		logger:    logger,
		now:       time.Now,
	}
}

// Render converts a ready proposal into the requested format (csv by default).
func (s *ExportService) Render(proposal Proposal, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatCSV
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if proposal.Status != ProposalReady {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("proposal %s is %s", proposal.ID, proposal.Status))
	}

	body, err := renderer.Render(s.dataset(proposal))
	if err != nil {
		s.logger.Error("render proposal export", zap.String("proposal_id", proposal.ID), zap.String("format", format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &ExportFile{
		Filename:    s.buildFilename(proposal, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

func (s *ExportService) dataset(proposal Proposal) export.Dataset {
	rows := make([]map[string]string, 0, len(proposal.Slots))
	for _, slot := range proposal.Slots {
		start, end := slot.StartTime.In(s.loc), slot.EndTime.In(s.loc)
		row := map[string]string{
			"Date":         start.Format("Mon 2006-01-02"),
			"Start":        start.Format("15:04"),
			"End":          end.Format("15:04"),
			"Therapist ID": slot.TherapistID,
			"Client ID":    slot.ClientID,
			"Score":        fmt.Sprintf("%.3f", slot.Score),
		}
		if slot.Location != nil {
			row["Latitude"] = fmt.Sprintf("%.5f", slot.Location.Latitude)
			row["Longitude"] = fmt.Sprintf("%.5f", slot.Location.Longitude)
		}
		rows = append(rows, row)
	}
	return export.Dataset{
		Title: fmt.Sprintf("Schedule Proposal %s to %s",
			proposal.StartDate.In(s.loc).Format("2006-01-02"),
			proposal.EndDate.In(s.loc).Format("2006-01-02")),
		Headers: proposalExportHeaders,
		Rows:    rows,
	}
}

func (s *ExportService) buildFilename(proposal Proposal, ext string) string {
	timestamp := s.now().UTC().Format("20060102_150405")
	return fmt.Sprintf("proposal_%s_%s.%s", sanitizeFilename(proposal.ID), timestamp, ext)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
