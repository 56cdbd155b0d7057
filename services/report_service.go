package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jamshid-zayniyev/warehouse-admin/models"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	// XLSXContentType is the MIME type of generated reports
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	requestsSheet = "Requests"
	summarySheet  = "Summary"

	defaultLinkTTL = 24 * time.Hour
)

// ErrReportStorageDisabled is returned by Export when no bucket is configured
var ErrReportStorageDisabled = errors.New("report storage is not configured")

var reportColumns = []string{
	"ID", "Created", "Supplier", "Product", "Orders",
	"Quantity", "Received", "Status", "New supplier", "Reassigned from",
}

// RequestCollector loads enriched requests for a scope
type RequestCollector interface {
	Collect(ctx context.Context, token string, scope models.DateScope) ([]models.SupplierRequestWithDetails, error)
}

// Report is a generated workbook
type Report struct {
	Scope    models.DateScope
	Filename string
	Count    int
	Content  []byte
}

// ReportExport describes an uploaded report
type ReportExport struct {
	Key       string           `json:"key"`
	URL       string           `json:"url"`
	Count     int              `json:"count"`
	Scope     models.DateScope `json:"scope"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// ReportService renders supplier-request workbooks and publishes them to S3
type ReportService struct {
	collector RequestCollector
	storage   S3Interface
	linkTTL   time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewReportService creates a report service. storage may be nil, in which case
// reports can be downloaded but not exported.
func NewReportService(collector RequestCollector, storage S3Interface, logger *zap.Logger) *ReportService {
	return &ReportService{
		collector: collector,
		storage:   storage,
		linkTTL:   defaultLinkTTL,
		logger:    logger,
		now:       time.Now,
	}
}

// StorageEnabled reports whether Export can upload
func (s *ReportService) StorageEnabled() bool {
	return s.storage != nil
}

// Build collects the requests of scope and renders them as a workbook
func (s *ReportService) Build(ctx context.Context, token string, scope models.DateScope) (*Report, error) {
	requests, err := s.collector.Collect(ctx, token, scope)
	if err != nil {
		return nil, err
	}

	content, err := RenderWorkbook(scope, requests)
	if err != nil {
		return nil, err
	}

	return &Report{
		Scope:    scope,
		Filename: "supplier-requests-" + scope.Key() + ".xlsx",
		Count:    len(requests),
		Content:  content,
	}, nil
}

// Export builds the report of scope, uploads it and returns a presigned link
func (s *ReportService) Export(ctx context.Context, token string, scope models.DateScope) (*ReportExport, error) {
	if s.storage == nil {
		return nil, ErrReportStorageDisabled
	}

	report, err := s.Build(ctx, token, scope)
	if err != nil {
		return nil, err
	}

	key := ReportKey(scope)
	if err := s.storage.UploadObject(ctx, key, XLSXContentType, report.Content); err != nil {
		return nil, err
	}

	url, err := s.storage.GetPresignedURL(ctx, key, s.linkTTL)
	if err != nil {
		if delErr := s.storage.DeleteObject(ctx, key); delErr != nil {
			s.logger.Warn("failed to remove unlinked report", zap.String("key", key), zap.Error(delErr))
		}
		return nil, err
	}

	s.logger.Info("supplier request report exported",
		zap.String("key", key),
		zap.Int("count", report.Count))

	return &ReportExport{
		Key:       key,
		URL:       url,
		Count:     report.Count,
		Scope:     scope,
		ExpiresAt: s.now().Add(s.linkTTL),
	}, nil
}

// ReportKey is the object key a scope's report is stored under
func ReportKey(scope models.DateScope) string {
	return "reports/supplier-requests/" + scope.Key() + ".xlsx"
}

// RenderWorkbook writes one row per request and a per-status summary sheet
func RenderWorkbook(scope models.DateScope, requests []models.SupplierRequestWithDetails) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", requestsSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	header := make([]interface{}, len(reportColumns))
	for i, c := range reportColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(requestsSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(reportColumns))
	if err := f.SetCellStyle(requestsSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	counts := make(map[string]int)
	for i, r := range requests {
		counts[r.DisplayStatus]++

		row := []interface{}{
			r.ID,
			r.CreatedAt,
			supplierCell(r.SupplierDetails, r.Supplier),
			productCell(r.ProductDetails, r.Product),
			len(r.Orders),
			r.TotalQuantity,
			r.AmountReceived,
			r.DisplayStatus,
			"",
			"",
		}
		if r.NewSupplier != nil {
			row[8] = supplierCell(r.NewSupplierDetails, *r.NewSupplier)
		}
		if r.ReassignedFrom != nil {
			row[9] = *r.ReassignedFrom
		}

		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(requestsSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(requestsSheet, "A", lastCol, 18); err != nil {
		return nil, fmt.Errorf("failed to size columns: %w", err)
	}
	if err := f.SetPanes(requestsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze header: %w", err)
	}
	if len(requests) > 0 {
		if err := f.AutoFilter(requestsSheet, "A1:"+lastCol+"1", nil); err != nil {
			return nil, fmt.Errorf("failed to add filter: %w", err)
		}
	}

	if err := writeSummary(f, scope, counts, len(requests)); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummary(f *excelize.File, scope models.DateScope, counts map[string]int, total int) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	rows := [][]interface{}{
		{"From", scope.From.String()},
		{"To", scope.To.String()},
		{"Total", total},
	}
	for _, label := range []string{models.LabelPending, models.LabelSuccess, models.LabelRejected, models.LabelPartial} {
		rows = append(rows, []interface{}{label, counts[label]})
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}
	return nil
}

func supplierCell(u *models.User, id uint) string {
	if name := u.DisplayName(); name != "" {
		return name
	}
	return fmt.Sprintf("#%d", id)
}

func productCell(p *models.Product, id uint) string {
	if p != nil && p.Title != "" {
		return p.Title
	}
	return fmt.Sprintf("#%d", id)
}
