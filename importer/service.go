package importer

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vcnty/inventory"
)

const networkErrorPrefix = "Network Error: "

// BatchCreator submits validated items to the backend in one request.
type BatchCreator interface {
	CreateItemsBatch(ctx context.Context, storeID string, items []inventory.Item) error
}

// Invalidator is notified after items were persisted for a store.
type Invalidator interface {
	InvalidateStoreItems(storeID string)
}

// HistoryRecorder keeps finished runs.
type HistoryRecorder interface {
	RecordImport(run Run) error
}

type ServiceConfig struct {
	Client          BatchCreator
	Logger          *zap.Logger
	MaxFileSize     int64
	DefaultCurrency string
	Invalidator     Invalidator
	History         HistoryRecorder
}

type Options struct {
	DryRun bool
}

type Service struct {
	client          BatchCreator
	logger          *zap.Logger
	maxFileSize     int64
	defaultCurrency string
	invalidator     Invalidator
	history         HistoryRecorder
	now             func() time.Time
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Client == nil {
		return nil, errors.New("batch client is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxSize := cfg.MaxFileSize
	if maxSize <= 0 {
		maxSize = MaxFileSize
	}
	currency := cfg.DefaultCurrency
	if currency == "" {
		currency = inventory.DefaultCurrency
	}

	return &Service{
		client:          cfg.Client,
		logger:          logger,
		maxFileSize:     maxSize,
		defaultCurrency: currency,
		invalidator:     cfg.Invalidator,
		history:         cfg.History,
		now:             time.Now,
	}, nil
}

func (s *Service) MaxFileSize() int64 {
	return s.maxFileSize
}

// Import parses upload and runs the whole pipeline. Only input rejections
// (size, format, unreadable file) are returned as errors; submission failures
// are reported inside the Report.
func (s *Service) Import(ctx context.Context, upload Upload, store inventory.Store, options Options) (Report, error) {
	rows, err := ReadUpload(upload, s.maxFileSize)
	if err != nil {
		s.logger.Warn("import rejected",
			zap.String("store_id", store.ID),
			zap.String("file", upload.Name),
			zap.Error(err),
		)
		return Report{}, err
	}
	return s.ImportRows(ctx, upload.Name, rows, store, options), nil
}

// ImportRows runs header mapping, validation and submission over parsed rows.
func (s *Service) ImportRows(ctx context.Context, fileName string, rows []RawRow, store inventory.Store, options Options) Report {
	startedAt := s.now()
	runID := uuid.NewString()
	logger := s.logger.With(
		zap.String("run_id", runID),
		zap.String("store_id", store.ID),
		zap.String("file", fileName),
	)

	ignored := make([]string, 0)
	if len(rows) > 0 {
		ignored = MapHeaders(rows[0].Headers).Ignored
	}
	normalized := ReconcileHeaders(rows)

	defaults := RowDefaults{Location: store.Location(), Currency: s.defaultCurrency}
	items, rowErrors, failed := BuildBatch(normalized, defaults)

	report := Report{
		Total:          len(normalized),
		Success:        len(items),
		Failed:         failed,
		Errors:         rowErrors,
		IgnoredColumns: ignored,
		DryRun:         options.DryRun,
	}

	if len(items) > 0 && !options.DryRun {
		report.Submitted = true
		if err := s.client.CreateItemsBatch(ctx, store.ID, items); err != nil {
			logger.Error("batch submission failed", zap.Int("items", len(items)), zap.Error(err))
			report.Success = 0
			report.Failed = report.Total
			report.Errors = append(report.Errors, networkErrorPrefix+err.Error())
		} else if s.invalidator != nil {
			s.invalidator.InvalidateStoreItems(store.ID)
		}
	}

	logger.Info("import finished",
		zap.Int("total", report.Total),
		zap.Int("success", report.Success),
		zap.Int("failed", report.Failed),
		zap.Bool("submitted", report.Submitted),
		zap.Bool("dry_run", report.DryRun),
		zap.Strings("ignored_columns", report.IgnoredColumns),
	)

	if s.history != nil {
		run := Run{
			ID:         runID,
			StoreID:    store.ID,
			FileName:   fileName,
			StartedAt:  startedAt,
			FinishedAt: s.now(),
			Report:     report,
		}
		if err := s.history.RecordImport(run); err != nil {
			logger.Warn("record import history failed", zap.Error(err))
		}
	}

	return report
}

// BuildBatch validates rows in order and returns the accepted items, all row
// errors and the number of rejected rows.
func BuildBatch(rows []NormalizedRow, defaults RowDefaults) ([]inventory.Item, []string, int) {
	items := make([]inventory.Item, 0, len(rows))
	errs := make([]string, 0)
	failed := 0
	for i, row := range rows {
		item, rowErrors := ValidateRow(row, i+1, defaults)
		if len(rowErrors) > 0 {
			failed++
			errs = append(errs, rowErrors...)
			continue
		}
		items = append(items, item)
	}
	return items, errs, failed
}
