package pipeline

import (
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ndreport/internal"
	"ndreport/internal/config"
	"ndreport/internal/metrics"
	"ndreport/internal/names"
	"ndreport/internal/table"
)

const (
	FullNameColumn  = "full_name"
	FirstNameColumn = "first_name"
	LastNameColumn  = "last_name"
)

// RunLedger records finished runs. *storage.DB implements it.
type RunLedger interface {
	InsertRun(run internal.RunRecord) error
}

type ReportService struct {
	cfg        config.Config
	normalizer *names.Normalizer
	ledger     RunLedger
	metrics    *metrics.Metrics
	log        *zap.Logger
	now        func() time.Time
}

// NewReportService wires a service. ledger may be nil.
func NewReportService(cfg config.Config, stopWords *names.StopWords, ledger RunLedger, log *zap.Logger) *ReportService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReportService{
		cfg:        cfg,
		normalizer: names.NewNormalizer(stopWords, cfg.NormalizeThresholdPct),
		ledger:     ledger,
		log:        log,
		now:        time.Now,
	}
}

// WithMetrics makes Run record every run in m.
func (s *ReportService) WithMetrics(m *metrics.Metrics) *ReportService {
	s.metrics = m
	return s
}

type RunRequest struct {
	Server  internal.Server
	Company string
	// OutputPath overrides the default report location.
	OutputPath string
}

type RunResult struct {
	TraceID    string
	ReportPath string
	Counts     internal.RunCounts
	Pairs      []PairStat
}

type Reconciliation struct {
	Orphans   *table.Table
	Matched   *table.Table
	Unmatched *table.Table
	Pairs     []PairStat
}

// Run loads both inputs for req, reconciles them and writes the report.
func (s *ReportService) Run(req RunRequest) (RunResult, error) {
	start := time.Now()
	res, err := s.run(req)
	s.metrics.ObserveRun(req.Server, req.Company, res.Counts, time.Since(start), err)
	return res, err
}

func (s *ReportService) run(req RunRequest) (RunResult, error) {
	start := time.Now()
	traceID := uuid.NewString()
	log := s.log.With(
		zap.String("trace_id", traceID),
		zap.String("server", string(req.Server)),
		zap.String("company", req.Company),
	)

	customerPath := InputPath(s.cfg.ReportsDir, internal.InputCustomer, req.Server, req.Company, s.cfg.InputFormat)
	vendorPath := InputPath(s.cfg.ReportsDir, internal.InputVendor, req.Server, req.Company, s.cfg.InputFormat)

	// Both sides are read at the same time; matching starts once both are in.
	customerCh, customerErrCh := loadTableAsync(customerPath)
	vendors, err := LoadTable(vendorPath)
	if err != nil {
		return RunResult{}, err
	}
	var customers *table.Table
	select {
	case customers = <-customerCh:
	case err := <-customerErrCh:
		return RunResult{}, err
	}
	loadedAt := time.Now()
	log.Info("inputs loaded", zap.Int("customer_rows", customers.Len()), zap.Int("vendor_rows", vendors.Len()))

	rec, err := s.Reconcile(customers, vendors)
	if err != nil {
		return RunResult{}, err
	}
	matchedAt := time.Now()
	for _, p := range rec.Pairs {
		log.Debug("field pair",
			zap.String("orphan_field", p.OrphanField),
			zap.String("customer_field", p.CustomerField),
			zap.Int("matched", p.Matched),
			zap.Int("ambiguous", p.Ambiguous),
		)
	}

	reportPath := req.OutputPath
	if reportPath == "" {
		reportPath = filepath.Join(s.cfg.ReportsDir, ReportFileName(req.Server, req.Company, s.now()))
	}
	if err := ExportReport(rec.Matched, rec.Unmatched, reportPath); err != nil {
		return RunResult{}, fmt.Errorf("write report: %w", err)
	}

	result := RunResult{
		TraceID:    traceID,
		ReportPath: reportPath,
		Counts: internal.RunCounts{
			CustomerRows: customers.Len(),
			VendorRows:   vendors.Len(),
			Orphans:      rec.Orphans.Len(),
			Matched:      rec.Matched.Len(),
			Unmatched:    rec.Unmatched.Len(),
		},
		Pairs: rec.Pairs,
	}
	log.Info("report written",
		zap.String("path", reportPath),
		zap.Int("orphans", result.Counts.Orphans),
		zap.Int("matched", result.Counts.Matched),
		zap.Int("unmatched", result.Counts.Unmatched),
	)

	if s.ledger != nil {
		err := s.ledger.InsertRun(internal.RunRecord{
			TraceID:    traceID,
			Server:     string(req.Server),
			Company:    req.Company,
			ReportPath: reportPath,
			Counts:     result.Counts,
			TimingsMs: map[string]float64{
				"loadMs":  float64(loadedAt.Sub(start).Milliseconds()),
				"matchMs": float64(matchedAt.Sub(loadedAt).Milliseconds()),
				"totalMs": float64(time.Since(start).Milliseconds()),
			},
		})
		if err != nil {
			log.Warn("run not recorded", zap.Error(err))
		}
	}

	return result, nil
}

// Reconcile finds the vendor accounts missing from the customer roster and
// tries to match them back to customers by name. Neither input is modified.
func (s *ReportService) Reconcile(customers, vendors *table.Table) (*Reconciliation, error) {
	keys := DefaultKeyColumns
	normalize := NormalizeOp(s.normalizer)
	customerFields := s.cfg.CustomerMatchFields

	customers = customers.Clone()
	if slices.Contains(customerFields, FullNameColumn) {
		if err := addFullName(customers); err != nil {
			return nil, err
		}
	}
	// First and last names carry no stop words.
	toNormalize := slices.DeleteFunc(slices.Clone(customerFields), func(c string) bool { return c == FullNameColumn })
	if err := Apply(customers, toNormalize, true, normalize); err != nil {
		return nil, fmt.Errorf("customer table: %w", err)
	}
	if err := Apply(customers, customerFields, true, SplitOp()); err != nil {
		return nil, fmt.Errorf("customer table: %w", err)
	}

	orphans, err := FindOrphans(customers, vendors, keys)
	if err != nil {
		return nil, err
	}
	if err := Apply(orphans, s.cfg.VendorMatchFields, false, normalize); err != nil {
		return nil, fmt.Errorf("orphan table: %w", err)
	}
	orphanFields := DerivedNames(normalize, s.cfg.VendorMatchFields)
	if err := Apply(orphans, orphanFields, true, SplitOp()); err != nil {
		return nil, fmt.Errorf("orphan table: %w", err)
	}

	result, err := CrossMatch(orphans, customers, MatchSpec{
		OrphanFields:   orphanFields,
		CustomerFields: customerFields,
		OutputFields:   presentFields(MatchedOutputFields(), orphans, customers),
		Keys:           keys,
	})
	if err != nil {
		return nil, err
	}

	unmatched, err := Unmatched(orphans, result.Matched, keys)
	if err != nil {
		return nil, err
	}

	return &Reconciliation{
		Orphans:   orphans,
		Matched:   result.Matched,
		Unmatched: unmatched,
		Pairs:     result.Pairs,
	}, nil
}

func addFullName(t *table.Table) error {
	first, err := t.ColumnIndex(FirstNameColumn)
	if err != nil {
		return fmt.Errorf("customer table: %w", err)
	}
	last, err := t.ColumnIndex(LastNameColumn)
	if err != nil {
		return fmt.Errorf("customer table: %w", err)
	}
	dst := t.AddColumn(FullNameColumn)
	for i := 0; i < t.Len(); i++ {
		t.Set(i, dst, table.TextValue(t.At(i, first).String()+" "+t.At(i, last).String()))
	}
	return nil
}

// presentFields keeps the fields found in at least one of the tables.
func presentFields(fields []string, tables ...*table.Table) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		for _, t := range tables {
			if t.Has(f) {
				out = append(out, f)
				break
			}
		}
	}
	return out
}
