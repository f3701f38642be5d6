package listener

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"go.uber.org/zap"

	"ndreport/internal"
	"ndreport/internal/config"
	"ndreport/internal/pipeline"
)

type Runner interface {
	Run(req pipeline.RunRequest) (pipeline.RunResult, error)
}

// History tells the listener which inputs were already reported on before
// it started. *storage.DB implements it.
type History interface {
	LatestRunAt(server, company string) (time.Time, bool, error)
}

// InputPair is a customer roster and vendor feed for one server and company
// found side by side in the reports directory.
type InputPair struct {
	Server  internal.Server
	Company string
	// ModTime is the newer of the two files' modification times.
	ModTime time.Time
}

func (p InputPair) id() string {
	return string(p.Server) + "/" + p.Company
}

// Service polls the reports directory and runs a report whenever an input
// pair is new or has changed since its last report.
type Service struct {
	cfg     config.Config
	runner  Runner
	history History
	log     *zap.Logger
	done    map[string]time.Time
}

// NewService builds a listener. history may be nil.
func NewService(cfg config.Config, runner Runner, history History, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{cfg: cfg, runner: runner, history: history, log: log, done: map[string]time.Time{}}
}

func (s *Service) Run(ctx context.Context) error {
	interval := time.Duration(s.cfg.WatchIntervalSec) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	for {
		if _, err := s.runCycle(ctx); err != nil {
			s.log.Error("listener cycle failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

// runCycle reports on every pending pair and returns how many reports were
// written. A failing pair is logged and retried next cycle.
func (s *Service) runCycle(ctx context.Context) (int, error) {
	pairs, err := FindInputPairs(s.cfg.ReportsDir, s.cfg.InputFormat)
	if err != nil {
		return 0, err
	}

	written := 0
	for _, p := range pairs {
		if ctx.Err() != nil {
			break
		}
		pending, err := s.pending(p)
		if err != nil {
			return written, err
		}
		if !pending {
			continue
		}

		res, err := s.runner.Run(pipeline.RunRequest{Server: p.Server, Company: p.Company})
		if err != nil {
			s.log.Warn("report failed", zap.String("server", string(p.Server)), zap.String("company", p.Company), zap.Error(err))
			continue
		}
		s.done[p.id()] = p.ModTime
		written++
		s.log.Info("report written by listener", zap.String("trace_id", res.TraceID), zap.String("path", res.ReportPath))
	}
	return written, nil
}

func (s *Service) pending(p InputPair) (bool, error) {
	if last, ok := s.done[p.id()]; ok {
		return p.ModTime.After(last), nil
	}
	if s.history == nil {
		return true, nil
	}
	at, ok, err := s.history.LatestRunAt(string(p.Server), p.Company)
	if err != nil {
		return false, fmt.Errorf("run history %s: %w", p.id(), err)
	}
	// the ledger keeps whole seconds
	if ok && !p.ModTime.Truncate(time.Second).After(at) {
		s.done[p.id()] = at
		return false, nil
	}
	return true, nil
}

var reCustomerInput = regexp.MustCompile(`^` + string(internal.InputCustomer) + `_([A-Z0-9]+)_(.+)_\.([a-z]+)$`)

// FindInputPairs lists the server/company pairs in dir that have both a
// customer and a vendor file of the given format. Unknown servers are
// skipped.
func FindInputPairs(dir, format string) ([]InputPair, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var out []InputPair
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := reCustomerInput.FindStringSubmatch(e.Name())
		if m == nil || m[3] != format {
			continue
		}
		server, err := internal.ParseServer(m[1])
		if err != nil {
			continue
		}
		company := m[2]

		customerInfo, err := e.Info()
		if err != nil {
			return nil, err
		}
		vendorInfo, err := os.Stat(pipeline.InputPath(dir, internal.InputVendor, server, company, format))
		if err != nil {
			continue
		}

		mod := customerInfo.ModTime()
		if vendorInfo.ModTime().After(mod) {
			mod = vendorInfo.ModTime()
		}
		out = append(out, InputPair{Server: server, Company: company, ModTime: mod})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].id() < out[j].id() })
	return out, nil
}

// EnsureReportsDir makes sure the listener has somewhere to poll.
func EnsureReportsDir(cfg config.Config) error {
	if err := os.MkdirAll(filepath.Clean(cfg.ReportsDir), 0o755); err != nil {
		return fmt.Errorf("reports dir: %w", err)
	}
	return nil
}
