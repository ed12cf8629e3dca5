package server

import (
	"context"
	"fmt"
	"runtime"
	"slices"

	"github.com/lumi-launcher/backend/internal/logging"
	"github.com/lumi-launcher/backend/internal/models"
	"golang.org/x/sync/errgroup"
)

// DefaultCoreJar is assumed when a saved installation has no core archive selected.
const DefaultCoreJar = "core.jar"

const (
	msgSettingsMissing = "Settings missing"
	msgNoJars          = "No jars found"
)

// BatchProber scans many installations in parallel and merges each result with its running state.
type BatchProber struct {
	scanner  InstallationScanner
	detector RunningStateDetector
	workers  int
}

// NewBatchProber creates a prober. A non-positive workers value uses one worker per CPU.
func NewBatchProber(scanner InstallationScanner, detector RunningStateDetector, workers int) *BatchProber {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &BatchProber{
		scanner:  scanner,
		detector: detector,
		workers:  workers,
	}
}

// ProbeAll returns exactly one summary per input entry.
// Each goroutine writes only its own slot, so no locking is needed when merging.
func (p *BatchProber) ProbeAll(ctx context.Context, installations []models.SavedInstallation) []models.InstallationSummary {
	summaries := make([]models.InstallationSummary, len(installations))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i := range installations {
		g.Go(func() error {
			summaries[i] = p.probeIsolated(installations[i])
			return nil
		})
	}
	_ = g.Wait()

	logging.Component("prober").Debug("batch_probe_complete", "count", len(summaries))
	return summaries
}

func (p *BatchProber) probeIsolated(saved models.SavedInstallation) (summary models.InstallationSummary) {
	defer func() {
		if r := recover(); r != nil {
			logging.Component("prober").Error("probe_panic", "path", saved.Path, "panic", r)
			summary = baseSummary(saved)
			summary.Failed(fmt.Sprintf("probe failed: %v", r))
		}
	}()
	return p.Probe(saved)
}

// Probe builds the summary for a single saved installation.
func (p *BatchProber) Probe(saved models.SavedInstallation) models.InstallationSummary {
	summary := baseSummary(saved)

	outcome, err := p.scanner.Scan(saved.Path)
	if err != nil {
		summary.Failed(err.Error())
		return summary
	}

	var (
		config InstallationConfig
		jars   []string
	)
	switch o := outcome.(type) {
	case ScanNoConfig:
		summary.Failed(msgSettingsMissing)
		return summary
	case ScanNoArchives:
		summary.Failed(msgNoJars)
		return summary
	case ScanValid:
		config, jars = o.Config, o.Jars
	case ScanNeedsSelection:
		config, jars = o.Config, o.Jars
	default:
		summary.Failed(fmt.Sprintf("unexpected scan outcome %T", outcome))
		return summary
	}

	summary.Settings = models.InstallationSettings{
		MOTD:       config.MOTD,
		ServerPort: config.ServerPort,
		MaxPlayers: config.MaxPlayers,
	}

	core := saved.CoreJar
	if core == "" {
		core = DefaultCoreJar
	}
	summary.CoreJar = core

	if !slices.Contains(jars, core) {
		summary.Failed(fmt.Sprintf("Core file '%s' not found", core))
		return summary
	}

	summary.Status = p.detector.Detect(saved.Path)
	return summary
}

func baseSummary(saved models.SavedInstallation) models.InstallationSummary {
	return models.InstallationSummary{
		ID:      saved.ID,
		Name:    saved.Name,
		Path:    saved.Path,
		Status:  models.StatusUnknown,
		CoreJar: saved.CoreJar,
	}
}
