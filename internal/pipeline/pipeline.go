// Package pipeline orchestrates one assessment run: fetch forecasts for
// every site, score them, rank, and deliver the resulting document.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/flight-triage/internal/domain"
	"github.com/couchcryptid/flight-triage/internal/observability"
	"github.com/couchcryptid/flight-triage/internal/report"
)

// ForecastFetcher retrieves model data for one site and target date.
type ForecastFetcher interface {
	FetchFamilies(ctx context.Context, site domain.Site, date string) map[string][]domain.VariantOutcome
	FetchEnsembles(ctx context.Context, site domain.Site, date string) []domain.EnsembleSeries
}

// Sampler retrieves a report-only reference-hour sample from a regional
// model outside the fused stack.
type Sampler interface {
	FetchSample(ctx context.Context, site domain.Site, date string) (domain.ReferenceSample, error)
}

// RegionalSource pairs a sampler with its per-site gate. Sites outside a
// regional model's coverage are skipped, not errored.
type RegionalSource struct {
	Name    string
	Sampler Sampler
	Enabled func(domain.Site) bool
}

// Publisher delivers a finished document downstream.
type Publisher interface {
	Publish(ctx context.Context, doc report.Document) error
}

// Pipeline runs the fetch-assess-report cycle over the site catalog.
type Pipeline struct {
	sites       []domain.Site
	fetcher     ForecastFetcher
	regional    []RegionalSource
	publisher   Publisher // nil when publishing is disabled
	outputDir   string
	concurrency int
	logger      *slog.Logger
	metrics     *observability.Metrics
	clock       clockwork.Clock

	ready  atomic.Bool
	mu     sync.RWMutex
	latest report.Document
	hasDoc bool
}

// New creates a Pipeline. publisher may be nil.
func New(sites []domain.Site, fetcher ForecastFetcher, regional []RegionalSource, publisher Publisher, outputDir string, concurrency int, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pipeline{
		sites:       sites,
		fetcher:     fetcher,
		regional:    regional,
		publisher:   publisher,
		outputDir:   outputDir,
		concurrency: concurrency,
		logger:      logger,
		metrics:     metrics,
		clock:       clockwork.NewRealClock(),
	}
}

// SetClock replaces the pipeline clock, for tests.
func (p *Pipeline) SetClock(c clockwork.Clock) {
	p.clock = c
}

// CheckReadiness returns nil once the pipeline has completed at least one
// run, or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// Latest returns the most recent finished document.
func (p *Pipeline) Latest() (report.Document, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest, p.hasDoc
}

// Run executes one full cycle for the target date: fetch all sites
// concurrently, assess, rank, write report files, and publish. Upstream
// fetch failures degrade individual assessments, they never fail the run.
func (p *Pipeline) Run(ctx context.Context, targetDate string) (report.Document, error) {
	runID := uuid.NewString()
	start := p.clock.Now()

	p.logger.Info("run started", "run_id", runID, "target_date", targetDate, "sites", len(p.sites))
	p.metrics.RunsTotal.Inc()
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	assessments := make([]domain.Assessment, len(p.sites))
	samples := make(map[string][]domain.ReferenceSample)
	var samplesMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, site := range p.sites {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			assessments[i] = p.assessSite(gctx, site, targetDate)

			for _, src := range p.regional {
				if src.Enabled != nil && !src.Enabled(site) {
					continue
				}
				sample, err := src.Sampler.FetchSample(gctx, site, targetDate)
				if err != nil {
					p.logger.Warn("regional sample unavailable",
						"site", site.ID, "source", src.Name, "error", err)
					continue
				}
				samplesMu.Lock()
				samples[site.ID] = append(samples[site.ID], sample)
				samplesMu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report.Document{}, fmt.Errorf("run %s: %w", runID, err)
	}

	domain.Rank(assessments)
	for _, a := range assessments {
		p.metrics.AssessmentsTotal.WithLabelValues(string(a.Status)).Inc()
	}

	doc := report.Build(runID, targetDate, p.clock.Now().UTC(), assessments, samples)

	jsonPath, mdPath, err := report.WriteFiles(p.outputDir, doc)
	if err != nil {
		return report.Document{}, fmt.Errorf("run %s: %w", runID, err)
	}
	p.metrics.ReportsWritten.WithLabelValues("json").Inc()
	p.metrics.ReportsWritten.WithLabelValues("markdown").Inc()

	p.mu.Lock()
	p.latest = doc
	p.hasDoc = true
	p.mu.Unlock()
	p.ready.Store(true)

	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, doc); err != nil {
			return doc, fmt.Errorf("run %s: %w", runID, err)
		}
	}

	elapsed := p.clock.Since(start)
	p.metrics.RunDuration.Observe(elapsed.Seconds())
	p.metrics.RunLastSuccess.Set(float64(p.clock.Now().Unix()))
	p.logger.Info("run finished",
		"run_id", runID,
		"duration", elapsed,
		"json", jsonPath,
		"markdown", mdPath,
	)
	return doc, nil
}

// RunLoop runs immediately and then on every interval tick until the
// context is cancelled. Each cycle re-targets the next Saturday so a
// long-running service rolls over weekends without restarts.
func (p *Pipeline) RunLoop(ctx context.Context, interval time.Duration, loc *time.Location) error {
	for {
		date := domain.NextSaturday(loc)
		if _, err := p.Run(ctx, date); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.logger.Error("run failed", "target_date", date, "error", err)
		}
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-p.clock.After(interval):
		}
	}
}

func (p *Pipeline) assessSite(ctx context.Context, site domain.Site, targetDate string) domain.Assessment {
	in := domain.AssessmentInput{
		Site:       site,
		TargetDate: targetDate,
		Families:   p.fetcher.FetchFamilies(ctx, site, targetDate),
		Ensembles:  p.fetcher.FetchEnsembles(ctx, site, targetDate),
	}
	a := domain.Assess(in)
	p.logger.Info("site assessed",
		"site", site.ID,
		"status", a.Status,
		"score", a.Score,
		"thermal_hours", a.Thermal.Duration,
	)
	return a
}
