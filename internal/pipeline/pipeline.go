package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/landcover-sample-etl/internal/artifact"
	"github.com/couchcryptid/landcover-sample-etl/internal/domain"
	"github.com/couchcryptid/landcover-sample-etl/internal/observability"
)

// ErrUnknownStage is returned by RunStage for a name no stage answers to.
var ErrUnknownStage = errors.New("unknown stage")

// StageSummary is one finished stage in a run's status.
type StageSummary struct {
	Stage     string  `json:"stage"`
	Artifacts int     `json:"artifacts"`
	Rows      int     `json:"rows"`
	Seconds   float64 `json:"seconds"`
}

// Status is a snapshot of the current or last run.
type Status struct {
	RunID     string         `json:"run_id"`
	Running   bool           `json:"running"`
	Stage     string         `json:"stage,omitempty"`
	StartedAt time.Time      `json:"started_at"`
	Completed []StageSummary `json:"completed"`
	Error     string         `json:"error,omitempty"`
}

// Pipeline runs stages in order, wiring each stage's artifacts into the next
// stage's request.
type Pipeline struct {
	stages   []Stage
	notifier Notifier
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu     sync.Mutex
	status Status
}

// New creates a Pipeline. notifier may be nil.
func New(stages []Stage, notifier Notifier, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		stages:   stages,
		notifier: notifier,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness returns nil while a run is in progress and has not failed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.status.Error != "":
		return fmt.Errorf("run %s failed: %s", p.status.RunID, p.status.Error)
	case !p.status.Running:
		return errors.New("no run in progress")
	}
	return nil
}

// Status returns a copy of the run status.
func (p *Pipeline) Status() any {
	return p.Snapshot()
}

// Snapshot returns a copy of the run status.
func (p *Pipeline) Snapshot() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.status
	s.Completed = append([]StageSummary(nil), p.status.Completed...)
	return s
}

// Run executes every stage in order. It stops at the first failing stage.
func (p *Pipeline) Run(ctx context.Context, runID string) ([]Result, error) {
	p.begin(runID)
	p.logger.Info("pipeline started", "run_id", runID, "stages", len(p.stages))

	var (
		results []Result
		inputs  []artifact.Artifact
	)
	for _, st := range p.stages {
		res, err := p.runOne(ctx, st, Request{RunID: runID, Inputs: inputs})
		results = append(results, res)
		if err != nil {
			p.end(err)
			return results, err
		}
		inputs = res.Artifacts
	}
	p.end(nil)
	p.logger.Info("pipeline finished", "run_id", runID)
	return results, nil
}

// RunStage executes the single stage called name, discovering its inputs
// from the artifact layout.
func (p *Pipeline) RunStage(ctx context.Context, runID, name string) (Result, error) {
	for _, st := range p.stages {
		if st.Name() != name {
			continue
		}
		p.begin(runID)
		res, err := p.runOne(ctx, st, Request{RunID: runID})
		p.end(err)
		return res, err
	}
	return Result{}, fmt.Errorf("%w: %q", ErrUnknownStage, name)
}

func (p *Pipeline) runOne(ctx context.Context, st Stage, req Request) (Result, error) {
	name := st.Name()
	p.setStage(name)
	p.logger.Info("stage started", "stage", name, "inputs", len(req.Inputs))

	start := domain.Now()
	res, err := st.Run(ctx, req)
	elapsed := domain.Since(start)
	p.metrics.StageDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	if res.Duration == 0 {
		res.Duration = elapsed
	}

	// Partial results of a failed stage are announced too.
	p.notify(ctx, req.RunID, name, res.Artifacts)

	if err != nil {
		p.logger.Error("stage failed", "stage", name, "error", err, "artifacts", len(res.Artifacts))
		return res, fmt.Errorf("stage %s: %w", name, err)
	}

	rows := 0
	for _, a := range res.Artifacts {
		rows += a.Rows
	}
	p.complete(StageSummary{Stage: name, Artifacts: len(res.Artifacts), Rows: rows, Seconds: elapsed.Seconds()})
	p.logger.Info("stage finished", "stage", name, "artifacts", len(res.Artifacts), "duration", elapsed)
	return res, nil
}

// notify publishes artifacts. Publishing failures are logged and counted and
// do not fail the run.
func (p *Pipeline) notify(ctx context.Context, runID, stage string, artifacts []artifact.Artifact) {
	if p.notifier == nil || len(artifacts) == 0 {
		return
	}
	kind := string(artifacts[0].Kind)
	if err := p.notifier.Notify(ctx, runID, stage, artifacts); err != nil {
		p.metrics.ArtifactsPublished.WithLabelValues(kind, "error").Add(float64(len(artifacts)))
		p.logger.Error("publish artifact events failed", "stage", stage, "error", err)
		return
	}
	p.metrics.ArtifactsPublished.WithLabelValues(kind, "success").Add(float64(len(artifacts)))
}

func (p *Pipeline) begin(runID string) {
	p.metrics.PipelineRunning.Set(1)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = Status{RunID: runID, Running: true, StartedAt: domain.Now()}
}

func (p *Pipeline) end(err error) {
	p.metrics.PipelineRunning.Set(0)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.Running = false
	p.status.Stage = ""
	if err != nil {
		p.status.Error = err.Error()
	}
}

func (p *Pipeline) setStage(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.Stage = name
}

func (p *Pipeline) complete(s StageSummary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.Completed = append(p.status.Completed, s)
}
