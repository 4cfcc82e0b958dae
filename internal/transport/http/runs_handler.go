package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"sync/atomic"

	"github.com/go-chi/render"
	"golang.org/x/sync/semaphore"

	reporterrors "factsheet/internal/errors"
	"factsheet/internal/infrastructure"
	"factsheet/internal/pipeline"
	api "factsheet/pkg/contracts/api/v1"
	"factsheet/pkg/contracts/domain"
)

// Runner executes one report run.
type Runner interface {
	Run(ctx context.Context, settings domain.Settings) (*pipeline.BatchResult, error)
}

// runRequest binds api.RunRequest with chi render.
type runRequest struct {
	api.RunRequest
}

// Bind implements render.Binder
func (req *runRequest) Bind(*http.Request) error {
	return req.Validate()
}

// RunsHandler starts runs. At most one run executes at a time.
type RunsHandler struct {
	runner       Runner
	gate         *semaphore.Weighted
	running      atomic.Bool
	manifestPath string
	baseCtx      context.Context
	wg           sync.WaitGroup
	logger       *slog.Logger
}

// NewRunsHandler creates the handler. Background runs derive their context
// from baseCtx, so cancelling it stops them at the next fund boundary.
func NewRunsHandler(baseCtx context.Context, runner Runner, manifestPath string, logger *slog.Logger) *RunsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunsHandler{
		runner:       runner,
		gate:         semaphore.NewWeighted(1),
		manifestPath: manifestPath,
		baseCtx:      baseCtx,
		logger:       logger.With(slog.String("handler", "runs")),
	}
}

// Running reports whether a run is in progress.
func (h *RunsHandler) Running() bool { return h.running.Load() }

// Wait blocks until background runs have finished.
func (h *RunsHandler) Wait() { h.wg.Wait() }

// Create handles POST /api/runs
func (h *RunsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := render.Bind(r, &req); err != nil {
		h.problem(w, r, reporterrors.InvalidSettings(err))
		return
	}
	settings, err := req.Settings()
	if err != nil {
		h.problem(w, r, reporterrors.InvalidSettings(err))
		return
	}

	if !h.gate.TryAcquire(1) {
		pd := reporterrors.NewProblemDetails(http.StatusConflict, reporterrors.TypeConflict,
			"Run In Progress", "a report run is already in progress", r.URL.Path)
		reporterrors.WriteProblem(w, r, pd)
		return
	}
	h.running.Store(true)

	runID := infrastructure.GenerateRunID()

	if r.URL.Query().Get("wait") == "true" {
		ctx := infrastructure.WithRunID(r.Context(), runID)
		result, err := h.execute(ctx, settings)
		if err != nil {
			pd := reporterrors.ToProblem(err, r.URL.Path).WithExtension("run_id", runID)
			if result != nil {
				pd.WithExtension("funds", pipeline.NewManifest(result).Funds)
			}
			reporterrors.WriteProblem(w, r, pd)
			return
		}
		render.JSON(w, r, pipeline.NewManifest(result))
		return
	}

	ctx := infrastructure.WithRunID(h.baseCtx, runID)
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		if _, err := h.execute(ctx, settings); err != nil {
			h.logger.ErrorContext(ctx, "Background run failed", slog.String("error", err.Error()))
		}
	}()

	h.logger.InfoContext(ctx, "Run accepted",
		slog.String("selection", settings.FundSelection))
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, api.RunAccepted{RunID: runID, Status: "accepted"})
}

// execute runs the pipeline and releases the gate.
func (h *RunsHandler) execute(ctx context.Context, settings domain.Settings) (*pipeline.BatchResult, error) {
	defer func() {
		h.running.Store(false)
		h.gate.Release(1)
	}()
	return h.runner.Run(ctx, settings)
}

// Last handles GET /api/runs/last
func (h *RunsHandler) Last(w http.ResponseWriter, r *http.Request) {
	m, err := pipeline.ReadManifest(h.manifestPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			pd := reporterrors.NewProblemDetails(http.StatusNotFound, reporterrors.TypeNotFound,
				"No Run Yet", "no run has finished yet", r.URL.Path)
			reporterrors.WriteProblem(w, r, pd)
			return
		}
		h.problem(w, r, err)
		return
	}
	render.JSON(w, r, m)
}

func (h *RunsHandler) problem(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.WarnContext(r.Context(), "Request failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()))
	reporterrors.WriteProblem(w, r, reporterrors.ToProblem(err, r.URL.Path))
}
