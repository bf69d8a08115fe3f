package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lamim/promptlab/internal/orchestrator"
	"github.com/lamim/promptlab/internal/prompt"
	"github.com/lamim/promptlab/internal/report"
	"github.com/lamim/promptlab/pkg/models"
)

// Runner executes and stores one experiment
type Runner interface {
	Run(ctx context.Context, story models.StoryConfig, onProgress orchestrator.ProgressFunc) (*models.ExperimentRun, error)
}

// RunReader is the read and delete side of the run history
type RunReader interface {
	List() ([]models.ExperimentRun, error)
	Get(id string) (models.ExperimentRun, bool, error)
	Delete(id string) (bool, error)
}

// Handler serves the API routes
type Handler struct {
	runner   Runner
	runs     RunReader
	defaults models.StoryConfig
	logger   *slog.Logger

	mu       sync.Mutex
	running  bool
	started  time.Time
	variants map[models.VariantID]models.Progress
}

// NewHandler creates a handler. defaults seeds fields missing from a run request.
func NewHandler(runner Runner, runs RunReader, defaults models.StoryConfig, logger *slog.Logger) *Handler {
	return &Handler{
		runner:   runner,
		runs:     runs,
		defaults: defaults,
		logger:   logger,
		variants: make(map[models.VariantID]models.Progress),
	}
}

// ListVariants returns the prompt catalog
func (h *Handler) ListVariants(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"variants": prompt.Catalog()})
}

// DefaultConfig returns the configured default brief
func (h *Handler) DefaultConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.defaults)
}

type variantProgress struct {
	VariantID models.VariantID      `json:"variantId"`
	Status    models.ProgressStatus `json:"status"`
	Message   string                `json:"message,omitempty"`
}

// Progress reports whether an experiment is running and where each variant is
func (h *Handler) Progress(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	variants := make([]variantProgress, 0, len(h.variants))
	for _, v := range prompt.Catalog() {
		if p, ok := h.variants[v.ID]; ok {
			variants = append(variants, variantProgress{VariantID: p.VariantID, Status: p.Status, Message: p.Message})
		}
	}

	resp := gin.H{"running": h.running, "variants": variants}
	if !h.started.IsZero() {
		resp["startedAt"] = h.started.UnixMilli()
	}
	c.JSON(http.StatusOK, resp)
}

// CreateRun runs every variant against the posted brief and returns the
// stored run. It blocks until the run finishes.
func (h *Handler) CreateRun(c *gin.Context) {
	story := h.defaults.Clone()
	if err := c.ShouldBindJSON(&story); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.begin() {
		c.JSON(http.StatusConflict, gin.H{"error": "an experiment is already running"})
		return
	}
	defer h.finish()

	run, err := h.runner.Run(c.Request.Context(), story, h.track)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, run)
	case orchestrator.IsMissingKey(err):
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": err.Error()})
	case errors.Is(err, orchestrator.ErrInvalidStory):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case run != nil:
		h.logger.Error("Run finished but was not saved", "run_id", run.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "run": run})
	default:
		h.logger.Error("Run failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// ListRuns returns the history, newest first
func (h *Handler) ListRuns(c *gin.Context) {
	runs, err := h.runs.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	type summary struct {
		models.ExperimentRun
		AverageRating float64 `json:"averageRating"`
	}
	out := make([]summary, len(runs))
	for i, run := range runs {
		out[i] = summary{ExperimentRun: run, AverageRating: report.RunAverage(run)}
	}
	c.JSON(http.StatusOK, gin.H{"runs": out})
}

// GetRun returns one run
func (h *Handler) GetRun(c *gin.Context) {
	if run, ok := h.lookup(c); ok {
		c.JSON(http.StatusOK, run)
	}
}

// DeleteRun removes one run from the history
func (h *Handler) DeleteRun(c *gin.Context) {
	id := c.Param("id")
	removed, err := h.runs.Delete(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found: " + id})
		return
	}
	h.logger.Info("Deleted run", "run_id", id)
	c.Status(http.StatusNoContent)
}

// Leaderboard ranks the results of one run
func (h *Handler) Leaderboard(c *gin.Context) {
	if run, ok := h.lookup(c); ok {
		c.JSON(http.StatusOK, gin.H{
			"runId":         run.ID,
			"averageRating": report.RunAverage(run),
			"leaderboard":   report.Leaderboard(run.Results),
		})
	}
}

// Charts returns chart-ready series for one run
func (h *Handler) Charts(c *gin.Context) {
	if run, ok := h.lookup(c); ok {
		c.JSON(http.StatusOK, report.Charts(run))
	}
}

// Compare diffs two variants of one run. a and b default to V0 and V3.
func (h *Handler) Compare(c *gin.Context) {
	run, ok := h.lookup(c)
	if !ok {
		return
	}

	a := models.VariantID(c.DefaultQuery("a", string(report.DefaultCompareA)))
	b := models.VariantID(c.DefaultQuery("b", string(report.DefaultCompareB)))
	cmp, err := report.Compare(run, a, b)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cmp)
}

func (h *Handler) lookup(c *gin.Context) (models.ExperimentRun, bool) {
	id := c.Param("id")
	run, ok, err := h.runs.Get(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return run, false
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found: " + id})
		return run, false
	}
	return run, true
}

func (h *Handler) begin() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return false
	}
	h.running = true
	h.started = time.Now()
	h.variants = make(map[models.VariantID]models.Progress)
	return true
}

func (h *Handler) finish() {
	h.mu.Lock()
	h.running = false
	h.mu.Unlock()
}

func (h *Handler) track(p models.Progress) {
	h.mu.Lock()
	h.variants[p.VariantID] = p
	h.mu.Unlock()
}
