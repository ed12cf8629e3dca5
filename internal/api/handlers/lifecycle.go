package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lumi-launcher/backend/internal/models"
	"github.com/lumi-launcher/backend/internal/runtimecheck"
	"github.com/lumi-launcher/backend/internal/server"
)

// RuntimeChecker reports whether a compatible server runtime is installed.
type RuntimeChecker interface {
	Check(ctx context.Context, requiredVersion string) runtimecheck.Result
}

// BatchProber summarizes many installations at once.
type BatchProber interface {
	ProbeAll(ctx context.Context, installations []models.SavedInstallation) []models.InstallationSummary
}

// ProcessController starts and force-stops server processes.
type ProcessController interface {
	Launch(path, coreJar string) (uint32, error)
	Terminate(ctx context.Context, pid uint32) error
}

// LifecycleHandler exposes runtime, scan, status, probe, launch and terminate operations.
type LifecycleHandler struct {
	runtime         RuntimeChecker
	requiredVersion string
	scanner         server.InstallationScanner
	detector        server.RunningStateDetector
	prober          BatchProber
	processes       ProcessController
}

func NewLifecycleHandler(
	runtime RuntimeChecker,
	requiredVersion string,
	scanner server.InstallationScanner,
	detector server.RunningStateDetector,
	prober BatchProber,
	processes ProcessController,
) *LifecycleHandler {
	return &LifecycleHandler{
		runtime:         runtime,
		requiredVersion: requiredVersion,
		scanner:         scanner,
		detector:        detector,
		prober:          prober,
		processes:       processes,
	}
}

type pathRequest struct {
	Path string `json:"path" binding:"required"`
}

type launchRequest struct {
	Path    string `json:"path" binding:"required"`
	CoreJar string `json:"coreJar" binding:"required"`
}

type terminateRequest struct {
	PID *uint32 `json:"pid" binding:"required"`
}

// scanResponse is the tagged wire form of a ScanOutcome. Data is omitted for
// the cases that carry nothing.
type scanResponse struct {
	Status server.ScanKind     `json:"status"`
	Data   server.ScanOutcome `json:"data,omitempty"`
}

// CheckRuntime handles GET /runtime. It always answers 200.
func (h *LifecycleHandler) CheckRuntime(c *gin.Context) {
	required := c.Query("required")
	if required == "" {
		required = h.requiredVersion
	}
	c.JSON(http.StatusOK, h.runtime.Check(c.Request.Context(), required))
}

// Scan handles POST /scan.
func (h *LifecycleHandler) Scan(c *gin.Context) {
	var req pathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := h.scanner.Scan(req.Path)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, encodeOutcome(outcome))
}

// Status handles POST /status.
func (h *LifecycleHandler) Status(c *gin.Context) {
	var req pathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": h.detector.Detect(req.Path)})
}

// ProbeAll handles POST /probe with the shell's own list of installations.
func (h *LifecycleHandler) ProbeAll(c *gin.Context) {
	var installations []models.SavedInstallation
	if err := c.ShouldBindJSON(&installations); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.prober.ProbeAll(c.Request.Context(), installations))
}

// Launch handles POST /launch.
func (h *LifecycleHandler) Launch(c *gin.Context) {
	var req launchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pid, err := h.processes.Launch(req.Path, req.CoreJar)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, server.ErrCoreNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"pid": pid})
}

// Terminate handles POST /terminate.
func (h *LifecycleHandler) Terminate(c *gin.Context) {
	var req terminateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.processes.Terminate(c.Request.Context(), *req.PID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

func encodeOutcome(outcome server.ScanOutcome) scanResponse {
	resp := scanResponse{Status: outcome.Kind()}
	switch outcome.(type) {
	case server.ScanValid, server.ScanNeedsSelection:
		resp.Data = outcome
	}
	return resp
}
