package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lumi-launcher/backend/internal/database"
	"github.com/lumi-launcher/backend/internal/models"
)

// InstallationStore persists saved installations.
type InstallationStore interface {
	Add(ctx context.Context, name, path, coreJar string) (models.SavedInstallation, error)
	List(ctx context.Context) ([]models.SavedInstallation, error)
	Get(ctx context.Context, id string) (models.SavedInstallation, error)
	Remove(ctx context.Context, id string) error
	SetCoreArchive(ctx context.Context, id, coreJar string) (models.SavedInstallation, error)
}

// Refresher runs an immediate status refresh and pushes the result.
type Refresher interface {
	RefreshNow(ctx context.Context) ([]models.InstallationSummary, error)
}

// InstallationHandler manages the saved installation list.
type InstallationHandler struct {
	store     InstallationStore
	prober    BatchProber
	refresher Refresher
}

func NewInstallationHandler(store InstallationStore, prober BatchProber, refresher Refresher) *InstallationHandler {
	return &InstallationHandler{
		store:     store,
		prober:    prober,
		refresher: refresher,
	}
}

type addInstallationRequest struct {
	Name    string `json:"name"`
	Path    string `json:"path" binding:"required"`
	CoreJar string `json:"coreJar"`
}

type setCoreRequest struct {
	CoreJar string `json:"coreJar" binding:"required"`
}

func (h *InstallationHandler) List(c *gin.Context) {
	installations, err := h.store.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, installations)
}

func (h *InstallationHandler) Get(c *gin.Context) {
	installation, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, installation)
}

func (h *InstallationHandler) Add(c *gin.Context) {
	var req addInstallationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	installation, err := h.store.Add(c.Request.Context(), req.Name, req.Path, req.CoreJar)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, installation)
}

func (h *InstallationHandler) Remove(c *gin.Context) {
	if err := h.store.Remove(c.Request.Context(), c.Param("id")); err != nil {
		respondStoreError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetCore persists the archive picked after a NeedCoreSelection scan.
func (h *InstallationHandler) SetCore(c *gin.Context) {
	var req setCoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	installation, err := h.store.SetCoreArchive(c.Request.Context(), c.Param("id"), req.CoreJar)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, installation)
}

// Summary probes every saved installation without publishing.
func (h *InstallationHandler) Summary(c *gin.Context) {
	installations, err := h.store.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.prober.ProbeAll(c.Request.Context(), installations))
}

// Refresh probes now and pushes the result to websocket clients.
func (h *InstallationHandler) Refresh(c *gin.Context) {
	summaries, err := h.refresher.RefreshNow(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summaries)
}

func respondStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, database.ErrInstallationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, database.ErrInstallationExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
