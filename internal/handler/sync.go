package handler

import (
	"net/http"

	"zonagarage/internal/sync"

	"github.com/gin-gonic/gin"
)

// SyncHandler exposes the remote-sync admin surface: status inspection and
// manual trigger.
type SyncHandler struct{ syncer *sync.Syncer }

func NewSyncHandler(syncer *sync.Syncer) *SyncHandler { return &SyncHandler{syncer: syncer} }

// Estado reports the last sync time, circuit breaker state, and recent errors.
func (h *SyncHandler) Estado(c *gin.Context) {
	c.JSON(http.StatusOK, h.syncer.Estado())
}

// Ejecutar schedules an immediate sync cycle.
func (h *SyncHandler) Ejecutar(c *gin.Context) {
	h.syncer.ForceRun()
	c.JSON(http.StatusAccepted, gin.H{"detail": "sincronización programada"})
}
