package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/matria-app/matria/internal/common"
	"github.com/matria-app/matria/internal/store/rabbitmq"
)

func (h *Handler) Ping(c *gin.Context) {
	assistantStatus := "ok"
	if err := h.Assistant.HealthCheck(c.Request.Context()); err != nil {
		assistantStatus = "unreachable"
	}
	common.OK(c, gin.H{
		"status":    "ok",
		"assistant": assistantStatus,
	})
}

// Stats exposes the read-side aggregations over the local store.
func (h *Handler) Stats(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	sessStats := h.Sessions.Stats()
	convStats := h.Convs.Stats()

	common.OK(c, gin.H{
		"sessions":      sessStats,
		"conversations": convStats,
		"my_sessions":   sessStats.SessionsPerUser[uid],
	})
}

// TriggerSync enqueues a sync pass for both datasets; without a broker the
// pass runs inline and the report is returned directly.
func (h *Handler) TriggerSync(c *gin.Context) {
	if _, ok := userIDFromContext(c); !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	if h.Rabbit == nil {
		ctx := c.Request.Context()
		sessRep := h.Syncer.SyncSessions(ctx)
		convRep := h.Syncer.SyncConversations(ctx)
		common.OK(c, gin.H{
			"mode":          "inline",
			"sessions":      sessRep,
			"conversations": convRep,
		})
		return
	}

	for _, kind := range []rabbitmq.SyncKind{rabbitmq.SyncSessions, rabbitmq.SyncConversations} {
		if err := h.Rabbit.PublishSyncJob(c.Request.Context(), kind); err != nil {
			log.Printf("[Sync] enqueue failed kind=%s err=%v", kind, err)
			common.Fail(c, http.StatusInternalServerError, 50002, "enqueue failed")
			return
		}
	}
	common.OK(c, gin.H{"mode": "queued"})
}
