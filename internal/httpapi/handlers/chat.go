package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/matria-app/matria/internal/common"
	"github.com/matria-app/matria/internal/conversation"
)

type createConversationReq struct {
	FirstMessage string `json:"first_message"`
}

func (h *Handler) CreateConversation(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req createConversationReq
	_ = c.ShouldBindJSON(&req) // allow empty {}

	var first *conversation.NewMessage
	if req.FirstMessage != "" {
		first = &conversation.NewMessage{Text: req.FirstMessage, FromUser: true}
	}

	conv, err := h.Convs.Create(uid, first)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to create conversation")
		return
	}

	common.OK(c, gin.H{"conversation": conv})
}

type sendMessageReq struct {
	ConversationID string `json:"conversation_id" binding:"required"`
	Message        string `json:"message" binding:"required"`
}

// SendMessage records the user message locally, asks the assistant and
// records the reply. The assistant call is masked behind a canned fallback,
// so the user always gets an answer.
func (h *Handler) SendMessage(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	conv, err := h.Convs.Get(req.ConversationID)
	if err != nil || conv.UserID != uid {
		common.Fail(c, http.StatusNotFound, 40404, "conversation not found")
		return
	}

	if _, err := h.Convs.AddMessage(conv.ID, conversation.NewMessage{Text: req.Message, FromUser: true}); err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to record message")
		return
	}

	reply, fromFallback := h.Assistant.Ask(c.Request.Context(), req.Message)

	updated, err := h.Convs.AddMessage(conv.ID, conversation.NewMessage{Text: reply, FromUser: false})
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to record reply")
		return
	}

	common.OK(c, gin.H{
		"conversation_id": conv.ID,
		"reply":           reply,
		"from_fallback":   fromFallback,
		"message_count":   updated.MessageCount,
		"title":           updated.Title,
	})
}

func (h *Handler) ListConversations(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	convs := h.Convs.ForUser(uid)

	// message bodies stay out of the listing
	out := make([]gin.H, 0, len(convs))
	for _, conv := range convs {
		out = append(out, gin.H{
			"id":              conv.ID,
			"title":           conv.Title,
			"message_count":   conv.MessageCount,
			"synced":          conv.Synced,
			"created_at":      conv.CreatedAt,
			"updated_at":      conv.UpdatedAt,
			"last_message_at": conv.LastMessageAt,
		})
	}
	common.OK(c, gin.H{"conversations": out})
}

func (h *Handler) ListMessages(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	conv, err := h.Convs.Get(c.Param("id"))
	if err != nil || conv.UserID != uid {
		common.Fail(c, http.StatusNotFound, 40404, "conversation not found")
		return
	}

	common.OK(c, gin.H{
		"conversation_id": conv.ID,
		"title":           conv.Title,
		"messages":        conv.Messages,
	})
}

func (h *Handler) DeleteConversation(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	conv, err := h.Convs.Get(c.Param("id"))
	if err != nil || conv.UserID != uid {
		common.Fail(c, http.StatusNotFound, 40404, "conversation not found")
		return
	}

	if err := h.Convs.Delete(conv.ID); err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to delete conversation")
		return
	}
	common.OK(c, gin.H{"deleted": true})
}
