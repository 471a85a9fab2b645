package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/formcraft-backend/internal/http/response"
	"github.com/yungbote/formcraft-backend/internal/platform/logger"
	"github.com/yungbote/formcraft-backend/internal/services"
)

type ConversationHandler struct {
	log           *logger.Logger
	conversations services.ConversationService
}

func NewConversationHandler(log *logger.Logger, conversations services.ConversationService) *ConversationHandler {
	return &ConversationHandler{
		log:           log.With("handler", "ConversationHandler"),
		conversations: conversations,
	}
}

// GET /api/conversations
func (h *ConversationHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	list, err := h.conversations.GetUserConversations(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, h.log, "List conversations", err)
		return
	}
	response.RespondOK(c, gin.H{"conversations": list})
}

// POST /api/conversations
func (h *ConversationHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req struct {
		Title string `json:"title"`
	}
	// The body is optional.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
	}
	conv, err := h.conversations.CreateConversation(c.Request.Context(), userID, req.Title)
	if err != nil {
		respondServiceError(c, h.log, "Create conversation", err)
		return
	}
	response.RespondCreated(c, gin.H{"conversation": conv})
}

// PATCH /api/conversations/:id
func (h *ConversationHandler) Rename(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	convID, ok := pathID(c, "invalid_conversation_id")
	if !ok {
		return
	}
	var req struct {
		Title string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	conv, err := h.conversations.UpdateConversationTitle(c.Request.Context(), userID, convID, req.Title)
	if err != nil {
		respondServiceError(c, h.log, "Rename conversation", err)
		return
	}
	response.RespondOK(c, gin.H{"conversation": conv})
}

// GET /api/conversations/:id/messages
func (h *ConversationHandler) Messages(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	convID, ok := pathID(c, "invalid_conversation_id")
	if !ok {
		return
	}
	msgs, err := h.conversations.GetChatHistory(c.Request.Context(), userID, convID)
	if err != nil {
		respondServiceError(c, h.log, "Chat history", err)
		return
	}
	response.RespondOK(c, gin.H{"messages": msgs})
}

// POST /api/conversations/:id/messages
func (h *ConversationHandler) SendPrompt(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	convID, ok := pathID(c, "invalid_conversation_id")
	if !ok {
		return
	}
	var req struct {
		Content  string `json:"content"`
		Language string `json:"language"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("content is required"))
		return
	}
	res, err := h.conversations.SendPrompt(c.Request.Context(), userID, convID, req.Content, req.Language)
	if err != nil {
		// A failed save still leaves the apology in the thread; hand it back with the error.
		if res.AssistantMessage != nil {
			h.log.Error("Chat turn failed", "conversation_id", convID, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":             response.APIError{Message: res.AssistantMessage.Content, Code: "generation_failed"},
				"assistant_message": res.AssistantMessage,
			})
			return
		}
		respondServiceError(c, h.log, "Send prompt", err)
		return
	}
	response.RespondCreated(c, res)
}
