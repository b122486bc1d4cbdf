package handlers

import (
	"net/http"

	"github.com/chefwise/chefwise-api/internal/domain"
	"github.com/chefwise/chefwise-api/internal/service"
	"github.com/chefwise/chefwise-api/pkg/logger"
	"github.com/chefwise/chefwise-api/pkg/res"
	"github.com/gin-gonic/gin"
)

// ChatHandler обработчик диалога с кулинарным ассистентом
type ChatHandler struct {
	recipes service.RecipeService
	log     *logger.Logger
}

// NewChatHandler создает обработчик
func NewChatHandler(recipes service.RecipeService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{recipes: recipes, log: log}
}

type chatMessagePayload struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required,max=5000"`
}

type chatRequest struct {
	Messages []chatMessagePayload `json:"messages" binding:"required,min=1,max=50,dive"`
}

var chatFieldMessages = map[string]string{
	"Messages": "Messages are required",
	"Role":     "Invalid message role",
	"Content":  "Message content is invalid",
}

// Chat обрабатывает POST /api/chat-recipe
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		res.Error(c, http.StatusBadRequest, validationMessage(err, chatFieldMessages, "Messages are required"))
		return
	}

	messages := make([]domain.ChatMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, domain.ChatMessage{Role: m.Role, Content: m.Content})
	}

	reply, err := h.recipes.Chat(c.Request.Context(), messages)
	if err != nil {
		writeCompletionError(c, err, "Failed to get response")
		return
	}

	res.Json(c, http.StatusOK, gin.H{"message": reply})
}
