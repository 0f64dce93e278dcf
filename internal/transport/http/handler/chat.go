package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"docuchat/internal/ai"
	"docuchat/internal/app"
	"docuchat/internal/transport/http/response"
)

type ChatHandler struct {
	chatService *app.ChatService
}

func NewChatHandler(chatService *app.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

type ChatRequest struct {
	Question  string `json:"question" binding:"required"`
	SessionID string `json:"session_id"`
	Model     string `json:"model"`
}

type ChatResponse struct {
	Answer    string `json:"answer"`
	SessionID string `json:"session_id"`
	Model     string `json:"model"`
}

// Chat handles POST /chat.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Detail(c, http.StatusBadRequest, "question is required")
		return
	}

	result, err := h.chatService.ChatTurn(c.Request.Context(), app.ChatInput{
		Question:  req.Question,
		SessionID: req.SessionID,
		Model:     req.Model,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput), errors.Is(err, ai.ErrUnknownModel):
			response.Detail(c, http.StatusBadRequest, err.Error())
		default:
			response.Detail(c, http.StatusInternalServerError,
				"an error occurred while processing your request: "+err.Error())
		}
		return
	}

	response.OK(c, ChatResponse{
		Answer:    result.Answer,
		SessionID: result.SessionID,
		Model:     result.Model,
	})
}
