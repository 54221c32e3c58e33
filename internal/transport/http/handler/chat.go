package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"career-constellation/internal/app"
	"career-constellation/internal/model"
	"career-constellation/internal/transport/http/response"
)

type ChatHandler struct {
	chatService *app.ChatService
	ragService  *app.RAGService
}

type ChatRequest struct {
	Message        string           `json:"message" binding:"required"`
	ConversationID string           `json:"conversation_id" binding:"max=64"`
	History        []model.ChatTurn `json:"conversation_history"`
	// UseRAG defaults to true when omitted.
	UseRAG *bool `json:"use_rag"`
}

type RetrieveRequest struct {
	Query string `json:"query" binding:"required"`
	TopK  int    `json:"top_k" binding:"min=0,max=50"`
}

func NewChatHandler(chatService *app.ChatService, ragService *app.RAGService) *ChatHandler {
	return &ChatHandler{chatService: chatService, ragService: ragService}
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	useRAG := true
	if req.UseRAG != nil {
		useRAG = *req.UseRAG
	}

	result, err := h.chatService.Send(c.Request.Context(), app.SendInput{
		ConversationID: req.ConversationID,
		Message:        req.Message,
		History:        req.History,
		RAGEnabled:     useRAG,
	})
	if err != nil {
		writeError(c, err, "chat failed")
		return
	}

	response.OK(c, result)
}

func (h *ChatHandler) Status(c *gin.Context) {
	response.OK(c, h.ragService.Status())
}

func (h *ChatHandler) Retrieve(c *gin.Context) {
	var req RetrieveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	results, err := h.ragService.Retrieve(c.Request.Context(), req.Query, req.TopK)
	if err != nil {
		writeError(c, err, "retrieve failed")
		return
	}

	response.OK(c, gin.H{"query": req.Query, "results": results})
}

func (h *ChatHandler) GetHistory(c *gin.Context) {
	history, err := h.chatService.History(c.Request.Context(), c.Param("conversation_id"))
	if err != nil {
		writeError(c, err, "get history failed")
		return
	}

	response.OK(c, gin.H{"conversation_id": c.Param("conversation_id"), "history": history})
}

func (h *ChatHandler) ClearHistory(c *gin.Context) {
	if err := h.chatService.ClearHistory(c.Request.Context(), c.Param("conversation_id")); err != nil {
		writeError(c, err, "clear history failed")
		return
	}

	response.OK(c, gin.H{"cleared_conversation_id": c.Param("conversation_id")})
}
