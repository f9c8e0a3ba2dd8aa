package handler

import (
	"net/http"

	"github.com/Baaaki/community-hub/internal/service"
	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	messageService *service.MessageService
}

func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

type SendMessageRequest struct {
	ReceiverID uint   `json:"receiver_id" binding:"required"`
	Body       string `json:"body" binding:"required"`
}

// Conversations lists every other user with the latest message time and unread count
// GET /api/messages
func (h *MessageHandler) Conversations(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	summaries, err := h.messageService.Conversations(sess)
	if err != nil {
		respondError(c, err, "list conversations")
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": nonNil(summaries)})
}

// Conversation returns the thread with one user and marks it read
// GET /api/messages/:userId
func (h *MessageHandler) Conversation(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	otherID, ok := idParam(c, "userId")
	if !ok {
		return
	}

	messages, err := h.messageService.Conversation(sess, otherID)
	if err != nil {
		respondError(c, err, "load conversation")
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": nonNil(messages)})
}

// GET /api/messages/unread
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	count, err := h.messageService.UnreadCount(sess)
	if err != nil {
		respondError(c, err, "count unread messages")
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// POST /api/messages
func (h *MessageHandler) Send(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	msg, err := h.messageService.Send(sess, req.ReceiverID, req.Body)
	if err != nil {
		respondError(c, err, "send message")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// DELETE /api/messages/:id
func (h *MessageHandler) Delete(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.messageService.Delete(sess, id); err != nil {
		respondError(c, err, "delete message")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message deleted"})
}
