package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/thaifoodie/chat-backend/internal/chat"
	"github.com/thaifoodie/chat-backend/internal/storage/postgres"
	"github.com/thaifoodie/chat-backend/internal/types"
)

// SaveTurn persists a resolved turn: the user message plus the model
// message that answered it. A missing conversation id means "start a
// new conversation"; the created summary comes back in the response.
func (s *Server) SaveTurn(c echo.Context) error {
	var req chat.SaveTurnRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if req.UserMessage.Text == "" && req.UserMessage.Image == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "empty user message"})
	}
	if req.ModelMessage.Role != types.RoleModel {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid model message"})
	}

	var conversationID *uuid.UUID
	if req.ConversationID != "" {
		id, err := uuid.Parse(req.ConversationID)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid conversation id"})
		}
		conversationID = &id
	}

	saved, err := s.msgRepo.SaveTurn(c.Request().Context(), GetUserID(c), req.UserMessage, req.ModelMessage, conversationID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "conversation not found"})
		}
		s.logger.WithError(err).Error("failed to save turn")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to save turn"})
	}

	return c.JSON(http.StatusCreated, chat.SaveTurnResult{
		ConversationID: saved.ConversationID.String(),
		ModelMessageID: saved.ModelMessageID.String(),
		Conversation:   saved.Conversation,
	})
}

// UpdateVideos attaches late-fetched videos to a saved model message.
func (s *Server) UpdateVideos(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid message id"})
	}

	var req chat.UpdateVideosRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	if err := s.msgRepo.UpdateVideos(c.Request().Context(), id, GetUserID(c), req.Videos); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "message not found"})
		}
		s.logger.WithError(err).Error("failed to update message videos")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to update message videos"})
	}

	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
