package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/thaifoodie/chat-backend/internal/storage/postgres"
	"github.com/thaifoodie/chat-backend/internal/types"
)

// ListConversations returns the user's conversations, newest first.
func (s *Server) ListConversations(c echo.Context) error {
	userID := GetUserID(c)

	conversations, err := s.convRepo.ListByUser(c.Request().Context(), userID)
	if err != nil {
		s.logger.WithError(err).Error("failed to list conversations")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to list conversations"})
	}
	if conversations == nil {
		conversations = []types.Conversation{}
	}

	return c.JSON(http.StatusOK, conversations)
}

// ListMessages returns the messages of one conversation in order.
func (s *Server) ListMessages(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid conversation id"})
	}

	messages, err := s.msgRepo.ListByConversation(c.Request().Context(), id, GetUserID(c))
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "conversation not found"})
		}
		s.logger.WithError(err).Error("failed to list messages")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to list messages"})
	}
	if messages == nil {
		messages = []types.ChatMessage{}
	}

	return c.JSON(http.StatusOK, messages)
}

// DeleteConversation removes a conversation and its messages.
func (s *Server) DeleteConversation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid conversation id"})
	}

	if err := s.convRepo.Delete(c.Request().Context(), id, GetUserID(c)); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "conversation not found"})
		}
		s.logger.WithError(err).Error("failed to delete conversation")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to delete conversation"})
	}

	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// ClearHistory wipes the user's entire history.
func (s *Server) ClearHistory(c echo.Context) error {
	if err := s.msgRepo.DeleteAllForUser(c.Request().Context(), GetUserID(c)); err != nil {
		s.logger.WithError(err).Error("failed to clear history")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to clear history"})
	}

	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
