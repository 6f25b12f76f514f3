package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/thaifoodie/chat-backend/internal/chat"
	"github.com/thaifoodie/chat-backend/internal/types"
)

// VideosRequest is the request body for a standalone video search.
type VideosRequest struct {
	DishName string `json:"dish_name"`
	Language string `json:"language"`
}

// VideosResponse is the response for a standalone video search.
type VideosResponse struct {
	Videos []types.Video `json:"videos"`
}

// Recipe runs one model turn and streams the reply back as plain text:
// narrative first, then the sentinel and the structured payload when
// the turn produced a recipe.
func (s *Server) Recipe(c echo.Context) error {
	var req chat.TurnRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if req.Prompt == "" && req.Image == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "empty prompt"})
	}

	reply, err := s.recipeService.Respond(c.Request().Context(), &req)
	if err != nil {
		s.logger.WithError(err).Error("failed to generate reply")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to generate reply"})
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/plain; charset=utf-8")
	resp.WriteHeader(http.StatusOK)
	if _, err := reply.WriteTo(resp); err != nil {
		// Headers are already out, so all that is left is to log.
		s.logger.WithError(err).Warn("failed to write reply stream")
		return nil
	}
	resp.Flush()
	return nil
}

// Videos searches for cooking videos for a dish.
func (s *Server) Videos(c echo.Context) error {
	var req VideosRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if req.DishName == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing dish name"})
	}
	if s.videoService == nil {
		return c.JSON(http.StatusOK, VideosResponse{Videos: []types.Video{}})
	}

	videos, err := s.videoService.Search(c.Request().Context(), req.DishName, req.Language)
	if err != nil {
		s.logger.WithError(err).WithField("dish", req.DishName).Error("failed to search videos")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to search videos"})
	}
	if videos == nil {
		videos = []types.Video{}
	}

	return c.JSON(http.StatusOK, VideosResponse{Videos: videos})
}
