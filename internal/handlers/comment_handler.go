package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ephraimVPA/Helfzen-zn/internal/middlewares"
	"github.com/ephraimVPA/Helfzen-zn/internal/models"
	"github.com/ephraimVPA/Helfzen-zn/internal/repositories"
	"github.com/ephraimVPA/Helfzen-zn/internal/responses"
	"github.com/ephraimVPA/Helfzen-zn/internal/services"
)

type CommentHandler struct {
	commentService *services.CommentService
}

func NewCommentHandler(commentService *services.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// List never fails: a broken backing store shows up as an empty list.
func (h *CommentHandler) List(c *gin.Context) {
	comments := h.commentService.ListForPath(c.Request.Context(), c.Query("path"))
	responses.Success(c, http.StatusOK, gin.H{"comments": comments}, "")
}

func (h *CommentHandler) Create(c *gin.Context) {
	var draft models.Comment
	if err := c.ShouldBindJSON(&draft); err != nil {
		responses.FailCode(c, http.StatusBadRequest, responses.CodeInvalidRequest, err, "Invalid comment")
		return
	}

	claims, _ := middlewares.ClaimsFrom(c)
	saved, err := h.commentService.Save(c.Request.Context(), claims, draft)
	if err != nil {
		failCommentSave(c, err, "Could not save comment")
		return
	}

	responses.Success(c, http.StatusCreated, saved, "Comment saved")
}

// failCommentSave maps comment service errors onto status codes and error
// codes. Backend errors are not echoed to the client.
func failCommentSave(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, services.ErrNotAuthenticated):
		responses.FailCode(c, http.StatusUnauthorized, responses.CodeUnauthorized, err, "Not authenticated")
	case errors.Is(err, services.ErrNoCommentAccess):
		responses.FailCode(c, http.StatusForbidden, responses.CodeNoCommentAccess, err, "You do not have permission to comment")
	case errors.Is(err, repositories.ErrInvalidComment):
		responses.FailCode(c, http.StatusBadRequest, responses.CodeInvalidRequest, err, "Invalid comment")
	default:
		_ = c.Error(err)
		responses.FailCode(c, http.StatusInternalServerError, responses.CodeBackendUnavailable, nil, message)
	}
}

func (h *CommentHandler) Delete(c *gin.Context) {
	if err := h.commentService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		responses.FailCode(c, http.StatusNotFound, responses.CodeNotFound, err, "Comment not found")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Comment deleted")
}
