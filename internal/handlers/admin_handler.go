package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/ephraimVPA/Helfzen-zn/internal/middlewares"
	"github.com/ephraimVPA/Helfzen-zn/internal/pages"
	"github.com/ephraimVPA/Helfzen-zn/internal/services"
)

type AdminHandler struct {
	commentService *services.CommentService
}

func NewAdminHandler(commentService *services.CommentService) *AdminHandler {
	return &AdminHandler{commentService: commentService}
}

// Comments renders every stored comment, newest first.
func (h *AdminHandler) Comments(c *gin.Context) {
	comments := h.commentService.ListForPath(c.Request.Context(), "")
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedAt.After(comments[j].CreatedAt)
	})

	claims, _ := middlewares.ClaimsFrom(c)
	data := pages.AdminCommentsData{Comments: comments}
	if claims != nil {
		data.User = claims.User()
	}
	c.HTML(http.StatusOK, "admin_comments.html", data)
}
