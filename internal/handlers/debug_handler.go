package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ephraimVPA/Helfzen-zn/internal/middlewares"
	"github.com/ephraimVPA/Helfzen-zn/internal/models"
	"github.com/ephraimVPA/Helfzen-zn/internal/repositories"
	"github.com/ephraimVPA/Helfzen-zn/internal/responses"
	"github.com/ephraimVPA/Helfzen-zn/internal/services"
	"github.com/ephraimVPA/Helfzen-zn/internal/tables"
	"github.com/ephraimVPA/Helfzen-zn/internal/utils"
)

// DebugHandler exposes the backing table for inspection. Routes are only
// mounted when debug routes are enabled.
type DebugHandler struct {
	table          tables.Table
	userRepo       *repositories.UserRepository
	commentService *services.CommentService
}

func NewDebugHandler(table tables.Table, userRepo *repositories.UserRepository, commentService *services.CommentService) *DebugHandler {
	return &DebugHandler{
		table:          table,
		userRepo:       userRepo,
		commentService: commentService,
	}
}

type sheetInfo struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
}

func (h *DebugHandler) Sheets(c *gin.Context) {
	ctx := c.Request.Context()
	names, err := h.table.SheetNames(ctx)
	if err != nil {
		_ = c.Error(err)
		responses.FailCode(c, http.StatusBadGateway, responses.CodeBackendUnavailable, err, "Could not read sheets")
		return
	}

	sheets := make([]sheetInfo, 0, len(names))
	for _, name := range names {
		info := sheetInfo{Name: name, Rows: -1}
		if rows, err := h.table.Rows(ctx, name); err == nil {
			info.Rows = len(rows)
		}
		sheets = append(sheets, info)
	}
	responses.Success(c, http.StatusOK, gin.H{"backend": h.table.Name(), "sheets": sheets}, "")
}

// Users lists the allow-list without password hashes.
func (h *DebugHandler) Users(c *gin.Context) {
	users, err := h.userRepo.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		responses.FailCode(c, http.StatusBadGateway, responses.CodeBackendUnavailable, err, "Could not read users")
		return
	}

	public := make([]models.PublicUser, 0, len(users))
	for i := range users {
		public = append(public, users[i].Public())
	}
	responses.Success(c, http.StatusOK, gin.H{"users": public}, "")
}

// AddTestComment writes a marker comment to exercise the write path.
func (h *DebugHandler) AddTestComment(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
		Path string `json:"path"`
	}
	_ = c.ShouldBindJSON(&req)
	if req.Text == "" {
		req.Text = "Test comment"
	}
	if req.Path == "" {
		req.Path = "/debug"
	}

	claims, _ := middlewares.ClaimsFrom(c)
	saved, err := h.commentService.Save(c.Request.Context(), claims, models.Comment{
		ID:        "test-" + utils.ShortID(8),
		ElementID: "debug-test-element",
		Text:      req.Text,
		Path:      req.Path,
	})
	if err != nil {
		failCommentSave(c, err, "Test write failed")
		return
	}
	responses.Success(c, http.StatusCreated, saved, "Test comment written")
}
