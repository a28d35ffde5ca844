package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ephraimVPA/Helfzen-zn/internal/models"
	"github.com/ephraimVPA/Helfzen-zn/internal/tables"
	"github.com/ephraimVPA/Helfzen-zn/internal/utils"
)

var ErrInvalidComment = errors.New("comment requires id, elementId and text")

// CommentHeader is the header row of the comments tab.
var CommentHeader = []string{"ID", "ElementID", "Text", "InnerHTML", "Path", "UserID", "UserName", "CreatedAt", "Position", "Element"}

const (
	colCommentID = iota
	colCommentElementID
	colCommentText
	colCommentInnerHTML
	colCommentPath
	colCommentUserID
	colCommentUserName
	colCommentCreatedAt
	colCommentPosition
	colCommentElement
)

const anonymousUser = "Anonymous"

type CommentRepository struct {
	table tables.Table
	sheet string
	log   logrus.FieldLogger
	now   func() time.Time
}

func NewCommentRepository(table tables.Table, sheet string, log logrus.FieldLogger) *CommentRepository {
	return &CommentRepository{
		table: table,
		sheet: sheet,
		log:   log.WithField("sheet", sheet),
		now:   time.Now,
	}
}

// List returns every stored comment. Rows are parsed leniently and a failing
// backend yields an empty slice; it never returns an error.
func (r *CommentRepository) List(ctx context.Context) []models.Comment {
	rows, err := r.table.Rows(ctx, r.sheet)
	if err != nil {
		if errors.Is(err, tables.ErrSheetNotFound) {
			r.log.Debug("comments sheet does not exist yet")
		} else {
			r.log.WithError(err).Error("failed to read comments")
		}
		return []models.Comment{}
	}

	comments := make([]models.Comment, 0, len(rows))
	for i, row := range rows {
		comments = append(comments, r.parseRow(i, row))
	}
	return comments
}

func (r *CommentRepository) parseRow(index int, row []string) models.Comment {
	c := models.Comment{
		ID:        tables.Cell(row, colCommentID),
		ElementID: tables.Cell(row, colCommentElementID),
		Text:      tables.Cell(row, colCommentText),
		InnerHTML: tables.Cell(row, colCommentInnerHTML),
		Path:      tables.Cell(row, colCommentPath),
		UserID:    tables.Cell(row, colCommentUserID),
		UserName:  tables.Cell(row, colCommentUserName),
		Element:   tables.Cell(row, colCommentElement),
	}
	if c.UserName == "" {
		c.UserName = anonymousUser
	}

	log := r.log.WithFields(logrus.Fields{"row": index, "commentId": c.ID})

	if raw := strings.TrimSpace(tables.Cell(row, colCommentPosition)); raw != "" {
		if err := json.Unmarshal([]byte(raw), &c.Position); err != nil {
			log.WithError(err).Warn("malformed comment position, using {0,0}")
			c.Position = models.Position{}
		}
	}

	raw := strings.TrimSpace(tables.Cell(row, colCommentCreatedAt))
	createdAt, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		if raw != "" {
			log.WithField("createdAt", raw).Warn("malformed comment timestamp, using now")
		}
		createdAt = r.now()
	}
	c.CreatedAt = createdAt

	return c
}

// Append validates and writes one comment, creating the tab on first use.
// Backend failures are returned so the caller can report them.
func (r *CommentRepository) Append(ctx context.Context, c models.Comment) (bool, error) {
	c.Text = strings.TrimSpace(utils.StripControlChars(c.Text))
	if !c.Valid() {
		return false, ErrInvalidComment
	}

	if err := r.table.EnsureSheet(ctx, r.sheet, CommentHeader); err != nil {
		r.log.WithError(err).Error("failed to ensure comments sheet")
		return false, fmt.Errorf("ensure comments sheet: %w", err)
	}

	position, err := json.Marshal(c.Position)
	if err != nil {
		return false, fmt.Errorf("encode position: %w", err)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = r.now()
	}
	if c.UserName == "" {
		c.UserName = anonymousUser
	}

	row := make([]string, len(CommentHeader))
	row[colCommentID] = c.ID
	row[colCommentElementID] = c.ElementID
	row[colCommentText] = c.Text
	row[colCommentInnerHTML] = utils.StripControlChars(c.InnerHTML)
	row[colCommentPath] = c.Path
	row[colCommentUserID] = c.UserID
	row[colCommentUserName] = c.UserName
	row[colCommentCreatedAt] = c.CreatedAt.UTC().Format(time.RFC3339)
	row[colCommentPosition] = string(position)
	row[colCommentElement] = utils.StripControlChars(c.Element)

	if err := r.table.Append(ctx, r.sheet, row); err != nil {
		r.log.WithError(err).WithField("commentId", c.ID).Error("failed to append comment")
		return false, fmt.Errorf("append comment: %w", err)
	}
	return true, nil
}

// Remove deletes the first row whose ID matches. It reports false when the
// comment is absent or the backend fails.
func (r *CommentRepository) Remove(ctx context.Context, id string) bool {
	if id == "" {
		return false
	}
	rows, err := r.table.Rows(ctx, r.sheet)
	if err != nil {
		r.log.WithError(err).Error("failed to read comments for delete")
		return false
	}

	for i, row := range rows {
		if tables.Cell(row, colCommentID) != id {
			continue
		}
		if err := r.table.DeleteRow(ctx, r.sheet, i); err != nil {
			r.log.WithError(err).WithField("commentId", id).Error("failed to delete comment")
			return false
		}
		return true
	}

	r.log.WithField("commentId", id).Debug("comment not found")
	return false
}
