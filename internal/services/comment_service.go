package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/sirupsen/logrus"

	"github.com/ephraimVPA/Helfzen-zn/internal/models"
	"github.com/ephraimVPA/Helfzen-zn/internal/repositories"
	"github.com/ephraimVPA/Helfzen-zn/internal/utils"
)

// SnapshotLimit caps the stored innerHTML and element snapshots.
const SnapshotLimit = 500

var (
	ErrNoCommentAccess = errors.New("comment access not granted")
	ErrCommentNotFound = errors.New("comment not found")
)

type CommentService struct {
	repo   *repositories.CommentRepository
	policy *bluemonday.Policy
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewCommentService(repo *repositories.CommentRepository, log logrus.FieldLogger) *CommentService {
	return &CommentService{
		repo:   repo,
		policy: bluemonday.UGCPolicy(),
		log:    log,
		now:    time.Now,
	}
}

// ListForPath returns the valid comments, scoped to path when it is set.
func (s *CommentService) ListForPath(ctx context.Context, path string) []models.Comment {
	all := s.repo.List(ctx)
	out := make([]models.Comment, 0, len(all))
	for _, c := range all {
		if !c.Valid() {
			continue
		}
		if path != "" && c.Path != path {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Save stores a comment drafted by the session's user. Author fields and the
// timestamp always come from the server.
func (s *CommentService) Save(ctx context.Context, claims *utils.Claims, draft models.Comment) (models.Comment, error) {
	if claims == nil {
		return models.Comment{}, ErrNotAuthenticated
	}
	if !claims.CommentAccess {
		return models.Comment{}, ErrNoCommentAccess
	}

	c := draft
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Path == "" {
		c.Path = "/"
	}
	c.Text = strings.TrimSpace(utils.StripControlChars(c.Text))
	c.UserID = claims.UserID
	c.UserName = claims.Name
	// Stored timestamps have second precision.
	c.CreatedAt = s.now().UTC().Truncate(time.Second)
	c.InnerHTML = s.snapshot(c.InnerHTML)
	c.Element = s.snapshot(c.Element)

	if _, err := s.repo.Append(ctx, c); err != nil {
		return models.Comment{}, err
	}

	s.log.WithFields(logrus.Fields{
		"commentId": c.ID,
		"elementId": c.ElementID,
		"path":      c.Path,
		"user":      claims.Email,
	}).Info("comment saved")
	return c, nil
}

func (s *CommentService) Delete(ctx context.Context, id string) error {
	if !s.repo.Remove(ctx, id) {
		return ErrCommentNotFound
	}
	s.log.WithField("commentId", id).Info("comment deleted")
	return nil
}

func (s *CommentService) snapshot(html string) string {
	html = strings.TrimSpace(utils.StripControlChars(html))
	if html == "" {
		return ""
	}
	return utils.Truncate(s.policy.Sanitize(utils.Truncate(html, SnapshotLimit)), SnapshotLimit)
}
