// Package annotation holds the client-side state of feedback mode: whether it
// is on, which element is targeted, the open form and the comments of the
// current page. The host page drives it through Backend, Navigator, Notifier
// and Element.
package annotation

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ephraimVPA/Helfzen-zn/internal/indicator"
	"github.com/ephraimVPA/Helfzen-zn/internal/models"
	"github.com/ephraimVPA/Helfzen-zn/internal/utils"
)

const (
	// ModeParam is the query flag that keeps feedback mode on across reloads.
	ModeParam = "commentMode"
	// TargetIDPrefix prefixes ids synthesized for elements that had none.
	TargetIDPrefix = "comment-target-"
	// SnapshotLimit caps the stored innerHTML and outerHTML snapshots.
	SnapshotLimit = 500

	MsgLoginRequired = "Please log in to use the feedback feature"
	MsgNoPermission  = "You don't have permission to use the feedback feature"
	MsgEnabled       = "Feedback mode enabled. Right-click on any element to leave feedback."
	MsgDisabled      = "Feedback mode disabled"
	MsgMissingTarget = "Missing element ID for comment"
	MsgSaveFailed    = "Failed to save comment"
	MsgLoadFailed    = "Failed to load comments"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNoPermission     = errors.New("no comment access")
	ErrModeDisabled     = errors.New("feedback mode is off")
	ErrEmptyText        = errors.New("comment text is empty")
	ErrMissingElement   = errors.New("missing element id")
	ErrSaveFailed       = errors.New("save failed")
)

// LoadDelays is when comments are fetched after a load is scheduled. Later
// attempts are skipped once one has completed.
var LoadDelays = []time.Duration{0, 500 * time.Millisecond, 1500 * time.Millisecond}

// Backend is the server the context talks to. CheckAuth returns
// ErrNotAuthenticated when there is no valid session.
type Backend interface {
	CheckAuth(ctx context.Context) (*models.SessionUser, error)
	ListComments(ctx context.Context, path string) ([]models.Comment, error)
	SaveComment(ctx context.Context, c models.Comment) (models.Comment, error)
}

type Navigator interface {
	Redirect(target string)
	SetQueryFlag(name string, on bool)
}

type Notifier interface {
	Info(msg string)
	Error(msg string)
}

// Element is the page node a comment is attached to.
type Element interface {
	ID() string
	SetID(id string)
	InnerHTML() string
	OuterHTML() string
}

type Mode int

const (
	ModeDisabled Mode = iota
	ModeUnauthenticated
	ModeNoPermission
	ModeActive
)

func (m Mode) String() string {
	switch m {
	case ModeDisabled:
		return "disabled"
	case ModeUnauthenticated:
		return "unauthenticated"
	case ModeNoPermission:
		return "no-permission"
	case ModeActive:
		return "active"
	default:
		return "unknown"
	}
}

// Point is a viewport-relative click position.
type Point struct {
	X float64
	Y float64
}

// State is a snapshot for rendering.
type State struct {
	Mode            Mode
	FormOpen        bool
	TargetElementID string
	ClickPosition   Point
	ActiveElementID string
	Loaded          bool
	User            *models.SessionUser
}

type Option func(*Context)

// WithAfterFunc replaces time.AfterFunc for load and render scheduling.
func WithAfterFunc(after indicator.AfterFunc) Option {
	return func(c *Context) { c.after = after }
}

// WithIndicators re-renders markers on the indicator schedule and hands them
// to sink. page reports the current document and viewport.
func WithIndicators(page func() (indicator.Document, indicator.Viewport), sink func([]indicator.Marker)) Option {
	return func(c *Context) {
		c.page = page
		c.sink = sink
	}
}

type Context struct {
	backend Backend
	nav     Navigator
	notify  Notifier
	log     logrus.FieldLogger
	after   indicator.AfterFunc

	page      func() (indicator.Document, indicator.Viewport)
	sink      func([]indicator.Marker)
	scheduler *indicator.Scheduler

	mu          sync.Mutex
	path        string
	enabled     bool
	user        *models.SessionUser
	formOpen    bool
	target      Element
	targetID    string
	click       Point
	activeID    string
	comments    []models.Comment
	loaded      bool
	noticeShown bool
	loadStops   []func() bool
}

func New(path string, backend Backend, nav Navigator, notify Notifier, log logrus.FieldLogger, opts ...Option) *Context {
	c := &Context{
		backend: backend,
		nav:     nav,
		notify:  notify,
		log:     log.WithField("component", "annotation"),
		path:    normalizePath(path),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.after == nil {
		c.after = func(d time.Duration, f func()) func() bool {
			return time.AfterFunc(d, f).Stop
		}
	}
	if c.page != nil && c.sink != nil {
		c.scheduler = indicator.NewScheduler(c.renderMarkers, c.after)
	}
	return c
}

func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

// LoginURL sends the user back to path with feedback mode on after login.
func LoginURL(path string) string {
	return "/login?callbackUrl=" + url.QueryEscape(normalizePath(path)+"?"+ModeParam+"=true")
}

func (c *Context) permittedLocked() bool {
	return c.user != nil && c.user.CommentAccess
}

func (c *Context) modeLocked() Mode {
	switch {
	case !c.enabled:
		return ModeDisabled
	case c.user == nil:
		return ModeUnauthenticated
	case !c.user.CommentAccess:
		return ModeNoPermission
	default:
		return ModeActive
	}
}

func (c *Context) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	var user *models.SessionUser
	if c.user != nil {
		u := *c.user
		user = &u
	}
	return State{
		Mode:            c.modeLocked(),
		FormOpen:        c.formOpen,
		TargetElementID: c.targetID,
		ClickPosition:   c.click,
		ActiveElementID: c.activeID,
		Loaded:          c.loaded,
		User:            user,
	}
}

func (c *Context) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// RefreshAuth re-runs the auth check. Losing the session or comment access
// while enabled turns the mode off.
func (c *Context) RefreshAuth(ctx context.Context) error {
	user, err := c.backend.CheckAuth(ctx)
	if err != nil {
		user = nil
		if !errors.Is(err, ErrNotAuthenticated) {
			c.log.WithError(err).Warn("auth check failed")
		}
	}

	c.mu.Lock()
	c.user = user
	revoke := c.enabled && !c.permittedLocked()
	if revoke {
		c.disableLocked()
	}
	c.mu.Unlock()

	if revoke {
		c.nav.SetQueryFlag(ModeParam, false)
		c.stopIndicators()
		if user != nil {
			c.notify.Error(MsgNoPermission)
		}
	}
	if err != nil && !errors.Is(err, ErrNotAuthenticated) {
		return fmt.Errorf("refresh auth: %w", err)
	}
	return nil
}

// ApplyURLFlag handles the query flag found on page load.
func (c *Context) ApplyURLFlag(ctx context.Context, on bool) {
	if !on {
		return
	}

	c.mu.Lock()
	if !c.permittedLocked() {
		authenticated := c.user != nil
		c.mu.Unlock()
		c.nav.SetQueryFlag(ModeParam, false)
		if authenticated {
			c.notify.Error(MsgNoPermission)
		}
		return
	}
	c.mu.Unlock()

	c.enable(ctx)
}

// Toggle flips feedback mode and reports whether it is now on.
func (c *Context) Toggle(ctx context.Context) bool {
	c.mu.Lock()
	if c.enabled {
		c.disableLocked()
		c.mu.Unlock()
		c.nav.SetQueryFlag(ModeParam, false)
		c.notify.Info(MsgDisabled)
		c.stopIndicators()
		return false
	}

	if c.user == nil {
		path := c.path
		c.mu.Unlock()
		c.notify.Info(MsgLoginRequired)
		c.nav.Redirect(LoginURL(path))
		return false
	}
	if !c.user.CommentAccess {
		c.mu.Unlock()
		c.notify.Error(MsgNoPermission)
		return false
	}
	c.mu.Unlock()

	c.enable(ctx)
	return true
}

func (c *Context) enable(ctx context.Context) {
	c.mu.Lock()
	c.enabled = true
	first := !c.noticeShown
	c.noticeShown = true
	c.mu.Unlock()

	c.nav.SetQueryFlag(ModeParam, true)
	if first {
		c.notify.Info(MsgEnabled)
	}
	c.ScheduleLoads(ctx)
	if c.scheduler != nil {
		c.scheduler.Notify(indicator.ModeEntered)
	}
}

func (c *Context) disableLocked() {
	c.enabled = false
	c.formOpen = false
	c.target = nil
	c.targetID = ""
	c.activeID = ""
}

// Capture targets el at the viewport position (x, y) and opens the form.
func (c *Context) Capture(el Element, x, y float64) error {
	c.mu.Lock()
	if !c.enabled {
		c.mu.Unlock()
		return ErrModeDisabled
	}
	if c.user == nil {
		path := c.path
		c.mu.Unlock()
		c.notify.Info(MsgLoginRequired)
		c.nav.Redirect(LoginURL(path))
		return ErrNotAuthenticated
	}
	if !c.user.CommentAccess {
		c.mu.Unlock()
		c.notify.Error(MsgNoPermission)
		return ErrNoPermission
	}
	if el == nil {
		c.mu.Unlock()
		return ErrMissingElement
	}

	id := el.ID()
	if id == "" {
		id = TargetIDPrefix + utils.ShortID(6)
		el.SetID(id)
	}
	c.target = el
	c.targetID = id
	c.click = Point{X: x, Y: y}
	c.formOpen = true
	c.mu.Unlock()
	return nil
}

// Submit saves a comment on the captured element. On failure the form stays
// open.
func (c *Context) Submit(ctx context.Context, text string, vp indicator.Viewport) (models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Comment{}, ErrEmptyText
	}

	c.mu.Lock()
	if c.user == nil {
		path := c.path
		c.mu.Unlock()
		c.notify.Info(MsgLoginRequired)
		c.nav.Redirect(LoginURL(path))
		return models.Comment{}, ErrNotAuthenticated
	}
	if !c.user.CommentAccess {
		c.mu.Unlock()
		c.notify.Error(MsgNoPermission)
		return models.Comment{}, ErrNoPermission
	}
	if c.targetID == "" {
		c.mu.Unlock()
		c.notify.Error(MsgMissingTarget)
		return models.Comment{}, ErrMissingElement
	}

	draft := models.Comment{
		ID:        uuid.NewString(),
		ElementID: c.targetID,
		Text:      text,
		Position:  position(c.click, vp),
		Path:      c.path,
		CreatedAt: time.Now().UTC(),
		UserID:    c.user.ID,
		UserName:  c.user.Name,
	}
	if c.target != nil {
		draft.InnerHTML = utils.Truncate(c.target.InnerHTML(), SnapshotLimit)
		draft.Element = utils.Truncate(c.target.OuterHTML(), SnapshotLimit)
	}
	c.mu.Unlock()

	saved, err := c.backend.SaveComment(ctx, draft)
	if err != nil {
		c.log.WithError(err).WithField("element_id", draft.ElementID).Error("failed to save comment")
		c.notify.Error(MsgSaveFailed)
		return models.Comment{}, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	c.mu.Lock()
	c.comments = append(c.comments, saved)
	c.formOpen = false
	c.target = nil
	c.targetID = ""
	c.mu.Unlock()

	c.markersChanged()
	return saved, nil
}

func position(click Point, vp indicator.Viewport) models.Position {
	pos := models.Position{X: vp.ScrollX + click.X, Y: vp.ScrollY + click.Y}
	if vp.Width > 0 && vp.Height > 0 {
		xp, yp := click.X/vp.Width, click.Y/vp.Height
		pos.XPercent, pos.YPercent = &xp, &yp
	}
	return pos
}

func (c *Context) CloseForm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.formOpen = false
	c.target = nil
	c.targetID = ""
}

// View shows the comments of an element, or hides them when it is already
// shown.
func (c *Context) View(elementID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.activeID == elementID {
		c.activeID = ""
		return
	}
	c.activeID = elementID
}

// SetPath moves the context to another route.
func (c *Context) SetPath(ctx context.Context, path string) {
	c.mu.Lock()
	c.path = normalizePath(path)
	c.loaded = false
	c.activeID = ""
	c.mu.Unlock()

	c.ScheduleLoads(ctx)
}

// ScheduleLoads replaces any pending loads with a fresh LoadDelays schedule.
func (c *Context) ScheduleLoads(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLoadsLocked()
	for _, d := range LoadDelays {
		c.loadStops = append(c.loadStops, c.after(d, func() { c.loadOnce(ctx) }))
	}
}

func (c *Context) stopLoadsLocked() {
	for _, stop := range c.loadStops {
		stop()
	}
	c.loadStops = nil
}

func (c *Context) loadOnce(ctx context.Context) {
	c.mu.Lock()
	if c.loaded {
		c.mu.Unlock()
		return
	}
	path := c.path
	c.mu.Unlock()

	if err := c.Load(ctx, path); err != nil {
		c.log.WithError(err).WithField("path", path).Warn("failed to load comments")
	}
}

// Load fetches the comments of path. A result for a route the context has
// since left is dropped.
func (c *Context) Load(ctx context.Context, path string) error {
	comments, err := c.backend.ListComments(ctx, path)
	if err != nil {
		c.notify.Error(MsgLoadFailed)
		return err
	}

	valid := make([]models.Comment, 0, len(comments))
	for _, cm := range comments {
		if cm.Valid() {
			valid = append(valid, cm)
		}
	}

	c.mu.Lock()
	if c.path != path {
		c.mu.Unlock()
		return nil
	}
	c.comments = valid
	c.loaded = true
	c.mu.Unlock()

	c.markersChanged()
	return nil
}

func (c *Context) Comments() []models.Comment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Comment(nil), c.comments...)
}

// CommentsByElement groups the current route's comments by element id.
func (c *Context) CommentsByElement() map[string][]models.Comment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.GroupByElement(c.comments, c.path)
}

// Markers is empty while the mode is off.
func (c *Context) Markers(doc indicator.Document, vp indicator.Viewport) []indicator.Marker {
	if !c.Enabled() {
		return nil
	}
	return indicator.Render(c.CommentsByElement(), doc, vp)
}

// Observe forwards a page event to the indicator scheduler.
func (c *Context) Observe(t indicator.Trigger) {
	if c.scheduler != nil && t != indicator.ModeEntered {
		c.scheduler.Notify(t)
	}
}

func (c *Context) markersChanged() {
	c.Observe(indicator.Mutation)
}

func (c *Context) renderMarkers() {
	doc, vp := c.page()
	c.sink(c.Markers(doc, vp))
}

func (c *Context) stopIndicators() {
	if c.scheduler != nil {
		c.scheduler.Stop()
	}
	if c.sink != nil {
		c.sink(nil)
	}
}

// Close cancels pending loads and renders.
func (c *Context) Close() {
	c.mu.Lock()
	c.stopLoadsLocked()
	c.mu.Unlock()
	if c.scheduler != nil {
		c.scheduler.Stop()
	}
}
