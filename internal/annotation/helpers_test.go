package annotation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/ephraimVPA/Helfzen-zn/internal/models"
)

var errBackendDown = errors.New("backend down")

type fakeBackend struct {
	mu       sync.Mutex
	user     *models.SessionUser
	authErr  error
	comments []models.Comment
	listErr  error
	saveErr  error
	lists    int
	saved    []models.Comment
}

func (b *fakeBackend) CheckAuth(context.Context) (*models.SessionUser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.authErr != nil {
		return nil, b.authErr
	}
	if b.user == nil {
		return nil, ErrNotAuthenticated
	}
	u := *b.user
	return &u, nil
}

func (b *fakeBackend) ListComments(_ context.Context, path string) ([]models.Comment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lists++
	if b.listErr != nil {
		return nil, b.listErr
	}
	var out []models.Comment
	for _, c := range b.comments {
		if c.Path == path {
			out = append(out, c)
		}
	}
	return out, nil
}

func (b *fakeBackend) SaveComment(_ context.Context, c models.Comment) (models.Comment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.saveErr != nil {
		return models.Comment{}, b.saveErr
	}
	b.saved = append(b.saved, c)
	return c, nil
}

func (b *fakeBackend) listCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lists
}

type fakeNavigator struct {
	redirects []string
	flags     map[string]bool
}

func (n *fakeNavigator) Redirect(target string) {
	n.redirects = append(n.redirects, target)
}

func (n *fakeNavigator) SetQueryFlag(name string, on bool) {
	if n.flags == nil {
		n.flags = make(map[string]bool)
	}
	n.flags[name] = on
}

type fakeNotifier struct {
	infos  []string
	errors []string
}

func (n *fakeNotifier) Info(msg string)  { n.infos = append(n.infos, msg) }
func (n *fakeNotifier) Error(msg string) { n.errors = append(n.errors, msg) }

type fakeElement struct {
	id    string
	inner string
	outer string
}

func (e *fakeElement) ID() string        { return e.id }
func (e *fakeElement) SetID(id string)   { e.id = id }
func (e *fakeElement) InnerHTML() string { return e.inner }
func (e *fakeElement) OuterHTML() string { return e.outer }

// manualClock collects scheduled callbacks so tests fire them explicitly.
type manualClock struct {
	mu      sync.Mutex
	pending []*scheduled
}

type scheduled struct {
	delay     time.Duration
	f         func()
	cancelled bool
}

func (m *manualClock) AfterFunc(d time.Duration, f func()) func() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &scheduled{delay: d, f: f}
	m.pending = append(m.pending, s)
	return func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		was := !s.cancelled
		s.cancelled = true
		return was
	}
}

// fireAll runs live callbacks in scheduling order until none are left,
// including ones scheduled by earlier callbacks.
func (m *manualClock) fireAll() {
	for {
		m.mu.Lock()
		pending := m.pending
		m.pending = nil
		m.mu.Unlock()
		if len(pending) == 0 {
			return
		}
		for _, s := range pending {
			m.mu.Lock()
			live := !s.cancelled
			s.cancelled = true
			m.mu.Unlock()
			if live {
				s.f()
			}
		}
	}
}

func (m *manualClock) delays() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []time.Duration
	for _, s := range m.pending {
		if !s.cancelled {
			out = append(out, s.delay)
		}
	}
	return out
}

type harness struct {
	ctx     *Context
	backend *fakeBackend
	nav     *fakeNavigator
	notify  *fakeNotifier
	clock   *manualClock
}

var (
	commenter = &models.SessionUser{ID: "u1", Email: "jane@example.com", Name: "Jane", Role: "user", CommentAccess: true}
	viewer    = &models.SessionUser{ID: "u2", Email: "viewer@example.com", Name: "Viewer", Role: "user"}
)

func newHarness(t *testing.T, user *models.SessionUser, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		backend: &fakeBackend{user: user},
		nav:     &fakeNavigator{},
		notify:  &fakeNotifier{},
		clock:   &manualClock{},
	}
	log, _ := test.NewNullLogger()
	opts = append([]Option{WithAfterFunc(h.clock.AfterFunc)}, opts...)
	h.ctx = New("/dashboard", h.backend, h.nav, h.notify, log, opts...)
	if err := h.ctx.RefreshAuth(context.Background()); err != nil {
		t.Fatalf("refresh auth: %v", err)
	}
	t.Cleanup(h.ctx.Close)
	return h
}
