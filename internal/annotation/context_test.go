package annotation

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ephraimVPA/Helfzen-zn/internal/indicator"
	"github.com/ephraimVPA/Helfzen-zn/internal/models"
)

var viewport = indicator.Viewport{Width: 1000, Height: 800, ScrollX: 0, ScrollY: 200}

func TestToggle_UnauthenticatedRedirectsToLogin(t *testing.T) {
	h := newHarness(t, nil)

	assert.False(t, h.ctx.Toggle(context.Background()))

	assert.Equal(t, ModeDisabled, h.ctx.State().Mode)
	require.Len(t, h.nav.redirects, 1)
	assert.Equal(t, "/login?callbackUrl=%2Fdashboard%3FcommentMode%3Dtrue", h.nav.redirects[0])
	assert.Equal(t, []string{MsgLoginRequired}, h.notify.infos)
	assert.Empty(t, h.clock.delays())
}

func TestToggle_NoPermissionLeavesModeOff(t *testing.T) {
	h := newHarness(t, viewer)

	assert.False(t, h.ctx.Toggle(context.Background()))

	assert.Equal(t, ModeDisabled, h.ctx.State().Mode)
	assert.Equal(t, []string{MsgNoPermission}, h.notify.errors)
	assert.Empty(t, h.nav.redirects)
	assert.Empty(t, h.nav.flags)
}

func TestToggle_PermittedEnablesAndSchedulesLoads(t *testing.T) {
	h := newHarness(t, commenter)

	assert.True(t, h.ctx.Toggle(context.Background()))

	assert.Equal(t, ModeActive, h.ctx.State().Mode)
	assert.True(t, h.nav.flags[ModeParam])
	assert.Equal(t, []string{MsgEnabled}, h.notify.infos)
	assert.Equal(t, LoadDelays, h.clock.delays())
}

func TestToggle_InstructionShownOnce(t *testing.T) {
	h := newHarness(t, commenter)
	ctx := context.Background()

	h.ctx.Toggle(ctx)
	h.ctx.Toggle(ctx)
	h.ctx.Toggle(ctx)

	assert.Equal(t, []string{MsgEnabled, MsgDisabled}, h.notify.infos)
}

func TestToggle_OffClosesFormAndClearsActiveElement(t *testing.T) {
	h := newHarness(t, commenter)
	ctx := context.Background()

	h.ctx.Toggle(ctx)
	require.NoError(t, h.ctx.Capture(&fakeElement{id: "total"}, 10, 20))
	h.ctx.View("total")
	require.True(t, h.ctx.State().FormOpen)

	assert.False(t, h.ctx.Toggle(ctx))

	st := h.ctx.State()
	assert.Equal(t, ModeDisabled, st.Mode)
	assert.False(t, st.FormOpen)
	assert.Empty(t, st.ActiveElementID)
	assert.Empty(t, st.TargetElementID)
	assert.False(t, h.nav.flags[ModeParam])
}

func TestApplyURLFlag(t *testing.T) {
	ctx := context.Background()

	t.Run("permitted user enables", func(t *testing.T) {
		h := newHarness(t, commenter)
		h.ctx.ApplyURLFlag(ctx, true)
		assert.Equal(t, ModeActive, h.ctx.State().Mode)
	})

	t.Run("user without access has the flag removed", func(t *testing.T) {
		h := newHarness(t, viewer)
		h.ctx.ApplyURLFlag(ctx, true)
		assert.Equal(t, ModeDisabled, h.ctx.State().Mode)
		assert.False(t, h.nav.flags[ModeParam])
		assert.Equal(t, []string{MsgNoPermission}, h.notify.errors)
	})

	t.Run("anonymous visitor has the flag removed silently", func(t *testing.T) {
		h := newHarness(t, nil)
		h.ctx.ApplyURLFlag(ctx, true)
		assert.Equal(t, ModeDisabled, h.ctx.State().Mode)
		assert.False(t, h.nav.flags[ModeParam])
		assert.Empty(t, h.notify.errors)
	})

	t.Run("absent flag is a no-op", func(t *testing.T) {
		h := newHarness(t, commenter)
		h.ctx.ApplyURLFlag(ctx, false)
		assert.Equal(t, ModeDisabled, h.ctx.State().Mode)
		assert.Empty(t, h.nav.flags)
	})
}

func TestRefreshAuth_RevokedAccessDisablesMode(t *testing.T) {
	h := newHarness(t, commenter)
	ctx := context.Background()
	h.ctx.Toggle(ctx)
	require.NoError(t, h.ctx.Capture(&fakeElement{id: "total"}, 1, 1))

	h.backend.user = viewer
	require.NoError(t, h.ctx.RefreshAuth(ctx))

	st := h.ctx.State()
	assert.Equal(t, ModeDisabled, st.Mode)
	assert.False(t, st.FormOpen)
	assert.False(t, h.nav.flags[ModeParam])
}

func TestRefreshAuth_BackendErrorTreatedAsSignedOut(t *testing.T) {
	h := newHarness(t, commenter)
	h.backend.authErr = errBackendDown

	err := h.ctx.RefreshAuth(context.Background())
	require.ErrorIs(t, err, errBackendDown)
	assert.Nil(t, h.ctx.State().User)
}

func TestCapture_AfterAccessRevoked(t *testing.T) {
	h := newHarness(t, commenter)
	h.ctx.Toggle(context.Background())

	h.backend.user = viewer
	require.NoError(t, h.ctx.RefreshAuth(context.Background()))

	err := h.ctx.Capture(&fakeElement{id: "total"}, 1, 1)
	assert.ErrorIs(t, err, ErrModeDisabled)
	assert.False(t, h.ctx.State().FormOpen)
}

func TestCapture_NoPermissionUserCannotOpenForm(t *testing.T) {
	h := newHarness(t, viewer)

	h.ctx.mu.Lock()
	h.ctx.enabled = true
	h.ctx.mu.Unlock()

	err := h.ctx.Capture(&fakeElement{id: "total"}, 1, 1)
	assert.ErrorIs(t, err, ErrNoPermission)
	assert.False(t, h.ctx.State().FormOpen)
	assert.Equal(t, ModeNoPermission, h.ctx.State().Mode)
}

func TestCapture_SynthesizesElementID(t *testing.T) {
	h := newHarness(t, commenter)
	h.ctx.Toggle(context.Background())

	el := &fakeElement{}
	require.NoError(t, h.ctx.Capture(el, 5, 6))

	assert.True(t, strings.HasPrefix(el.id, TargetIDPrefix))
	assert.Len(t, el.id, len(TargetIDPrefix)+6)

	st := h.ctx.State()
	assert.Equal(t, el.id, st.TargetElementID)
	assert.Equal(t, Point{X: 5, Y: 6}, st.ClickPosition)
	assert.True(t, st.FormOpen)
}

func TestSubmit_ComposesComment(t *testing.T) {
	h := newHarness(t, commenter)
	ctx := context.Background()
	h.ctx.Toggle(ctx)

	el := &fakeElement{id: "total", inner: strings.Repeat("a", 600), outer: `<div id="total">` + strings.Repeat("b", 600)}
	require.NoError(t, h.ctx.Capture(el, 250, 400))

	saved, err := h.ctx.Submit(ctx, "  Wrong total  ", viewport)
	require.NoError(t, err)

	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "total", saved.ElementID)
	assert.Equal(t, "Wrong total", saved.Text)
	assert.Equal(t, "/dashboard", saved.Path)
	assert.Equal(t, "u1", saved.UserID)
	assert.Equal(t, "Jane", saved.UserName)
	assert.Equal(t, 250.0, saved.Position.X)
	assert.Equal(t, 600.0, saved.Position.Y)
	require.NotNil(t, saved.Position.XPercent)
	assert.InDelta(t, 0.25, *saved.Position.XPercent, 1e-9)
	assert.InDelta(t, 0.5, *saved.Position.YPercent, 1e-9)
	assert.Len(t, saved.InnerHTML, SnapshotLimit)
	assert.Len(t, saved.Element, SnapshotLimit)

	st := h.ctx.State()
	assert.False(t, st.FormOpen)
	assert.Len(t, h.ctx.Comments(), 1)
	assert.Len(t, h.ctx.CommentsByElement()["total"], 1)
}

func TestSubmit_EmptyTextMakesNoCall(t *testing.T) {
	h := newHarness(t, commenter)
	ctx := context.Background()
	h.ctx.Toggle(ctx)
	require.NoError(t, h.ctx.Capture(&fakeElement{id: "total"}, 1, 1))

	_, err := h.ctx.Submit(ctx, "   ", viewport)
	assert.ErrorIs(t, err, ErrEmptyText)
	assert.Empty(t, h.backend.saved)
	assert.True(t, h.ctx.State().FormOpen)
}

func TestSubmit_MissingElement(t *testing.T) {
	h := newHarness(t, commenter)
	ctx := context.Background()
	h.ctx.Toggle(ctx)

	_, err := h.ctx.Submit(ctx, "hello", viewport)
	assert.ErrorIs(t, err, ErrMissingElement)
	assert.Equal(t, []string{MsgMissingTarget}, h.notify.errors)
	assert.Empty(t, h.backend.saved)
}

func TestSubmit_UnauthenticatedRedirects(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.ctx.Submit(context.Background(), "hello", viewport)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Len(t, h.nav.redirects, 1)
	assert.Empty(t, h.backend.saved)
}

func TestSubmit_FailureKeepsFormOpen(t *testing.T) {
	h := newHarness(t, commenter)
	ctx := context.Background()
	h.ctx.Toggle(ctx)
	require.NoError(t, h.ctx.Capture(&fakeElement{id: "total"}, 1, 1))
	h.backend.saveErr = errBackendDown

	_, err := h.ctx.Submit(ctx, "hello", viewport)
	assert.ErrorIs(t, err, ErrSaveFailed)
	assert.ErrorIs(t, err, errBackendDown)
	assert.True(t, h.ctx.State().FormOpen)
	assert.Equal(t, []string{MsgSaveFailed}, h.notify.errors)
	assert.Empty(t, h.ctx.Comments())
}

func TestView_TogglesActiveElement(t *testing.T) {
	h := newHarness(t, commenter)

	h.ctx.View("total")
	assert.Equal(t, "total", h.ctx.State().ActiveElementID)

	h.ctx.View("tax")
	assert.Equal(t, "tax", h.ctx.State().ActiveElementID)

	h.ctx.View("tax")
	assert.Empty(t, h.ctx.State().ActiveElementID)
}

func TestScheduleLoads_SkippedAfterFirstSuccess(t *testing.T) {
	h := newHarness(t, commenter)
	h.backend.comments = []models.Comment{
		{ID: "1", ElementID: "total", Text: "a", Path: "/dashboard"},
		{ID: "", ElementID: "total", Text: "broken", Path: "/dashboard"},
		{ID: "3", ElementID: "total", Text: "c", Path: "/reports"},
	}

	h.ctx.Toggle(context.Background())
	h.clock.fireAll()

	assert.Equal(t, 1, h.backend.listCount())
	assert.True(t, h.ctx.State().Loaded)
	require.Len(t, h.ctx.Comments(), 1)
	assert.Equal(t, "1", h.ctx.Comments()[0].ID)
}

func TestScheduleLoads_RetriesAfterFailure(t *testing.T) {
	h := newHarness(t, commenter)
	h.backend.listErr = errBackendDown

	h.ctx.Toggle(context.Background())
	h.clock.fireAll()

	assert.Equal(t, len(LoadDelays), h.backend.listCount())
	assert.False(t, h.ctx.State().Loaded)
	assert.Len(t, h.notify.errors, len(LoadDelays))
}

func TestSetPath_ResetsGuardAndActiveElement(t *testing.T) {
	h := newHarness(t, commenter)
	ctx := context.Background()
	h.backend.comments = []models.Comment{
		{ID: "1", ElementID: "total", Text: "a", Path: "/dashboard"},
		{ID: "2", ElementID: "chart", Text: "b", Path: "/reports"},
	}
	h.ctx.Toggle(ctx)
	h.clock.fireAll()
	h.ctx.View("total")

	h.ctx.SetPath(ctx, "/reports")
	st := h.ctx.State()
	assert.False(t, st.Loaded)
	assert.Empty(t, st.ActiveElementID)

	h.clock.fireAll()
	assert.Equal(t, 2, h.backend.listCount())
	groups := h.ctx.CommentsByElement()
	assert.Len(t, groups, 1)
	assert.Len(t, groups["chart"], 1)
}

func TestLoad_DropsResultForStalePath(t *testing.T) {
	h := newHarness(t, commenter)
	ctx := context.Background()
	h.backend.comments = []models.Comment{{ID: "1", ElementID: "total", Text: "a", Path: "/dashboard"}}

	h.ctx.SetPath(ctx, "/reports")
	require.NoError(t, h.ctx.Load(ctx, "/dashboard"))

	assert.Empty(t, h.ctx.Comments())
	assert.False(t, h.ctx.State().Loaded)
}

func TestMarkers_EmptyWhileDisabled(t *testing.T) {
	h := newHarness(t, commenter)
	h.backend.comments = []models.Comment{{ID: "1", ElementID: "total", Text: "a", Path: "/dashboard"}}
	require.NoError(t, h.ctx.Load(context.Background(), "/dashboard"))

	assert.Nil(t, h.ctx.Markers(indicator.StaticDocument{}, viewport))

	h.ctx.Toggle(context.Background())
	markers := h.ctx.Markers(indicator.StaticDocument{}, viewport)
	require.Len(t, markers, 1)
	assert.Equal(t, "total", markers[0].ElementID)
	assert.False(t, markers[0].Present)
}

func TestIndicators_RenderedOnScheduleAndClearedOnExit(t *testing.T) {
	var got [][]indicator.Marker
	doc := indicator.StaticDocument{
		"total": {Rect: indicator.Rect{Top: 100, Left: 50, Right: 300, Bottom: 140}},
	}
	h := newHarness(t, commenter, WithIndicators(
		func() (indicator.Document, indicator.Viewport) { return doc, viewport },
		func(m []indicator.Marker) { got = append(got, m) },
	))
	h.backend.comments = []models.Comment{{ID: "1", ElementID: "total", Text: "a", Path: "/dashboard"}}
	ctx := context.Background()

	h.ctx.Toggle(ctx)
	h.clock.fireAll()
	require.NotEmpty(t, got)
	last := got[len(got)-1]
	require.Len(t, last, 1)
	assert.True(t, last[0].Present)
	assert.Equal(t, 290.0, last[0].Top)
	assert.Equal(t, 290.0, last[0].Left)

	h.ctx.Toggle(ctx)
	assert.Nil(t, got[len(got)-1])
	assert.Empty(t, h.clock.delays())
}

func TestLoginURL(t *testing.T) {
	assert.Equal(t, "/login?callbackUrl=%2F%3FcommentMode%3Dtrue", LoginURL(""))
	assert.Equal(t, "/login?callbackUrl=%2Freports%3FcommentMode%3Dtrue", LoginURL("/reports"))
}

func TestCloseForm_KeepsModeOn(t *testing.T) {
	h := newHarness(t, commenter)
	h.ctx.Toggle(context.Background())
	require.NoError(t, h.ctx.Capture(&fakeElement{id: "total"}, 1, 1))

	h.ctx.CloseForm()

	st := h.ctx.State()
	assert.Equal(t, ModeActive, st.Mode)
	assert.False(t, st.FormOpen)
	assert.Empty(t, st.TargetElementID)
}
