package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ephraimVPA/Helfzen-zn/internal/middlewares"
	"github.com/ephraimVPA/Helfzen-zn/internal/pages"
	"github.com/ephraimVPA/Helfzen-zn/internal/utils"
)

type PageHandler struct {
	googleLogin bool
}

func NewPageHandler(googleLogin bool) *PageHandler {
	return &PageHandler{googleLogin: googleLogin}
}

// Login renders the sign-in form, or forwards an already signed-in user to
// the callback.
func (h *PageHandler) Login(c *gin.Context) {
	callback := utils.SafeCallbackURL(c.Query("callbackUrl"), defaultLandingPage)
	if _, ok := middlewares.ClaimsFrom(c); ok && c.Query("error") == "" {
		c.Redirect(http.StatusFound, callback)
		return
	}
	c.HTML(http.StatusOK, "login.html", pages.LoginData{
		CallbackURL: callback,
		Error:       pages.ErrorMessage(c.Query("error")),
		GoogleLogin: h.googleLogin,
	})
}

// Shell renders a guarded section page.
func (h *PageHandler) Shell(c *gin.Context) {
	claims, _ := middlewares.ClaimsFrom(c)
	data := pages.ShellData{
		Title:       pages.TitleFor(c.FullPath()),
		Path:        c.FullPath(),
		CommentMode: c.Query(middlewares.CommentModeParam) == "true",
		Error:       pages.ErrorMessage(c.Query("error")),
		Sections:    pages.Sections,
	}
	if claims != nil {
		data.User = claims.User()
	}
	c.HTML(http.StatusOK, "shell.html", data)
}

func (h *PageHandler) Root(c *gin.Context) {
	c.Redirect(http.StatusFound, defaultLandingPage)
}
