package handlers

import (
	"net/http"

	"ridedesk/internal/domain"
	"ridedesk/internal/http/middleware"
	"ridedesk/internal/services"
	"ridedesk/internal/session"
	"ridedesk/internal/utils"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/auth/login
func (a *API) Login(c *gin.Context) {
	var req loginRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	res, err := a.Auth().Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		utils.LogEvent(middleware.GetRequestID(c), "auth", "login_failed", err.Error())
		RespondDomainError(c, err)
		return
	}

	session.Session{
		Name:  res.User.Name,
		Role:  string(res.User.Role),
		Email: res.User.Email,
		Token: res.Token,
	}.Set(c.Writer, a.cookieOptions(res.ExpiresAt))

	utils.LogEvent(middleware.GetRequestID(c), "auth", "login", "user_id="+itoa(res.User.UserID))
	c.JSON(http.StatusOK, gin.H{
		"token":     res.Token,
		"expiresAt": res.ExpiresAt,
		"user":      res.User,
		"nav":       services.NavigationFor(res.User.Role),
	})
}

// POST /api/auth/logout
func (a *API) Logout(c *gin.Context) {
	session.Clear(c.Writer, a.cookieOptions(a.now()))
	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}

// GET /api/auth/session
func (a *API) Session(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		RespondDomainError(c, domain.UnauthorizedError{Msg: "not signed in"})
		return
	}
	s := middleware.CurrentSession(c)
	c.JSON(http.StatusOK, gin.H{
		"user":    user,
		"session": s,
	})
}

// GET /api/auth/nav
func (a *API) Nav(c *gin.Context) {
	role := domain.NormalizeRole(middleware.CurrentSession(c).Role)
	if user, ok := middleware.CurrentUser(c); ok {
		role = user.Role
	}
	c.JSON(http.StatusOK, gin.H{"role": role, "links": services.NavigationFor(role)})
}
