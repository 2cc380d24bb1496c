package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avidalm/iptvgate/internal/common"
	"github.com/avidalm/iptvgate/internal/server/models"
	"github.com/avidalm/iptvgate/internal/server/services"
)

type registerRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=6"`
	IptvURL      string `json:"iptv_url" binding:"required,url"`
	IptvUsername string `json:"iptv_username" binding:"required"`
	IptvPassword string `json:"iptv_password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`

	IptvURL      string `json:"iptv_url"`
	IptvUsername string `json:"iptv_username"`
	IptvPassword string `json:"iptv_password"`
}

type accountView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type sessionView struct {
	Token string      `json:"token"`
	User  accountView `json:"user"`
}

type profileView struct {
	accountView
	IptvURL      string `json:"iptv_url"`
	IptvUsername string `json:"iptv_username"`
	IptvPassword string `json:"iptv_password"`
}

func viewOf(a *models.Account) accountView {
	return accountView{ID: a.ID, Email: a.Email, CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt}
}

func sessionViewOf(sess *services.Session) sessionView {
	return sessionView{Token: sess.Token, User: viewOf(sess.Account)}
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, fmt.Errorf("%w: %s", common.ErrValidation, err.Error()))
		return
	}

	sess, err := s.accounts.Register(c.Request.Context(), req.Email, req.Password, services.ProviderCredentials{
		BaseURL:  req.IptvURL,
		Username: req.IptvUsername,
		Password: req.IptvPassword,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	respondData(c, http.StatusCreated, sessionViewOf(sess))
}

// login supports two mutually exclusive modes: local (email + password) and
// provider (iptv_url + iptv_username + iptv_password). Mixing fields from
// both modes is a validation error so clients cannot half-authenticate.
func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, fmt.Errorf("%w: %s", common.ErrValidation, err.Error()))
		return
	}

	local := req.Email != "" || req.Password != ""
	provider := req.IptvURL != "" || req.IptvUsername != "" || req.IptvPassword != ""

	var (
		sess *services.Session
		err  error
	)
	switch {
	case local && provider:
		err = fmt.Errorf("%w: provide either email/password or iptv credentials, not both", common.ErrValidation)
	case local:
		sess, err = s.accounts.LoginLocal(c.Request.Context(), req.Email, req.Password)
	case provider:
		sess, err = s.accounts.LoginProvider(c.Request.Context(), services.ProviderCredentials{
			BaseURL:  req.IptvURL,
			Username: req.IptvUsername,
			Password: req.IptvPassword,
		})
	default:
		err = fmt.Errorf("%w: credentials are required", common.ErrValidation)
	}
	if err != nil {
		s.respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, sessionViewOf(sess))
}

func (s *Server) profile(c *gin.Context) {
	account, creds, err := s.accounts.Profile(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, profileView{
		accountView:  viewOf(account),
		IptvURL:      creds.BaseURL,
		IptvUsername: creds.Username,
		IptvPassword: creds.Password,
	})
}

type updateCredentialsRequest struct {
	IptvURL      *string `json:"iptv_url"`
	IptvUsername *string `json:"iptv_username"`
	IptvPassword *string `json:"iptv_password"`
}

func (s *Server) updateCredentials(c *gin.Context) {
	var req updateCredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, fmt.Errorf("%w: %s", common.ErrValidation, err.Error()))
		return
	}

	account, err := s.accounts.UpdateCredentials(c.Request.Context(), currentUserID(c), services.CredentialsUpdate{
		BaseURL:  req.IptvURL,
		Username: req.IptvUsername,
		Password: req.IptvPassword,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, viewOf(account))
}

func (s *Server) deleteAccount(c *gin.Context) {
	if err := s.accounts.DeleteAccount(c.Request.Context(), currentUserID(c)); err != nil {
		s.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"deleted": true})
}
