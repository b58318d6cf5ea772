package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/cybercell/complaint-portal-api/api"
	"github.com/cybercell/complaint-portal-api/config"
	"github.com/cybercell/complaint-portal-api/models"
	"github.com/cybercell/complaint-portal-api/services"
)

// Account exported for testing purposes
type Account struct {
	Service      *services.AccountService
	SecureCookie bool
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	User *models.UserProfile `json:"user"`
}

// RegisterHandler creates a citizen account
func (a Account) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var reg services.Registration
	if !decodeBody(w, r, &reg) {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	profile, err := a.Service.Register(ctx, reg)
	if errors.Is(err, services.ErrConflict) {
		config.ErrorStatus("account already exists with this email", http.StatusConflict, w, err)
		return
	}
	if err != nil {
		writeServiceError(w, err, "user not found")
		return
	}
	writeJSON(w, http.StatusCreated, userResponse{User: profile})
}

// LoginHandler checks credentials, returns a session token and sets it as an
// HTTP-only cookie
func (a Account) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	session, err := a.Service.Login(ctx, req.Email, req.Password)
	if errors.Is(err, services.ErrUnauthorized) {
		config.ErrorStatus("invalid credentials", http.StatusUnauthorized, w, err)
		return
	}
	if err != nil {
		writeServiceError(w, err, "user not found")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     api.SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(time.Until(session.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   a.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, session)
}

// ProfileHandler returns the profile of the signed-in citizen
func (a Account) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := api.UserFromContext(r.Context())
	if !ok {
		config.ErrorStatus("unauthorized", http.StatusUnauthorized, w, nil)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	profile, err := a.Service.Profile(ctx, user.ID())
	if err != nil {
		writeServiceError(w, err, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: profile})
}
