package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/isdelr/edgefit-be/internal/auth"
	"github.com/isdelr/edgefit-be/internal/models"
	"github.com/isdelr/edgefit-be/internal/services"
	"github.com/rs/zerolog/log"
)

// maxBodyBytes caps JSON and form request bodies.
const maxBodyBytes = 1 << 20

// UserHandler handles HTTP requests for registration and login.
type UserHandler struct {
	service       services.UserServiceProvider
	secureCookies bool
}

// NewUserHandler creates a new UserHandler. secureCookies marks the token
// cookie Secure and should be set in production.
func NewUserHandler(service services.UserServiceProvider, secureCookies bool) *UserHandler {
	return &UserHandler{service: service, secureCookies: secureCookies}
}

// CredentialsPayload is the body of register and login requests. The fields
// are pointers so that an absent field fails validation while an empty
// password is passed through. Usernames must be non-empty since they become
// the token subject.
type CredentialsPayload struct {
	Username *string `json:"username" validate:"required,min=1,max=64"`
	Password *string `json:"password" validate:"required,max=1024"`
}

func (p CredentialsPayload) credentials() (string, string) {
	return *p.Username, *p.Password
}

// TokenResponse is returned by login and the token exchange.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// Register handles new user registration.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload CredentialsPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	username, password := payload.credentials()
	if err := h.service.Register(r.Context(), username, password); err != nil {
		if errors.Is(err, models.ErrUsernameTaken) {
			log.Info().Str("username", username).Msg("Registration rejected, username taken")
		} else {
			log.Error().Err(err).Str("username", username).Msg("Failed to register user")
		}
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "User registered successfully"})
}

// Login handles JSON credential login and JWT generation.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload CredentialsPayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	h.issueToken(w, r, payload)
}

// Token handles the OAuth2 password-grant style form login.
func (h *UserHandler) Token(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form body")
		return
	}

	payload := CredentialsPayload{
		Username: formValue(r, "username"),
		Password: formValue(r, "password"),
	}
	if msg, ok := validatePayload(payload); !ok {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}
	h.issueToken(w, r, payload)
}

func (h *UserHandler) issueToken(w http.ResponseWriter, r *http.Request, payload CredentialsPayload) {
	username, password := payload.credentials()
	token, err := h.service.Login(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			log.Warn().Str("username", username).Msg("Failed authentication attempt")
		} else {
			log.Error().Err(err).Str("username", username).Msg("Login failed")
		}
		writeServiceError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookieName,
		Value:    token,
		Expires:  time.Now().Add(auth.DefaultTokenTTL),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})

	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

// formValue returns the posted form field, or nil when the key is absent.
func formValue(r *http.Request, key string) *string {
	values, ok := r.PostForm[key]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}
