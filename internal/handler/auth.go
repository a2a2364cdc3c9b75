// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/alexedwards/scs/v2"
	"github.com/mileusna/useragent"

	"github.com/tripolar-events/tripolar-web/internal/api"
	"github.com/tripolar-events/tripolar-web/internal/auth"
	"github.com/tripolar-events/tripolar-web/internal/imaging"
	"github.com/tripolar-events/tripolar-web/internal/middleware"
	"github.com/tripolar-events/tripolar-web/internal/model"
	"github.com/tripolar-events/tripolar-web/internal/render"
)

// Signup code check responses.
const (
	MsgCodeValid        = "CODE IS VALID"
	MsgCodeInvalid      = "INVALID OR EXPIRED CODE"
	MsgCodeCheckFailed  = "CODE VERIFICATION FAILED"
	MsgCodeTooShort     = "Code must be at least 6 characters"
	MsgPasswordTooShort = "Password must be at least 6 characters"
	MsgPasswordMismatch = "Passwords do not match"
	MsgNameTooShort     = "Name must be at least 2 characters"
	MsgInvalidEmail     = "Invalid email address"
)

// AuthHandler handles authentication routes.
type AuthHandler struct {
	client          *api.Client
	renderer        *render.Renderer
	sessionManager  *scs.SessionManager
	loginProtection *middleware.LoginProtection
	images          *imaging.Processor
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(client *api.Client, renderer *render.Renderer, sm *scs.SessionManager, lp *middleware.LoginProtection, images *imaging.Processor) *AuthHandler {
	return &AuthHandler{
		client:          client,
		renderer:        renderer,
		sessionManager:  sm,
		loginProtection: lp,
		images:          images,
	}
}

// LoginData is the login page model.
type LoginData struct {
	Email string
	From  string
}

// landingFor returns where a signed-in user goes after login.
func landingFor(user *model.User, from string) string {
	if user.IsAdmin() {
		return redirectAdmin
	}
	return middleware.SafeRedirectPath(from, redirectHome)
}

// LoginForm renders the login page.
// Already-authenticated visitors are sent on to where they would land after login.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	if st := auth.StateFrom(r.Context()); st.IsAuthenticated() {
		http.Redirect(w, r, landingFor(st.User, from), http.StatusSeeOther)
		return
	}

	renderPage(w, r, h.renderer, tmplLogin, render.TemplateData{
		Title: "Sign In",
		Data:  LoginData{From: middleware.SafeRedirectPath(from, "")},
	})
}

// loginRetryURL returns the login page, keeping the return location.
func loginRetryURL(from string) string {
	if from = middleware.SafeRedirectPath(from, ""); from == "" {
		return redirectLogin
	}
	return middleware.LoginURL(from)
}

// Login handles the login form submission.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectLogin) {
		return
	}

	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")
	from := r.PostFormValue("from")
	retry := loginRetryURL(from)

	if email == "" || password == "" {
		flashError(w, r, h.renderer, retry, "Email and password are required")
		return
	}

	clientIP := middleware.ClientIP(r)

	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsLocked(email); locked {
			slog.Warn("login attempt on locked account", "email", email, "ip", clientIP)
			flashError(w, r, h.renderer, retry, fmt.Sprintf("Too many failed attempts. Try again in %s.", formatDuration(remaining)))
			return
		}
	}

	session := auth.FromContext(r.Context())
	if session == nil {
		logAndInternalError(w, "login without auth session", "path", r.URL.Path)
		return
	}

	result := session.Login(r.Context(), email, password)
	if !result.Success {
		slog.Info("login failed", "email", email, "ip", clientIP)
		if h.loginProtection != nil {
			if locked, lockDuration := h.loginProtection.RecordFailure(email); locked {
				h.renderer.SetFlash(r, fmt.Sprintf("Too many failed attempts. Try again in %s.", formatDuration(lockDuration)), string(auth.LevelError))
			} else if remaining := h.loginProtection.RemainingAttempts(email); remaining > 0 && remaining <= 3 {
				h.renderer.SetFlash(r, fmt.Sprintf("%s. %d attempts remaining.", result.Message, remaining), string(auth.LevelError))
			}
		}
		http.Redirect(w, r, retry, http.StatusSeeOther)
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccess(email)
	}

	// Regenerate session ID to prevent session fixation
	if h.sessionManager != nil {
		if err := h.sessionManager.RenewToken(r.Context()); err != nil {
			logAndInternalError(w, "session renewal error", "error", err)
			return
		}
	}

	ua := useragent.Parse(r.UserAgent())
	slog.Info("user logged in",
		"user_id", result.User.ID,
		"role", result.User.Role,
		"ip", clientIP,
		"browser", ua.Name,
		"os", ua.OS,
		"device", deviceKind(ua),
	)

	http.Redirect(w, r, landingFor(result.User, from), http.StatusSeeOther)
}

// deviceKind classifies a parsed user agent.
func deviceKind(ua useragent.UserAgent) string {
	switch {
	case ua.Bot:
		return "bot"
	case ua.Tablet:
		return "tablet"
	case ua.Mobile:
		return "mobile"
	case ua.Desktop:
		return "desktop"
	default:
		return "unknown"
	}
}

// SignupData is the signup page model.
type SignupData struct {
	Name       string
	Email      string
	SignupCode string
	Errors     map[string]string
}

// SignupForm renders the usher registration page.
func (h *AuthHandler) SignupForm(w http.ResponseWriter, r *http.Request) {
	if st := auth.StateFrom(r.Context()); st.IsAuthenticated() {
		http.Redirect(w, r, landingFor(st.User, ""), http.StatusSeeOther)
		return
	}
	renderPage(w, r, h.renderer, tmplSignup, render.TemplateData{
		Title: "Join as a Professional Usher",
		Data:  SignupData{SignupCode: strings.TrimSpace(r.URL.Query().Get("code"))},
	})
}

// validateSignup checks the registration fields. The returned map is keyed by form field.
func validateSignup(form SignupData, password, confirm string) map[string]string {
	errs := make(map[string]string)
	if utf8.RuneCountInString(form.SignupCode) < model.MinCodeLength {
		errs["signupCode"] = MsgCodeTooShort
	}
	if utf8.RuneCountInString(form.Name) < minNameLength {
		errs["name"] = MsgNameTooShort
	}
	if _, err := mail.ParseAddress(form.Email); err != nil {
		errs["email"] = MsgInvalidEmail
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		errs["password"] = MsgPasswordTooShort
	}
	if password != confirm {
		errs["confirmPassword"] = MsgPasswordMismatch
	}
	return errs
}

// Signup registers a new usher. The optional profile picture is validated
// and normalized before it is forwarded.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r, h.images.MaxBytes()+maxFormMemory); err != nil {
		flashError(w, r, h.renderer, redirectSignup, "Invalid form data")
		return
	}

	form := SignupData{
		Name:       strings.TrimSpace(r.PostFormValue("name")),
		Email:      strings.TrimSpace(r.PostFormValue("email")),
		SignupCode: strings.TrimSpace(r.PostFormValue("signupCode")),
	}
	password := r.PostFormValue("password")

	if errs := validateSignup(form, password, r.PostFormValue("confirmPassword")); len(errs) > 0 {
		form.Errors = errs
		h.renderSignup(w, r, form)
		return
	}

	in := api.RegisterInput{
		Name:       form.Name,
		Email:      form.Email,
		Password:   password,
		SignupCode: form.SignupCode,
	}

	img, err := formImage(r, h.images, "profileImage")
	switch {
	case errors.Is(err, errNoFile):
	case err != nil:
		form.Errors = map[string]string{"profileImage": uploadMessage(err)}
		h.renderSignup(w, r, form)
		return
	default:
		in.ProfileImage = &img
	}

	session := auth.FromContext(r.Context())
	if session == nil {
		logAndInternalError(w, "signup without auth session", "path", r.URL.Path)
		return
	}

	result := session.Register(r.Context(), in)
	if !result.Success {
		// The failure was queued as a notification and shows on the re-rendered form.
		slog.Info("registration rejected", "email", form.Email, "reason", result.Message)
		h.renderSignup(w, r, form)
		return
	}

	slog.Info("usher registered", "email", form.Email, "with_image", in.ProfileImage != nil)
	http.Redirect(w, r, redirectLogin, http.StatusSeeOther)
}

func (h *AuthHandler) renderSignup(w http.ResponseWriter, r *http.Request, form SignupData) {
	renderPageStatus(w, r, h.renderer, http.StatusUnprocessableEntity, tmplSignup, render.TemplateData{
		Title: "Join as a Professional Usher",
		Data:  form,
	})
}

// CodeCheck is the JSON answer of VerifyCode.
type CodeCheck struct {
	IsValid *bool  `json:"isValid"`
	Message string `json:"message"`
}

// VerifyCode checks a signup code as the visitor types it.
// Codes shorter than the minimum length are answered locally.
func (h *AuthHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.FormValue("code"))
	if utf8.RuneCountInString(code) < model.MinCodeLength {
		writeJSON(w, http.StatusOK, CodeCheck{})
		return
	}

	valid, err := h.client.Codes.Verify(r.Context(), code)
	if err != nil {
		if api.KindOf(err) != api.KindValidation {
			logAPIError(r, "signup code check failed", err)
		}
		no := false
		msg := MsgCodeCheckFailed
		if m := api.Message(err, ""); m != "" {
			msg = strings.ToUpper(m)
		}
		writeJSON(w, http.StatusOK, CodeCheck{IsValid: &no, Message: msg})
		return
	}

	msg := MsgCodeInvalid
	if valid {
		msg = MsgCodeValid
	}
	writeJSON(w, http.StatusOK, CodeCheck{IsValid: &valid, Message: msg})
}

// Logout ends the session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if session := auth.FromContext(r.Context()); session != nil {
		user := session.Snapshot().User
		session.Logout(r.Context())
		if user != nil {
			slog.Info("user logged out", "user_id", user.ID)
		}
	}

	if h.sessionManager != nil {
		if err := h.sessionManager.RenewToken(r.Context()); err != nil {
			slog.Error("session renewal error", "error", err)
		}
	}

	http.Redirect(w, r, redirectHome, http.StatusSeeOther)
}

// Loading renders the placeholder shown while the session resolves.
func (h *AuthHandler) Loading(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	renderPage(w, r, h.renderer, tmplLoading, render.TemplateData{Title: "Loading"})
}

// formatDuration renders a lockout duration for people.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	case d < time.Hour:
		m := int(d.Minutes())
		if m == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", m)
	default:
		h := int(d.Hours())
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	}
}
