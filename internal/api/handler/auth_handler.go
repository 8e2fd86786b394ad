package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/supplyhub/supplier-console/internal/api/middleware"
	"github.com/supplyhub/supplier-console/internal/core/domain"
	"github.com/supplyhub/supplier-console/internal/core/ports"
)

type AuthHandler struct {
	store    ports.SessionStore
	sessions *middleware.Sessions
	account  ports.AccountGateway
}

func NewAuthHandler(store ports.SessionStore, sessions *middleware.Sessions, account ports.AccountGateway) *AuthHandler {
	return &AuthHandler{store: store, sessions: sessions, account: account}
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Name  string `json:"name"`
}

type sessionResponse struct {
	User    sessionUser `json:"user"`
	Expires time.Time   `json:"expires"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required,min=8,nefield=CurrentPassword"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type verifyOTPRequest struct {
	Email string `json:"email" validate:"omitempty,email"`
	OTP   string `json:"otp"   validate:"required,numeric"`
	Token string `json:"token"`
}

type verifyOTPResponse struct {
	Message     string `json:"message"`
	AccessToken string `json:"accessToken,omitempty"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"       validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

func toSessionResponse(s *domain.Session) sessionResponse {
	return sessionResponse{
		User: sessionUser{
			ID:    s.UserID,
			Email: s.Email,
			Role:  s.Role,
			Name:  s.DisplayName,
		},
		Expires: s.ExpiresAt,
	}
}

// Login exchanges credentials for a session cookie.
//
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  sessionResponse
// @Failure      401   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewAPIError(domain.KindValidation, http.StatusUnprocessableEntity, "invalid payload")
	}

	// Validation happens in the store so that every caller gets it.
	sess, err := h.store.Authenticate(c.Request().Context(), h.sessions.Carrier(c), domain.Credentials{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	h.sessions.Bind(c, sess)

	return c.JSON(http.StatusOK, toSessionResponse(sess))
}

// Logout ends the current session. It succeeds without a session.
//
// @Summary      Sign out
// @Tags         auth
// @Success      204
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	h.sessions.Terminate(c, "user")
	return c.NoContent(http.StatusNoContent)
}

// Session reports the current session, or an empty object when signed out.
//
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Router       /api/auth/session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	sess := h.sessions.Lookup(c)
	if sess == nil {
		return c.JSON(http.StatusOK, struct{}{})
	}
	return c.JSON(http.StatusOK, toSessionResponse(sess))
}

// Me returns the signed-in user's profile from the marketplace API.
//
// @Summary      Current user profile
// @Tags         auth
// @Produce      json
// @Success      200  {object}  domain.BackendUser
// @Failure      401  {object}  map[string]string
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := h.account.Me(c.Request().Context())
	if err != nil {
		return upstream(c, h.sessions, err)
	}
	return c.JSON(http.StatusOK, user)
}

// ChangePassword updates the signed-in user's password.
//
// @Summary      Change password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      changePasswordRequest  true  "Current and new password"
// @Success      200   {object}  messageResponse
// @Failure      401   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /api/auth/change-password [post]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req changePasswordRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	msg, err := h.account.ChangePassword(c.Request().Context(), ports.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		return upstream(c, h.sessions, err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: msg})
}

// ForgotPassword asks the marketplace API to send a reset code.
//
// @Summary      Request password reset
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      forgotPasswordRequest  true  "Account email"
// @Success      200   {object}  messageResponse
// @Failure      422   {object}  map[string]string
// @Router       /api/auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	msg, err := h.account.ForgotPassword(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: msg})
}

// VerifyOTP checks a one-time code and returns the token for ResetPassword.
//
// @Summary      Verify one-time code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      verifyOTPRequest  true  "Code and optional verification token"
// @Success      200   {object}  verifyOTPResponse
// @Failure      422   {object}  map[string]string
// @Router       /api/auth/verify-otp [post]
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	var req verifyOTPRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	res, err := h.account.VerifyOTP(c.Request().Context(), ports.VerifyOTPInput{
		Email: req.Email,
		OTP:   req.OTP,
		Token: req.Token,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, verifyOTPResponse{Message: res.Message, AccessToken: res.AccessToken})
}

// ResetPassword sets a new password with the token issued by VerifyOTP.
//
// @Summary      Reset password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      resetPasswordRequest  true  "Reset token and new password"
// @Success      200   {object}  messageResponse
// @Failure      401   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /api/auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	msg, err := h.account.ResetPassword(c.Request().Context(), req.Token, ports.ResetPasswordInput{NewPassword: req.NewPassword})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: msg})
}
