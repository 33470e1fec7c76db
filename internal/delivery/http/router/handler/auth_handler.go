package handler

import (
	"log/slog"
	"net/http"
	"time"

	"tienda/internal/delivery/http/response"
	"tienda/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// AuthHandlerParams holds dependencies for AuthHandler, injected by Fx.
type AuthHandlerParams struct {
	fx.In

	AuthUC usecase.AuthUsecase
	Logger *slog.Logger
}

// AuthHandler holds dependencies for account handlers.
type AuthHandler struct {
	authUC usecase.AuthUsecase
	logger *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler, injected by Fx.
func NewAuthHandler(params AuthHandlerParams) *AuthHandler {
	return &AuthHandler{
		authUC: params.AuthUC,
		logger: params.Logger,
	}
}

// RegisterRequest is the body of POST /auth/registro.
type RegisterRequest struct {
	Name     string `json:"nombre" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenRequest carries a token from a mailed link.
type TokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// EmailRequest names the account a link is mailed to.
type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest is the body of POST /auth/restablecer-password.
type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiraEn"`
	User      userResponse `json:"usuario"`
}

// Register handles POST /auth/registro.
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.authUC.Register(c.Request().Context(), usecase.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusCreated, newUserResponse(user),
		"Registro exitoso. Revisa tu correo para verificar tu cuenta")
}

// Login handles POST /auth/login. Unverified accounts get 401 with requiresVerification.
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	out, err := h.authUC.Login(c.Request().Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, loginResponse{
		Token:     out.AccessToken,
		ExpiresAt: out.ExpiresAt,
		User:      newUserResponse(out.User),
	}, "Inicio de sesión exitoso")
}

// Verify handles POST /auth/verificar.
func (h *AuthHandler) Verify(c echo.Context) error {
	var req TokenRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	return h.verify(c, req.Token)
}

// VerifyLink handles GET /auth/verificar/:token, the link in the mail.
func (h *AuthHandler) VerifyLink(c echo.Context) error {
	return h.verify(c, c.Param("token"))
}

func (h *AuthHandler) verify(c echo.Context, token string) error {
	user, err := h.authUC.VerifyEmail(c.Request().Context(), token)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, map[string]any{
		"verificado": true,
		"usuario":    newUserResponse(user),
	}, "Correo verificado. Ya puedes iniciar sesión")
}

// ResendVerification handles POST /auth/reenviar-verificacion.
func (h *AuthHandler) ResendVerification(c echo.Context) error {
	var req EmailRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.authUC.ResendVerification(c.Request().Context(), req.Email); err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, map[string]bool{"sent": true}, "Te enviamos un nuevo enlace de verificación")
}

// ForgotPassword handles POST /auth/olvide-password. The answer is the same for unknown emails.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req EmailRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.authUC.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, map[string]bool{"sent": true},
		"Si el correo está registrado, recibirás un enlace para restablecer tu contraseña")
}

// ResetPassword handles POST /auth/restablecer-password.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.authUC.ResetPassword(c.Request().Context(), usecase.ResetPasswordInput{
		Token:    req.Token,
		Password: req.Password,
	}); err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, map[string]bool{"actualizado": true}, "Contraseña actualizada")
}

// Profile handles GET /auth/perfil.
func (h *AuthHandler) Profile(c echo.Context) error {
	caller, err := actor(c)
	if err != nil {
		return err
	}

	user, err := h.authUC.Profile(c.Request().Context(), caller.UserID)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, newUserResponse(user), "")
}
