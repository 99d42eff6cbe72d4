package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/tenderdesk/tenderdesk/internal/audit"
	"github.com/tenderdesk/tenderdesk/internal/identity"
)

// SessionCookie is the cookie carrying the session token.
const SessionCookie = "sid"

var validate = validator.New()

// Handler exposes OTP login and session endpoints.
type Handler struct {
	svc    *Service
	audits *audit.Service
	dev    bool
}

// NewHandler builds the auth handler. In dev mode the plaintext code is
// echoed in the request-code response, matching the local workflow where
// no delivery channel exists.
func NewHandler(svc *Service, audits *audit.Service, dev bool) *Handler {
	return &Handler{svc: svc, audits: audits, dev: dev}
}

type requestCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role"`
}

// RequestCode issues a one-time login code.
func (h *Handler) RequestCode(c *fiber.Ctx) error {
	var req requestCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid JSON")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	code, err := h.svc.RequestCode(c.UserContext(), req.Email, req.Role)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, "could not issue code")
	}

	h.audits.Record(c.UserContext(), "otp_request", c.IP(), map[string]string{
		"email_hash": audit.HashValue(identity.NormalizeEmail(req.Email)),
	})

	resp := fiber.Map{"ok": true}
	if h.dev {
		resp["dev_code"] = code
	}
	return c.Status(http.StatusOK).JSON(resp)
}

type loginRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

// Login exchanges a valid code for a session cookie.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid JSON")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	user, token, err := h.svc.Login(c.UserContext(), req.Email, req.Code)
	if err != nil {
		if errors.Is(err, ErrInvalidOrExpiredCode) {
			return fiber.NewError(http.StatusUnauthorized, ErrInvalidOrExpiredCode.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, "login failed")
	}

	h.setSessionCookie(c, token, h.svc.SessionTTL())
	h.audits.Record(c.UserContext(), "login", c.IP(), map[string]string{"user": user.ID})

	return c.Status(http.StatusOK).JSON(fiber.Map{"ok": true, "user": UserResponse(user)})
}

// Whoami reports the current identity, or null for anonymous callers.
func (h *Handler) Whoami(c *fiber.Ctx) error {
	user, err := h.svc.Resolve(c.UserContext(), c.Cookies(SessionCookie))
	if err != nil {
		return c.JSON(fiber.Map{"user": nil})
	}
	return c.JSON(fiber.Map{"user": UserResponse(user)})
}

// Logout destroys the session and clears the cookie. Idempotent.
func (h *Handler) Logout(c *fiber.Ctx) error {
	token := c.Cookies(SessionCookie)
	if err := h.svc.Destroy(c.UserContext(), token); err != nil {
		return fiber.NewError(http.StatusInternalServerError, "logout failed")
	}
	h.setSessionCookie(c, "deleted", -time.Hour)
	if token != "" {
		h.audits.Record(c.UserContext(), "logout", c.IP(), nil)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"ok": true})
}

func (h *Handler) setSessionCookie(c *fiber.Ctx, value string, ttl time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// UserResponse is the wire shape of a user across auth endpoints.
func UserResponse(u identity.User) fiber.Map {
	return fiber.Map{
		"id":                 u.ID,
		"email":              u.Email,
		"role":               u.Role,
		"two_factor_enabled": u.TwoFactor.Enabled,
	}
}
