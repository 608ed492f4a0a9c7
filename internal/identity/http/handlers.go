// Package http is the identity fiber adapter: login and logout against
// identity.AuthService.
package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/meridianledger/corebank/internal/identity"
	"github.com/meridianledger/corebank/internal/platform/httpserver"
)

// Handler wires identity.AuthService onto a fiber.Router. OTP is optional;
// routes for it are mounted only when the store is wired.
type Handler struct {
	Svc *identity.AuthService
	OTP *identity.OTPService
}

// Register mounts the unauthenticated login route and the authenticated
// logout route; logout is registered by the caller behind the JWT
// middleware so PrincipalFromContext is populated.
func (h *Handler) Register(public fiber.Router, protected fiber.Router) {
	public.Post("/auth/login", h.login)
	protected.Post("/auth/logout", h.logout)
	protected.Post("/auth/unlock/:subject", httpserver.RequireRole(identity.RoleAdmin), h.unlock)

	if h.OTP != nil {
		public.Post("/auth/otp/request", h.requestOTP)
		public.Post("/auth/otp/verify", h.verifyOTP)
	}
}

type loginRequest struct {
	Subject  string `json:"subject" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := httpserver.ParseBody(c, &req); err != nil {
		return httpserver.WithError(c, err)
	}

	pair, err := h.Svc.Login(c.UserContext(), req.Subject, req.Password)
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.OK(c, fiber.Map{"token": pair.Token, "tokenId": pair.TokenID})
}

func (h *Handler) logout(c *fiber.Ctx) error {
	principal, ok := httpserver.PrincipalFromContext(c)
	if !ok {
		return httpserver.WithError(c, identity.ErrMissingToken)
	}

	if err := h.Svc.Logout(c.UserContext(), principal.TokenID, principal.IssuedAt); err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.OK(c, fiber.Map{"revoked": true})
}

func (h *Handler) unlock(c *fiber.Ctx) error {
	if err := h.Svc.Guard.AdminUnlock(c.UserContext(), c.Params("subject")); err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.OK(c, fiber.Map{"unlocked": true})
}

type otpRequest struct {
	Subject string `json:"subject" validate:"required"`
}

func (h *Handler) requestOTP(c *fiber.Ctx) error {
	var req otpRequest
	if err := httpserver.ParseBody(c, &req); err != nil {
		return httpserver.WithError(c, err)
	}

	// The code itself is never put in the HTTP response; this handler
	// discards it and hands it to no delivery channel.
	_, expiresAt, err := h.OTP.RequestOTP(c.UserContext(), req.Subject)
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.OK(c, fiber.Map{"expiresAt": expiresAt})
}

type otpVerifyRequest struct {
	Subject string `json:"subject" validate:"required"`
	Code    string `json:"code" validate:"required,len=6"`
}

func (h *Handler) verifyOTP(c *fiber.Ctx) error {
	var req otpVerifyRequest
	if err := httpserver.ParseBody(c, &req); err != nil {
		return httpserver.WithError(c, err)
	}

	if err := h.OTP.VerifyOTP(c.UserContext(), req.Subject, req.Code); err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.OK(c, fiber.Map{"verified": true})
}
