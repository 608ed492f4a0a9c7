// Package httpserver provides the thin fiber adapter shared by every
// component's HTTP surface: a uniform response envelope, error-kind-to-status
// mapping, and JWT role-claim authentication.
package httpserver

import "github.com/gofiber/fiber/v2"

// Envelope is the uniform response body shared by every handler.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Code    string `json:"errorCode,omitempty"`
}

// OK writes a 200 envelope wrapping data.
func OK(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusOK).JSON(Envelope{Success: true, Data: data})
}

// Created writes a 201 envelope wrapping data.
func Created(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(Envelope{Success: true, Data: data})
}
