package httpserver

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/meridianledger/corebank/internal/platform/app"
	"github.com/meridianledger/corebank/internal/platform/mlog"
)

// Server runs a configured fiber.App as a Launcher component.
type Server struct {
	fiberApp *fiber.App
	addr     string
	logger   mlog.Logger
}

// NewServer builds a Server bound to addr.
func NewServer(fiberApp *fiber.App, addr string, logger mlog.Logger) *Server {
	return &Server{fiberApp: fiberApp, addr: addr, logger: logger}
}

// Run implements app.Component.
func (s *Server) Run(*app.Launcher) error {
	s.logger.Info(app.ListenAddr(s.addr))

	if err := s.fiberApp.Listen(s.addr); err != nil {
		return fmt.Errorf("httpserver: listen: %w", err)
	}

	return nil
}
