package api

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/custodia-labs/rockybot/internal/core/domain"
	"github.com/custodia-labs/rockybot/internal/core/ports/driving"
	"github.com/custodia-labs/rockybot/internal/logger"
)

// Ports aggregates the driving ports served over HTTP.
type Ports struct {
	Ingest driving.IngestService
	Answer driving.AnswerService
}

// Server is the HTTP API.
type Server struct {
	app   *fiber.App
	ports Ports
}

// New creates a Server with all routes registered.
func New(ports Ports) (*Server, error) {
	if ports.Ingest == nil {
		return nil, ErrMissingIngestService
	}
	if ports.Answer == nil {
		return nil, ErrMissingAnswerService
	}

	s := &Server{
		app: fiber.New(fiber.Config{
			ErrorHandler:          ErrorHandler,
			DisableStartupMessage: true,
		}),
		ports: ports,
	}

	check := s.app.Group("/check")
	check.Get("/healthy", s.handleHealthy)

	apiv1 := s.app.Group("/api/v1")
	apiv1.Post("/ingest", s.handleIngest)
	apiv1.Post("/ask", s.handleAsk)
	apiv1.Get("/index", s.handleIndex)

	return s, nil
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	logger.Info("HTTP API listening on %s", addr)
	return s.app.Listen(addr)
}

// Shutdown stops the server, waiting for in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) handleHealthy(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"result": "ok"})
}

func (s *Server) handleIngest(c *fiber.Ctx) error {
	var req IngestRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrBadRequest()
	}
	if err := validate.Struct(&req); err != nil {
		return NewValidationError(validationFields(err))
	}

	report, err := s.ports.Ingest.Ingest(c.UserContext(), req.URLs, domain.IngestOptions{
		ChunkSize: req.ChunkSize,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(newIngestResponse(report))
}

func (s *Server) handleAsk(c *fiber.Ctx) error {
	var req AskRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrBadRequest()
	}
	if err := validate.Struct(&req); err != nil {
		return NewValidationError(validationFields(err))
	}

	answer, err := s.ports.Answer.Answer(c.UserContext(), req.Question, domain.AskOptions{
		K:       req.K,
		Degrade: req.Degrade,
	})
	if err != nil {
		return err
	}
	return c.JSON(newAskResponse(answer))
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	info, err := s.ports.Answer.Info(c.UserContext(), "")
	if err != nil {
		return err
	}
	return c.JSON(newIndexResponse(info))
}
