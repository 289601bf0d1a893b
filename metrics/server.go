package metrics

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Status is the snapshot served on /status.
type Status struct {
	TournamentID int64    `json:"tournament_id"`
	State        string   `json:"state"`
	Timers       []string `json:"timers"`
	Terminated   bool     `json:"terminated"`
	ExitCode     *int     `json:"exit_code,omitempty"`
	Reason       string   `json:"reason,omitempty"`
}

// StatusFunc returns the current runtime status.
type StatusFunc func() Status

// Server exposes /metrics, /healthz and /status for a single runtime process.
type Server struct {
	app     *fiber.App
	addr    string
	errChan chan error
}

// NewServer creates a metrics server on the specified address.
// Example address: ":9090" or "localhost:9090". status may be nil, in which
// case /status responds 404.
func NewServer(addr string, status StatusFunc) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/status", func(c *fiber.Ctx) error {
		if status == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "status not available"})
		}
		return c.JSON(status())
	})

	return &Server{
		app:     app,
		addr:    addr,
		errChan: make(chan error, 1),
	}
}

// Start starts the server in a goroutine.
// Returns immediately. Check Err() to detect startup failures.
// Use Shutdown to stop the server.
func (s *Server) Start() {
	go func() {
		if err := s.app.Listen(s.addr); err != nil {
			s.errChan <- err
		}
	}()
}

// Err returns any error that occurred during server startup or operation.
// This is non-blocking and returns nil if no error has occurred.
func (s *Server) Err() error {
	select {
	case err := <-s.errChan:
		return err
	default:
		return nil
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
