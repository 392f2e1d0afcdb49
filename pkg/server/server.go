package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/tb0hdan/adapta-history/pkg/api"
	"github.com/tb0hdan/adapta-history/pkg/storage"
)

const ServiceName = "Adapta History Service"

type Server struct {
	mcp.Server
	storage   storage.Storage
	echo      *echo.Echo
	logger    zerolog.Logger
	validator *validator.Validate
	jwtSecret []byte
	version   string
}

type Option func(*Server)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger.With().Str("component", "server").Logger()
	}
}

// WithJWTSecret requires a bearer token on history routes whose subject
// matches the request's user_id.
func WithJWTSecret(secret string) Option {
	return func(s *Server) {
		s.jwtSecret = []byte(secret)
	}
}

func NewServer(impl *mcp.Implementation, store storage.Storage, opts ...Option) *Server {
	s := &Server{
		Server:    *mcp.NewServer(impl, nil),
		storage:   store,
		logger:    zerolog.Nop(),
		validator: validator.New(),
	}
	if impl != nil {
		s.version = impl.Version
	}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Debug().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))

	// Stateless mode avoids "session not found" errors after server restart
	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return &s.Server
	}, &mcp.StreamableHTTPOptions{
		Stateless: true,
	})
	e.Any("/mcp", echo.WrapHandler(mcpHandler))
	e.GET("/", s.info)

	NewHistoryHandler(s).Register(e)

	s.echo = e
	return s
}

func (s *Server) Storage() storage.Storage {
	return s.storage
}

// Handler exposes the HTTP routes, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.echo != nil {
		if err := s.echo.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Server) info(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"service": ServiceName,
		"version": s.version,
		"endpoints": map[string]string{
			"save":   api.PathSaveHistory,
			"list":   api.PathGetHistory,
			"delete": api.PathDeleteHistory,
			"mcp":    "/mcp",
		},
	})
}

// handleError renders every failure as {success:false, error}.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := err.Error()
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		code = httpErr.Code
		message = fmt.Sprint(httpErr.Message)
	}
	if code >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("uri", c.Request().RequestURI).Msg("request failed")
	}

	if jsonErr := c.JSON(code, api.ErrorResponse{Success: false, Error: message}); jsonErr != nil {
		s.logger.Error().Err(jsonErr).Msg("failed to write error response")
	}
}
