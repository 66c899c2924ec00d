package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dzx/internal/shared"
	"golang.org/x/oauth2"
)

// CallbackServer is a short-lived listener that waits for a single OAuth redirect.
type CallbackServer struct {
	handler  *OAuthHandler
	server   *http.Server
	listener net.Listener
	errs     chan error
	logger   *log.Logger
}

// StartCallback listens on addr and serves handler behind request logging.
func StartCallback(addr string, handler *OAuthHandler, logger *log.Logger) (*CallbackServer, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	router := NewBasicRouter()
	router.Use(Logging(logger))
	router.Handler(handler)

	c := &CallbackServer{
		handler:  handler,
		server:   &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second},
		listener: listener,
		errs:     make(chan error, 1),
		logger:   logger,
	}

	go func() {
		if err := c.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.errs <- err
		}
	}()

	logger.Info("waiting for OAuth callback", "addr", listener.Addr().String())
	return c, nil
}

// Addr returns the bound address, useful when addr used port 0.
func (c *CallbackServer) Addr() string {
	return c.listener.Addr().String()
}

// Wait blocks until the callback arrives, the server fails or ctx ends. The server is shut down in every case.
func (c *CallbackServer) Wait(ctx context.Context) (*oauth2.Token, error) {
	defer c.shutdown()

	select {
	case result := <-c.handler.Result():
		if err := result.Error(); err != nil {
			return nil, err
		}
		if result.Token == nil {
			return nil, fmt.Errorf("%w: no token received", shared.ErrNotAuthenticated)
		}
		return result.Token, nil
	case err := <-c.errs:
		return nil, fmt.Errorf("%w: callback server: %v", shared.ErrServiceUnavailable, err)
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: authorization not completed: %v", shared.ErrNotAuthenticated, ctx.Err())
	}
}

func (c *CallbackServer) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.server.Shutdown(ctx); err != nil {
		c.logger.Warn("error shutting down callback server", "error", err)
	}
}
