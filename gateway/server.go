package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Janitor é qualquer componente com limpeza periódica (limiter, nonces).
type Janitor interface {
	StartJanitor(ctx context.Context)
}

type ServerOptions struct {
	// Addr é o endereço de escuta (":8080", "127.0.0.1:0").
	Addr    string
	Handler http.Handler
	// Routes, se informado, é selado antes de começar a servir.
	Routes   *RouteTable
	Janitors []Janitor
	Logger   *slog.Logger

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
}

// Server é o handle de uma instância em execução, devolvido por Start.
type Server struct {
	srv    *http.Server
	ln     net.Listener
	cancel context.CancelFunc
	done   chan struct{}
	err    error
	logger *slog.Logger
}

// Start abre o listener e serve em background até Stop.
func Start(ctx context.Context, opts ServerOptions) (*Server, error) {
	if opts.Handler == nil {
		return nil, errors.New("gateway: handler is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ReadHeaderTimeout == 0 {
		opts.ReadHeaderTimeout = 10 * time.Second
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 30 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 30 * time.Second
	}
	if opts.IdleTimeout == 0 {
		opts.IdleTimeout = 90 * time.Second
	}

	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", opts.Addr, err)
	}

	if opts.Routes != nil {
		opts.Routes.Seal()
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	for _, j := range opts.Janitors {
		if j != nil {
			j.StartJanitor(runCtx)
		}
	}

	s := &Server{
		srv: &http.Server{
			Handler:           opts.Handler,
			ReadHeaderTimeout: opts.ReadHeaderTimeout,
			ReadTimeout:       opts.ReadTimeout,
			WriteTimeout:      opts.WriteTimeout,
			IdleTimeout:       opts.IdleTimeout,
			ErrorLog:          slog.NewLogLogger(opts.Logger.Handler(), slog.LevelWarn),
		},
		ln:     ln,
		cancel: cancel,
		done:   make(chan struct{}),
		logger: opts.Logger,
	}

	go func() {
		defer close(s.done)
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.err = err
			s.logger.Error("server error", "addr", ln.Addr().String(), "err", err)
		}
	}()

	s.logger.Info("server listening", "addr", ln.Addr().String())
	return s, nil
}

func (s *Server) Addr() net.Addr { return s.ln.Addr() }

// URL é a URL base http://host:port do listener.
func (s *Server) URL() string { return "http://" + s.ln.Addr().String() }

// Done fecha quando o servidor parar de servir.
func (s *Server) Done() <-chan struct{} { return s.done }

// Err devolve o erro que encerrou o Serve (nil em parada normal). Válido depois de Done.
func (s *Server) Err() error {
	<-s.done
	return s.err
}

// Stop encerra graciosamente e para os janitors.
func (s *Server) Stop(ctx context.Context) error {
	defer s.cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	<-s.done
	return s.err
}
