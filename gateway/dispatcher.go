package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"rest-gateway/middleware/digestauth"
	"rest-gateway/middleware/ratelimit"
	"rest-gateway/middleware/reqlog"
)

// RequestLogger registra a requisição antes de qualquer rejeição.
type RequestLogger interface {
	Log(ctx context.Context, e reqlog.Entry)
}

// Authorizer é o Auth Gate.
type Authorizer interface {
	Authorize(c digestauth.Credentials, requiredRoles []string) digestauth.Result
}

// Pipeline reúne os estágios do Dispatcher. Só Routes é obrigatório;
// RequestLog, Limiter e Auth nil desligam o estágio correspondente.
type Pipeline struct {
	Routes     *RouteTable
	RequestLog RequestLogger
	Limiter    *ratelimit.Limiter
	Auth       Authorizer
	// Metrics, se informado, conta cada requisição por método e status.
	Metrics *Metrics
	Logger  *slog.Logger
}

type Dispatcher struct {
	p Pipeline
}

func NewDispatcher(p Pipeline) (*Dispatcher, error) {
	if p.Routes == nil {
		return nil, errors.New("gateway: route table is required")
	}
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	return &Dispatcher{p: p}, nil
}

// Dispatch executa log → rate limit → rota → auth → handler.
//
// Rejeições esperadas (429/503/404/401/403) voltam como *Response com erro nil.
// Erro só quando o ctx termina no meio (conexão caiu): os estágios restantes
// não rodam, e o que já aconteceu (log, contagem) permanece.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) (*Response, error) {
	if d.p.RequestLog != nil {
		d.p.RequestLog.Log(ctx, reqlog.Entry{
			RequestID:  req.ID,
			RemoteIP:   req.RemoteIP,
			RemotePort: req.RemotePort,
			Method:     req.Method,
			Path:       req.Path,
		})
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	extra := http.Header{}
	if l := d.p.Limiter; l != nil {
		key, dec, err := l.Check(ctx, ratelimit.Subject{
			RemoteIP:   req.RemoteIP,
			RemotePort: req.RemotePort,
			Header:     req.Header,
			Method:     req.Method,
			Path:       req.Path,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTransport, err)
		}
		l.WriteHeaders(extra, key, dec)
		if !dec.Allowed {
			status := ratelimit.Status(dec)
			reason := ErrRateExceeded
			if status == http.StatusServiceUnavailable {
				reason = ErrThrottled
			}
			return d.reject(req, status, extra, reason), nil
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	route, ok := d.p.Routes.Lookup(req.Path)
	if !ok {
		return d.reject(req, http.StatusNotFound, extra, ErrRouteNotFound), nil
	}

	if len(route.Roles) > 0 {
		if d.p.Auth == nil {
			d.p.Logger.Error("protected route without auth gate", "pattern", route.Pattern)
			return d.reject(req, http.StatusInternalServerError, extra, ErrAuthNotConfigured), nil
		}
		res := d.p.Auth.Authorize(digestauth.Credentials{
			Method:        req.Method,
			URI:           req.RequestURI,
			Authorization: req.Credentials,
		}, route.Roles)
		switch res.Status {
		case digestauth.Authorized:
		case digestauth.Forbidden:
			return d.reject(req, http.StatusForbidden, extra, ErrForbidden), nil
		default:
			extra.Set("WWW-Authenticate", res.Challenge)
			return d.reject(req, http.StatusUnauthorized, extra, ErrUnauthenticated), nil
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	resp := withDefaults(route.Handler(ctx, req))
	for k, vs := range extra {
		if _, set := resp.Header[k]; !set {
			resp.Header[k] = vs
		}
	}
	return resp, nil
}

func (d *Dispatcher) reject(req *Request, status int, h http.Header, reason error) *Response {
	d.p.Logger.Debug("request rejected",
		"request_id", req.ID,
		"status", status,
		"reason", reason,
	)
	resp := withDefaults(statusResponse(status))
	for k, vs := range h {
		resp.Header[k] = vs
	}
	return resp
}

// ServeHTTP adapta o Dispatcher para net/http.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req := NewRequest(r)

	resp, err := d.Dispatch(r.Context(), req)
	if err != nil {
		d.p.Logger.Warn("request abandoned", "request_id", req.ID, "err", err)
		if d.p.Metrics != nil {
			d.p.Metrics.observe(req.Method, 0, time.Since(start))
		}
		return
	}
	if d.p.Metrics != nil {
		defer func() { d.p.Metrics.observe(req.Method, resp.Status, time.Since(start)) }()
	}
	if err := writeResponse(w, resp); err != nil {
		d.p.Logger.Warn("response write failed",
			"request_id", req.ID,
			"err", fmt.Errorf("%w: %w", ErrTransport, err),
		)
	}
}
