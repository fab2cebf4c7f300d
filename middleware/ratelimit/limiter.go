package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"rest-gateway/middleware/ratelimit/application"
	"rest-gateway/middleware/ratelimit/domain"
	"rest-gateway/middleware/ratelimit/infra"
)

// DelayReject em DelayMs significa rejeitar o excedente imediatamente.
const DelayReject = -1

var ErrInvalidOptions = errors.New("ratelimit: invalid options")

type Options struct {
	Enabled           bool
	MaxRequestsPerSec int
	// DelayMs: -1 rejeita o excedente; >= 0 espera DelayMs e admite.
	DelayMs int
	// MaxWait é quanto o excedente espera por uma vaga de throttle (modo delay).
	MaxWait time.Duration
	// ThrottledRequests é quantas requisições excedentes podem esperar ao mesmo tempo.
	ThrottledRequests int
	// ThrottledPerClient limita as vagas de espera de um mesmo cliente (0 = sem limite).
	ThrottledPerClient int

	TrackByPortAndIP   bool
	TrustXForwardedFor bool
	KeyFn              KeyFunc

	RetryAfter          time.Duration
	AddRateLimitHeaders bool

	Stats   domain.StatsStore
	IdleTTL time.Duration
	Now     func() time.Time
	Logger  *slog.Logger
}

// Limiter junta a regra (application), o store em memória (infra) e a
// extração de chave.
type Limiter struct {
	opts  Options
	store *infra.WindowStore
	svc   application.Service
}

func New(opts Options) (*Limiter, error) {
	if opts.Enabled && opts.MaxRequestsPerSec < 1 {
		return nil, fmt.Errorf("%w: max requests per second must be >= 1, got %d", ErrInvalidOptions, opts.MaxRequestsPerSec)
	}
	if opts.ThrottledPerClient < 0 {
		return nil, fmt.Errorf("%w: throttled per client must be >= 0, got %d", ErrInvalidOptions, opts.ThrottledPerClient)
	}
	if opts.DelayMs < DelayReject {
		return nil, fmt.Errorf("%w: delay must be -1 or >= 0, got %d", ErrInvalidOptions, opts.DelayMs)
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = 50 * time.Millisecond
	}
	if opts.ThrottledRequests <= 0 {
		opts.ThrottledRequests = 5
	}
	if opts.RetryAfter <= 0 {
		opts.RetryAfter = 1 * time.Second
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 15 * time.Minute
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.TrackByPortAndIP, opts.TrustXForwardedFor)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	store := infra.NewWindowStore(infra.WithIdleTTL(opts.IdleTTL), infra.WithClock(opts.Now))

	delay := time.Duration(opts.DelayMs) * time.Millisecond
	if opts.DelayMs == DelayReject {
		delay = -1
	}

	return &Limiter{
		opts:  opts,
		store: store,
		svc: application.Service{
			Store: store,
			Max:   opts.MaxRequestsPerSec,
			Delay: delay,
			Throttle: application.ThrottleService{
				Pool:    infra.NewThrottlePool(opts.ThrottledRequests, opts.ThrottledPerClient),
				MaxWait: opts.MaxWait,
			},
			RetryAfter: opts.RetryAfter,
			Disabled:   !opts.Enabled,
		},
	}, nil
}

func (l *Limiter) Enabled() bool { return l.opts.Enabled }

// Key devolve a identidade do cliente usada como chave.
func (l *Limiter) Key(s Subject) domain.Key { return l.opts.KeyFn(s) }

// Allow registra uma requisição da chave em `now` e diz se ela cabe no limite.
// Não aplica o modo delay nem grava estatísticas.
func (l *Limiter) Allow(key domain.Key, now time.Time) bool {
	return l.svc.Allow(key, now)
}

// Check decide a requisição e grava a estatística (best-effort).
// Erro só quando o ctx termina durante a espera do modo delay.
func (l *Limiter) Check(ctx context.Context, s Subject) (domain.Key, domain.Decision, error) {
	key := l.opts.KeyFn(s)
	now := l.opts.Now()

	dec, err := l.svc.Decide(ctx, key, now)
	if err != nil {
		return key, dec, err
	}

	if l.opts.Enabled && l.opts.Stats != nil {
		ev := domain.StatsEvent{
			Key:     key,
			Allowed: dec.Allowed,
			Delayed: dec.Delayed,
			Reason:  dec.Reason,
			Method:  s.Method,
			Path:    s.Path,
			At:      now,
		}
		if err := l.opts.Stats.Record(ctx, ev); err != nil {
			l.opts.Logger.Debug("rate limit stats not recorded", "err", err)
		}
	}
	return key, dec, nil
}

// Status traduz o motivo da rejeição para o status HTTP.
func Status(dec domain.Decision) int {
	if dec.Reason == domain.ReasonThrottled {
		return http.StatusServiceUnavailable
	}
	return http.StatusTooManyRequests
}

// WriteHeaders escreve Retry-After (se bloqueado) e, se configurado,
// os headers X-RateLimit-*.
func (l *Limiter) WriteHeaders(h http.Header, key domain.Key, dec domain.Decision) {
	if l.opts.AddRateLimitHeaders && l.opts.Enabled {
		h.Set("X-RateLimit-Key", string(key))
		h.Set("X-RateLimit-Limit", formatInt(l.opts.MaxRequestsPerSec))
		h.Set("X-RateLimit-Remaining", formatInt(dec.Remaining()))
	}
	if !dec.Allowed && dec.RetryAfter > 0 {
		secs := int(dec.RetryAfter.Seconds())
		if secs < 1 {
			secs = 1
		}
		h.Set("Retry-After", formatInt(secs))
	}
}

// StartJanitor limpa periodicamente as janelas ociosas até o ctx encerrar.
func (l *Limiter) StartJanitor(ctx context.Context) {
	l.store.StartJanitor(ctx)
}
