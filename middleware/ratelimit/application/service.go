package application

import (
	"context"
	"time"

	"rest-gateway/middleware/ratelimit/domain"
)

// Service concentra a regra de aplicação do rate limit.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
type Service struct {
	Store domain.WindowStore
	Max   int

	// Delay < 0 significa rejeitar imediatamente o excedente.
	// Delay >= 0 segura o excedente por Delay e então admite, desde que
	// consiga uma vaga em Throttle.
	Delay    time.Duration
	Throttle ThrottleService

	RetryAfter time.Duration

	// Disabled faz Decide sempre permitir (sem tocar no Store).
	Disabled bool
}

// Allow aplica só a regra de contagem: registra a requisição e permite
// enquanto count <= Max.
func (s Service) Allow(key domain.Key, now time.Time) bool {
	if s.Disabled || s.Store == nil {
		return true
	}
	return s.Store.Hit(key, now).Count <= s.Max
}

// Decide registra a requisição e decide. Só retorna erro quando o ctx
// termina durante a espera do modo delay.
func (s Service) Decide(ctx context.Context, key domain.Key, now time.Time) (domain.Decision, error) {
	if s.Disabled || s.Store == nil {
		return domain.Decision{Allowed: true}, nil
	}
	if s.RetryAfter <= 0 {
		s.RetryAfter = 1 * time.Second
	}

	w := s.Store.Hit(key, now)
	dec := domain.Decision{Count: w.Count, Limit: s.Max}
	if w.Count <= s.Max {
		dec.Allowed = true
		return dec, nil
	}

	if s.Delay < 0 {
		dec.Reason = domain.ReasonRateExceeded
		dec.RetryAfter = s.RetryAfter
		return dec, nil
	}

	release, ok := s.Throttle.Acquire(ctx, key)
	if !ok {
		if err := ctx.Err(); err != nil {
			return dec, err
		}
		dec.Reason = domain.ReasonThrottled
		dec.RetryAfter = s.RetryAfter
		return dec, nil
	}
	defer release()

	if s.Delay > 0 {
		t := time.NewTimer(s.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return dec, ctx.Err()
		case <-t.C:
		}
	}

	dec.Allowed = true
	dec.Delayed = true
	return dec, nil
}
