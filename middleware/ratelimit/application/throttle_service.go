package application

import (
	"context"
	"time"

	"rest-gateway/middleware/ratelimit/domain"
)

// ThrottleService pega uma vaga de espera do modo delay para a chave,
// esperando no máximo MaxWait. Não sabe nada sobre HTTP.
type ThrottleService struct {
	Pool domain.SlotPool
	// MaxWait <= 0 espera até o ctx encerrar.
	MaxWait time.Duration
}

// Acquire devolve (release, true) com a vaga, ou (nil, false) sem ela.
// Sem Pool não há limite.
func (s ThrottleService) Acquire(ctx context.Context, key domain.Key) (func(), bool) {
	if s.Pool == nil {
		return func() {}, true
	}
	if s.MaxWait <= 0 {
		return s.Pool.Acquire(ctx, key)
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.MaxWait)
	defer cancel()
	return s.Pool.Acquire(waitCtx, key)
}
