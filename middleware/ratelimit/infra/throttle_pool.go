package infra

import (
	"context"
	"sync"

	"rest-gateway/middleware/ratelimit/domain"
)

// ThrottlePool é o domain.SlotPool do modo delay: um semáforo em channel com
// `total` vagas e, se perKey > 0, no máximo perKey vagas (esperando ou já
// adquiridas) por chave, para um único cliente não ocupar todas.
type ThrottlePool struct {
	sem    chan struct{}
	perKey int

	mu   sync.Mutex
	held map[domain.Key]int
}

func NewThrottlePool(total, perKey int) *ThrottlePool {
	if total < 1 {
		total = 1
	}
	return &ThrottlePool{
		sem:    make(chan struct{}, total),
		perKey: perKey,
		held:   make(map[domain.Key]int),
	}
}

func (p *ThrottlePool) Acquire(ctx context.Context, key domain.Key) (func(), bool) {
	if !p.reserve(key) {
		return nil, false
	}

	select {
	case p.sem <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-p.sem
				p.unreserve(key)
			})
		}, true
	case <-ctx.Done():
		p.unreserve(key)
		return nil, false
	}
}

// InUse é quantas vagas estão ocupadas agora.
func (p *ThrottlePool) InUse() int { return len(p.sem) }

// Held é quantas vagas a chave ocupa ou aguarda.
func (p *ThrottlePool) Held(key domain.Key) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.held[key]
}

func (p *ThrottlePool) reserve(key domain.Key) bool {
	if p.perKey <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.held[key] >= p.perKey {
		return false
	}
	p.held[key]++
	return true
}

func (p *ThrottlePool) unreserve(key domain.Key) {
	if p.perKey <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.held[key] <= 1 {
		delete(p.held, key)
		return
	}
	p.held[key]--
}
