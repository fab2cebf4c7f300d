package domain

import (
	"context"
	"time"
)

// StatsEvent registra uma decisão do limiter.
//
// Method/Path são strings genéricas, sem depender de net/http.
// Cuidado com cardinalidade ao persistir Key/Path (Redis cresce por chave).
type StatsEvent struct {
	Key     Key
	Allowed bool
	Delayed bool
	Reason  Reason

	Method string
	Path   string

	At time.Time
}

// Outcome é o nome do contador afetado pelo evento: "allowed", "delayed" ou "denied".
func (ev StatsEvent) Outcome() string {
	switch {
	case ev.Allowed && ev.Delayed:
		return "delayed"
	case ev.Allowed:
		return "allowed"
	default:
		return "denied"
	}
}

// StatsStore persiste estatísticas de decisão (memória, Redis, ...).
// Quem chama trata o erro como best-effort: nunca derruba a request.
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
