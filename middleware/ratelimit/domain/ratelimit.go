package domain

// Camada de domínio do rate limit.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import "time"

// Key identifica um cliente (IP, IP:porta, ...).
type Key string

// Window é o estado de uma janela fixa de 1 segundo para uma chave.
type Window struct {
	Count int
	Start time.Time
}

// WindowStore mantém uma janela por chave.
//
// Hit registra uma requisição em `now` e devolve a janela já atualizada.
// A janela é recalculada (não decai incrementalmente): se now-Start >= 1s
// ela recomeça com Count=0 e Start=now antes do incremento.
// Chamadas para a mesma chave são serializadas entre si.
type WindowStore interface {
	Hit(key Key, now time.Time) Window
}

// Reason explica por que uma requisição foi bloqueada.
type Reason int

const (
	ReasonNone Reason = iota
	// ReasonRateExceeded: passou do limite e o modo é rejeitar (429).
	ReasonRateExceeded
	// ReasonThrottled: passou do limite, modo delay, mas não conseguiu vaga
	// de throttle dentro do tempo máximo (503).
	ReasonThrottled
)

func (r Reason) String() string {
	switch r {
	case ReasonRateExceeded:
		return "rate_exceeded"
	case ReasonThrottled:
		return "throttled"
	default:
		return "none"
	}
}

type Decision struct {
	Allowed bool
	// Delayed indica que a requisição excedeu o limite mas foi admitida
	// depois de esperar o delay configurado.
	Delayed bool
	Reason  Reason

	// Count e Limit descrevem a janela no momento da decisão.
	Count int
	Limit int

	// RetryAfter é o valor a ser retornado em Retry-After quando bloquear.
	// Se 0, não há recomendação.
	RetryAfter time.Duration
}

// Remaining é quanto ainda cabe na janela atual (nunca negativo).
func (d Decision) Remaining() int {
	if d.Count >= d.Limit {
		return 0
	}
	return d.Limit - d.Count
}
