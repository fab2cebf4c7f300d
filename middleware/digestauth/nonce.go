package digestauth

import (
	"context"
	"crypto/rand"
	"sync"
	"time"
)

type nonceCheck int

const (
	nonceValid nonceCheck = iota
	nonceUnknown
	nonceStale
	nonceReplayed
)

type nonceState struct {
	issued time.Time
	seen   map[uint64]struct{}
}

// DefaultMaxNonces limita quantos nonces ficam guardados ao mesmo tempo.
const DefaultMaxNonces = 10000

// NonceStore guarda os nonces emitidos nos desafios e os nonce-counts já usados.
//
// Um nonce expirado continua guardado até 2×maxAge para que o cliente receba
// stale=true em vez de um desafio comum. Acima de limit, o mais antigo sai.
type NonceStore struct {
	mu     sync.Mutex
	nonces map[string]*nonceState
	// order guarda os nonces em ordem de emissão; pode conter nomes já removidos.
	order  []string
	maxAge time.Duration
	limit  int
	now    func() time.Time
}

func NewNonceStore(maxAge time.Duration, now func() time.Time, limit int) *NonceStore {
	if maxAge <= 0 {
		maxAge = 60 * time.Second
	}
	if now == nil {
		now = time.Now
	}
	if limit <= 0 {
		limit = DefaultMaxNonces
	}
	return &NonceStore{
		nonces: make(map[string]*nonceState),
		maxAge: maxAge,
		limit:  limit,
		now:    now,
	}
}

// Issue gera e registra um nonce novo, descartando o mais antigo se o
// limite foi atingido.
func (s *NonceStore) Issue() string {
	nonce := rand.Text()

	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.nonces) >= s.limit && len(s.order) > 0 {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.nonces, oldest)
	}
	s.nonces[nonce] = &nonceState{issued: s.now(), seen: make(map[uint64]struct{})}
	s.order = append(s.order, nonce)
	return nonce
}

// use valida o nonce e marca o nonce-count como usado.
// nc == 0 (cliente sem qop) não tem proteção contra replay além da idade do nonce.
func (s *NonceStore) use(nonce string, nc uint64) nonceCheck {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.nonces[nonce]
	if !ok {
		return nonceUnknown
	}
	if s.now().Sub(st.issued) > s.maxAge {
		return nonceStale
	}
	if nc == 0 {
		return nonceValid
	}
	if _, dup := st.seen[nc]; dup {
		return nonceReplayed
	}
	st.seen[nc] = struct{}{}
	return nonceValid
}

func (s *NonceStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.nonces)
}

// Cleanup remove nonces emitidos há mais de 2×maxAge.
func (s *NonceStore) Cleanup() {
	cutoff := s.now().Add(-2 * s.maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()
	for n, st := range s.nonces {
		if st.issued.Before(cutoff) {
			delete(s.nonces, n)
		}
	}

	live := s.order[:0]
	for _, n := range s.order {
		if _, ok := s.nonces[n]; ok {
			live = append(live, n)
		}
	}
	clear(s.order[len(live):])
	s.order = live
}

// StartJanitor limpa nonces expirados a cada maxAge até o ctx encerrar.
func (s *NonceStore) StartJanitor(ctx context.Context) {
	t := time.NewTicker(s.maxAge)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}
