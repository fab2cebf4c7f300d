package infra

import (
	"sync"
	"time"

	"rest-gateway/middleware/ratelimit/domain"
)

// WindowSize é o tamanho fixo da janela de contagem.
const WindowSize = time.Second

// WindowStore é a implementação em memória de domain.WindowStore:
// uma janela fixa por chave, com limpeza periódica de chaves ociosas.
//
// O mapa tem seu próprio lock (só para lookup/criação); cada entrada tem um
// mutex que serializa o incremento-e-compare daquela chave.
type WindowStore struct {
	mu           sync.RWMutex
	entries      map[domain.Key]*windowEntry
	idleTTL      time.Duration
	cleanupEvery time.Duration
	now          func() time.Time
}

type windowEntry struct {
	mu     sync.Mutex
	window domain.Window
	// dead marca a entrada já removida do mapa pelo Cleanup.
	dead bool
}

type StoreOption func(*WindowStore)

func WithIdleTTL(d time.Duration) StoreOption {
	return func(s *WindowStore) { s.idleTTL = d }
}

func WithCleanupEvery(d time.Duration) StoreOption {
	return func(s *WindowStore) { s.cleanupEvery = d }
}

// WithClock troca o relógio usado pelo Cleanup (testes).
func WithClock(now func() time.Time) StoreOption {
	return func(s *WindowStore) { s.now = now }
}

func NewWindowStore(opts ...StoreOption) *WindowStore {
	s := &WindowStore{
		entries:      make(map[domain.Key]*windowEntry),
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *WindowStore) CleanupEvery() time.Duration { return s.cleanupEvery }

// Hit implementa domain.WindowStore.
func (s *WindowStore) Hit(key domain.Key, now time.Time) domain.Window {
	for {
		if w, ok := s.hitEntry(s.entry(key, now), now); ok {
			return w
		}
	}
}

// hitEntry incrementa a janela da entrada. ok=false quando o Cleanup removeu
// a entrada entre o lookup e o lock; quem chama busca de novo no mapa.
func (s *WindowStore) hitEntry(ent *windowEntry, now time.Time) (domain.Window, bool) {
	ent.mu.Lock()
	defer ent.mu.Unlock()

	if ent.dead {
		return domain.Window{}, false
	}
	if now.Sub(ent.window.Start) >= WindowSize {
		ent.window = domain.Window{Start: now}
	}
	ent.window.Count++
	return ent.window, true
}

// Peek devolve a janela atual da chave sem registrar nada.
func (s *WindowStore) Peek(key domain.Key) (domain.Window, bool) {
	s.mu.RLock()
	ent, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return domain.Window{}, false
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()
	return ent.window, true
}

func (s *WindowStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *WindowStore) entry(key domain.Key, now time.Time) *windowEntry {
	s.mu.RLock()
	ent, ok := s.entries[key]
	s.mu.RUnlock()
	if ok {
		return ent
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ent, ok := s.entries[key]; ok {
		return ent
	}
	ent = &windowEntry{window: domain.Window{Start: now}}
	s.entries[key] = ent
	return ent
}

// Cleanup remove chaves cuja janela começou há mais de idleTTL.
func (s *WindowStore) Cleanup() {
	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		ent.mu.Lock()
		if ent.window.Start.Before(cutoff) {
			ent.dead = true
			delete(s.entries, k)
		}
		ent.mu.Unlock()
	}
}

// StartJanitor inicia uma goroutine que limpa chaves inativas periodicamente.
// Pare cancelando o contexto.
func (s *WindowStore) StartJanitor(ctx DoneContext) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
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

// DoneContext é o mínimo necessário para aceitar context.Context sem importar context aqui.
type DoneContext interface {
	Done() <-chan struct{}
}
