// Package reqlog registra cada requisição recebida ("From <ip>:<port>  <METHOD> <path>")
// sem bloquear nem derrubar o dispatch.
package reqlog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Entry é o que é registrado de uma requisição.
type Entry struct {
	RequestID  string
	RemoteIP   string
	RemotePort int
	Method     string
	Path       string
}

func (e Entry) Message() string {
	return fmt.Sprintf("From %s:%d  %s %s", e.RemoteIP, e.RemotePort, e.Method, e.Path)
}

type Options struct {
	// Handler é o sink dos registros (ex: tint, JSON).
	Handler slog.Handler
	// Diagnostics recebe os avisos de falha do sink. Padrão: slog.Default().
	Diagnostics *slog.Logger
	// Buffer é o tamanho da fila; cheia, o registro é descartado.
	Buffer int
	// ReportEvery limita a frequência dos avisos de falha.
	ReportEvery time.Duration
}

// Logger enfileira os registros e um único goroutine escreve no sink,
// então linhas nunca se intercalam.
type Logger struct {
	handler slog.Handler
	diag    *slog.Logger
	report  *rate.Sometimes

	mu     sync.RWMutex
	closed bool
	queue  chan slog.Record
	done   chan struct{}

	dropped atomic.Int64
	failed  atomic.Int64
}

func New(opts Options) *Logger {
	if opts.Handler == nil {
		opts.Handler = slog.Default().Handler()
	}
	if opts.Diagnostics == nil {
		opts.Diagnostics = slog.Default()
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 1024
	}
	if opts.ReportEvery <= 0 {
		opts.ReportEvery = 10 * time.Second
	}

	l := &Logger{
		handler: opts.Handler,
		diag:    opts.Diagnostics,
		report:  &rate.Sometimes{Interval: opts.ReportEvery},
		queue:   make(chan slog.Record, opts.Buffer),
		done:    make(chan struct{}),
	}
	go l.run()
	return l
}

// Log registra a entrada. Nunca bloqueia e nunca retorna erro.
func (l *Logger) Log(_ context.Context, e Entry) {
	rec := slog.NewRecord(time.Now(), slog.LevelInfo, e.Message(), 0)
	rec.AddAttrs(
		slog.String("request_id", e.RequestID),
		slog.String("remote_ip", e.RemoteIP),
		slog.Int("remote_port", e.RemotePort),
		slog.String("method", e.Method),
		slog.String("path", e.Path),
	)

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		l.drop("logger closed")
		return
	}
	select {
	case l.queue <- rec:
	default:
		l.drop("queue full")
	}
}

// Dropped é quantos registros foram descartados (fila cheia ou logger fechado).
func (l *Logger) Dropped() int64 { return l.dropped.Load() }

// Failed é quantos registros o sink não conseguiu escrever.
func (l *Logger) Failed() int64 { return l.failed.Load() }

// Close escreve o que ainda está na fila e para o goroutine.
func (l *Logger) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		<-l.done
		return
	}
	l.closed = true
	close(l.queue)
	l.mu.Unlock()
	<-l.done
}

func (l *Logger) run() {
	defer close(l.done)
	for rec := range l.queue {
		l.write(rec)
	}
}

func (l *Logger) write(rec slog.Record) {
	defer func() {
		if p := recover(); p != nil {
			l.fail(fmt.Errorf("sink panic: %v", p))
		}
	}()

	ctx := context.Background()
	if !l.handler.Enabled(ctx, rec.Level) {
		return
	}
	if err := l.handler.Handle(ctx, rec); err != nil {
		l.fail(err)
	}
}

func (l *Logger) fail(err error) {
	n := l.failed.Add(1)
	l.report.Do(func() {
		l.diag.Warn("request log sink failure", "err", err, "failed", n)
	})
}

func (l *Logger) drop(reason string) {
	n := l.dropped.Add(1)
	l.report.Do(func() {
		l.diag.Warn("request log record dropped", "reason", reason, "dropped", n)
	})
}
