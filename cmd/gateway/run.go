package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"rest-gateway/config"
	"rest-gateway/gateway"
	"rest-gateway/middleware/digestauth"
	"rest-gateway/middleware/ratelimit"
	"rest-gateway/middleware/ratelimit/domain"
	"rest-gateway/middleware/ratelimit/infra"
	"rest-gateway/middleware/reqlog"
	"rest-gateway/resource"

	"github.com/redis/go-redis/v9"
)

// run monta e serve o gateway até o ctx encerrar. ready, se informado, recebe
// os servidores já escutando (gateway primeiro, admin em seguida).
func run(parent context.Context, cfg *config.Config, ready func(servers []*gateway.Server)) error {
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	stats, memStats, closeStats, err := buildStats(ctx, cfg.Stats)
	if err != nil {
		return err
	}
	defer closeStats()

	var metrics *gateway.Metrics
	if cfg.Metrics.Enabled {
		metrics = gateway.NewMetrics()
		if stats == nil {
			stats = metrics
		} else {
			stats = infra.MultiStatsStore{stats, metrics}
		}
	}

	limiter, err := ratelimit.New(ratelimit.Options{
		Enabled:             cfg.RateLimit.Enabled,
		MaxRequestsPerSec:   cfg.RateLimit.MaxRequestsPerSec,
		DelayMs:             cfg.RateLimit.DelayMs,
		MaxWait:             time.Duration(cfg.RateLimit.MaxWaitMs) * time.Millisecond,
		ThrottledRequests:   cfg.RateLimit.ThrottledRequests,
		ThrottledPerClient:  cfg.RateLimit.ThrottledPerClient,
		TrackByPortAndIP:    cfg.RateLimit.RemotePort,
		TrustXForwardedFor:  cfg.RateLimit.TrustXFF,
		RetryAfter:          cfg.RateLimit.RetryAfter,
		AddRateLimitHeaders: cfg.RateLimit.AddHeaders,
		Stats:               stats,
		IdleTTL:             cfg.RateLimit.IdleTTL,
	})
	if err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	routes := gateway.NewRouteTable()
	janitors := []gateway.Janitor{limiter}
	pipeline := gateway.Pipeline{Routes: routes, Limiter: limiter, Metrics: metrics}

	if cfg.Auth.DigestEnabled {
		users, err := digestauth.LoadFile(cfg.Auth.CredentialsFile)
		if err != nil {
			return fmt.Errorf("load credentials: %w", err)
		}
		gate, err := digestauth.NewGate(digestauth.Options{
			Realm:       cfg.Auth.Realm,
			Users:       users,
			NonceMaxAge: cfg.Auth.NonceMaxAge,
		})
		if err != nil {
			return fmt.Errorf("digest auth: %w", err)
		}
		pipeline.Auth = gate
		janitors = append(janitors, gate)
		if err := resource.Register(routes, cfg.Auth.Roles...); err != nil {
			return err
		}
		slog.Info("digest auth enabled", "realm", cfg.Auth.Realm, "users", users.Len(), "roles", cfg.Auth.Roles)
	} else if err := resource.Register(routes); err != nil {
		return err
	}

	reqLog := reqlog.New(reqlog.Options{Handler: slog.Default().Handler()})
	defer reqLog.Close()
	pipeline.RequestLog = reqLog

	dispatcher, err := gateway.NewDispatcher(pipeline)
	if err != nil {
		return err
	}

	srv, err := gateway.Start(ctx, gateway.ServerOptions{
		Addr:     cfg.Server.Addr(),
		Handler:  dispatcher,
		Routes:   routes,
		Janitors: janitors,
	})
	if err != nil {
		return fmt.Errorf("start gateway: %w", err)
	}
	slog.Info("gateway ready", "url", srv.URL(), "routes", routes.Len())
	slog.Info("rate",
		"enabled", cfg.RateLimit.Enabled,
		"max_per_sec", cfg.RateLimit.MaxRequestsPerSec,
		"delay_ms", cfg.RateLimit.DelayMs,
		"remote_port", cfg.RateLimit.RemotePort,
		"trust_xff", cfg.RateLimit.TrustXFF,
	)
	slog.Info("rate-stats",
		"enabled", cfg.Stats.Enabled,
		"backend", cfg.Stats.Backend,
		"bucket", cfg.Stats.Bucket,
		"ttl", cfg.Stats.TTL,
		"track_keys", cfg.Stats.TrackKeys,
	)

	servers := []*gateway.Server{srv}
	if cfg.Admin.Addr != "" {
		admin, err := gateway.Start(ctx, gateway.ServerOptions{
			Addr:    cfg.Admin.Addr,
			Handler: gateway.NewAdminRouter(gateway.AdminOptions{
				Stats:       memStats,
				Metrics:     metrics,
				CORSOrigins: cfg.Admin.CORSOrigins,
			}),
		})
		if err != nil {
			_ = srv.Stop(context.Background())
			return fmt.Errorf("start admin: %w", err)
		}
		servers = append(servers, admin)
	}
	if ready != nil {
		ready(servers)
	}

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case <-srv.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	for _, s := range servers {
		if err := s.Stop(shutdownCtx); err != nil {
			slog.Warn("shutdown", "addr", s.Addr().String(), "err", err)
		}
	}
	return srv.Err()
}

// buildStats monta o StatsStore do limiter. O store em memória sempre existe
// quando stats está ligado, para o endpoint /stats do admin.
func buildStats(ctx context.Context, cfg config.StatsConfig) (domain.StatsStore, *infra.MemoryStatsStore, func(), error) {
	noop := func() {}
	if !cfg.Enabled {
		return nil, nil, noop, nil
	}

	mem := infra.NewMemoryStatsStore(infra.WithTrackKeys(cfg.TrackKeys))
	if cfg.Backend != "redis" {
		return mem, mem, noop, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	_, err := rdb.Ping(pingCtx).Result()
	cancel()
	if err != nil {
		_ = rdb.Close()
		return nil, nil, noop, fmt.Errorf("redis stats ping error: %w", err)
	}

	rs := infra.NewRedisStatsStore(
		rdb,
		infra.WithStatsPrefix(cfg.Prefix),
		infra.WithStatsTTL(cfg.TTL),
		infra.WithStatsBucket(cfg.Bucket),
		infra.WithStatsTrackKeys(cfg.TrackKeys),
	)
	return infra.MultiStatsStore{mem, rs}, mem, func() { _ = rdb.Close() }, nil
}
