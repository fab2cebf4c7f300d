package main

import (
	"fmt"
	"os"

	"rest-gateway/config"

	"github.com/spf13/cobra"
)

var version = "dev"

var cfg *config.Config

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "gateway",
	Short:   "HTTP request gateway with rate limiting and Digest authentication",
	Long: `gateway serves a small route table behind a fixed pipeline:
request log, per-client rate limit, route lookup, Digest auth, handler.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFile, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(configFile, cmd.Flags())
		if err != nil {
			return err
		}
		cfg = loaded
		setupLogging(cfg)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), cfg, nil)
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.String("config", "", "config file path (default: ./gateway.yaml)")
	f.Int("port", 8080, "HTTP port (env: GATEWAY_SERVER_PORT)")
	f.String("host", "", "bind host (env: GATEWAY_SERVER_HOST)")
	f.Int("rate", 1, "max requests per second per client (env: GATEWAY_RATELIMIT_MAX_REQUESTS_PER_SEC)")
	f.Bool("rate-enabled", true, "enable the rate limiter (env: GATEWAY_RATELIMIT_ENABLED)")
	f.Int("delay-ms", -1, "delay for excess requests, -1 rejects (env: GATEWAY_RATELIMIT_DELAY_MS)")
	f.Bool("remote-port", false, "track clients by ip:port (env: GATEWAY_RATELIMIT_REMOTE_PORT)")
	f.Bool("digest", false, "enable Digest authentication (env: GATEWAY_AUTH_DIGEST_ENABLED)")
	f.String("realm", "myrealm", "Digest realm (env: GATEWAY_AUTH_REALM)")
	f.String("credentials", "myrealm.properties", "credentials file (env: GATEWAY_AUTH_CREDENTIALS_FILE)")
	f.Bool("stats-enabled", false, "record limiter statistics (env: GATEWAY_STATS_ENABLED)")
	f.String("admin-addr", "", "admin listener, empty disables (env: GATEWAY_ADMIN_ADDR)")
	f.Bool("metrics", false, "expose Prometheus metrics on the admin listener (env: GATEWAY_METRICS_ENABLED)")
	f.String("log-level", "info", "log level: debug, info, warn, error (env: GATEWAY_LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
