// Package config assembles the runtime configuration of the daemon from CLI
// flags, environment variables, an optional .env file and defaults, in that
// order of precedence.
package config

import (
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration options for the daemon.
type Config struct {
	// Addr is the listen address of the proxy server.
	Addr string
	// ReloadAddr is the listen address of the reload WebSocket server.
	ReloadAddr string
	// ProxyTarget is the backend host:port every request is forwarded to.
	ProxyTarget string
	// AutoReload enables script injection and the reload channel.
	AutoReload bool
	// TaskFile is the path of the YAML task definitions.
	TaskFile string
	// BaseDir is the base working directory for operations; defaults to the
	// directory containing the task file.
	BaseDir string
	// NotifyURL, when set, receives a webhook POST for every failed task.
	NotifyURL string
	// MetricsEnabled exposes /metrics on the reload listener.
	MetricsEnabled bool

	LogLevel      string
	ShutdownGrace time.Duration
}

const (
	defaultAddr          = "127.0.0.1:8030"
	defaultReloadAddr    = "127.0.0.1:8031"
	defaultTaskFile      = "watchboi.yaml"
	defaultLogLevel      = "info"
	defaultShutdownGrace = 5 * time.Second
)

// getEnvString returns the environment variable value or default
func getEnvString(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvBool returns the environment variable as bool or default
func getEnvBool(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		lower := strings.ToLower(val)
		return lower == "true" || lower == "1" || lower == "yes"
	}
	return defaultVal
}

// getEnvDuration returns the environment variable as duration or default
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// Parse parses command line flags and environment variables into Config.
// Priority: CLI flags > Environment variables > .env file > defaults.
func Parse() (*Config, error) {
	return parse(flag.CommandLine, os.Args[1:])
}

func parse(fs *flag.FlagSet, args []string) (*Config, error) {
	// Load .env file if present; it is optional.
	_ = godotenv.Load(".env")

	cfg := &Config{
		Addr:           getEnvString("WATCHBOI_ADDR", defaultAddr),
		ReloadAddr:     getEnvString("WATCHBOI_RELOAD_ADDR", defaultReloadAddr),
		ProxyTarget:    getEnvString("WATCHBOI_PROXY", ""),
		AutoReload:     getEnvBool("WATCHBOI_AUTO_RELOAD", true),
		TaskFile:       getEnvString("WATCHBOI_TASKS", defaultTaskFile),
		BaseDir:        getEnvString("WATCHBOI_BASE_DIR", ""),
		NotifyURL:      getEnvString("WATCHBOI_NOTIFY_URL", ""),
		MetricsEnabled: getEnvBool("WATCHBOI_METRICS", false),
		LogLevel:       getEnvString("WATCHBOI_LOG_LEVEL", defaultLogLevel),
		ShutdownGrace:  getEnvDuration("WATCHBOI_SHUTDOWN_GRACE", defaultShutdownGrace),
	}

	var (
		addr          string
		reloadAddr    string
		proxyTarget   string
		taskFile      string
		baseDir       string
		notifyURL     string
		logLevel      string
		autoReload    bool
		metricsOn     bool
		shutdownGrace time.Duration
	)

	fs.StringVar(&addr, "addr", "", "Proxy listen address (overrides env)")
	fs.StringVar(&reloadAddr, "reload-addr", "", "Reload server listen address")
	fs.StringVar(&proxyTarget, "proxy", "", "Backend host:port to forward requests to")
	fs.StringVar(&taskFile, "tasks", "", "Path to the YAML task file")
	fs.StringVar(&baseDir, "base-dir", "", "Base working directory for operations")
	fs.StringVar(&notifyURL, "notify-url", "", "Webhook URL notified about failed tasks")
	fs.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.BoolVar(&autoReload, "auto-reload", true, "Inject the reload script into HTML responses")
	fs.BoolVar(&metricsOn, "metrics", false, "Expose Prometheus metrics on the reload listener")
	fs.DurationVar(&shutdownGrace, "shutdown-grace", 0, "Grace period when shutting down")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if addr != "" {
		cfg.Addr = addr
	}
	if reloadAddr != "" {
		cfg.ReloadAddr = reloadAddr
	}
	if proxyTarget != "" {
		cfg.ProxyTarget = proxyTarget
	}
	if taskFile != "" {
		cfg.TaskFile = taskFile
	}
	if baseDir != "" {
		cfg.BaseDir = baseDir
	}
	if notifyURL != "" {
		cfg.NotifyURL = notifyURL
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if shutdownGrace > 0 {
		cfg.ShutdownGrace = shutdownGrace
	}
	// Bool flags only override when explicitly set on the command line.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "auto-reload":
			cfg.AutoReload = autoReload
		case "metrics":
			cfg.MetricsEnabled = metricsOn
		}
	})

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.BaseDir == "" {
		dir, err := filepath.Abs(filepath.Dir(cfg.TaskFile))
		if err != nil {
			return nil, fmt.Errorf("resolve base dir: %w", err)
		}
		cfg.BaseDir = dir
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.ProxyTarget == "" {
		return fmt.Errorf("no proxy target configured (set -proxy or WATCHBOI_PROXY)")
	}
	if _, _, err := net.SplitHostPort(c.ProxyTarget); err != nil {
		return fmt.Errorf("invalid proxy target '%s': %w", c.ProxyTarget, err)
	}
	if _, err := c.ReloadPort(); err != nil {
		return err
	}
	return nil
}

// ReloadPort returns the port of the reload listen address. The injected
// client script connects to this port.
func (c *Config) ReloadPort() (int, error) {
	_, portStr, err := net.SplitHostPort(c.ReloadAddr)
	if err != nil {
		return 0, fmt.Errorf("invalid reload address '%s': %w", c.ReloadAddr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("invalid reload port '%s': %w", portStr, err)
	}
	return port, nil
}
