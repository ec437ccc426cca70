package main

import (
	"flag"
	"fmt"
	"os"

	"BizDesk/internal/config"
	"BizDesk/internal/console"
)

func main() {
	var configPath string
	var baseURL string
	var dbPath string
	var logDir string
	var debug bool

	flag.StringVar(&configPath, "config", "", "Path to YAML config file (default: search bizdesk.yaml, configs/, /etc/bizdesk/)")
	flag.StringVar(&baseURL, "base-url", "", "Backend base URL (overrides config)")
	flag.StringVar(&dbPath, "db", "", "SQLite session database path (overrides config)")
	flag.StringVar(&logDir, "log-dir", "", "Directory for logs, traces and metrics (overrides config)")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")

	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if logDir != "" {
		cfg.LogDir = logDir
	}
	if debug {
		cfg.Debug = true
	}

	c, err := console.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize console: %v\n", err)
		os.Exit(1)
	}

	if err := c.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
