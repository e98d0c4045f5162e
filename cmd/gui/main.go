package main

import (
	"os"

	"github.com/NicolasHaas/goteller/pkg/logging"
	"github.com/NicolasHaas/goteller/ui"
)

func main() {
	// Default to "info"; override with GOTELLER_LOG_LEVEL env var (debug, info, warn, error).
	level := "info"
	if v := os.Getenv("GOTELLER_LOG_LEVEL"); v != "" {
		level = v
	}
	format := "text"
	if v := os.Getenv("GOTELLER_LOG_FORMAT"); v != "" {
		format = v
	}
	_ = logging.Setup(logging.Options{
		Level:  level,
		Format: format,
		Output: os.Stdout,
	})

	app := ui.NewApp()
	app.Run()
}
