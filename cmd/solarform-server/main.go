package main

import (
	"fmt"
	"log"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/chazu/solarform/internal/httpapi"
	"github.com/chazu/solarform/pkg/config"
	"github.com/chazu/solarform/pkg/editor"
	"github.com/chazu/solarform/pkg/manip"
)

// ============================================================
// Headless Editor Service
// ============================================================

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// run returns instead of exiting so deferred cleanup always happens.
func run(args []string) error {
	cfg := config.Load()
	logger := cfg.Logger()
	manip.SetLogger(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ed := editor.New(cfg, editor.WithRegistry(reg), editor.WithLogger(logger))
	defer ed.Close()

	// An optional scene script to start from.
	if len(args) > 0 {
		if err := loadScene(ed, args[0]); err != nil {
			return err
		}
	}

	app := httpapi.New(ed, httpapi.Options{Gatherer: reg, AccessLog: true})

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting Solarform server on %s", addr)
	return app.Listen(addr)
}

func loadScene(ed *editor.Editor, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read scene: %w", err)
	}
	res := ed.Evaluate(string(src))
	for _, e := range res.Errors {
		log.Printf("scene error: %s", e.Error())
	}
	if len(res.Errors) > 0 {
		return fmt.Errorf("load scene %s: %w", path, res.Errors[0])
	}
	return nil
}
