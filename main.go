package main

import (
	"embed"
	"log"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"github.com/chazu/solarform/pkg/config"
	"github.com/chazu/solarform/pkg/editor"
	"github.com/chazu/solarform/pkg/manip"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	cfg := config.Load()
	logger := cfg.Logger()
	manip.SetLogger(logger)

	app := NewAppWithEditor(editor.New(cfg, editor.WithLogger(logger)))

	err := wails.Run(&options.App{
		Title:  "Solarform",
		Width:  1280,
		Height: 800,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		OnStartup:  app.startup,
		OnShutdown: app.shutdown,
		Bind: []interface{}{
			app,
		},
	})
	if err != nil {
		log.Fatalf("wails: %v", err)
	}
}
