package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/chazu/solarform/pkg/config"
	"github.com/chazu/solarform/pkg/editor"
)

func newEditor(t *testing.T) *editor.Editor {
	t.Helper()
	cfg := config.Default()
	cfg.MeshCells = 16
	ed := editor.New(cfg,
		editor.WithRegistry(prometheus.NewRegistry()),
		editor.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	t.Cleanup(ed.Close)
	return ed
}

func TestLoadScene(t *testing.T) {
	dir := t.TempDir()
	write := func(name, src string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}

	tests := []struct {
		name    string
		path    string
		wantErr string
		wantN   int
	}{
		{"good scene", write("good.zy", `(foundation :id "f" :size (vec3 10 10 0.2))`), "", 1},
		{"missing file", filepath.Join(dir, "absent.zy"), "read scene", 0},
		{"script error", write("bad.zy", `(foundation :id`), "load scene", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ed := newEditor(t)
			err := loadScene(ed, tt.path)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("loadScene: %v", err)
				}
			} else if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want %q", err, tt.wantErr)
			}
			if n := len(ed.Elements()); n != tt.wantN {
				t.Errorf("elements = %d, want %d", n, tt.wantN)
			}
		})
	}
}
