package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rmuhamedgaliev/arcana/internal/app"
	"github.com/rmuhamedgaliev/arcana/internal/config"
	"github.com/rmuhamedgaliev/arcana/internal/player"
)

// testConfig returns a minimal config for tests. The games directory
// is never read because tests inject a catalog.
func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			ListenAddr: "127.0.0.1:0",
			LogLevel:   config.LogInfo,
		},
		Games: config.GamesConfig{
			Dir: "testdata/games",
		},
	}
}

func TestNew_WithInjectedSubsystems(t *testing.T) {
	t.Parallel()

	application, err := app.New(context.Background(), testConfig(),
		app.WithCatalog(shortGame(t)),
		app.WithStore(player.NewMemStore()),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if application.Sessions() == nil {
		t.Error("Sessions() = nil")
	}
	if application.Catalog() == nil || application.Catalog().Len() != 1 {
		t.Error("catalog not wired")
	}
	if application.Store() == nil {
		t.Error("Store() = nil")
	}
}

func TestNew_MissingGamesDir(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Games.Dir = "testdata/does-not-exist"

	_, err := app.New(context.Background(), cfg, app.WithStore(player.NewMemStore()))
	if err == nil {
		t.Fatal("New succeeded with a missing games directory")
	}
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	t.Parallel()

	application, err := app.New(context.Background(), testConfig(),
		app.WithCatalog(shortGame(t)),
		app.WithStore(player.NewMemStore()),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- application.Run(ctx) }()

	// Give the server a moment to bind, then stop it.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run = %v, want context.Canceled", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run never returned after cancel")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := application.Shutdown(shutdownCtx); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}

func TestApp_ShutdownIsIdempotent(t *testing.T) {
	t.Parallel()

	application, err := app.New(context.Background(), testConfig(),
		app.WithCatalog(shortGame(t)),
		app.WithStore(player.NewMemStore()),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := context.Background()
	if err := application.Shutdown(ctx); err != nil {
		t.Fatalf("first Shutdown: %v", err)
	}
	if err := application.Shutdown(ctx); err != nil {
		t.Fatalf("second Shutdown: %v", err)
	}
}
