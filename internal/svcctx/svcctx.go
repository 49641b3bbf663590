// Package svcctx provides service context for dependency injection via
// context. This keeps command wiring free of globals: every consumer
// extracts the services it needs from the context it was handed.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/planscope/sheetdex/internal/defra"
	"github.com/planscope/sheetdex/internal/home"
	"github.com/planscope/sheetdex/internal/render"
	"github.com/planscope/sheetdex/internal/store"
	"github.com/planscope/sheetdex/internal/vision"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	DefraClient *defra.Client
	Store       store.Store
	Renderer    *render.Service
	Vision      *vision.Client
	Logger      *slog.Logger
	Home        *home.Dir
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// DefraClientFrom extracts the DefraDB client from context.
func DefraClientFrom(ctx context.Context) *defra.Client {
	if s := ServicesFrom(ctx); s != nil {
		return s.DefraClient
	}
	return nil
}

// StoreFrom extracts the sheet store from context.
func StoreFrom(ctx context.Context) store.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.Store
	}
	return nil
}

// RendererFrom extracts the page renderer from context.
func RendererFrom(ctx context.Context) *render.Service {
	if s := ServicesFrom(ctx); s != nil {
		return s.Renderer
	}
	return nil
}

// VisionFrom extracts the vision client from context.
// Nil when no vision API key is configured.
func VisionFrom(ctx context.Context) *vision.Client {
	if s := ServicesFrom(ctx); s != nil {
		return s.Vision
	}
	return nil
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil {
		return s.Logger
	}
	return nil
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}
