package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/FocuswithJustin/JuniperHelps/internal/bridge"
	"github.com/FocuswithJustin/JuniperHelps/internal/config"
	"github.com/FocuswithJustin/JuniperHelps/internal/coord"
	"github.com/FocuswithJustin/JuniperHelps/internal/helps"
	"github.com/FocuswithJustin/JuniperHelps/internal/source"
)

// ServeCmd runs the WebSocket bridge with the resolve API alongside it.
type ServeCmd struct {
	Listen string   `help:"Listen address (default: bridge.listen from config)"`
	Origin []string `help:"Allowed WebSocket origins (default: bridge.allowed_origins from config)"`
}

func (c *ServeCmd) Run() error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	addr := c.Listen
	if addr == "" {
		addr = cfg.Bridge.Listen
	}
	origins := c.Origin
	if len(origins) == 0 {
		origins = cfg.Bridge.AllowedOrigins
	}

	src, closer, err := openSource(cfg)
	if err != nil {
		return err
	}
	defer closer()

	bus := coord.NewBus()
	hubConfig := bridge.DefaultConfig()
	hubConfig.AllowedOrigins = origins
	hub := bridge.NewHub(bus, hubConfig)
	server := bridge.NewServer(hub, engineFactory(cfg, src, bus))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Serve(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// engineFactory returns engines for books with a configured original resource.
func engineFactory(cfg *config.Config, src source.Source, bus *coord.Bus) bridge.EngineFunc {
	return func(book string) (*helps.Engine, error) {
		r, ok := cfg.OriginalFor(book)
		if !ok {
			return nil, fmt.Errorf("no original-language resource configured for %s", book)
		}
		return helps.NewEngine(src, bus, helps.Options{
			ResourceKey: r.Key,
			Book:        book,
			Matcher:     matcherOptions(cfg, r.Key, ""),
			Titles:      cfg.Cache.Titles,
		}), nil
	}
}
