// feedprobe connects to the push channel and prints parsed sandwich
// events to the console.
// Usage: go run ./cmd/feedprobe --config configs/monitor.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/avenz/sandwich-monitor/internal/config"
	"github.com/avenz/sandwich-monitor/internal/model"
)

func main() {
	configPath := flag.String("config", "configs/monitor.yaml", "path to config file")
	raw := flag.Bool("raw", false, "print raw frames instead of parsed events")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	dialer := websocket.Dialer{HandshakeTimeout: cfg.Feed.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, cfg.Feed.PrimaryURL, nil)
	if err != nil {
		logger.Error("dial failed", "url", cfg.Feed.PrimaryURL, "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	logger.Info("connected", "url", cfg.Feed.PrimaryURL)

	go func() {
		<-ctx.Done()
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("read failed", "error", err)
			os.Exit(1)
		}

		if *raw {
			fmt.Println(string(data))
			continue
		}

		ev, err := model.ParseFeedMessage(data)
		if err != nil {
			logger.Debug("skipping frame", "error", err)
			continue
		}
		fmt.Printf("slot=%d mint=%s symbol=%s sol=%+.4f ts=%s\n",
			ev.Slot, ev.Mint, ev.Symbol, ev.SolChange,
			time.Unix(ev.Timestamp, 0).UTC().Format(time.RFC3339),
		)
	}
}
