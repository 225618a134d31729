// Package cmd wires the server together and runs it.
package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/DeibyRamirez/Backend-BatallaCartas/internal/auth"
	"github.com/DeibyRamirez/Backend-BatallaCartas/internal/cache"
	"github.com/DeibyRamirez/Backend-BatallaCartas/internal/config"
	"github.com/DeibyRamirez/Backend-BatallaCartas/internal/database"
	"github.com/DeibyRamirez/Backend-BatallaCartas/internal/game"
	"github.com/DeibyRamirez/Backend-BatallaCartas/internal/handlers"
	"github.com/DeibyRamirez/Backend-BatallaCartas/internal/ws"
)

var rootCmd = &cobra.Command{
	Use:   "batalla-cartas",
	Short: "Card battle match server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(lvl)
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	ctx := signalContext(context.Background())

	auth.Init(cfg.JWTSecret)

	if err := database.Connect(ctx, cfg.DatabaseURL); err != nil {
		return err
	}
	defer database.Close()
	if err := database.CreateTables(ctx); err != nil {
		return err
	}

	if err := cache.Connect(ctx, cfg.RedisURL); err != nil {
		// The journal is an audit trail; the server can run without it.
		logrus.WithError(err).Warn("redis unavailable, match journaling disabled")
	}
	defer cache.Close()

	cards := database.NewCardStore()
	players := database.NewPlayerStore()
	matches := database.NewMatchStore()
	manager := game.NewManager(cards, players, matches)

	mux := http.NewServeMux()
	api := &handlers.API{
		Cards:   cards,
		Players: players,
		Matches: matches,
		Manager: manager,
	}
	api.Register(mux)
	mux.Handle("GET /ws", ws.NewHub(manager))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("port", cfg.Port).Info("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logrus.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// signalContext cancels the returned context on SIGINT or SIGTERM.
func signalContext(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		signal.Stop(ch)
		cancel()
	}()
	return ctx
}
