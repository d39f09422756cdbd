package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // subscriber timezones must resolve inside slim containers

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tsamuels62019/myanchor-daily-digest/config"
	"github.com/tsamuels62019/myanchor-daily-digest/controllers"
	"github.com/tsamuels62019/myanchor-daily-digest/logger"
	"github.com/tsamuels62019/myanchor-daily-digest/messaging"
	"github.com/tsamuels62019/myanchor-daily-digest/models"
	"github.com/tsamuels62019/myanchor-daily-digest/routes"
	"github.com/tsamuels62019/myanchor-daily-digest/services"
	"github.com/tsamuels62019/myanchor-daily-digest/store"
)

func main() {
	serve := flag.Bool("serve", false, "run the built-in scheduler and ops API instead of a single digest pass")
	flag.Parse()

	// Load environment variables
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogJSON)
	if envErr != nil {
		log.Debug().Msg("No .env file found")
	}

	db, err := config.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Error().Err(err).Msg("Failed to connect database")
		os.Exit(1)
	}
	if err := db.AutoMigrate(
		&models.Subscriber{},
		&models.DigestRecord{},
		&models.RunSummary{},
	); err != nil {
		log.Error().Err(err).Msg("Failed to migrate database")
		os.Exit(1)
	}

	st := store.New(db)
	sender := messaging.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)
	svc := services.NewDigestService(st, sender, services.Config{
		Window:      cfg.Window,
		MessageBody: cfg.MessageBody,
		ForceSend:   cfg.ForceSend,
		OnlyEmail:   cfg.OnlyEmail,
	}, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *serve {
		if err := runServe(ctx, cfg, svc, st, db, log); err != nil {
			log.Error().Err(err).Msg("Serve mode failed")
			os.Exit(1)
		}
		return
	}

	// Default mode: one pass, then exit. The external scheduler owns the
	// cadence. Per-subscriber failures are inside the summary and do not
	// change the exit code; only a failed subscriber query is fatal.
	if _, err := svc.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Digest run failed")
		os.Exit(1)
	}
}

func runServe(ctx context.Context, cfg config.Config, svc *services.DigestService, st *store.GormStore, db *gorm.DB, log zerolog.Logger) error {
	c, err := svc.StartScheduler(cfg.Schedule)
	if err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	dc := &controllers.DigestController{Runner: svc, Runs: st, DB: db}
	r := routes.SetupRouter(dc, log, cfg.OpsToken)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	log.Info().Str("port", cfg.Port).Msg("Ops API listening")

	select {
	case err := <-errCh:
		<-c.Stop().Done()
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	<-c.Stop().Done() // let an in-flight run finish

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
