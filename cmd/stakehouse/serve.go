package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"StakeHouse/internal/api"
	"StakeHouse/internal/clock"
	"StakeHouse/internal/commands"
	"StakeHouse/internal/config"
	"StakeHouse/internal/notifier"
	"StakeHouse/internal/scheduler"
	"StakeHouse/internal/storage"
	"StakeHouse/internal/store"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler, chat commands and HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}
}

func serve(cfg *config.Config) error {
	log.Println("[INFO] StakeHouse starting...")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	persister, err := storage.Open(cfg.Storage.Driver, cfg.Storage.SQLitePath, cfg.Storage.StateFile)
	if err != nil {
		return err
	}
	log.Printf("[INFO] storage driver: %s", cfg.Storage.Driver)

	var (
		notifiers    notifier.Multi
		broadcasters notifier.Broadcasters
		tn           *notifier.TelegramNotifier
	)
	if cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		tn.Ctx = ctx
		notifiers = append(notifiers, tn)
		broadcasters = append(broadcasters, tn)
	}
	if cfg.NATS.URL != "" {
		nn, err := notifier.NewNATSNotifier(cfg.NATS.URL, cfg.NATS.SubjectPrefix)
		if err != nil {
			log.Printf("[WARN] nats disabled: %v", err)
		} else {
			defer nn.Close()
			notifiers = append(notifiers, nn)
			broadcasters = append(broadcasters, nn)
		}
	}
	if len(notifiers) == 0 {
		log.Println("[WARN] no delivery channel configured, notifications go to the log")
		notifiers = append(notifiers, notifier.LogNotifier{})
		broadcasters = append(broadcasters, notifier.LogNotifier{})
	}

	st, err := store.New(persister, notifiers, clock.Real{})
	if err != nil {
		persister.Close()
		return err
	}
	defer st.Close()

	sched := scheduler.NewScheduler(ctx, st, broadcasters, clock.Real{}, cfg.Household.ListID)
	if err := sched.RegisterAll(cfg.Schedule.TickCron, cfg.Schedule.MonthlyReportCron); err != nil {
		return err
	}
	// Catch up on whatever came due while the process was down.
	if _, err := sched.Tick(); err != nil {
		log.Printf("[WARN] startup tick: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	g, gctx := errgroup.WithContext(ctx)

	if tn != nil {
		handler := commands.NewHandler(st, cfg.Household.ListID)
		g.Go(func() error {
			tn.StartPolling(gctx, handler.Handle)
			return nil
		})
		log.Println("[INFO] Telegram polling started")
	}

	if cfg.HTTP.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           api.NewRouter(&api.Handlers{Store: st}),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			log.Printf("[INFO] HTTP API listening on %s", cfg.HTTP.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	log.Println("[INFO] StakeHouse is running. Press Ctrl+C to stop.")
	err = g.Wait()
	log.Println("[INFO] StakeHouse stopped")
	return err
}
