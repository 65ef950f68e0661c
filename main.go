package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"strava-kudos-bot/domain/model"
	"strava-kudos-bot/infrastructure/clients/strava"
	"strava-kudos-bot/infrastructure/configuration"
	"strava-kudos-bot/infrastructure/logger"
	"strava-kudos-bot/infrastructure/persistence"
	"strava-kudos-bot/usecase"

	"github.com/common-nighthawk/go-figure"
	"golang.org/x/sync/errgroup"
)

const appname = "kudos bot"

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
		os.Exit(2)
	}
}

func main() {
	defer recoverPanic()

	cfg, err := configuration.LoadConfig()
	if err != nil {
		logger.GetLogger().WithField("error", err.Error()).Error("Failed to load configuration")
		os.Exit(1)
	}
	logger.Configure(cfg.Logger.Format, cfg.Logger.Level)
	if cfg.Logger.Format == "text" {
		displayAppname(appname)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	db, ledger, err := persistence.NewLedger(ctx, cfg.Ledger)
	if err != nil {
		logger.GetLogger().WithField("error", err.Error()).Error("Cannot open the ledger")
		os.Exit(1)
	}

	credentials := model.NewCredentials(
		cfg.Strava.ClientID,
		cfg.Strava.ClientSecret,
		cfg.Strava.AccessToken,
		cfg.Strava.RefreshToken,
	)
	stravaClient, err := strava.NewStravaClient(&strava.Config{
		BaseURL:       cfg.Strava.BaseURL,
		TokenURL:      cfg.Strava.TokenURL,
		MaxRetries:    cfg.Strava.MaxRetries,
		RetryInterval: cfg.Strava.RetryInterval,
		RateLimitWait: cfg.Strava.RateLimitWait,
		Timeout:       cfg.Strava.Timeout,
	}, credentials)
	if err != nil {
		_ = db.Close()
		logger.GetLogger().WithField("error", err.Error()).Error("Cannot create the Strava client")
		os.Exit(1)
	}

	kudosUsecase := usecase.NewKudosUsecase(stravaClient, ledger, usecase.KudosConfig{
		OwnActivities:      cfg.Kudos.OwnActivities,
		EndorserActivities: cfg.Kudos.EndorserActivities,
		Delay:              cfg.Kudos.Delay,
		PollInterval:       cfg.Kudos.PollInterval,
		ErrorRetryDelay:    cfg.Kudos.ErrorRetryDelay,
		RunOnce:            cfg.Kudos.RunOnce,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return kudosUsecase.Run(gctx)
	})
	g.Go(func() error {
		select {
		case sig := <-interrupt:
			logger.GetLogger().WithField("signal", sig.String()).Info("Bot stopped by user")
			cancel()
		case <-gctx.Done():
		}
		return nil
	})

	err = g.Wait()
	if closeErr := db.Close(); closeErr != nil {
		logger.GetLogger().WithField("error", closeErr.Error()).Warn("Closing the ledger failed")
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.GetLogger().WithField("error", err.Error()).Error("Bot returned an error")
		os.Exit(2)
	}
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
