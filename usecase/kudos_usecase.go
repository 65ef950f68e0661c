package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"strava-kudos-bot/domain/model"
	"strava-kudos-bot/domain/repository"
	"strava-kudos-bot/infrastructure/clients/strava"
	"strava-kudos-bot/infrastructure/logger"
	"strava-kudos-bot/infrastructure/utils"

	"github.com/google/uuid"
)

// ErrCyclePanic wraps a panic recovered from inside a pass
var ErrCyclePanic = errors.New("unexpected error in kudos cycle")

type KudosConfig struct {
	OwnActivities      int
	EndorserActivities int
	Delay              time.Duration
	PollInterval       time.Duration
	ErrorRetryDelay    time.Duration
	RunOnce            bool
}

// CycleSummary counts what a single pass did
type CycleSummary struct {
	CycleID           string `json:"cycleId"`
	ActivitiesChecked int    `json:"activitiesChecked"`
	KudosReceived     int    `json:"kudosReceived"`
	KudosReturned     int    `json:"kudosReturned"`
	AlreadyGiven      int    `json:"alreadyGiven"`
}

type IKudosUsecase interface {
	RunCycle(ctx context.Context) (CycleSummary, error)
	Run(ctx context.Context) error
}

type kudosUsecase struct {
	strava repository.IStrava
	ledger repository.ILedger
	config KudosConfig
}

func NewKudosUsecase(stravaRepo repository.IStrava, ledger repository.ILedger, config KudosConfig) IKudosUsecase {
	if config.OwnActivities <= 0 {
		config.OwnActivities = 20
	}
	if config.EndorserActivities <= 0 {
		config.EndorserActivities = 2
	}
	if config.Delay < 0 {
		config.Delay = 0
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 10 * time.Minute
	}
	if config.ErrorRetryDelay <= 0 {
		config.ErrorRetryDelay = time.Minute
	}
	return &kudosUsecase{strava: stravaRepo, ledger: ledger, config: config}
}

func (u *kudosUsecase) RunCycle(ctx context.Context) (CycleSummary, error) {
	summary := CycleSummary{CycleID: uuid.NewString()}
	log := logger.GetLogger().WithField("cycleId", summary.CycleID)
	log.Info("Starting auto-kudos cycle")

	activities, err := u.strava.ListMyActivities(ctx, u.config.OwnActivities)
	if err != nil {
		return summary, err
	}
	log.WithField("count", len(activities)).Info("Found recent activities")

	for _, activity := range activities {
		processed, err := u.ledger.IsActivityProcessed(ctx, activity.ID)
		if err != nil {
			return summary, err
		}
		if processed {
			continue
		}
		summary.ActivitiesChecked++

		log.WithFields(map[string]interface{}{
			"activityId": activity.ID,
			"name":       activity.DisplayName(),
		}).Info("Checking kudos for activity")

		kudoers, err := u.strava.ListActivityKudoers(ctx, activity.ID)
		if err != nil {
			return summary, err
		}
		for _, athlete := range kudoers {
			summary.KudosReceived++
			if err := u.reciprocate(ctx, athlete, &summary); err != nil {
				return summary, err
			}
		}

		if err := u.ledger.MarkActivityProcessed(ctx, activity.ID); err != nil {
			return summary, err
		}
	}

	log.WithFields(map[string]interface{}{
		"activitiesChecked": summary.ActivitiesChecked,
		"newKudos":          summary.KudosReceived,
		"returnedKudos":     summary.KudosReturned,
		"alreadyGiven":      summary.AlreadyGiven,
	}).Info("Cycle complete")
	return summary, nil
}

// reciprocate gives kudos to the endorser's most recent activities
func (u *kudosUsecase) reciprocate(ctx context.Context, athlete model.Athlete, summary *CycleSummary) error {
	log := logger.GetLogger().WithFields(map[string]interface{}{
		"cycleId":   summary.CycleID,
		"athleteId": athlete.ID,
		"athlete":   athlete.DisplayName(),
	})
	log.Info("Processing kudos from athlete")

	activities, err := u.strava.ListAthleteActivities(ctx, athlete.ID, u.config.EndorserActivities)
	if err != nil {
		if !strava.IsStatus(err, http.StatusForbidden) {
			return err
		}
		log.Warn("Cannot access activities for athlete (private profile)")
		activities = nil
	}

	for _, activity := range activities {
		given, err := u.ledger.HasGivenKudos(ctx, athlete.ID, activity.ID)
		if err != nil {
			return err
		}
		if given {
			continue
		}

		activityLog := log.WithFields(map[string]interface{}{
			"activityId": activity.ID,
			"name":       activity.DisplayName(),
		})
		if err := u.strava.GiveKudos(ctx, activity.ID); err != nil {
			switch {
			case ctx.Err() != nil:
				return ctx.Err()
			case strava.IsStatus(err, http.StatusUnprocessableEntity):
				summary.AlreadyGiven++
				activityLog.Info("Kudos already given to activity")
			default:
				activityLog.WithField("error", err.Error()).Error("Could not give kudos to activity")
			}
			continue
		}

		if err := u.ledger.RecordKudosGiven(ctx, athlete.ID, activity.ID); err != nil {
			return err
		}
		summary.KudosReturned++
		activityLog.Info("Gave kudos to athlete's activity")

		if err := utils.Sleep(ctx, u.config.Delay); err != nil {
			return err
		}
	}
	return nil
}

func (u *kudosUsecase) Run(ctx context.Context) error {
	logger.GetLogger().WithFields(map[string]interface{}{
		"interval": u.config.PollInterval.String(),
		"runOnce":  u.config.RunOnce,
	}).Info("Starting Strava auto-kudos bot")

	for {
		wait := u.config.PollInterval
		_, err := u.safeCycle(ctx)
		if ctx.Err() != nil {
			logger.GetLogger().Info("Bot stopped")
			if u.config.RunOnce {
				return ctx.Err()
			}
			return nil
		}
		if err != nil {
			if u.config.RunOnce {
				return err
			}
			if errors.Is(err, ErrCyclePanic) {
				logger.GetLogger().WithField("error", err.Error()).Error("Unexpected error, continuing after error")
				wait = u.config.ErrorRetryDelay
			} else {
				logger.GetLogger().WithField("error", err.Error()).Error("Error in auto-kudos cycle")
			}
		}
		if u.config.RunOnce {
			return nil
		}

		logger.GetLogger().WithField("sleep", wait.String()).Info("Sleeping until next cycle")
		if err := utils.Sleep(ctx, wait); err != nil {
			logger.GetLogger().Info("Bot stopped")
			return nil
		}
	}
}

func (u *kudosUsecase) safeCycle(ctx context.Context) (summary CycleSummary, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrCyclePanic, r)
		}
	}()
	return u.RunCycle(ctx)
}
