package repository

import (
	"context"

	"strava-kudos-bot/domain/model"
)

// IStrava defines the Strava API operations the kudos cycle relies on
type IStrava interface {
	ListMyActivities(ctx context.Context, perPage int) ([]model.Activity, error)
	ListActivityKudoers(ctx context.Context, activityID int64) ([]model.Athlete, error)
	// ListAthleteActivities may fail with HTTP 403 for private profiles.
	ListAthleteActivities(ctx context.Context, athleteID int64, perPage int) ([]model.Activity, error)
	// GiveKudos fails with HTTP 422 when kudos were already given.
	GiveKudos(ctx context.Context, activityID int64) error
}
