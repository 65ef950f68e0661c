package repository

import "context"

// ILedger is the durable record of actions already taken by the bot.
// Every write is committed before the call returns.
type ILedger interface {
	IsActivityProcessed(ctx context.Context, activityID int64) (bool, error)
	MarkActivityProcessed(ctx context.Context, activityID int64) error
	HasGivenKudos(ctx context.Context, userID, activityID int64) (bool, error)
	RecordKudosGiven(ctx context.Context, userID, activityID int64) error
}
