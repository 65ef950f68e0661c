package usecase_test

import (
	"context"

	"strava-kudos-bot/domain/model"

	"github.com/stretchr/testify/mock"
)

type MockStrava struct {
	mock.Mock
}

func (m *MockStrava) ListMyActivities(ctx context.Context, perPage int) ([]model.Activity, error) {
	args := m.Called(ctx, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Activity), args.Error(1)
}

func (m *MockStrava) ListActivityKudoers(ctx context.Context, activityID int64) ([]model.Athlete, error) {
	args := m.Called(ctx, activityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Athlete), args.Error(1)
}

func (m *MockStrava) ListAthleteActivities(ctx context.Context, athleteID int64, perPage int) ([]model.Activity, error) {
	args := m.Called(ctx, athleteID, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Activity), args.Error(1)
}

func (m *MockStrava) GiveKudos(ctx context.Context, activityID int64) error {
	args := m.Called(ctx, activityID)
	return args.Error(0)
}

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) IsActivityProcessed(ctx context.Context, activityID int64) (bool, error) {
	args := m.Called(ctx, activityID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedger) MarkActivityProcessed(ctx context.Context, activityID int64) error {
	args := m.Called(ctx, activityID)
	return args.Error(0)
}

func (m *MockLedger) HasGivenKudos(ctx context.Context, userID, activityID int64) (bool, error) {
	args := m.Called(ctx, userID, activityID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedger) RecordKudosGiven(ctx context.Context, userID, activityID int64) error {
	args := m.Called(ctx, userID, activityID)
	return args.Error(0)
}
