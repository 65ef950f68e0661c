package strava

import (
	"context"
	"fmt"
	"net/http"

	"strava-kudos-bot/domain/dto"
	"strava-kudos-bot/domain/model"

	"github.com/google/go-querystring/query"
)

func (c *Client) endpoint(path string, params interface{}) (string, error) {
	url := c.baseURL + path
	if params == nil {
		return url, nil
	}
	values, err := query.Values(params)
	if err != nil {
		return "", fmt.Errorf("encoding query for %s: %w", path, err)
	}
	if encoded := values.Encode(); encoded != "" {
		url += "?" + encoded
	}
	return url, nil
}

// ListMyActivities returns the authenticated athlete's most recent activities
func (c *Client) ListMyActivities(ctx context.Context, perPage int) ([]model.Activity, error) {
	url, err := c.endpoint("/athlete/activities", dto.ActivityListRequest{PerPage: perPage})
	if err != nil {
		return nil, err
	}
	var activities []model.Activity
	if err := c.requestInto(ctx, http.MethodGet, url, nil, &activities); err != nil {
		return nil, fmt.Errorf("failed to list athlete activities: %w", err)
	}
	return activities, nil
}

// ListActivityKudoers returns the athletes who gave kudos to an activity
func (c *Client) ListActivityKudoers(ctx context.Context, activityID int64) ([]model.Athlete, error) {
	url, err := c.endpoint(fmt.Sprintf("/activities/%d/kudos", activityID), nil)
	if err != nil {
		return nil, err
	}
	var athletes []model.Athlete
	if err := c.requestInto(ctx, http.MethodGet, url, nil, &athletes); err != nil {
		return nil, fmt.Errorf("failed to list kudoers of activity %d: %w", activityID, err)
	}
	return athletes, nil
}

// ListAthleteActivities returns another athlete's most recent activities
func (c *Client) ListAthleteActivities(ctx context.Context, athleteID int64, perPage int) ([]model.Activity, error) {
	url, err := c.endpoint(fmt.Sprintf("/athletes/%d/activities", athleteID), dto.ActivityListRequest{PerPage: perPage})
	if err != nil {
		return nil, err
	}
	var activities []model.Activity
	if err := c.requestInto(ctx, http.MethodGet, url, nil, &activities); err != nil {
		return nil, fmt.Errorf("failed to list activities of athlete %d: %w", athleteID, err)
	}
	return activities, nil
}

func (c *Client) GiveKudos(ctx context.Context, activityID int64) error {
	url, err := c.endpoint(fmt.Sprintf("/activities/%d/kudos", activityID), nil)
	if err != nil {
		return err
	}
	if err := c.requestInto(ctx, http.MethodPost, url, nil, nil); err != nil {
		return fmt.Errorf("failed to give kudos to activity %d: %w", activityID, err)
	}
	return nil
}
