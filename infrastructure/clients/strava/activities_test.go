package strava

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"strava-kudos-bot/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMyActivities(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/athlete/activities", r.URL.Path)
		assert.Equal(t, "20", r.URL.Query().Get("per_page"))
		_, _ = w.Write([]byte(`[{"id":1001,"name":"Morning Run"},{"id":1002}]`))
	}))
	defer api.Close()

	client := newTestClient(t, api.URL, "")
	activities, err := client.ListMyActivities(context.Background(), 20)

	require.NoError(t, err)
	require.Equal(t, []model.Activity{{ID: 1001, Name: "Morning Run"}, {ID: 1002}}, activities)
	require.Equal(t, model.UnnamedActivity, activities[1].DisplayName())
}

func TestListActivityKudoers(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/activities/1001/kudos", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":42,"firstname":"Ann","lastname":"Lee"}]`))
	}))
	defer api.Close()

	client := newTestClient(t, api.URL, "")
	athletes, err := client.ListActivityKudoers(context.Background(), 1001)

	require.NoError(t, err)
	require.Len(t, athletes, 1)
	require.Equal(t, int64(42), athletes[0].ID)
	require.Equal(t, "Ann Lee", athletes[0].DisplayName())
}

func TestListAthleteActivities_Forbidden(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/athletes/42/activities", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("per_page"))
		w.WriteHeader(http.StatusForbidden)
	}))
	defer api.Close()

	client := newTestClient(t, api.URL, "")
	activities, err := client.ListAthleteActivities(context.Background(), 42, 2)

	require.Nil(t, activities)
	require.True(t, IsStatus(err, http.StatusForbidden))
}

func TestGiveKudos(t *testing.T) {
	var hits int
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/activities/5001/kudos", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
	}))
	defer api.Close()

	client := newTestClient(t, api.URL, "")
	require.NoError(t, client.GiveKudos(context.Background(), 5001))
	require.Equal(t, 1, hits)
}

func TestGiveKudos_AlreadyGiven(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer api.Close()

	client := newTestClient(t, api.URL, "")
	err := client.GiveKudos(context.Background(), 5001)
	require.True(t, IsStatus(err, http.StatusUnprocessableEntity))
}
