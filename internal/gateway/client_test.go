package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSchedule(t *testing.T) {
	var gotAuth string
	var gotReq CreateScheduleRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/schedules", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(CreateScheduleResponse{ScheduleID: "sched-1", DispatchID: "disp-1"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret-token", time.Second)
	resp, err := c.CreateSchedule(context.Background(), CreateScheduleRequest{
		Audience: Audience{Attribute: "favorite_team", Teams: []string{"arsenal"}},
		SendAt:   time.Now().UTC(),
		Payload:  Payload{FixtureID: "fx-1", HomeName: "Arsenal"},
	})
	require.NoError(t, err)

	assert.Equal(t, "sched-1", resp.ScheduleID)
	assert.Equal(t, "disp-1", resp.DispatchID)
	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, []string{"arsenal"}, gotReq.Audience.Teams)
}

func TestCreateScheduleRejectsEmptyID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(CreateScheduleResponse{})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "t", time.Second).CreateSchedule(context.Background(), CreateScheduleRequest{})
	assert.Error(t, err)
}

func TestCancelScheduleRoutesByType(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		paths = append(paths, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "t", time.Second)
	require.NoError(t, c.CancelSchedule(context.Background(), "b-1", TypeBroadcast))
	require.NoError(t, c.CancelSchedule(context.Background(), "f-1", TypeFlow))

	assert.Equal(t, []string{"/v1/schedules/b-1", "/v1/flows/f-1/schedule"}, paths)
}

func TestCancelScheduleTreats404AsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "t", time.Second).CancelSchedule(context.Background(), "gone", TypeBroadcast)
	assert.NoError(t, err)
}

func TestCancelSchedulePropagatesServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "t", time.Second).CancelSchedule(context.Background(), "s-1", TypeBroadcast)
	assert.Error(t, err)
}

func TestListUpcomingSchedules(t *testing.T) {
	until := time.Date(2026, 9, 8, 12, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/schedules", r.URL.Path)
		require.Equal(t, until.Format(time.RFC3339), r.URL.Query().Get("until"))
		json.NewEncoder(w).Encode(listSchedulesResponse{Schedules: []Schedule{
			{BroadcastID: "b-1", Payload: Payload{FixtureID: "fx-1"}},
			{FlowID: "f-1"},
		}})
	}))
	defer srv.Close()

	schedules, err := NewClient(srv.URL, "t", time.Second).ListUpcomingSchedules(context.Background(), until)
	require.NoError(t, err)
	require.Len(t, schedules, 2)

	assert.Equal(t, "b-1", schedules[0].ID())
	assert.Equal(t, TypeBroadcast, schedules[0].Type())
	assert.Equal(t, "f-1", schedules[1].ID())
	assert.Equal(t, TypeFlow, schedules[1].Type())
}
