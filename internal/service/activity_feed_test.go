package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-portal-api/internal/dto"
	"github.com/noah-isme/exam-portal-api/internal/models"
	"github.com/noah-isme/exam-portal-api/internal/observability"
)

func receiveActivity(t *testing.T, ch <-chan dto.ActivityResponse) dto.ActivityResponse {
	t.Helper()
	select {
	case activity := <-ch:
		return activity
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for activity")
		return dto.ActivityResponse{}
	}
}

func requireNoActivity(t *testing.T, ch <-chan dto.ActivityResponse) {
	t.Helper()
	select {
	case activity := <-ch:
		t.Fatalf("unexpected activity %d", activity.ID)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestActivityFeedBroadcastsLocally(t *testing.T) {
	feed := NewActivityFeed(nil, nil, "activities", zerolog.Nop())
	first, cancelFirst := feed.Subscribe()
	second, cancelSecond := feed.Subscribe()
	defer cancelFirst()

	feed.Publish(context.Background(), dto.ActivityResponse{ID: 1, Action: "Approved exam paper: Finals", Type: models.ActivityPaper})
	require.Equal(t, uint(1), receiveActivity(t, first).ID)
	require.Equal(t, uint(1), receiveActivity(t, second).ID)

	cancelSecond()
	cancelSecond()
	_, open := <-second
	require.False(t, open)

	feed.Publish(context.Background(), dto.ActivityResponse{ID: 2, Action: "submitted", Type: models.ActivityResult})
	require.Equal(t, uint(2), receiveActivity(t, first).ID)
}

func TestActivityFeedCountsEachSubscriberOnce(t *testing.T) {
	feed := NewActivityFeed(nil, nil, "activities", zerolog.Nop())
	clients := observability.ActivityStreamClients()
	baseline := testutil.ToFloat64(clients)

	_, cancel := feed.Subscribe()
	require.Equal(t, baseline+1, testutil.ToFloat64(clients))

	cancel()
	cancel()
	require.Equal(t, baseline, testutil.ToFloat64(clients))
}

func TestActivityFeedRelaysRemoteEventsThroughRedis(t *testing.T) {
	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := NewActivityFeed(client, nil, "exam-portal.activities", zerolog.Nop()).(*activityFeed)
	feed.Start(ctx)
	events, unsubscribe := feed.Subscribe()
	defer unsubscribe()

	require.Eventually(t, func() bool {
		return len(mini.PubSubChannels("exam-portal.activities")) > 0
	}, 2*time.Second, 20*time.Millisecond)

	remote, err := json.Marshal(activityEvent{
		Source:   "other-node",
		Activity: dto.ActivityResponse{ID: 41, Action: "published", Type: models.ActivityResult},
		SentAt:   time.Now().UTC(),
	})
	require.NoError(t, err)

	require.NoError(t, client.Publish(ctx, "exam-portal.activities", remote).Err())
	require.Equal(t, uint(41), receiveActivity(t, events).ID)

	// The same event relayed a second time is dropped.
	require.NoError(t, client.Publish(ctx, "exam-portal.activities", remote).Err())
	requireNoActivity(t, events)

	// Our own publish reaches local subscribers once; the echo from Redis is ignored.
	feed.Publish(ctx, dto.ActivityResponse{ID: 42, Action: "evaluated", Type: models.ActivityResult})
	require.Equal(t, uint(42), receiveActivity(t, events).ID)
	requireNoActivity(t, events)
}

func TestActivityFeedSeenWindowIsBounded(t *testing.T) {
	feed := NewActivityFeed(nil, nil, "activities", zerolog.Nop()).(*activityFeed)
	for id := uint(1); id <= activitySeenWindow+10; id++ {
		require.True(t, feed.markSeen(id))
	}
	require.Len(t, feed.seen, activitySeenWindow)
	require.True(t, feed.markSeen(1))
	require.False(t, feed.markSeen(activitySeenWindow+10))
}

func TestActivityServiceRecordsAndPublishes(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedAdmin(t)
	feed := NewActivityFeed(nil, nil, "activities", zerolog.Nop())
	events, unsubscribe := feed.Subscribe()
	defer unsubscribe()

	svc := NewActivityService(env.activities, feed, zerolog.Nop())
	ctx := context.Background()

	recorded, err := svc.Record(ctx, ActivityEntry{
		UserID:  &admin.UserID,
		Action:  "Approved exam paper: <b>Finals</b>",
		Type:    models.ActivityPaper,
		Details: "<img src=x onerror=alert(1)>ok",
	})
	require.NoError(t, err)
	require.Equal(t, "Approved exam paper: Finals", recorded.Action)
	require.Equal(t, "ok", recorded.Details)
	require.Equal(t, recorded.ID, receiveActivity(t, events).ID)

	_, err = svc.Record(ctx, ActivityEntry{Action: "noise", Type: models.ActivityType("system")})
	require.Error(t, err)

	_, err = svc.Record(ctx, ActivityEntry{Action: "System maintenance", Type: models.ActivityUser})
	require.NoError(t, err)

	page, err := svc.List(ctx, dto.ActivityListRequest{Page: 1, PageSize: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, "System maintenance", page.Items[0].Action)
	require.Equal(t, int64(2), page.Pagination.TotalItems)
	require.Equal(t, 2, page.Pagination.TotalPages)

	filtered, err := svc.List(ctx, dto.ActivityListRequest{Type: "paper"})
	require.NoError(t, err)
	require.Len(t, filtered.Items, 1)
	require.NotNil(t, filtered.Items[0].User)
	require.Equal(t, "Admin", filtered.Items[0].User.Name)

	_, err = svc.List(ctx, dto.ActivityListRequest{Type: "bogus"})
	require.ErrorIs(t, err, ErrValidation)
}
