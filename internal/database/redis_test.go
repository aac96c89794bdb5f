package database

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestConnectRedisNamesTheClient(t *testing.T) {
	mini := miniredis.RunT(t)

	client, err := ConnectRedis(context.Background(), "redis://"+mini.Addr()+"/0", "exam-portal-test")
	require.NoError(t, err)
	defer client.Close()

	name, err := client.ClientGetName(context.Background()).Result()
	require.NoError(t, err)
	require.Equal(t, "exam-portal-test", name)
}

func TestConnectRedisRejectsBadInput(t *testing.T) {
	_, err := ConnectRedis(context.Background(), "", "api")
	require.ErrorContains(t, err, "must not be empty")

	_, err = ConnectRedis(context.Background(), "http://not-redis", "api")
	require.ErrorContains(t, err, "failed to parse redis url")

	mini := miniredis.RunT(t)
	addr := mini.Addr()
	mini.Close()
	_, err = ConnectRedis(context.Background(), "redis://"+addr, "api")
	require.ErrorContains(t, err, "unable to connect to redis")
}
