package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseHeaders(t *testing.T) {
	got := ParseHeaders(" api-key = abc , broken, =x,tenant=ah ")
	require.Equal(t, map[string]string{"api-key": "abc", "tenant": "ah"}, got)
}

func TestInitWithoutSignals(t *testing.T) {
	_, err := Init(context.Background(), Config{})
	require.Error(t, err)

	shutdown, err := Init(context.Background(), Config{ServiceName: "auctionhoused"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
