package oauthstate

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/brandkit/internal/cache"
)

func TestIssueConsumeSingleUse(t *testing.T) {
	s := New(cache.NewMemory(time.Minute), 0)
	ctx := context.Background()

	state, err := s.Issue(ctx, "client-1")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(state, "client-1:"))
	_, err = uuid.Parse(strings.TrimPrefix(state, "client-1:"))
	require.NoError(t, err)

	require.NoError(t, s.Consume(ctx, state, "client-1"))
	assert.ErrorIs(t, s.Consume(ctx, state, "client-1"), ErrUnknownState)
}

func TestConsumeOtherClient(t *testing.T) {
	s := New(cache.NewMemory(time.Minute), time.Minute)
	ctx := context.Background()
	state, err := s.Issue(ctx, "a")
	require.NoError(t, err)
	assert.ErrorIs(t, s.Consume(ctx, state, "b"), ErrClientMismatch)
}

func TestConsumeExpired(t *testing.T) {
	s := New(cache.NewMemory(time.Minute), 10*time.Millisecond)
	ctx := context.Background()
	state, err := s.Issue(ctx, "a")
	require.NoError(t, err)
	time.Sleep(30 * time.Millisecond)
	assert.ErrorIs(t, s.Consume(ctx, state, "a"), ErrUnknownState)
}

func TestHasClientPrefix(t *testing.T) {
	cases := []struct {
		state, client string
		want          bool
	}{
		{"abc:123", "abc", true},
		{"abcd:123", "abc", false},
		{"abc123", "abc", false},
		{":123", "", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HasClientPrefix(tc.state, tc.client), tc.state)
	}
}
