package insights

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/brandkit/internal/domain/repository"
	"github.com/dropDatabas3/brandkit/internal/domain/social"
	dto "github.com/dropDatabas3/brandkit/internal/http/dto/insights"
	"github.com/dropDatabas3/brandkit/internal/oauth/meta"
	"github.com/dropDatabas3/brandkit/internal/security/secretbox"
	"github.com/dropDatabas3/brandkit/internal/store/memory"
)

const tenantA = "11111111-0000-4000-8000-000000000001"

func sp(s string) *string { return &s }
func ip(n int64) *int64   { return &n }

// fakeReader responde por igID; las cuentas sin entrada fallan con 400.
type fakeReader struct {
	mu       sync.Mutex
	profiles map[string]meta.Result[meta.Profile]
	insights map[string]meta.Result[meta.InsightsResponse]
	media    map[string]meta.Result[meta.MediaResponse]
	tokens   []string
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		profiles: map[string]meta.Result[meta.Profile]{},
		insights: map[string]meta.Result[meta.InsightsResponse]{},
		media:    map[string]meta.Result[meta.MediaResponse]{},
	}
}

func (f *fakeReader) ReadProfile(_ context.Context, igID, token, _ string) meta.Result[meta.Profile] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, token)
	if r, ok := f.profiles[igID]; ok {
		return r
	}
	return meta.Result[meta.Profile]{Status: 400}
}

func (f *fakeReader) ReadInsights(_ context.Context, igID, _ string, _ []string, _ string) meta.Result[meta.InsightsResponse] {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.insights[igID]; ok {
		return r
	}
	return meta.Result[meta.InsightsResponse]{Status: 400}
}

func (f *fakeReader) ListMedia(_ context.Context, igID, _ string, _ string, _ int) meta.Result[meta.MediaResponse] {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.media[igID]; ok {
		return r
	}
	return meta.Result[meta.MediaResponse]{Status: 400}
}

// healthy configura igID con 200 seguidores y 30 interacciones en 2 posts.
func (f *fakeReader) healthy(igID string) {
	f.profiles[igID] = meta.Result[meta.Profile]{OK: true, Status: 200, Data: meta.Profile{
		ID: sp(igID), Username: sp("brand" + igID), FollowersCount: ip(200), FollowsCount: ip(10), MediaCount: ip(2),
	}}
	f.media[igID] = meta.Result[meta.MediaResponse]{OK: true, Status: 200, Data: meta.MediaResponse{Data: []meta.Media{
		{ID: sp("m1"), MediaType: sp("IMAGE"), MediaURL: sp("https://cdn.test/m1.jpg"), LikeCount: ip(20), CommentsCount: ip(5)},
		{ID: sp("m2"), LikeCount: ip(4), CommentsCount: ip(1)},
	}}}
	f.insights[igID] = meta.Result[meta.InsightsResponse]{OK: true, Status: 200, Data: meta.InsightsResponse{Data: []meta.InsightMetric{
		{Name: sp("reach"), Values: []meta.InsightValue{
			{Value: json.RawMessage("100"), EndTime: sp("2026-03-01T08:00:00+0000")},
			{Value: json.RawMessage("50"), EndTime: sp("2026-02-28T08:00:00+0000")},
		}},
	}}}
}

type engineFixture struct {
	store  *memory.Store
	cipher *secretbox.Cipher
	graph  *fakeReader
	now    time.Time
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	c, err := secretbox.New("insights-test-key")
	require.NoError(t, err)
	return &engineFixture{
		store:  memory.New(),
		cipher: c,
		graph:  newFakeReader(),
		now:    time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC),
	}
}

func (f *engineFixture) engine() *Engine {
	return NewEngine(Deps{
		Accounts:  f.store.Accounts(),
		Snapshots: f.store.Snapshots(),
		Graph:     f.graph,
		Cipher:    f.cipher,
		Now:       func() time.Time { return f.now },
	})
}

// addAccount vincula una cuenta de Instagram con token de página cifrado.
func (f *engineFixture) addAccount(t *testing.T, clientID, igID, token string) *social.Account {
	t.Helper()
	sealed, err := f.cipher.Encrypt(token)
	require.NoError(t, err)
	acc, err := f.store.Accounts().Insert(context.Background(), repository.InsertAccountInput{
		ClientID:          clientID,
		Platform:          social.PlatformInstagram,
		AccountName:       "Brand " + igID,
		AccountHandle:     sp("@brand" + igID),
		ExternalAccountID: sp(igID),
		Status:            social.StatusConnected,
		Metadata:          social.Metadata{OAuth: &social.OAuthMetadata{PageToken: &sealed}},
	})
	require.NoError(t, err)
	return acc
}

func byID(items []dto.AccountInsights) map[string]dto.AccountInsights {
	out := make(map[string]dto.AccountInsights, len(items))
	for _, it := range items {
		out[it.AccountID] = it
	}
	return out
}

func TestForTenantHealthyAccount(t *testing.T) {
	f := newEngineFixture(t)
	f.graph.healthy("178")
	acc := f.addAccount(t, tenantA, "178", "page-token")

	items, err := f.engine().ForTenant(context.Background(), tenantA)
	require.NoError(t, err)
	require.Len(t, items, 1)

	it := items[0]
	assert.Equal(t, acc.ID, it.AccountID)
	assert.Equal(t, dto.StatusOK, it.InsightsStatus)
	assert.Empty(t, it.Error)
	assert.Equal(t, int64(30), it.InteractionsRecentPosts)
	require.NotNil(t, it.EngagementRate)
	assert.Equal(t, 15.0, *it.EngagementRate)
	require.NotNil(t, it.Reach7d)
	assert.Equal(t, int64(150), *it.Reach7d)
	assert.Nil(t, it.Impressions7d)
	require.Len(t, it.Posts, 2)
	assert.Equal(t, "IMAGE", it.Posts[0].MediaType)
	assert.Equal(t, "UNKNOWN", it.Posts[1].MediaType)
	require.NotNil(t, it.Posts[0].PreviewURL)
	assert.Equal(t, "https://cdn.test/m1.jpg", *it.Posts[0].PreviewURL)
	assert.Contains(t, f.graph.tokens, "page-token")

	// el snapshot de hoy ya forma parte del historial
	require.Len(t, it.History, 1)
	assert.Equal(t, "2026-03-02", it.History[0].Date)
	require.NotNil(t, it.History[0].InteractionsRecentPosts)
	assert.Equal(t, int64(30), *it.History[0].InteractionsRecentPosts)
}

func TestForTenantIsolatesBrokenAccounts(t *testing.T) {
	f := newEngineFixture(t)
	f.graph.healthy("178")
	good := f.addAccount(t, tenantA, "178", "page-token")
	noGraph := f.addAccount(t, tenantA, "999", "other-token")

	bad, err := f.store.Accounts().Insert(context.Background(), repository.InsertAccountInput{
		ClientID:          tenantA,
		Platform:          social.PlatformInstagram,
		AccountName:       "Broken",
		AccountHandle:     sp("@broken"),
		ExternalAccountID: sp("555"),
		Status:            social.StatusConnected,
		Metadata: social.Metadata{OAuth: &social.OAuthMetadata{PageToken: &secretbox.EncryptedSecret{
			Ciphertext: "AAAA", IV: "AAAAAAAAAAAAAAAA", Tag: "AAAAAAAAAAAAAAAAAAAAAA==",
		}}},
	})
	require.NoError(t, err)

	items, err := f.engine().ForTenant(context.Background(), tenantA)
	require.NoError(t, err)
	require.Len(t, items, 3)

	got := byID(items)
	assert.Equal(t, dto.StatusOK, got[good.ID].InsightsStatus)
	assert.Equal(t, msgDecryptFailed, got[bad.ID].Error)
	assert.Equal(t, dto.StatusUnavailable, got[bad.ID].InsightsStatus)
	assert.Equal(t, msgGraphReadFailed, got[noGraph.ID].Error)
	assert.Empty(t, got[noGraph.ID].Posts)
	assert.NotNil(t, got[noGraph.ID].Posts)

	hist, err := f.store.Snapshots().History(context.Background(), tenantA, []string{good.ID, bad.ID, noGraph.ID}, "2026-01-01")
	require.NoError(t, err)
	assert.Len(t, hist[good.ID], 1)
	assert.Empty(t, hist[bad.ID])
	assert.Empty(t, hist[noGraph.ID])
}

func TestForTenantInsightsFailureKeepsCounts(t *testing.T) {
	f := newEngineFixture(t)
	f.graph.healthy("178")
	f.graph.insights["178"] = meta.Result[meta.InsightsResponse]{
		Status: 400,
		Err:    &meta.GraphError{Code: 10, Message: "(#10) Application does not have permission for this action"},
	}
	f.addAccount(t, tenantA, "178", "page-token")

	items, err := f.engine().ForTenant(context.Background(), tenantA)
	require.NoError(t, err)
	require.Len(t, items, 1)

	it := items[0]
	assert.Equal(t, dto.StatusUnavailable, it.InsightsStatus)
	assert.Equal(t, MessagePermission, it.InsightsMessage)
	assert.Empty(t, it.Error)
	require.NotNil(t, it.Followers)
	assert.Equal(t, int64(200), *it.Followers)
	assert.Nil(t, it.Reach7d)
	assert.Len(t, it.Posts, 2)
	assert.Len(t, it.History, 1)
}

func TestForTenantLimitedWhenNoMetricValues(t *testing.T) {
	f := newEngineFixture(t)
	f.graph.healthy("178")
	f.graph.insights["178"] = meta.Result[meta.InsightsResponse]{OK: true, Status: 200, Data: meta.InsightsResponse{}}
	f.addAccount(t, tenantA, "178", "page-token")

	items, err := f.engine().ForTenant(context.Background(), tenantA)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, dto.StatusLimited, items[0].InsightsStatus)
	assert.Equal(t, MessageLimited, items[0].InsightsMessage)
}

func TestForTenantScopesToTenant(t *testing.T) {
	f := newEngineFixture(t)
	f.graph.healthy("178")
	f.graph.healthy("179")
	f.addAccount(t, tenantA, "178", "a-token")
	f.addAccount(t, "22222222-0000-4000-8000-000000000002", "179", "b-token")

	items, err := f.engine().ForTenant(context.Background(), tenantA)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.NotContains(t, f.graph.tokens, "b-token")

	empty, err := f.engine().ForTenant(context.Background(), "33333333-0000-4000-8000-000000000003")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestForTenantHistoryWindow(t *testing.T) {
	f := newEngineFixture(t)
	f.graph.healthy("178")
	acc := f.addAccount(t, tenantA, "178", "page-token")

	snaps := f.store.Snapshots()
	for _, d := range []string{"2026-01-15", "2026-02-10", "2026-02-20"} {
		require.NoError(t, snaps.Upsert(context.Background(), social.DailySnapshot{
			ClientID: tenantA, SocialAccountID: acc.ID, SnapshotDate: d, Followers: ip(100),
		}))
	}

	items, err := f.engine().ForTenant(context.Background(), tenantA)
	require.NoError(t, err)
	require.Len(t, items, 1)

	dates := make([]string, 0, len(items[0].History))
	for _, h := range items[0].History {
		dates = append(dates, h.Date)
	}
	// 30 días hasta 2026-03-02 inclusive arrancan el 2026-02-01
	assert.Equal(t, []string{"2026-02-10", "2026-02-20", "2026-03-02"}, dates)
}

func TestForTenantWithoutCipher(t *testing.T) {
	f := newEngineFixture(t)
	e := NewEngine(Deps{Accounts: f.store.Accounts(), Snapshots: f.store.Snapshots(), Graph: f.graph})
	_, err := e.ForTenant(context.Background(), tenantA)
	assert.True(t, errors.Is(err, ErrCipherMissing))
}
