package meta

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{
		AppID: "app-1", AppSecret: "sec", RedirectURI: "https://app.test/cb",
		Scopes: "a,b", GraphURL: srv.URL, Timeout: time.Second,
	})
}

func TestAuthorizeURL(t *testing.T) {
	c := New(Config{AppID: "app-1", RedirectURI: "https://app.test/cb", Scopes: "pages_show_list,business_management"})
	u, err := url.Parse(c.AuthorizeURL("client:uuid"))
	require.NoError(t, err)
	assert.Equal(t, "www.facebook.com", u.Host)
	assert.Equal(t, "/v22.0/dialog/oauth", u.Path)
	q := u.Query()
	assert.Equal(t, "app-1", q.Get("client_id"))
	assert.Equal(t, "https://app.test/cb", q.Get("redirect_uri"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "pages_show_list,business_management", q.Get("scope"))
	assert.Equal(t, "client:uuid", q.Get("state"))
}

func TestExchangeCodeSendsCredentials(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/oauth/access_token", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "app-1", q.Get("client_id"))
		assert.Equal(t, "sec", q.Get("client_secret"))
		assert.Equal(t, "https://app.test/cb", q.Get("redirect_uri"))
		assert.Equal(t, "the-code", q.Get("code"))
		_, _ = w.Write([]byte(`{"access_token":"short","token_type":"bearer","expires_in":3600}`))
	})
	res := c.ExchangeCode(context.Background(), "the-code")
	require.True(t, res.OK)
	assert.Equal(t, "short", *res.Data.AccessToken)
	assert.EqualValues(t, 3600, *res.Data.ExpiresIn)
}

func TestExchangeLongLived(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "fb_exchange_token", q.Get("grant_type"))
		assert.Equal(t, "short", q.Get("fb_exchange_token"))
		_, _ = w.Write([]byte(`{"access_token":"long"}`))
	})
	res := c.ExchangeLongLived(context.Background(), "short")
	require.True(t, res.OK)
	assert.Equal(t, "long", *res.Data.AccessToken)
	assert.Nil(t, res.Data.ExpiresIn)
}

func TestNon2xxIsResultNotError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"(#10) Application does not have permission for this action","type":"OAuthException","code":10,"fbtrace_id":"x"}}`))
	})
	res := c.ReadInsights(context.Background(), "178", "tok", DefaultInsightMetrics, PeriodDay)
	assert.False(t, res.OK)
	assert.Equal(t, http.StatusBadRequest, res.Status)
	require.NotNil(t, res.Err)
	assert.Equal(t, 10, res.Err.Code)
	assert.NoError(t, res.TransportErr)
	assert.NotContains(t, res.Failed(), "tok")
}

func TestTimeoutIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()
	c := New(Config{GraphURL: srv.URL, Timeout: 50 * time.Millisecond})

	res := c.ReadProfile(context.Background(), "178", "secret-token", ProfileMetricsFields)
	assert.False(t, res.OK)
	require.Error(t, res.TransportErr)
	assert.NotContains(t, res.TransportErr.Error(), "secret-token")
}

func TestListPagesAndMediaRequests(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/me/accounts":
			assert.Equal(t, PagesFields, r.URL.Query().Get("fields"))
			assert.Equal(t, "user-tok", r.URL.Query().Get("access_token"))
			_, _ = w.Write([]byte(`{"data":[{"id":"p0","name":"Sin IG"},{"id":"p1","name":"Brand","access_token":"page-tok","instagram_business_account":{"id":"178","username":"brand"}}]}`))
		case strings.HasSuffix(r.URL.Path, "/media"):
			assert.Equal(t, "/178/media", r.URL.Path)
			assert.Equal(t, "3", r.URL.Query().Get("limit"))
			_, _ = w.Write([]byte(`{"data":[{"id":"m1","like_count":4}]}`))
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	pages := c.ListPages(ctx, "user-tok")
	require.True(t, pages.OK)
	page, ok := pages.Data.FirstWithBusinessAccount()
	require.True(t, ok)
	assert.Equal(t, "p1", *page.ID)
	assert.Equal(t, "page-tok", *page.AccessToken)

	media := c.ListMedia(ctx, "178", "page-tok", MediaSampleFields, 3)
	require.True(t, media.OK)
	require.Len(t, media.Data.Data, 1)
	assert.EqualValues(t, 4, *media.Data.Data[0].LikeCount)
}

func TestReadProfileToleratesOddCounts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/178", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"178","username":"brand","media_count":"42","followers_count":1500.0,"follows_count":{"x":1}}`))
	})
	res := c.ReadProfile(context.Background(), "178", "page-tok", ProfileMetricsFields)
	require.True(t, res.OK)
	require.NoError(t, res.TransportErr)
	assert.Equal(t, "brand", *res.Data.Username)
	require.NotNil(t, res.Data.MediaCount)
	assert.EqualValues(t, 42, *res.Data.MediaCount)
	require.NotNil(t, res.Data.FollowersCount)
	assert.EqualValues(t, 1500, *res.Data.FollowersCount)
	assert.Nil(t, res.Data.FollowsCount)
}

func TestMediaCountsTolerateStrings(t *testing.T) {
	var m MediaResponse
	require.NoError(t, json.Unmarshal([]byte(`{"data":[{"id":"m1","like_count":"7","comments_count":null}]}`), &m))
	require.Len(t, m.Data, 1)
	assert.Equal(t, "m1", *m.Data[0].ID)
	assert.EqualValues(t, 7, *m.Data[0].LikeCount)
	assert.Nil(t, m.Data[0].CommentsCount)
}

func TestInsightValueNumber(t *testing.T) {
	n, ok := InsightValue{Value: []byte(`12`)}.Number()
	assert.True(t, ok)
	assert.Equal(t, 12.0, n)

	_, ok = InsightValue{Value: []byte(`{"a":1}`)}.Number()
	assert.False(t, ok)
	_, ok = InsightValue{}.Number()
	assert.False(t, ok)
	_, ok = InsightValue{Value: []byte(`null`)}.Number()
	assert.False(t, ok)
}
