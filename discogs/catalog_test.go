package discogs_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/jrsteele09/vinylogger/discogs"
	"github.com/jrsteele09/vinylogger/discogs/discogsfake"
	apperrors "github.com/jrsteele09/vinylogger/internal/errors"
	"github.com/jrsteele09/vinylogger/oauth1"
	"github.com/jrsteele09/vinylogger/users"
	"github.com/stretchr/testify/require"
)

func TestSignedFetch(t *testing.T) {
	f := setupTestFixture(t)
	user := f.user()

	resp, err := f.client.SignedFetch(context.Background(), user, http.MethodGet, f.provider.Endpoints().UserURL("vinylfan", "wants"), nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.Status)
	require.Equal(t, 60, resp.RateLimit.Limit)
	require.Equal(t, f.provider.RateLimitRemaining, resp.RateLimit.Remaining)
	require.Equal(t, 1, resp.RateLimit.Used)

	params := f.provider.LastAuthorization(discogsfake.Catalog)
	require.Equal(t, "1.0", params[oauth1.ParamVersion])
	require.Equal(t, user.AccessToken, params[oauth1.ParamToken])
	require.Equal(t, "consumer-secret&access-secret", params[oauth1.ParamSignature])
}

func TestSignedFetch_NonSuccess(t *testing.T) {
	f := setupTestFixture(t)
	f.provider.FailNext(discogsfake.Catalog, http.StatusTooManyRequests, 1)

	_, err := f.client.SignedFetch(context.Background(), f.user(), http.MethodGet, f.provider.Endpoints().UserURL("vinylfan", "wants"), nil)
	require.ErrorIs(t, err, apperrors.ErrUpstreamAPI)

	var upstream *discogs.UpstreamAPIError
	require.True(t, errors.As(err, &upstream))
	require.Equal(t, http.StatusTooManyRequests, upstream.Status)
	require.Equal(t, http.MethodGet, upstream.Method)
	require.Equal(t, 1, f.provider.Calls(discogsfake.Catalog))
}

func TestSignedFetch_RevokedToken(t *testing.T) {
	f := setupTestFixture(t)
	user := f.user()
	user.AccessTokenSecret = "revoked"

	_, err := f.client.SignedFetch(context.Background(), user, http.MethodGet, f.provider.Endpoints().UserURL("vinylfan", "wants"), nil)

	var upstream *discogs.UpstreamAPIError
	require.True(t, errors.As(err, &upstream))
	require.Equal(t, http.StatusUnauthorized, upstream.Status)
}

func TestSignedFetch_InvalidUser(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.client.SignedFetch(context.Background(), &users.User{}, http.MethodGet, f.provider.URL(), nil)
	require.Error(t, err)
	require.Zero(t, f.provider.Calls(discogsfake.Catalog))
}

func TestCollection(t *testing.T) {
	f := setupTestFixture(t)
	user := f.user()
	ctx := context.Background()

	added, err := f.client.AddToCollection(ctx, user, 249504)
	require.NoError(t, err)
	require.NotZero(t, added.InstanceID)
	require.NotEmpty(t, added.ResourceURL)

	page, err := f.client.ListCollection(ctx, user, 0, 0)
	require.NoError(t, err)
	require.Len(t, page.Releases, 1)
	require.Equal(t, 249504, page.Releases[0].ID)
	require.Equal(t, discogs.DefaultPerPage, page.Pagination.PerPage)
	require.Equal(t, 1, page.Pagination.Items)

	require.NoError(t, f.client.RemoveFromCollection(ctx, user, 249504, added.InstanceID))

	page, err = f.client.ListCollection(ctx, user, 1, 500)
	require.NoError(t, err)
	require.Empty(t, page.Releases)
	require.Equal(t, discogs.MaxPerPage, page.Pagination.PerPage)

	err = f.client.RemoveFromCollection(ctx, user, 249504, added.InstanceID)
	require.ErrorIs(t, err, apperrors.ErrUpstreamAPI)
}

func TestWantlist(t *testing.T) {
	f := setupTestFixture(t)
	user := f.user()
	ctx := context.Background()

	added, err := f.client.AddToWantlist(ctx, user, 1)
	require.NoError(t, err)
	require.Equal(t, 1, added.ID)

	page, err := f.client.ListWantlist(ctx, user, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Wants, 1)
	require.Equal(t, 1, page.Wants[0].ID)

	require.NoError(t, f.client.RemoveFromWantlist(ctx, user, 1))

	err = f.client.RemoveFromWantlist(ctx, user, 1)
	require.ErrorIs(t, err, apperrors.ErrUpstreamAPI)
}
