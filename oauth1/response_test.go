package oauth1_test

import (
	"net/url"
	"testing"

	"github.com/jrsteele09/vinylogger/oauth1"
	"github.com/stretchr/testify/require"
)

func TestParseRequestToken(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		body := url.Values{
			"oauth_token":              {"X"},
			"oauth_token_secret":       {"Y"},
			"oauth_callback_confirmed": {"true"},
		}.Encode()

		token, err := oauth1.ParseRequestToken([]byte(body))
		require.NoError(t, err)
		require.Equal(t, oauth1.RequestToken{Token: "X", TokenSecret: "Y", CallbackConfirmed: true}, token)
	})

	t.Run("callback not confirmed", func(t *testing.T) {
		token, err := oauth1.ParseRequestToken([]byte("oauth_token=X&oauth_token_secret=Y&oauth_callback_confirmed=false"))
		require.NoError(t, err)
		require.False(t, token.CallbackConfirmed)
	})

	t.Run("missing secret", func(t *testing.T) {
		_, err := oauth1.ParseRequestToken([]byte("oauth_token=X"))
		require.ErrorIs(t, err, oauth1.ErrMalformedTokenResponse)
	})

	t.Run("not form encoded", func(t *testing.T) {
		_, err := oauth1.ParseRequestToken([]byte("%zz"))
		require.ErrorIs(t, err, oauth1.ErrMalformedTokenResponse)
	})
}

func TestParseAccessToken(t *testing.T) {
	token, err := oauth1.ParseAccessToken([]byte("oauth_token=access789&oauth_token_secret=secretABC"))
	require.NoError(t, err)
	require.Equal(t, "access789", token.Token)
	require.Equal(t, "secretABC", token.TokenSecret)

	_, err = oauth1.ParseAccessToken([]byte(""))
	require.ErrorIs(t, err, oauth1.ErrMalformedTokenResponse)
}
