package sessions_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/vinylogger/oauth1"
	"github.com/jrsteele09/vinylogger/sessions"
	"github.com/jrsteele09/vinylogger/users"
	"github.com/stretchr/testify/require"
)

var (
	testSecret    = strings.Repeat("a", sessions.MinSecretLength)
	rotatedSecret = strings.Repeat("b", sessions.MinSecretLength)
)

// clock is a settable time source shared by the codec and the replay guard.
type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func newClock() *clock {
	return &clock{now: time.Now()}
}

func newTestCodec(t *testing.T, c *clock, secrets ...string) *sessions.Codec {
	t.Helper()
	if len(secrets) == 0 {
		secrets = []string{testSecret}
	}
	codec, err := sessions.NewCodec(secrets, sessions.WithCodecTime(c.Now))
	require.NoError(t, err)
	return codec
}

func requestWith(cookies ...*http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/login/callback", nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	return r
}

func testUser() *users.User {
	return users.New(
		oauth1.ConsumerCredential{Key: "consumer-key", Secret: "consumer-secret"},
		oauth1.AccessToken{Token: "access-token", TokenSecret: "access-secret"},
		users.Identity{
			ID:                42,
			Username:          "vinylfan",
			ResourceURL:       "https://api.discogs.com/users/vinylfan",
			ConsumerName:      "Vinylogger",
			Avatar:            "https://img.discogs.com/avatar.png",
			ItemsInCollection: 12,
			ItemsInWantlist:   3,
		},
	)
}
