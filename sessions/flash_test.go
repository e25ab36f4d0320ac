package sessions_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	apperrors "github.com/jrsteele09/vinylogger/internal/errors"
	"github.com/jrsteele09/vinylogger/sessions"
	"github.com/stretchr/testify/require"
)

var testEntry = sessions.FlashEntry{
	RequestToken:       "request-token",
	RequestTokenSecret: "request-secret",
	ReturnTo:           "/collection",
}

func newTestFlashStore(t *testing.T, c *clock) *sessions.FlashStore {
	t.Helper()
	guard := sessions.NewMemoryReplayGuard(sessions.WithGuardTime(c.Now))
	return sessions.NewFlashStore(newTestCodec(t, c), guard)
}

func TestFlashStore_FlashConsume(t *testing.T) {
	store := newTestFlashStore(t, newClock())

	cookie, err := store.Flash(requestWith(), testEntry)
	require.NoError(t, err)
	require.Equal(t, sessions.FlashCookieName, cookie.Name)
	require.True(t, cookie.HttpOnly)
	require.Equal(t, int(sessions.DefaultFlashAge/time.Second), cookie.MaxAge)
	require.NotContains(t, cookie.Value, "request-secret")

	entry, err := store.Consume(context.Background(), requestWith(cookie))
	require.NoError(t, err)
	require.Equal(t, testEntry, *entry)
}

func TestFlashStore_ReadOnce(t *testing.T) {
	store := newTestFlashStore(t, newClock())

	cookie, err := store.Flash(requestWith(), testEntry)
	require.NoError(t, err)

	_, err = store.Consume(context.Background(), requestWith(cookie))
	require.NoError(t, err)

	_, err = store.Consume(context.Background(), requestWith(cookie))
	require.ErrorIs(t, err, apperrors.ErrFlashConsumed)
}

func TestFlashStore_PeekDoesNotConsume(t *testing.T) {
	store := newTestFlashStore(t, newClock())

	cookie, err := store.Flash(requestWith(), testEntry)
	require.NoError(t, err)

	entry, err := store.Peek(requestWith(cookie))
	require.NoError(t, err)
	require.Equal(t, "request-token", entry.RequestToken)

	_, err = store.Consume(context.Background(), requestWith(cookie))
	require.NoError(t, err)
}

func TestFlashStore_PeekAfterConsume(t *testing.T) {
	store := newTestFlashStore(t, newClock())

	cookie, err := store.Flash(requestWith(), testEntry)
	require.NoError(t, err)

	_, err = store.Consume(context.Background(), requestWith(cookie))
	require.NoError(t, err)

	entry, err := store.Peek(requestWith(cookie))
	require.Nil(t, entry)
	require.ErrorIs(t, err, apperrors.ErrFlashConsumed)
}

func TestFlashStore_LastWriteWins(t *testing.T) {
	store := newTestFlashStore(t, newClock())

	_, err := store.Flash(requestWith(), testEntry)
	require.NoError(t, err)

	second := testEntry
	second.RequestToken = "request-token-2"
	cookie, err := store.Flash(requestWith(), second)
	require.NoError(t, err)

	// The browser only holds the newest cookie under the single flash name.
	entry, err := store.Consume(context.Background(), requestWith(cookie))
	require.NoError(t, err)
	require.Equal(t, "request-token-2", entry.RequestToken)
}

func TestFlashStore_Missing(t *testing.T) {
	store := newTestFlashStore(t, newClock())

	_, err := store.Consume(context.Background(), requestWith())
	require.ErrorIs(t, err, apperrors.ErrFlashNotFound)

	_, err = store.Consume(context.Background(), requestWith(&http.Cookie{Name: sessions.FlashCookieName, Value: "junk"}))
	require.ErrorIs(t, err, apperrors.ErrFlashNotFound)
}

func TestFlashStore_Expired(t *testing.T) {
	c := newClock()
	store := newTestFlashStore(t, c)

	cookie, err := store.Flash(requestWith(), testEntry)
	require.NoError(t, err)

	c.now = c.now.Add(sessions.DefaultFlashAge + time.Minute)
	_, err = store.Consume(context.Background(), requestWith(cookie))
	require.ErrorIs(t, err, apperrors.ErrFlashNotFound)
}

func TestFlashStore_RejectsIncompleteEntry(t *testing.T) {
	store := newTestFlashStore(t, newClock())

	_, err := store.Flash(requestWith(), sessions.FlashEntry{RequestToken: "only-token"})
	require.Error(t, err)
}

func TestFlashStore_Clear(t *testing.T) {
	store := newTestFlashStore(t, newClock())

	cookie := store.Clear(requestWith())
	require.Equal(t, sessions.FlashCookieName, cookie.Name)
	require.Equal(t, -1, cookie.MaxAge)
}
