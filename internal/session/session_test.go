package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tundrawallet/tundra/internal/storage"
)

func newManager(t *testing.T, timeout time.Duration) (*Manager, *storage.Memory) {
	t.Helper()
	store := storage.NewMemory()
	m := NewManager(store, []byte("verifier-secret"), timeout, nil)
	return m, store
}

func TestManager_StatusNoneWhenNoMarker(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, _ := newManager(t, 30*time.Minute)

	status, err := m.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, StatusNone, status)
}

func TestManager_CreateThenValid(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, _ := newManager(t, 30*time.Minute)

	require.NoError(t, m.Create(ctx, "Str0ng!Pass"))

	status, err := m.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, StatusValid, status)

	pw, err := m.Password(ctx)
	require.NoError(t, err)
	require.Equal(t, "Str0ng!Pass", pw)
}

func TestManager_ExpiresAfterTimeout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, _ := newManager(t, 30*time.Minute)

	require.NoError(t, m.Create(ctx, "Str0ng!Pass"))

	// Move the manager's clock past the timeout.
	m.now = func() time.Time { return time.Now().Add(31 * time.Minute) }

	status, err := m.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, StatusExpired, status)

	_, err = m.Password(ctx)
	require.Error(t, err, "no password from an expired session")
}

func TestManager_InitDispatchesHooks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	track := func(flag *int) func(context.Context) error {
		return func(context.Context) error { *flag++; return nil }
	}

	t.Run("no marker -> OnCreate", func(t *testing.T) {
		m, _ := newManager(t, time.Hour)
		var created, continued, expired int
		require.NoError(t, m.Init(ctx, Hooks{
			OnCreate:   track(&created),
			OnContinue: track(&continued),
			OnExpired:  track(&expired),
		}))
		require.Equal(t, []int{1, 0, 0}, []int{created, continued, expired})
	})

	t.Run("live marker -> OnContinue", func(t *testing.T) {
		m, _ := newManager(t, time.Hour)
		require.NoError(t, m.Create(ctx, "Str0ng!Pass"))

		var created, continued, expired int
		require.NoError(t, m.Init(ctx, Hooks{
			OnCreate:   track(&created),
			OnContinue: track(&continued),
			OnExpired:  track(&expired),
		}))
		require.Equal(t, []int{0, 1, 0}, []int{created, continued, expired})
	})

	t.Run("expired marker -> clear + OnExpired", func(t *testing.T) {
		m, _ := newManager(t, time.Hour)
		require.NoError(t, m.Create(ctx, "Str0ng!Pass"))
		m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

		var created, continued, expired int
		require.NoError(t, m.Init(ctx, Hooks{
			OnCreate:   track(&created),
			OnContinue: track(&continued),
			OnExpired:  track(&expired),
		}))
		require.Equal(t, []int{0, 0, 1}, []int{created, continued, expired})

		// The marker is gone: a second Init now takes the create path.
		created, continued, expired = 0, 0, 0
		require.NoError(t, m.Init(ctx, Hooks{
			OnCreate:   track(&created),
			OnContinue: track(&continued),
			OnExpired:  track(&expired),
		}))
		require.Equal(t, []int{1, 0, 0}, []int{created, continued, expired})
	})
}

func TestManager_InitReentrant(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, _ := newManager(t, time.Hour)
	require.NoError(t, m.Create(ctx, "Str0ng!Pass"))

	// Two overlapping Init calls settle on the same transition.
	var continued int
	hooks := Hooks{OnContinue: func(context.Context) error { continued++; return nil }}
	require.NoError(t, m.Init(ctx, hooks))
	require.NoError(t, m.Init(ctx, hooks))
	require.Equal(t, 2, continued)

	status, err := m.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, StatusValid, status)
}

func TestManager_TamperedMarkerIgnored(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, store := newManager(t, time.Hour)
	require.NoError(t, m.Create(ctx, "Str0ng!Pass"))

	// Forge a marker with a token signed by a different secret.
	forged := NewManager(store, []byte("other-secret"), time.Hour, nil)
	require.NoError(t, forged.Create(ctx, "Str0ng!Pass"))

	status, err := m.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, StatusNone, status, "unverifiable marker counts as no session")
}

func TestManager_CorruptMarkerTreatedAsAbsent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, store := newManager(t, time.Hour)
	require.NoError(t, store.Set(ctx, map[string][]byte{"session": []byte("not json")}))

	status, err := m.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, StatusNone, status)
}

func TestManager_ClearIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, _ := newManager(t, time.Hour)
	require.NoError(t, m.Create(ctx, "Str0ng!Pass"))

	require.NoError(t, m.Clear(ctx))
	require.NoError(t, m.Clear(ctx))

	status, err := m.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, StatusNone, status)
}

func TestMarker_PasswordStaysOutOfDurableShape(t *testing.T) {
	t.Parallel()

	// The marker round-trips through JSON with the password intact — which
	// is exactly why it may only ever be written to the ephemeral store.
	mk := marker{Active: true, Password: "pw", Created: time.Now(), Token: "t"}
	raw, err := json.Marshal(&mk)
	require.NoError(t, err)

	var back marker
	require.NoError(t, json.Unmarshal(raw, &back))
	require.Equal(t, "pw", back.Password)
}
