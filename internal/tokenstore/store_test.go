package tokenstore

import (
	"testing"

	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSession() users.Session {
	return users.Session{
		Token: "tok-123",
		User:  users.User{ID: "u1", Username: "ana", Email: "u@x.com", Roles: []string{"organizer"}},
	}
}

func openTestBadger(t *testing.T, path string, key []byte) *BadgerStore {
	t.Helper()
	store, err := OpenBadger(BadgerOptions{Path: path, EncryptionKey: key, Logger: zerolog.Nop()})
	require.NoError(t, err)
	return store
}

func TestStores_Contract(t *testing.T) {
	stores := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"badger": func(t *testing.T) Store {
			s := openTestBadger(t, t.TempDir(), nil)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
		"badger in-memory": func(t *testing.T) Store {
			s := openTestBadger(t, "", nil)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}

	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			store := open(t)

			_, ok, err := store.Load()
			require.NoError(t, err)
			assert.False(t, ok, "fresh store has no session")

			require.NoError(t, store.Save(sampleSession()))
			got, ok, err := store.Load()
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, sampleSession(), got)

			require.NoError(t, store.Clear())
			_, ok, err = store.Load()
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.Clear(), "clear is idempotent")
			assert.ErrorIs(t, store.Save(users.Session{User: users.User{ID: "u1"}}), ErrInvalidSession)
		})
	}
}

func TestBadgerStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	first := openTestBadger(t, dir, nil)
	require.NoError(t, first.Save(sampleSession()))
	require.NoError(t, first.Close())

	second := openTestBadger(t, dir, nil)
	defer second.Close()
	got, ok, err := second.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tok-123", got.Token)
	assert.Equal(t, "ana", got.User.Username)
}

func TestBadgerStore_FailsClosedOnPartialSession(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"token without user", tokenKey, "tok-123"},
		{"user without token", userKey, `{"id":"u1","username":"ana","email":"u@x.com"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := openTestBadger(t, t.TempDir(), nil)
			defer store.Close()

			require.NoError(t, store.db.Update(func(txn *badger.Txn) error {
				return txn.Set([]byte(tt.key), []byte(tt.val))
			}))

			_, ok, err := store.Load()
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestBadgerStore_FailsClosedOnCorruptUser(t *testing.T) {
	store := openTestBadger(t, t.TempDir(), nil)
	defer store.Close()

	require.NoError(t, store.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(tokenKey), []byte("tok")); err != nil {
			return err
		}
		return txn.Set([]byte(userKey), []byte("{not json"))
	}))

	_, ok, err := store.Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBadgerStore_Encrypted(t *testing.T) {
	dir := t.TempDir()
	key := []byte("0123456789abcdef0123456789abcdef")

	store := openTestBadger(t, dir, key)
	require.NoError(t, store.Save(sampleSession()))
	require.NoError(t, store.Close())

	reopened := openTestBadger(t, dir, key)
	defer reopened.Close()
	got, ok, err := reopened.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tok-123", got.Token)
}

func TestMemoryStore_CopiesRoles(t *testing.T) {
	store := NewMemoryStore()
	sess := sampleSession()
	require.NoError(t, store.Save(sess))

	sess.User.Roles[0] = "mutated"
	got, _, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"organizer"}, got.User.Roles)
}
