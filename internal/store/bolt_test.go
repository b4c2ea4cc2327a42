package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"

	"github.com/sahana-ai/assistant-platform/internal/model"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.bolt")
	st, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st, path
}

func TestOpenStampsSchemaVersion(t *testing.T) {
	st, path := newTestStore(t)
	require.NoError(t, st.Close())

	// Reopening an up-to-date store succeeds.
	st2, err := Open(path)
	require.NoError(t, err)
	defer st2.Close()

	assert.NoError(t, st2.Ping())
}

func TestOpenRejectsNewerSchema(t *testing.T) {
	st, path := newTestStore(t)
	require.NoError(t, st.Close())

	db, err := bolt.Open(path, 0o600, nil)
	require.NoError(t, err)
	err = db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketMeta)).Put([]byte(schemaVersionKey), []byte("99"))
	})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = Open(path)
	assert.ErrorIs(t, err, ErrSchemaTooNew)
}

func TestCredentialRoundTrip(t *testing.T) {
	st, _ := newTestStore(t)

	_, found, err := st.GetCredential("nimal")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, st.PutCredential("nimal", "hash-1"))

	hash, found, err := st.GetCredential("nimal")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "hash-1", hash)

	// Credentials are create-only; the original survives a second put.
	err = st.PutCredential("nimal", "hash-2")
	assert.Error(t, err)

	hash, _, err = st.GetCredential("nimal")
	require.NoError(t, err)
	assert.Equal(t, "hash-1", hash)
}

func TestSessionRoundTrip(t *testing.T) {
	st, _ := newTestStore(t)

	rec, err := st.GetSession("nimal")
	require.NoError(t, err)
	assert.Nil(t, rec)

	require.NoError(t, st.PutSession(&model.SessionRecord{Username: "nimal"}))

	rec, err = st.GetSession("nimal")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "nimal", rec.Username)

	require.NoError(t, st.DeleteSession("nimal"))

	rec, err = st.GetSession("nimal")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestCorruptSessionRecordIsReset(t *testing.T) {
	st, _ := newTestStore(t)

	err := st.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSessions)).Put([]byte("nimal"), []byte("{not json"))
	})
	require.NoError(t, err)

	// Reads as absent, never as an error.
	rec, err := st.GetSession("nimal")
	require.NoError(t, err)
	assert.Nil(t, rec)

	// And the corrupted record is gone.
	err = st.db.View(func(tx *bolt.Tx) error {
		assert.Nil(t, tx.Bucket([]byte(bucketSessions)).Get([]byte("nimal")))
		return nil
	})
	require.NoError(t, err)
}
