package radioid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbehnke/lmrdecode/internal/database"
)

const userCSV = `RADIO_ID,CALLSIGN,FIRST_NAME,LAST_NAME,CITY,STATE,COUNTRY
3125001,n0call,Pat,Smith,Omaha,Nebraska,United States
3125002,N0CAL,Lee,,Lincoln,Nebraska,United States
notanid,K0BAD,,,,,
3125003,,No,Callsign,,,
3125004,K0SHORT
`

func newRepo(t *testing.T) *database.RadioUserRepository {
	t.Helper()
	db, err := database.NewDB(database.Config{Path: filepath.Join(t.TempDir(), "users.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return database.NewRadioUserRepository(db.GetDB())
}

func TestSyncNow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "lmrdecode/1.0", r.Header.Get("User-Agent"))
		w.Write([]byte(userCSV))
	}))
	defer server.Close()

	repo := newRepo(t)
	require.NoError(t, repo.Upsert(&database.RadioUser{RadioID: 9999999, Callsign: "GONE"}))

	var synced int
	s := NewSyncerWithConfig(repo, nil, SyncerConfig{URL: server.URL, OnSync: func(n int) { synced = n }})
	require.NoError(t, s.SyncNow(context.Background()))

	assert.Equal(t, 2, synced)
	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	user, err := repo.GetByRadioID(3125001)
	require.NoError(t, err)
	assert.Equal(t, "N0CALL", user.Callsign)
	assert.Equal(t, "Omaha, Nebraska, United States", user.Location())

	_, err = repo.GetByRadioID(9999999)
	assert.Error(t, err, "users missing from the list are removed")
}

func TestSyncNowRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < MaxRetries {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(userCSV))
	}))
	defer server.Close()

	s := NewSyncerWithConfig(newRepo(t), nil, SyncerConfig{URL: server.URL, RetryDelay: time.Millisecond})
	require.NoError(t, s.SyncNow(context.Background()))
	assert.Equal(t, int32(MaxRetries), calls.Load())
}

func TestSyncNowFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{"always down", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}, "failed to download"},
		{"no users", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("RADIO_ID,CALLSIGN,FIRST_NAME,LAST_NAME,CITY,STATE,COUNTRY\n"))
		}, "no valid users"},
		{"broken csv", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("1,\"unterminated\n"))
		}, "failed to parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			s := NewSyncerWithConfig(newRepo(t), nil, SyncerConfig{URL: server.URL, RetryDelay: time.Millisecond})
			err := s.SyncNow(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSyncNowCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewSyncerWithConfig(newRepo(t), nil, SyncerConfig{URL: server.URL, RetryDelay: time.Hour})
	assert.ErrorIs(t, s.SyncNow(ctx), context.Canceled)
}

func TestParseCSVRecord(t *testing.T) {
	user, err := parseCSVRecord(strings.Split(" 3125001 , k0abc ,Sam,,, ,Canada", ","))
	require.NoError(t, err)
	assert.Equal(t, uint32(3125001), user.RadioID)
	assert.Equal(t, "K0ABC", user.Callsign)
	assert.Equal(t, "Canada", user.Location())

	_, err = parseCSVRecord([]string{"0", "K0ABC", "", "", "", "", ""})
	assert.Error(t, err)
	_, err = parseCSVRecord([]string{"1", "K0ABC"})
	assert.Error(t, err)
}

func TestDefaults(t *testing.T) {
	s := NewSyncer(newRepo(t), nil)
	assert.Equal(t, RadioIDURL, s.url)
	assert.Equal(t, DefaultSyncInterval, s.Interval())
}
