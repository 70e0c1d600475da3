package lookup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbehnke/lmrdecode/internal/database"
	"github.com/dbehnke/lmrdecode/internal/protocol"
)

const aliasFile = `# radios
3125001 n0call
3125002 N0CAL extra fields ignored
notanid K0BAD
3125003

# talkgroups
TG DMR 3120 Nebraska Statewide
TG P25 3120 County Fire
TG TETRA 1 Nope
`

func writeAliasFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aliases.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileSource(t *testing.T) {
	src := NewFileSource(writeAliasFile(t, aliasFile), 0, nil)
	require.NoError(t, src.Read())

	name, ok := src.Callsign(3125001)
	assert.True(t, ok)
	assert.Equal(t, "N0CALL", name)
	_, ok = src.Callsign(3125003)
	assert.False(t, ok)

	name, ok = src.Talkgroup(protocol.ProtocolP25, 3120)
	assert.True(t, ok)
	assert.Equal(t, "County Fire", name)
	_, ok = src.Talkgroup(protocol.ProtocolNXDN, 3120)
	assert.False(t, ok)

	radios, talkgroups, reloads, last := src.Stats()
	assert.Equal(t, 2, radios)
	assert.Equal(t, 2, talkgroups)
	assert.Equal(t, 1, reloads)
	assert.False(t, last.IsZero())
}

func TestFileSourceKeepsEntriesOnFailedReload(t *testing.T) {
	path := writeAliasFile(t, aliasFile)
	src := NewFileSource(path, 0, nil)
	require.NoError(t, src.Read())
	require.NoError(t, os.Remove(path))

	assert.Error(t, src.Read())
	_, ok := src.Callsign(3125001)
	assert.True(t, ok)
}

func TestFileSourceRun(t *testing.T) {
	path := writeAliasFile(t, "1 FIRST\n")
	src := NewFileSource(path, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- src.Run(ctx) }()

	require.Eventually(t, func() bool { _, ok := src.Callsign(1); return ok }, time.Second, 5*time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("2 SECOND\n"), 0o644))
	require.Eventually(t, func() bool { _, ok := src.Callsign(2); return ok }, time.Second, 5*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestFileSourceRunMissingFile(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "missing"), time.Hour, nil)
	assert.Error(t, src.Run(context.Background()))
}

func TestAliases(t *testing.T) {
	src := NewFileSource(writeAliasFile(t, aliasFile), 0, nil)
	require.NoError(t, src.Read())
	aliases := NewAliases(src)

	tests := []struct {
		name string
		id   protocol.Identifier
		want string
	}{
		{"radio", protocol.NewRadioID(protocol.ProtocolDMR, protocol.RoleFrom, 3125001), "N0CALL"},
		{"nxdn radio shares ids", protocol.NewRadioID(protocol.ProtocolNXDN, protocol.RoleTo, 3125002), "N0CAL"},
		{"unknown radio", protocol.NewRadioID(protocol.ProtocolDMR, protocol.RoleFrom, 7), ""},
		{"all call", protocol.NewRadioID(protocol.ProtocolDMR, protocol.RoleTo, AllCall), "ALL"},
		{"p25 has no all call", protocol.NewRadioID(protocol.ProtocolP25, protocol.RoleTo, AllCall), ""},
		{"talkgroup", protocol.NewTalkgroupID(protocol.ProtocolDMR, protocol.RoleTo, 3120), "Nebraska Statewide"},
		{"other forms", protocol.NewNAC(0x293), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, aliases.Alias(tt.id))
		})
	}
}

func openDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.NewDB(database.Config{Path: filepath.Join(t.TempDir(), "lookup.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDatabaseSource(t *testing.T) {
	db := openDB(t)
	users := database.NewRadioUserRepository(db.GetDB())
	_, err := users.UpsertBatch([]database.RadioUser{{RadioID: 3125001, Callsign: "N0CALL"}})
	require.NoError(t, err)
	require.NoError(t, database.NewTalkgroupRepository(db.GetDB()).Upsert("DMR", 3120, "Nebraska"))

	src := NewDatabaseSource(db.GetDB(), DatabaseConfig{CacheSize: 10, CacheExpiry: time.Hour}, nil)

	name, ok := src.Callsign(3125001)
	assert.True(t, ok)
	assert.Equal(t, "N0CALL", name)
	_, ok = src.Callsign(1)
	assert.False(t, ok)
	name, ok = src.Talkgroup(protocol.ProtocolDMR, 3120)
	assert.True(t, ok)
	assert.Equal(t, "Nebraska", name)

	// cached answers survive the rows going away
	require.NoError(t, users.DeleteAll())
	name, ok = src.Callsign(3125001)
	assert.True(t, ok)
	assert.Equal(t, "N0CALL", name)

	src.ClearCache()
	_, ok = src.Callsign(3125001)
	assert.False(t, ok)

	stats := src.Stats()
	assert.Equal(t, uint32(5), stats.Lookups)
	assert.Equal(t, uint32(3), stats.Hits)
	assert.Equal(t, uint32(2), stats.Misses)
	assert.Zero(t, stats.Errors)
}

func TestDatabaseSourceCachesMisses(t *testing.T) {
	db := openDB(t)
	src := NewDatabaseSource(db.GetDB(), DatabaseConfig{CacheSize: 10, CacheExpiry: time.Hour}, nil)

	_, ok := src.Callsign(42)
	assert.False(t, ok)
	require.NoError(t, database.NewRadioUserRepository(db.GetDB()).Upsert(&database.RadioUser{RadioID: 42, Callsign: "K0NEW"}))
	_, ok = src.Callsign(42)
	assert.False(t, ok, "miss should be cached")

	uncached := NewDatabaseSource(db.GetDB(), DatabaseConfig{}, nil)
	name, ok := uncached.Callsign(42)
	assert.True(t, ok)
	assert.Equal(t, "K0NEW", name)
}
