package database

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dbehnke/lmrdecode/internal/bits"
	"github.com/dbehnke/lmrdecode/internal/protocol"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(Config{Path: filepath.Join(t.TempDir(), "test.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

type callMessage struct {
	protocol.Base
	from, to int
}

func (m *callMessage) Opcode() string { return "VOICE CALL" }
func (m *callMessage) Vendor() string { return "STANDARD" }
func (m *callMessage) String() string { return "VOICE CALL" }
func (m *callMessage) Identifiers() []protocol.Identifier {
	return []protocol.Identifier{
		protocol.NewRAN(5),
		protocol.NewRadioID(protocol.ProtocolNXDN, protocol.RoleFrom, m.from),
		protocol.NewTalkgroupID(protocol.ProtocolNXDN, protocol.RoleTo, m.to),
	}
}

func newCall(from, to int, ts time.Time) *callMessage {
	return &callMessage{Base: protocol.NewBase(protocol.ProtocolNXDN, bits.New(8), ts), from: from, to: to}
}

func TestRadioUserRepository(t *testing.T) {
	repo := NewRadioUserRepository(openTestDB(t).GetDB())

	n, err := repo.UpsertBatch([]RadioUser{
		{RadioID: 3125001, Callsign: " n0call ", FirstName: "Pat", City: "Omaha", Country: "United States"},
		{RadioID: 3125002, Callsign: "N0CAL"},
		{RadioID: 0, Callsign: "BAD"},
		{RadioID: 3125003},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	user, err := repo.GetByRadioID(3125001)
	require.NoError(t, err)
	assert.Equal(t, "N0CALL", user.Callsign)
	assert.Equal(t, "N0CALL (3125001) - Pat [Omaha, United States]", user.String())

	_, err = repo.GetByRadioID(1)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	// a second sync replaces the record
	_, err = repo.UpsertBatch([]RadioUser{{RadioID: 3125001, Callsign: "N0CALL", City: "Lincoln"}})
	require.NoError(t, err)
	user, err = repo.GetByCallsign("N0CALL")
	require.NoError(t, err)
	assert.Equal(t, "Lincoln", user.City)

	matches, err := repo.FindByCallsignPattern("N0CA", 10)
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	stats, err := repo.GetStatistics()
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalUsers)
	assert.False(t, stats.LastUpdated.IsZero())

	assert.Error(t, repo.Upsert(&RadioUser{RadioID: 5}))
	assert.Error(t, repo.Upsert(nil))
	require.NoError(t, repo.DeleteAll())
	count, err := repo.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRadioUserDeleteStale(t *testing.T) {
	repo := NewRadioUserRepository(openTestDB(t).GetDB())
	require.NoError(t, repo.Upsert(&RadioUser{RadioID: 1, Callsign: "OLD"}))
	cutoff := time.Now().Add(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, repo.Upsert(&RadioUser{RadioID: 2, Callsign: "NEW"}))

	removed, err := repo.DeleteStale(cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	_, err = repo.GetByRadioID(2)
	assert.NoError(t, err)
}

func TestTalkgroupRepository(t *testing.T) {
	repo := NewTalkgroupRepository(openTestDB(t).GetDB())

	require.NoError(t, repo.Upsert("dmr", 3120, "Nebraska"))
	require.NoError(t, repo.Upsert("DMR", 3120, "Nebraska Statewide"))
	require.NoError(t, repo.Upsert("P25", 3120, "County Fire"))
	assert.Error(t, repo.Upsert("DMR", 9, " "))

	alias, err := repo.Get("DMR", 3120)
	require.NoError(t, err)
	assert.Equal(t, "Nebraska Statewide", alias.Alias)

	list, err := repo.List("p25")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "County Fire", list[0].Alias)

	require.NoError(t, repo.Delete("DMR", 3120))
	_, err = repo.Get("DMR", 3120)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestNewDecodeEvent(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	event := NewDecodeEvent(newCall(15025, 3120, ts))

	assert.Equal(t, "NXDN", event.Protocol)
	assert.Equal(t, "VOICE CALL", event.Opcode)
	assert.True(t, event.Valid)
	assert.Equal(t, uint32(15025), event.FromID)
	assert.Equal(t, uint32(3120), event.ToID)
	assert.Equal(t, ts, event.Timestamp)
	assert.Contains(t, event.Identifiers, "RAN:5")
}

func TestEventRepository(t *testing.T) {
	repo := NewEventRepository(openTestDB(t).GetDB())
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Record(newCall(100+i%2, 3120, base.Add(time.Duration(i)*time.Minute))))
	}

	recent, err := repo.Recent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.True(t, recent[0].Timestamp.After(recent[1].Timestamp))

	mine, err := repo.ByUnit(101, 10)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	counts, err := repo.CountSince(base.Add(2 * time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts["NXDN"])

	pruned, err := repo.Prune(base.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)
}

func TestHealth(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, db.Health())
	assert.Equal(t, 1, db.Stats().MaxOpenConnections)
}
