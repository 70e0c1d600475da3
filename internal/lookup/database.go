package lookup

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"

	"github.com/dbehnke/lmrdecode/internal/database"
	"github.com/dbehnke/lmrdecode/internal/protocol"
)

// DatabaseConfig holds the cache options of a DatabaseSource
type DatabaseConfig struct {
	CacheSize   int           // Maximum cached entries per kind, 0 disables caching
	CacheExpiry time.Duration // Cached entries, hits and misses alike, are dropped after this
}

type cacheEntry struct {
	name  string
	found bool
}

// DatabaseSource serves names from the radio user and talkgroup tables,
// caching recent answers including misses.
type DatabaseSource struct {
	users      *database.RadioUserRepository
	talkgroups *database.TalkgroupRepository
	config     DatabaseConfig
	logger     *log.Logger

	mu         sync.Mutex
	radioCache map[uint32]cacheEntry
	tgCache    map[talkgroupKey]cacheEntry
	cleared    time.Time
	stats      Stats
}

// Stats counts lookups served by a DatabaseSource.
type Stats struct {
	Lookups uint32
	Hits    uint32
	Misses  uint32
	Errors  uint32
}

func NewDatabaseSource(db *gorm.DB, config DatabaseConfig, logger *log.Logger) *DatabaseSource {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &DatabaseSource{
		users:      database.NewRadioUserRepository(db),
		talkgroups: database.NewTalkgroupRepository(db),
		config:     config,
		logger:     logger,
		radioCache: make(map[uint32]cacheEntry),
		tgCache:    make(map[talkgroupKey]cacheEntry),
		cleared:    time.Now(),
	}
}

func (d *DatabaseSource) Callsign(radioID uint32) (string, bool) {
	d.lockFresh()
	e, ok := d.radioCache[radioID]
	d.countCachedLocked(e, ok)
	d.mu.Unlock()
	if ok {
		return e.name, e.found
	}

	user, err := d.users.GetByRadioID(radioID)
	if err == nil {
		e = cacheEntry{name: user.Callsign, found: true}
	}
	if !d.record(err) {
		return "", false
	}
	d.store(func() {
		if len(d.radioCache) >= d.config.CacheSize {
			clear(d.radioCache)
		}
		d.radioCache[radioID] = e
	})
	return e.name, e.found
}

func (d *DatabaseSource) Talkgroup(p protocol.Protocol, talkgroup uint32) (string, bool) {
	key := talkgroupKey{p, talkgroup}
	d.lockFresh()
	e, ok := d.tgCache[key]
	d.countCachedLocked(e, ok)
	d.mu.Unlock()
	if ok {
		return e.name, e.found
	}

	alias, err := d.talkgroups.Get(p.String(), talkgroup)
	if err == nil {
		e = cacheEntry{name: alias.Alias, found: true}
	}
	if !d.record(err) {
		return "", false
	}
	d.store(func() {
		if len(d.tgCache) >= d.config.CacheSize {
			clear(d.tgCache)
		}
		d.tgCache[key] = e
	})
	return e.name, e.found
}

// lockFresh takes the lock and drops the caches once they expire.
func (d *DatabaseSource) lockFresh() {
	d.mu.Lock()
	d.stats.Lookups++
	if time.Since(d.cleared) > d.config.CacheExpiry {
		clear(d.radioCache)
		clear(d.tgCache)
		d.cleared = time.Now()
	}
}

func (d *DatabaseSource) countCachedLocked(e cacheEntry, ok bool) {
	switch {
	case !ok:
	case e.found:
		d.stats.Hits++
	default:
		d.stats.Misses++
	}
}

// record counts a database answer. It reports false for errors other than
// a missing row, which must not be cached.
func (d *DatabaseSource) record(err error) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch {
	case err == nil:
		d.stats.Hits++
	case errors.Is(err, gorm.ErrRecordNotFound):
		d.stats.Misses++
	default:
		d.stats.Errors++
		d.logger.Debug("Alias lookup failed", "err", err)
		return false
	}
	return true
}

func (d *DatabaseSource) store(put func()) {
	if d.config.CacheSize <= 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	put()
}

// ClearCache drops every cached answer, for use after a sync.
func (d *DatabaseSource) ClearCache() {
	d.mu.Lock()
	defer d.mu.Unlock()
	clear(d.radioCache)
	clear(d.tgCache)
	d.cleared = time.Now()
}

func (d *DatabaseSource) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}
