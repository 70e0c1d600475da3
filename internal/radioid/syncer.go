package radioid

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dbehnke/lmrdecode/internal/database"
)

const (
	// RadioIDURL is the URL to download the latest RadioID database
	RadioIDURL = "https://radioid.net/static/user.csv"

	DefaultSyncInterval = 24 * time.Hour
	RequestTimeout      = 5 * time.Minute
	MaxRetries          = 3
	RetryDelay          = 5 * time.Second
)

// Syncer keeps the radio user table in step with RadioID.net
type Syncer struct {
	repository   *database.RadioUserRepository
	logger       *log.Logger
	url          string
	syncInterval time.Duration
	retryDelay   time.Duration
	httpClient   *http.Client
	onSync       func(imported int)
}

// SyncerConfig holds configuration for the syncer
type SyncerConfig struct {
	URL          string        // CSV source (default: RadioIDURL)
	SyncInterval time.Duration // How often to sync (default: 24 hours)
	HTTPTimeout  time.Duration // Whole download timeout (default: 5 minutes)
	RetryDelay   time.Duration // Pause between download attempts (default: 5 seconds)
	OnSync       func(imported int)
}

// NewSyncer creates a syncer with the default configuration
func NewSyncer(repository *database.RadioUserRepository, logger *log.Logger) *Syncer {
	return NewSyncerWithConfig(repository, logger, SyncerConfig{})
}

func NewSyncerWithConfig(repository *database.RadioUserRepository, logger *log.Logger, config SyncerConfig) *Syncer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if config.URL == "" {
		config.URL = RadioIDURL
	}
	if config.SyncInterval <= 0 {
		config.SyncInterval = DefaultSyncInterval
	}
	if config.HTTPTimeout <= 0 {
		config.HTTPTimeout = RequestTimeout
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = RetryDelay
	}

	return &Syncer{
		repository:   repository,
		logger:       logger.WithPrefix("radioid"),
		url:          config.URL,
		syncInterval: config.SyncInterval,
		retryDelay:   config.RetryDelay,
		httpClient:   &http.Client{Timeout: config.HTTPTimeout},
		onSync:       config.OnSync,
	}
}

// Start syncs immediately and then every interval until ctx is done
func (s *Syncer) Start(ctx context.Context) {
	s.logger.Info("RadioID syncer starting", "interval", s.syncInterval)

	if err := s.SyncNow(ctx); err != nil {
		s.logger.Error("Initial RadioID sync failed", "err", err)
	}

	ticker := time.NewTicker(s.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("RadioID syncer stopping")
			return
		case <-ticker.C:
			if err := s.SyncNow(ctx); err != nil {
				s.logger.Error("RadioID sync failed", "err", err)
			}
		}
	}
}

// SyncNow downloads the user list and imports it. Users missing from the
// new list are removed once the import succeeds.
func (s *Syncer) SyncNow(ctx context.Context) error {
	startTime := time.Now()
	s.logger.Info("Starting RadioID sync", "url", s.url)

	var body io.ReadCloser
	var err error
	for attempt := 1; attempt <= MaxRetries; attempt++ {
		body, err = s.download(ctx)
		if err == nil {
			break
		}
		s.logger.Warn("Download attempt failed", "attempt", attempt, "of", MaxRetries, "err", err)

		if attempt < MaxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.retryDelay):
			}
		}
	}
	if err != nil {
		return fmt.Errorf("failed to download after %d attempts: %w", MaxRetries, err)
	}
	defer body.Close()

	users, err := s.parseCSV(body)
	if err != nil {
		return fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(users) == 0 {
		return errors.New("no valid users found in CSV")
	}

	imported, err := s.repository.UpsertBatch(users)
	if err != nil {
		return fmt.Errorf("failed to import users: %w", err)
	}
	removed, err := s.repository.DeleteStale(startTime)
	if err != nil {
		return fmt.Errorf("failed to remove stale users: %w", err)
	}

	s.logger.Info("RadioID sync completed", "imported", imported, "removed", removed, "took", time.Since(startTime).Round(time.Millisecond))
	if s.onSync != nil {
		s.onSync(imported)
	}
	return nil
}

func (s *Syncer) download(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "lmrdecode/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %s", resp.Status)
	}
	return resp.Body, nil
}

// parseCSV reads the RadioID user list. Invalid records are skipped.
func (s *Syncer) parseCSV(reader io.Reader) ([]database.RadioUser, error) {
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1
	csvReader.ReuseRecord = true

	users := make([]database.RadioUser, 0, 1024)
	lineNumber := 0
	skipped := 0
	for {
		record, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV at line %d: %w", lineNumber+1, err)
		}
		lineNumber++

		if lineNumber == 1 && len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "RADIO_ID") {
			continue
		}

		user, err := parseCSVRecord(record)
		if err != nil {
			skipped++
			s.logger.Debug("Skipping invalid record", "line", lineNumber, "err", err)
			continue
		}
		users = append(users, user)
	}

	if skipped > 0 {
		s.logger.Info("Skipped invalid RadioID records", "count", skipped)
	}
	return users, nil
}

// parseCSVRecord parses RADIO_ID,CALLSIGN,FIRST_NAME,LAST_NAME,CITY,STATE,COUNTRY
func parseCSVRecord(record []string) (database.RadioUser, error) {
	if len(record) < 7 {
		return database.RadioUser{}, fmt.Errorf("insufficient fields (got %d, expected 7)", len(record))
	}

	radioIDStr := strings.TrimSpace(record[0])
	radioID, err := strconv.ParseUint(radioIDStr, 10, 32)
	if err != nil {
		return database.RadioUser{}, fmt.Errorf("invalid radio ID %q: %w", radioIDStr, err)
	}

	user := database.RadioUser{
		RadioID:   uint32(radioID),
		Callsign:  record[1],
		FirstName: record[2],
		LastName:  record[3],
		City:      record[4],
		State:     record[5],
		Country:   record[6],
	}
	user.SanitizeFields()
	if !user.IsValid() {
		return database.RadioUser{}, errors.New("radio ID and callsign are required")
	}
	return user, nil
}

// GetSyncStatistics returns the user table statistics
func (s *Syncer) GetSyncStatistics() (*database.Statistics, error) {
	return s.repository.GetStatistics()
}

// Interval returns the time between syncs
func (s *Syncer) Interval() time.Duration {
	return s.syncInterval
}
