package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dbehnke/lmrdecode/internal/capture"
	"github.com/dbehnke/lmrdecode/internal/config"
	"github.com/dbehnke/lmrdecode/internal/database"
	"github.com/dbehnke/lmrdecode/internal/decoder"
	"github.com/dbehnke/lmrdecode/internal/lookup"
	"github.com/dbehnke/lmrdecode/internal/metrics"
	"github.com/dbehnke/lmrdecode/internal/protocol"
	"github.com/dbehnke/lmrdecode/internal/protocol/dmr"
	"github.com/dbehnke/lmrdecode/internal/publish"
	"github.com/dbehnke/lmrdecode/internal/radioid"
)

// App replays captured bursts through the decoder and hands every message
// to the configured sinks.
type App struct {
	config  *config.Config
	logger  *log.Logger
	metrics *metrics.Metrics
	decoder *decoder.Decoder

	// Database components (when database mode is enabled)
	db       *database.DB
	events   *database.EventRepository
	syncer   *radioid.Syncer
	dbSource *lookup.DatabaseSource

	fileSource *lookup.FileSource
	aliases    *lookup.Aliases
	publisher  *publish.Publisher

	captureDirection protocol.Direction
	nxdnDirection    protocol.Direction

	wg    sync.WaitGroup
	stats replayStats
}

type replayStats struct {
	bursts    int
	messages  int
	invalid   int
	malformed int
	rejected  int
	published int
}

// NewApp wires the components enabled in cfg. Close releases them.
func NewApp(cfg *config.Config, logger *log.Logger) (*App, error) {
	app := &App{
		config:           cfg,
		logger:           logger,
		captureDirection: protocol.ParseDirection(cfg.GetCaptureDirection()),
		nxdnDirection:    protocol.ParseDirection(cfg.GetNXDNDirection()),
	}

	if cfg.GetMetricsEnabled() {
		app.metrics = metrics.New(nil)
	}

	if err := app.initializeLookup(); err != nil {
		app.Close()
		return nil, err
	}

	app.decoder = decoder.New(
		decoder.WithLogger(logger),
		decoder.WithMetrics(app.metrics),
		decoder.WithLCOptions(
			dmr.WithMasks(cfg.GetDMRHeaderMask(), cfg.GetDMRTerminatorMask()),
			dmr.WithHistoricalResiduals(historicalResiduals(cfg.GetDMRResiduals())),
		),
		decoder.WithAliasCharset(cfg.GetDMRAliasCharset()),
	)

	if cfg.GetMQTTEnabled() {
		var opts []publish.Option
		if app.aliases != nil {
			opts = append(opts, publish.WithAliaser(app.aliases))
		}
		if app.metrics != nil {
			opts = append(opts, publish.WithObserver(app.metrics))
		}
		pub, err := publish.Connect(publish.Config{
			Broker:      cfg.GetMQTTBroker(),
			Username:    cfg.GetMQTTUsername(),
			Password:    cfg.GetMQTTPassword(),
			TopicPrefix: cfg.GetMQTTTopicPrefix(),
			QoS:         cfg.GetMQTTQoS(),
			ValidOnly:   cfg.GetMQTTValidOnly(),
		}, logger.WithPrefix("mqtt"), opts...)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to connect to MQTT broker: %w", err)
		}
		app.publisher = pub
	}

	return app, nil
}

// initializeLookup opens the database when enabled, otherwise the flat alias
// file when one is configured. Without either, messages go out unnamed.
func (a *App) initializeLookup() error {
	cfg := a.config
	if cfg.GetDatabaseEnabled() {
		db, err := database.NewDB(database.Config{
			Path:  cfg.GetDatabasePath(),
			Debug: cfg.GetDatabaseDebug(),
		}, a.logger.WithPrefix("db"))
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		a.db = db
		if cfg.GetDatabaseLogEvents() {
			a.events = database.NewEventRepository(db.GetDB())
		}

		a.dbSource = lookup.NewDatabaseSource(db.GetDB(), lookup.DatabaseConfig{
			CacheSize:   cfg.GetDatabaseCacheSize(),
			CacheExpiry: cfg.GetDatabaseCacheExpiry(),
		}, a.logger.WithPrefix("lookup"))
		a.aliases = lookup.NewAliases(a.dbSource)

		if cfg.GetRadioIDEnabled() {
			a.syncer = radioid.NewSyncerWithConfig(
				database.NewRadioUserRepository(db.GetDB()),
				a.logger.WithPrefix("radioid"),
				radioid.SyncerConfig{
					URL:          cfg.GetRadioIDURL(),
					SyncInterval: cfg.GetRadioIDSyncInterval(),
					HTTPTimeout:  cfg.GetRadioIDTimeout(),
					OnSync: func(int) {
						a.dbSource.ClearCache()
					},
				},
			)
		}
		return nil
	}

	if cfg.GetLookupFile() != "" {
		a.fileSource = lookup.NewFileSource(cfg.GetLookupFile(), cfg.GetLookupReload(), a.logger.WithPrefix("lookup"))
		if err := a.fileSource.Read(); err != nil {
			a.logger.Warn("Alias file unavailable, continuing without names", "file", cfg.GetLookupFile(), "err", err)
			a.fileSource = nil
			return nil
		}
		a.aliases = lookup.NewAliases(a.fileSource)
		radios, talkgroups, _, _ := a.fileSource.Stats()
		a.logger.Info("Alias file loaded", "file", cfg.GetLookupFile(), "radios", radios, "talkgroups", talkgroups)
	}
	return nil
}

// historicalResiduals merges configured overrides into the built-in table.
func historicalResiduals(overrides []config.ResidualOverride) map[dmr.LCOpcode][]int {
	residuals := dmr.DefaultHistoricalResiduals()
	for _, o := range overrides {
		opcode := dmr.LookupLCOpcode(o.FID, o.FLCO)
		residuals[opcode] = append(residuals[opcode], o.Residual)
	}
	return residuals
}

// SyncNow runs one RadioID import.
func (a *App) SyncNow(ctx context.Context) error {
	if a.syncer == nil {
		return errors.New("radioid sync is not enabled")
	}
	return a.syncer.SyncNow(ctx)
}

// Start launches the background services: metrics endpoint, RadioID syncer
// and alias file reloads. They stop when ctx is done.
func (a *App) Start(ctx context.Context) {
	if a.metrics != nil {
		mux := http.NewServeMux()
		mux.Handle(a.config.GetMetricsPath(), a.metrics.Handler())
		server := &http.Server{
			Addr:              a.config.GetMetricsListen(),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		a.wg.Add(2)
		go func() {
			defer a.wg.Done()
			a.logger.Info("Metrics listening", "addr", server.Addr, "path", a.config.GetMetricsPath())
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("Metrics server failed", "err", err)
			}
		}()
		go func() {
			defer a.wg.Done()
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			server.Shutdown(shutdownCtx)
		}()
	}

	if a.syncer != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.syncer.Start(ctx)
		}()
	}

	if a.fileSource != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := a.fileSource.Run(ctx); err != nil {
				a.logger.Warn("Alias reloads stopped", "err", err)
			}
		}()
	}
}

// Replay decodes every burst from the capture at path ("-" reads stdin)
// until the end of the capture or ctx is done.
func (a *App) Replay(ctx context.Context, path string) error {
	var reader *capture.Reader
	if path == "-" {
		reader = capture.NewReader(os.Stdin, protocol.DirectionUnknown)
	} else {
		r, err := capture.Open(path, protocol.DirectionUnknown)
		if err != nil {
			return err
		}
		reader = r
	}
	defer reader.Close()

	a.logger.Info("Replaying capture", "path", path)
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Replay interrupted", "line", reader.Line())
			return nil
		default:
		}

		burst, err := reader.Next()
		if errors.Is(err, io.EOF) {
			a.logStats()
			return nil
		}
		if errors.Is(err, capture.ErrMalformedLine) {
			a.stats.malformed++
			a.metrics.ObserveRejected("malformed")
			a.logger.Warn("Skipping capture line", "err", err)
			continue
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		a.process(burst)
	}
}

func (a *App) process(burst decoder.Burst) {
	if burst.Direction == protocol.DirectionUnknown {
		if burst.Protocol == protocol.ProtocolNXDN {
			burst.Direction = a.nxdnDirection
		} else {
			burst.Direction = a.captureDirection
		}
	}

	a.stats.bursts++
	messages, err := a.decoder.Decode(burst)
	if err != nil {
		a.stats.rejected++
		a.logger.Warn("Burst rejected", "err", err)
		return
	}
	for _, msg := range messages {
		a.handle(msg)
	}
}

func (a *App) handle(msg protocol.Message) {
	a.stats.messages++
	if !msg.Valid() {
		a.stats.invalid++
	}

	fields := []interface{}{"protocol", msg.Protocol().String(), "valid", msg.Valid()}
	if names := a.names(msg); names != "" {
		fields = append(fields, "aliases", names)
	}
	a.logger.Info(msg.String(), fields...)

	if a.events != nil {
		if err := a.events.Record(msg); err != nil {
			a.logger.Warn("Failed to record event", "err", err)
		}
	}
	if a.publisher != nil {
		if err := a.publisher.Publish(msg); err == nil {
			a.stats.published++
		}
	}
}

// names lists the known aliases of a message's identifiers as ID=NAME.
func (a *App) names(msg protocol.Message) string {
	if a.aliases == nil {
		return ""
	}
	var parts []string
	for _, id := range msg.Identifiers() {
		if name := a.aliases.Alias(id); name != "" {
			parts = append(parts, id.String()+"="+name)
		}
	}
	return strings.Join(parts, ",")
}

func (a *App) logStats() {
	a.logger.Info("Replay complete",
		"bursts", a.stats.bursts,
		"messages", a.stats.messages,
		"invalid", a.stats.invalid,
		"malformed", a.stats.malformed,
		"rejected", a.stats.rejected,
		"published", a.stats.published,
	)
	if a.dbSource != nil {
		s := a.dbSource.Stats()
		a.logger.Info("Lookup cache", "lookups", s.Lookups, "hits", s.Hits, "misses", s.Misses, "errors", s.Errors)
	}
}

// Wait blocks until the background services have stopped.
func (a *App) Wait() {
	a.wg.Wait()
}

func (a *App) Close() {
	if a.publisher != nil {
		a.publisher.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("Failed to close database", "err", err)
		}
	}
}
