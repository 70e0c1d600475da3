package lookup

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dbehnke/lmrdecode/internal/protocol"
)

type talkgroupKey struct {
	protocol  protocol.Protocol
	talkgroup uint32
}

// FileSource serves names from a text file, reloading it periodically.
// Each line is either a radio ID and callsign
//
//	3125001 N0CALL
//
// or a talkgroup alias for one protocol
//
//	TG DMR 3120 Nebraska Statewide
//
// Blank lines and lines starting with # are ignored.
type FileSource struct {
	filename string
	interval time.Duration
	logger   *log.Logger

	mu         sync.RWMutex
	callsigns  map[uint32]string
	talkgroups map[talkgroupKey]string
	lastReload time.Time
	reloads    int
}

// NewFileSource creates a source for filename. An interval of zero
// disables reloading.
func NewFileSource(filename string, interval time.Duration, logger *log.Logger) *FileSource {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &FileSource{
		filename:   filename,
		interval:   interval,
		logger:     logger,
		callsigns:  make(map[uint32]string),
		talkgroups: make(map[talkgroupKey]string),
	}
}

// Read loads the file, replacing the current entries only on success.
func (f *FileSource) Read() error {
	file, err := os.Open(f.filename)
	if err != nil {
		return fmt.Errorf("open alias file %s: %w", f.filename, err)
	}
	defer file.Close()

	callsigns := make(map[uint32]string)
	talkgroups := make(map[talkgroupKey]string)
	scanner := bufio.NewScanner(file)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if strings.EqualFold(fields[0], "TG") {
			key, name, ok := parseTalkgroup(fields)
			if !ok {
				f.logger.Debug("Skipping invalid talkgroup line", "line", lineNumber)
				continue
			}
			talkgroups[key] = name
			continue
		}
		if len(fields) < 2 {
			f.logger.Debug("Skipping invalid line", "line", lineNumber)
			continue
		}
		id, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			f.logger.Debug("Invalid radio ID", "line", lineNumber, "id", fields[0])
			continue
		}
		callsign := strings.ToUpper(fields[1])
		if len(callsign) > 20 {
			f.logger.Debug("Invalid callsign", "line", lineNumber, "callsign", callsign)
			continue
		}
		callsigns[uint32(id)] = callsign
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read alias file %s: %w", f.filename, err)
	}

	f.mu.Lock()
	f.callsigns = callsigns
	f.talkgroups = talkgroups
	f.lastReload = time.Now()
	f.reloads++
	f.mu.Unlock()

	f.logger.Debug("Loaded aliases", "file", f.filename, "radios", len(callsigns), "talkgroups", len(talkgroups))
	return nil
}

func parseTalkgroup(fields []string) (talkgroupKey, string, bool) {
	if len(fields) < 4 {
		return talkgroupKey{}, "", false
	}
	p, err := protocol.ParseProtocol(fields[1])
	if err != nil {
		return talkgroupKey{}, "", false
	}
	tg, err := strconv.ParseUint(fields[2], 10, 32)
	if err != nil {
		return talkgroupKey{}, "", false
	}
	return talkgroupKey{p, uint32(tg)}, strings.Join(fields[3:], " "), true
}

// Run loads the file and then reloads it every interval until ctx is done.
// A failed reload keeps the previous entries.
func (f *FileSource) Run(ctx context.Context) error {
	if err := f.Read(); err != nil {
		return err
	}
	if f.interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := f.Read(); err != nil {
				f.logger.Warn("Alias reload failed", "err", err)
			}
		}
	}
}

func (f *FileSource) Callsign(radioID uint32) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	name, ok := f.callsigns[radioID]
	return name, ok
}

func (f *FileSource) Talkgroup(p protocol.Protocol, talkgroup uint32) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	name, ok := f.talkgroups[talkgroupKey{p, talkgroup}]
	return name, ok
}

// Stats reports the entry counts and the last successful load.
func (f *FileSource) Stats() (radios, talkgroups, reloads int, lastReload time.Time) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.callsigns), len(f.talkgroups), f.reloads, f.lastReload
}
