// Package history durably remembers which destination message a source
// message produced, so edits, deletions and resume-after-restart can be
// reconciled. The in-memory cache is the single source of truth for reads;
// every write re-serializes the whole mapping and atomically replaces the
// on-disk file.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
)

const (
	historyFile = "messages_history.json"
	missedFile  = "missed_messages_history.json"
)

// ErrNotFound reports that no destination message is recorded for a
// (forwarder, source id) pair. Distinct from I/O failures so callers can
// assert on the failure kind.
var ErrNotFound = errors.New("message not found in history")

// MissedEntry is one delivery failure in the missed-message ledger. Its
// durable form is the 2-element [destination_channel_id, reason] array.
type MissedEntry struct {
	DiscordChannelID int64
	Reason           string
}

func (e MissedEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{e.DiscordChannelID, e.Reason})
}

func (e *MissedEntry) UnmarshalJSON(data []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[0], &e.DiscordChannelID); err != nil {
		return fmt.Errorf("missed entry channel id: %w", err)
	}
	if err := json.Unmarshal(raw[1], &e.Reason); err != nil {
		return fmt.Errorf("missed entry reason: %w", err)
	}
	return nil
}

// LastMessage is the most recent recorded correspondence for one forwarder.
type LastMessage struct {
	ForwarderName string `json:"forwarder_name"`
	SourceID      int64  `json:"source_message_id"`
	DestinationID int64  `json:"destination_message_id"`
}

// Store owns the message-history mapping, the missed-message ledger, and
// the files backing them. All mutating operations hold one mutex for the
// whole read-modify-write-persist sequence so concurrent relays cannot
// interleave partial writes.
type Store struct {
	dir        string
	limitBytes int64
	log        zerolog.Logger

	mu sync.Mutex
	// nil until the lazy load has run; keys are source message ids
	// rendered as decimal strings, matching the on-disk document.
	history map[string]map[string]int64
	missed  map[string]map[string]MissedEntry
}

// New creates a store rooted at dir. limitMB is the size threshold, in
// megabytes, above which RotateIfOversized truncates both files.
func New(dir string, limitMB float64, log zerolog.Logger) *Store {
	return &Store{
		dir:        dir,
		limitBytes: int64(limitMB * 1024 * 1024),
		log:        log.With().Str("component", "history").Logger(),
	}
}

func (s *Store) historyPath() string { return filepath.Join(s.dir, historyFile) }
func (s *Store) missedPath() string  { return filepath.Join(s.dir, missedFile) }

// loadLocked populates both caches from disk on first access. A missing or
// empty file is an empty mapping, not an error. Callers hold s.mu.
func (s *Store) loadLocked() error {
	if s.history != nil {
		return nil
	}
	history := make(map[string]map[string]int64)
	if err := readJSON(s.historyPath(), &history); err != nil {
		return fmt.Errorf("loading message history: %w", err)
	}
	missed := make(map[string]map[string]MissedEntry)
	if err := readJSON(s.missedPath(), &missed); err != nil {
		return fmt.Errorf("loading missed-message ledger: %w", err)
	}
	s.history = history
	s.missed = missed
	s.log.Debug().Int("forwarders", len(history)).Msg("history mapping loaded")
	return nil
}

// Lookup returns the destination message id recorded for the given source
// message under the named forwarder. Returns ErrNotFound when either the
// forwarder or the id is unknown.
func (s *Store) Lookup(forwarderName string, sourceID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return 0, err
	}
	destID, ok := s.history[forwarderName][sourceKey(sourceID)]
	if !ok {
		return 0, ErrNotFound
	}
	return destID, nil
}

// RecordSuccess upserts the correspondence for a delivered message. The
// full mapping is re-serialized and atomically replaces the history file;
// the cache is updated only once the durable write succeeded. On failure
// the previous durable state is left intact and the error is returned
// without retry.
func (s *Store) RecordSuccess(forwarderName string, sourceID, destID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		s.log.Error().Err(err).Msg("cannot load history before recording")
		return err
	}

	next := cloneMapping(s.history)
	entries := next[forwarderName]
	if entries == nil {
		entries = make(map[string]int64)
		next[forwarderName] = entries
	}
	entries[sourceKey(sourceID)] = destID

	if err := writeJSONAtomic(s.historyPath(), next); err != nil {
		s.log.Error().Err(err).
			Str("forwarder", forwarderName).
			Int64("source_id", sourceID).
			Msg("persisting message history failed")
		return fmt.Errorf("persisting message history: %w", err)
	}
	s.history = next
	return nil
}

// RecordFailure upserts a delivery failure into the missed-message ledger.
// The primary history mapping is not touched.
func (s *Store) RecordFailure(forwarderName string, sourceID, destChannelID int64, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		s.log.Error().Err(err).Msg("cannot load history before recording failure")
		return err
	}

	next := cloneMapping(s.missed)
	entries := next[forwarderName]
	if entries == nil {
		entries = make(map[string]MissedEntry)
		next[forwarderName] = entries
	}
	entries[sourceKey(sourceID)] = MissedEntry{DiscordChannelID: destChannelID, Reason: reason}

	if err := writeJSONAtomic(s.missedPath(), next); err != nil {
		s.log.Error().Err(err).
			Str("forwarder", forwarderName).
			Int64("source_id", sourceID).
			Msg("persisting missed-message ledger failed")
		return fmt.Errorf("persisting missed-message ledger: %w", err)
	}
	s.missed = next
	return nil
}

// LastMessages returns, for every forwarder with at least one entry, the
// correspondence with the numerically largest source id. Source ids are
// compared as integers, not lexicographically. The result is sorted by
// forwarder name; forwarders with no entries are omitted.
func (s *Store) LastMessages() ([]LastMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return nil, err
	}

	var last []LastMessage
	for name, entries := range s.history {
		found := false
		var maxID, destID int64
		for key, dest := range entries {
			id, err := strconv.ParseInt(key, 10, 64)
			if err != nil {
				s.log.Warn().Str("forwarder", name).Str("key", key).Msg("skipping non-numeric history key")
				continue
			}
			if !found || id > maxID {
				found = true
				maxID, destID = id, dest
			}
		}
		if found {
			last = append(last, LastMessage{ForwarderName: name, SourceID: maxID, DestinationID: destID})
		}
	}
	sort.Slice(last, func(i, j int) bool { return last[i].ForwarderName < last[j].ForwarderName })
	return last, nil
}

// RotateIfOversized truncates both files to empty when either exceeds the
// configured threshold, and drops the caches with them. The mapping is a
// resume aid, not an audit log; unbounded growth is the bigger risk.
func (s *Store) RotateIfOversized() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	oversized := false
	for _, path := range []string{s.historyPath(), s.missedPath()} {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return false, fmt.Errorf("checking history file size: %w", err)
		}
		if info.Size() > s.limitBytes {
			oversized = true
		}
	}
	if !oversized {
		return false, nil
	}

	for _, path := range []string{s.historyPath(), s.missedPath()} {
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			s.log.Error().Err(err).Str("path", path).Msg("rotating history file failed")
			return false, fmt.Errorf("rotating history file: %w", err)
		}
	}
	s.history = make(map[string]map[string]int64)
	s.missed = make(map[string]map[string]MissedEntry)
	s.log.Info().Msg("history files rotated")
	return true, nil
}

func sourceKey(id int64) string { return strconv.FormatInt(id, 10) }

func cloneMapping[V any](src map[string]map[string]V) map[string]map[string]V {
	next := make(map[string]map[string]V, len(src))
	for name, entries := range src {
		inner := make(map[string]V, len(entries))
		for k, v := range entries {
			inner[k] = v
		}
		next[name] = inner
	}
	return next
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(data) == 0 {
		// Rotation leaves empty files behind; treat them as empty mappings.
		return nil
	}
	return json.Unmarshal(data, v)
}

// writeJSONAtomic serializes v to a temp file in the target directory and
// renames it over path, so a crash mid-write never leaves a half-written
// document behind.
func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
