// Package actions persists the agent's action log in a WAL so the dashboard
// can replay and stream it.
package actions

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/vadiminshakov/dcagent/internal/domain"
)

const (
	defaultActionDir   = "./wal/actions"
	actionSegmentLimit = 100
	actionMaxSegments  = 10
	actionKeyPrefix    = "action_"
)

// WALStore is the append-only action log. One entry per terminal action
// outcome, success or failure.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore opens (or creates) the action WAL under dir.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = defaultActionDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "action_",
		SegmentThreshold: actionSegmentLimit,
		MaxSegments:      actionMaxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init action WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Save appends a terminal action record. Non-terminal records are rejected so
// the log never carries partial outcomes.
func (s *WALStore) Save(record domain.ActionRecord) error {
	if s == nil || s.wal == nil {
		return errors.New("action store is not initialized")
	}
	if !record.Terminal() {
		return fmt.Errorf("action record %s is not terminal", record.ID)
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "marshal action record")
	}

	key := fmt.Sprintf("%s%s", actionKeyPrefix, record.Kind)

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, key, payload)
}

// RecordsAfter returns all action records written after the provided index,
// oldest first.
func (s *WALStore) RecordsAfter(index uint64) ([]domain.ActionRecordEntry, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("action store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	entries := make([]domain.ActionRecordEntry, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil || !strings.HasPrefix(key, actionKeyPrefix) {
			continue
		}
		var record domain.ActionRecord
		if err := json.Unmarshal(payload, &record); err != nil {
			return nil, errors.Wrap(err, "decode action record")
		}
		entries = append(entries, domain.ActionRecordEntry{
			Index:  idx,
			Record: record,
		})
	}

	return entries, nil
}

// CurrentIndex returns the latest WAL index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("action store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
