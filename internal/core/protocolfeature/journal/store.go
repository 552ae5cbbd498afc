// Copyright (c) 2024-2025. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package journal persists a protocol feature activation log to disk so a
// node can replay it into Manager.Init on restart instead of re-deriving
// activation state from genesis. The protocol feature manager core does
// no I/O of its own; this package is that I/O's home.
package journal

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/cockroachdb/pebble"

	"github.com/xrplgo/goxrpld/internal/core/protocolfeature"
)

var (
	// ErrClosed is returned by any Store method called after Close.
	ErrClosed = errors.New("journal: store is closed")
	// ErrCorrupt is returned when a stored record fails to decode.
	ErrCorrupt = errors.New("journal: activation record is corrupt")
)

// Store is an append-only, ordinal-indexed log of
// protocolfeature.ActivationRecords backed by a PebbleDB instance.
// Ordinals are assigned by the caller (normally a Manager's
// activation-log index) and used directly as keys, so Load replays
// records in the same order they were appended.
type Store struct {
	db   *pebble.DB
	open int64
}

// Open opens (creating if necessary) a journal store rooted at path.
func Open(path string) (*Store, error) {
	opts := &pebble.Options{
		// The journal is small and append-mostly; none of the
		// nodestore backend's read-heavy tuning applies here.
		MemTableSize: 4 << 20,
	}
	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("journal: opening pebble store at %s: %w", path, err)
	}
	return &Store{db: db, open: 1}, nil
}

func ordinalKey(ordinal uint64) []byte {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], ordinal)
	return key[:]
}

// Append writes rec at ordinal, overwriting any record previously stored
// there. Ordinals are expected to be assigned densely starting at zero,
// matching a Manager's activation-log indices, so Truncate can drop a
// contiguous tail after a rollback.
func (s *Store) Append(ordinal uint64, rec protocolfeature.ActivationRecord) error {
	if atomic.LoadInt64(&s.open) == 0 {
		return ErrClosed
	}
	data, err := encodeRecord(wireRecord{
		FeatureDigest: [32]byte(rec.Digest),
		BlockNum:      rec.ActivationBlockNum,
	})
	if err != nil {
		return fmt.Errorf("journal: encoding record %d: %w", ordinal, err)
	}
	return s.db.Set(ordinalKey(ordinal), data, pebble.Sync)
}

// Truncate deletes every record with ordinal >= from, mirroring a
// Manager's PoppedBlocksTo so the on-disk log never outlives the
// in-memory activation log it backs.
func (s *Store) Truncate(from uint64) error {
	if atomic.LoadInt64(&s.open) == 0 {
		return ErrClosed
	}
	return s.db.DeleteRange(ordinalKey(from), ordinalKey(^uint64(0)), pebble.Sync)
}

// Load reads every record in the store, in ascending ordinal order — the
// order Manager.Init expects to replay them in.
func (s *Store) Load() ([]protocolfeature.ActivationRecord, error) {
	if atomic.LoadInt64(&s.open) == 0 {
		return nil, ErrClosed
	}

	iter, err := s.db.NewIter(nil)
	if err != nil {
		return nil, fmt.Errorf("journal: creating iterator: %w", err)
	}
	defer iter.Close()

	var records []protocolfeature.ActivationRecord
	for iter.First(); iter.Valid(); iter.Next() {
		wire, err := decodeRecord(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("%w: ordinal key %x: %v", ErrCorrupt, iter.Key(), err)
		}
		records = append(records, protocolfeature.ActivationRecord{
			Digest:             protocolfeature.Digest(wire.FeatureDigest),
			ActivationBlockNum: wire.BlockNum,
		})
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("journal: iterating store: %w", err)
	}
	return records, nil
}

// Close releases the underlying PebbleDB handle. Close is idempotent.
func (s *Store) Close() error {
	if !atomic.CompareAndSwapInt64(&s.open, 1, 0) {
		return nil
	}
	return s.db.Close()
}
