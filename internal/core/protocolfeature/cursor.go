// Copyright (c) 2024-2025. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package protocolfeature

import "sort"

// Cursor is a bidirectional, random-access reference into a Manager's
// activation log, addressable by activation ordinal or block number. A Cursor
// becomes invalid if the entry it points to is rolled back by
// PoppedBlocksTo; callers that hold a Cursor across a rollback must
// re-derive it.
//
// Cursor is a small value type (a manager pointer plus an index), not a
// stateful iterator object. Next and Prev return a new Cursor rather than
// mutating in place, and every accessor reports misuse (an End cursor,
// stepping past either end of the log) through ErrIteratorMisuse instead
// of panicking.
type Cursor struct {
	m   *Manager
	idx int
}

// Begin returns a cursor at the first (earliest-activated) log entry.
// If the log is empty, Begin returns the same cursor as End.
func (m *Manager) Begin() Cursor {
	return Cursor{m: m, idx: 0}
}

// End returns the past-the-end cursor, matching the conventional
// half-open-range idiom: valid for comparison but never for Feature.
func (m *Manager) End() Cursor {
	return Cursor{m: m, idx: len(m.entries)}
}

// AtActivationOrdinal returns a cursor at the entry activated ordinal-th,
// zero-indexed in activation order. An out-of-range ordinal returns End.
func (m *Manager) AtActivationOrdinal(ordinal int) Cursor {
	if ordinal < 0 || ordinal >= len(m.entries) {
		return m.End()
	}
	return Cursor{m: m, idx: ordinal}
}

// LowerBound returns a cursor at the first entry activated at a block
// number >= blockNum, or End if no such entry exists.
func (m *Manager) LowerBound(blockNum uint32) Cursor {
	idx := sort.Search(len(m.entries), func(i int) bool {
		return m.entries[i].BlockNum >= blockNum
	})
	return Cursor{m: m, idx: idx}
}

// UpperBound returns a cursor at the first entry activated at a block
// number > blockNum, or End if no such entry exists.
func (m *Manager) UpperBound(blockNum uint32) Cursor {
	idx := sort.Search(len(m.entries), func(i int) bool {
		return m.entries[i].BlockNum > blockNum
	})
	return Cursor{m: m, idx: idx}
}

// Valid reports whether c refers to an actual entry, as opposed to End, a
// singular (zero-value) cursor, or a stale index from before a rollback
// shortened the log.
func (c Cursor) Valid() bool {
	return c.m != nil && c.idx >= 0 && c.idx < len(c.m.entries)
}

// Next returns the cursor for the entry activated immediately after c's.
// Advancing from End (or a stale cursor already past the log's end)
// returns ErrIteratorMisuse. A singular cursor also fails rather than
// panicking on its nil manager.
func (c Cursor) Next() (Cursor, error) {
	if c.m == nil || c.idx >= len(c.m.entries) {
		return Cursor{}, ErrIteratorMisuse
	}
	return Cursor{m: c.m, idx: c.idx + 1}, nil
}

// Prev returns the cursor for the entry activated immediately before c's.
// Stepping back from Begin, or from a singular cursor, returns
// ErrIteratorMisuse.
func (c Cursor) Prev() (Cursor, error) {
	if c.m == nil || c.idx <= 0 {
		return Cursor{}, ErrIteratorMisuse
	}
	return Cursor{m: c.m, idx: c.idx - 1}, nil
}

// Feature returns the catalog entry activated at this cursor's position.
// It returns ErrIteratorMisuse if the cursor is not Valid.
func (c Cursor) Feature() (*Feature, error) {
	if !c.Valid() {
		return nil, ErrIteratorMisuse
	}
	return c.m.catalog.Feature(c.m.entries[c.idx].Digest), nil
}

// ActivationOrdinal returns the zero-based position of this cursor within
// the activation log.
func (c Cursor) ActivationOrdinal() (int, error) {
	if !c.Valid() {
		return 0, ErrIteratorMisuse
	}
	return c.idx, nil
}

// ActivationBlockNum returns the block number at which the entry this
// cursor points to was activated.
func (c Cursor) ActivationBlockNum() (uint32, error) {
	if !c.Valid() {
		return 0, ErrIteratorMisuse
	}
	return c.m.entries[c.idx].BlockNum, nil
}
