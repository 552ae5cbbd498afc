// Copyright (c) 2024-2025. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package protocolfeature

const (
	notActive  = -1
	noPrevious = -1
)

// ActivationRecord is the in-memory, already-decoded shape of one
// activation log entry, the unit Init replays and the unit the journal
// package persists. The PFM core never performs I/O itself; a
// persistence collaborator is responsible for turning durable storage
// into a []ActivationRecord and handing it to Init.
type ActivationRecord struct {
	Digest             Digest
	ActivationBlockNum uint32
}

// activationEntry is one record in the reversible activation log. Previous
// links back to the index that was head of the LIFO stack immediately
// before this entry was pushed, letting PoppedBlocksTo unwind activations
// one at a time without rescanning the whole log — the intrusive-stack
// trick a block-number-indexed log needs to make fork rollback O(k) in
// the number of entries being undone rather than O(n) in log length.
type activationEntry struct {
	Digest   Digest
	BlockNum uint32
	Previous int
}

// Manager is the activation log: a monotonic, reversible record of which
// builtin features have been activated and at which block. It consults a
// Catalog to resolve digests but never mutates it.
//
// Like Catalog, Manager assumes a single mutator; concurrent calls to
// ActivateFeature or PoppedBlocksTo on the same Manager race. Readers
// (IsBuiltinActivated, cursor traversal) are safe to call concurrently
// with each other but not with a concurrent mutator.
type Manager struct {
	catalog     *Catalog
	entries     []activationEntry
	builtinSlot []int
	head        int
	initialized bool
}

// NewManager returns a Manager bound to catalog. The manager must be
// initialized with Init before any feature can be activated.
func NewManager(catalog *Catalog) *Manager {
	slots := make([]int, numBuiltinCodes+1)
	for i := range slots {
		slots[i] = notActive
	}
	return &Manager{
		catalog:     catalog,
		builtinSlot: slots,
		head:        noPrevious,
	}
}

func (m *Manager) slotIndex(code BuiltinCode) int {
	return int(code)
}

// slotEntry returns the log index stored in code's slot, or notActive
// when code is outside the slot array entirely, so query methods can be
// handed an arbitrary code value without panicking.
func (m *Manager) slotEntry(code BuiltinCode) int {
	idx := m.slotIndex(code)
	if idx <= 0 || idx >= len(m.builtinSlot) {
		return notActive
	}
	return m.builtinSlot[idx]
}

// Init replays journal, in order, establishing the manager's initial
// state — typically either an empty journal at genesis, or the durable
// log a persistence collaborator loaded from disk on restart. If replay
// fails partway through, every activation already applied in this call
// is rolled back before Init returns the error, so a failed Init leaves
// the manager exactly as uninitialized as it started.
func (m *Manager) Init(journal []ActivationRecord) (err error) {
	if m.initialized {
		return ErrDoubleInit
	}

	start := len(m.entries)
	defer func() {
		if err != nil {
			m.rollbackTo(start)
		} else {
			m.initialized = true
		}
	}()

	for _, rec := range journal {
		if err = m.applyActivation(rec.Digest, rec.ActivationBlockNum); err != nil {
			return err
		}
	}
	return nil
}

// rollbackTo pops entries until the log is back to length n, used to
// unwind a partially-applied Init.
func (m *Manager) rollbackTo(n int) {
	for len(m.entries) > n {
		m.popHead()
	}
}

// popHead removes the most recently activated entry from the log and
// frees its builtin's slot.
func (m *Manager) popHead() {
	idx := m.head
	entry := m.entries[idx]

	if feature := m.catalog.Feature(entry.Digest); feature != nil && feature.Builtin != nil {
		m.builtinSlot[m.slotIndex(feature.Builtin.Code)] = notActive
	}
	m.head = entry.Previous
	m.entries = m.entries[:len(m.entries)-1]
}

// ActivateFeature records the activation of the builtin feature
// identified by digest at blockNum. It enforces:
//
//   - the manager must be initialized first;
//   - digest must name a recognized, builtin catalog entry;
//   - that builtin must not already be active;
//   - blockNum must not regress relative to the last activation
//     recorded in the log.
func (m *Manager) ActivateFeature(digest Digest, blockNum uint32) error {
	if !m.initialized {
		return ErrNotInitialized
	}
	return m.applyActivation(digest, blockNum)
}

func (m *Manager) applyActivation(digest Digest, blockNum uint32) error {
	feature := m.catalog.Feature(digest)
	if feature == nil {
		return &UnrecognizedFeatureError{Digest: digest}
	}
	if feature.Builtin == nil {
		return ErrUnsupportedFeatureKind
	}

	if n := len(m.entries); n > 0 {
		if last := m.entries[n-1].BlockNum; blockNum < last {
			return &NonMonotonicActivationError{CurrentBlock: blockNum, LastBlock: last}
		}
	}

	slot := m.slotIndex(feature.Builtin.Code)
	if m.builtinSlot[slot] != notActive {
		return ErrAlreadyActivated
	}

	entry := activationEntry{Digest: digest, BlockNum: blockNum, Previous: m.head}
	m.entries = append(m.entries, entry)
	idx := len(m.entries) - 1
	m.head = idx
	m.builtinSlot[slot] = idx
	return nil
}

// PoppedBlocksTo reverses every activation recorded at a block number
// strictly greater than blockNum, implementing the fork-switch rollback
// the activation log exists to support. Activations at or below blockNum
// are left untouched. Because activation blocks are monotone along the
// log, popping from the tail stops at the first surviving entry.
func (m *Manager) PoppedBlocksTo(blockNum uint32) {
	for len(m.entries) > 0 && m.entries[len(m.entries)-1].BlockNum > blockNum {
		m.popHead()
	}
}

// IsBuiltinActivated reports whether code has an activation entry at a
// block number at or before blockNum. The comparison is inclusive so
// that an activation finalized at block N is already visible to queries
// made while processing block N itself.
func (m *Manager) IsBuiltinActivated(code BuiltinCode, blockNum uint32) bool {
	idx := m.slotEntry(code)
	if idx == notActive {
		return false
	}
	return m.entries[idx].BlockNum <= blockNum
}

// IsBuiltinActivatedStrict is IsBuiltinActivated with strict ("<")
// semantics, for callers that need to exclude activation at exactly
// blockNum — for instance, code deciding whether a feature's new rules
// apply to blockNum itself versus only to blocks after it.
func (m *Manager) IsBuiltinActivatedStrict(code BuiltinCode, blockNum uint32) bool {
	idx := m.slotEntry(code)
	if idx == notActive {
		return false
	}
	return m.entries[idx].BlockNum < blockNum
}

// ActivatedAt returns the block number at which code was activated, and
// whether it has been activated at all.
func (m *Manager) ActivatedAt(code BuiltinCode) (uint32, bool) {
	idx := m.slotEntry(code)
	if idx == notActive {
		return 0, false
	}
	return m.entries[idx].BlockNum, true
}

// Initialized reports whether Init has completed successfully.
func (m *Manager) Initialized() bool {
	return m.initialized
}

// EntryCount returns the number of entries currently in the activation
// log, for metrics and the journal's replay bookkeeping.
func (m *Manager) EntryCount() int {
	return len(m.entries)
}

// EntryAt returns the ActivationRecord at log index idx, so a persistence
// collaborator can append newly created entries to durable storage
// without needing access to the manager's internal representation.
func (m *Manager) EntryAt(idx int) ActivationRecord {
	e := m.entries[idx]
	return ActivationRecord{Digest: e.Digest, ActivationBlockNum: e.BlockNum}
}
