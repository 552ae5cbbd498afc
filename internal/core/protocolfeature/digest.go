// Copyright (c) 2024-2025. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package protocolfeature

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sort"
)

// Digest is a 32-byte content hash identifying either a protocol feature
// (FeatureDigest) or a human-readable description (description digest).
// Both share the same representation so the catalog can compare them
// uniformly.
type Digest [32]byte

// String renders the digest as lowercase hex, matching the wire form used
// by the persistence journal and the API projection.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// IsZero reports whether d is the zero digest, used as a "no value"
// sentinel where Go's lack of nullable value types would otherwise need a
// pointer or a second boolean.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// DigestFromHex parses a lowercase or uppercase hex string into a Digest.
func DigestFromHex(s string) (Digest, error) {
	var d Digest
	b, err := hex.DecodeString(s)
	if err != nil {
		return d, err
	}
	if len(b) != len(d) {
		return d, errShortHex
	}
	copy(d[:], b)
	return d, nil
}

var errShortHex = &hexLengthError{}

type hexLengthError struct{}

func (*hexLengthError) Error() string { return "protocolfeature: hex digest must be exactly 32 bytes" }

// FeatureKind distinguishes the encoding of a catalog entry. Only Builtin
// is supported by the activation path today, but the kind byte is mixed
// into every digest so a future kind can be introduced without changing
// digests already computed for builtin features.
type FeatureKind uint8

const (
	FeatureKindBuiltin FeatureKind = 1
)

// sortDigests returns a new, ascending-sorted copy of ds, comparing raw
// bytes. Sorting the dependency set before hashing is what makes
// ComputeDigest insensitive to the order dependencies were declared in.
func sortDigests(ds []Digest) []Digest {
	out := make([]Digest, len(ds))
	copy(out, ds)
	sort.Slice(out, func(i, j int) bool {
		return lessDigest(out[i], out[j])
	})
	return out
}

func lessDigest(a, b Digest) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// ComputeDigest deterministically hashes the fields that identify a
// protocol feature: its kind, description digest, sorted dependency set,
// and (for builtins) its code. This canonical encoding is consensus
// critical — changing field order, width, or the sort discipline below
// changes every digest computed from it.
func ComputeDigest(kind FeatureKind, descriptionDigest Digest, dependencies []Digest, code BuiltinCode) Digest {
	h := sha256.New()

	h.Write([]byte{byte(kind)})
	h.Write(descriptionDigest[:])

	sorted := sortDigests(dependencies)
	var countBuf [4]byte
	binary.BigEndian.PutUint32(countBuf[:], uint32(len(sorted)))
	h.Write(countBuf[:])
	for _, d := range sorted {
		h.Write(d[:])
	}

	var codeBuf [4]byte
	binary.BigEndian.PutUint32(codeBuf[:], uint32(code))
	h.Write(codeBuf[:])

	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// VerifyDescription reports whether description hashes to digest under the
// same SHA-256 canonicalization the catalog uses for every builtin's
// description digest.
func VerifyDescription(digest Digest, description string) bool {
	return sha256.Sum256([]byte(description)) == digest
}

// DescriptionDigest computes the description digest for a canonical
// description string, matching VerifyDescription's convention.
func DescriptionDigest(description string) Digest {
	return sha256.Sum256([]byte(description))
}
