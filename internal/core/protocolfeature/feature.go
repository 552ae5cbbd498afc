// Copyright (c) 2024-2025. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package protocolfeature

import "time"

// Feature is a stable catalog entry: once added to a Catalog, the pointer
// returned for a given digest never changes and the entry is never
// mutated in place. Only the entries slice the catalog holds can grow.
type Feature struct {
	Kind              FeatureKind
	FeatureDigest     Digest
	DescriptionDigest Digest
	Dependencies      []Digest

	// Builtin is non-nil when this feature corresponds to a compiled-in
	// BuiltinCode. A catalog entry with a nil Builtin is metadata-only
	// and can never be activated.
	Builtin *BuiltinFeature
}

// BuiltinFeature carries the compiled-in identity and subjective
// activation restrictions of a builtin protocol feature.
type BuiltinFeature struct {
	Code                  BuiltinCode
	Codename              string
	EnabledAsOf           time.Time
	PreactivationRequired bool
	Enabled               bool
}

// Recognition classifies how a digest relates to the catalog, collapsing
// several independent gates (cataloged, enabled, earliest-allowed-time)
// into one value callers can switch on.
type Recognition uint8

const (
	// Unrecognized means the digest has no catalog entry at all.
	Unrecognized Recognition = iota
	// Disabled means the feature is cataloged but its builtin is
	// compiled out of activation eligibility (Enabled == false).
	Disabled
	// TooEarly means the feature is cataloged and enabled, but the
	// current time precedes its EnabledAsOf restriction.
	TooEarly
	// Ready means the feature may be activated now.
	Ready
)

// ToFeatureRef renders a lightweight, JSON-friendly reference to this
// entry, used by cursor traversal results and the API projection.
func (f *Feature) ToFeatureRef() FeatureRef {
	ref := FeatureRef{
		FeatureDigest:     f.FeatureDigest,
		DescriptionDigest: f.DescriptionDigest,
		Dependencies:      append([]Digest(nil), f.Dependencies...),
	}
	if f.Builtin != nil {
		ref.Codename = f.Builtin.Codename
	}
	return ref
}

// FeatureRef is a read-only, copy-safe view of a Feature's identity
// without the internal Builtin pointer.
type FeatureRef struct {
	FeatureDigest     Digest
	DescriptionDigest Digest
	Dependencies      []Digest
	Codename          string
}
