// Copyright (c) 2024-2025. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package protocolfeature

// SubjectiveRestrictionsJSON is the operator-facing restriction
// sub-object: whether the feature is enabled at all, whether
// preactivation is required before it may activate, and the earliest
// wall-clock time activation is allowed.
type SubjectiveRestrictionsJSON struct {
	Enabled                       bool   `json:"enabled"`
	PreactivationRequired         bool   `json:"preactivation_required"`
	EarliestAllowedActivationTime string `json:"earliest_allowed_activation_time"`
}

// SpecEntryJSON is one {name, value} pair in a feature's specification
// array. Only one entry is defined today (builtin_feature_codename), but
// the array shape leaves room for more without a wire format change.
type SpecEntryJSON struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// FeatureJSON is the wire projection of a catalog entry, shaped to match
// the digest-keyed object the feature RPC method returns: a map from hex
// feature digest to this struct, the same convention the existing
// amendment-status endpoint uses for its hex-ID-keyed response.
type FeatureJSON struct {
	FeatureDigest       string   `json:"feature_digest"`
	DescriptionDigest   string   `json:"description_digest"`
	Dependencies        []string `json:"dependencies"`
	ProtocolFeatureType string   `json:"protocol_feature_type"`

	SubjectiveRestrictions *SubjectiveRestrictionsJSON `json:"subjective_restrictions,omitempty"`
	Specification          []SpecEntryJSON             `json:"specification,omitempty"`

	// Codename, Enabled and PreactivationRequired duplicate fields
	// already nested under SubjectiveRestrictions/Specification above;
	// kept flat too since the existing feature RPC handler and CLI
	// command already read them this way.
	Codename              string  `json:"codename,omitempty"`
	Enabled               bool    `json:"enabled"`
	PreactivationRequired bool    `json:"preactivation_required,omitempty"`
	Active                bool    `json:"active"`
	ActivationBlockNum    *uint32 `json:"activation_block_num,omitempty"`
}

// ToJSON renders f as its wire projection. activatedAt and active convey
// the manager's current view of this feature's activation status; a
// catalog entry has no activation state of its own, so callers rendering
// a bare catalog (no manager) pass active=false, activatedAt=0.
func (f *Feature) ToJSON(active bool, activatedAt uint32) FeatureJSON {
	deps := make([]string, len(f.Dependencies))
	for i, d := range f.Dependencies {
		deps[i] = d.String()
	}

	out := FeatureJSON{
		FeatureDigest:       f.FeatureDigest.String(),
		DescriptionDigest:   f.DescriptionDigest.String(),
		Dependencies:        deps,
		ProtocolFeatureType: "builtin",
		Active:              active,
	}
	if f.Builtin != nil {
		out.Codename = f.Builtin.Codename
		out.Enabled = f.Builtin.Enabled
		out.PreactivationRequired = f.Builtin.PreactivationRequired
		out.SubjectiveRestrictions = &SubjectiveRestrictionsJSON{
			Enabled:                       f.Builtin.Enabled,
			PreactivationRequired:         f.Builtin.PreactivationRequired,
			EarliestAllowedActivationTime: f.Builtin.EnabledAsOf.UTC().Format("2006-01-02T15:04:05Z"),
		}
		out.Specification = []SpecEntryJSON{
			{Name: "builtin_feature_codename", Value: f.Builtin.Codename},
		}
	}
	if active {
		bn := activatedAt
		out.ActivationBlockNum = &bn
	}
	return out
}

// SnapshotJSON renders every feature in catalog as a digest-keyed map,
// consulting manager (which may be nil) for each entry's activation
// status.
func SnapshotJSON(catalog *Catalog, manager *Manager) map[string]FeatureJSON {
	out := make(map[string]FeatureJSON, len(catalog.entries))
	for _, f := range catalog.entries {
		var active bool
		var activatedAt uint32
		if manager != nil && f.Builtin != nil {
			activatedAt, active = manager.ActivatedAt(f.Builtin.Code)
		}
		out[f.FeatureDigest.String()] = f.ToJSON(active, activatedAt)
	}
	return out
}
