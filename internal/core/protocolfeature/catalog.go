// Copyright (c) 2024-2025. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package protocolfeature

import "time"

// Catalog is an append-only collection of recognized protocol features,
// each reachable by its FeatureDigest. Insertion enforces dependency
// closure (every dependency digest a feature declares must already be
// cataloged when that feature is added) and digest uniqueness (a digest,
// once inserted, is never reused by a different entry).
//
// Catalog carries no internal synchronization; a single mutator is
// expected to build it up (typically once, at startup) before handing
// read-only access to concurrent readers.
type Catalog struct {
	entries   []*Feature
	byDigest  map[Digest]*Feature
	byBuiltin map[BuiltinCode]*Feature
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		byDigest:  make(map[Digest]*Feature),
		byBuiltin: make(map[BuiltinCode]*Feature),
	}
}

// NewDefaultCatalog returns a catalog preloaded with every compiled-in
// builtin feature, inserted in dependency order. This is the catalog a
// node boots with absent any operator overrides.
func NewDefaultCatalog() (*Catalog, error) {
	c := NewCatalog()
	for _, spec := range builtinSpecs {
		if _, err := c.MakeDefaultBuiltin(spec.Code); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// IsRecognized reports whether digest names an entry in the catalog.
func (c *Catalog) IsRecognized(digest Digest) bool {
	_, ok := c.byDigest[digest]
	return ok
}

// Recognize classifies digest against the catalog and the subjective
// restrictions carried by its builtin (if any) as of now, collapsing
// cataloged/enabled/earliest-allowed-time into a single Recognition
// value. Whether preactivation is required is deliberately not consulted
// here; that gate belongs to the caller deciding whether to propose. A
// non-builtin catalog entry (Builtin == nil) is always Ready once
// cataloged, since it carries no subjective restrictions of its own.
func (c *Catalog) Recognize(digest Digest, now time.Time) Recognition {
	f, ok := c.byDigest[digest]
	if !ok {
		return Unrecognized
	}
	if f.Builtin == nil {
		return Ready
	}
	if !f.Builtin.Enabled {
		return Disabled
	}
	if !f.Builtin.EnabledAsOf.IsZero() && now.Before(f.Builtin.EnabledAsOf) {
		return TooEarly
	}
	return Ready
}

// Feature returns the catalog entry for digest, or nil if unrecognized.
func (c *Catalog) Feature(digest Digest) *Feature {
	return c.byDigest[digest]
}

// BuiltinDigest returns the feature digest assigned to a given builtin
// code, or the zero digest and false if that builtin has not been added
// to the catalog.
func (c *Catalog) BuiltinDigest(code BuiltinCode) (Digest, bool) {
	f, ok := c.byBuiltin[code]
	if !ok {
		return Digest{}, false
	}
	return f.FeatureDigest, true
}

// BuiltinFeature returns the catalog entry for a given builtin code, or
// nil if it has not been added.
func (c *Catalog) BuiltinFeature(code BuiltinCode) *Feature {
	return c.byBuiltin[code]
}

// Features returns the catalog's entries in insertion order. The
// returned slice must not be mutated or retained beyond the call that
// produced it; the catalog keeps its own backing array.
func (c *Catalog) Features() []*Feature {
	return c.entries
}

// ValidateDependencies checks that every digest in dependencies already
// names a recognized catalog entry, returning a MissingDependencyError
// for the first one that does not.
func (c *Catalog) ValidateDependencies(codename string, dependencies []Digest) error {
	for _, dep := range dependencies {
		if !c.IsRecognized(dep) {
			return &MissingDependencyError{Codename: codename, Dependency: dep}
		}
	}
	return nil
}

// DependenciesSatisfy reports whether digest is recognized and predicate
// returns true for every one of its declared dependencies, short
// circuiting on the first failure. Consensus code uses it to ask "are
// all of this feature's dependencies already activated on the current
// chain" by wrapping Manager.IsBuiltinActivated into the predicate. It
// is distinct from the dependency-closure check AddFeature performs,
// which only needs recognition, not an arbitrary predicate.
func (c *Catalog) DependenciesSatisfy(digest Digest, predicate func(Digest) bool) bool {
	f, ok := c.byDigest[digest]
	if !ok {
		return false
	}
	for _, dep := range f.Dependencies {
		if !predicate(dep) {
			return false
		}
	}
	return true
}

// AddFeature inserts a new feature entry, computing its digest from
// descriptionDigest, dependencies, and the given builtin (if any). It
// enforces dependency closure (every dependency digest must already be
// cataloged), one entry per builtin code, and digest uniqueness. For
// builtins it additionally checks that the dependency digests cover
// every builtin the compiled-in spec declares as a dependency, so a
// caller cannot catalog a builtin whose declared requirements its digest
// set silently drops.
func (c *Catalog) AddFeature(codename string, descriptionDigest Digest, dependencies []Digest, builtin *BuiltinFeature) (*Feature, error) {
	if builtin != nil {
		if lookupBuiltinSpec(builtin.Code) == nil {
			return nil, ErrUnknownBuiltinCode
		}
		if _, exists := c.byBuiltin[builtin.Code]; exists {
			return nil, ErrDuplicateBuiltin
		}
	}

	if err := c.ValidateDependencies(codename, dependencies); err != nil {
		return nil, err
	}

	if builtin != nil {
		if err := c.checkBuiltinDependencies(builtin.Code, dependencies); err != nil {
			return nil, err
		}
	}

	var code BuiltinCode
	if builtin != nil {
		code = builtin.Code
	}
	digest := ComputeDigest(FeatureKindBuiltin, descriptionDigest, dependencies, code)

	if _, exists := c.byDigest[digest]; exists {
		return nil, &DuplicateDigestError{Codename: codename, Digest: digest}
	}

	f := &Feature{
		Kind:              FeatureKindBuiltin,
		FeatureDigest:     digest,
		DescriptionDigest: descriptionDigest,
		Dependencies:      append([]Digest(nil), dependencies...),
		Builtin:           builtin,
	}

	c.entries = append(c.entries, f)
	c.byDigest[digest] = f
	if builtin != nil {
		c.byBuiltin[builtin.Code] = f
	}
	return f, nil
}

// checkBuiltinDependencies verifies that the builtin dependencies
// resolved through dependencies form a superset of the builtin
// dependencies code's spec declares. Dependency digests are matched
// against the digests already assigned to the declared builtins; a
// declared builtin that is not cataloged at all is reported the same way
// as one whose digest is simply absent from the set.
func (c *Catalog) checkBuiltinDependencies(code BuiltinCode, dependencies []Digest) error {
	spec := lookupBuiltinSpec(code)

	given := make(map[Digest]bool, len(dependencies))
	for _, d := range dependencies {
		given[d] = true
	}

	var missing []string
	for _, depCode := range spec.Dependencies {
		digest, ok := c.BuiltinDigest(depCode)
		if !ok || !given[digest] {
			missing = append(missing, depCode.String())
		}
	}
	if len(missing) > 0 {
		return &UnsatisfiedBuiltinDependenciesError{Codename: spec.Codename, Missing: missing}
	}
	return nil
}

// BuiltinOverride tunes the subjective restrictions a builtin is
// cataloged with. An operator-supplied override map lets a node start
// with some features disabled or held back until a later wall-clock
// time without touching compiled-in code (the config collaborator's
// [features] section, see internal/config).
type BuiltinOverride struct {
	Enabled     *bool
	EnabledAsOf *time.Time
}

// NewDefaultCatalogWithOverrides is NewDefaultCatalog, but applies
// overrides (keyed by builtin codename) to each builtin's subjective
// restrictions before it is added to the catalog. A codename absent from
// overrides keeps its compiled-in defaults.
func NewDefaultCatalogWithOverrides(overrides map[string]BuiltinOverride) (*Catalog, error) {
	c := NewCatalog()
	for _, spec := range builtinSpecs {
		if _, err := c.makeDefaultBuiltin(spec.Code, overrides); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MakeDefaultBuiltin adds the compiled-in builtin identified by code
// using its compiled-in description, dependency set, and subjective
// restrictions. Dependencies are resolved by looking up the digests
// already assigned to the builtin's declared BuiltinCode dependencies,
// which is why builtins must be added in dependency order. That is the
// discipline NewDefaultCatalog follows by walking builtinSpecs in
// declaration order.
func (c *Catalog) MakeDefaultBuiltin(code BuiltinCode) (*Feature, error) {
	return c.makeDefaultBuiltin(code, nil)
}

func (c *Catalog) makeDefaultBuiltin(code BuiltinCode, overrides map[string]BuiltinOverride) (*Feature, error) {
	spec := lookupBuiltinSpec(code)
	if spec == nil {
		return nil, ErrUnknownBuiltinCode
	}

	deps := make([]Digest, 0, len(spec.Dependencies))
	var missing []string
	for _, depCode := range spec.Dependencies {
		digest, ok := c.BuiltinDigest(depCode)
		if !ok {
			missing = append(missing, depCode.String())
			continue
		}
		deps = append(deps, digest)
	}
	if len(missing) > 0 {
		return nil, &UnsatisfiedBuiltinDependenciesError{
			Codename: spec.Codename,
			Missing:  missing,
		}
	}

	builtin := &BuiltinFeature{
		Code:                  spec.Code,
		Codename:              spec.Codename,
		PreactivationRequired: spec.Restrictions.PreactivationRequired,
		Enabled:               spec.Restrictions.Enabled,
	}
	if spec.Restrictions.EnabledAsOfTime != 0 {
		builtin.EnabledAsOf = time.Unix(spec.Restrictions.EnabledAsOfTime, 0).UTC()
	}

	if override, ok := overrides[spec.Codename]; ok {
		if override.Enabled != nil {
			builtin.Enabled = *override.Enabled
		}
		if override.EnabledAsOf != nil {
			builtin.EnabledAsOf = *override.EnabledAsOf
		}
	}

	return c.AddFeature(spec.Codename, spec.descriptionDigest, deps, builtin)
}
