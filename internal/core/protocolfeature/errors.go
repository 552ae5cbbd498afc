// Copyright (c) 2024-2025. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package protocolfeature

import (
	"errors"
	"fmt"
)

// Sentinel errors for the taxonomic error kinds the protocol feature
// manager can raise. Callers should match with errors.Is rather than
// comparing values directly, since most of these are wrapped with
// additional context.
var (
	ErrUnknownBuiltinCode             = errors.New("protocolfeature: unknown builtin code")
	ErrDuplicateBuiltin               = errors.New("protocolfeature: builtin already added")
	ErrMissingDependency              = errors.New("protocolfeature: dependency not cataloged")
	ErrUnsatisfiedBuiltinDependencies = errors.New("protocolfeature: unsatisfied builtin dependencies")
	ErrDuplicateDigest                = errors.New("protocolfeature: duplicate feature digest")
	ErrUnrecognizedFeature            = errors.New("protocolfeature: unrecognized feature digest")
	ErrAlreadyActivated               = errors.New("protocolfeature: builtin already activated")
	ErrNonMonotonicActivation         = errors.New("protocolfeature: non-monotonic activation block")
	ErrNotInitialized                 = errors.New("protocolfeature: manager not initialized")
	ErrDoubleInit                     = errors.New("protocolfeature: manager already initialized")
	ErrIteratorMisuse                 = errors.New("protocolfeature: invalid cursor operation")
	ErrUnsupportedFeatureKind         = errors.New("protocolfeature: unsupported feature kind")
)

// UnsatisfiedBuiltinDependenciesError reports which builtin dependencies a
// feature declared (via its spec) but did not actually resolve through its
// dependency digest set.
type UnsatisfiedBuiltinDependenciesError struct {
	Codename string
	Digest   Digest
	Missing  []string
}

func (e *UnsatisfiedBuiltinDependenciesError) Error() string {
	return fmt.Sprintf("protocolfeature: builtin %q (digest %s) is missing builtin dependencies: %v",
		e.Codename, e.Digest, e.Missing)
}

func (e *UnsatisfiedBuiltinDependenciesError) Unwrap() error {
	return ErrUnsatisfiedBuiltinDependencies
}

// MissingDependencyError reports a dependency digest that is not yet
// present in the catalog at insertion time.
type MissingDependencyError struct {
	Codename   string
	Dependency Digest
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("protocolfeature: builtin %q depends on unrecognized feature %s", e.Codename, e.Dependency)
}

func (e *MissingDependencyError) Unwrap() error {
	return ErrMissingDependency
}

// DuplicateDigestError reports a feature digest collision at insertion.
type DuplicateDigestError struct {
	Codename string
	Digest   Digest
}

func (e *DuplicateDigestError) Error() string {
	return fmt.Sprintf("protocolfeature: builtin %q has digest %s which is already cataloged", e.Codename, e.Digest)
}

func (e *DuplicateDigestError) Unwrap() error {
	return ErrDuplicateDigest
}

// UnrecognizedFeatureError reports a digest with no catalog entry.
type UnrecognizedFeatureError struct {
	Digest Digest
}

func (e *UnrecognizedFeatureError) Error() string {
	return fmt.Sprintf("protocolfeature: unrecognized protocol feature with digest %s", e.Digest)
}

func (e *UnrecognizedFeatureError) Unwrap() error {
	return ErrUnrecognizedFeature
}

// NonMonotonicActivationError reports an activation attempt whose block
// number regresses relative to the last entry in the activation log.
type NonMonotonicActivationError struct {
	CurrentBlock uint32
	LastBlock    uint32
}

func (e *NonMonotonicActivationError) Error() string {
	return fmt.Sprintf("protocolfeature: last activation block num is %d yet attempting to activate at block %d",
		e.LastBlock, e.CurrentBlock)
}

func (e *NonMonotonicActivationError) Unwrap() error {
	return ErrNonMonotonicActivation
}
