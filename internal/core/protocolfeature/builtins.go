// Copyright (c) 2024-2025. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package protocolfeature

// BuiltinCode identifies a feature whose behavior is compiled into this
// binary, as opposed to one that exists only as catalog metadata. Only
// builtins can ever be activated, since activation flips behavior in code
// that must already exist.
type BuiltinCode uint32

const (
	PreactivateFeature BuiltinCode = iota + 1
	OnlyLinkToExistingPermission
	ForwardSetcode
	WtmsigBlockSignatures
	GetSender
	RamRestrictions
	WebAuthnKey
	ActionReturnValue

	numBuiltinCodes = iota
)

// builtinSubjectiveRestrictions carries the operator-tunable gates a
// builtin is cataloged with by default: whether the feature may be
// proposed at all, the earliest wall-clock time a producer should be
// willing to propose it, and whether it must be preactivated before it
// can be carried in a block.
type builtinSubjectiveRestrictions struct {
	EnabledAsOfTime       int64
	PreactivationRequired bool
	Enabled               bool
}

// builtinSpec is the compiled-in description of a builtin feature: its
// codename, human-readable description (whose SHA-256 hash is the
// description digest), and the builtin dependencies that must be
// cataloged before it.
type builtinSpec struct {
	Code              BuiltinCode
	Codename          string
	Description       string
	Dependencies      []BuiltinCode
	Restrictions      builtinSubjectiveRestrictions
	descriptionDigest Digest
}

// The first two description digests are carried verbatim from the chain
// this builtin set descends from, where each is committed as a literal
// constant next to its canonical description text. Every other builtin's
// description digest is derived from its description at init time (see
// init below) rather than hand-typed, so the description/digest pair can
// never drift apart.
const (
	preactivateFeatureDescriptionDigestHex           = "64fe7df32e9b86be2b296b3f81dfd527f84e82b98e363bc97e40bc7a83733310"
	onlyLinkToExistingPermissionDescriptionDigestHex = "f3c3d91c4603cde2397268bfed4e662465293aab10cd9416db0d442b8cec2949"
)

var builtinSpecs = []*builtinSpec{
	{
		Code:     PreactivateFeature,
		Codename: "PREACTIVATE_FEATURE",
		Description: "Builtin protocol feature: PREACTIVATE_FEATURE\n" +
			"\n" +
			"Adds privileged intrinsic to enable a contract to pre-activate a protocol feature specified by its digest.\n" +
			"Pre-activated protocol features must be activated in the next block.\n",
		// enabled without preactivation and ready to go at any time
		Restrictions: builtinSubjectiveRestrictions{Enabled: true},
	},
	{
		Code:     OnlyLinkToExistingPermission,
		Codename: "ONLY_LINK_TO_EXISTING_PERMISSION",
		Description: "Builtin protocol feature: ONLY_LINK_TO_EXISTING_PERMISSION\n" +
			"\n" +
			"Disallows linking an action to a non-existing permission.\n",
		Restrictions: builtinSubjectiveRestrictions{Enabled: true, PreactivationRequired: true},
	},
	{
		Code:         ForwardSetcode,
		Codename:     "FORWARD_SETCODE",
		Description:  "Forward the error handling of failed WASM instantiation during setcode so it is reported the same way a runtime failure is.",
		Dependencies: []BuiltinCode{PreactivateFeature},
		Restrictions: builtinSubjectiveRestrictions{Enabled: true, PreactivationRequired: true},
	},
	{
		Code:         WtmsigBlockSignatures,
		Codename:     "WTMSIG_BLOCK_SIGNATURES",
		Description:  "Allow block headers to carry a weighted threshold multisignature schedule instead of a single producer signature.",
		Dependencies: []BuiltinCode{PreactivateFeature},
		Restrictions: builtinSubjectiveRestrictions{Enabled: true, PreactivationRequired: true},
	},
	{
		Code:         GetSender,
		Codename:     "GET_SENDER",
		Description:  "Expose the get_sender intrinsic so a contract can recover the account that authorized the current inline action.",
		Dependencies: []BuiltinCode{PreactivateFeature},
		Restrictions: builtinSubjectiveRestrictions{Enabled: true, PreactivationRequired: true},
	},
	{
		Code:         RamRestrictions,
		Codename:     "RAM_RESTRICTIONS",
		Description:  "Restrict an action's ability to consume another account's RAM without that account's explicit authorization.",
		Dependencies: []BuiltinCode{PreactivateFeature, GetSender},
		Restrictions: builtinSubjectiveRestrictions{Enabled: true, PreactivationRequired: true},
	},
	{
		Code:         WebAuthnKey,
		Codename:     "WEBAUTHN_KEY",
		Description:  "Recognize WebAuthn public keys as a valid key type for account authorities.",
		Dependencies: []BuiltinCode{PreactivateFeature},
		Restrictions: builtinSubjectiveRestrictions{Enabled: true, PreactivationRequired: true},
	},
	{
		Code:         ActionReturnValue,
		Codename:     "ACTION_RETURN_VALUE",
		Description:  "Allow an action to set a return value that is recorded in the action receipt and readable by inline action callers.",
		Dependencies: []BuiltinCode{PreactivateFeature},
		Restrictions: builtinSubjectiveRestrictions{Enabled: true, PreactivationRequired: true},
	},
}

var builtinSpecsByCode = make(map[BuiltinCode]*builtinSpec, len(builtinSpecs))

func init() {
	mustHex := func(s string) Digest {
		d, err := DigestFromHex(s)
		if err != nil {
			panic("protocolfeature: malformed builtin description digest constant: " + err.Error())
		}
		return d
	}

	for _, spec := range builtinSpecs {
		switch spec.Code {
		case PreactivateFeature:
			spec.descriptionDigest = mustHex(preactivateFeatureDescriptionDigestHex)
		case OnlyLinkToExistingPermission:
			spec.descriptionDigest = mustHex(onlyLinkToExistingPermissionDescriptionDigestHex)
		default:
			spec.descriptionDigest = DescriptionDigest(spec.Description)
		}
		builtinSpecsByCode[spec.Code] = spec
	}
}

// lookupBuiltinSpec returns the compiled-in spec for code, or nil if code
// is not a recognized builtin.
func lookupBuiltinSpec(code BuiltinCode) *builtinSpec {
	return builtinSpecsByCode[code]
}

// String renders the builtin's codename, or a fallback for an
// unrecognized code so callers formatting logs never panic.
func (c BuiltinCode) String() string {
	if spec := lookupBuiltinSpec(c); spec != nil {
		return spec.Codename
	}
	return "UNKNOWN_BUILTIN"
}
