// Package marktypes defines the mark-type enums for the two graph namespaces
// and their numeric wire codes.
//
// The onchain and offchain namespaces are fully disjoint: a type name is only
// meaningful together with its namespace, and codes are assigned per namespace.
// Code 0 is reserved for "unspecified" and is never valid input.
package marktypes

import "fmt"

// Type is a mark-type name within a single namespace.
// Invariant: construct via FromOffchainCode/FromOnchainCode (or Parse*) at
// trust boundaries; direct casting bypasses validation.
type Type string

// Offchain mark types. Wire codes are positional and must not be reordered.
const (
	OffchainRelation         Type = "RelationMark"
	OffchainBusinessFeedback Type = "BusinessFeedback"
)

// Onchain mark types.
const (
	OnchainTrust Type = "TrustMark"
)

var offchainByCode = map[int32]Type{
	1: OffchainRelation,
	2: OffchainBusinessFeedback,
}

var onchainByCode = map[int32]Type{
	1: OnchainTrust,
}

var offchainCodes = map[Type]int32{
	OffchainRelation:         1,
	OffchainBusinessFeedback: 2,
}

var onchainCodes = map[Type]int32{
	OnchainTrust: 1,
}

// FromCode resolves a numeric wire code for the given namespace.
// Returns an error for code 0 (unspecified) and unknown codes.
func FromCode(code int32, onchain bool) (Type, error) {
	table := offchainByCode
	if onchain {
		table = onchainByCode
	}
	t, ok := table[code]
	if !ok {
		return "", fmt.Errorf("unknown mark type code %d (onchain=%t)", code, onchain)
	}
	return t, nil
}

// Code returns the wire code of a type in the given namespace, or an error
// when the type does not belong to that namespace.
func Code(t Type, onchain bool) (int32, error) {
	table := offchainCodes
	if onchain {
		table = onchainCodes
	}
	c, ok := table[t]
	if !ok {
		return 0, fmt.Errorf("mark type %q not valid for onchain=%t", t, onchain)
	}
	return c, nil
}

// Parse validates a type name against the given namespace.
func Parse(name string, onchain bool) (Type, error) {
	t := Type(name)
	if !t.ValidFor(onchain) {
		return "", fmt.Errorf("mark type %q not valid for onchain=%t", name, onchain)
	}
	return t, nil
}

// ValidFor reports whether the type belongs to the given namespace.
func (t Type) ValidFor(onchain bool) bool {
	if onchain {
		_, ok := onchainCodes[t]
		return ok
	}
	_, ok := offchainCodes[t]
	return ok
}

// String returns the type name.
func (t Type) String() string {
	return string(t)
}
