// Package value implements the NadaValue type model of spec §3/§4.D: typed
// public and secret values, Shamir share variants, compound types, and the
// classification counts used for pricing. Grounded on
// original_source/libs/nada-value/src/errors.rs for the error taxonomy and
// original_source/libs/client-core/src/values.rs for the
// Cleartext/Encrypted value shapes.
package value

// Kind enumerates the closed set of primitive and compound NadaValue
// variants named in spec §3.
type Kind uint8

const (
	KindInteger Kind = iota
	KindUnsignedInteger
	KindBoolean
	KindEcdsaDigestMessage
	KindEcdsaPublicKey
	KindEddsaMessage
	KindEddsaPublicKey
	KindStoreID

	KindSecretInteger
	KindSecretUnsignedInteger
	KindSecretBoolean
	KindSecretBlob
	KindEcdsaPrivateKey
	KindEcdsaSignature
	KindEddsaPrivateKey
	KindEddsaSignature

	KindShamirShareInteger
	KindShamirShareUnsignedInteger
	KindShamirShareBoolean

	KindArray
	KindTuple
	KindNTuple
	KindObject
)

// IsSecret reports whether a scalar kind holds client-side secret material
// (as opposed to a public value or a per-party Shamir share).
func (k Kind) IsSecret() bool {
	switch k {
	case KindSecretInteger, KindSecretUnsignedInteger, KindSecretBoolean, KindSecretBlob,
		KindEcdsaPrivateKey, KindEcdsaSignature, KindEddsaPrivateKey, KindEddsaSignature:
		return true
	default:
		return false
	}
}

// IsShare reports whether a scalar kind holds one party's Shamir share.
func (k Kind) IsShare() bool {
	switch k {
	case KindShamirShareInteger, KindShamirShareUnsignedInteger, KindShamirShareBoolean:
		return true
	default:
		return false
	}
}

// IsCompound reports whether a kind is a container type.
func (k Kind) IsCompound() bool {
	switch k {
	case KindArray, KindTuple, KindNTuple, KindObject:
		return true
	default:
		return false
	}
}

// Type fully describes a NadaValue's shape, including compound nesting.
type Type struct {
	Kind Kind

	// Array
	Inner *Type
	Size  int

	// Tuple
	Left, Right *Type

	// NTuple
	Elements []Type

	// Object (ordered string -> type map)
	FieldNames []string
	FieldTypes map[string]Type
}

// Scalar builds a Type for a primitive Kind.
func Scalar(k Kind) Type { return Type{Kind: k} }

// ArrayOf builds an Array{inner, size} type.
func ArrayOf(inner Type, size int) Type {
	return Type{Kind: KindArray, Inner: &inner, Size: size}
}

// TupleOf builds a Tuple{left, right} type.
func TupleOf(left, right Type) Type {
	return Type{Kind: KindTuple, Left: &left, Right: &right}
}

// NTupleOf builds an NTuple{types[]} type.
func NTupleOf(elements ...Type) Type {
	return Type{Kind: KindNTuple, Elements: elements}
}

// ObjectOf builds an Object{types{}} type with a stable field order.
func ObjectOf(names []string, types map[string]Type) Type {
	return Type{Kind: KindObject, FieldNames: append([]string(nil), names...), FieldTypes: types}
}

// ResultElementAddressCount returns how many heap addresses a value of this
// type consumes when it is a protocol's result, per spec §3
// "memory_size = max(address) + result_element_address_count(type)" and
// §4.F's allocation table: scalars take one address; arrays take
// size+1 (a header plus one pointer per element); tuples take 3; n-tuples
// and objects take arity+1.
func (t Type) ResultElementAddressCount() int {
	switch t.Kind {
	case KindArray:
		return t.Size + 1
	case KindTuple:
		return 3
	case KindNTuple:
		return len(t.Elements) + 1
	case KindObject:
		return len(t.FieldNames) + 1
	default:
		return 1
	}
}
