package value

import (
	"github.com/NillionNetwork/nilcore/field"
)

// Value is a NadaValue instance: a typed public scalar, a typed client-side
// secret scalar (pre-masking), a typed per-party Shamir share (post-masking),
// or a compound value built from any of the above.
//
// Only the fields relevant to Type.Kind are populated; this mirrors the
// teacher's habit of expressing closed variants as plain structs with
// exported fields used conditionally (protocols/lss/types.go's Config,
// ShardGeneration) rather than an interface hierarchy, per spec design note
// "sum-type dispatch".
type Value struct {
	Type Type

	// Public holds a public scalar's field encoding (Integer,
	// UnsignedInteger, Boolean-as-0/1).
	Public field.Element

	// Bytes holds opaque public byte payloads: EcdsaDigestMessage,
	// EcdsaPublicKey, EddsaMessage, EddsaPublicKey, StoreId.
	Bytes []byte

	// Secret holds a client-side cleartext secret scalar, before masking.
	Secret field.Element

	// SecretBlob holds SecretBlob's raw bytes before chunking.
	SecretBlob []byte

	// BlobLen records a SecretBlob's original byte length, carried
	// alongside its chunk shares (in Elements) so unmasking can drop the
	// padding reassembled chunks would otherwise include.
	BlobLen int

	// SecretBytes holds EcdsaPrivateKey/EcdsaSignature/EddsaPrivateKey/
	// EddsaSignature payloads before masking.
	SecretBytes []byte

	// Share holds one party's Shamir share of a secret scalar, after
	// masking (ShamirShareInteger/UnsignedInteger/Boolean).
	Share field.Element

	// Elements holds compound children: Array elements in index order,
	// Tuple as [left, right], NTuple in declared order, Object in
	// Type.FieldNames order.
	Elements []Value
}

// NewPublic builds a public scalar value.
func NewPublic(k Kind, e field.Element) Value {
	return Value{Type: Scalar(k), Public: e}
}

// NewSecret builds a client-side cleartext secret scalar value, pending
// masking.
func NewSecret(k Kind, e field.Element) Value {
	return Value{Type: Scalar(k), Secret: e}
}

// NewSecretBlob builds a SecretBlob value from raw bytes.
func NewSecretBlob(b []byte) Value {
	return Value{Type: Scalar(KindSecretBlob), SecretBlob: append([]byte(nil), b...)}
}

// NewShare builds a single party's share of a secret scalar.
func NewShare(k Kind, e field.Element) Value {
	return Value{Type: Scalar(k), Share: e}
}

// NewArray builds an Array value from homogeneous elements.
func NewArray(inner Type, elements []Value) Value {
	return Value{Type: ArrayOf(inner, len(elements)), Elements: elements}
}

// NewTuple builds a Tuple value.
func NewTuple(left, right Value) Value {
	return Value{Type: TupleOf(left.Type, right.Type), Elements: []Value{left, right}}
}

// ShareKindFor maps a secret scalar kind to its Shamir-share counterpart,
// used when the bytecode->protocol lowerer emits a ShamirShare* cast (spec
// §4.G).
func ShareKindFor(k Kind) (Kind, bool) {
	switch k {
	case KindSecretInteger:
		return KindShamirShareInteger, true
	case KindSecretUnsignedInteger:
		return KindShamirShareUnsignedInteger, true
	case KindSecretBoolean:
		return KindShamirShareBoolean, true
	default:
		return 0, false
	}
}

// SecretKindFor is the inverse of ShareKindFor.
func SecretKindFor(k Kind) (Kind, bool) {
	switch k {
	case KindShamirShareInteger:
		return KindSecretInteger, true
	case KindShamirShareUnsignedInteger:
		return KindSecretUnsignedInteger, true
	case KindShamirShareBoolean:
		return KindSecretBoolean, true
	default:
		return 0, false
	}
}

// ChunkSize returns the number of bytes a SecretBlob chunk holds for a given
// field: ⌊(p.bits - 1) / 8⌋, per spec §6 "Values wire format".
func ChunkSize(m *field.Modulus) int {
	return (m.BitLen() - 1) / 8
}
