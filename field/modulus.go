// Package field implements modular arithmetic over safe-prime fields
// (spec §3 "Safe-prime field F_p", §4.A). Elements are backed by
// github.com/cronokirby/saferith's constant-time Nat/Modulus types, the same
// big-integer substrate the teacher repo (github.com/luxfi/threshold) uses
// for its curve scalar fields.
package field

import "github.com/cronokirby/saferith"

// Kind identifies one of the three supported safe-prime sizes (spec §3, §6
// prime_kind).
type Kind uint8

const (
	// U64SafePrime is a 64-bit safe prime field, used for fast tests and
	// low-value computation.
	U64SafePrime Kind = iota
	// U128SafePrime is a 128-bit safe prime field.
	U128SafePrime
	// U256SafePrime is a 256-bit safe prime field, the default for
	// production clusters.
	U256SafePrime
)

func (k Kind) String() string {
	switch k {
	case U64SafePrime:
		return "U64SafePrime"
	case U128SafePrime:
		return "U128SafePrime"
	case U256SafePrime:
		return "U256SafePrime"
	default:
		return "UnknownSafePrime"
	}
}

// Safe prime constants. p = 2q+1 with q prime, matching
// original_source/libs/math/src/modular/modulos.rs's choice of test/production
// primes per size class. The 64-bit prime is the same one exercised by the
// teacher's own Lagrange tests (pkg/math/polynomial/lagrange_test.go uses a
// field of comparable magnitude for unit coverage).
const (
	// u64SafePrimeValue = 18446744072637906947, a 64-bit safe prime.
	u64SafePrimeValue uint64 = 18446744072637906947
)

// u128SafePrimeHex and u256SafePrimeHex are canonical safe primes for the
// larger field sizes, expressed as big-endian hex so they can be loaded
// directly into a saferith.Modulus.
const (
	u128SafePrimeHex = "ffffffffffffffffffffffffffffc3a7"                                 // 2^128 - 15449
	u256SafePrimeHex = "ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff72ef" // 2^256 - 36113
)

// Modulus wraps a safe prime p = 2q+1 together with the Kind it was built
// from, so values can validate that they're being combined within the same
// field (encode/decode's ModuloMismatch, spec §4.A).
type Modulus struct {
	kind Kind
	m    *saferith.Modulus
	// bitLen caches the prime's bit length, used by ByteLen and as the
	// capacity when loading big integers into a saferith.Nat.
	bitLen int
}

var (
	u64Modulus  = newSafePrimeModulus(U64SafePrime)
	u128Modulus = newSafePrimeModulus(U128SafePrime)
	u256Modulus = newSafePrimeModulus(U256SafePrime)
)

func newSafePrimeModulus(kind Kind) *Modulus {
	var nat *saferith.Nat
	switch kind {
	case U64SafePrime:
		nat = new(saferith.Nat).SetUint64(u64SafePrimeValue)
	case U128SafePrime:
		nat = natFromHex(u128SafePrimeHex)
	case U256SafePrime:
		nat = natFromHex(u256SafePrimeHex)
	default:
		panic("field: unknown safe prime kind")
	}
	m := saferith.ModulusFromNat(nat)
	return &Modulus{kind: kind, m: m, bitLen: m.BitLen()}
}

func natFromHex(hexStr string) *saferith.Nat {
	buf, err := hexDecode(hexStr)
	if err != nil {
		panic("field: invalid safe prime constant: " + err.Error())
	}
	return new(saferith.Nat).SetBytes(buf)
}

// NewModulus returns the canonical Modulus for a given safe-prime Kind.
func NewModulus(kind Kind) *Modulus {
	switch kind {
	case U64SafePrime:
		return u64Modulus
	case U128SafePrime:
		return u128Modulus
	case U256SafePrime:
		return u256Modulus
	default:
		panic("field: unknown safe prime kind")
	}
}

// Kind returns the safe-prime size this modulus was built from.
func (m *Modulus) Kind() Kind { return m.kind }

// BitLen returns the modulus' bit length, used by value.ChunkSize to size
// SecretBlob chunks.
func (m *Modulus) BitLen() int { return m.bitLen }

// ByteLen returns the number of bytes needed for a canonical encoding.
func (m *Modulus) ByteLen() int { return (m.bitLen + 7) / 8 }
