package field

import (
	"math/big"

	"github.com/cronokirby/saferith"
	"github.com/fxamacker/cbor/v2"

	"github.com/NillionNetwork/nilcore/errs"
)

// Element is a residue modulo a safe prime, held in the Nat representation
// saferith keeps internally in Montgomery form for the multiplicative hot
// path (spec §3, §4.A). Elements are immutable value types; every operation
// returns a new Element.
type Element struct {
	modulus *Modulus
	value   *saferith.Nat
}

// Zero returns the additive identity of m.
func Zero(m *Modulus) Element {
	return Element{modulus: m, value: new(saferith.Nat).SetUint64(0)}
}

// One returns the multiplicative identity of m.
func One(m *Modulus) Element {
	return Element{modulus: m, value: new(saferith.Nat).SetUint64(1)}
}

// FromUint64 builds an Element from a small non-negative integer.
func FromUint64(m *Modulus, v uint64) Element {
	n := new(saferith.Nat).SetUint64(v)
	n.Mod(n, m.m)
	return Element{modulus: m, value: n}
}

// FromInt64 builds an Element from a signed integer, mapping negative values
// to their additive inverse in the field.
func FromInt64(m *Modulus, v int64) Element {
	if v >= 0 {
		return FromUint64(m, uint64(v))
	}
	return FromUint64(m, uint64(-v)).Neg()
}

// Modulus returns the field this element belongs to.
func (a Element) Modulus() *Modulus { return a.modulus }

// IsZero reports whether a is the additive identity.
func (a Element) IsZero() bool {
	return a.value.Eq(new(saferith.Nat).SetUint64(0)) == 1
}

func (a Element) requireSameField(b Element) {
	if a.modulus != b.modulus && a.modulus.kind != b.modulus.kind {
		panic("field: operands belong to different fields")
	}
}

// Add returns a + b mod p.
func (a Element) Add(b Element) Element {
	a.requireSameField(b)
	out := new(saferith.Nat).ModAdd(a.value, b.value, a.modulus.m)
	return Element{modulus: a.modulus, value: out}
}

// Sub returns a - b mod p.
func (a Element) Sub(b Element) Element {
	a.requireSameField(b)
	out := new(saferith.Nat).ModSub(a.value, b.value, a.modulus.m)
	return Element{modulus: a.modulus, value: out}
}

// Neg returns -a mod p.
func (a Element) Neg() Element {
	out := new(saferith.Nat).ModNeg(a.value, a.modulus.m)
	return Element{modulus: a.modulus, value: out}
}

// Mul returns a * b mod p using Montgomery multiplication internally.
func (a Element) Mul(b Element) Element {
	a.requireSameField(b)
	out := new(saferith.Nat).ModMul(a.value, b.value, a.modulus.m)
	return Element{modulus: a.modulus, value: out}
}

// Inverse returns a⁻¹ mod p via Fermat's little theorem (a^(p-2) mod p), as
// specified in spec §4.A. A zero a yields zero rather than an error; callers
// that need a checked inverse should use Div or check IsZero first.
func (a Element) Inverse() Element {
	pMinus2 := new(saferith.Nat).SetUint64(2)
	pMinus2 = new(saferith.Nat).ModSub(a.modulus.m.Nat(), pMinus2, a.modulus.m)
	out := new(saferith.Nat).Exp(a.value, pMinus2, a.modulus.m)
	return Element{modulus: a.modulus, value: out}
}

// Div returns a / b mod p, or errs.ErrDivByZero if b is zero.
func (a Element) Div(b Element) (Element, error) {
	a.requireSameField(b)
	if b.IsZero() {
		return Element{}, errs.ErrDivByZero
	}
	return a.Mul(b.Inverse()), nil
}

// ExpMod returns a^e mod p for a public non-negative exponent e.
func (a Element) ExpMod(e uint64) Element {
	exp := new(saferith.Nat).SetUint64(e)
	out := new(saferith.Nat).Exp(a.value, exp, a.modulus.m)
	return Element{modulus: a.modulus, value: out}
}

// signedBig interprets a as a signed integer, symmetric about zero: a value
// x <= p/2 is non-negative, otherwise it represents x - p (spec §4.A).
func (a Element) signedBig() *big.Int {
	x := a.value.Big()
	p := a.modulus.m.Nat().Big()
	half := new(big.Int).Rsh(p, 1)
	if x.Cmp(half) <= 0 {
		return x
	}
	return new(big.Int).Sub(x, p)
}

// SignedFloorMod computes floored division's remainder for *signed*
// field elements, per spec §4.A and
// original_source/libs/math/src/modular/ops.rs's FloorMod trait: the
// remainder takes the sign of the divisor.
func (a Element) SignedFloorMod(divisor Element) (Element, error) {
	a.requireSameField(divisor)
	if divisor.IsZero() {
		return Element{}, errs.ErrDivByZero
	}
	x := a.signedBig()
	d := divisor.signedBig()
	rem := new(big.Int).Mod(x, d)
	// big.Int.Mod already returns an Euclidean (non-negative when d>0)
	// remainder for positive d; fix the sign for negative divisors so the
	// result takes the divisor's sign, matching floored division.
	if rem.Sign() > 0 && d.Sign() < 0 {
		rem.Add(rem, d)
	}
	return fromSignedBig(a.modulus, rem), nil
}

// RightShift computes ⌊a / 2^k⌋ for a public shift amount k, implemented as
// (a - (a mod 2^k)) / 2^k via FloorMod, matching spec §4.A.
func (a Element) RightShift(k uint) (Element, error) {
	twoK := new(big.Int).Lsh(big.NewInt(1), k)
	divisor := fromSignedBig(a.modulus, twoK)
	rem, err := a.SignedFloorMod(divisor)
	if err != nil {
		return Element{}, err
	}
	numerator := a.Sub(rem)
	num := numerator.signedBig()
	quotient := new(big.Int).Div(num, twoK)
	return fromSignedBig(a.modulus, quotient), nil
}

func fromSignedBig(m *Modulus, v *big.Int) Element {
	p := m.m.Nat().Big()
	reduced := new(big.Int).Mod(v, p)
	if reduced.Sign() < 0 {
		reduced.Add(reduced, p)
	}
	n := new(saferith.Nat).SetBig(reduced, m.bitLen)
	return Element{modulus: m, value: n}
}

// Sqrt returns a square root of a in a safe-prime field (p = 2q+1, so
// p ≡ 3 mod 4), computed directly as a^((p+1)/4) mod p — the standard
// closed form available whenever p ≡ 3 mod 4. Returns errs.ErrNotASquare
// if a has no square root; RAN-BIT passes that error on to its caller
// rather than resampling.
func (a Element) Sqrt() (Element, error) {
	p := a.modulus.m.Nat().Big()
	exp := new(big.Int).Add(p, big.NewInt(1))
	exp.Rsh(exp, 2)
	root := Element{modulus: a.modulus, value: new(saferith.Nat).Exp(a.value, new(saferith.Nat).SetBig(exp, a.modulus.bitLen), a.modulus.m)}
	if !root.Mul(root).Equal(a) {
		return Element{}, errs.ErrNotASquare
	}
	return root, nil
}

// Equal reports whether a and b represent the same residue.
func (a Element) Equal(b Element) bool {
	a.requireSameField(b)
	return a.value.Eq(b.value) == 1
}

// LessThan orders a and b as signed integers symmetric about zero (the same
// convention as signedBig/SignedFloorMod), matching the client-facing
// comparison operators of spec §4.E rather than residue ordering mod p.
func (a Element) LessThan(b Element) bool {
	a.requireSameField(b)
	return a.signedBig().Cmp(b.signedBig()) < 0
}

// Encode serializes a as <modulo-tag, little-endian canonical bytes>, per
// spec §4.A's encoding contract.
func (a Element) Encode() []byte {
	out := make([]byte, 1+a.modulus.ByteLen())
	out[0] = byte(a.modulus.kind)
	canon := a.value.Big()
	be := canon.Bytes()
	// reverse into little-endian, right-padded to the field's byte length
	for i, b := range be {
		out[1+len(be)-1-i] = b
	}
	return out
}

// Decode parses bytes produced by Encode, validating the modulo tag and
// length (spec §4.A: ModuloMismatch, ValueLength).
func Decode(data []byte) (Element, error) {
	if len(data) < 1 {
		return Element{}, errs.ErrValueLength
	}
	kind := Kind(data[0])
	m := NewModulus(kind)
	if len(data) != 1+m.ByteLen() {
		return Element{}, errs.ErrValueLength
	}
	le := data[1:]
	be := make([]byte, len(le))
	for i, b := range le {
		be[len(le)-1-i] = b
	}
	v := new(big.Int).SetBytes(be)
	return fromSignedBig(m, v), nil
}

// DecodeWithModulus is like Decode but validates against an expected
// modulus, rejecting a mismatched tag with ErrModuloMismatch.
func DecodeWithModulus(data []byte, expect *Modulus) (Element, error) {
	e, err := Decode(data)
	if err != nil {
		return Element{}, err
	}
	if e.modulus.kind != expect.kind {
		return Element{}, errs.ErrModuloMismatch
	}
	return e, nil
}

// MarshalCBOR wraps Encode's self-describing <modulo-tag, bytes> form as a
// CBOR byte string, so any struct embedding an Element (value.Value, mir
// literals) serializes without exposing saferith's internal representation.
// A zero Element (no modulus bound — value.Value leaves every field but the
// one its Kind uses unset) encodes as an empty byte string rather than
// dereferencing the nil modulus.
func (a Element) MarshalCBOR() ([]byte, error) {
	if a.modulus == nil {
		return cbor.Marshal([]byte{})
	}
	return cbor.Marshal(a.Encode())
}

// UnmarshalCBOR reverses MarshalCBOR via Decode.
func (a *Element) UnmarshalCBOR(data []byte) error {
	var raw []byte
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		*a = Element{}
		return nil
	}
	e, err := Decode(raw)
	if err != nil {
		return err
	}
	*a = e
	return nil
}
