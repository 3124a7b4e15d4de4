// Package masker implements the client-facing SecretMasker façade of spec
// §4.M: mask CleartextValues into per-party EncryptedValues and unmask them
// back, plus classify_values. Grounded on
// original_source/client/src/operation/store_values.rs's mask call shape,
// built atop package shamir.
package masker

import (
	"fmt"

	"github.com/NillionNetwork/nilcore/field"
	"github.com/NillionNetwork/nilcore/party"
	"github.com/NillionNetwork/nilcore/poly"
	"github.com/NillionNetwork/nilcore/shamir"
	"github.com/NillionNetwork/nilcore/value"
)

// CleartextValues is a client-side named bundle of plaintext values.
type CleartextValues map[string]value.Value

// EncryptedValues is one party's named bundle of shares/public values.
type EncryptedValues map[string]value.Value

// PartyShares maps each party to its EncryptedValues bundle.
type PartyShares map[party.ID]EncryptedValues

// SecretMasker masks cleartext values into per-party shares and reconstructs
// them from a jar of per-party shares, for a fixed cluster (safe-prime size,
// degree T, party set).
type SecretMasker struct {
	modulus *field.Modulus
	degree  int
	parties party.Set
}

// NewSecretMasker builds a SecretMasker bound to one of the three safe-prime
// field sizes (spec §4.M "new_*_bit_safe_prime(polynomial_degree, parties)").
func NewSecretMasker(kind field.Kind, degree int, parties party.Set) *SecretMasker {
	return &SecretMasker{modulus: field.NewModulus(kind), degree: degree, parties: parties}
}

// Mask secret-shares each entry of values, keyed by name. Even on empty
// input, the result's keys are exactly the party set, each mapped to an
// empty inner map (spec §4.D contract).
func (sm *SecretMasker) Mask(values CleartextValues) (PartyShares, error) {
	out := make(PartyShares, sm.parties.Len())
	for _, id := range sm.parties.IDs() {
		out[id] = EncryptedValues{}
	}
	for name, v := range values {
		perParty, err := sm.maskValue(v)
		if err != nil {
			return nil, fmt.Errorf("masker: masking %q: %w", name, err)
		}
		for _, id := range sm.parties.IDs() {
			out[id][name] = perParty[id]
		}
	}
	return out, nil
}

func (sm *SecretMasker) maskValue(v value.Value) (map[party.ID]value.Value, error) {
	switch {
	case v.Type.Kind.IsCompound():
		return sm.maskCompound(v)
	case v.Type.Kind == value.KindSecretBlob:
		return sm.maskBlob(v)
	case v.Type.Kind.IsSecret():
		shareKind, ok := value.ShareKindFor(v.Type.Kind)
		if !ok {
			return sm.maskOpaqueSecret(v)
		}
		sharer := shamir.NewSharer(sm.parties.IDs()[0], sm.degree, sm.parties, sm.modulus)
		shares, err := sharer.GenerateShares(v.Secret, sm.degree)
		if err != nil {
			return nil, err
		}
		out := make(map[party.ID]value.Value, sm.parties.Len())
		for id, sh := range shares {
			out[id] = value.NewShare(shareKind, sh.Point.Y)
		}
		return out, nil
	default:
		// Public values and opaque public bytes pass through unchanged to
		// every party.
		out := make(map[party.ID]value.Value, sm.parties.Len())
		for _, id := range sm.parties.IDs() {
			out[id] = v
		}
		return out, nil
	}
}

// maskOpaqueSecret handles key/signature material (EcdsaPrivateKey,
// EcdsaSignature, EddsaPrivateKey, EddsaSignature) whose payload is raw
// bytes rather than a single field element: each byte-chunk is shared the
// same way a SecretBlob is.
func (sm *SecretMasker) maskOpaqueSecret(v value.Value) (map[party.ID]value.Value, error) {
	chunks, err := sm.shareBytes(v.SecretBytes)
	if err != nil {
		return nil, err
	}
	out := make(map[party.ID]value.Value, sm.parties.Len())
	for _, id := range sm.parties.IDs() {
		out[id] = value.Value{Type: v.Type, Elements: chunks[id], BlobLen: len(v.SecretBytes)}
	}
	return out, nil
}

func (sm *SecretMasker) maskBlob(v value.Value) (map[party.ID]value.Value, error) {
	chunks, err := sm.shareBytes(v.SecretBlob)
	if err != nil {
		return nil, err
	}
	out := make(map[party.ID]value.Value, sm.parties.Len())
	for _, id := range sm.parties.IDs() {
		out[id] = value.Value{Type: v.Type, Elements: chunks[id], BlobLen: len(v.SecretBlob)}
	}
	return out, nil
}

// shareBytes chunks raw bytes into ⌈len/chunkSize⌉ field elements and
// secret-shares each chunk independently (spec §6 "Blobs are broken into
// chunks").
func (sm *SecretMasker) shareBytes(raw []byte) (map[party.ID][]value.Value, error) {
	chunkSize := value.ChunkSize(sm.modulus)
	numChunks := (len(raw) + chunkSize - 1) / chunkSize
	if numChunks == 0 {
		numChunks = 1
	}
	perParty := make(map[party.ID][]value.Value, sm.parties.Len())
	for _, id := range sm.parties.IDs() {
		perParty[id] = make([]value.Value, numChunks)
	}
	sharer := shamir.NewSharer(sm.parties.IDs()[0], sm.degree, sm.parties, sm.modulus)
	for i := 0; i < numChunks; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > len(raw) {
			end = len(raw)
		}
		buf := make([]byte, 1+sm.modulus.ByteLen())
		buf[0] = byte(sm.modulus.Kind())
		copy(buf[1:], raw[start:end])
		elem, err := field.Decode(buf)
		if err != nil {
			return nil, err
		}
		shares, err := sharer.GenerateShares(elem, sm.degree)
		if err != nil {
			return nil, err
		}
		for id, sh := range shares {
			perParty[id][i] = value.NewShare(value.KindShamirShareUnsignedInteger, sh.Point.Y)
		}
	}
	return perParty, nil
}

func (sm *SecretMasker) maskCompound(v value.Value) (map[party.ID]value.Value, error) {
	perPartyElements := make(map[party.ID][]value.Value, sm.parties.Len())
	for _, id := range sm.parties.IDs() {
		perPartyElements[id] = make([]value.Value, len(v.Elements))
	}
	for i, child := range v.Elements {
		childPerParty, err := sm.maskValue(child)
		if err != nil {
			return nil, err
		}
		for _, id := range sm.parties.IDs() {
			perPartyElements[id][i] = childPerParty[id]
		}
	}
	out := make(map[party.ID]value.Value, sm.parties.Len())
	for _, id := range sm.parties.IDs() {
		out[id] = value.Value{Type: v.Type, Elements: perPartyElements[id]}
	}
	return out, nil
}

// Unmask reconstructs CleartextValues from a jar of at least T+1 parties'
// EncryptedValues bundles.
func (sm *SecretMasker) Unmask(jar *party.Jar[EncryptedValues]) (CleartextValues, error) {
	if !jar.HasAtLeast(sm.degree + 1) {
		return nil, fmt.Errorf("masker: need at least %d parties' shares, have %d", sm.degree+1, jar.Len())
	}
	entries := jar.Entries()
	var names []string
	for _, bundle := range entries {
		for name := range bundle {
			names = append(names, name)
		}
		break
	}
	out := make(CleartextValues, len(names))
	for _, name := range names {
		perParty := make(map[party.ID]value.Value, len(entries))
		for id, bundle := range entries {
			perParty[id] = bundle[name]
		}
		v, err := sm.unmaskValue(perParty)
		if err != nil {
			return nil, fmt.Errorf("masker: unmasking %q: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

func (sm *SecretMasker) unmaskValue(perParty map[party.ID]value.Value) (value.Value, error) {
	var sample value.Value
	for _, v := range perParty {
		sample = v
		break
	}
	switch {
	case sample.Type.Kind.IsCompound():
		return sm.unmaskCompound(perParty, sample)
	case sample.Type.Kind == value.KindSecretBlob:
		raw, err := sm.recoverBytes(perParty, sample.BlobLen, func(v value.Value) []value.Value { return v.Elements })
		if err != nil {
			return value.Value{}, err
		}
		return value.NewSecretBlob(raw), nil
	case sample.Type.Kind.IsShare():
		secretKind, _ := value.SecretKindFor(sample.Type.Kind)
		sharer := shamir.NewSharer(sm.parties.IDs()[0], sm.degree, sm.parties, sm.modulus)
		var shares []shamir.Share
		for id, v := range perParty {
			x, _ := sm.parties.Abscissa(sm.modulus, id)
			shares = append(shares, shamir.Share{Party: id, Point: poly.Point{X: x, Y: v.Share}})
		}
		secret, err := sharer.Recover(shares, sm.degree)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewSecret(secretKind, secret), nil
	default:
		return sample, nil
	}
}

func (sm *SecretMasker) unmaskCompound(perParty map[party.ID]value.Value, sample value.Value) (value.Value, error) {
	n := len(sample.Elements)
	children := make([]value.Value, n)
	for i := 0; i < n; i++ {
		childPerParty := make(map[party.ID]value.Value, len(perParty))
		for id, v := range perParty {
			childPerParty[id] = v.Elements[i]
		}
		child, err := sm.unmaskValue(childPerParty)
		if err != nil {
			return value.Value{}, err
		}
		children[i] = child
	}
	return value.Value{Type: sample.Type, Elements: children}, nil
}

func (sm *SecretMasker) recoverBytes(perParty map[party.ID]value.Value, blobLen int, chunks func(value.Value) []value.Value) ([]byte, error) {
	var numChunks int
	for _, v := range perParty {
		numChunks = len(chunks(v))
		break
	}
	sharer := shamir.NewSharer(sm.parties.IDs()[0], sm.degree, sm.parties, sm.modulus)
	out := make([]byte, 0, blobLen)
	chunkSize := value.ChunkSize(sm.modulus)
	for i := 0; i < numChunks; i++ {
		var shares []shamir.Share
		for id, v := range perParty {
			x, _ := sm.parties.Abscissa(sm.modulus, id)
			shares = append(shares, shamir.Share{Party: id, Point: poly.Point{X: x, Y: chunks(v)[i].Share}})
		}
		elem, err := sharer.Recover(shares, sm.degree)
		if err != nil {
			return nil, err
		}
		// Encode's payload is little-endian, the byte order shareBytes copied
		// the chunk in with, so the chunk is its first chunkSize bytes.
		encoded := elem.Encode()
		out = append(out, encoded[1:1+chunkSize]...)
	}
	if len(out) > blobLen {
		out = out[:blobLen]
	}
	return out, nil
}
