package runtime

import (
	"crypto/sha512"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/NillionNetwork/nilcore/errs"
	"github.com/NillionNetwork/nilcore/field"
	"github.com/NillionNetwork/nilcore/online"
	"github.com/NillionNetwork/nilcore/party"
	"github.com/NillionNetwork/nilcore/prep"
	"github.com/NillionNetwork/nilcore/protocols"
	"github.com/NillionNetwork/nilcore/signing"
	"github.com/NillionNetwork/nilcore/sm"
	"github.com/NillionNetwork/nilcore/value"
)

// maxBitWidth bounds the trial decode publicSmallUint/publicPowerOfTwoExponent
// run over: every shift amount and power-of-two divisor this build handles
// fits a 64-bit word.
const maxBitWidth = 63

// DefaultDispatch wires every protocols.Variant the lowering pipeline in
// package protocols can produce, local and online alike (spec §4.G's full
// lowering table), including VPrivateOutputEquality, which no lowering
// path currently emits but is wired anyway so the dispatch table stays a
// complete mirror of the Variant enum rather than drifting out of sync
// with it again.
func DefaultDispatch() *Dispatch {
	return &Dispatch{
		Local: map[protocols.Variant]LocalFunc{
			protocols.VLiteral:                   localLiteral,
			protocols.VAdditionPublic:            localBinary(field.Element.Add),
			protocols.VAdditionSharePublic:       localBinary(field.Element.Add),
			protocols.VAdditionShares:            localBinary(field.Element.Add),
			protocols.VSubtractionPublic:         localBinary(field.Element.Sub),
			protocols.VSubtractionSharePublic:    localBinary(field.Element.Sub),
			protocols.VSubtractionShares:         localBinary(field.Element.Sub),
			protocols.VMultiplicationPublic:      localBinary(field.Element.Mul),
			protocols.VMultiplicationSharePublic: localBinary(field.Element.Mul),
			protocols.VShamirShareCast:           localCastToShare,
			protocols.VTrivialShareCast:          localCastToShare,
			protocols.VGet:                       localGet,
			protocols.VNewArray:                  localNewArray,
			protocols.VNewTuple:                  localNewTuple,
			protocols.VLoad:                      localLoad,
			protocols.VLessThanPublic:            localLessThanPublic,
			protocols.VEqualityPublic:             localEqualityPublic,
			protocols.VNot:                        localNot,
			protocols.VModuloPublic:               localModuloPublic,
			protocols.VDivisionIntegerPublic:      localDivisionIntegerPublic,
			protocols.VLeftShiftShares:            localLeftShiftShares,
		},
		Online: map[protocols.Variant]OnlineFunc{
			protocols.VMultiplicationShares:                      onlineMultiplicationShares,
			protocols.VReveal:                                    onlineReveal,
			protocols.VLessThanShares:                             onlineLessThanShares,
			protocols.VRightShiftShares:                           onlineRightShiftShares,
			protocols.VModuloSecretDividendPublicDivisor:          onlineModuloSecretDividendPublicDivisor,
			protocols.VModuloSecretDivisor:                        onlineModuloSecretDivisor,
			protocols.VDivisionIntegerSecretDividendPublicDivisor: onlineDivisionIntegerSecretDividendPublicDivisor,
			protocols.VDivisionIntegerSecretDivisor:               onlineDivisionIntegerSecretDivisor,
			protocols.VPublicOutputEquality:                       onlinePublicOutputEquality,
			protocols.VPrivateOutputEquality:                      onlinePrivateOutputEquality,
			protocols.VEcdsaSign:                                  onlineEcdsaSign,
			protocols.VEddsaSign:                                  onlineEddsaSign,
			protocols.VRandomInteger:                              onlineRandomInteger,
			protocols.VRandomBoolean:                              onlineRandomBoolean,
		},
	}
}

func operandValue(h *Heap, addr protocols.ProtocolAddress) (value.Value, error) {
	return h.Load(addr)
}

func localLiteral(h *Heap, p *protocols.Protocol) (value.Value, error) {
	if p.Literal == nil {
		return value.Value{}, errs.ErrProtocolMemory
	}
	return *p.Literal, nil
}

// isShareKind reports whether a value's kind is backed by one party's Share
// field rather than a revealed Public field. This covers both the
// client-facing Secret* kinds and the explicit ShamirShare* kinds: the MIR
// lowerer never rewrites an operation's declared type when it crosses into
// protocol/share territory (protocols.Lower keeps the original mir.Program
// type), so a Secret* typed protocol result is, in the online/runtime
// layers, exactly one party's share of that value — the same representation
// VShamirShareCast produces explicitly. Only the always-public Kinds
// (Integer, UnsignedInteger, Boolean, ...) hold a revealed Public field.
func isShareKind(k value.Kind) bool {
	return k.IsSecret() || k.IsShare()
}

func scalarOf(v value.Value) field.Element {
	if isShareKind(v.Type.Kind) {
		return v.Share
	}
	return v.Public
}

// localBinary builds a LocalFunc for any two-operand arithmetic variant
// whose deps are exactly [left, right] and whose result is a plain scalar
// combination of their field encodings.
func localBinary(op func(field.Element, field.Element) field.Element) LocalFunc {
	return func(h *Heap, p *protocols.Protocol) (value.Value, error) {
		if len(p.Deps) != 2 {
			return value.Value{}, errs.ErrProtocolMemory
		}
		left, err := operandValue(h, p.Deps[0])
		if err != nil {
			return value.Value{}, err
		}
		right, err := operandValue(h, p.Deps[1])
		if err != nil {
			return value.Value{}, err
		}
		result := op(scalarOf(left), scalarOf(right))
		if isShareKind(p.Type.Kind) {
			return value.Value{Type: p.Type, Share: result}, nil
		}
		return value.Value{Type: p.Type, Public: result}, nil
	}
}

func localCastToShare(h *Heap, p *protocols.Protocol) (value.Value, error) {
	src, err := operandValue(h, p.Deps[0])
	if err != nil {
		return value.Value{}, err
	}
	return value.Value{Type: p.Type, Share: scalarOf(src)}, nil
}

func localGet(h *Heap, p *protocols.Protocol) (value.Value, error) {
	container, err := operandValue(h, p.Deps[0])
	if err != nil {
		return value.Value{}, err
	}
	if p.FieldIndex < 0 || p.FieldIndex >= len(container.Elements) {
		return value.Value{}, errs.ErrProtocolMemory
	}
	return container.Elements[p.FieldIndex], nil
}

func localNewArray(h *Heap, p *protocols.Protocol) (value.Value, error) {
	elements := make([]value.Value, len(p.Deps))
	for i, dep := range p.Deps {
		v, err := operandValue(h, dep)
		if err != nil {
			return value.Value{}, err
		}
		elements[i] = v
	}
	return value.Value{Type: p.Type, Elements: elements}, nil
}

func localNewTuple(h *Heap, p *protocols.Protocol) (value.Value, error) {
	return localNewArray(h, p)
}

// localLoad re-reads an input address's own slot. VLoad protocols exist so
// every declared input has a ProtocolAddress other protocols can depend on;
// the value itself was already written by VM.SetInput before the plan ran.
func localLoad(h *Heap, p *protocols.Protocol) (value.Value, error) {
	return h.Load(p.Address)
}

// booleanValue encodes a Go bool as the field element 0 or 1, the
// client-facing representation of a public comparison/equality result.
func booleanValue(m *field.Modulus, t value.Type, b bool) value.Value {
	if b {
		return value.Value{Type: t, Public: field.One(m)}
	}
	return value.Value{Type: t, Public: field.Zero(m)}
}

// localLessThanPublic computes a strict less-than (or, with p.Negate, its
// negation: <= or >=) over two public operands; protocols.Lower has already
// reordered p.Deps so the primitive here is always plain strict-<.
func localLessThanPublic(h *Heap, p *protocols.Protocol) (value.Value, error) {
	if len(p.Deps) != 2 {
		return value.Value{}, errs.ErrProtocolMemory
	}
	left, err := operandValue(h, p.Deps[0])
	if err != nil {
		return value.Value{}, err
	}
	right, err := operandValue(h, p.Deps[1])
	if err != nil {
		return value.Value{}, err
	}
	result := scalarOf(left).LessThan(scalarOf(right))
	if p.Negate {
		result = !result
	}
	return booleanValue(left.Public.Modulus(), p.Type, result), nil
}

// localEqualityPublic computes x == y (or, with p.Negate, x != y) over two
// public operands.
func localEqualityPublic(h *Heap, p *protocols.Protocol) (value.Value, error) {
	if len(p.Deps) != 2 {
		return value.Value{}, errs.ErrProtocolMemory
	}
	left, err := operandValue(h, p.Deps[0])
	if err != nil {
		return value.Value{}, err
	}
	right, err := operandValue(h, p.Deps[1])
	if err != nil {
		return value.Value{}, err
	}
	result := scalarOf(left).Equal(scalarOf(right))
	if p.Negate {
		result = !result
	}
	return booleanValue(left.Public.Modulus(), p.Type, result), nil
}

func onlineMultiplicationShares(ctx *online.Context, h *Heap, p *protocols.Protocol, _ prep.Range) (sm.State, sm.Output, error) {
	left, err := operandValue(h, p.Deps[0])
	if err != nil {
		return nil, sm.Output{}, err
	}
	right, err := operandValue(h, p.Deps[1])
	if err != nil {
		return nil, sm.Output{}, err
	}
	return online.NewMult(ctx, 0, left.Share, right.Share)
}

func onlineReveal(ctx *online.Context, h *Heap, p *protocols.Protocol, _ prep.Range) (sm.State, sm.Output, error) {
	operand, err := operandValue(h, p.Deps[0])
	if err != nil {
		return nil, sm.Output{}, err
	}
	return online.NewReveal(ctx, 0, ctx.Degree, operand.Share, online.RevealMode{})
}

// localNot computes the boolean negation 1-x of a public or shared 0/1
// field element. Subtracting a share from the public constant 1 is the
// same local linear transform localBinary already applies for
// SharePublic-kind arithmetic: shifting every party's share of f by a
// public constant c produces valid shares of f+c, since the constant
// polynomial c added to the sharing polynomial evaluates to c at every
// abscissa.
func localNot(h *Heap, p *protocols.Protocol) (value.Value, error) {
	if len(p.Deps) != 1 {
		return value.Value{}, errs.ErrProtocolMemory
	}
	operand, err := operandValue(h, p.Deps[0])
	if err != nil {
		return value.Value{}, err
	}
	x := scalarOf(operand)
	result := field.One(x.Modulus()).Sub(x)
	if isShareKind(p.Type.Kind) {
		return value.Value{Type: p.Type, Share: result}, nil
	}
	return value.Value{Type: p.Type, Public: result}, nil
}

// localModuloPublic computes x mod y for two public operands.
func localModuloPublic(h *Heap, p *protocols.Protocol) (value.Value, error) {
	if len(p.Deps) != 2 {
		return value.Value{}, errs.ErrProtocolMemory
	}
	left, err := operandValue(h, p.Deps[0])
	if err != nil {
		return value.Value{}, err
	}
	right, err := operandValue(h, p.Deps[1])
	if err != nil {
		return value.Value{}, err
	}
	result, err := left.Public.SignedFloorMod(right.Public)
	if err != nil {
		return value.Value{}, err
	}
	return value.Value{Type: p.Type, Public: result}, nil
}

// localDivisionIntegerPublic computes floor(x/y) for two public operands.
// x-rem is an exact multiple of y as a signed integer, so dividing it by y
// in field arithmetic (multiplying by y's modular inverse) recovers the
// precise quotient rather than a merely-congruent value.
func localDivisionIntegerPublic(h *Heap, p *protocols.Protocol) (value.Value, error) {
	if len(p.Deps) != 2 {
		return value.Value{}, errs.ErrProtocolMemory
	}
	left, err := operandValue(h, p.Deps[0])
	if err != nil {
		return value.Value{}, err
	}
	right, err := operandValue(h, p.Deps[1])
	if err != nil {
		return value.Value{}, err
	}
	rem, err := left.Public.SignedFloorMod(right.Public)
	if err != nil {
		return value.Value{}, err
	}
	quotient, err := left.Public.Sub(rem).Div(right.Public)
	if err != nil {
		return value.Value{}, err
	}
	return value.Value{Type: p.Type, Public: quotient}, nil
}

// publicSmallUint decodes a public field element known to represent a
// small non-negative integer (a shift amount) by trial match: field.Element
// exposes no integer accessor outside its own package, and every shift
// amount this build handles fits within maxBitWidth.
func publicSmallUint(v field.Element, max int) (int, error) {
	m := v.Modulus()
	for k := 0; k <= max; k++ {
		if field.FromUint64(m, uint64(k)).Equal(v) {
			return k, nil
		}
	}
	return 0, errs.ErrProtocolMemory
}

// publicPowerOfTwoExponent decodes a public field element known to be a
// power of two into its exponent, the bit width MOD2M/TRUNC need. MODULO
// and DIVISION-by-a-public-divisor are only wired for power-of-two
// divisors, the same restriction MOD2M/TRUNC's gadgetry imposes; a
// non-power-of-two public divisor fails here rather than silently
// misrounding.
func publicPowerOfTwoExponent(v field.Element, max int) (int, error) {
	m := v.Modulus()
	for k := 0; k <= max; k++ {
		if field.FromUint64(m, uint64(1)<<uint(k)).Equal(v) {
			return k, nil
		}
	}
	return 0, errs.ErrProtocolMemory
}

// localLeftShiftShares multiplies a secret share (or a client-side secret
// scalar, before it has been cast to a share) by the public power of two
// its shift amount names; like localNot, this is a local linear transform
// of the sharing polynomial, not a fresh protocol round.
func localLeftShiftShares(h *Heap, p *protocols.Protocol) (value.Value, error) {
	if len(p.Deps) != 2 {
		return value.Value{}, errs.ErrProtocolMemory
	}
	left, err := operandValue(h, p.Deps[0])
	if err != nil {
		return value.Value{}, err
	}
	right, err := operandValue(h, p.Deps[1])
	if err != nil {
		return value.Value{}, err
	}
	k, err := publicSmallUint(right.Public, maxBitWidth)
	if err != nil {
		return value.Value{}, err
	}
	x := scalarOf(left)
	factor := field.FromUint64(x.Modulus(), 2).ExpMod(uint64(k))
	result := x.Mul(factor)
	if isShareKind(p.Type.Kind) {
		return value.Value{Type: p.Type, Share: result}, nil
	}
	return value.Value{Type: p.Type, Public: result}, nil
}

// negatedState wraps an online protocol's State, negating (1-x) whatever
// terminal field.Element Final it eventually produces. protocols.Lower
// expresses <=, >=, and != as "the strict/equality primitive, negated"
// (Protocol.Negate) without rewriting the dependency order or the
// underlying protocol, so the negation has to compose with however many
// rounds that protocol takes rather than assume it finishes in one.
type negatedState struct {
	inner sm.State
}

func (n *negatedState) Round() sm.Round           { return n.inner.Round() }
func (n *negatedState) IsCompleted() bool         { return n.inner.IsCompleted() }
func (n *negatedState) Accept(m sm.Message) error { return n.inner.Accept(m) }

func (n *negatedState) Transition() (sm.State, sm.Output, error) {
	next, out, err := n.inner.Transition()
	if err != nil {
		return nil, sm.Output{}, err
	}
	if !out.IsFinal {
		return &negatedState{inner: next}, out, nil
	}
	result := out.Final.(field.Element)
	out.Final = field.One(result.Modulus()).Sub(result)
	return nil, out, nil
}

// negateIfNeeded applies negatedState around state when p.Negate is set,
// the common tail every comparator/equality OnlineFunc below shares.
func negateIfNeeded(p *protocols.Protocol, state sm.State, out sm.Output, err error) (sm.State, sm.Output, error) {
	if err != nil || !p.Negate {
		return state, out, err
	}
	if out.IsFinal {
		result := out.Final.(field.Element)
		out.Final = field.One(result.Modulus()).Sub(result)
		return state, out, nil
	}
	return &negatedState{inner: state}, out, nil
}

func prepBundle[T any](ctx *online.Context, kind protocols.PrepKind, assigned prep.Range) (T, error) {
	var zero T
	data, err := ctx.Prep.Data(prep.Kind(kind), assigned)
	if err != nil {
		return zero, err
	}
	if len(data) == 0 {
		return zero, errs.ErrProtocolMemory
	}
	bundle, ok := data[0].(map[party.ID]T)
	if !ok {
		return zero, errs.ErrProtocolMemory
	}
	material, ok := bundle[ctx.Local]
	if !ok {
		return zero, errs.ErrProtocolMemory
	}
	return material, nil
}

func onlineLessThanShares(ctx *online.Context, h *Heap, p *protocols.Protocol, assigned prep.Range) (sm.State, sm.Output, error) {
	left, err := operandValue(h, p.Deps[0])
	if err != nil {
		return nil, sm.Output{}, err
	}
	right, err := operandValue(h, p.Deps[1])
	if err != nil {
		return nil, sm.Output{}, err
	}
	material, err := prepBundle[online.PrepCompareMaterial](ctx, protocols.PrepCompare, assigned)
	if err != nil {
		return nil, sm.Output{}, err
	}
	state, out, err := online.NewCompare(ctx, 0, left.Share, right.Share, material)
	return negateIfNeeded(p, state, out, err)
}

func onlineRightShiftShares(ctx *online.Context, h *Heap, p *protocols.Protocol, assigned prep.Range) (sm.State, sm.Output, error) {
	left, err := operandValue(h, p.Deps[0])
	if err != nil {
		return nil, sm.Output{}, err
	}
	right, err := operandValue(h, p.Deps[1])
	if err != nil {
		return nil, sm.Output{}, err
	}
	k, err := publicSmallUint(right.Public, maxBitWidth)
	if err != nil {
		return nil, sm.Output{}, err
	}
	material, err := prepBundle[online.PrepModuloMaterial](ctx, protocols.PrepTrunc, assigned)
	if err != nil {
		return nil, sm.Output{}, err
	}
	return online.NewTrunc(ctx, 0, left.Share, k, material)
}

func onlineModuloSecretDividendPublicDivisor(ctx *online.Context, h *Heap, p *protocols.Protocol, assigned prep.Range) (sm.State, sm.Output, error) {
	left, err := operandValue(h, p.Deps[0])
	if err != nil {
		return nil, sm.Output{}, err
	}
	right, err := operandValue(h, p.Deps[1])
	if err != nil {
		return nil, sm.Output{}, err
	}
	bits, err := publicPowerOfTwoExponent(right.Public, maxBitWidth)
	if err != nil {
		return nil, sm.Output{}, err
	}
	material, err := prepBundle[online.PrepModuloMaterial](ctx, protocols.PrepModulo, assigned)
	if err != nil {
		return nil, sm.Output{}, err
	}
	return online.NewMod2M(ctx, 0, left.Share, bits, material)
}

func onlineDivisionIntegerSecretDividendPublicDivisor(ctx *online.Context, h *Heap, p *protocols.Protocol, assigned prep.Range) (sm.State, sm.Output, error) {
	left, err := operandValue(h, p.Deps[0])
	if err != nil {
		return nil, sm.Output{}, err
	}
	right, err := operandValue(h, p.Deps[1])
	if err != nil {
		return nil, sm.Output{}, err
	}
	bits, err := publicPowerOfTwoExponent(right.Public, maxBitWidth)
	if err != nil {
		return nil, sm.Output{}, err
	}
	material, err := prepBundle[online.PrepModuloMaterial](ctx, protocols.PrepModulo, assigned)
	if err != nil {
		return nil, sm.Output{}, err
	}
	return online.NewTrunc(ctx, 0, left.Share, bits, material)
}

func onlineModuloSecretDivisor(ctx *online.Context, h *Heap, p *protocols.Protocol, assigned prep.Range) (sm.State, sm.Output, error) {
	left, err := operandValue(h, p.Deps[0])
	if err != nil {
		return nil, sm.Output{}, err
	}
	right, err := operandValue(h, p.Deps[1])
	if err != nil {
		return nil, sm.Output{}, err
	}
	material, err := prepBundle[online.DivisionMaterial](ctx, protocols.PrepDiv, assigned)
	if err != nil {
		return nil, sm.Output{}, err
	}
	return online.NewModSecretDivisor(ctx, 0, left.Share, right.Share, material)
}

func onlineDivisionIntegerSecretDivisor(ctx *online.Context, h *Heap, p *protocols.Protocol, assigned prep.Range) (sm.State, sm.Output, error) {
	left, err := operandValue(h, p.Deps[0])
	if err != nil {
		return nil, sm.Output{}, err
	}
	right, err := operandValue(h, p.Deps[1])
	if err != nil {
		return nil, sm.Output{}, err
	}
	material, err := prepBundle[online.DivisionMaterial](ctx, protocols.PrepDiv, assigned)
	if err != nil {
		return nil, sm.Output{}, err
	}
	return online.NewDivIntSecret(ctx, 0, left.Share, right.Share, material)
}

func onlinePublicOutputEquality(ctx *online.Context, h *Heap, p *protocols.Protocol, assigned prep.Range) (sm.State, sm.Output, error) {
	left, err := operandValue(h, p.Deps[0])
	if err != nil {
		return nil, sm.Output{}, err
	}
	right, err := operandValue(h, p.Deps[1])
	if err != nil {
		return nil, sm.Output{}, err
	}
	material, err := prepBundle[online.EqualityMaterial](ctx, protocols.PrepPubEq, assigned)
	if err != nil {
		return nil, sm.Output{}, err
	}
	state, out, err := online.NewPublicOutputEquality(ctx, 0, left.Share, right.Share, material)
	return negateIfNeeded(p, state, out, err)
}

func onlinePrivateOutputEquality(ctx *online.Context, h *Heap, p *protocols.Protocol, assigned prep.Range) (sm.State, sm.Output, error) {
	left, err := operandValue(h, p.Deps[0])
	if err != nil {
		return nil, sm.Output{}, err
	}
	right, err := operandValue(h, p.Deps[1])
	if err != nil {
		return nil, sm.Output{}, err
	}
	material, err := prepBundle[online.EqualityMaterial](ctx, protocols.PrepEq, assigned)
	if err != nil {
		return nil, sm.Output{}, err
	}
	state, out, err := online.NewPrivateOutputEquality(ctx, 0, left.Share, right.Share, material)
	return negateIfNeeded(p, state, out, err)
}

// onlineEcdsaSign reads the local party's ECDSA key share directly from
// SecretBytes rather than through the generic Share field.Element plumbing:
// unlike the arithmetic protocols, a threshold-ECDSA key share is never cast
// into existence by VShamirShareCast from an in-program secret — it is
// provisioned out of band, one party at a time, the same way the original
// distributes Paillier moduli (spec §4.D "SecretBytes holds
// EcdsaPrivateKey... payloads"). Converting its bytes into a secp256k1
// scalar reduces modulo the curve's group order, the same accept-anything
// contract secp256k1.ModNScalar.SetByteSlice documents.
func onlineEcdsaSign(ctx *online.Context, h *Heap, p *protocols.Protocol, assigned prep.Range) (sm.State, sm.Output, error) {
	keyVal, err := operandValue(h, p.Deps[0])
	if err != nil {
		return nil, sm.Output{}, err
	}
	digestVal, err := operandValue(h, p.Deps[1])
	if err != nil {
		return nil, sm.Output{}, err
	}
	aux, err := prepBundle[signing.AuxInfo](ctx, protocols.PrepEcdsaAuxInfo, assigned)
	if err != nil {
		return nil, sm.Output{}, err
	}
	var keyShare secp256k1.ModNScalar
	keyShare.SetByteSlice(keyVal.SecretBytes)
	var digest [32]byte
	copy(digest[:], digestVal.Bytes)
	eid := signing.ExecutionID{Address: fmt.Sprintf("%d", p.Address)}
	return signing.NewECDSASign(eid, ctx.Parties, &keyShare, digest, aux)
}

// onlineEddsaSign mirrors onlineEcdsaSign's SecretBytes key-share
// convention; an EdDSA key share's bytes are hashed into a uniform 64-byte
// buffer before reduction, the same wide-reduction SetUniformBytes expects
// (filippo.io/edwards25519 rejects SetCanonicalBytes input that isn't
// already a valid reduced scalar).
func onlineEddsaSign(ctx *online.Context, h *Heap, p *protocols.Protocol, _ prep.Range) (sm.State, sm.Output, error) {
	keyVal, err := operandValue(h, p.Deps[0])
	if err != nil {
		return nil, sm.Output{}, err
	}
	msgVal, err := operandValue(h, p.Deps[1])
	if err != nil {
		return nil, sm.Output{}, err
	}
	wide := sha512.Sum512(keyVal.SecretBytes)
	scalar, err := edwards25519.NewScalar().SetUniformBytes(wide[:])
	if err != nil {
		return nil, sm.Output{}, err
	}
	return signing.NewEdDSASign(ctx.Local, ctx.Parties, msgVal.Bytes, scalar)
}

// onlineRandomInteger and onlineRandomBoolean need no protocol rounds at
// all: PREP-RANDOM-INT/PREP-RANDOM-BOOL already ran the RAN/RAN-BIT
// ceremony offline, so the online step is just handing back the share the
// planner's prep.Range points at.
func onlineRandomInteger(ctx *online.Context, h *Heap, p *protocols.Protocol, assigned prep.Range) (sm.State, sm.Output, error) {
	share, err := prepBundle[field.Element](ctx, protocols.PrepRandomInt, assigned)
	if err != nil {
		return nil, sm.Output{}, err
	}
	return nil, sm.Output{IsFinal: true, Final: share}, nil
}

func onlineRandomBoolean(ctx *online.Context, h *Heap, p *protocols.Protocol, assigned prep.Range) (sm.State, sm.Output, error) {
	share, err := prepBundle[field.Element](ctx, protocols.PrepRandomBool, assigned)
	if err != nil {
		return nil, sm.Output{}, err
	}
	return nil, sm.Output{IsFinal: true, Final: share}, nil
}
