// Package protocols lowers a bytecode.Program into a ProtocolsModel: one
// concrete protocol variant per bytecode op, each annotated with a
// local/online execution line and its preprocessing requirement, per spec
// §4.G. Grounded on
// original_source/libs/execution-engine/jit-compiler/src/models/protocols/mod.rs
// for the ProtocolsModel shape and spec §4.G's lowering table for variant
// selection.
package protocols

import (
	"fmt"

	"github.com/NillionNetwork/nilcore/bytecode"
	"github.com/NillionNetwork/nilcore/errs"
	"github.com/NillionNetwork/nilcore/value"
)

// Line classifies a protocol as executing without any network round (Local)
// or requiring message exchange (Online), per spec §3 ExecutionStep.
type Line uint8

const (
	Local Line = iota
	Online
)

// Variant enumerates the concrete protocol catalogue of spec §4.G / §4.I.
type Variant uint8

const (
	VLoad Variant = iota
	VLiteral
	VNewArray
	VNewTuple
	VGet
	VNot

	VAdditionPublic
	VAdditionShares
	VAdditionSharePublic
	VSubtractionPublic
	VSubtractionShares
	VSubtractionSharePublic

	VMultiplicationPublic
	VMultiplicationShares
	VMultiplicationSharePublic

	VModuloPublic
	VModuloSecretDividendPublicDivisor
	VModuloSecretDivisor

	VDivisionIntegerPublic
	VDivisionIntegerSecretDividendPublicDivisor
	VDivisionIntegerSecretDivisor

	VLeftShiftShares
	VRightShiftShares

	VLessThanPublic
	VLessThanShares

	VPublicOutputEquality
	VPrivateOutputEquality
	VEqualityPublic

	VReveal
	VRandomInteger
	VRandomBoolean

	VEcdsaSign
	VEddsaSign

	VShamirShareCast
	VTrivialShareCast
)

// PrepKind names a preprocessing material kind, matching spec §4.H / §6.
type PrepKind string

const (
	PrepCompare       PrepKind = "Compare"
	PrepDiv           PrepKind = "Div"
	PrepModulo        PrepKind = "Modulo"
	PrepTrunc         PrepKind = "Trunc"
	PrepTruncPr       PrepKind = "TruncPr"
	PrepEq            PrepKind = "Eq"
	PrepPubEq         PrepKind = "PubEq"
	PrepRandomInt     PrepKind = "RandomInt"
	PrepRandomBool    PrepKind = "RandomBool"
	PrepEcdsaAuxInfo  PrepKind = "EcdsaAuxInfo"
)

// Requirement names how many units of which preprocessing kind an online
// protocol consumes.
type Requirement struct {
	Kind  PrepKind
	Count int
}

// ProtocolAddress is a dense index into a program's protocol memory space
// (spec §3).
type ProtocolAddress int

// Protocol is one lowered node of the protocol graph.
type Protocol struct {
	Address   ProtocolAddress
	Variant   Variant
	Type      value.Type
	Deps      []ProtocolAddress
	Line      Line
	Prep      *Requirement
	SourceRef int

	// Literal is populated for VLiteral.
	Literal *value.Value
	// ShiftAmount/FieldIndex carry small public operands inline, the way
	// the original keeps shift amounts and field offsets out of the
	// dependency list.
	ShiftAmount uint
	FieldIndex  int
	// Negate flips a comparator's boolean result, turning the strict
	// primitive a protocol's Variant computes into <=, >=, or !=: Deps is
	// already reordered at lowering time so the primitive itself never
	// needs to know about operand order.
	Negate bool
}

// Model is the ProtocolsModel of spec §3: an ordered map of protocols plus
// the input/output memory schemes, literal table, reads table, and
// source-ref index needed by the planner and VM.
type Model struct {
	Protocols     []*Protocol // ordered by Address
	ByAddress     map[ProtocolAddress]*Protocol
	Literals      []value.Value
	InputScheme   map[string]ProtocolAddress
	OutputScheme  map[string]ProtocolAddress
	ReadsTable    map[ProtocolAddress][]ProtocolAddress
	SourceRefs    map[ProtocolAddress]int
	MemorySize    int
}

type lowerer struct {
	bc      *bytecode.Program
	model   *Model
	addrOf  map[bytecode.Address]ProtocolAddress
	next    ProtocolAddress
}

// Lower lowers a bytecode.Program into a ProtocolsModel.
func Lower(bc *bytecode.Program) (*Model, error) {
	l := &lowerer{
		bc: bc,
		model: &Model{
			ByAddress:    map[ProtocolAddress]*Protocol{},
			InputScheme:  map[string]ProtocolAddress{},
			OutputScheme: map[string]ProtocolAddress{},
			ReadsTable:   map[ProtocolAddress][]ProtocolAddress{},
			SourceRefs:   map[ProtocolAddress]int{},
			Literals:     append([]value.Value(nil), bc.Literals...),
		},
		addrOf: map[bytecode.Address]ProtocolAddress{},
	}
	// Every declared input becomes a VLoad protocol up front, giving it a
	// ProtocolAddress other instructions can depend on the same way they
	// depend on any other protocol's result; bytecode.Address values for
	// inputs never appear as an instruction's Result (inputs aren't
	// computed), so without this an operation reading an input directly
	// would resolve to no dependency at all.
	for _, name := range bc.InputNames {
		addr := bc.InputAddr[name]
		load := &Protocol{Address: l.alloc(), Variant: VLoad, Type: bc.InputTypes[name], Line: Local}
		l.addrOf[addr] = load.Address
		l.model.Protocols = append(l.model.Protocols, load)
		l.model.ByAddress[load.Address] = load
		l.model.InputScheme[name] = load.Address
	}
	for _, inst := range bc.Instructions {
		p, err := l.lowerInstruction(inst)
		if err != nil {
			return nil, err
		}
		l.addrOf[inst.Result] = p.Address
		l.model.Protocols = append(l.model.Protocols, p)
		l.model.ByAddress[p.Address] = p
		l.model.SourceRefs[p.Address] = inst.SourceRef
		for _, dep := range p.Deps {
			l.model.ReadsTable[dep] = append(l.model.ReadsTable[dep], p.Address)
		}
	}
	for name, addr := range bc.OutputAddr {
		pa, ok := l.addrOf[addr]
		if !ok {
			return nil, fmt.Errorf("protocols: output %q has no producing protocol", name)
		}
		l.model.OutputScheme[name] = pa
	}
	l.model.MemorySize = int(l.next)
	return l.model, nil
}

func isPublic(t value.Type) bool {
	if t.Kind.IsCompound() {
		switch t.Kind {
		case value.KindArray:
			return isPublic(*t.Inner)
		case value.KindTuple:
			return isPublic(*t.Left) && isPublic(*t.Right)
		}
		return false
	}
	return !t.Kind.IsSecret() && !t.Kind.IsShare()
}

func (l *lowerer) depType(addr bytecode.Address) value.Type {
	t, ok := l.bc.TypeOfAddress(addr)
	if !ok {
		return value.Type{}
	}
	return t
}

func (l *lowerer) depAddr(a bytecode.Address) ProtocolAddress {
	return l.addrOf[a]
}

func (l *lowerer) alloc() ProtocolAddress {
	a := l.next
	l.next++
	return a
}

func (l *lowerer) lowerInstruction(inst bytecode.Instruction) (*Protocol, error) {
	addr := l.alloc()
	p := &Protocol{Address: addr, Type: inst.Type, SourceRef: inst.SourceRef}
	for _, a := range inst.Args {
		if pa, ok := l.addrOf[a]; ok {
			p.Deps = append(p.Deps, pa)
		}
	}

	switch inst.Op {
	case bytecode.OpLiteral:
		p.Variant = VLiteral
		p.Literal = inst.Literal
		p.Line = Local
	case bytecode.OpNot:
		p.Variant = VNot
		p.Line = Local
	case bytecode.OpReveal:
		p.Variant = VReveal
		p.Line = Online
	case bytecode.OpRandom:
		p.Line = Online
		if inst.Type.Kind == value.KindSecretBoolean {
			p.Variant = VRandomBoolean
			p.Prep = &Requirement{Kind: PrepRandomBool, Count: 1}
		} else {
			p.Variant = VRandomInteger
			p.Prep = &Requirement{Kind: PrepRandomInt, Count: 1}
		}
	case bytecode.OpNew:
		if inst.Type.Kind == value.KindArray {
			p.Variant = VNewArray
		} else {
			p.Variant = VNewTuple
		}
		p.FieldIndex = inst.FieldIndex
		p.Line = Local
	case bytecode.OpGet:
		p.Variant = VGet
		p.FieldIndex = inst.FieldIndex
		p.Line = Local
	case bytecode.OpAddition, bytecode.OpSubtraction:
		if err := l.lowerAddSub(inst, p); err != nil {
			return nil, err
		}
	case bytecode.OpMultiplication:
		if err := l.lowerMul(inst, p); err != nil {
			return nil, err
		}
	case bytecode.OpDivision:
		if err := l.lowerDiv(inst, p); err != nil {
			return nil, err
		}
	case bytecode.OpModulo:
		if err := l.lowerMod(inst, p); err != nil {
			return nil, err
		}
	case bytecode.OpLeftShift:
		p.Variant = VLeftShiftShares
		p.Line = Local
	case bytecode.OpRightShift:
		p.Variant = VRightShiftShares
		p.Line = Online
		p.Prep = &Requirement{Kind: PrepTrunc, Count: 1}
	case bytecode.OpLessThan:
		if err := l.lowerLessThan(inst, p); err != nil {
			return nil, err
		}
	case bytecode.OpPublicOutputEquality:
		if inst.Compare == bytecode.CompareNotEqual {
			p.Negate = true
		}
		lhs, rhs := l.depType(inst.Args[0]), l.depType(inst.Args[1])
		if isPublic(lhs) && isPublic(rhs) {
			p.Variant = VEqualityPublic
			p.Line = Local
		} else {
			p.Variant = VPublicOutputEquality
			p.Line = Online
			p.Prep = &Requirement{Kind: PrepPubEq, Count: 1}
		}
	case bytecode.OpEcdsaSign:
		digestType := l.depType(inst.Args[1])
		if digestType.Kind.IsSecret() || digestType.Kind.IsShare() {
			return nil, errs.AtSourceRef(
				fmt.Errorf("%w: ecdsa_sign requires a public digest", errs.ErrOperationUnsupported), inst.SourceRef)
		}
		p.Variant = VEcdsaSign
		p.Line = Online
		p.Prep = &Requirement{Kind: PrepEcdsaAuxInfo, Count: 1}
	case bytecode.OpEddsaSign:
		p.Variant = VEddsaSign
		p.Line = Online
	case bytecode.OpIfElse:
		return nil, errs.AtSourceRef(
			fmt.Errorf("%w: if-else lowering requires constant-time select, not yet wired", errs.ErrOperationUnsupported),
			inst.SourceRef)
	default:
		return nil, errs.AtSourceRef(
			fmt.Errorf("%w: bytecode op %d", errs.ErrOperationUnsupported, inst.Op), inst.SourceRef)
	}
	return p, nil
}

func (l *lowerer) lowerAddSub(inst bytecode.Instruction, p *Protocol) error {
	lhs, rhs := l.depType(inst.Args[0]), l.depType(inst.Args[1])
	local := isPublic(lhs) || isPublic(rhs)
	isAdd := inst.Op == bytecode.OpAddition
	switch {
	case isPublic(lhs) && isPublic(rhs):
		p.Variant = pick(isAdd, VAdditionPublic, VSubtractionPublic)
	case local:
		p.Variant = pick(isAdd, VAdditionSharePublic, VSubtractionSharePublic)
	default:
		p.Variant = pick(isAdd, VAdditionShares, VSubtractionShares)
	}
	p.Line = Local
	return nil
}

func pick(cond bool, a, b Variant) Variant {
	if cond {
		return a
	}
	return b
}

func (l *lowerer) lowerMul(inst bytecode.Instruction, p *Protocol) error {
	lhs, rhs := l.depType(inst.Args[0]), l.depType(inst.Args[1])
	switch {
	case isPublic(lhs) && isPublic(rhs):
		p.Variant = VMultiplicationPublic
		p.Line = Local
	case isPublic(lhs) || isPublic(rhs):
		p.Variant = VMultiplicationSharePublic
		p.Line = Local
	default:
		p.Variant = VMultiplicationShares
		p.Line = Online
	}
	return nil
}

func (l *lowerer) lowerDiv(inst bytecode.Instruction, p *Protocol) error {
	lhs, rhs := l.depType(inst.Args[0]), l.depType(inst.Args[1])
	switch {
	case isPublic(lhs) && isPublic(rhs):
		p.Variant = VDivisionIntegerPublic
		p.Line = Local
	case isPublic(rhs):
		p.Variant = VDivisionIntegerSecretDividendPublicDivisor
		p.Line = Online
		p.Prep = &Requirement{Kind: PrepModulo, Count: 1}
	default:
		p.Variant = VDivisionIntegerSecretDivisor
		p.Line = Online
		p.Prep = &Requirement{Kind: PrepDiv, Count: 1}
	}
	return nil
}

func (l *lowerer) lowerMod(inst bytecode.Instruction, p *Protocol) error {
	lhs, rhs := l.depType(inst.Args[0]), l.depType(inst.Args[1])
	switch {
	case isPublic(lhs) && isPublic(rhs):
		p.Variant = VModuloPublic
		p.Line = Local
	case isPublic(rhs):
		p.Variant = VModuloSecretDividendPublicDivisor
		p.Line = Online
		p.Prep = &Requirement{Kind: PrepModulo, Count: 1}
	default:
		p.Variant = VModuloSecretDivisor
		p.Line = Online
		p.Prep = &Requirement{Kind: PrepDiv, Count: 1}
	}
	return nil
}

// lowerLessThan handles every ordering operator: bytecode.go already
// canonicalizes >,>= into < over swapped operands (Deps inherits that
// order below), so the only thing left for <=,>= is negating the strict-<
// primitive's result.
func (l *lowerer) lowerLessThan(inst bytecode.Instruction, p *Protocol) error {
	if inst.Compare == bytecode.CompareLessOrEqual || inst.Compare == bytecode.CompareGreaterOrEqual {
		p.Negate = true
	}
	lhs, rhs := l.depType(inst.Args[0]), l.depType(inst.Args[1])
	if isPublic(lhs) && isPublic(rhs) {
		p.Variant = VLessThanPublic
		p.Line = Local
		return nil
	}
	p.Variant = VLessThanShares
	p.Line = Online
	p.Prep = &Requirement{Kind: PrepCompare, Count: 1}
	return nil
}
