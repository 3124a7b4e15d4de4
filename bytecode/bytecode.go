// Package bytecode lowers a mir.Program into a flat, address-based
// instruction list, per spec §4.F. Grounded on
// original_source/libs/execution-engine/jit-compiler/src/models/memory.rs
// for the compound-type address allocation table and
// .../mir2bytecode/tests/mod.rs for the expected instruction shapes.
package bytecode

import (
	"fmt"

	"github.com/NillionNetwork/nilcore/errs"
	"github.com/NillionNetwork/nilcore/mir"
	"github.com/NillionNetwork/nilcore/value"
)

// AddressType distinguishes the four disjoint address spaces a
// BytecodeAddress can live in (spec §4.F).
type AddressType uint8

const (
	AddressInput AddressType = iota
	AddressOutput
	AddressHeap
	AddressLiterals
)

// Address is a typed index into one of the bytecode's address spaces.
type Address struct {
	Index int
	Type  AddressType
}

// OpCode enumerates the flat bytecode instruction set of spec §4.F.
type OpCode uint8

const (
	OpLoad OpCode = iota
	OpLiteral
	OpNew
	OpGet
	OpNot
	OpReveal
	OpAddition
	OpSubtraction
	OpMultiplication
	OpModulo
	OpPower
	OpLeftShift
	OpRightShift
	OpDivision
	OpLessThan
	OpPublicOutputEquality
	OpEcdsaSign
	OpEddsaSign
	OpIfElse
	OpRandom
)

// CompareKind records which of mir's ordering/equality operators an
// OpLessThan or OpPublicOutputEquality instruction canonicalizes from, so
// protocols lowering can recover the operand order and result negation the
// canonical Op alone throws away.
type CompareKind uint8

const (
	CompareLess CompareKind = iota
	CompareLessOrEqual
	CompareGreater
	CompareGreaterOrEqual
	CompareEqual
	CompareNotEqual
)

// Instruction is one flat bytecode op, addressed by its own heap Address.
type Instruction struct {
	Result    Address
	Op        OpCode
	Type      value.Type
	Args      []Address
	SourceRef int

	// Literal is populated for OpLiteral.
	Literal *value.Value
	// FieldIndex is populated for OpGet (element/field index) and OpNew
	// (declared arity).
	FieldIndex int
	// Compare is populated for OpLessThan and OpPublicOutputEquality.
	Compare CompareKind
}

// Program is the flat bytecode form of a mir.Program.
type Program struct {
	Instructions []Instruction
	InputNames   []string
	InputAddr    map[string]Address
	InputTypes   map[string]value.Type
	OutputNames  []string
	OutputAddr   map[string]Address
	Literals     []value.Value
	HeapSize     int
}

// TypeOfAddress resolves the value.Type produced at addr, searching inputs,
// literals, and instruction results as appropriate. Used by the
// bytecode->protocols lowerer to classify operand types.
func (p *Program) TypeOfAddress(addr Address) (value.Type, bool) {
	switch addr.Type {
	case AddressInput:
		for name, a := range p.InputAddr {
			if a.Index == addr.Index {
				return p.InputTypes[name], true
			}
		}
		return value.Type{}, false
	case AddressLiterals:
		for i, lit := range p.Literals {
			if i == addr.Index {
				return lit.Type, true
			}
		}
		return value.Type{}, false
	default:
		for _, inst := range p.Instructions {
			if inst.Result == addr {
				return inst.Type, true
			}
		}
		return value.Type{}, false
	}
}

type lowerer struct {
	mir        *mir.Program
	prog       *Program
	addrByOp   map[mir.OperationID]Address
	nextHeap   int
	nextInput  int
	nextLit    int
	visited    map[mir.OperationID]bool
	visiting   map[mir.OperationID]bool
}

// Lower compiles a validated mir.Program into bytecode.
func Lower(p *mir.Program) (*Program, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	l := &lowerer{
		mir:      p,
		prog:     &Program{InputAddr: map[string]Address{}, OutputAddr: map[string]Address{}, InputTypes: map[string]value.Type{}},
		addrByOp: map[mir.OperationID]Address{},
		visited:  map[mir.OperationID]bool{},
		visiting: map[mir.OperationID]bool{},
	}
	for i, in := range p.Inputs {
		addr := Address{Index: i, Type: AddressInput}
		l.prog.InputAddr[in.Name] = addr
		l.prog.InputNames = append(l.prog.InputNames, in.Name)
		l.prog.InputTypes[in.Name] = in.Type
		l.nextInput += addressCount(in.Type)
	}
	for _, out := range p.Outputs {
		addr, err := l.lowerOperation(out.Operation)
		if err != nil {
			return nil, err
		}
		l.prog.OutputAddr[out.Name] = addr
		l.prog.OutputNames = append(l.prog.OutputNames, out.Name)
	}
	l.prog.HeapSize = l.nextHeap
	return l.prog, nil
}

// addressCount mirrors original_source's memory.rs allocation table: scalars
// take one address; arrays take size+1 (header + one pointer per element);
// tuples take 3; n-tuples/objects take arity+1.
func addressCount(t value.Type) int {
	return t.ResultElementAddressCount()
}

func (l *lowerer) allocHeap(t value.Type) Address {
	addr := Address{Index: l.nextHeap, Type: AddressHeap}
	l.nextHeap += addressCount(t)
	return addr
}

func (l *lowerer) lowerOperation(id mir.OperationID) (Address, error) {
	if addr, ok := l.addrByOp[id]; ok {
		return addr, nil
	}
	if l.visiting[id] {
		return Address{}, errs.ErrProgramCyclic
	}
	op, ok := l.mir.OperationByID(id)
	if !ok {
		return Address{}, fmt.Errorf("bytecode: unknown operation id %d", id)
	}
	l.visiting[id] = true
	defer delete(l.visiting, id)

	args := make([]Address, len(op.Operands))
	for i, dep := range op.Operands {
		a, err := l.lowerOperation(dep)
		if err != nil {
			return Address{}, err
		}
		args[i] = a
	}

	var inst Instruction
	inst.Type = op.Type
	inst.Args = args
	inst.SourceRef = op.SourceRef

	switch op.Kind {
	case mir.OpInputRef:
		addr, ok := l.prog.InputAddr[op.InputName]
		if !ok {
			return Address{}, errs.AtSourceRef(fmt.Errorf("bytecode: unknown input %q", op.InputName), op.SourceRef)
		}
		l.addrByOp[id] = addr
		return addr, nil
	case mir.OpLiteralRef:
		litAddr := Address{Index: l.nextLit, Type: AddressLiterals}
		l.nextLit += addressCount(op.Type)
		l.prog.Literals = append(l.prog.Literals, *op.Literal)
		result := l.allocHeap(op.Type)
		l.prog.Instructions = append(l.prog.Instructions, Instruction{
			Result: result, Op: OpLiteral, Type: op.Type, Literal: op.Literal,
			Args: []Address{litAddr}, SourceRef: op.SourceRef,
		})
		l.addrByOp[id] = result
		return result, nil
	case mir.OpAddition:
		inst.Op = OpAddition
	case mir.OpSubtraction:
		inst.Op = OpSubtraction
	case mir.OpMultiplication:
		inst.Op = OpMultiplication
	case mir.OpModulo:
		inst.Op = OpModulo
	case mir.OpPower:
		inst.Op = OpPower
	case mir.OpLeftShift:
		inst.Op = OpLeftShift
	case mir.OpRightShift:
		inst.Op = OpRightShift
	case mir.OpDivision:
		inst.Op = OpDivision
	case mir.OpLessThan:
		inst.Op = OpLessThan
		inst.Compare = CompareLess
	case mir.OpLessOrEqualThan:
		// a <= b  <=>  !(b < a)
		inst.Op = OpLessThan
		inst.Compare = CompareLessOrEqual
		inst.Args[0], inst.Args[1] = inst.Args[1], inst.Args[0]
	case mir.OpGreaterThan:
		// a > b  <=>  b < a
		inst.Op = OpLessThan
		inst.Compare = CompareGreater
		inst.Args[0], inst.Args[1] = inst.Args[1], inst.Args[0]
	case mir.OpGreaterOrEqualThan:
		// a >= b  <=>  !(a < b)
		inst.Op = OpLessThan
		inst.Compare = CompareGreaterOrEqual
	case mir.OpPublicOutputEquality, mir.OpEquals:
		inst.Op = OpPublicOutputEquality
		inst.Compare = CompareEqual
	case mir.OpNotEquals:
		inst.Op = OpPublicOutputEquality
		inst.Compare = CompareNotEqual
	case mir.OpRandom:
		inst.Op = OpRandom
	case mir.OpNot:
		inst.Op = OpNot
	case mir.OpReveal:
		inst.Op = OpReveal
	case mir.OpEcdsaSign:
		inst.Op = OpEcdsaSign
	case mir.OpEddsaSign:
		inst.Op = OpEddsaSign
	case mir.OpIfElse:
		inst.Op = OpIfElse
	case mir.OpNewArray, mir.OpNewTuple:
		inst.Op = OpNew
		inst.FieldIndex = len(op.Operands)
	case mir.OpArrayAccessor, mir.OpTupleAccessor:
		inst.Op = OpGet
	default:
		return Address{}, errs.AtSourceRef(
			fmt.Errorf("%w: mir op kind %d", errs.ErrOperationUnsupported, op.Kind), op.SourceRef)
	}

	result := l.allocHeap(op.Type)
	inst.Result = result
	l.prog.Instructions = append(l.prog.Instructions, inst)
	l.addrByOp[id] = result
	return result, nil
}
