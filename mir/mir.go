// Package mir implements the mid-level intermediate representation of a
// nilcore program: parties, typed inputs/outputs, and a typed operation DAG,
// per spec §4.E. Grounded on original_source/nada-lang/mir-model/src/lib.rs
// for the operation kind enumeration and original_source/nada-lang/mir-model/
// src/utils.rs for the DAG validation pass names
// (check_function_recursion).
package mir

import (
	"github.com/NillionNetwork/nilcore/errs"
	"github.com/NillionNetwork/nilcore/party"
	"github.com/NillionNetwork/nilcore/value"
)

// OpKind enumerates the MIR operation catalogue of spec §4.E.
type OpKind uint8

const (
	OpAddition OpKind = iota
	OpSubtraction
	OpMultiplication
	OpModulo
	OpPower
	OpLeftShift
	OpRightShift
	OpDivision
	OpLessThan
	OpLessOrEqualThan
	OpGreaterThan
	OpGreaterOrEqualThan
	OpEquals
	OpNotEquals
	OpPublicOutputEquality
	OpCast
	OpInputRef
	OpLiteralRef
	OpFunctionArgRef
	OpIfElse
	OpReveal
	OpRandom
	OpNot
	OpBooleanAnd
	OpBooleanOr
	OpBooleanXor
	OpTruncPr
	OpInnerProduct
	OpNewArray
	OpNewTuple
	OpArrayAccessor
	OpTupleAccessor
	OpMap
	OpReduce
	OpZip
	OpUnzip
	OpFunctionCall
	OpEcdsaSign
	OpEddsaSign
	OpPublicKeyDerive
)

// OperationID is a stable integer identifier for one MIR operation.
type OperationID uint32

// Operation is one node of the MIR operation DAG. Every operation has a
// stable ID, a source-ref index for error reporting (spec §4.E), a result
// type, and zero or more operand operation IDs.
type Operation struct {
	ID        OperationID
	Kind      OpKind
	Type      value.Type
	Operands  []OperationID
	SourceRef int

	// Literal holds the constant for OpLiteralRef.
	Literal *value.Value
	// InputName holds the bound input name for OpInputRef.
	InputName string
	// FieldName holds the accessed field for OpTupleAccessor/ObjectAccessor
	// and the declared field for object construction.
	FieldName string
	// FunctionName holds the callee for OpFunctionCall.
	FunctionName string
}

// PartyDef binds a party name to a cluster party.ID.
type PartyDef struct {
	Name string
	ID   party.ID
}

// InputDef names and types one of the program's inputs, bound to a party.
type InputDef struct {
	Name  string
	Type  value.Type
	Party string
}

// OutputDef names and types one of the program's outputs, bound to the
// operation producing it and the party(ies) allowed to see it.
type OutputDef struct {
	Name      string
	Type      value.Type
	Operation OperationID
	Parties   []string
}

// Function is a named, non-recursive subroutine: its own operand DAG in
// terms of FunctionArgRef placeholders.
type Function struct {
	Name       string
	ArgTypes   []value.Type
	ReturnType value.Type
	Operations []Operation
	Result     OperationID
}

// Program is a complete MIR document (spec §4.E, §6 "Program source").
type Program struct {
	Parties    []PartyDef
	Inputs     []InputDef
	Outputs    []OutputDef
	Operations []Operation
	Functions  []Function
}

// OperationByID looks up an operation by its stable ID.
func (p *Program) OperationByID(id OperationID) (*Operation, bool) {
	for i := range p.Operations {
		if p.Operations[i].ID == id {
			return &p.Operations[i], true
		}
	}
	return nil, false
}

// Validate runs the mandatory validation passes: acyclicity and
// non-recursive function calls (spec §4.E invariant).
func (p *Program) Validate() error {
	if err := p.checkAcyclic(); err != nil {
		return err
	}
	return p.checkFunctionRecursion()
}

func (p *Program) checkAcyclic() error {
	const (
		white = iota
		gray
		black
	)
	color := make(map[OperationID]int, len(p.Operations))
	var visit func(id OperationID) error
	visit = func(id OperationID) error {
		switch color[id] {
		case black:
			return nil
		case gray:
			return errs.ErrProgramCyclic
		}
		color[id] = gray
		op, ok := p.OperationByID(id)
		if !ok {
			return errs.AtSourceRef(errs.ErrUnknownType, -1)
		}
		for _, dep := range op.Operands {
			if err := visit(dep); err != nil {
				return err
			}
		}
		color[id] = black
		return nil
	}
	for _, op := range p.Operations {
		if err := visit(op.ID); err != nil {
			return errs.AtSourceRef(err, op.SourceRef)
		}
	}
	return nil
}

// checkFunctionRecursion rejects functions that call themselves, directly or
// transitively, matching original_source/nada-lang/mir-model/src/utils.rs's
// mandatory pass of the same name.
func (p *Program) checkFunctionRecursion() error {
	callGraph := make(map[string][]string, len(p.Functions))
	for _, fn := range p.Functions {
		var callees []string
		for _, op := range fn.Operations {
			if op.Kind == OpFunctionCall {
				callees = append(callees, op.FunctionName)
			}
		}
		callGraph[fn.Name] = callees
	}
	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int, len(callGraph))
	var visit func(name string) error
	visit = func(name string) error {
		switch color[name] {
		case black:
			return nil
		case gray:
			return errs.ErrRecursiveFunction
		}
		color[name] = gray
		for _, callee := range callGraph[name] {
			if err := visit(callee); err != nil {
				return err
			}
		}
		color[name] = black
		return nil
	}
	for name := range callGraph {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}
