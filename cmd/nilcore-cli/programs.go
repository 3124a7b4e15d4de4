package main

import (
	"fmt"

	"github.com/NillionNetwork/nilcore/mir"
	"github.com/NillionNetwork/nilcore/value"
)

// demoProgram builds one of the built-in mir.Program fixtures this CLI
// drives end to end. There is no textual front-end for this core (spec §1
// Non-goals: "a nada-lang compiler front-end"), so compile/plan/simulate/
// bench all work from these Go-constructed programs rather than parsing a
// source file.
func demoProgram(name string) (*mir.Program, error) {
	switch name {
	case "multiply":
		return multiplyProgram(), nil
	case "add-reveal":
		return addRevealProgram(), nil
	default:
		return nil, fmt.Errorf("nilcore-cli: unknown program %q (want multiply, add-reveal)", name)
	}
}

// multiplyProgram computes reveal(a * b) for two secret integers owned by
// different parties.
func multiplyProgram() *mir.Program {
	secret := value.Scalar(value.KindSecretInteger)
	public := value.Scalar(value.KindInteger)
	return &mir.Program{
		Parties: []mir.PartyDef{{Name: "alice", ID: "alice"}, {Name: "bob", ID: "bob"}},
		Inputs: []mir.InputDef{
			{Name: "a", Type: secret, Party: "alice"},
			{Name: "b", Type: secret, Party: "bob"},
		},
		Operations: []mir.Operation{
			{ID: 0, Kind: mir.OpInputRef, Type: secret, InputName: "a"},
			{ID: 1, Kind: mir.OpInputRef, Type: secret, InputName: "b"},
			{ID: 2, Kind: mir.OpMultiplication, Type: secret, Operands: []mir.OperationID{0, 1}},
			{ID: 3, Kind: mir.OpReveal, Type: public, Operands: []mir.OperationID{2}},
		},
		Outputs: []mir.OutputDef{
			{Name: "c", Type: public, Operation: 3, Parties: []string{"alice", "bob"}},
		},
	}
}

// addRevealProgram computes reveal(a + b), exercising the zero-round
// share-addition path rather than MULT's online round.
func addRevealProgram() *mir.Program {
	secret := value.Scalar(value.KindSecretInteger)
	public := value.Scalar(value.KindInteger)
	return &mir.Program{
		Parties: []mir.PartyDef{{Name: "alice", ID: "alice"}, {Name: "bob", ID: "bob"}},
		Inputs: []mir.InputDef{
			{Name: "a", Type: secret, Party: "alice"},
			{Name: "b", Type: secret, Party: "bob"},
		},
		Operations: []mir.Operation{
			{ID: 0, Kind: mir.OpInputRef, Type: secret, InputName: "a"},
			{ID: 1, Kind: mir.OpInputRef, Type: secret, InputName: "b"},
			{ID: 2, Kind: mir.OpAddition, Type: secret, Operands: []mir.OperationID{0, 1}},
			{ID: 3, Kind: mir.OpReveal, Type: public, Operands: []mir.OperationID{2}},
		},
		Outputs: []mir.OutputDef{
			{Name: "c", Type: public, Operation: 3, Parties: []string{"alice", "bob"}},
		},
	}
}
