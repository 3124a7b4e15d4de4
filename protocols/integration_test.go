package protocols_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/NillionNetwork/nilcore/bytecode"
	"github.com/NillionNetwork/nilcore/mir"
	"github.com/NillionNetwork/nilcore/protocols"
	"github.com/NillionNetwork/nilcore/value"
)

func TestIntegration(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Protocol Lowering Integration Suite")
}

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

// comparisonProgram builds reveal(a OP b) for two public integer inputs, the
// shape used to check bytecode's operand-swap/negate canonicalization
// survives into the protocols.Model unchanged.
func comparisonProgram(op mir.OpKind) *mir.Program {
	public := value.Scalar(value.KindInteger)
	return &mir.Program{
		Parties: []mir.PartyDef{{Name: "alice", ID: "alice"}, {Name: "bob", ID: "bob"}},
		Inputs: []mir.InputDef{
			{Name: "a", Type: public, Party: "alice"},
			{Name: "b", Type: public, Party: "bob"},
		},
		Operations: []mir.Operation{
			{ID: 0, Kind: mir.OpInputRef, Type: public, InputName: "a"},
			{ID: 1, Kind: mir.OpInputRef, Type: public, InputName: "b"},
			{ID: 2, Kind: op, Type: public, Operands: []mir.OperationID{0, 1}},
		},
		Outputs: []mir.OutputDef{
			{Name: "c", Type: public, Operation: 2, Parties: []string{"alice", "bob"}},
		},
	}
}

func lower(prog *mir.Program) *protocols.Model {
	bc, err := bytecode.Lower(prog)
	Expect(err).NotTo(HaveOccurred())
	model, err := protocols.Lower(bc)
	Expect(err).NotTo(HaveOccurred())
	return model
}

var _ = Describe("mir to protocols lowering pipeline", func() {
	Describe("a multiply-then-reveal program", func() {
		var model *protocols.Model

		BeforeEach(func() {
			model = lower(multiplyProgram())
		})

		It("declares both inputs and the single output in the memory scheme", func() {
			Expect(model.InputScheme).To(HaveKey("a"))
			Expect(model.InputScheme).To(HaveKey("b"))
			Expect(model.OutputScheme).To(HaveKey("c"))
		})

		It("produces exactly one online multiplication and one online reveal", func() {
			var mults, reveals int
			for _, p := range model.Protocols {
				switch p.Variant {
				case protocols.VMultiplicationShares:
					mults++
					Expect(p.Line).To(Equal(protocols.Online))
				case protocols.VReveal:
					reveals++
					Expect(p.Line).To(Equal(protocols.Online))
				}
			}
			Expect(mults).To(Equal(1))
			Expect(reveals).To(Equal(1))
		})

		It("orders every dependency address before the protocol that depends on it", func() {
			for _, p := range model.Protocols {
				for _, dep := range p.Deps {
					Expect(dep < p.Address).To(BeTrue(),
						"protocol %d depends on %d, which must already be materialized", p.Address, dep)
				}
			}
		})

		It("indexes ByAddress consistently with Protocols", func() {
			Expect(model.ByAddress).To(HaveLen(len(model.Protocols)))
			for _, p := range model.Protocols {
				Expect(model.ByAddress[p.Address]).To(Equal(p))
			}
		})
	})

	Describe("comparator canonicalization reaching the protocol graph", func() {
		// Each case's Deps must already reflect bytecode's operand swap, and
		// Negate must match the comparator's non-strict/negated forms derived
		// by hand in bytecode.go's CompareKind switch.
		DescribeTable("produces the expected Variant/Negate pair",
			func(op mir.OpKind, wantVariant protocols.Variant, wantNegate bool) {
				model := lower(comparisonProgram(op))
				var found *protocols.Protocol
				for _, p := range model.Protocols {
					if p.Variant == protocols.VLessThanPublic || p.Variant == protocols.VEqualityPublic {
						found = p
					}
				}
				Expect(found).NotTo(BeNil())
				Expect(found.Variant).To(Equal(wantVariant))
				Expect(found.Negate).To(Equal(wantNegate))
				Expect(found.Deps).To(HaveLen(2))
			},
			Entry("<", mir.OpLessThan, protocols.VLessThanPublic, false),
			Entry("<=", mir.OpLessOrEqualThan, protocols.VLessThanPublic, true),
			Entry(">", mir.OpGreaterThan, protocols.VLessThanPublic, false),
			Entry(">=", mir.OpGreaterOrEqualThan, protocols.VLessThanPublic, true),
			Entry("==", mir.OpEquals, protocols.VEqualityPublic, false),
			Entry("!=", mir.OpNotEquals, protocols.VEqualityPublic, true),
		)

		It("swaps operand order for > so Deps reads [b, a] instead of [a, b]", func() {
			gtModel := lower(comparisonProgram(mir.OpGreaterThan))
			ltModel := lower(comparisonProgram(mir.OpLessThan))

			var gtCmp, ltCmp *protocols.Protocol
			for _, p := range gtModel.Protocols {
				if p.Variant == protocols.VLessThanPublic {
					gtCmp = p
				}
			}
			for _, p := range ltModel.Protocols {
				if p.Variant == protocols.VLessThanPublic {
					ltCmp = p
				}
			}
			Expect(gtCmp).NotTo(BeNil())
			Expect(ltCmp).NotTo(BeNil())
			// a > b  lowers to  b < a: the dependency on the input named "b"
			// protocol comes first for >, whereas < keeps "a" first.
			Expect(gtModel.InputScheme["b"]).To(Equal(gtCmp.Deps[0]))
			Expect(ltModel.InputScheme["a"]).To(Equal(ltCmp.Deps[0]))
		})
	})
})
