package runtime_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/NillionNetwork/nilcore/bytecode"
	"github.com/NillionNetwork/nilcore/cluster"
	"github.com/NillionNetwork/nilcore/field"
	"github.com/NillionNetwork/nilcore/masker"
	"github.com/NillionNetwork/nilcore/mir"
	"github.com/NillionNetwork/nilcore/online"
	"github.com/NillionNetwork/nilcore/party"
	"github.com/NillionNetwork/nilcore/protocols"
	"github.com/NillionNetwork/nilcore/runtime"
	"github.com/NillionNetwork/nilcore/sm"
	"github.com/NillionNetwork/nilcore/value"
)

func TestIntegration(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Runtime Integration Suite")
}

// nodes names a cluster's computing parties, distinct from the mir.Program's
// input-owning parties (spec §6: clients submit to a fixed node cluster).
func nodes(n int) party.Set {
	ids := make([]party.ID, n)
	for i := range ids {
		ids[i] = party.ID(partyName(i))
	}
	return party.NewSet(ids)
}

func partyName(i int) string {
	return string(rune('A' + i))
}

// twoInputProgram builds reveal(a OP b) for two secret integer inputs owned
// by distinct mir parties, the same shape as cmd/nilcore-cli's demo
// programs.
func twoInputProgram(op mir.OpKind) *mir.Program {
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
			{ID: 2, Kind: op, Type: secret, Operands: []mir.OperationID{0, 1}},
			{ID: 3, Kind: mir.OpReveal, Type: public, Operands: []mir.OperationID{2}},
		},
		Outputs: []mir.OutputDef{
			{Name: "c", Type: public, Operation: 3, Parties: []string{"alice", "bob"}},
		},
	}
}

// publicComparisonProgram builds reveal(a OP b) for two PUBLIC integer
// inputs, exercising the Local VLessThanPublic/VEqualityPublic dispatch path
// rather than an online protocol.
func publicComparisonProgram(op mir.OpKind) *mir.Program {
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

var _ = Describe("end-to-end secure computation", func() {
	var (
		clus *cluster.Cluster
		ids  []party.ID
	)

	BeforeEach(func() {
		SetDefaultEventuallyTimeout(time.Second)
	})

	runProgram := func(prog *mir.Program, degree, numNodes int, inputs map[string]value.Value) map[string]value.Value {
		bc, err := bytecode.Lower(prog)
		Expect(err).NotTo(HaveOccurred())
		model, err := protocols.Lower(bc)
		Expect(err).NotTo(HaveOccurred())

		cfg := cluster.Config{PolynomialDegree: degree, PrimeKind: field.U64SafePrime, PlanStrategy: cluster.PlanSequential}
		clus, err = cluster.Resolve(cfg, nodes(numNodes))
		Expect(err).NotTo(HaveOccurred())
		ids = clus.Parties.IDs()

		execPlan, err := clus.BuildPlan(model)
		Expect(err).NotTo(HaveOccurred())

		shares, err := clus.Masker.Mask(masker.CleartextValues(inputs))
		Expect(err).NotTo(HaveOccurred())

		dispatch := runtime.DefaultDispatch()
		vms := make(map[party.ID]*runtime.VM, len(ids))
		for _, id := range ids {
			ctx := &online.Context{
				Local: id, Parties: clus.Parties, Degree: degree,
				Modulus: clus.Modulus, Sharer: clus.Sharers[id], Prep: clus.Prep,
			}
			vm := runtime.New(ctx, model, execPlan, dispatch)
			for name, v := range shares[id] {
				Expect(vm.SetInput(name, v)).To(Succeed())
			}
			vms[id] = vm
		}

		for stepIndex := range execPlan.Steps {
			for _, id := range ids {
				Expect(vms[id].RunStepLocal(stepIndex)).To(Succeed())
			}
			driveOnlineStep(vms, ids, stepIndex)
		}

		out, err := vms[ids[0]].CollectOutputs()
		Expect(err).NotTo(HaveOccurred())
		return out
	}

	Describe("S1: secret multiplication revealed across a 3-party, T=1 cluster", func() {
		It("recovers the product every party agrees on", func() {
			m := field.NewModulus(field.U64SafePrime)
			inputs := map[string]value.Value{
				"a": value.NewSecret(value.KindSecretInteger, field.FromUint64(m, 42)),
				"b": value.NewSecret(value.KindSecretInteger, field.FromUint64(m, 13)),
			}
			out := runProgram(twoInputProgram(mir.OpMultiplication), 1, 3, inputs)
			c, ok := out["c"]
			Expect(ok).To(BeTrue())
			Expect(c.Public.Equal(field.FromUint64(m, 546))).To(BeTrue())
		})
	})

	Describe("share addition requires no online round", func() {
		It("reveals the sum directly from local shares", func() {
			m := field.NewModulus(field.U64SafePrime)
			inputs := map[string]value.Value{
				"a": value.NewSecret(value.KindSecretInteger, field.FromUint64(m, 42)),
				"b": value.NewSecret(value.KindSecretInteger, field.FromUint64(m, 13)),
			}
			out := runProgram(twoInputProgram(mir.OpAddition), 1, 3, inputs)
			Expect(out["c"].Public.Equal(field.FromUint64(m, 55))).To(BeTrue())
		})
	})

	Describe("S4: public-output equality over public inputs", func() {
		It("reports equal inputs as true", func() {
			m := field.NewModulus(field.U64SafePrime)
			inputs := map[string]value.Value{
				"a": value.NewPublic(value.KindInteger, field.FromUint64(m, 15)),
				"b": value.NewPublic(value.KindInteger, field.FromUint64(m, 15)),
			}
			out := runProgram(publicComparisonProgram(mir.OpEquals), 1, 3, inputs)
			Expect(out["c"].Public.Equal(field.One(m))).To(BeTrue())
		})

		It("reports unequal inputs as false, and != as its negation", func() {
			m := field.NewModulus(field.U64SafePrime)
			inputs := map[string]value.Value{
				"a": value.NewPublic(value.KindInteger, field.FromUint64(m, 100)),
				"b": value.NewPublic(value.KindInteger, field.FromUint64(m, 101)),
			}
			eq := runProgram(publicComparisonProgram(mir.OpEquals), 1, 3, inputs)
			Expect(eq["c"].Public.Equal(field.Zero(m))).To(BeTrue())

			neq := runProgram(publicComparisonProgram(mir.OpNotEquals), 1, 3, inputs)
			Expect(neq["c"].Public.Equal(field.One(m))).To(BeTrue())
		})
	})

	Describe("ordering comparators over public inputs", func() {
		It("agrees across <, <=, >, >= for a strictly-ordered pair", func() {
			m := field.NewModulus(field.U64SafePrime)
			inputs := map[string]value.Value{
				"a": value.NewPublic(value.KindInteger, field.FromUint64(m, 3)),
				"b": value.NewPublic(value.KindInteger, field.FromUint64(m, 7)),
			}
			lt := runProgram(publicComparisonProgram(mir.OpLessThan), 1, 3, inputs)
			Expect(lt["c"].Public.Equal(field.One(m))).To(BeTrue())

			le := runProgram(publicComparisonProgram(mir.OpLessOrEqualThan), 1, 3, inputs)
			Expect(le["c"].Public.Equal(field.One(m))).To(BeTrue())

			gt := runProgram(publicComparisonProgram(mir.OpGreaterThan), 1, 3, inputs)
			Expect(gt["c"].Public.Equal(field.Zero(m))).To(BeTrue())

			ge := runProgram(publicComparisonProgram(mir.OpGreaterOrEqualThan), 1, 3, inputs)
			Expect(ge["c"].Public.Equal(field.Zero(m))).To(BeTrue())
		})

		It("agrees across <, <=, >, >= for an equal pair", func() {
			m := field.NewModulus(field.U64SafePrime)
			inputs := map[string]value.Value{
				"a": value.NewPublic(value.KindInteger, field.FromUint64(m, 9)),
				"b": value.NewPublic(value.KindInteger, field.FromUint64(m, 9)),
			}
			Expect(runProgram(publicComparisonProgram(mir.OpLessThan), 1, 3, inputs)["c"].Public.Equal(field.Zero(m))).To(BeTrue())
			Expect(runProgram(publicComparisonProgram(mir.OpLessOrEqualThan), 1, 3, inputs)["c"].Public.Equal(field.One(m))).To(BeTrue())
			Expect(runProgram(publicComparisonProgram(mir.OpGreaterThan), 1, 3, inputs)["c"].Public.Equal(field.Zero(m))).To(BeTrue())
			Expect(runProgram(publicComparisonProgram(mir.OpGreaterOrEqualThan), 1, 3, inputs)["c"].Public.Equal(field.One(m))).To(BeTrue())
		})
	})
})

// routedMessage queues one online message still waiting to be delivered,
// mirroring cmd/nilcore-cli's drive loop.
type routedMessage struct {
	from protocols.ProtocolAddress
	to   party.ID
	msg  sm.Message
}

func driveOnlineStep(vms map[party.ID]*runtime.VM, ids []party.ID, stepIndex int) {
	var queue []routedMessage
	for _, id := range ids {
		envs, err := vms[id].StartStepOnline(stepIndex)
		Expect(err).NotTo(HaveOccurred())
		queue = append(queue, expand(vms[id], id, ids, envs)...)
	}
	for len(queue) > 0 {
		r := queue[0]
		queue = queue[1:]
		envs, _, err := vms[r.to].Deliver(r.from, r.msg)
		Expect(err).NotTo(HaveOccurred())
		queue = append(queue, expand(vms[r.to], r.to, ids, envs)...)
	}
	for _, id := range ids {
		Expect(vms[id].StepOnlineDone(stepIndex)).To(BeTrue())
	}
}

// expand tags each outgoing envelope with the round its sending machine is
// now waiting on (sm.Machine.Round), the same general routing cmd/nilcore-cli
// uses so multi-round protocols are stamped correctly too.
func expand(from *runtime.VM, fromID party.ID, ids []party.ID, envs []runtime.OutgoingEnvelope) []routedMessage {
	var out []routedMessage
	for _, env := range envs {
		round, _ := from.Round(env.Protocol)
		msg := sm.Message{From: fromID, Round: round, Payload: env.Message.Payload}
		if env.Message.To.All {
			for _, to := range ids {
				out = append(out, routedMessage{from: env.Protocol, to: to, msg: msg})
			}
		} else {
			out = append(out, routedMessage{from: env.Protocol, to: env.Message.To.Single, msg: msg})
		}
	}
	return out
}
