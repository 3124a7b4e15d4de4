package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/cobra"

	"github.com/NillionNetwork/nilcore/bytecode"
	"github.com/NillionNetwork/nilcore/cluster"
	"github.com/NillionNetwork/nilcore/field"
	"github.com/NillionNetwork/nilcore/masker"
	"github.com/NillionNetwork/nilcore/online"
	"github.com/NillionNetwork/nilcore/party"
	"github.com/NillionNetwork/nilcore/protocols"
	"github.com/NillionNetwork/nilcore/runtime"
	"github.com/NillionNetwork/nilcore/sm"
	"github.com/NillionNetwork/nilcore/value"
)

func runCompile(cmd *cobra.Command, args []string) error {
	model, err := compileModel(programName)
	if err != nil {
		return err
	}
	data, err := cbor.Marshal(model)
	if err != nil {
		return fmt.Errorf("nilcore-cli: encoding model: %w", err)
	}
	if err := os.WriteFile(outputFile, data, 0o644); err != nil {
		return fmt.Errorf("nilcore-cli: writing %s: %w", outputFile, err)
	}
	fmt.Printf("compiled %q: %d protocols, memory size %d -> %s\n",
		programName, len(model.Protocols), model.MemorySize, outputFile)
	return nil
}

func runPlan(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(inputFile)
	if err != nil {
		return fmt.Errorf("nilcore-cli: reading %s: %w", inputFile, err)
	}
	var model protocols.Model
	if err := cbor.Unmarshal(data, &model); err != nil {
		return fmt.Errorf("nilcore-cli: decoding model: %w", err)
	}

	clus, err := buildCluster()
	if err != nil {
		return err
	}
	p, err := clus.BuildPlan(&model)
	if err != nil {
		return fmt.Errorf("nilcore-cli: planning: %w", err)
	}
	out, err := cbor.Marshal(p)
	if err != nil {
		return fmt.Errorf("nilcore-cli: encoding plan: %w", err)
	}
	if err := os.WriteFile(outputFile, out, 0o644); err != nil {
		return fmt.Errorf("nilcore-cli: writing %s: %w", outputFile, err)
	}
	fmt.Printf("planned %d steps (%s) -> %s\n", len(p.Steps), strategyName, outputFile)
	return nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	result, err := simulateOnce()
	if err != nil {
		return err
	}
	fmt.Printf("revealed c = 0x%s\n", result)
	return nil
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	if iterations < 1 {
		return fmt.Errorf("nilcore-cli: --iterations must be positive")
	}
	start := time.Now()
	for i := 0; i < iterations; i++ {
		if _, err := simulateOnce(); err != nil {
			return fmt.Errorf("nilcore-cli: iteration %d: %w", i, err)
		}
	}
	elapsed := time.Since(start)
	fmt.Printf("%d iterations of %q in %s (avg %s/run)\n",
		iterations, programName, elapsed, elapsed/time.Duration(iterations))
	return nil
}

// compileModel runs the mir -> bytecode -> protocols pipeline for one
// built-in program.
func compileModel(name string) (*protocols.Model, error) {
	prog, err := demoProgram(name)
	if err != nil {
		return nil, err
	}
	bc, err := bytecode.Lower(prog)
	if err != nil {
		return nil, fmt.Errorf("nilcore-cli: lowering to bytecode: %w", err)
	}
	model, err := protocols.Lower(bc)
	if err != nil {
		return nil, fmt.Errorf("nilcore-cli: lowering to protocols: %w", err)
	}
	return model, nil
}

// simulationNodes names the cluster's computing parties; these are the
// secret-shareholders, distinct from the input-owning parties named in the
// mir.Program (spec §6: clients submit to a fixed node cluster).
func simulationNodes(n int) party.Set {
	ids := make([]party.ID, n)
	for i := range ids {
		ids[i] = party.ID(fmt.Sprintf("node-%d", i+1))
	}
	return party.NewSet(ids)
}

func buildCluster() (*cluster.Cluster, error) {
	kind, err := parsePrimeKind(primeKindName)
	if err != nil {
		return nil, err
	}
	strategy, err := parseStrategy(strategyName)
	if err != nil {
		return nil, err
	}
	cfg := cluster.Config{
		PolynomialDegree: degree,
		PrimeKind:        kind,
		PlanStrategy:     strategy,
	}
	clus, err := cluster.Resolve(cfg, simulationNodes(numParties))
	if err != nil {
		return nil, fmt.Errorf("nilcore-cli: resolving cluster: %w", err)
	}
	return clus, nil
}

// revealedResult is the printable form of a program's revealed public
// output.
type revealedResult struct {
	bytes []byte
}

func (r revealedResult) String() string { return hex.EncodeToString(r.bytes) }

// simulateOnce compiles the configured program, resolves a cluster, masks
// cleartext inputs across its nodes, executes the plan on one runtime.VM
// per node, and returns the single revealed public output every node
// agrees on.
func simulateOnce() (revealedResult, error) {
	model, err := compileModel(programName)
	if err != nil {
		return revealedResult{}, err
	}
	clus, err := buildCluster()
	if err != nil {
		return revealedResult{}, err
	}
	execPlan, err := clus.BuildPlan(model)
	if err != nil {
		return revealedResult{}, fmt.Errorf("nilcore-cli: planning: %w", err)
	}

	a := value.NewSecret(value.KindSecretInteger, field.FromInt64(clus.Modulus, operandA))
	b := value.NewSecret(value.KindSecretInteger, field.FromInt64(clus.Modulus, operandB))
	shares, err := clus.Masker.Mask(masker.CleartextValues{"a": a, "b": b})
	if err != nil {
		return revealedResult{}, fmt.Errorf("nilcore-cli: masking inputs: %w", err)
	}

	dispatch := runtime.DefaultDispatch()
	ids := clus.Parties.IDs()
	vms := make(map[party.ID]*runtime.VM, len(ids))
	for _, id := range ids {
		ctx := &online.Context{
			Local: id, Parties: clus.Parties, Degree: degree,
			Modulus: clus.Modulus, Sharer: clus.Sharers[id], Prep: clus.Prep,
		}
		vm := runtime.New(ctx, model, execPlan, dispatch)
		for name, v := range shares[id] {
			if err := vm.SetInput(name, v); err != nil {
				return revealedResult{}, fmt.Errorf("nilcore-cli: setting input %q: %w", name, err)
			}
		}
		vms[id] = vm
	}

	for stepIndex := range execPlan.Steps {
		if err := runStepLocal(vms, ids, stepIndex); err != nil {
			return revealedResult{}, err
		}
		if err := driveOnlineStep(vms, ids, stepIndex); err != nil {
			return revealedResult{}, err
		}
	}

	outputs, err := vms[ids[0]].CollectOutputs()
	if err != nil {
		return revealedResult{}, fmt.Errorf("nilcore-cli: collecting outputs: %w", err)
	}
	c, ok := outputs["c"]
	if !ok {
		return revealedResult{}, fmt.Errorf("nilcore-cli: program produced no output named %q", "c")
	}
	return revealedResult{bytes: c.Public.Encode()}, nil
}

func runStepLocal(vms map[party.ID]*runtime.VM, ids []party.ID, stepIndex int) error {
	for _, id := range ids {
		if err := vms[id].RunStepLocal(stepIndex); err != nil {
			return fmt.Errorf("nilcore-cli: node %s local step %d: %w", id, stepIndex, err)
		}
	}
	return nil
}

// routedMessage queues one online message still waiting to be delivered.
type routedMessage struct {
	from protocols.ProtocolAddress
	to   party.ID
	msg  sm.Message
}

// driveOnlineStep starts every online protocol of one step on every node,
// then fans each outgoing envelope out to its recipients and delivers it,
// until every node's machines for this step report Final. The scenarios
// this CLI drives (MULT, REVEAL) finish in their constructing round with no
// further outgoing messages, so a single collect-then-deliver pass over the
// initial envelopes is enough; a multi-round protocol's Deliver would
// surface more envelopes here, which this loop drains the same way.
func driveOnlineStep(vms map[party.ID]*runtime.VM, ids []party.ID, stepIndex int) error {
	var queue []routedMessage
	for _, id := range ids {
		envs, err := vms[id].StartStepOnline(stepIndex)
		if err != nil {
			return fmt.Errorf("nilcore-cli: node %s starting online step %d: %w", id, stepIndex, err)
		}
		queue = append(queue, expand(vms[id], id, ids, envs)...)
	}
	for len(queue) > 0 {
		r := queue[0]
		queue = queue[1:]
		envs, _, err := vms[r.to].Deliver(r.from, r.msg)
		if err != nil {
			return fmt.Errorf("nilcore-cli: node %s delivering message: %w", r.to, err)
		}
		queue = append(queue, expand(vms[r.to], r.to, ids, envs)...)
	}
	for _, id := range ids {
		if !vms[id].StepOnlineDone(stepIndex) {
			return fmt.Errorf("nilcore-cli: node %s never finished online step %d", id, stepIndex)
		}
	}
	return nil
}

// expand tags each outgoing envelope with the round its sending machine is
// now waiting on: that is the round every recipient's own machine expects
// the message to carry (sm.Machine.Round, spec §4.J). A hardcoded Round: 0
// only happens to work for single-round protocols like MULT and REVEAL; a
// multi-round protocol (COMPARE, BIT-DECOMPOSE, ...) advances its round on
// every Transition, so this must read the sender's post-transition round.
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
