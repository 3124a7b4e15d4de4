// Command nilcore-cli drives the nilcore compile/plan/simulate/bench
// pipeline from the command line, the way cmd/threshold-cli drives the
// teacher's keygen/sign/reshare pipeline: package-level Cobra commands,
// flags bound directly into Go values, one RunE per subcommand.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/NillionNetwork/nilcore/cluster"
	"github.com/NillionNetwork/nilcore/field"
)

var (
	// Global flags.
	programName  string
	primeKindName string
	degree       int
	numParties   int
	strategyName string
	verbose      bool

	// compile/plan flags.
	outputFile string
	inputFile  string

	// simulate/bench flags.
	operandA   int64
	operandB   int64
	iterations int

	rootCmd = &cobra.Command{
		Use:   "nilcore-cli",
		Short: "CLI for the nilcore MPC execution core",
		Long: `A CLI tool for driving the nilcore execution core: compiling a
program to an execution plan, and simulating or benchmarking its run
across a locally-simulated party cluster.`,
	}

	compileCmd = &cobra.Command{
		Use:   "compile",
		Short: "Lower a built-in program to a protocol model",
		Long:  `Lower one of the built-in demo programs through bytecode into a protocols.Model and write it out CBOR-encoded.`,
		RunE:  runCompile,
	}

	planCmd = &cobra.Command{
		Use:   "plan",
		Short: "Build an execution plan for a compiled model",
		Long:  `Read a CBOR-encoded protocols.Model, resolve a cluster from the given configuration, and write out its execution plan.`,
		RunE:  runPlan,
	}

	simulateCmd = &cobra.Command{
		Use:   "simulate",
		Short: "Run a built-in program end to end across a simulated cluster",
		Long:  `Compile, plan, mask inputs, and execute a built-in program across --parties locally-simulated nodes, printing the revealed result.`,
		RunE:  runSimulate,
	}

	benchCmd = &cobra.Command{
		Use:   "bench",
		Short: "Benchmark repeated runs of a built-in program",
		Long:  `Run the simulate pipeline --iterations times and report average wall-clock time per run.`,
		RunE:  runBenchmark,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&programName, "program", "p", "multiply", "Built-in program: multiply, add-reveal")
	rootCmd.PersistentFlags().StringVar(&primeKindName, "prime", "u64", "Field size: u64, u128, u256")
	rootCmd.PersistentFlags().IntVarP(&degree, "degree", "t", 1, "Shamir polynomial degree")
	rootCmd.PersistentFlags().IntVarP(&numParties, "parties", "N", 4, "Number of simulated computing nodes")
	rootCmd.PersistentFlags().StringVar(&strategyName, "strategy", "parallel", "Plan strategy: sequential, parallel")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	compileCmd.Flags().StringVarP(&outputFile, "output", "o", "model.cbor", "Output file for the CBOR-encoded model")

	planCmd.Flags().StringVarP(&inputFile, "input", "i", "model.cbor", "Input CBOR-encoded model")
	planCmd.Flags().StringVarP(&outputFile, "output", "o", "plan.cbor", "Output file for the CBOR-encoded plan")

	simulateCmd.Flags().Int64Var(&operandA, "a", 6, "Cleartext value of input a")
	simulateCmd.Flags().Int64Var(&operandB, "b", 7, "Cleartext value of input b")

	benchCmd.Flags().Int64Var(&operandA, "a", 6, "Cleartext value of input a")
	benchCmd.Flags().Int64Var(&operandB, "b", 7, "Cleartext value of input b")
	benchCmd.Flags().IntVar(&iterations, "iterations", 10, "Number of benchmark iterations")

	rootCmd.AddCommand(compileCmd, planCmd, simulateCmd, benchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parsePrimeKind(name string) (field.Kind, error) {
	switch name {
	case "u64":
		return field.U64SafePrime, nil
	case "u128":
		return field.U128SafePrime, nil
	case "u256":
		return field.U256SafePrime, nil
	default:
		return 0, fmt.Errorf("nilcore-cli: unknown prime size %q (want u64, u128, u256)", name)
	}
}

func parseStrategy(name string) (cluster.PlanStrategy, error) {
	switch name {
	case "sequential":
		return cluster.PlanSequential, nil
	case "parallel":
		return cluster.PlanParallel, nil
	default:
		return "", fmt.Errorf("nilcore-cli: unknown plan strategy %q (want sequential, parallel)", name)
	}
}
