// Package cluster carries the configuration surface of spec §6: the
// enumerated knobs that parameterize one running instance (Shamir degree,
// field size, planner strategy, preprocessing tuning, aux-info policy,
// concurrency cap) plus the Cluster type that resolves a Config into the
// concrete field/party/masker/prep wiring everything else in the module
// needs. Grounded on the teacher's `cmd/threshold-cli/main.go`, which
// builds its own run configuration from Cobra flags into a plain Go struct
// rather than a config-file loader; core packages here take typed values
// the same way.
package cluster

import (
	"fmt"

	"github.com/NillionNetwork/nilcore/errs"
	"github.com/NillionNetwork/nilcore/field"
	"github.com/NillionNetwork/nilcore/masker"
	"github.com/NillionNetwork/nilcore/online"
	"github.com/NillionNetwork/nilcore/party"
	"github.com/NillionNetwork/nilcore/plan"
	"github.com/NillionNetwork/nilcore/prep"
	"github.com/NillionNetwork/nilcore/protocols"
	"github.com/NillionNetwork/nilcore/shamir"
	"github.com/NillionNetwork/nilcore/signing"
)

// PlanStrategy selects the execution planner (spec §6 "plan_strategy").
type PlanStrategy string

const (
	PlanSequential PlanStrategy = "Sequential"
	PlanParallel   PlanStrategy = "Parallel"
)

// PreprocessingTuning is the per-kind tuning knobs for one preprocessing
// element kind (spec §6 "preprocessing_protocol").
type PreprocessingTuning struct {
	BatchSize          uint64
	GenerationThreshold uint64
	TargetOffsetJump   uint64
}

// AuxInfoPolicy is the cluster's CGGMP21 aux-info policy (spec §6
// "auxiliary_material.cggmp21_aux_info").
type AuxInfoPolicy struct {
	Enabled bool
	Version uint32
}

// Config is the enumerated configuration surface of spec §6, constructed
// programmatically (no file format: the core takes typed Go values, the CLI
// at the edge is responsible for parsing flags into one of these).
type Config struct {
	PolynomialDegree      int
	PrimeKind             field.Kind
	PlanStrategy          PlanStrategy
	PreprocessingProtocol map[protocols.PrepKind]PreprocessingTuning
	AuxiliaryMaterial     AuxInfoPolicy
	MaxConcurrentActions  uint32

	// BitWidth is k, the bit width the bitwise-number protocols (COMPARE,
	// MODULO/TRUNC, BIT-DECOMPOSE, DIV-INT-SECRET, the output-equality
	// pair) operate over. Defaults to 64 when left zero.
	BitWidth int
	// Kappa is κ, the statistical security slack COMPARE's masking adds on
	// top of BitWidth. Defaults to 40 when left zero.
	Kappa int
}

// DefaultBitWidth and DefaultKappa are applied in Resolve when a Config
// leaves BitWidth/Kappa at their zero value, matching the word width and
// statistical security slack the preprocessing generators in package online
// are sized for.
const (
	DefaultBitWidth = 64
	DefaultKappa    = 40
)

// Validate checks a Config's invariants before it is resolved into a
// Cluster: the degree must leave room for at least one honest majority of
// abscissas once bound to a party set (checked in Resolve, where the party
// count is known), and any configured aux-info version must be positive
// when enabled.
func (c Config) Validate() error {
	if c.PolynomialDegree < 0 {
		return fmt.Errorf("cluster: polynomial_degree must be non-negative: %w", errs.ErrProtocolMemory)
	}
	if c.AuxiliaryMaterial.Enabled && c.AuxiliaryMaterial.Version == 0 {
		return fmt.Errorf("cluster: cggmp21_aux_info.version must be set when enabled: %w", errs.ErrAuxInfoCorrupt)
	}
	return nil
}

// Cluster binds a Config to a concrete party set, resolving it into the
// field modulus, Shamir sharers, and secret masker every other package
// needs, plus a ready-to-draw-from preprocessing Provider.
type Cluster struct {
	Config  Config
	Parties party.Set
	Modulus *field.Modulus
	Masker  *masker.SecretMasker
	Sharers map[party.ID]*shamir.Sharer
	Prep    *prep.Provider

	buffers map[prep.Kind]*prep.Buffer
}

// Resolve builds a Cluster for the given party set, failing if the
// configured degree does not leave the required 2T+1 ≤ n majority spec
// §4.C's PUB-MULT threshold needs.
func Resolve(cfg Config, parties party.Set) (*Cluster, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.BitWidth == 0 {
		cfg.BitWidth = DefaultBitWidth
	}
	if cfg.Kappa == 0 {
		cfg.Kappa = DefaultKappa
	}
	if 2*cfg.PolynomialDegree+1 > parties.Len() {
		return nil, fmt.Errorf("cluster: degree %d needs at least %d parties, got %d: %w",
			cfg.PolynomialDegree, 2*cfg.PolynomialDegree+1, parties.Len(), errs.ErrProtocolMemory)
	}
	modulus := field.NewModulus(cfg.PrimeKind)
	sharers := make(map[party.ID]*shamir.Sharer, parties.Len())
	for _, id := range parties.IDs() {
		sharers[id] = shamir.NewSharer(id, cfg.PolynomialDegree, parties, modulus)
	}
	buffers := make(map[prep.Kind]*prep.Buffer, len(cfg.PreprocessingProtocol))
	for kind, tuning := range cfg.PreprocessingProtocol {
		b := prep.NewBuffer(prep.Kind(kind))
		b.SetTarget(tuning.TargetOffsetJump)
		buffers[prep.Kind(kind)] = b
	}
	return &Cluster{
		Config:  cfg,
		Parties: parties,
		Modulus: modulus,
		Masker:  masker.NewSecretMasker(cfg.PrimeKind, cfg.PolynomialDegree, parties),
		Sharers: sharers,
		Prep:    prep.NewProvider(buffers),
		buffers: buffers,
	}, nil
}

// Produce feeds freshly generated preprocessing material into kind's ring
// buffer and commits it for immediate Reserve/Draw, the entry point the
// (out-of-scope) offline protocol runners would call continuously in a real
// deployment (spec §5 "preprocessing buffer").
func (c *Cluster) Produce(kind protocols.PrepKind, count uint64, data []any) error {
	b, ok := c.buffers[prep.Kind(kind)]
	if !ok {
		return fmt.Errorf("cluster: preprocessing kind %q not configured", kind)
	}
	b.Produce(count, data)
	b.Commit()
	return nil
}

// contexts builds one online.Context per party, all sharing this cluster's
// single Prep provider the way every caller in this tree already does
// (runtime.VM's own context construction, runtime/integration_test.go's
// runProgram): a party's view differs only in Local and its own Sharer.
func (c *Cluster) contexts() map[party.ID]*online.Context {
	out := make(map[party.ID]*online.Context, c.Parties.Len())
	for _, id := range c.Parties.IDs() {
		out[id] = &online.Context{
			Local:    id,
			Parties:  c.Parties,
			Degree:   c.Config.PolynomialDegree,
			Modulus:  c.Modulus,
			Sharer:   c.Sharers[id],
			Prep:     c.Prep,
			BitWidth: c.Config.BitWidth,
			Kappa:    c.Config.Kappa,
		}
	}
	return out
}

// GenerateCompare runs count independent PREP-COMPARE ceremonies and feeds
// the resulting bundles into the PrepCompare buffer (spec §4.H
// "PREP-COMPARE"), the material VLessThanShares' online Compare step draws
// at runtime.
func (c *Cluster) GenerateCompare(count uint64) error {
	data := make([]any, count)
	for i := range data {
		mat, err := online.GenerateCompareMaterial(c.contexts(), c.Config.BitWidth)
		if err != nil {
			return err
		}
		data[i] = mat
	}
	return c.Produce(protocols.PrepCompare, count, data)
}

// GenerateModulo runs count independent PREP-MODULO ceremonies, the
// material MODULO/MOD2M/TRUNC/TRUNC-PR all share (spec §4.H "PREP-MODULO").
func (c *Cluster) GenerateModulo(kind protocols.PrepKind, count uint64) error {
	data := make([]any, count)
	for i := range data {
		mat, err := online.GenerateModuloMaterial(c.contexts())
		if err != nil {
			return err
		}
		data[i] = mat
	}
	return c.Produce(kind, count, data)
}

// GenerateDiv runs count independent DIV-INT-SECRET preprocessing ceremonies
// (spec §4.H "PREP-DIV"), used by both VDivisionIntegerSecretDivisor and
// VModuloSecretDivisor (the latter derives its remainder from the same
// quotient material).
func (c *Cluster) GenerateDiv(count uint64, alpha float64) error {
	data := make([]any, count)
	for i := range data {
		mat, err := online.GenerateDivisionMaterial(c.contexts(), c.Config.BitWidth, alpha)
		if err != nil {
			return err
		}
		data[i] = mat
	}
	return c.Produce(protocols.PrepDiv, count, data)
}

// GenerateEquality runs count independent output-equality preprocessing
// ceremonies, shared by PREP-EQ and PREP-PUB-EQ (spec §4.H
// "PRIVATE/PUBLIC-OUTPUT-EQUALITY").
func (c *Cluster) GenerateEquality(kind protocols.PrepKind, count uint64) error {
	data := make([]any, count)
	for i := range data {
		mat, err := online.GenerateEqualityMaterial(c.contexts(), c.Config.BitWidth)
		if err != nil {
			return err
		}
		data[i] = mat
	}
	return c.Produce(kind, count, data)
}

// GenerateRandomInt runs count independent RAN ceremonies, the material
// VRandomInteger draws directly with no further online rounds (spec §4.H
// "PREP-RANDOM-INT").
func (c *Cluster) GenerateRandomInt(count uint64) error {
	data := make([]any, count)
	for i := range data {
		shares, err := online.GenerateRandomElement(c.contexts())
		if err != nil {
			return err
		}
		data[i] = shares
	}
	return c.Produce(protocols.PrepRandomInt, count, data)
}

// GenerateRandomBool runs count independent RAN/RAN-BIT ceremonies, reduced
// to a single field-element share per party (spec §4.H "PREP-RANDOM-BOOL"):
// VRandomBoolean's online step, like VRandomInteger's, draws its share and
// finishes with no further rounds.
func (c *Cluster) GenerateRandomBool(count uint64) error {
	data := make([]any, count)
	for i := range data {
		bits, err := online.GenerateRandomBit(c.contexts())
		if err != nil {
			return err
		}
		shares := make(map[party.ID]field.Element, len(bits))
		for id, b := range bits {
			shares[id] = b.Bits[0]
		}
		data[i] = shares
	}
	return c.Produce(protocols.PrepRandomBool, count, data)
}

// GenerateEcdsaAuxInfo runs the aux-info ceremony once and produces count
// identical copies of its result, matching the original's single
// cluster-wide versioned bundle rather than one instance per signing call
// (spec §4.H "PREP-ECDSA-AUX-INFO").
func (c *Cluster) GenerateEcdsaAuxInfo(count uint64) error {
	aux, err := signing.GenerateAuxInfo(c.Parties)
	if err != nil {
		return err
	}
	data := make([]any, count)
	for i := range data {
		data[i] = aux
	}
	return c.Produce(protocols.PrepEcdsaAuxInfo, count, data)
}

// BuildPlan runs the configured planner strategy against model, drawing
// preprocessing material from the Cluster's Provider (spec §6
// "plan_strategy").
func (c *Cluster) BuildPlan(model *protocols.Model) (*plan.Plan, error) {
	switch c.Config.PlanStrategy {
	case PlanParallel:
		return plan.Parallel(model, c.Prep)
	case PlanSequential, "":
		return plan.Sequential(model, c.Prep)
	default:
		return nil, fmt.Errorf("cluster: unknown plan strategy %q", c.Config.PlanStrategy)
	}
}
