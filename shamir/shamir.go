// Package shamir implements Shamir secret sharing over field.Element, per
// spec §4.C. It is grounded on the teacher's keygen sampling pattern
// (protocols/lss/keygen/keygen.go: a random polynomial with the secret as
// its constant term, evaluated at each party's abscissa) generalized from
// elliptic-curve scalars to safe-prime field elements.
package shamir

import (
	"crypto/rand"
	"fmt"

	"github.com/NillionNetwork/nilcore/errs"
	"github.com/NillionNetwork/nilcore/field"
	"github.com/NillionNetwork/nilcore/party"
	"github.com/NillionNetwork/nilcore/poly"
)

// Share is a (x, y) point on a party's share of a random polynomial, per
// spec §3 "Shamir share".
type Share struct {
	Party party.ID
	Point poly.Point
}

// Sharer generates and recovers shares for a fixed cluster: one local
// party, a degree T, and an ordered party set (spec §4.C
// "ShamirSecretSharer::new").
type Sharer struct {
	local   party.ID
	degree  int
	parties party.Set
	modulus *field.Modulus
}

// NewSharer builds a Sharer for the local party within the given ordered
// party set, sharing with Shamir degree T.
func NewSharer(local party.ID, degree int, parties party.Set, m *field.Modulus) *Sharer {
	return &Sharer{local: local, degree: degree, parties: parties, modulus: m}
}

// Degree returns the cluster's configured threshold degree T.
func (s *Sharer) Degree() int { return s.degree }

// Parties returns the ordered party set this sharer was built for.
func (s *Sharer) Parties() party.Set { return s.parties }

// GenerateShares samples a random polynomial of the given degree (T for
// ordinary secrets, 2T for the zero-of-degree-2T auxiliary shares used by
// PUB-MULT's masking) with secret as its constant term, and evaluates it at
// every party's abscissa.
//
// Fails with an error if degree >= len(parties), per spec §4.C.
func (s *Sharer) GenerateShares(secret field.Element, degree int) (map[party.ID]Share, error) {
	if degree >= s.parties.Len() {
		return nil, fmt.Errorf("shamir: degree %d must be less than party count %d", degree, s.parties.Len())
	}
	coeffs := make([]field.Element, degree+1)
	coeffs[0] = secret
	for i := 1; i <= degree; i++ {
		c, err := randomElement(s.modulus)
		if err != nil {
			return nil, err
		}
		coeffs[i] = c
	}
	p := poly.New(s.modulus, coeffs)
	out := make(map[party.ID]Share, s.parties.Len())
	for _, id := range s.parties.IDs() {
		x, _ := s.parties.Abscissa(s.modulus, id)
		out[id] = Share{Party: id, Point: poly.Point{X: x, Y: p.Evaluate(x)}}
	}
	return out, nil
}

// GenerateZeroShares is GenerateShares specialized to secret = 0, used for
// PUB-MULT's masking shares and by RAN-ZERO (spec §4.I "RAN-ZERO").
func (s *Sharer) GenerateZeroShares(degree int) (map[party.ID]Share, error) {
	return s.GenerateShares(field.Zero(s.modulus), degree)
}

// Recover reconstructs the secret from a set of shares via Lagrange
// interpolation at zero. Requires at least degree+1 distinct shares (spec
// §4.C).
func (s *Sharer) Recover(shares []Share, degree int) (field.Element, error) {
	if len(shares) < degree+1 {
		return field.Element{}, fmt.Errorf("shamir: need at least %d shares, got %d: %w", degree+1, len(shares), errs.ErrMismatchedAbscissas)
	}
	used := shares[:degree+1]
	abscissas := make([]field.Element, len(used))
	points := make([]poly.Point, len(used))
	for i, sh := range used {
		abscissas[i] = sh.Point.X
		points[i] = sh.Point
	}
	lag, err := poly.NewLagrange(s.modulus, abscissas)
	if err != nil {
		return field.Element{}, err
	}
	return lag.Interpolate(points)
}

func randomElement(m *field.Modulus) (field.Element, error) {
	byteLen := m.ByteLen()
	buf := make([]byte, byteLen+1)
	buf[0] = byte(m.Kind())
	if _, err := rand.Read(buf[1:]); err != nil {
		return field.Element{}, err
	}
	return field.Decode(buf)
}
