package value

// Classification tallies the counts used for pricing and as a program-aware
// sanity check (spec §4.D "classify_values").
type Classification struct {
	SecretShares       int
	Public             int
	EcdsaKeyShares     int
	EcdsaSignatureShares int
}

// Classify walks values (by name, as CleartextValues/EncryptedValues would
// be keyed) and tallies counts per spec §4.D.
func Classify(values map[string]Value) Classification {
	var c Classification
	for _, v := range values {
		classifyInto(&c, v)
	}
	return c
}

func classifyInto(c *Classification, v Value) {
	switch v.Type.Kind {
	case KindArray, KindTuple, KindNTuple, KindObject:
		for _, e := range v.Elements {
			classifyInto(c, e)
		}
		return
	case KindEcdsaPrivateKey:
		c.EcdsaKeyShares++
		return
	case KindEcdsaSignature:
		c.EcdsaSignatureShares++
		return
	}
	if v.Type.Kind.IsSecret() || v.Type.Kind.IsShare() {
		c.SecretShares++
		return
	}
	c.Public++
}
