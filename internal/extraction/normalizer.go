package extraction

import "math"

// Normalizer converts raw service records into candidates.
type Normalizer struct {
	Policy     CategoryPolicy
	Categories []CategoryRef
}

// NewNormalizer returns a normalizer using the default keyword policy.
func NewNormalizer(categories []CategoryRef) *Normalizer {
	return &Normalizer{Policy: DefaultKeywordPolicy, Categories: categories}
}

// Normalize is Normalizer.Normalize without a category list.
func Normalize(raw RawRecord) Candidate {
	return NewNormalizer(nil).Normalize(raw)
}

// Normalize never fails: missing or malformed fields take zero values and the
// price is never negative.
func (n *Normalizer) Normalize(raw RawRecord) Candidate {
	if raw == nil {
		raw = RawRecord{}
	}

	c := Candidate{
		NameEnglish:    raw.stringField(FieldName),
		NameLocal:      raw.stringField(FieldNameLocal),
		Description:    raw.stringField(FieldDescription),
		SourceImageRef: raw.stringField(FieldSourceImage),
		Ingredients:    []string{},
		DietaryTags:    []string{},
	}

	if v, ok := raw.Resolve(FieldPrice); ok {
		if price, valid := parsePrice(v); valid && price > 0 {
			c.Price = price
		}
	}
	if v, ok := raw.Resolve(FieldIngredients); ok {
		c.Ingredients = asStrings(v)
	}
	if v, ok := raw.Resolve(FieldDietaryTags); ok {
		c.DietaryTags = uniqueFold(asStrings(v))
	}
	if v, ok := raw.Resolve(FieldVegetarian); ok {
		c.IsVegetarian = asBool(v)
	}
	if v, ok := raw.Resolve(FieldSpicy); ok {
		c.IsSpicy = asBool(v)
	}
	if v, ok := raw.Resolve(FieldConfidence); ok {
		c.Confidence = normalizeConfidence(v)
	}

	c.Category = n.category(raw.stringField(FieldCategory), c.NameEnglish, c.Description)
	return c
}

func (n *Normalizer) category(explicit, name, description string) string {
	key := explicit
	if key == "" && n.Policy != nil {
		if inferred, ok := n.Policy.Infer(name, description); ok {
			key = inferred
		}
	}
	return ResolveCategory(key, n.Categories)
}

// normalizeConfidence scales 0..1 fractions to percent and clamps to 0..100.
func normalizeConfidence(v interface{}) float64 {
	f, ok := parsePrice(v)
	if !ok {
		return 0
	}
	if f > 0 && f <= 1 {
		f *= 100
	}
	return math.Max(0, math.Min(100, f))
}
