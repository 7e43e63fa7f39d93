package extraction

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Field is a logical candidate attribute.
type Field string

const (
	FieldName        Field = "name"
	FieldNameLocal   Field = "name_local"
	FieldDescription Field = "description"
	FieldPrice       Field = "price"
	FieldCategory    Field = "category"
	FieldIngredients Field = "ingredients"
	FieldDietaryTags Field = "dietary_tags"
	FieldVegetarian  Field = "vegetarian"
	FieldSpicy       Field = "spicy"
	FieldConfidence  Field = "confidence"
	FieldSourceImage Field = "source_image"
)

// FieldAliases lists, per logical field, the raw keys consulted in priority order.
var FieldAliases = map[Field][]string{
	FieldName:        {"name", "name_english", "nameEnglish", "item_name", "title"},
	FieldNameLocal:   {"name_local", "nameLocal", "name_sinhala", "local_name"},
	FieldDescription: {"description", "desc", "details"},
	FieldPrice:       {"price", "priceLKR", "price_lkr", "cost"},
	FieldCategory:    {"category", "category_id", "categoryId"},
	FieldIngredients: {"ingredients", "ingredient_list"},
	FieldDietaryTags: {"dietary_tags", "dietaryTags", "tags"},
	FieldVegetarian:  {"is_vegetarian", "isVegetarian", "vegetarian"},
	FieldSpicy:       {"is_spicy", "isSpicy", "spicy"},
	FieldConfidence:  {"confidence", "score"},
	FieldSourceImage: {"image_url", "source_image", "sourceImageRef"},
}

// Resolve returns the first present, non-null, non-blank value for field.
func (r RawRecord) Resolve(field Field) (interface{}, bool) {
	for _, key := range FieldAliases[field] {
		v, ok := r[key]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

func (r RawRecord) stringField(field Field) string {
	v, ok := r.Resolve(field)
	if !ok {
		return ""
	}
	return asString(v)
}

func asString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case map[string]interface{}:
		// category objects: {"id": .., "name": ..}
		if name, ok := t["name"]; ok && name != nil {
			return asString(name)
		}
		if id, ok := t["id"]; ok && id != nil {
			return asString(id)
		}
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

var priceNoise = regexp.MustCompile(`(?i)(rs\.?|lkr|usd|\$|€|£|/-|,|\s)`)

// parsePrice accepts numbers and strings like "Rs. 1,250.00"; ok is false when
// the value is not a finite number.
func parsePrice(v interface{}) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		cleaned := priceNoise.ReplaceAllString(t, "")
		if cleaned == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func asBool(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "y", "1":
			return true
		}
		return false
	case float64:
		return t != 0
	case int:
		return t != 0
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	}
	return false
}

// asStrings accepts a JSON array or a comma separated string and drops blanks.
func asStrings(v interface{}) []string {
	var parts []string
	switch t := v.(type) {
	case []interface{}:
		for _, item := range t {
			if item == nil {
				continue
			}
			parts = append(parts, asString(item))
		}
	case []string:
		parts = append(parts, t...)
	case string:
		parts = strings.Split(t, ",")
	default:
		return []string{}
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// uniqueFold deduplicates case-insensitively, keeping the first spelling.
func uniqueFold(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		key := strings.ToLower(v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
