package extraction

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Patch is a partial edit of one candidate. Nil fields are left unchanged.
type Patch struct {
	NameEnglish  *string     `json:"name_english"`
	NameLocal    *string     `json:"name_local"`
	Description  *string     `json:"description"`
	Price        *PriceInput `json:"price"`
	Category     *string     `json:"category"`
	Ingredients  *[]string   `json:"ingredients"`
	DietaryTags  *[]string   `json:"dietary_tags"`
	IsVegetarian *bool       `json:"is_vegetarian"`
	IsSpicy      *bool       `json:"is_spicy"`
}

// PriceInput is an edited price as typed or as sent back from the session
// view. It decodes from a JSON string ("Rs. 1,250") or a JSON number;
// anything else is kept verbatim and rejected when the patch is applied.
type PriceInput string

func (p *PriceInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = PriceInput(s)
		return nil
	}
	*p = PriceInput(data)
	return nil
}

// editedCandidate is the merged record as validated before it replaces the original.
type editedCandidate struct {
	NameEnglish string  `json:"name_english" validate:"required,max=200"`
	NameLocal   string  `json:"name_local" validate:"max=200"`
	Description string  `json:"description" validate:"max=2000"`
	Price       float64 `json:"price" validate:"gte=0"`
	Category    string  `json:"category" validate:"max=100"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Apply merges p into c and validates the result.
func (p Patch) Apply(c Candidate) (Candidate, error) {
	out := c.clone()
	var errs FieldErrors

	if p.NameEnglish != nil {
		out.NameEnglish = strings.TrimSpace(*p.NameEnglish)
	}
	if p.NameLocal != nil {
		out.NameLocal = strings.TrimSpace(*p.NameLocal)
	}
	if p.Description != nil {
		out.Description = strings.TrimSpace(*p.Description)
	}
	if p.Category != nil {
		out.Category = strings.TrimSpace(*p.Category)
	}
	if p.Price != nil {
		price, ok := parsePrice(strings.TrimSpace(string(*p.Price)))
		switch {
		case !ok:
			errs = append(errs, ValidationError{Field: "price", Message: "enter a valid number"})
		case price < 0:
			errs = append(errs, ValidationError{Field: "price", Message: "price cannot be negative"})
		default:
			out.Price = price
		}
	}
	if p.Ingredients != nil {
		out.Ingredients = asStrings(*p.Ingredients)
	}
	if p.DietaryTags != nil {
		out.DietaryTags = uniqueFold(asStrings(*p.DietaryTags))
	}
	if p.IsVegetarian != nil {
		out.IsVegetarian = *p.IsVegetarian
	}
	if p.IsSpicy != nil {
		out.IsSpicy = *p.IsSpicy
	}

	err := validate.Struct(editedCandidate{
		NameEnglish: out.NameEnglish,
		NameLocal:   out.NameLocal,
		Description: out.Description,
		Price:       out.Price,
		Category:    out.Category,
	})
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			errs = append(errs, ValidationError{Field: fe.Field(), Message: fieldMessage(fe)})
		}
	}

	if len(errs) > 0 {
		return c, errs
	}
	return out, nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gte":
		return "cannot be negative"
	}
	return "is invalid"
}
