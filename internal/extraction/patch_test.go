package extraction

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatch_PriceAcceptsNumberOrString(t *testing.T) {
	base := Candidate{NameEnglish: "Plain Tea", Price: 100, Ingredients: []string{}, DietaryTags: []string{}}

	tests := []struct {
		body string
		want float64
	}{
		{`{"price": 300}`, 300},
		{`{"price": 12.5}`, 12.5},
		{`{"price": "300"}`, 300},
		{`{"price": "Rs. 1,250.00"}`, 1250},
		{`{"price": null}`, 100},
	}
	for _, tt := range tests {
		var p Patch
		require.NoError(t, json.Unmarshal([]byte(tt.body), &p), tt.body)
		got, err := p.Apply(base)
		require.NoError(t, err, tt.body)
		assert.Equal(t, tt.want, got.Price, tt.body)
	}
}

func TestPatch_PriceRejectsOtherShapes(t *testing.T) {
	base := Candidate{NameEnglish: "Plain Tea", Price: 100, Ingredients: []string{}, DietaryTags: []string{}}

	for _, body := range []string{`{"price": true}`, `{"price": {"amount": 3}}`, `{"price": "free"}`, `{"price": -1}`} {
		var p Patch
		require.NoError(t, json.Unmarshal([]byte(body), &p), body)
		_, err := p.Apply(base)
		var ferrs FieldErrors
		require.ErrorAs(t, err, &ferrs, body)
		assert.Equal(t, "price", ferrs[0].Field, body)
	}
}
