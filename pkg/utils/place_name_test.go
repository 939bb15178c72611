package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePlaceName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "strips category noun", input: "Restaurante El Tunel", expected: "tunel"},
		{name: "strips articles and category", input: "Museo del Prado", expected: "prado"},
		{name: "plain name untouched", input: "Sobrino de Botin", expected: "sobrino botin"},
		{name: "collapses whitespace", input: "  Casa   Paco  ", expected: "casa paco"},
		{name: "mixed case", input: "MERCADO San MIGUEL", expected: "san miguel"},
		{name: "empty input", input: "", expected: ""},
		{name: "whitespace only", input: "   ", expected: ""},
		{name: "all generic words fall back to collapsed original", input: "The  Restaurant", expected: "the restaurant"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizePlaceName(tt.input))
		})
	}
}

func TestNormalizePlaceNameIdempotent(t *testing.T) {
	inputs := []string{
		"Restaurante El Tunel",
		"Museo del Prado",
		"The Restaurant",
		"Casa Paco",
		"",
		"  Iglesia   de San Gines ",
	}

	for _, input := range inputs {
		once := NormalizePlaceName(input)
		assert.Equal(t, once, NormalizePlaceName(once), "input %q", input)
	}
}
