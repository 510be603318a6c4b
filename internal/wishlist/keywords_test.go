package wishlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"iPhone 16 Pro, 256GB", []string{"iphone", "16", "pro", "256gb"}},
		{"I want a red bicycle for my son", []string{"red", "bicycle", "son"}},
		{"The the THE", []string{}},
		{"", []string{}},
		{"lamp lamp Lamp", []string{"lamp"}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ExtractKeywords(tt.input), "input: %q", tt.input)
	}
}

func TestKeywordsFor(t *testing.T) {
	products := []string{"Wooden chair", "Office chair"}
	descriptions := []string{"a comfortable wooden desk"}

	assert.Equal(t, []string{"wooden", "chair", "office", "comfortable", "desk"}, KeywordsFor(products, descriptions))
	assert.Equal(t, []string{}, KeywordsFor())
}
