package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchShortAnswer(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		key    string
		want   bool
	}{
		{"exact", "Paris", "Paris", true},
		{"case", "pARIS", "Paris", true},
		{"surrounding whitespace", "  Paris\t\n", "Paris", true},
		{"internal whitespace", "New   York", "new york", true},
		{"full-width", "Ｐａｒｉｓ", "paris", true},
		{"full-width digits", "１２３", "123", true},
		{"german sharp s", "STRASSE", "straße", true},
		{"different", "London", "Paris", false},
		{"empty", "", "Paris", false},
		{"blank", "   ", "Paris", false},
		{"empty against empty key", "", "", false},
		{"prefix only", "Par", "Paris", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchShortAnswer(tt.answer, tt.key))
		})
	}
}

func TestNormalizeShortAnswer(t *testing.T) {
	assert.Equal(t, "hello world", NormalizeShortAnswer("  HELLO 　 World "))
}
