package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name    string
		amount  float64
		wantErr bool
	}{
		{"whole dollars", 100, false},
		{"two decimals", 99.99, false},
		{"one cent", 0.01, false},
		{"float noise on two decimals", 0.1 + 0.2, false},
		{"zero", 0, true},
		{"negative", -5, true},
		{"three decimals", 10.001, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAmount(tt.amount)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateIdempotencyKey(t *testing.T) {
	assert.NoError(t, ValidateIdempotencyKey(""))
	assert.NoError(t, ValidateIdempotencyKey(strings.Repeat("a", MaxIdempotencyKeyLength)))
	assert.Error(t, ValidateIdempotencyKey(strings.Repeat("a", MaxIdempotencyKeyLength+1)))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 0.3, Round2(0.1+0.2))
	assert.Equal(t, 10.56, Round2(10.561234))
	assert.Equal(t, 100.0, Round2(100))
}
