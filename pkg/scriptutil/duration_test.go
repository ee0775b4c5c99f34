package scriptutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDurationMinutes(t *testing.T) {
	cases := []struct {
		name  string
		input interface{}
		want  float64
	}{
		{"seconds", "30s", 0.5},
		{"one minute", "1m", 1},
		{"three minutes", "3m", 3},
		{"long unit", "2 minutes", 2},
		{"seconds long unit", "90 seconds", 1.5},
		{"bare number string", "2", 2},
		{"upper case", "45S", 0.75},
		{"int", 3, 3},
		{"int64", int64(5), 5},
		{"float", 1.5, 1.5},
		{"garbage", "garbage", DefaultDurationMinutes},
		{"empty", "", DefaultDurationMinutes},
		{"zero", "0m", DefaultDurationMinutes},
		{"negative", -2, DefaultDurationMinutes},
		{"nil", nil, DefaultDurationMinutes},
		{"bool", true, DefaultDurationMinutes},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, ParseDurationMinutes(tc.input), 1e-9)
		})
	}
}
