package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifier_Verify(t *testing.T) {
	body := []byte(`{"scriptId":"SCR1"}`)

	cases := []struct {
		name      string
		cfg       Config
		signature string
		want      bool
	}{
		{"no secret in development", Config{DevMode: true}, "", true},
		{"no secret in production", Config{}, "anything", false},
		{"missing signature", Config{Secret: "s3cret"}, "", false},
		{"length mismatch", Config{Secret: "s3cret"}, "s3cret-longer", false},
		{"same length wrong value", Config{Secret: "s3cret"}, "s3cres", false},
		{"match", Config{Secret: "s3cret"}, "s3cret", true},
		{"match ignores dev mode", Config{Secret: "s3cret", DevMode: true}, "wrong!", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NewVerifier(tc.cfg).Verify(body, tc.signature))
		})
	}
}
