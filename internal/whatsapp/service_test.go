package whatsapp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhoneNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "+972 50-123-4567", want: "972501234567"},
		{in: "(555) 010 2000", want: "5550102000"},
		{in: "0044 20 7946 0000", want: "442079460000"},
		{in: "972501234567@s.whatsapp.net", want: "972501234567"},
		{in: "972501234567:12@s.whatsapp.net", want: "972501234567"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhoneNumber(tt.in))
		})
	}
}
