package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"international with plus", "+255712345678", "0712345678", false},
		{"international", "255712345678", "0712345678", false},
		{"local", "0712345678", "0712345678", false},
		{"local six prefix", "0655123456", "0655123456", false},
		{"spaces and dashes", " 0712-345 678 ", "0712345678", false},
		{"landline prefix", "0222123456", "", true},
		{"too short", "071234567", "", true},
		{"too long", "+2557123456789", "", true},
		{"foreign", "+254712345678", "", true},
		{"letters", "07123abc78", "", true},
		{"empty", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhone(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPhone)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
