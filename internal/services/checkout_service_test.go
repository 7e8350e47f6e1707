package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotly/internal/status"
)

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name            string
		basePrice       float64
		discountPercent int
		quantity        int
		wantPerTicket   string
		wantTotal       string
		wantErr         error
	}{
		{
			name:          "no discount",
			basePrice:     100,
			quantity:      2,
			wantPerTicket: "100",
			wantTotal:     "200",
		},
		{
			name:            "percentage discount",
			basePrice:       100,
			discountPercent: 15,
			quantity:        3,
			wantPerTicket:   "85",
			wantTotal:       "255",
		},
		{
			name:            "discount keeps exact decimals",
			basePrice:       99.99,
			discountPercent: 10,
			quantity:        1,
			wantPerTicket:   "89.991",
			wantTotal:       "89.991",
		},
		{
			name:            "maximum valid discount",
			basePrice:       50,
			discountPercent: 99,
			quantity:        1,
			wantPerTicket:   "0.5",
			wantTotal:       "0.5",
		},
		{
			name:            "full discount rejected",
			basePrice:       100,
			discountPercent: 100,
			quantity:        1,
			wantErr:         status.ErrInvalidDiscount,
		},
		{
			name:            "negative discount rejected",
			basePrice:       100,
			discountPercent: -5,
			quantity:        1,
			wantErr:         status.ErrInvalidDiscount,
		},
		{
			name:      "zero quantity rejected",
			basePrice: 100,
			quantity:  0,
			wantErr:   status.ErrInvalidQuantity,
		},
		{
			name:      "negative quantity rejected",
			basePrice: 100,
			quantity:  -2,
			wantErr:   status.ErrInvalidQuantity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			perTicket, total, err := ComputeTotals(tt.basePrice, tt.discountPercent, tt.quantity)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantPerTicket, perTicket.String())
			assert.Equal(t, tt.wantTotal, total.String())
		})
	}
}
