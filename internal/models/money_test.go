package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatINR(t *testing.T) {
	testCases := []struct {
		amount string
		want   string
	}{
		{"0", "₹0"},
		{"999", "₹999"},
		{"1000", "₹1,000"},
		{"15000", "₹15,000"},
		{"150000", "₹1,50,000"},
		{"1234567", "₹12,34,567"},
		{"15000.5", "₹15,000.50"},
		{"-2500", "-₹2,500"},
	}

	for _, tc := range testCases {
		t.Run(tc.amount, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatINR(decimal.RequireFromString(tc.amount)))
		})
	}
}
