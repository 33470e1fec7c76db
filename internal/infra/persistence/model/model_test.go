package model

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

// Money columns carry no scale so stored prices and totals keep every
// digit the ledger computed.
func TestMoneyColumns_Unscaled(t *testing.T) {
	tests := []struct {
		model  any
		fields []string
	}{
		{model: &ProductModel{}, fields: []string{"BuyPrice", "SellPrice", "SetPrice"}},
		{model: &OrderModel{}, fields: []string{"Total", "TotalProfit"}},
		{model: &SaleModel{}, fields: []string{"Total", "TotalProfit"}},
	}

	cache := &sync.Map{}
	for _, tt := range tests {
		s, err := schema.Parse(tt.model, cache, schema.NamingStrategy{})
		require.NoError(t, err)

		for _, name := range tt.fields {
			t.Run(s.Table+"."+name, func(t *testing.T) {
				field := s.LookUpField(name)
				require.NotNil(t, field)
				assert.Equal(t, schema.DataType("numeric"), field.DataType)
				assert.Zero(t, field.Scale)
			})
		}
	}
}
