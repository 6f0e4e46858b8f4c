package account

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountClone(t *testing.T) {
	tests := []struct {
		name string
		refs []int64
		want []int64
	}{
		{name: "nil refs", refs: nil, want: []int64{}},
		{name: "empty refs", refs: []int64{}, want: []int64{}},
		{name: "refs", refs: []int64{1, 4}, want: []int64{1, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := &Account{Name: "Wallet", TransactionRefs: tt.refs}

			c := orig.Clone()

			assert.Equal(t, tt.want, c.TransactionRefs)
			raw, err := json.Marshal(c)
			require.NoError(t, err)
			assert.NotContains(t, string(raw), `"transactionRefs":null`)
		})
	}
}

func TestAccountClone_DoesNotAliasRefs(t *testing.T) {
	orig := &Account{Name: "Wallet", TransactionRefs: []int64{1, 2}}

	c := orig.Clone()
	c.TransactionRefs[0] = 9

	assert.Equal(t, []int64{1, 2}, orig.TransactionRefs)
}
