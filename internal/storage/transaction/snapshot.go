package transaction

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// BalanceSnapshot maps every account name to its balance right after a
// transaction was applied. It is stored as JSONB.
type BalanceSnapshot map[string]int64

func (s BalanceSnapshot) Clone() BalanceSnapshot {
	if s == nil {
		return nil
	}
	c := make(BalanceSnapshot, len(s))
	for name, balance := range s {
		c[name] = balance
	}
	return c
}

func (s BalanceSnapshot) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal(map[string]int64(s))
	if err != nil {
		return nil, err
	}
	// lib/pq sends []byte as bytea, jsonb wants text.
	return string(b), nil
}

func (s *BalanceSnapshot) Scan(src any) error {
	*s = nil
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, (*map[string]int64)(s))
	case string:
		return json.Unmarshal([]byte(v), (*map[string]int64)(s))
	default:
		return fmt.Errorf("transaction: cannot scan %T into BalanceSnapshot", src)
	}
}
