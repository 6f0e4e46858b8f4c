package ledger

// Reserved flow accounts. They always exist and their balance is pinned to zero.
const (
	Income  = "Income"
	Expense = "Expense"
)

// ReservedNames lists the reserved accounts in the order they are created.
var ReservedNames = []string{Income, Expense}

func IsReserved(name string) bool {
	return name == Income || name == Expense
}
