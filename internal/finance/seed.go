package finance

import "github.com/google/uuid"

// DefaultCategories returns the stock category set created for new users.
func DefaultCategories(userID uuid.UUID) []Category {
	specs := []struct {
		name  string
		typ   CategoryType
		color string
		icon  string
	}{
		{"Salário", CategoryTypeIncome, "#22c55e", "💰"},
		{"Freelance", CategoryTypeIncome, "#3b82f6", "💻"},
		{"Investimentos", CategoryTypeIncome, "#8b5cf6", "📈"},
		{"Outros Ganhos", CategoryTypeIncome, "#6b7280", "🔄"},
		{"Alimentação", CategoryTypeExpense, "#ef4444", "🍕"},
		{"Transporte", CategoryTypeExpense, "#f59e0b", "🚗"},
		{"Moradia", CategoryTypeExpense, "#06b6d4", "🏠"},
		{"Saúde", CategoryTypeExpense, "#10b981", "🏥"},
		{"Lazer", CategoryTypeExpense, "#f97316", "🎮"},
		{"Educação", CategoryTypeExpense, "#8b5cf6", "📚"},
		{"Roupas", CategoryTypeExpense, "#ec4899", "👕"},
		{"Outros Gastos", CategoryTypeExpense, "#6b7280", "❓"},
	}
	out := make([]Category, 0, len(specs))
	for _, sp := range specs {
		out = append(out, Category{
			ID:     uuid.New(),
			UserID: userID,
			Name:   sp.name,
			Type:   sp.typ,
			Color:  sp.color,
			Icon:   sp.icon,
			Active: true,
		})
	}
	return out
}

// DefaultAccounts returns the stock account set with opening balances.
func DefaultAccounts(userID uuid.UUID) []Account {
	specs := []struct {
		name  string
		typ   AccountType
		minor int64
	}{
		{"Conta Corrente", AccountTypeChecking, 250000},
		{"Poupança", AccountTypeSavings, 1000000},
		{"Cartão de Crédito", AccountTypeCreditCard, -120000},
		{"Dinheiro", AccountTypeCash, 30000},
	}
	out := make([]Account, 0, len(specs))
	for _, sp := range specs {
		bal, _ := AmountFromMinor(DefaultCurrency, sp.minor)
		out = append(out, Account{
			ID:       uuid.New(),
			UserID:   userID,
			Name:     sp.name,
			Type:     sp.typ,
			Currency: DefaultCurrency,
			Balance:  bal,
			Active:   true,
		})
	}
	return out
}
