package core

// AnalyticsData is a derived snapshot of one user's finances, computed on
// demand and never persisted. Monetary fields are exact cents; the change
// fields are percentages (savingsChange is a point difference).
type AnalyticsData struct {
	TotalBalance    Money `json:"totalBalance"`
	MonthlyIncome   Money `json:"monthlyIncome"`
	MonthlyExpenses Money `json:"monthlyExpenses"`

	SavingsRate   float64 `json:"savingsRate"`
	BalanceChange float64 `json:"balanceChange"`
	IncomeChange  float64 `json:"incomeChange"`
	ExpenseChange float64 `json:"expenseChange"`
	SavingsChange float64 `json:"savingsChange"`

	CategoryBreakdown []CategorySpend `json:"categoryBreakdown"`
	MonthlyTrends     []MonthlyTrend  `json:"monthlyTrends"`
}

// CategorySpend is one row of the current-month expense breakdown.
type CategorySpend struct {
	Category   string  `json:"category"`
	Amount     Money   `json:"amount"`
	Percentage float64 `json:"percentage"`
}

// MonthlyTrend is one point of the trailing six-month series.
type MonthlyTrend struct {
	Month    string `json:"month"`
	Income   Money  `json:"income"`
	Expenses Money  `json:"expenses"`
}
