package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"fintrack/internal/core"
)

// TrendMonths is the number of calendar months in the trend series.
const TrendMonths = 6

// Aggregator derives analytics snapshots from the persisted transactions.
type Aggregator struct {
	transactions core.TransactionStore
	categories   core.CategoryStore
}

func NewAggregator(transactions core.TransactionStore, categories core.CategoryStore) *Aggregator {
	return &Aggregator{
		transactions: transactions,
		categories:   categories,
	}
}

// Snapshot computes the full analytics view for one user at the reference
// instant now. It fails outright when the store is unreachable rather than
// returning partial numbers.
func (a *Aggregator) Snapshot(ctx context.Context, userID string, now time.Time) (core.AnalyticsData, error) {
	txs, err := a.transactions.TransactionsByUser(ctx, userID)
	if err != nil {
		return core.AnalyticsData{}, fmt.Errorf("load transactions: %w", err)
	}
	cats, err := a.categories.ListCategories(ctx)
	if err != nil {
		return core.AnalyticsData{}, fmt.Errorf("load categories: %w", err)
	}
	catNames := make(map[string]string, len(cats))
	for _, c := range cats {
		catNames[c.ID] = c.Name
	}

	current := MonthWindow(now)
	prior := MonthWindow(current.Start.AddDate(0, 0, -1))

	var (
		totalBalance int64
		priorBalance int64

		curIncome, curExpenses     int64
		priorIncome, priorExpenses int64
	)
	spendByCategory := make(map[string]int64)

	for _, tx := range txs {
		signed := tx.Amount.Cents
		if tx.Type == core.Expense {
			signed = -signed
		}
		totalBalance += signed
		if tx.Date.UTC().Before(current.Start) {
			priorBalance += signed
		}

		switch {
		case current.Contains(tx.Date):
			if tx.Type == core.Income {
				curIncome += tx.Amount.Cents
			} else {
				curExpenses += tx.Amount.Cents
				if name, ok := catNames[tx.CategoryID]; ok {
					spendByCategory[name] += tx.Amount.Cents
				}
			}
		case prior.Contains(tx.Date):
			if tx.Type == core.Income {
				priorIncome += tx.Amount.Cents
			} else {
				priorExpenses += tx.Amount.Cents
			}
		}
	}

	data := core.AnalyticsData{
		TotalBalance:      core.Money{Cents: totalBalance},
		MonthlyIncome:     core.Money{Cents: curIncome},
		MonthlyExpenses:   core.Money{Cents: curExpenses},
		SavingsRate:       savingsRate(curIncome, curExpenses),
		BalanceChange:     pctChange(priorBalance, totalBalance),
		IncomeChange:      pctChange(priorIncome, curIncome),
		ExpenseChange:     pctChange(priorExpenses, curExpenses),
		CategoryBreakdown: breakdown(spendByCategory),
		MonthlyTrends:     trends(txs, now),
	}
	data.SavingsChange = round2(data.SavingsRate - savingsRate(priorIncome, priorExpenses))
	return data, nil
}

// savingsRate returns (income-expenses)/income as a percentage, 0 when
// there is no income.
func savingsRate(income, expenses int64) float64 {
	if income == 0 {
		return 0
	}
	return round2(float64(income-expenses) / float64(income) * 100)
}

// pctChange returns the percentage change from prior to current, 0 when
// there is no prior value to compare against.
func pctChange(prior, current int64) float64 {
	if prior == 0 {
		return 0
	}
	return round2(float64(current-prior) / math.Abs(float64(prior)) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func breakdown(spend map[string]int64) []core.CategorySpend {
	var total int64
	for _, cents := range spend {
		total += cents
	}
	rows := make([]core.CategorySpend, 0, len(spend))
	for name, cents := range spend {
		pct := 0.0
		if total > 0 {
			pct = round2(float64(cents) / float64(total) * 100)
		}
		rows = append(rows, core.CategorySpend{
			Category:   name,
			Amount:     core.Money{Cents: cents},
			Percentage: pct,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Amount.Cents != rows[j].Amount.Cents {
			return rows[i].Amount.Cents > rows[j].Amount.Cents
		}
		return rows[i].Category < rows[j].Category
	})
	return rows
}

func trends(txs []core.Transaction, now time.Time) []core.MonthlyTrend {
	windows := TrailingMonths(now, TrendMonths)
	out := make([]core.MonthlyTrend, len(windows))
	for i, w := range windows {
		out[i].Month = w.Label()
	}
	for _, tx := range txs {
		for i, w := range windows {
			if !w.Contains(tx.Date) {
				continue
			}
			if tx.Type == core.Income {
				out[i].Income.Cents += tx.Amount.Cents
			} else {
				out[i].Expenses.Cents += tx.Amount.Cents
			}
			break
		}
	}
	return out
}
