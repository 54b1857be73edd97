package insights

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/yuvalcohen1/Cash-Flow/internal/domain"
)

func tx(id string, typ domain.TransactionType, amount float64, category, date string) domain.Transaction {
	return domain.Transaction{
		ID:       id,
		UserID:   "user-1",
		Type:     typ,
		Amount:   amount,
		Category: category,
		Date:     date,
	}
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestProcessBasicScenario(t *testing.T) {
	transactions := []domain.Transaction{
		tx("t1", domain.TypeIncome, 1000, "Salary", "2024-01-01"),
		tx("t2", domain.TypeExpense, 50, "Food & Dining", "2024-01-02"),
		tx("t3", domain.TypeExpense, 30, "Food & Dining", "2024-01-03"),
		tx("t4", domain.TypeExpense, 20, "Transportation", "2024-01-05"),
	}

	bundle, err := Process(transactions, nil)
	if err != nil {
		t.Fatalf("Process() returned error: %v", err)
	}

	if bundle.TimePeriod == nil {
		t.Fatal("Expected non-nil time period")
	}
	if bundle.TimePeriod.StartDate != "2024-01-01" || bundle.TimePeriod.EndDate != "2024-01-05" {
		t.Errorf("Unexpected period: %s to %s", bundle.TimePeriod.StartDate, bundle.TimePeriod.EndDate)
	}
	if bundle.TimePeriod.NumDays != 5 {
		t.Errorf("NumDays = %d, want 5", bundle.TimePeriod.NumDays)
	}
	if bundle.TimePeriod.NumTransactions != 4 {
		t.Errorf("NumTransactions = %d, want 4", bundle.TimePeriod.NumTransactions)
	}

	s := bundle.Summary
	if !floatEq(s.TotalIncome, 1000) {
		t.Errorf("TotalIncome = %v, want 1000", s.TotalIncome)
	}
	if !floatEq(s.TotalExpenses, 100) {
		t.Errorf("TotalExpenses = %v, want 100", s.TotalExpenses)
	}
	if !floatEq(s.NetSavings, 900) {
		t.Errorf("NetSavings = %v, want 900", s.NetSavings)
	}
	if !floatEq(s.NetSavings, s.TotalIncome-s.TotalExpenses) {
		t.Error("NetSavings must equal TotalIncome - TotalExpenses")
	}
	if !floatEq(s.SavingsRate, 90) {
		t.Errorf("SavingsRate = %v, want 90", s.SavingsRate)
	}
	if !floatEq(s.AvgDailySpending, 20) {
		t.Errorf("AvgDailySpending = %v, want 20", s.AvgDailySpending)
	}

	if len(bundle.SpendingByCategory) != 2 {
		t.Fatalf("Expected 2 categories, got %d", len(bundle.SpendingByCategory))
	}
	food := bundle.SpendingByCategory[0]
	transport := bundle.SpendingByCategory[1]
	if food.Category != "Food & Dining" || transport.Category != "Transportation" {
		t.Errorf("Unexpected category order: %s, %s", food.Category, transport.Category)
	}
	if !floatEq(food.TotalSpent, 80) || !floatEq(food.PercentageOfTotal, 80) {
		t.Errorf("Food: total %v pct %v, want 80 / 80", food.TotalSpent, food.PercentageOfTotal)
	}
	if food.NumTransactions != 2 || !floatEq(food.AvgTransaction, 40) || !floatEq(food.LargestTransaction, 50) {
		t.Errorf("Food stats unexpected: %+v", food)
	}
	if !floatEq(transport.TotalSpent, 20) || !floatEq(transport.PercentageOfTotal, 20) {
		t.Errorf("Transport: total %v pct %v, want 20 / 20", transport.TotalSpent, transport.PercentageOfTotal)
	}

	// Category totals must sum back to total expenses
	var catSum float64
	for _, c := range bundle.SpendingByCategory {
		catSum += c.TotalSpent
	}
	if !floatEq(catSum, s.TotalExpenses) {
		t.Errorf("Category totals sum to %v, want %v", catSum, s.TotalExpenses)
	}

	income := bundle.IncomeAnalysis
	if income == nil {
		t.Fatal("Expected non-nil income analysis")
	}
	if income.NumIncomeTransactions != 1 || !floatEq(income.TotalIncome, 1000) {
		t.Errorf("Income analysis unexpected: %+v", income)
	}
	if income.LargestIncome.Amount != 1000 || income.LargestIncome.Date != "2024-01-01" || income.LargestIncome.Category != "Salary" {
		t.Errorf("LargestIncome unexpected: %+v", income.LargestIncome)
	}
	if !floatEq(income.IncomeSources["Salary"], 1000) {
		t.Errorf("IncomeSources[Salary] = %v, want 1000", income.IncomeSources["Salary"])
	}

	if bundle.Comparisons.VsTypicalSavingsRate.Performance != "above" {
		t.Errorf("Performance = %q, want above", bundle.Comparisons.VsTypicalSavingsRate.Performance)
	}
	if !floatEq(bundle.Comparisons.VsTypicalSavingsRate.Difference, 70) {
		t.Errorf("Difference = %v, want 70", bundle.Comparisons.VsTypicalSavingsRate.Difference)
	}

	// 90% savings should yield both savings milestones
	var types []string
	for _, m := range bundle.Milestones {
		types = append(types, m.Type)
	}
	if len(types) < 2 || types[0] != "positive_savings" || types[1] != "excellent_savings" {
		t.Errorf("Unexpected milestone types: %v", types)
	}
}

func TestProcessEmptyInput(t *testing.T) {
	bundle, err := Process(nil, nil)
	if err != nil {
		t.Fatalf("Process() returned error: %v", err)
	}

	if bundle.TimePeriod != nil {
		t.Error("Expected nil time period for empty input")
	}
	if bundle.IncomeAnalysis != nil {
		t.Error("Expected nil income analysis for empty input")
	}
	if bundle.SpendingPatterns != nil {
		t.Error("Expected nil spending patterns for empty input")
	}
	if bundle.SpendingByCategory == nil || len(bundle.SpendingByCategory) != 0 {
		t.Errorf("Expected empty category slice, got %v", bundle.SpendingByCategory)
	}
	if bundle.Anomalies == nil || len(bundle.Anomalies) != 0 {
		t.Errorf("Expected empty anomalies, got %v", bundle.Anomalies)
	}
	if bundle.Milestones == nil || len(bundle.Milestones) != 0 {
		t.Errorf("Expected empty milestones, got %v", bundle.Milestones)
	}
	if bundle.BehavioralInsights == nil || len(bundle.BehavioralInsights) != 0 {
		t.Errorf("Expected empty behavioral insights, got %v", bundle.BehavioralInsights)
	}
	if !floatEq(bundle.Summary.SavingsRate, 0) {
		t.Errorf("SavingsRate = %v, want 0", bundle.Summary.SavingsRate)
	}
	if bundle.Comparisons.SpendingTrend != TrendInsufficientData {
		t.Errorf("SpendingTrend = %q, want %q", bundle.Comparisons.SpendingTrend, TrendInsufficientData)
	}
}

func TestSavingsRateZeroIncome(t *testing.T) {
	transactions := []domain.Transaction{
		tx("t1", domain.TypeExpense, 100, "Food & Dining", "2024-01-01"),
	}

	bundle, err := Process(transactions, nil)
	if err != nil {
		t.Fatalf("Process() returned error: %v", err)
	}

	if !floatEq(bundle.Summary.SavingsRate, 0) {
		t.Errorf("SavingsRate = %v, want 0 when income is zero", bundle.Summary.SavingsRate)
	}
	if !floatEq(bundle.Summary.NetSavings, -100) {
		t.Errorf("NetSavings = %v, want -100", bundle.Summary.NetSavings)
	}
	if bundle.Comparisons.VsTypicalSavingsRate.Performance != "below" {
		t.Errorf("Performance = %q, want below", bundle.Comparisons.VsTypicalSavingsRate.Performance)
	}
}

func TestSpendingTrend(t *testing.T) {
	tests := []struct {
		name    string
		amounts []float64
		want    string
	}{
		{"stable equal halves", []float64{100, 100}, TrendStable},
		{"increasing", []float64{100, 200}, TrendIncreasing},
		{"decreasing", []float64{200, 100}, TrendDecreasing},
		{"boundary not increasing", []float64{100, 110}, TrendStable},
		{"single expense", []float64{100}, TrendInsufficientData},
		{"odd count extra in later half", []float64{10, 10, 100}, TrendIncreasing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var transactions []domain.Transaction
			for i, amount := range tt.amounts {
				date := fmt.Sprintf("2024-01-%02d", i+1)
				transactions = append(transactions, tx(fmt.Sprintf("t%d", i), domain.TypeExpense, amount, "Food & Dining", date))
			}

			bundle, err := Process(transactions, nil)
			if err != nil {
				t.Fatalf("Process() returned error: %v", err)
			}
			if got := bundle.Comparisons.SpendingTrend; got != tt.want {
				t.Errorf("SpendingTrend = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMostActiveDayTieBreak(t *testing.T) {
	// 2024-01-01 is a Monday, 2024-01-02 a Tuesday. One expense each:
	// the tie goes to the first-encountered day.
	transactions := []domain.Transaction{
		tx("t1", domain.TypeExpense, 10, "Food & Dining", "2024-01-01"),
		tx("t2", domain.TypeExpense, 99, "Food & Dining", "2024-01-02"),
	}

	bundle, err := Process(transactions, nil)
	if err != nil {
		t.Fatalf("Process() returned error: %v", err)
	}

	if bundle.SpendingPatterns == nil {
		t.Fatal("Expected non-nil spending patterns")
	}
	if bundle.SpendingPatterns.MostActiveDay != "Monday" {
		t.Errorf("MostActiveDay = %q, want Monday", bundle.SpendingPatterns.MostActiveDay)
	}
}

func TestSpendingFrequency(t *testing.T) {
	tests := []struct {
		name  string
		dates []string
		want  string
	}{
		{"high when daily", []string{"2024-01-01", "2024-01-01", "2024-01-01"}, FrequencyHigh},
		{"moderate when every other day", []string{"2024-01-01", "2024-01-03", "2024-01-05"}, FrequencyModerate},
		{"low when sparse", []string{"2024-01-01", "2024-01-10", "2024-01-20"}, FrequencyLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var transactions []domain.Transaction
			for i, date := range tt.dates {
				transactions = append(transactions, tx(fmt.Sprintf("t%d", i), domain.TypeExpense, 10, "Food & Dining", date))
			}

			bundle, err := Process(transactions, nil)
			if err != nil {
				t.Fatalf("Process() returned error: %v", err)
			}
			if got := bundle.SpendingPatterns.SpendingFrequency; got != tt.want {
				t.Errorf("SpendingFrequency = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectAnomalies(t *testing.T) {
	t.Run("flags outlier above two stddev", func(t *testing.T) {
		var transactions []domain.Transaction
		for i := 0; i < 9; i++ {
			transactions = append(transactions, tx(fmt.Sprintf("t%d", i), domain.TypeExpense, 10, "Food & Dining", fmt.Sprintf("2024-01-%02d", i+1)))
		}
		transactions = append(transactions, tx("t-outlier", domain.TypeExpense, 500, "Shopping", "2024-01-10"))

		bundle, err := Process(transactions, nil)
		if err != nil {
			t.Fatalf("Process() returned error: %v", err)
		}
		if len(bundle.Anomalies) != 1 {
			t.Fatalf("Expected 1 anomaly, got %d", len(bundle.Anomalies))
		}
		a := bundle.Anomalies[0]
		if a.Transaction.ID != "t-outlier" {
			t.Errorf("Anomaly transaction = %s, want t-outlier", a.Transaction.ID)
		}
		if a.Reason != "unusually_high" {
			t.Errorf("Reason = %q, want unusually_high", a.Reason)
		}
		if a.Deviation <= 2 {
			t.Errorf("Deviation = %v, want > 2", a.Deviation)
		}
	})

	t.Run("fewer than three expenses yields none", func(t *testing.T) {
		transactions := []domain.Transaction{
			tx("t1", domain.TypeExpense, 10, "Food & Dining", "2024-01-01"),
			tx("t2", domain.TypeExpense, 9999, "Shopping", "2024-01-02"),
		}

		bundle, err := Process(transactions, nil)
		if err != nil {
			t.Fatalf("Process() returned error: %v", err)
		}
		if len(bundle.Anomalies) != 0 {
			t.Errorf("Expected no anomalies, got %d", len(bundle.Anomalies))
		}
	})

	t.Run("identical amounts yield none", func(t *testing.T) {
		transactions := []domain.Transaction{
			tx("t1", domain.TypeExpense, 50, "Food & Dining", "2024-01-01"),
			tx("t2", domain.TypeExpense, 50, "Food & Dining", "2024-01-02"),
			tx("t3", domain.TypeExpense, 50, "Food & Dining", "2024-01-03"),
		}

		bundle, err := Process(transactions, nil)
		if err != nil {
			t.Fatalf("Process() returned error: %v", err)
		}
		if len(bundle.Anomalies) != 0 {
			t.Errorf("Expected no anomalies for uniform amounts, got %d", len(bundle.Anomalies))
		}
	})

	t.Run("caps at five", func(t *testing.T) {
		var transactions []domain.Transaction
		for i := 0; i < 100; i++ {
			transactions = append(transactions, tx(fmt.Sprintf("small-%d", i), domain.TypeExpense, 1, "Food & Dining", "2024-01-01"))
		}
		for i := 0; i < 6; i++ {
			transactions = append(transactions, tx(fmt.Sprintf("big-%d", i), domain.TypeExpense, 1000, "Shopping", "2024-01-02"))
		}

		bundle, err := Process(transactions, nil)
		if err != nil {
			t.Fatalf("Process() returned error: %v", err)
		}
		if len(bundle.Anomalies) != 5 {
			t.Errorf("Expected anomalies capped at 5, got %d", len(bundle.Anomalies))
		}
	})
}

func TestUncategorizedSentinels(t *testing.T) {
	transactions := []domain.Transaction{
		tx("t1", domain.TypeExpense, 10, "", "2024-01-01"),
		tx("t2", domain.TypeIncome, 100, "", "2024-01-02"),
	}

	bundle, err := Process(transactions, nil)
	if err != nil {
		t.Fatalf("Process() returned error: %v", err)
	}

	if len(bundle.SpendingByCategory) != 1 || bundle.SpendingByCategory[0].Category != UncategorizedExpense {
		t.Errorf("Expected expense bucket %q, got %+v", UncategorizedExpense, bundle.SpendingByCategory)
	}
	if bundle.IncomeAnalysis == nil {
		t.Fatal("Expected non-nil income analysis")
	}
	if _, ok := bundle.IncomeAnalysis.IncomeSources[UncategorizedIncome]; !ok {
		t.Errorf("Expected income source %q, got %v", UncategorizedIncome, bundle.IncomeAnalysis.IncomeSources)
	}
	if bundle.IncomeAnalysis.LargestIncome.Category != UncategorizedIncome {
		t.Errorf("LargestIncome.Category = %q, want %q", bundle.IncomeAnalysis.LargestIncome.Category, UncategorizedIncome)
	}
}

func TestStableCategoryOrderOnTies(t *testing.T) {
	transactions := []domain.Transaction{
		tx("t1", domain.TypeExpense, 50, "Shopping", "2024-01-01"),
		tx("t2", domain.TypeExpense, 50, "Entertainment", "2024-01-02"),
	}

	bundle, err := Process(transactions, nil)
	if err != nil {
		t.Fatalf("Process() returned error: %v", err)
	}

	if len(bundle.SpendingByCategory) != 2 {
		t.Fatalf("Expected 2 categories, got %d", len(bundle.SpendingByCategory))
	}
	if bundle.SpendingByCategory[0].Category != "Shopping" {
		t.Errorf("Tied categories must keep input order, got %s first", bundle.SpendingByCategory[0].Category)
	}
}

func TestBehavioralInsights(t *testing.T) {
	// Food is 90% of spending and the trend is decreasing.
	transactions := []domain.Transaction{
		tx("t1", domain.TypeExpense, 90, "Food & Dining", "2024-01-01"),
		tx("t2", domain.TypeExpense, 10, "Transportation", "2024-01-08"),
	}

	bundle, err := Process(transactions, nil)
	if err != nil {
		t.Fatalf("Process() returned error: %v", err)
	}

	if len(bundle.BehavioralInsights) != 3 {
		t.Fatalf("Expected 3 insights, got %d: %v", len(bundle.BehavioralInsights), bundle.BehavioralInsights)
	}
	if bundle.BehavioralInsights[0] != "You tend to spend most on Mondays" {
		t.Errorf("Unexpected day insight: %q", bundle.BehavioralInsights[0])
	}
	if bundle.BehavioralInsights[1] != "Food & Dining dominates your spending at 90% of expenses" {
		t.Errorf("Unexpected dominance insight: %q", bundle.BehavioralInsights[1])
	}
	if bundle.BehavioralInsights[2] != "Your spending has been decreasing over time - great progress!" {
		t.Errorf("Unexpected trend insight: %q", bundle.BehavioralInsights[2])
	}
}

func TestDateFormats(t *testing.T) {
	transactions := []domain.Transaction{
		tx("t1", domain.TypeExpense, 10, "Food & Dining", "2024-01-01T15:30:00Z"),
		tx("t2", domain.TypeExpense, 10, "Food & Dining", "2024-01-02T08:00:00"),
		tx("t3", domain.TypeExpense, 10, "Food & Dining", "2024-01-03"),
	}

	bundle, err := Process(transactions, nil)
	if err != nil {
		t.Fatalf("Process() returned error: %v", err)
	}

	if bundle.TimePeriod.StartDate != "2024-01-01" || bundle.TimePeriod.EndDate != "2024-01-03" {
		t.Errorf("Unexpected period: %s to %s", bundle.TimePeriod.StartDate, bundle.TimePeriod.EndDate)
	}
}

func TestMalformedDate(t *testing.T) {
	transactions := []domain.Transaction{
		tx("t1", domain.TypeExpense, 10, "Food & Dining", "01/02/2024"),
	}

	_, err := Process(transactions, nil)
	if err == nil {
		t.Fatal("Expected error for malformed date")
	}
	if !errors.Is(err, ErrMalformedDate) {
		t.Errorf("Expected ErrMalformedDate, got: %v", err)
	}
}

func TestMalformedAmount(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
	}{
		{"negative", -5},
		{"NaN", math.NaN()},
		{"infinite", math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transactions := []domain.Transaction{
				tx("t1", domain.TypeExpense, tt.amount, "Food & Dining", "2024-01-01"),
			}

			_, err := Process(transactions, nil)
			if err == nil {
				t.Fatal("Expected error for malformed amount")
			}
			if !errors.Is(err, ErrMalformedAmount) {
				t.Errorf("Expected ErrMalformedAmount, got: %v", err)
			}
		})
	}
}
