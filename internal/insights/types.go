package insights

import (
	"github.com/yuvalcohen1/Cash-Flow/internal/domain"
)

// Sentinel category labels used when a transaction carries no category.
// The expense and income paths intentionally use distinct sentinels to
// match the labels the rest of the system expects.
const (
	UncategorizedExpense = "uncategorized"
	UncategorizedIncome  = "other"
)

// Spending frequency labels derived from the average gap between
// consecutive expense transactions.
const (
	FrequencyHigh     = "high"
	FrequencyModerate = "moderate"
	FrequencyLow      = "low"
)

// Spending trend classifications.
const (
	TrendIncreasing       = "increasing"
	TrendDecreasing       = "decreasing"
	TrendStable           = "stable"
	TrendInsufficientData = "insufficient_data"
)

// SavingsRateBenchmark is the fixed savings-rate benchmark, in percentage
// points, that Comparisons measures against.
const SavingsRateBenchmark = 20.0

// Bundle is the complete structured output of the insight engine: nine
// named metric groups computed in a fixed order over one run's transaction
// set. It is immutable after construction and serializes to plain JSON
// numbers, strings, lists and objects.
type Bundle struct {
	TimePeriod         *TimePeriod       `json:"time_period"`
	Summary            Summary           `json:"summary"`
	SpendingByCategory []CategorySpend   `json:"spending_by_category"`
	IncomeAnalysis     *IncomeAnalysis   `json:"income_analysis"`
	SpendingPatterns   *SpendingPatterns `json:"spending_patterns"`
	Comparisons        Comparisons       `json:"comparisons"`
	Anomalies          []Anomaly         `json:"anomalies"`
	Milestones         []Milestone       `json:"milestones"`
	BehavioralInsights []string          `json:"behavioral_insights"`
}

// TimePeriod describes the date span covered by the run. Nil when the
// input set is empty.
type TimePeriod struct {
	StartDate       string `json:"start_date"` // YYYY-MM-DD
	EndDate         string `json:"end_date"`   // YYYY-MM-DD
	NumDays         int    `json:"num_days"`   // inclusive span
	NumTransactions int    `json:"num_transactions"`
}

// Summary holds the five headline figures. All values are raw float64;
// rounding happens only at rendering time.
type Summary struct {
	TotalIncome      float64 `json:"total_income"`
	TotalExpenses    float64 `json:"total_expenses"`
	NetSavings       float64 `json:"net_savings"`
	SavingsRate      float64 `json:"savings_rate"` // percent; 0 when income is 0
	AvgDailySpending float64 `json:"avg_daily_spending"`
}

// CategorySpend aggregates expense transactions for one category.
type CategorySpend struct {
	Category           string  `json:"category"`
	TotalSpent         float64 `json:"total_spent"`
	NumTransactions    int     `json:"num_transactions"`
	PercentageOfTotal  float64 `json:"percentage_of_total"`
	AvgTransaction     float64 `json:"avg_transaction"`
	LargestTransaction float64 `json:"largest_transaction"`
}

// LargestIncome identifies the single biggest income transaction.
type LargestIncome struct {
	Amount   float64 `json:"amount"`
	Date     string  `json:"date"`
	Category string  `json:"category"`
}

// IncomeAnalysis aggregates income transactions. Nil when there are none.
type IncomeAnalysis struct {
	TotalIncome           float64            `json:"total_income"`
	NumIncomeTransactions int                `json:"num_income_transactions"`
	AvgIncomeTransaction  float64            `json:"avg_income_transaction"`
	IncomeSources         map[string]float64 `json:"income_sources"`
	LargestIncome         LargestIncome      `json:"largest_income"`
}

// DayStats aggregates expense activity for one day of the week.
type DayStats struct {
	Total float64 `json:"total"`
	Avg   float64 `json:"avg"`
	Count int     `json:"count"`
}

// SpendingPatterns captures temporal expense behavior. Nil when there are
// no expense transactions.
type SpendingPatterns struct {
	SpendingByDay              map[string]DayStats `json:"spending_by_day"`
	MostActiveDay              string              `json:"most_active_day"`
	AvgDaysBetweenTransactions float64             `json:"avg_days_between_transactions"`
	SpendingFrequency          string              `json:"spending_frequency"`
}

// BenchmarkComparison reports a value against a fixed benchmark.
type BenchmarkComparison struct {
	Value       float64 `json:"value"`
	Benchmark   float64 `json:"benchmark"`
	Difference  float64 `json:"difference"`
	Performance string  `json:"performance"` // above, below or at
}

// Comparisons holds the benchmark comparison and trend classification.
type Comparisons struct {
	VsTypicalSavingsRate BenchmarkComparison `json:"vs_typical_savings_rate"`
	SpendingTrend        string              `json:"spending_trend"`
}

// Anomaly flags one expense transaction statistically far above the mean.
type Anomaly struct {
	Transaction domain.Transaction `json:"transaction"`
	Reason      string             `json:"reason"` // unusually_high
	Deviation   float64            `json:"deviation"`
}

// Milestone is a rule-based positive-reinforcement flag.
type Milestone struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Sentiment string `json:"sentiment"`
}
