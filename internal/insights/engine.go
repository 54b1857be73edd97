// Package insights implements the analytics core: a deterministic, pure
// transformation from one user's transaction set into the nine metric
// groups of a Bundle. The engine holds no state across runs and never
// mutates its input.
package insights

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/yuvalcohen1/Cash-Flow/internal/domain"
)

// ErrMalformedAmount marks a transaction amount that is not a usable
// non-negative number. Like a malformed date, it is fatal for the run.
var ErrMalformedAmount = errors.New("malformed transaction amount")

// datedTransaction pairs a transaction with its normalized date so the
// steps never re-parse date strings.
type datedTransaction struct {
	domain.Transaction
	date time.Time
}

// Process runs the full pipeline over a transaction set. The steps execute
// in a fixed order because later steps read earlier results; each step is a
// function of exactly the prior results it depends on. An empty input
// yields a fully structured, mostly empty Bundle; only malformed dates or
// amounts produce an error.
func Process(transactions []domain.Transaction, profile *domain.UserProfile) (*Bundle, error) {
	dated, err := normalizeTransactions(transactions)
	if err != nil {
		return nil, err
	}

	period := computeTimePeriod(dated)
	summary := computeSummary(dated, period)
	byCategory := computeSpendingByCategory(dated)
	income := computeIncomeAnalysis(dated)
	patterns := computeSpendingPatterns(dated)
	comparisons := computeComparisons(dated, summary)
	anomalies := detectAnomalies(dated)
	milestones := identifyMilestones(summary, patterns)
	behavioral := extractBehavioralInsights(patterns, byCategory, comparisons)

	return &Bundle{
		TimePeriod:         period,
		Summary:            summary,
		SpendingByCategory: byCategory,
		IncomeAnalysis:     income,
		SpendingPatterns:   patterns,
		Comparisons:        comparisons,
		Anomalies:          anomalies,
		Milestones:         milestones,
		BehavioralInsights: behavioral,
	}, nil
}

func normalizeTransactions(transactions []domain.Transaction) ([]datedTransaction, error) {
	dated := make([]datedTransaction, 0, len(transactions))
	for i, t := range transactions {
		d, err := normalizeDate(t.Date)
		if err != nil {
			return nil, fmt.Errorf("transaction %d (%s): %w", i, t.ID, err)
		}
		if math.IsNaN(t.Amount) || math.IsInf(t.Amount, 0) || t.Amount < 0 {
			return nil, fmt.Errorf("transaction %d (%s): %w: %v", i, t.ID, ErrMalformedAmount, t.Amount)
		}
		dated = append(dated, datedTransaction{Transaction: t, date: d})
	}
	return dated, nil
}

func expenses(dated []datedTransaction) []datedTransaction {
	out := make([]datedTransaction, 0, len(dated))
	for _, t := range dated {
		if t.Type == domain.TypeExpense {
			out = append(out, t)
		}
	}
	return out
}

// computeTimePeriod reports the inclusive date span of the whole set.
func computeTimePeriod(dated []datedTransaction) *TimePeriod {
	if len(dated) == 0 {
		return nil
	}

	min, max := dated[0].date, dated[0].date
	for _, t := range dated[1:] {
		if t.date.Before(min) {
			min = t.date
		}
		if t.date.After(max) {
			max = t.date
		}
	}

	return &TimePeriod{
		StartDate:       min.Format("2006-01-02"),
		EndDate:         max.Format("2006-01-02"),
		NumDays:         daysBetween(min, max) + 1,
		NumTransactions: len(dated),
	}
}

// computeSummary derives the five headline figures. Zero income yields a
// savings rate of exactly 0 rather than a division error.
func computeSummary(dated []datedTransaction, period *TimePeriod) Summary {
	var totalIncome, totalExpenses float64
	for _, t := range dated {
		switch t.Type {
		case domain.TypeIncome:
			totalIncome += t.Amount
		case domain.TypeExpense:
			totalExpenses += t.Amount
		}
	}

	net := totalIncome - totalExpenses

	var savingsRate float64
	if totalIncome > 0 {
		savingsRate = net / totalIncome * 100
	}

	numDays := 1
	if period != nil && period.NumDays > numDays {
		numDays = period.NumDays
	}

	return Summary{
		TotalIncome:      totalIncome,
		TotalExpenses:    totalExpenses,
		NetSavings:       net,
		SavingsRate:      savingsRate,
		AvgDailySpending: totalExpenses / float64(numDays),
	}
}

// computeSpendingByCategory groups expense transactions by category and
// sorts descending by total spent. The sort is stable so equal totals keep
// their first-encountered order.
func computeSpendingByCategory(dated []datedTransaction) []CategorySpend {
	type group struct {
		total   float64
		count   int
		largest float64
	}

	groups := make(map[string]*group)
	var order []string

	for _, t := range dated {
		if t.Type != domain.TypeExpense {
			continue
		}
		cat := t.Category
		if cat == "" {
			cat = UncategorizedExpense
		}
		g, ok := groups[cat]
		if !ok {
			g = &group{}
			groups[cat] = g
			order = append(order, cat)
		}
		g.total += t.Amount
		g.count++
		if t.Amount > g.largest {
			g.largest = t.Amount
		}
	}

	var totalExpenses float64
	for _, g := range groups {
		totalExpenses += g.total
	}

	result := make([]CategorySpend, 0, len(order))
	for _, cat := range order {
		g := groups[cat]
		var pct float64
		if totalExpenses > 0 {
			pct = g.total / totalExpenses * 100
		}
		result = append(result, CategorySpend{
			Category:           cat,
			TotalSpent:         g.total,
			NumTransactions:    g.count,
			PercentageOfTotal:  pct,
			AvgTransaction:     g.total / float64(g.count),
			LargestTransaction: g.largest,
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].TotalSpent > result[j].TotalSpent
	})

	return result
}

// computeIncomeAnalysis aggregates income transactions. The largest income
// transaction is the first maximal one in input order.
func computeIncomeAnalysis(dated []datedTransaction) *IncomeAnalysis {
	var total float64
	var count int
	sources := make(map[string]float64)
	var largest *datedTransaction

	for i, t := range dated {
		if t.Type != domain.TypeIncome {
			continue
		}
		cat := t.Category
		if cat == "" {
			cat = UncategorizedIncome
		}
		total += t.Amount
		count++
		sources[cat] += t.Amount
		if largest == nil || t.Amount > largest.Amount {
			largest = &dated[i]
		}
	}

	if count == 0 {
		return nil
	}

	largestCat := largest.Category
	if largestCat == "" {
		largestCat = UncategorizedIncome
	}

	return &IncomeAnalysis{
		TotalIncome:           total,
		NumIncomeTransactions: count,
		AvgIncomeTransaction:  total / float64(count),
		IncomeSources:         sources,
		LargestIncome: LargestIncome{
			Amount:   largest.Amount,
			Date:     largest.date.Format("2006-01-02"),
			Category: largestCat,
		},
	}
}

// computeSpendingPatterns groups expenses by day of week and measures how
// tightly spaced they are in time. most_active_day is the day with the
// highest transaction count, ties broken by first-encountered day.
func computeSpendingPatterns(dated []datedTransaction) *SpendingPatterns {
	exp := expenses(dated)
	if len(exp) == 0 {
		return nil
	}

	byDay := make(map[string]DayStats)
	var dayOrder []string
	for _, t := range exp {
		day := t.date.Weekday().String()
		s, ok := byDay[day]
		if !ok {
			dayOrder = append(dayOrder, day)
		}
		s.Total += t.Amount
		s.Count++
		byDay[day] = s
	}
	for day, s := range byDay {
		s.Avg = s.Total / float64(s.Count)
		byDay[day] = s
	}

	mostActive := dayOrder[0]
	for _, day := range dayOrder[1:] {
		if byDay[day].Count > byDay[mostActive].Count {
			mostActive = day
		}
	}

	dates := make([]time.Time, len(exp))
	for i, t := range exp {
		dates[i] = t.date
	}
	sort.SliceStable(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	var avgGap float64
	if len(dates) > 1 {
		var totalGap int
		for i := 1; i < len(dates); i++ {
			totalGap += daysBetween(dates[i-1], dates[i])
		}
		avgGap = float64(totalGap) / float64(len(dates)-1)
	}

	frequency := FrequencyLow
	switch {
	case avgGap < 1:
		frequency = FrequencyHigh
	case avgGap < 3:
		frequency = FrequencyModerate
	}

	return &SpendingPatterns{
		SpendingByDay:              byDay,
		MostActiveDay:              mostActive,
		AvgDaysBetweenTransactions: avgGap,
		SpendingFrequency:          frequency,
	}
}

// computeComparisons measures the savings rate against the fixed benchmark
// and classifies the spending trend from a chronological midpoint split.
func computeComparisons(dated []datedTransaction, summary Summary) Comparisons {
	diff := summary.SavingsRate - SavingsRateBenchmark

	performance := "at"
	switch {
	case diff > 0:
		performance = "above"
	case diff < 0:
		performance = "below"
	}

	return Comparisons{
		VsTypicalSavingsRate: BenchmarkComparison{
			Value:       summary.SavingsRate,
			Benchmark:   SavingsRateBenchmark,
			Difference:  diff,
			Performance: performance,
		},
		SpendingTrend: computeTrend(dated),
	}
}

func computeTrend(dated []datedTransaction) string {
	exp := expenses(dated)
	if len(exp) < 2 {
		return TrendInsufficientData
	}

	sorted := make([]datedTransaction, len(exp))
	copy(sorted, exp)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].date.Before(sorted[j].date) })

	mid := len(sorted) / 2
	var firstHalf, secondHalf float64
	for _, t := range sorted[:mid] {
		firstHalf += t.Amount
	}
	for _, t := range sorted[mid:] {
		secondHalf += t.Amount
	}

	switch {
	case secondHalf > firstHalf*1.1:
		return TrendIncreasing
	case secondHalf < firstHalf*0.9:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// detectAnomalies flags expense transactions more than two population
// standard deviations above the mean, top five by deviation.
func detectAnomalies(dated []datedTransaction) []Anomaly {
	exp := expenses(dated)
	if len(exp) < 3 {
		return []Anomaly{}
	}

	var sum float64
	for _, t := range exp {
		sum += t.Amount
	}
	mean := sum / float64(len(exp))

	var sq float64
	for _, t := range exp {
		d := t.Amount - mean
		sq += d * d
	}
	stddev := math.Sqrt(sq / float64(len(exp)))

	anomalies := []Anomaly{}
	for _, t := range exp {
		if t.Amount <= mean+2*stddev {
			continue
		}
		var deviation float64
		if stddev > 0 {
			deviation = (t.Amount - mean) / stddev
		}
		anomalies = append(anomalies, Anomaly{
			Transaction: t.Transaction,
			Reason:      "unusually_high",
			Deviation:   deviation,
		})
	}

	sort.SliceStable(anomalies, func(i, j int) bool {
		return anomalies[i].Deviation > anomalies[j].Deviation
	})
	if len(anomalies) > 5 {
		anomalies = anomalies[:5]
	}

	return anomalies
}

// identifyMilestones evaluates the positive-reinforcement rules. The rules
// are independent, not mutually exclusive.
func identifyMilestones(summary Summary, patterns *SpendingPatterns) []Milestone {
	milestones := []Milestone{}

	if summary.SavingsRate > 0 {
		milestones = append(milestones, Milestone{
			Type:      "positive_savings",
			Message:   fmt.Sprintf("You saved %.1f%% of your income", summary.SavingsRate),
			Sentiment: "positive",
		})
	}

	if summary.SavingsRate > 20 {
		milestones = append(milestones, Milestone{
			Type:      "excellent_savings",
			Message:   "Excellent savings rate above 20%",
			Sentiment: "very_positive",
		})
	}

	if patterns != nil && patterns.SpendingFrequency == FrequencyLow {
		milestones = append(milestones, Milestone{
			Type:      "controlled_spending",
			Message:   "You're being thoughtful with your spending frequency",
			Sentiment: "positive",
		})
	}

	return milestones
}

// extractBehavioralInsights renders zero or more observation lines in a
// fixed order: day, dominant category, trend.
func extractBehavioralInsights(patterns *SpendingPatterns, byCategory []CategorySpend, comparisons Comparisons) []string {
	out := []string{}

	if patterns != nil && patterns.MostActiveDay != "" {
		out = append(out, fmt.Sprintf("You tend to spend most on %ss", patterns.MostActiveDay))
	}

	if len(byCategory) > 0 {
		top := byCategory[0]
		if top.PercentageOfTotal > 40 {
			out = append(out, fmt.Sprintf("%s dominates your spending at %.0f%% of expenses",
				top.Category, top.PercentageOfTotal))
		}
	}

	switch comparisons.SpendingTrend {
	case TrendDecreasing:
		out = append(out, "Your spending has been decreasing over time - great progress!")
	case TrendIncreasing:
		out = append(out, "Your spending has been trending upward recently")
	}

	return out
}
