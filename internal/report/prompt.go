// Package report turns an insight bundle into a narrative financial
// report: a deterministic prompt builder plus a generator that hands the
// prompt to Gemini.
package report

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/yuvalcohen1/Cash-Flow/internal/domain"
	"github.com/yuvalcohen1/Cash-Flow/internal/insights"
)

// money formats currency amounts with thousands separators, e.g. 1,234.56.
var money = message.NewPrinter(language.English)

// BuildPrompt renders the complete generation prompt from an insight
// bundle and an optional profile. Section order is fixed: role framing,
// user context, data context, tone guidance, output structure. The builder
// performs no validation of its own; it trusts the engine's invariants.
func BuildPrompt(b *insights.Bundle, profile *domain.UserProfile) string {
	sections := []string{
		systemContext(),
		userContext(profile),
		dataContext(b),
		toneGuidance(b.Summary),
		outputStructure(),
	}
	return strings.Join(sections, "\n\n")
}

func systemContext() string {
	return `You are a personal finance advisor AI creating a personalized financial report.
Your goal is to provide insights that are:
- Personal and contextual (using the user's actual data)
- Emotionally intelligent (celebrating wins, being empathetic about challenges)
- Actionable (providing specific, achievable suggestions)
- Encouraging (maintaining a supportive, non-judgmental tone)
- Balanced (acknowledging both strengths and areas for improvement)`
}

// userContext emits only the profile fields that are present; an absent
// field produces no line, not a placeholder.
func userContext(profile *domain.UserProfile) string {
	parts := []string{"# User Context"}

	if profile != nil {
		if profile.Name != "" {
			parts = append(parts, "User's name: "+profile.Name)
		}
		if len(profile.FinancialGoals) > 0 {
			parts = append(parts, "Financial goals: "+strings.Join(profile.FinancialGoals, ", "))
		}
		if profile.RiskTolerance != "" {
			parts = append(parts, "Risk tolerance: "+profile.RiskTolerance)
		}
	}

	return strings.Join(parts, "\n")
}

// dataContext renders the bundle's metric groups in fixed order. An empty
// upstream sub-structure suppresses its entire subsection so the prompt
// never contains a dangling header.
func dataContext(b *insights.Bundle) string {
	var sb strings.Builder
	sb.WriteString("# Financial Data Analysis\n")

	if tp := b.TimePeriod; tp != nil {
		sb.WriteString("\n## Time Period\n")
		fmt.Fprintf(&sb, "- Period: %s to %s\n", tp.StartDate, tp.EndDate)
		fmt.Fprintf(&sb, "- Duration: %d days\n", tp.NumDays)
		fmt.Fprintf(&sb, "- Total transactions: %d\n", tp.NumTransactions)
	}

	s := b.Summary
	sb.WriteString("\n## Financial Summary\n")
	money.Fprintf(&sb, "- Total income: $%.2f\n", s.TotalIncome)
	money.Fprintf(&sb, "- Total expenses: $%.2f\n", s.TotalExpenses)
	money.Fprintf(&sb, "- Net savings: $%.2f\n", s.NetSavings)
	fmt.Fprintf(&sb, "- Savings rate: %.1f%%\n", s.SavingsRate)
	money.Fprintf(&sb, "- Average daily spending: $%.2f\n", s.AvgDailySpending)

	if len(b.SpendingByCategory) > 0 {
		sb.WriteString("\n## Top Spending Categories\n")
		top := b.SpendingByCategory
		if len(top) > 5 {
			top = top[:5]
		}
		for i, cat := range top {
			money.Fprintf(&sb, "%d. %s: $%.2f (%.1f%% of total)\n",
				i+1, cat.Category, cat.TotalSpent, cat.PercentageOfTotal)
			money.Fprintf(&sb, "   - %d transactions, avg $%.2f\n",
				cat.NumTransactions, cat.AvgTransaction)
		}
	}

	if p := b.SpendingPatterns; p != nil {
		sb.WriteString("\n## Spending Patterns\n")
		fmt.Fprintf(&sb, "- Most active spending day: %s\n", p.MostActiveDay)
		fmt.Fprintf(&sb, "- Spending frequency: %s\n", p.SpendingFrequency)
	}

	if len(b.Milestones) > 0 {
		sb.WriteString("\n## Achievements & Milestones\n")
		for _, m := range b.Milestones {
			fmt.Fprintf(&sb, "- %s\n", m.Message)
		}
	}

	if len(b.Anomalies) > 0 {
		sb.WriteString("\n## Notable Transactions\n")
		shown := b.Anomalies
		if len(shown) > 3 {
			shown = shown[:3]
		}
		for _, a := range shown {
			desc := a.Transaction.Description
			if desc == "" {
				desc = "No description"
			}
			money.Fprintf(&sb, "- Unusually high: $%.2f on %s (%s)\n",
				a.Transaction.Amount, truncateDate(a.Transaction.Date), desc)
		}
	}

	if len(b.BehavioralInsights) > 0 {
		sb.WriteString("\n## Behavioral Insights\n")
		for _, line := range b.BehavioralInsights {
			fmt.Fprintf(&sb, "- %s\n", line)
		}
	}

	return sb.String()
}

// toneGuidance maps the savings rate to one of four tone labels and
// instructs the model to stay personal and concrete.
func toneGuidance(s insights.Summary) string {
	var tone string
	switch {
	case s.SavingsRate > 20:
		tone = "celebratory and encouraging"
	case s.SavingsRate > 0:
		tone = "positive and supportive"
	case s.SavingsRate > -10:
		tone = "empathetic but constructive"
	default:
		tone = "understanding and gently motivating"
	}

	return fmt.Sprintf(`# Tone Guidance
The user's savings rate is %.1f%%. Use a %s tone.
Be genuine and warm - avoid corporate speak or generic advice.
Use "you" language to make it personal.
Include specific numbers from their data to show you're paying attention.`, s.SavingsRate, tone)
}

func outputStructure() string {
	return `# Output Format
Generate a personalized financial report with the following sections:

1. **Opening** (2-3 sentences)
   - Personal greeting with a specific observation about their financial period
   - Set an encouraging tone

2. **Financial Snapshot** (1 paragraph)
   - Summarize their overall financial health this period
   - Highlight the most important metrics in context

3. **What's Working Well** (2-3 specific points)
   - Celebrate their wins with specific data
   - Make them feel good about positive behaviors

4. **Areas for Growth** (2-3 specific points)
   - Frame constructively, not critically
   - Connect to their financial goals if known
   - Be specific with numbers and examples

5. **Key Insight** (1 paragraph)
   - One surprising or important pattern you noticed
   - Explain why it matters to their financial future

6. **Personalized Action Steps** (2-3 concrete recommendations)
   - Specific, achievable actions based on their data
   - Explain the potential impact of each action

7. **Closing** (2-3 sentences)
   - Encouraging message
   - Forward-looking and optimistic

Make it conversational, warm, and personal. Use their actual numbers frequently.`
}

// truncateDate keeps only the date part of a timestamp string.
func truncateDate(date string) string {
	if len(date) > 10 {
		return date[:10]
	}
	return date
}
