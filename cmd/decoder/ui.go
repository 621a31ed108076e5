package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"stockDecoder/internal/analytics"
	"stockDecoder/internal/app"
	"stockDecoder/internal/domain"
)

// UI styles
var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED"))

	boxStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#3B82F6")).
		Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280"))

	upStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981")).
		Bold(true)

	downStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#EF4444")).
		Bold(true)

	pendingStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F59E0B"))

	errorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#EF4444")).
		Bold(true)
)

func styleLabel(l domain.Label) string {
	if l == domain.LabelUp {
		return upStyle.Render(string(l))
	}
	return downStyle.Render(string(l))
}

func row(name string, value interface{}) string {
	return fmt.Sprintf("%s %v", labelStyle.Render(fmt.Sprintf("%-14s", name+":")), value)
}

func renderError(err error) string {
	return errorStyle.Render("✗ " + err.Error())
}

func renderPrediction(p *domain.Prediction) string {
	lines := []string{
		titleStyle.Render(fmt.Sprintf("%s %s prediction", p.Symbol, p.Series)),
		row("Query date", p.QueryDate),
		row("Label", styleLabel(p.Label)),
		row("Gain", fmt.Sprintf("%.6f", p.Gain)),
		row("Depth", p.Depth),
		row("Training size", p.TrainingSize),
		row("Provider", p.Provider),
		"",
		p.Message(),
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func renderTree(res *app.PredictResult) string {
	header := titleStyle.Render(fmt.Sprintf("%s %s tree", res.Prediction.Symbol, res.Prediction.Series))
	stats := fmt.Sprintf("%s  %s  %s",
		row("Depth", res.Tree.Depth()),
		row("Leaves", res.Tree.Leaves()),
		row("Examples", res.Prediction.TrainingSize))
	query := fmt.Sprintf("%s → %s", row("Query", res.Query.Date), styleLabel(res.Prediction.Label))
	return strings.Join([]string{header, stats, "", res.Tree.String(), "", query}, "\n")
}

func renderHistory(symbol string, predictions []*domain.Prediction) string {
	if len(predictions) == 0 {
		return pendingStyle.Render(fmt.Sprintf("No stored predictions for %s", strings.ToUpper(symbol)))
	}
	lines := []string{titleStyle.Render(fmt.Sprintf("%s prediction history", strings.ToUpper(symbol)))}
	for _, p := range predictions {
		lines = append(lines, fmt.Sprintf("%s  %-7s %-12s %-5s gain=%.4f depth=%d",
			p.CreatedAt.Format("2006-01-02 15:04"), p.Series, p.QueryDate, styleLabel(p.Label), p.Gain, p.Depth))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func renderScorecard(symbol string, sc *analytics.Scorecard) string {
	lines := []string{titleStyle.Render(fmt.Sprintf("%s scorecard", strings.ToUpper(symbol)))}
	if sc.Series != "" {
		lines = append(lines, row("Series", fmt.Sprintf("%s via %s", sc.Series, sc.Provider)))
	}
	lines = append(lines,
		row("Predictions", sc.Total),
		row("Hits", upStyle.Render(fmt.Sprint(sc.Hits))),
		row("Misses", downStyle.Render(fmt.Sprint(sc.Misses))),
		row("Pending", pendingStyle.Render(fmt.Sprint(sc.Pending))),
		row("Hit rate", fmt.Sprintf("%.1f%%", sc.HitRate*100)),
		row("Hit streak", sc.LongestHitStreak),
		row("Miss streak", sc.LongestMissStreak),
	)
	for _, label := range []domain.Label{domain.LabelUp, domain.LabelDown} {
		if stats, ok := sc.ByLabel[label]; ok && stats.Predicted > 0 {
			lines = append(lines, row("Precision "+string(label), fmt.Sprintf("%.1f%% of %d", stats.Precision*100, stats.Predicted)))
		}
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}
