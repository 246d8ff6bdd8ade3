package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"TrendWave/internal/model"
	"TrendWave/internal/recorder"
)

// FormatReport formats one refresh cycle into a Telegram HTML message:
// the signal counts, the detailed table, the distribution and any failures.
func FormatReport(report *model.SignalReport, rows []model.SummaryRow, dist model.Distribution) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>TrendWave Bands</b> | %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04")))

	b.WriteString("<b>=== SIGNAL SUMMARY ===</b>\n")
	writeBucket(&b, "BUY Signals", report.Buy, report.Snapshots)
	writeBucket(&b, "SELL Signals", report.Sell, report.Snapshots)
	b.WriteString(fmt.Sprintf("Neutral (No Recent Signal): %d\n", len(report.Neutral)))

	if len(rows) > 0 {
		b.WriteString("\n<b>=== DETAILED SUMMARY ===</b>\n")
		b.WriteString("<pre>")
		b.WriteString(html.EscapeString(FormatTable(rows)))
		b.WriteString("</pre>\n")
	}

	if line := formatDistribution(dist); line != "" {
		b.WriteString("\n📈 <b>Distribution:</b> ")
		b.WriteString(line)
		b.WriteString("\n")
	}

	if len(report.Failed) > 0 {
		b.WriteString(fmt.Sprintf("\n⚠️ <b>Failed (%d):</b>\n", len(report.Failed)))
		symbols := make([]string, 0, len(report.Failed))
		for sym := range report.Failed {
			symbols = append(symbols, sym)
		}
		sort.Strings(symbols)
		for _, sym := range symbols {
			b.WriteString(fmt.Sprintf("  - %s: %s\n", html.EscapeString(sym), html.EscapeString(report.Failed[sym])))
		}
	}

	return b.String()
}

func writeBucket(b *strings.Builder, title string, symbols []string, snaps map[string]model.Snapshot) {
	b.WriteString(fmt.Sprintf("%s: %d\n", title, len(symbols)))
	for _, sym := range symbols {
		b.WriteString(fmt.Sprintf("  - %s: $%.2f\n", html.EscapeString(sym), snaps[sym].Price))
	}
}

// FormatTable renders the summary rows as an aligned plain-text table.
func FormatTable(rows []model.SummaryRow) string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Symbol\tPrice\tTrend\tDays in Trend\tSignal")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%.2f\t%s\t%.1f\t%s\n", r.Symbol, r.Price, r.Trend, r.DaysInTrend, r.Signal)
	}
	_ = w.Flush()
	return sb.String()
}

// formatDistribution lists the non-empty categories with their share of the total.
func formatDistribution(d model.Distribution) string {
	total := d.Total()
	if total == 0 {
		return ""
	}
	cats := []struct {
		label string
		n     int
	}{
		{"Buy Signal", d.Buy},
		{"Sell Signal", d.Sell},
		{"In Uptrend", d.Uptrend},
		{"In Downtrend", d.Downtrend},
		{"Neutral", d.Neutral},
	}
	parts := make([]string, 0, len(cats))
	for _, c := range cats {
		if c.n == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %d (%.1f%%)", c.label, c.n, float64(c.n)/float64(total)*100))
	}
	return strings.Join(parts, " | ")
}

// FormatSnapshot formats the latest state of one instrument.
func FormatSnapshot(symbol string, snap model.Snapshot) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔎 <b>%s</b> | %s\n\n", html.EscapeString(symbol), snap.AsOf.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Price: %.2f\n", snap.Price))
	b.WriteString(fmt.Sprintf("Trend: %s\n", snap.TrendLabel))
	b.WriteString(fmt.Sprintf("Signal: %s\n", snap.Signal.Label()))
	b.WriteString(fmt.Sprintf("Days in trend: %.1f\n", snap.DaysInTrend))
	if snap.Upper != nil {
		b.WriteString(fmt.Sprintf("Upper band: %.2f\n", *snap.Upper))
	}
	if snap.Lower != nil {
		b.WriteString(fmt.Sprintf("Lower band: %.2f\n", *snap.Lower))
	}
	return b.String()
}

// FormatStatus describes the last refresh cycle, or its absence.
func FormatStatus(report *model.SignalReport, nextRun time.Time) string {
	if report == nil {
		return statusText("No refresh has run yet.\n", nextRun)
	}
	return statusText(runCounts("Last refresh", report.GeneratedAt,
		len(report.Buy), len(report.Sell), len(report.Neutral), len(report.Failed)), nextRun)
}

// FormatStoredStatus describes a run read back from the recorder.
func FormatStoredStatus(run recorder.RunRecord, nextRun time.Time) string {
	return statusText(runCounts("Last stored refresh", time.Unix(run.Timestamp, 0),
		run.BuyCount, run.SellCount, run.NeutralCount, run.FailedCount), nextRun)
}

func runCounts(label string, at time.Time, buy, sell, neutral, failed int) string {
	return fmt.Sprintf("%s: %s\nClassified: %d (BUY %d, SELL %d, neutral %d)\nFailed: %d\n",
		label, at.Format("2006-01-02 15:04"), buy+sell+neutral, buy, sell, neutral, failed)
}

func statusText(body string, nextRun time.Time) string {
	var b strings.Builder
	b.WriteString("📦 <b>Status</b>\n\n")
	b.WriteString(body)
	if !nextRun.IsZero() {
		b.WriteString(fmt.Sprintf("Next refresh: %s\n", nextRun.Format("2006-01-02 15:04")))
	}
	return b.String()
}

// FormatHelp lists the supported commands.
func FormatHelp() string {
	return "Available commands:\n" +
		"• /signals - run a refresh now\n" +
		"• /status - last refresh summary\n" +
		"• /trend SYMBOL - latest state of one instrument"
}
