package classifier

import (
	"sort"

	"TrendWave/internal/model"
)

// signalOrder ranks rows in the summary table.
var signalOrder = map[string]int{"BUY": 0, "SELL": 1, "HOLD": 2}

// Summary builds the table of buy, sell and trending neutral instruments,
// ordered by signal priority and then symbol.
func Summary(report *model.SignalReport) []model.SummaryRow {
	var rows []model.SummaryRow
	add := func(symbols []string, label string) {
		for _, sym := range symbols {
			snap, ok := report.Snapshots[sym]
			if !ok || snap.TrendLabel == "" {
				continue
			}
			rows = append(rows, model.SummaryRow{
				Symbol:      sym,
				Price:       snap.Price,
				Trend:       snap.TrendLabel,
				DaysInTrend: snap.DaysInTrend,
				Signal:      label,
			})
		}
	}
	add(report.Buy, model.SignalBuy.Label())
	add(report.Sell, model.SignalSell.Label())
	add(report.Neutral, model.SignalNone.Label())

	sort.SliceStable(rows, func(i, j int) bool {
		oi, oj := signalOrder[rows[i].Signal], signalOrder[rows[j].Signal]
		if oi != oj {
			return oi < oj
		}
		return rows[i].Symbol < rows[j].Symbol
	})
	return rows
}

// Distribution counts instruments per category: fresh signals first, then the trend of neutral ones.
func Distribution(report *model.SignalReport) model.Distribution {
	d := model.Distribution{Buy: len(report.Buy), Sell: len(report.Sell)}
	for _, sym := range report.Neutral {
		switch report.Snapshots[sym].Direction {
		case model.Up:
			d.Uptrend++
		case model.Down:
			d.Downtrend++
		default:
			d.Neutral++
		}
	}
	return d
}
