// Package report renders simulation results for the write-up: the raw
// call-level CSV log, strategy summary tables, and LaTeX table snippets.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/Jincan-LI-HUB/2026-MCM-Simulation-Problem-B/internal/dispatch"
	"github.com/Jincan-LI-HUB/2026-MCM-Simulation-Problem-B/internal/evaluate"
	"github.com/Jincan-LI-HUB/2026-MCM-Simulation-Problem-B/internal/forecast"
)

// timeLayout is how call timestamps appear in the CSV log.
const timeLayout = "2006-01-02 15:04:05"

// WriteCallLog streams the call-level outcome log as CSV.
func WriteCallLog(w io.Writer, outs []dispatch.Outcome) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"strategy", "scenario", "call_time", "wait_time", "state", "empty_travel"}); err != nil {
		return err
	}
	for _, o := range outs {
		rec := []string{
			o.Strategy,
			o.Scenario,
			o.CallTime.Format(timeLayout),
			formatFloat(o.Wait),
			string(o.State),
			formatFloat(o.EmptyShare),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummaryCSV writes summary rows as CSV. NaN metrics render as empty
// cells.
func WriteSummaryCSV(w io.Writer, rows []evaluate.Summary) error {
	cw := csv.NewWriter(w)
	header := []string{"strategy", "scenario", "window", "N", "AWT", "P90", "P95", "P99", "LongWait%", "EmptyTravel_mean"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.Strategy,
			r.Scenario,
			string(r.Window),
			strconv.Itoa(r.N),
			formatMetric(r.AWT),
			formatMetric(r.P90),
			formatMetric(r.P95),
			formatMetric(r.P99),
			formatMetric(r.LongWaitPct),
			formatMetric(r.EmptyTravelMean),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteForecastCSV writes the one-step backtest benchmark: the full model
// against the pure time-of-day baseline, plus the model's per-state error
// when state labels were supplied.
func WriteForecastCSV(w io.Writer, res forecast.BacktestResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"model", "state", "MAE", "RMSE", "N"}); err != nil {
		return err
	}
	write := func(model, state string, a forecast.Accuracy) error {
		return cw.Write([]string{model, state, formatMetric(a.MAE), formatMetric(a.RMSE), strconv.Itoa(a.N)})
	}
	if err := write("Baseline+AR(1)", "overall", res.Model); err != nil {
		return err
	}
	if err := write("Time-of-day baseline", "overall", res.Baseline); err != nil {
		return err
	}
	states := make([]string, 0, len(res.ByState))
	for s := range res.ByState {
		states = append(states, s)
	}
	sort.Strings(states)
	for _, s := range states {
		if err := write("Baseline+AR(1)", s, res.ByState[s]); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteLaTeX renders summary rows as a LaTeX table, one block per window
// with the rows ordered best-first by AWT. Underscores and ampersands in
// names are escaped so the snippet is paste-ready.
func WriteLaTeX(w io.Writer, caption, label string, byWindow map[evaluate.Window][]evaluate.Summary, order []evaluate.Window) error {
	var b strings.Builder
	b.WriteString("\\begin{table}[htbp]\n")
	b.WriteString("\\centering\n")
	fmt.Fprintf(&b, "\\caption{%s}\n", escapeTeX(caption))
	if label != "" {
		fmt.Fprintf(&b, "\\label{%s}\n", label)
	}
	b.WriteString("\\begin{tabular}{lrrrrrr}\n")
	b.WriteString("\\hline\n")
	b.WriteString("Strategy & AWT & P95 & P99 & Long wait (\\%) & Empty travel & $N$ \\\\\n")
	b.WriteString("\\hline\n")

	for _, window := range order {
		rows := byWindow[window]
		if len(rows) == 0 {
			continue
		}
		sorted := append([]evaluate.Summary(nil), rows...)
		evaluate.SortByAWT(sorted)
		fmt.Fprintf(&b, "\\multicolumn{7}{l}{\\textbf{%s}} \\\\\n", escapeTeX(windowTitle(window)))
		for _, r := range sorted {
			fmt.Fprintf(&b, "%s & %s & %s & %s & %s & %s & %d \\\\\n",
				escapeTeX(r.Strategy),
				formatCell(r.AWT), formatCell(r.P95), formatCell(r.P99),
				formatCell(r.LongWaitPct), formatCell(r.EmptyTravelMean), r.N)
		}
		b.WriteString("\\hline\n")
	}

	b.WriteString("\\end{tabular}\n")
	b.WriteString("\\end{table}\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func windowTitle(w evaluate.Window) string {
	switch w {
	case evaluate.WindowPeak:
		return "Peak (weekday 08-10,17-19)"
	case evaluate.WindowTransition:
		return "Transition (+/-15min around state changes)"
	case evaluate.WindowHighLoad:
		return "High-load (top 10% 5-min bins)"
	case evaluate.WindowOverall:
		return "Overall"
	}
	return string(w)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatMetric renders a summary metric for CSV; NaN becomes an empty cell.
func formatMetric(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// formatCell renders a summary metric for LaTeX at two decimals.
func formatCell(v float64) string {
	if math.IsNaN(v) {
		return "--"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func escapeTeX(s string) string {
	s = strings.ReplaceAll(s, "&", "\\&")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "%", "\\%")
	return s
}
