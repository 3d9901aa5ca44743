package journal

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"
	"time"
)

// BacktestRun mirrors the runs table.
type BacktestRun struct {
	RunID   string
	Created time.Time
	Name    string

	Strategy  string
	Tickers   []string
	Benchmark string
	Config    []byte // yaml of the run config

	Start time.Time
	End   time.Time

	// Results
	Trades int
	Wins   int
	Losses int

	StartBalance float64
	EndBalance   float64

	// Derived / computed in Go
	NetPL     float64
	ReturnPct float64
	WinRate   float64
	MaxDDPct  float64
	Sharpe    float64
	Skipped   int

	OrgPath string

	Notes       []string
	NextActions []string
}

var backtestOrgFuncs = template.FuncMap{
	"mul100": func(x float64) float64 { return x * 100.0 },
	"join":   strings.Join,
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var backtestOrg = template.Must(template.New("backtest").Funcs(backtestOrgFuncs).Parse(BacktestOrgTemplate))

// RenderOrg writes the org report of the run to w.
func (v *BacktestRun) RenderOrg(w io.Writer) error {
	return backtestOrg.Execute(w, v)
}

// WriteBacktestOrg renders the run into OrgPath.
func (v *BacktestRun) WriteBacktestOrg() error {
	if v.OrgPath == "" {
		return fmt.Errorf("backtest %s: no org path", v.RunID)
	}
	buf := new(bytes.Buffer)
	if err := v.RenderOrg(buf); err != nil {
		return err
	}
	return os.WriteFile(v.OrgPath, buf.Bytes(), 0644)
}

const BacktestOrgTemplate = `
* BACKTEST: {{if .Name}}{{.Name}}{{else}}{{.Strategy}}{{end}} {{join .Tickers ","}}
:PROPERTIES:
:RUN_ID:      {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:STRATEGY:    {{.Strategy}}
:TICKERS:     {{join .Tickers ","}}
:BENCHMARK:   {{if .Benchmark}}{{.Benchmark}}{{else}}(none){{end}}
:START_DATE:  {{.Start.Format "2006-01-02"}}
:END_DATE:    {{.End.Format "2006-01-02"}}
:START_BAL:   {{printf "%.2f" .StartBalance}}
:END_BAL:     {{printf "%.2f" .EndBalance}}
:NET_PL:      {{printf "%.2f" .NetPL}}
:RETURN_PCT:  {{printf "%.2f" .ReturnPct}}
:MAX_DD_PCT:  {{printf "%.2f" .MaxDDPct}}
:SHARPE:      {{printf "%.2f" .Sharpe}}
:TRADES:      {{.Trades}}
:WINS:        {{.Wins}}
:LOSSES:      {{.Losses}}
:WIN_RATE:    {{printf "%.2f" .WinRate}}
:SKIPPED:     {{.Skipped}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Configuration
#+begin_src yaml
{{printf "%s" .Config}}
#+end_src

** Performance Summary
- Net P/L:          *{{printf "%.2f" .NetPL}}*
- Return:           *{{printf "%.2f" .ReturnPct}}%*
- Max Drawdown:     *{{printf "%.2f" .MaxDDPct}}%*
- Win Rate:         *{{printf "%.2f" (mul100 .WinRate)}}%*
- Sharpe:           *{{printf "%.2f" .Sharpe}}*

** Trade Distribution
| Outcome | Count |
|---------+-------|
| Wins    | {{.Wins}} |
| Losses  | {{.Losses}} |
| Total   | {{.Trades}} |

{{- if .Notes }}
** Observations
{{- range .Notes }}
- {{.}}
{{- end }}
{{- end }}

{{- if .NextActions }}
** Notes / Next Actions
{{- range .NextActions }}
- [ ] {{.}}
{{- end }}
{{- end }}
`
