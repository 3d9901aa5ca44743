package datafeed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rohitashwachaks/traderplusplus/market"
)

// csvBar is one row of a <TICKER>.csv price file.
type csvBar struct {
	Date   string  `csv:"Date"`
	Open   float64 `csv:"Open"`
	High   float64 `csv:"High"`
	Low    float64 `csv:"Low"`
	Close  float64 `csv:"Close"`
	Volume float64 `csv:"Volume"`
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// CSV reads <Dir>/<TICKER>.csv files with a Date column followed by the
// market.RequiredColumns.
type CSV struct {
	Dir string
}

func NewCSV(dir string) (*CSV, error) {
	if dir == "" {
		return nil, errors.New("datafeed: csv provider needs a data dir")
	}
	return &CSV{Dir: dir}, nil
}

func (p *CSV) Name() string { return "csv" }

func (p *CSV) Path(ticker string) string {
	return filepath.Join(p.Dir, strings.ToUpper(ticker)+".csv")
}

func (p *CSV) Fetch(ctx context.Context, ticker string, start, end time.Time, interval string) ([]market.Bar, error) {
	iv, err := parseInterval(interval)
	if err != nil {
		return nil, err
	}
	bars, err := ReadCSV(p.Path(ticker))
	if err != nil {
		return nil, fmt.Errorf("datafeed: csv %s: %w", ticker, err)
	}
	return clip(Normalize(bars, iv), start, end), nil
}

// ReadCSV parses a price file after checking its header carries every
// required column.
func ReadCSV(path string) ([]market.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header, err := csv.NewReader(f).Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	var rows []*csvBar
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, err
	}

	out := make([]market.Bar, 0, len(rows))
	for _, r := range rows {
		d, err := parseDate(r.Date)
		if err != nil {
			return nil, err
		}
		out = append(out, market.Bar{
			Date:   d,
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		})
	}
	return out, nil
}

// WriteCSV stores bars in the layout ReadCSV expects.
func WriteCSV(path string, bars []market.Bar) error {
	rows := make([]*csvBar, len(bars))
	for i, b := range bars {
		rows[i] = &csvBar{
			Date:   b.Date.Format("2006-01-02"),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func checkHeader(header []string) error {
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[strings.TrimSpace(h)] = true
	}
	var missing []string
	for _, col := range append([]string{"Date"}, market.RequiredColumns...) {
		if !have[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &market.ValidationError{Reason: "csv missing columns " + strings.Join(missing, ",")}
	}
	return nil
}
