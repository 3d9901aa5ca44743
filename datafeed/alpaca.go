package datafeed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/rohitashwachaks/traderplusplus/market"
)

type barsGetter interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

// Alpaca fetches bars from the Alpaca market data API.
type Alpaca struct {
	client barsGetter
	feed   string
}

// NewAlpaca builds a provider. An empty dataURL uses the client default and
// an empty feed means "iex", which free accounts can read.
func NewAlpaca(apiKey, apiSecret, dataURL, feed string) (*Alpaca, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, errors.New("datafeed: alpaca api key and secret are required")
	}
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}
	if feed == "" {
		feed = "iex"
	}
	return &Alpaca{client: marketdata.NewClient(opts), feed: feed}, nil
}

func (p *Alpaca) Name() string { return "alpaca" }

func alpacaTimeFrame(interval string) (marketdata.TimeFrame, error) {
	iv, err := parseInterval(interval)
	if err != nil {
		return marketdata.TimeFrame{}, err
	}
	switch iv {
	case Hourly:
		return marketdata.OneHour, nil
	case Weekly:
		return marketdata.NewTimeFrame(1, marketdata.Week), nil
	}
	return marketdata.OneDay, nil
}

func (p *Alpaca) Fetch(ctx context.Context, ticker string, start, end time.Time, interval string) ([]market.Bar, error) {
	tf, err := alpacaTimeFrame(interval)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// End is inclusive here, exclusive for the API.
	ab, err := p.client.GetBars(ticker, marketdata.GetBarsRequest{
		TimeFrame:  tf,
		Start:      start,
		End:        end.AddDate(0, 0, 1),
		Adjustment: marketdata.All,
		Feed:       p.feed,
	})
	if err != nil {
		return nil, fmt.Errorf("datafeed: alpaca %s: %w", ticker, err)
	}

	bars := make([]market.Bar, 0, len(ab))
	for _, b := range ab {
		bars = append(bars, market.Bar{
			Date:   b.Timestamp,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: float64(b.Volume),
		})
	}
	iv, _ := parseInterval(interval)
	return clip(Normalize(bars, iv), start, end), nil
}
