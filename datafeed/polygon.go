package datafeed

import (
	"context"
	"errors"
	"fmt"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rohitashwachaks/traderplusplus/market"
)

// aggsFunc returns every aggregate matching params.
type aggsFunc func(ctx context.Context, params *models.ListAggsParams) ([]models.Agg, error)

// Polygon fetches adjusted aggregate bars from polygon.io.
type Polygon struct {
	list aggsFunc
}

func NewPolygon(apiKey string) (*Polygon, error) {
	if apiKey == "" {
		return nil, errors.New("datafeed: polygon api key is required")
	}
	client := polygon.New(apiKey)
	return &Polygon{list: func(ctx context.Context, params *models.ListAggsParams) ([]models.Agg, error) {
		iter := client.ListAggs(ctx, params)
		var out []models.Agg
		for iter.Next() {
			out = append(out, iter.Item())
		}
		return out, iter.Err()
	}}, nil
}

func (p *Polygon) Name() string { return "polygon" }

func polygonTimespan(interval string) (models.Timespan, error) {
	iv, err := parseInterval(interval)
	if err != nil {
		return "", err
	}
	switch iv {
	case Hourly:
		return models.Hour, nil
	case Weekly:
		return models.Week, nil
	}
	return models.Day, nil
}

func (p *Polygon) Fetch(ctx context.Context, ticker string, start, end time.Time, interval string) ([]market.Bar, error) {
	span, err := polygonTimespan(interval)
	if err != nil {
		return nil, err
	}

	params := models.ListAggsParams{
		Ticker:     ticker,
		Multiplier: 1,
		Timespan:   span,
		From:       models.Millis(start),
		To:         models.Millis(end),
	}.WithOrder(models.Asc).WithAdjusted(true)

	aggs, err := p.list(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("datafeed: polygon %s: %w", ticker, err)
	}

	bars := make([]market.Bar, 0, len(aggs))
	for _, a := range aggs {
		bars = append(bars, market.Bar{
			Date:   time.Time(a.Timestamp),
			Open:   a.Open,
			High:   a.High,
			Low:    a.Low,
			Close:  a.Close,
			Volume: a.Volume,
		})
	}
	iv, _ := parseInterval(interval)
	return Normalize(bars, iv), nil
}
