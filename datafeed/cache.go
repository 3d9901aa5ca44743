package datafeed

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/rohitashwachaks/traderplusplus/market"
	log "github.com/sirupsen/logrus"
)

// barRecord is the on-disk parquet row.
type barRecord struct {
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    float64 `parquet:"volume"`
}

// CacheKey addresses one fetch request.
func CacheKey(ticker string, start, end time.Time, interval, source string) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s|%s|%s|%s|%s",
		ticker, start.Format("2006-01-02"), end.Format("2006-01-02"), interval, source)))
	return hex.EncodeToString(sum[:])
}

// ParquetCache stores one parquet file per request key under Dir.
type ParquetCache struct {
	Dir string
}

func NewParquetCache(dir string) (*ParquetCache, error) {
	if dir == "" {
		return nil, errors.New("datafeed: cache dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &ParquetCache{Dir: dir}, nil
}

func (c *ParquetCache) path(key string) string {
	return filepath.Join(c.Dir, key+".parquet")
}

// Get returns the cached bars for key. ok is false on a miss; err is set
// when a file exists but cannot be read.
func (c *ParquetCache) Get(key string) (bars []market.Bar, ok bool, err error) {
	p := c.path(key)
	if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	rows, err := parquet.ReadFile[barRecord](p)
	if err != nil {
		return nil, false, err
	}
	bars = make([]market.Bar, len(rows))
	for i, r := range rows {
		bars[i] = market.Bar{
			Date:   time.UnixMilli(r.Timestamp).UTC(),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		}
	}
	return bars, true, nil
}

func (c *ParquetCache) Put(key string, bars []market.Bar) error {
	rows := make([]barRecord, len(bars))
	for i, b := range bars {
		rows[i] = barRecord{
			Timestamp: b.Date.UnixMilli(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		}
	}
	return parquet.WriteFile(c.path(key), rows)
}

// Cached puts a ParquetCache in front of a Provider.
type Cached struct {
	Provider Provider
	Cache    *ParquetCache

	// ForceRefresh skips reads but still writes.
	ForceRefresh bool

	Log *log.Entry
}

func (c *Cached) Name() string { return c.Provider.Name() }

func (c *Cached) logger() *log.Entry {
	if c.Log != nil {
		return c.Log
	}
	return log.WithField("component", "datafeed")
}

func (c *Cached) Fetch(ctx context.Context, ticker string, start, end time.Time, interval string) ([]market.Bar, error) {
	key := CacheKey(ticker, start, end, interval, c.Provider.Name())
	l := c.logger().WithFields(log.Fields{"ticker": ticker, "key": key})

	if !c.ForceRefresh {
		bars, ok, err := c.Cache.Get(key)
		switch {
		case err != nil:
			l.WithError(err).Warn("cache file unreadable, refetching")
		case ok:
			l.Debug("cache hit")
			return bars, nil
		}
	}

	bars, err := c.Provider.Fetch(ctx, ticker, start, end, interval)
	if err != nil {
		return nil, err
	}
	if len(bars) > 0 {
		if err := c.Cache.Put(key, bars); err != nil {
			l.WithError(err).Warn("cache write failed")
		}
	}
	return bars, nil
}
