package strategies

// NoopStrategy never trades. It is the baseline for equity accounting.
type NoopStrategy struct{}

func (NoopStrategy) Name() string { return "noop" }

func (NoopStrategy) Lookback() int { return 0 }

func (NoopStrategy) GenerateSignals(Context) (Signals, error) { return nil, nil }
