package broker

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Broker is the order-management contract shared by the backtest executor
// and live adapters.
type Broker interface {
	Name() string
	SubmitOrder(ctx context.Context, o Order) (string, error)
	CancelOrder(ctx context.Context, orderID string) error
	GetOrderStatus(ctx context.Context, orderID string) (Status, error)
	GetPositions(ctx context.Context) (map[string]int64, error)
	GetFillInfo(ctx context.Context, orderID string) (OrderResult, error)
}

// Settings carries connection details for remote brokers.
type Settings struct {
	APIKey    string
	APISecret string
	BaseURL   string
}

type Factory func(Settings) (Broker, error)

// Registry selects a broker implementation by name.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

func (r *Registry) Register(name string, f Factory) {
	r.factories[strings.ToLower(strings.TrimSpace(name))] = f
}

func (r *Registry) New(name string, s Settings) (Broker, error) {
	f, ok := r.factories[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedBroker, name, strings.Join(r.Names(), ", "))
	}
	return f(s)
}

func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.factories))
	for n := range r.factories {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
