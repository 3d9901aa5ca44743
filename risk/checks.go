package risk

import "fmt"

const (
	CodeNoShares         = "NO_SHARES"
	CodePositionTooLarge = "POSITION_TOO_LARGE"
	CodeTooManyPositions = "TOO_MANY_POSITIONS"
)

type Violation struct {
	Code string
	Msg  string
}

type Decision struct {
	Allowed    bool
	Violations []Violation

	PositionPct float64
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Reason joins the violation messages.
func (d Decision) Reason() string {
	s := ""
	for i, v := range d.Violations {
		if i > 0 {
			s += "; "
		}
		s += v.Msg
	}
	return s
}

func Evaluate(p Policy, intent TradeIntent, acct AccountSnapshot) Decision {
	d := Decision{Allowed: true}

	if intent.Shares <= 0 {
		d.add(CodeNoShares, "shares must be positive")
		return d
	}

	after := acct.PositionValue + float64(intent.Shares)*intent.Price
	if acct.NetWorth > 0 {
		d.PositionPct = after / acct.NetWorth
	}

	if p.MaxPositionPct > 0 && d.PositionPct > p.MaxPositionPct {
		d.add(CodePositionTooLarge,
			fmt.Sprintf("%s position %.2f%% exceeds max %.2f%%",
				intent.Ticker, 100*d.PositionPct, 100*p.MaxPositionPct))
	}

	if p.MaxOpenPositions > 0 && !acct.HoldsTicker && acct.OpenPositions >= p.MaxOpenPositions {
		d.add(CodeTooManyPositions,
			fmt.Sprintf("open positions %d >= max %d", acct.OpenPositions, p.MaxOpenPositions))
	}

	return d
}
