package indicators

import (
	"fmt"
	"math"
)

// ADX is Wilder's Average Directional Index over daily high/low/close.
// It needs one bar to anchor, N periods to seed the smoothed ranges, then N
// DX values before the first ADX, so Warmup reports 2N.
type ADX struct {
	n int

	prevH, prevL, prevC float64
	hasPrev             bool
	periods             int

	sumTR, sumPlusDM, sumMinusDM float64
	smTR, smPlusDM, smMinusDM    float64

	plusDI, minusDI float64
	lastDX          float64
	dxSum           float64
	dxCount         int

	adx   float64
	ready bool
}

func NewADX(period int) (*ADX, error) {
	if period <= 0 {
		return nil, fmt.Errorf("adx: period must be > 0, got %d", period)
	}
	return &ADX{n: period}, nil
}

func (a *ADX) Name() string { return fmt.Sprintf("ADX(%d)", a.n) }

func (a *ADX) Warmup() int { return 2 * a.n }

func (a *ADX) Ready() bool { return a.ready }

// Value is 0 until Ready.
func (a *ADX) Value() float64 { return a.adx }

func (a *ADX) PlusDI() float64 { return a.plusDI }

func (a *ADX) MinusDI() float64 { return a.minusDI }

func (a *ADX) DX() float64 { return a.lastDX }

func (a *ADX) Reset() { *a = ADX{n: a.n} }

// Update consumes the next completed bar.
func (a *ADX) Update(high, low, close float64) {
	if !a.hasPrev {
		a.prevH, a.prevL, a.prevC = high, low, close
		a.hasPrev = true
		return
	}

	tr := max(high-low, math.Abs(high-a.prevC), math.Abs(low-a.prevC))
	up := high - a.prevH
	down := a.prevL - low

	var plusDM, minusDM float64
	if up > down && up > 0 {
		plusDM = up
	}
	if down > up && down > 0 {
		minusDM = down
	}
	a.prevH, a.prevL, a.prevC = high, low, close
	a.periods++

	if a.periods <= a.n {
		a.sumTR += tr
		a.sumPlusDM += plusDM
		a.sumMinusDM += minusDM
		if a.periods == a.n {
			a.smTR, a.smPlusDM, a.smMinusDM = a.sumTR, a.sumPlusDM, a.sumMinusDM
			a.plusDI, a.minusDI = di(a.smPlusDM, a.smMinusDM, a.smTR)
			a.lastDX = dx(a.plusDI, a.minusDI)
			a.dxSum = a.lastDX
			a.dxCount = 1
		}
		return
	}

	// Wilder smoothing: prior - prior/N + current
	nf := float64(a.n)
	a.smTR = a.smTR - a.smTR/nf + tr
	a.smPlusDM = a.smPlusDM - a.smPlusDM/nf + plusDM
	a.smMinusDM = a.smMinusDM - a.smMinusDM/nf + minusDM

	a.plusDI, a.minusDI = di(a.smPlusDM, a.smMinusDM, a.smTR)
	a.lastDX = dx(a.plusDI, a.minusDI)

	if !a.ready {
		a.dxSum += a.lastDX
		a.dxCount++
		if a.dxCount >= a.n {
			a.adx = a.dxSum / nf
			a.ready = true
		}
		return
	}
	a.adx = (a.adx*(nf-1) + a.lastDX) / nf
}

func di(smPlusDM, smMinusDM, smTR float64) (float64, float64) {
	if smTR <= 0 {
		return 0, 0
	}
	return 100 * smPlusDM / smTR, 100 * smMinusDM / smTR
}

func dx(plusDI, minusDI float64) float64 {
	den := plusDI + minusDI
	if den <= 0 {
		return 0
	}
	return 100 * math.Abs(plusDI-minusDI) / den
}
