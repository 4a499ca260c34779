package journal

import "time"

// Side 트레이드 방향
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Trade is one closed trade in the journal.
// ⭐ SSOT: 모든 금액은 정수 cents — 시뮬레이션 엔진과 동일한 표현
type Trade struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`

	Symbol   string  `json:"symbol"`
	Side     Side    `json:"side"`
	Quantity float64 `json:"quantity"`

	EntryPriceCents int64 `json:"entry_price_cents"`
	ExitPriceCents  int64 `json:"exit_price_cents"`
	PnLCents        int64 `json:"pnl_cents"` // 수수료 차감 후
	FeesCents       int64 `json:"fees_cents"`
	RiskCents       int64 `json:"risk_cents"` // 계획 리스크, 0 = 미기록

	OpenedAt time.Time `json:"opened_at"`
	ClosedAt time.Time `json:"closed_at"`

	Tags  []string `json:"tags,omitempty"`
	Notes string   `json:"notes,omitempty"`
}

// Outcome classifies the trade by realized PnL
func (t *Trade) Outcome() string {
	switch {
	case t.PnLCents > 0:
		return "win"
	case t.PnLCents < 0:
		return "loss"
	default:
		return "breakeven"
	}
}

// RMultiple PnL을 계획 리스크 단위로 환산 (리스크 미기록이면 0)
func (t *Trade) RMultiple() float64 {
	if t.RiskCents <= 0 {
		return 0
	}
	return float64(t.PnLCents) / float64(t.RiskCents)
}
