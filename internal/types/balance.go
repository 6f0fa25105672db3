package types

import "time"

// DefaultInitialUSD is the cash every run starts with unless configured otherwise.
const DefaultInitialUSD = 1000.0

// Balance is the account position of a run. After every committed transition
// exactly one of USD and BTC is zero.
type Balance struct {
	USD float64 `yaml:"usd" json:"usd" csv:"usd"`
	BTC float64 `yaml:"btc" json:"btc" csv:"btc"`
}

// NewInitialBalance returns an all-cash balance.
func NewInitialBalance(usd float64) Balance {
	return Balance{USD: usd, BTC: 0}
}

// IsHolding reports whether the account is fully in the asset.
func (b Balance) IsHolding() bool {
	return b.USD == 0 && b.BTC > 0
}

// MarkToMarket values the balance in USD at the given price.
func (b Balance) MarkToMarket(price float64) float64 {
	if b.USD > 0 {
		return b.USD
	}

	return b.BTC * price
}

// BalanceHistory is the append-only log of balance snapshots of one run,
// one entry per tick plus the initial balance.
type BalanceHistory struct {
	entries []Balance
}

// NewBalanceHistory creates a history starting with the initial balance.
func NewBalanceHistory(initial Balance) *BalanceHistory {
	return &BalanceHistory{entries: []Balance{initial}}
}

// Append records a snapshot.
func (h *BalanceHistory) Append(balance Balance) {
	h.entries = append(h.entries, balance)
}

// Len returns the number of snapshots.
func (h *BalanceHistory) Len() int {
	return len(h.entries)
}

// Last returns the latest snapshot.
func (h *BalanceHistory) Last() Balance {
	if len(h.entries) == 0 {
		return Balance{}
	}

	return h.entries[len(h.entries)-1]
}

// Entries returns a copy of all snapshots.
func (h *BalanceHistory) Entries() []Balance {
	out := make([]Balance, len(h.entries))
	copy(out, h.entries)

	return out
}

// LastCashUSD scans backwards for the most recent all-cash snapshot and
// returns its USD amount. ok is false when no snapshot holds cash.
func (h *BalanceHistory) LastCashUSD() (usd float64, ok bool) {
	for i := len(h.entries) - 1; i >= 0; i-- {
		if h.entries[i].USD > 0 {
			return h.entries[i].USD, true
		}
	}

	return 0, false
}

// OrderFrequency returns the share of distinct balances among all snapshots in percent.
func (h *BalanceHistory) OrderFrequency() float64 {
	if len(h.entries) == 0 {
		return 0
	}

	distinct := make(map[Balance]struct{}, len(h.entries))
	for _, entry := range h.entries {
		distinct[entry] = struct{}{}
	}

	return float64(len(distinct)) / float64(len(h.entries)) * 100
}

// BalanceRecord is the balance committed on one tick together with the price it
// was valued at.
type BalanceRecord struct {
	Tick  int       `yaml:"tick" csv:"tick"`
	Time  time.Time `yaml:"time" csv:"time"`
	Price float64   `yaml:"price" csv:"price"`
	USD   float64   `yaml:"usd" csv:"usd"`
	BTC   float64   `yaml:"btc" csv:"btc"`
	// ValueUSD is the balance marked to market at Price.
	ValueUSD float64 `yaml:"value_usd" csv:"value_usd"`
}

// NewBalanceRecord values balance at price.
func NewBalanceRecord(tick int, at time.Time, price float64, balance Balance) BalanceRecord {
	return BalanceRecord{
		Tick:     tick,
		Time:     at,
		Price:    price,
		USD:      balance.USD,
		BTC:      balance.BTC,
		ValueUSD: balance.MarkToMarket(price),
	}
}
