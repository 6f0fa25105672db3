package types

import "time"

// Transition is one executed ledger transition.
type Transition struct {
	ID     string    `yaml:"id" csv:"id"`
	Tick   int       `yaml:"tick" csv:"tick"`
	Time   time.Time `yaml:"time" csv:"time"`
	Side   Desire    `yaml:"side" csv:"side"`
	Price  float64   `yaml:"price" csv:"price"`
	Before Balance   `yaml:"before" csv:"-"`
	After  Balance   `yaml:"after" csv:"-"`
	// Fee is the commission paid, in USD.
	Fee float64 `yaml:"fee" csv:"fee"`
	// Forced marks the final liquidation, which bypasses the no-loss guard.
	Forced bool `yaml:"forced" csv:"forced"`
}
