package common

import (
	"fmt"
	"time"

	"github.com/trpleo/matching-engine/pkg/num"
)

// Trade accounts for the two orders that matched. The taker is the incoming
// order; the price is always the resting order's price.
type Trade struct {
	ID          string
	Instrument  string
	Price       num.Dec
	Quantity    num.Dec
	BuyOrderID  string
	SellOrderID string
	TakerSide   Side
	Timestamp   time.Time
	Sequence    uint64
}

func (t Trade) String() string {
	return fmt.Sprintf("trade %s %s %s@%s buy=%s sell=%s taker=%s seq=%d",
		t.ID,
		t.Instrument,
		t.Quantity,
		t.Price,
		t.BuyOrderID,
		t.SellOrderID,
		t.TakerSide,
		t.Sequence,
	)
}

// MakerOrderID returns the resting order's id.
func (t Trade) MakerOrderID() string {
	if t.TakerSide == Buy {
		return t.SellOrderID
	}
	return t.BuyOrderID
}

// TakerOrderID returns the incoming order's id.
func (t Trade) TakerOrderID() string {
	if t.TakerSide == Buy {
		return t.BuyOrderID
	}
	return t.SellOrderID
}
