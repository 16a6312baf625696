package position

import (
	"testing"

	"etf-arb-bot/internal/signal"
	"etf-arb-bot/internal/venue"
)

func TestOnFillMovesCashAndInventory(t *testing.T) {
	book := NewBook()
	book.OnFill("EPT", venue.SideBuy, 10, 100)
	book.OnFill("EPT", venue.SideSell, 4, 120)
	if got := book.Position("EPT"); got != 6 {
		t.Fatalf("position = %d, want 6", got)
	}
	if got := book.Cash(); got != -1000+480 {
		t.Fatalf("cash = %d, want %d", got, -1000+480)
	}
}

func TestOnSwapCreateAndRedeem(t *testing.T) {
	jak := signal.Composite{
		Symbol: "JAK",
		Basket: map[string]int64{"EPT": 2, "DLO": 5},
	}
	book := NewBook()
	book.OnSwap(jak, venue.SwapToComposite, 3)
	if got := book.Position("JAK"); got != 3 {
		t.Fatalf("JAK = %d, want 3", got)
	}
	if got := book.Position("EPT"); got != -6 {
		t.Fatalf("EPT = %d, want -6", got)
	}
	if got := book.Position("DLO"); got != -15 {
		t.Fatalf("DLO = %d, want -15", got)
	}
	book.OnSwap(jak, venue.SwapFromComposite, 3)
	for _, symbol := range []string{"JAK", "EPT", "DLO"} {
		if got := book.Position(symbol); got != 0 {
			t.Fatalf("%s = %d after round trip, want 0", symbol, got)
		}
	}
}

func TestMarkToMarketSkipsIlliquid(t *testing.T) {
	book := NewBook()
	book.OnFill("EPT", venue.SideBuy, 10, 100)
	book.OnFill("IGM", venue.SideBuy, 5, 200)
	mids := map[string]int64{"EPT": 110}
	got := book.MarkToMarket(func(symbol string) (int64, bool) {
		px, ok := mids[symbol]
		return px, ok
	})
	// cash -2000 from IGM and -1000 from EPT, EPT marked at 110, IGM
	// carried at zero.
	want := int64(-3000 + 10*110)
	if got != want {
		t.Fatalf("mark to market = %d, want %d", got, want)
	}
}

func TestSnapshotOmitsFlat(t *testing.T) {
	book := NewBook()
	book.OnFill("EPT", venue.SideBuy, 3, 100)
	book.OnFill("EPT", venue.SideSell, 3, 100)
	book.OnFill("DLO", venue.SideBuy, 1, 50)
	snap := book.Snapshot()
	if _, ok := snap["EPT"]; ok {
		t.Fatalf("flat symbol should be omitted, got %+v", snap)
	}
	if snap["DLO"] != 1 {
		t.Fatalf("DLO = %d, want 1", snap["DLO"])
	}
}
