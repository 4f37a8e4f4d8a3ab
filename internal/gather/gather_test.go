package gather

import (
	"math"
	"testing"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

func cryptoBar(day int, close, volume float64) marketdata.CryptoBar {
	return marketdata.CryptoBar{
		Timestamp: time.Date(2024, 1, day, 5, 0, 0, 0, time.UTC),
		Open:      close,
		High:      close,
		Low:       close,
		Close:     close,
		Volume:    volume,
	}
}

func TestToMarketPoints(t *testing.T) {
	bars := []marketdata.CryptoBar{
		cryptoBar(3, 110, 30),
		cryptoBar(1, 100, 10),
		cryptoBar(2, 105, 20),
	}

	points := toMarketPoints("BTC", bars)
	if len(points) != 3 {
		t.Fatalf("toMarketPoints returned %d points, want 3", len(points))
	}

	// Out-of-order input must come back sorted.
	for i := 1; i < len(points); i++ {
		if !points[i].Timestamp.After(points[i-1].Timestamp) {
			t.Fatalf("points not sorted: %v before %v", points[i].Timestamp, points[i-1].Timestamp)
		}
	}

	if points[0].Change24h != 0 {
		t.Errorf("first point Change24h = %v, want 0", points[0].Change24h)
	}
	if got, want := points[1].Change24h, 5.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("second point Change24h = %v, want %v", got, want)
	}
	if got, want := points[2].Change24h, (110.0-105.0)/105.0*100; math.Abs(got-want) > 1e-9 {
		t.Errorf("third point Change24h = %v, want %v", got, want)
	}

	if points[0].Symbol != "BTC" || points[0].Price != 100 || points[0].Volume != 10 {
		t.Errorf("first point = %+v, want BTC/100/10", points[0])
	}
}

func TestToMarketPointsEmpty(t *testing.T) {
	if got := toMarketPoints("BTC", nil); len(got) != 0 {
		t.Errorf("toMarketPoints(nil) = %v, want empty", got)
	}
}
