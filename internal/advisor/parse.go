package advisor

import (
	"math"
	"strconv"
	"strings"
	"time"

	"news-trader/internal/order"
)

// maxHoldHours is the longest hold a time.Duration can express.
const maxHoldHours = math.MaxInt64 / int64(time.Hour)

// ParseDirective reads a reply of the form "sell <asset>" or
// "buy <asset> <hours> ...". The literal asset "all" means every holding for
// a sell and defaultAsset for a buy.
func ParseDirective(text, defaultAsset string) (order.Directive, bool) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return order.Directive{}, false
	}
	direction := order.Direction(strings.ToLower(fields[0]))
	asset := normalizeAsset(fields[1])

	switch direction {
	case order.Sell:
		if len(fields) != 2 {
			return order.Directive{}, false
		}
		return order.Directive{Direction: order.Sell, Asset: asset}, true
	case order.Buy:
		if len(fields) < 3 || !isDigits(fields[2]) {
			return order.Directive{}, false
		}
		hours, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil || hours > maxHoldHours {
			return order.Directive{}, false
		}
		if asset == order.AllAssets {
			asset = defaultAsset
		}
		return order.Directive{Direction: order.Buy, Asset: asset, Duration: time.Duration(hours) * time.Hour}, true
	}
	return order.Directive{}, false
}

func normalizeAsset(s string) string {
	if strings.EqualFold(s, order.AllAssets) {
		return order.AllAssets
	}
	return strings.ToUpper(s)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
