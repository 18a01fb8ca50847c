package engine

import "time"

// Status represents the engine's runtime status.
type Status struct {
	Venue         string    `json:"venue"`
	Quote         string    `json:"quote"`
	MaxFee        float64   `json:"max_fee"`
	BuyPercent    float64   `json:"buy_percent"`
	OpenPositions int       `json:"open_positions"`
	Assets        int       `json:"assets"`
	LastSync      time.Time `json:"last_sync"`
	ServerTime    time.Time `json:"server_time"`
}
