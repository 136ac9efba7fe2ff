package domain

import "time"

// DailyActivation is one day's activation volume and value.
type DailyActivation struct {
	Date            string `json:"date"`
	Count           int64  `json:"count"`
	AmountCents     int64  `json:"amount_cents"`
	CommissionCents int64  `json:"commission_cents"`
}

// DailyActivationsResponse is the API response for the activations series.
type DailyActivationsResponse struct {
	Days []DailyActivation `json:"days"`
}

// StoreTotals captures one store's activation performance in a period.
type StoreTotals struct {
	StoreID     string `json:"store_id"`
	StoreCode   string `json:"store_code"`
	StoreName   string `json:"store_name"`
	Activations int64  `json:"activations"`
	AmountCents int64  `json:"amount_cents"`
}

// TopStoresResponse is the API response for the store leaderboard.
type TopStoresResponse struct {
	Stores []StoreTotals `json:"stores"`
}

// IssuanceSummary compares the card funnel: issued, activated, redeemed.
type IssuanceSummary struct {
	Issued    int64 `json:"issued"`
	Activated int64 `json:"activated"`
	Redeemed  int64 `json:"redeemed"`
	Exhausted int64 `json:"exhausted"`
}

// Query narrows reporting reads to a company and period.
type Query struct {
	CompanyID string
	From      time.Time
	To        time.Time
	Limit     int
}
