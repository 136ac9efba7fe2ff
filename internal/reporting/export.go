package reporting

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/smallbiznis/giftway/internal/reporting/domain"
)

// WriteDailyActivationsCSV streams the activation series as CSV.
func WriteDailyActivationsCSV(w io.Writer, resp domain.DailyActivationsResponse) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "count", "amount_cents", "commission_cents"}); err != nil {
		return err
	}
	for _, day := range resp.Days {
		record := []string{
			day.Date,
			strconv.FormatInt(day.Count, 10),
			strconv.FormatInt(day.AmountCents, 10),
			strconv.FormatInt(day.CommissionCents, 10),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTopStoresCSV streams the store leaderboard as CSV.
func WriteTopStoresCSV(w io.Writer, resp domain.TopStoresResponse) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"store_id", "store_code", "store_name", "activations", "amount_cents"}); err != nil {
		return err
	}
	for _, store := range resp.Stores {
		record := []string{
			store.StoreID,
			store.StoreCode,
			store.StoreName,
			strconv.FormatInt(store.Activations, 10),
			strconv.FormatInt(store.AmountCents, 10),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
