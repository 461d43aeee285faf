package models

import (
	"fmt"
	"strings"
	"time"
)

// DatetimeLayout is the human-readable timestamp format used in the
// `datetime` column, always rendered in UTC.
const DatetimeLayout = "2006-01-02 15:04:05"

// SwapRecord is one normalized swap: a pair of transfers sharing a
// transaction id, one leg flowing into the pool and one flowing out.
type SwapRecord struct {
	TransID         string  `json:"trans_id"`
	Datetime        string  `json:"datetime"`
	Timestamp       int64   `json:"timestamp"`
	OwnerAddress    string  `json:"owner_address"`
	TokenInAddress  string  `json:"token_in_address"`
	TokenOutAddress string  `json:"token_out_address"`
	AmountIn        float64 `json:"amount_in"`
	AmountOut       float64 `json:"amount_out"`
}

// Time returns the record timestamp as a UTC time.
func (r *SwapRecord) Time() time.Time {
	return time.Unix(r.Timestamp, 0).UTC()
}

// SwapTable is the result of one fetch: swap rows in the order they were
// received from the source, plus the number of raw records that failed
// normalization and were skipped.
type SwapTable struct {
	Records []SwapRecord `json:"records"`
	Skipped int          `json:"skipped"`
}

// Len returns the number of swap rows.
func (t *SwapTable) Len() int {
	return len(t.Records)
}

// RenderCSV renders the table as CSV in the canonical column order.
func (t *SwapTable) RenderCSV() string {
	var sb strings.Builder

	sb.WriteString("trans_id,datetime,timestamp,owner_address,token_in_address,amount_in,token_out_address,amount_out\n")

	for _, r := range t.Records {
		sb.WriteString(fmt.Sprintf("%s,%s,%d,%s,%s,%.9f,%s,%.9f\n",
			r.TransID,
			r.Datetime,
			r.Timestamp,
			r.OwnerAddress,
			r.TokenInAddress,
			r.AmountIn,
			r.TokenOutAddress,
			r.AmountOut,
		))
	}

	return sb.String()
}
