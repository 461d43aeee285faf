package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwapRecord_Time(t *testing.T) {
	r := SwapRecord{Timestamp: 1704070800}
	assert.Equal(t, time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC), r.Time())
}

func TestSwapTable_RenderCSV(t *testing.T) {
	table := &SwapTable{
		Records: []SwapRecord{
			{
				TransID:         "A2sBk6gVfZx4YwUm8hR3dKf7gE5sQ9uE1oT6iCtGxWqHt",
				Datetime:        "2024-01-01 01:00:00",
				Timestamp:       1704070800,
				OwnerAddress:    "G4f8mPxW9Lr3cVt6hB5dKn2gA8sZ7uE2oJ4iRfGxTqHs",
				TokenInAddress:  "So11111111111111111111111111111111111111112",
				TokenOutAddress: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
				AmountIn:        3,
				AmountOut:       305.22,
			},
		},
	}

	out := table.RenderCSV()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)

	assert.Equal(t, "trans_id,datetime,timestamp,owner_address,token_in_address,amount_in,token_out_address,amount_out", lines[0])
	assert.Equal(t, "A2sBk6gVfZx4YwUm8hR3dKf7gE5sQ9uE1oT6iCtGxWqHt,2024-01-01 01:00:00,1704070800,"+
		"G4f8mPxW9Lr3cVt6hB5dKn2gA8sZ7uE2oJ4iRfGxTqHs,So11111111111111111111111111111111111111112,3.000000000,"+
		"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v,305.220000000", lines[1])
}

func TestSwapTable_RenderCSV_Empty(t *testing.T) {
	table := &SwapTable{}
	out := table.RenderCSV()

	// Header only, even with zero rows.
	assert.Equal(t, "trans_id,datetime,timestamp,owner_address,token_in_address,amount_in,token_out_address,amount_out\n", out)
	assert.Equal(t, 0, table.Len())
}
