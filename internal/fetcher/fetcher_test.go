package fetcher

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/solscan-pool-indexer/internal/solscan"
)

const testPool = "8phK65jxmTPEN158xLgSr4oZvssw9SyTErpNZj3g7px4"

// stubSource serves canned pages and records how it was called.
type stubSource struct {
	calls     []solscan.TransferRequest
	pages     map[int]*solscan.TransferPage
	errOnPage int
	err       error
}

func (s *stubSource) Transfers(_ context.Context, req solscan.TransferRequest) (*solscan.TransferPage, error) {
	s.calls = append(s.calls, req)
	if s.errOnPage != 0 && req.Page == s.errOnPage {
		return nil, s.err
	}
	if p, ok := s.pages[req.Page]; ok {
		return p, nil
	}
	return &solscan.TransferPage{Success: true, Data: []solscan.Transfer{}}, nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newMockFetcher(t *testing.T) *PoolSwapFetcher {
	t.Helper()

	mock, err := solscan.NewMockSource("testdata/mock_data.json")
	require.NoError(t, err)

	f, err := New(Config{
		PoolAddress: testPool,
		Mock:        mock,
		Logger:      quietLogger(),
	})
	require.NoError(t, err)
	return f
}

func swapLegs(id string, ts int64, inToken string, inDecimals int, inAmount string, outToken string, outDecimals int, outAmount string) []solscan.Transfer {
	return []solscan.Transfer{
		{
			TransID:       id,
			BlockTime:     ts,
			ActivityType:  solscan.ActivitySPLTransfer,
			FromAddress:   "G4f8mPxW9Lr3cVt6hB5dKn2gA8sZ7uE2oJ4iRfGxTqHs",
			ToAddress:     testPool,
			TokenAddress:  inToken,
			TokenDecimals: inDecimals,
			Amount:        solscan.Amount(inAmount),
			Flow:          solscan.FlowIn,
		},
		{
			TransID:       id,
			BlockTime:     ts,
			ActivityType:  solscan.ActivitySPLTransfer,
			FromAddress:   testPool,
			ToAddress:     "G4f8mPxW9Lr3cVt6hB5dKn2gA8sZ7uE2oJ4iRfGxTqHs",
			TokenAddress:  outToken,
			TokenDecimals: outDecimals,
			Amount:        solscan.Amount(outAmount),
			Flow:          solscan.FlowOut,
		},
	}
}

func TestNew_PoolAddressValidation(t *testing.T) {
	mock := solscan.NewMockSourceFromTransfers(nil)

	tests := []struct {
		name    string
		address string
		wantErr bool
	}{
		{"valid address", testPool, false},
		{"empty address", "", true},
		{"whitespace address", "   ", true},
		{"not base58", "l0IO-not-base58", true},
		{"too short", "abc", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(Config{PoolAddress: tt.address, Mock: mock, Logger: quietLogger()})
			if tt.wantErr {
				require.Error(t, err)
				var cfgErr *ConfigError
				assert.ErrorAs(t, err, &cfgErr)
				assert.Nil(t, f)
			} else {
				require.NoError(t, err)
				assert.Equal(t, testPool, f.Pool())
			}
		})
	}
}

func TestNew_RequiresSource(t *testing.T) {
	_, err := New(Config{PoolAddress: testPool, Logger: quietLogger()})
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestGetSwaps_InvalidRange(t *testing.T) {
	src := &stubSource{}
	f, err := New(Config{PoolAddress: testPool, Live: src, Mock: src, Logger: quietLogger()})
	require.NoError(t, err)

	table, err := f.GetSwaps(context.Background(), "2024-01-03", "2024-01-02", true)
	assert.ErrorIs(t, err, ErrInvalidRange)
	assert.Nil(t, table)

	// Fails fast: no source access at all.
	assert.Empty(t, src.calls)
}

func TestGetSwaps_BadDateStrings(t *testing.T) {
	src := &stubSource{}
	f, err := New(Config{PoolAddress: testPool, Live: src, Logger: quietLogger()})
	require.NoError(t, err)

	for _, dates := range [][2]string{
		{"01/02/2024", "2024-01-03"},
		{"2024-01-02", "yesterday"},
		{"", "2024-01-03"},
	} {
		_, err := f.GetSwaps(context.Background(), dates[0], dates[1], false)
		var cfgErr *ConfigError
		assert.ErrorAs(t, err, &cfgErr, "dates %v", dates)
	}
	assert.Empty(t, src.calls)
}

func TestGetSwaps_TypeFiltering(t *testing.T) {
	// The fixture holds 3 complete swaps on Jan 1-2 plus a liquidity add
	// and an unpaired transfer in the same window.
	f := newMockFetcher(t)

	table, err := f.GetSwaps(context.Background(), "2024-01-01", "2024-01-02", true)
	require.NoError(t, err)

	assert.Equal(t, 3, table.Len())
	assert.Equal(t, 0, table.Skipped)
	for _, rec := range table.Records {
		assert.NotEqual(t, rec.TokenInAddress, rec.TokenOutAddress)
	}
}

func TestGetSwaps_DayFiltering(t *testing.T) {
	f := newMockFetcher(t)

	table, err := f.GetSwaps(context.Background(), "2024-01-02", "2024-01-03", true)
	require.NoError(t, err)

	require.Equal(t, 3, table.Len())
	for _, rec := range table.Records {
		day := strings.SplitN(rec.Datetime, " ", 2)[0]
		assert.Contains(t, []string{"2024-01-02", "2024-01-03"}, day)
	}
}

func TestGetSwaps_WindowInclusion(t *testing.T) {
	f := newMockFetcher(t)

	table, err := f.GetSwaps(context.Background(), "2024-01-01", "2024-01-05", true)
	require.NoError(t, err)

	from := int64(1704067200) // 2024-01-01 00:00:00 UTC
	to := int64(1704499199)   // 2024-01-05 23:59:59 UTC
	require.Equal(t, 6, table.Len())
	for _, rec := range table.Records {
		assert.GreaterOrEqual(t, rec.Timestamp, from)
		assert.LessOrEqual(t, rec.Timestamp, to)
	}
}

func TestGetSwaps_UniqueTransIDs(t *testing.T) {
	f := newMockFetcher(t)

	table, err := f.GetSwaps(context.Background(), "2024-01-01", "2024-01-05", true)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, rec := range table.Records {
		assert.False(t, seen[rec.TransID], "duplicate trans_id %s", rec.TransID)
		seen[rec.TransID] = true
	}
}

func TestGetSwaps_Idempotent(t *testing.T) {
	f := newMockFetcher(t)

	first, err := f.GetSwaps(context.Background(), "2024-01-01", "2024-01-05", true)
	require.NoError(t, err)
	second, err := f.GetSwaps(context.Background(), "2024-01-01", "2024-01-05", true)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGetSwaps_SingleDayWindow(t *testing.T) {
	f := newMockFetcher(t)

	table, err := f.GetSwaps(context.Background(), "2024-01-04", "2024-01-04", true)
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, "2024-01-04 01:00:00", table.Records[0].Datetime)

	// A day with no activity is an empty table, not an error.
	empty, err := f.GetSwaps(context.Background(), "2023-12-31", "2023-12-31", true)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
}

func TestGetSwaps_MalformedAmountSkipped(t *testing.T) {
	// Jan 5 holds one well-formed swap and one pair whose inbound amount
	// is not numeric.
	f := newMockFetcher(t)

	table, err := f.GetSwaps(context.Background(), "2024-01-05", "2024-01-05", true)
	require.NoError(t, err)

	assert.Equal(t, 1, table.Len())
	assert.Equal(t, 1, table.Skipped)
	assert.Equal(t, "2mKc9dPqLx5WvYtB7hR4cJg8aZ6sN3uD1oE5wQrXzFpT", table.Records[0].TransID)
}

func TestGetSwaps_Normalization(t *testing.T) {
	f := newMockFetcher(t)

	table, err := f.GetSwaps(context.Background(), "2024-01-01", "2024-01-01", true)
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())

	rec := table.Records[0]
	assert.Equal(t, "A2sBk6gVfZx4YwUm8hR3dKf7gE5sQ9uE1oT6iCtGxWqHt", rec.TransID)
	assert.Equal(t, int64(1704070800), rec.Timestamp)
	assert.Equal(t, "2024-01-01 01:00:00", rec.Datetime)
	assert.Equal(t, "G4f8mPxW9Lr3cVt6hB5dKn2gA8sZ7uE2oJ4iRfGxTqHs", rec.OwnerAddress)
	assert.Equal(t, "So11111111111111111111111111111111111111112", rec.TokenInAddress)
	assert.Equal(t, "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", rec.TokenOutAddress)
	assert.InDelta(t, 3.0, rec.AmountIn, 1e-9)
	assert.InDelta(t, 305.22, rec.AmountOut, 1e-9)
}

func TestGetSwaps_SameTokenPairSkipped(t *testing.T) {
	legs := swapLegs("wrapUnwrap11111111111111111111111111111111111", 1704070800,
		"So11111111111111111111111111111111111111112", 9, "1000000000",
		"So11111111111111111111111111111111111111112", 9, "1000000000")
	mock := solscan.NewMockSourceFromTransfers(legs)

	f, err := New(Config{PoolAddress: testPool, Mock: mock, Logger: quietLogger()})
	require.NoError(t, err)

	table, err := f.GetSwaps(context.Background(), "2024-01-01", "2024-01-01", true)
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
	assert.Equal(t, 1, table.Skipped)
}

func TestGetSwaps_Pagination(t *testing.T) {
	page1 := swapLegs("5tRw8bNcVy2XzQm4hK7dJf9gA6sL3uE1oP5iYrGxWqHn", 1704330000,
		"So11111111111111111111111111111111111111112", 9, "5000000000",
		"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", 6, "512030000")
	page2 := swapLegs("A2sBk6gVfZx4YwUm8hR3dKf7gE5sQ9uE1oT6iCtGxWqHt", 1704070800,
		"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", 6, "305220000",
		"So11111111111111111111111111111111111111112", 9, "3000000000")

	src := &stubSource{pages: map[int]*solscan.TransferPage{
		1: {Success: true, Data: page1},
		2: {Success: true, Data: page2[:1]}, // short page ends the loop
	}}

	f, err := New(Config{PoolAddress: testPool, Live: src, PageSize: 2, Logger: quietLogger()})
	require.NoError(t, err)

	_, err = f.GetSwaps(context.Background(), "2024-01-01", "2024-01-05", false)
	require.NoError(t, err)

	require.Len(t, src.calls, 2)
	assert.Equal(t, 1, src.calls[0].Page)
	assert.Equal(t, 2, src.calls[1].Page)
	assert.Equal(t, testPool, src.calls[0].Address)
	assert.Equal(t, 2, src.calls[0].PageSize)
	assert.Equal(t, int64(1704067200), src.calls[0].FromTime)
	assert.Equal(t, int64(1704499199), src.calls[0].ToTime)
}

func TestGetSwaps_StopsWhenPagePredatesWindow(t *testing.T) {
	// A full page whose oldest record falls before the window means every
	// further page is out of range.
	page1 := swapLegs("5tRw8bNcVy2XzQm4hK7dJf9gA6sL3uE1oP5iYrGxWqHn", 1703980800,
		"So11111111111111111111111111111111111111112", 9, "5000000000",
		"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", 6, "512030000")

	src := &stubSource{pages: map[int]*solscan.TransferPage{
		1: {Success: true, Data: page1},
	}}

	f, err := New(Config{PoolAddress: testPool, Live: src, PageSize: 2, Logger: quietLogger()})
	require.NoError(t, err)

	table, err := f.GetSwaps(context.Background(), "2024-01-01", "2024-01-05", false)
	require.NoError(t, err)

	assert.Len(t, src.calls, 1)
	// The out-of-window records themselves are filtered.
	assert.Equal(t, 0, table.Len())
}

func TestGetSwaps_AllOrNothingOnSourceFailure(t *testing.T) {
	page1 := swapLegs("5tRw8bNcVy2XzQm4hK7dJf9gA6sL3uE1oP5iYrGxWqHn", 1704330000,
		"So11111111111111111111111111111111111111112", 9, "5000000000",
		"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", 6, "512030000")

	wantErr := &solscan.FetchError{Page: 2, Err: fmt.Errorf("rate limited (429)")}
	src := &stubSource{
		pages:     map[int]*solscan.TransferPage{1: {Success: true, Data: page1}},
		errOnPage: 2,
		err:       wantErr,
	}

	f, err := New(Config{PoolAddress: testPool, Live: src, PageSize: 2, Logger: quietLogger()})
	require.NoError(t, err)

	table, err := f.GetSwaps(context.Background(), "2024-01-01", "2024-01-05", false)
	require.Error(t, err)
	assert.Nil(t, table)

	var fetchErr *solscan.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, 2, fetchErr.Page)
}

func TestGetSwaps_MockSourceNotConfigured(t *testing.T) {
	src := &stubSource{}
	f, err := New(Config{PoolAddress: testPool, Live: src, Logger: quietLogger()})
	require.NoError(t, err)

	_, err = f.GetSwaps(context.Background(), "2024-01-01", "2024-01-02", true)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Empty(t, src.calls)
}

func TestGetSwaps_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := newMockFetcher(t)
	_, err := f.GetSwaps(ctx, "2024-01-01", "2024-01-05", true)
	assert.ErrorIs(t, err, context.Canceled)
}
