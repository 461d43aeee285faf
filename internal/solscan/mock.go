package solscan

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// MockSource serves transfer pages from a local fixture instead of the
// live API. It applies the same window filter, descending sort, and page
// slicing the provider does, so callers cannot tell the two apart.
type MockSource struct {
	transfers []Transfer
}

// NewMockSource loads a fixture file holding a transfer page envelope
// (the exact shape the live endpoint returns).
func NewMockSource(path string) (*MockSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mock data: %w", err)
	}

	var page TransferPage
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("decode mock data: %w", err)
	}

	return NewMockSourceFromTransfers(page.Data), nil
}

// NewMockSourceFromTransfers builds a mock source from in-memory records.
func NewMockSourceFromTransfers(transfers []Transfer) *MockSource {
	sorted := make([]Transfer, len(transfers))
	copy(sorted, transfers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].BlockTime > sorted[j].BlockTime
	})
	return &MockSource{transfers: sorted}
}

// Transfers returns one page of fixture records, newest first.
func (m *MockSource) Transfers(_ context.Context, req TransferRequest) (*TransferPage, error) {
	if req.Page < 1 {
		return nil, fmt.Errorf("page must be >= 1, got %d", req.Page)
	}
	if req.PageSize < 1 {
		return nil, fmt.Errorf("page size must be >= 1, got %d", req.PageSize)
	}

	matched := make([]Transfer, 0, len(m.transfers))
	for _, t := range m.transfers {
		if t.BlockTime < req.FromTime || t.BlockTime > req.ToTime {
			continue
		}
		matched = append(matched, t)
	}

	start := (req.Page - 1) * req.PageSize
	if start >= len(matched) {
		return &TransferPage{Success: true, Data: []Transfer{}}, nil
	}
	end := start + req.PageSize
	if end > len(matched) {
		end = len(matched)
	}

	return &TransferPage{Success: true, Data: matched[start:end]}, nil
}
