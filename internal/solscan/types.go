package solscan

import (
	"fmt"
	"strconv"
	"strings"
)

// Activity types returned by the Solscan transfer endpoint.
const (
	ActivitySPLTransfer     = "ACTIVITY_SPL_TRANSFER"
	ActivitySPLMint         = "ACTIVITY_SPL_MINT"
	ActivitySPLBurn         = "ACTIVITY_SPL_BURN"
	ActivityAddLiquidity    = "ACTIVITY_TOKEN_ADD_LIQ"
	ActivityRemoveLiquidity = "ACTIVITY_TOKEN_REMOVE_LIQ"
)

// Transfer flow direction relative to the queried pool account.
const (
	FlowIn  = "in"
	FlowOut = "out"
)

// RecordKind classifies a raw transfer record before normalization.
type RecordKind int

const (
	// KindUnknown covers shapes the parser does not recognize; they are
	// skipped, never a parse failure.
	KindUnknown RecordKind = iota
	// KindTransfer is an SPL transfer leg that may pair into a swap.
	KindTransfer
	// KindLiquidity is an add/remove liquidity event.
	KindLiquidity
)

// Amount carries the raw amount token from the provider JSON. Keeping it
// unparsed lets a malformed value surface per record during normalization
// instead of failing the whole page decode.
type Amount string

func (a *Amount) UnmarshalJSON(b []byte) error {
	*a = Amount(strings.Trim(string(b), `"`))
	return nil
}

// Float64 parses the raw amount token.
func (a Amount) Float64() (float64, error) {
	return strconv.ParseFloat(string(a), 64)
}

// Transfer is one raw record from /account/transfer.
type Transfer struct {
	TransID       string `json:"trans_id"`
	BlockID       int64  `json:"block_id"`
	BlockTime     int64  `json:"block_time"`
	Time          string `json:"time"`
	ActivityType  string `json:"activity_type"`
	FromAddress   string `json:"from_address"`
	ToAddress     string `json:"to_address"`
	TokenAddress  string `json:"token_address"`
	TokenDecimals int    `json:"token_decimals"`
	Amount        Amount `json:"amount"`
	Flow          string `json:"flow"`
}

// Kind classifies the record for the filtering stage.
func (t *Transfer) Kind() RecordKind {
	switch t.ActivityType {
	case ActivitySPLTransfer:
		if t.Flow == FlowIn || t.Flow == FlowOut {
			return KindTransfer
		}
		return KindUnknown
	case ActivityAddLiquidity, ActivityRemoveLiquidity:
		return KindLiquidity
	default:
		return KindUnknown
	}
}

// APIError is the error object Solscan embeds in a response envelope.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("solscan api error %d: %s", e.Code, e.Message)
}

// TransferPage is one page of the transfer endpoint response.
type TransferPage struct {
	Success bool       `json:"success"`
	Data    []Transfer `json:"data"`
	Errors  *APIError  `json:"errors,omitempty"`
}

// TransferRequest holds the parameters of one page request. FromTime and
// ToTime are unix seconds, inclusive. Pages are 1-based and served newest
// first (sort_by=block_time, sort_order=desc).
type TransferRequest struct {
	Address  string
	FromTime int64
	ToTime   int64
	Page     int
	PageSize int
}
