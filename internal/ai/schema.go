package ai

// poolSwapsSchemaDescription describes the ClickHouse schema used for
// NL→SQL prompting. Keep it in sync with storage.EnsureSchema.
const poolSwapsSchemaDescription = `
Database: solana
Table: pool_swaps

Columns:
  - trans_id          String   -- Solana transaction id (unique per swap)
  - timestamp         DateTime -- Block time of the swap (UTC)
  - pool              String   -- Liquidity pool account address (base58)
  - owner_address     String   -- Account that initiated the swap
  - token_in_address  String   -- Mint address of the token sent into the pool
  - token_out_address String   -- Mint address of the token received from the pool
  - amount_in         Float64  -- Decimal-adjusted amount of token_in
  - amount_out        Float64  -- Decimal-adjusted amount of token_out

Notes:
  - One row is one swap against one pool.
  - For volume use SUM(amount_in) or SUM(amount_out) depending on the unit.
  - Filter by pool to restrict to a single liquidity pool.
  - Time filters should use timestamp, e.g. timestamp >= now() - INTERVAL 24 HOUR.
`
