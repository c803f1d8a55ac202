package funding_client

const (
	// API Endpoints
	PriceEndpoint     = "/rounds/%d/price"
	BalanceEndpoint   = "/balance"
	AllowanceEndpoint = "/allowance"
	ApproveEndpoint   = "/approve"
	PurchaseEndpoint  = "/rounds/%d/purchase"

	// Error codes returned by the wallet bridge
	CodeUserRejected       = "user_rejected"
	CodeRoundNotFound      = "round_not_found"
	CodePendingTransaction = "pending_transaction"
	CodeInsufficientFunds  = "insufficient_funds"

	PlayerHeader = "X-Player-Address"
)
