package round_api_client

const (
	// API Endpoints
	RoundEndpoint        = "/rounds/%d"
	RoundCardsEndpoint   = "/rounds/%d/cards"
	RoomsEndpoint        = "/rooms"
	CurrentRoundEndpoint = "/rooms/%s/current-round"
	BalanceEndpoint      = "/players/%s/balance"

	// Headers
	PlayerHeader = "X-Player-Address"
)
