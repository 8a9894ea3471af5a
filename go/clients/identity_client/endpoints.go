package identity_client

const (
	// Paths
	participantsEndpoint = "/participants"

	// Headers
	AuthHeader      = "Authorization"
	JsonHeader      = "accept"
	JsonContentType = "application/json"
)
