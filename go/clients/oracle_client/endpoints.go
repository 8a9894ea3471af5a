package oracle_client

const (
	// Paths
	rankEndpoint = "/rank"

	// Headers
	APIKeyHeader    = "X-API-Key"
	JsonHeader      = "accept"
	JsonContentType = "application/json"
)
