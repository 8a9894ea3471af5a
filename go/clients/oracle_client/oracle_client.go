package oracle_client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/hordle/horde/go/clients"
	"github.com/hordle/horde/go/internal/oracle"
)

// OracleClient talks to the external semantic-similarity service.
type OracleClient struct {
	*clients.BaseClient
}

func NewOracleClient(baseURL, apiKey string) *OracleClient {
	client := &OracleClient{
		BaseClient: clients.NewBaseClient(baseURL),
	}

	client.SetHeader(JsonHeader, JsonContentType)
	if apiKey != "" {
		client.SetHeader(APIKeyHeader, apiKey)
	}

	return client
}

type rankRequest struct {
	Word   string `json:"word"`
	Secret string `json:"secret"`
}

type rankResponse struct {
	Rank       int     `json:"rank"`
	Similarity float64 `json:"similarity"`
}

// Rank scores word against secret. Implements oracle.Oracle.
func (c *OracleClient) Rank(ctx context.Context, word, secret string) (oracle.Result, error) {
	payload, err := json.Marshal(rankRequest{Word: word, Secret: secret})
	if err != nil {
		return oracle.Result{}, fmt.Errorf("failed to marshal rank request: %w", err)
	}

	body, err := c.Post(ctx, rankEndpoint, bytes.NewReader(payload))
	if err != nil {
		return oracle.Result{}, fmt.Errorf("failed to rank word: %w", err)
	}

	var resp rankResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return oracle.Result{}, fmt.Errorf("failed to unmarshal rank response: %w", err)
	}

	return oracle.Result{Rank: resp.Rank, Similarity: resp.Similarity}, nil
}
