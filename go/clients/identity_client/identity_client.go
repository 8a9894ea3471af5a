package identity_client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/hordle/horde/go/clients"
	"github.com/hordle/horde/go/internal/models"
)

// IdentityClient resolves participant display metadata from the external
// identity service.
type IdentityClient struct {
	*clients.BaseClient
}

func NewIdentityClient(baseURL, token string) *IdentityClient {
	client := &IdentityClient{
		BaseClient: clients.NewBaseClient(baseURL),
	}

	client.SetHeader(JsonHeader, JsonContentType)
	if token != "" {
		client.SetHeader(AuthHeader, "Bearer "+token)
	}

	return client
}

type participantResponse struct {
	ID        string `json:"id"`
	Handle    string `json:"handle"`
	AvatarURL string `json:"avatar_url"`
}

// DisplayInfo fetches one participant's display metadata. Implements
// identity.Directory.
func (c *IdentityClient) DisplayInfo(ctx context.Context, participantID string) (models.DisplayInfo, error) {
	endpoint := fmt.Sprintf("%s/%s", participantsEndpoint, url.PathEscape(participantID))

	body, err := c.Get(ctx, endpoint)
	if err != nil {
		return models.DisplayInfo{}, fmt.Errorf("failed to fetch participant %s: %w", participantID, err)
	}

	var resp participantResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.DisplayInfo{}, fmt.Errorf("failed to unmarshal participant response: %w", err)
	}

	return models.DisplayInfo{Handle: resp.Handle, AvatarURL: resp.AvatarURL}, nil
}
