package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Route asks a router instance which shard owns key, without performing
// the operation. Only meaningful when baseURL points at a router, not a
// shard.
func (c *Client) Route(ctx context.Context, key string) (shard string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/route?key=%s", c.baseURL, key), nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var result struct {
		Shard string `json:"shard"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Shard, nil
}
