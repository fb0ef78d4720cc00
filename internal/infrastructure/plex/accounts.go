package plex

import (
	"context"
)

// ListAccounts returns the server's local accounts as id -> name.
func (c *Client) ListAccounts(ctx context.Context) (map[string]string, error) {
	body, err := c.get(ctx, accountsPath, nil, c.opts.Timeout)
	if err != nil {
		return nil, err
	}
	return ParseAccounts(body)
}
