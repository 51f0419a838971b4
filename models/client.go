package models

// Client client model
type Client struct {
	ID           string   `json:"id"`
	Secret       string   `json:"secret"`
	RedirectURIs []string `json:"redirect_uris"`
}

// GetID client id
func (c *Client) GetID() string {
	return c.ID
}

// GetSecret client secret
func (c *Client) GetSecret() string {
	return c.Secret
}

// GetRedirectURIs the registered redirect URIs, in registration order
func (c *Client) GetRedirectURIs() []string {
	return c.RedirectURIs
}
