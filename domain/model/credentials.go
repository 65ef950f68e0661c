package model

import "sync"

// Credentials holds the Strava OAuth client and the current token pair.
// Tokens are replaced in place after a successful refresh and never persisted.
type Credentials struct {
	ClientID     string
	ClientSecret string

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
}

func NewCredentials(clientID, clientSecret, accessToken, refreshToken string) *Credentials {
	return &Credentials{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		accessToken:  accessToken,
		refreshToken: refreshToken,
	}
}

func (c *Credentials) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

func (c *Credentials) RefreshToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshToken
}

// Replace swaps both tokens atomically. An empty refresh token keeps the current one.
func (c *Credentials) Replace(accessToken, refreshToken string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = accessToken
	if refreshToken != "" {
		c.refreshToken = refreshToken
	}
}
