package gateway

import "fmt"

// NewClientFromCredentials builds a client for baseURL. At least one of
// token or password is required.
func NewClientFromCredentials(baseURL, token, password string, opts ...ClientOption) (GatewayAPI, error) {
	if token == "" && password == "" {
		return nil, fmt.Errorf("provide a gateway token or password")
	}
	all := []ClientOption{WithToken(token), WithPassword(password)}
	if baseURL != "" {
		all = append(all, WithBaseURL(baseURL))
	}
	return NewClient(append(all, opts...)...), nil
}
