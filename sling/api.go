// Package sling reads content trees from a Sling-based repository over its default JSON servlet.
package sling

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

func NewAPI(instance string, username string, token string) (*API, error) {
	if instance == "" {
		return nil, fmt.Errorf("sling: configure your instance URL with --sling-instance")
	}
	if username != "" && token == "" {
		return nil, fmt.Errorf("sling: auth token is empty, please check auth-token-cmd")
	}

	u, err := url.ParseRequestURI(strings.TrimSuffix(instance, "/"))
	if err != nil {
		return nil, fmt.Errorf("sling: couldn't parse instance URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("sling: instance URL needs http or https scheme: '%s'", instance)
	}

	a := &API{
		BaseURI:  u,
		token:    token,
		username: username,
	}
	a.Client = &http.Client{}

	return a, nil
}

type API struct {
	// Where the repository is served, e.g. http://localhost:8080
	BaseURI *url.URL

	// An HTTP client - you can substitute VCR or whatnot.
	Client *http.Client

	// Auth info
	username, token string
}
