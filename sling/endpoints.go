package sling

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/go-querystring/query"
	"github.com/toothbrush/content-replicate/content"
)

// getTreeEndpoint returns the JSON rendering of a node and Depth levels below it.
func (a *API) getTreeEndpoint(opts TreeQuery) (*url.URL, error) {
	p, err := content.CleanPath(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("sling: bad tree path: %w", err)
	}

	depth := "infinity"
	if opts.Depth >= 0 {
		depth = strconv.Itoa(opts.Depth)
	}

	ep, err := a.resolveEndpoint(fmt.Sprintf("%s.%s.json", p, depth))
	if err != nil {
		return nil, fmt.Errorf("sling: couldn't resolve endpoint: %w", err)
	}

	v, err := query.Values(opts)
	if err != nil {
		return nil, fmt.Errorf("sling: couldn't encode query params: %w", err)
	}
	ep.RawQuery = v.Encode()

	return ep, nil
}

// getBinaryEndpoint returns the URL streaming an nt:file's data.
func (a *API) getBinaryEndpoint(nodePath string) (*url.URL, error) {
	p, err := content.CleanPath(nodePath)
	if err != nil {
		return nil, fmt.Errorf("sling: bad binary path: %w", err)
	}
	return a.resolveEndpoint(p)
}

// Do a bit of error checking on endpoint format, and return it relative to the base URI.
func (a *API) resolveEndpoint(endpoint string) (*url.URL, error) {
	ref, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("sling: failed to parse endpoint ref: %w", err)
	}

	// keep a context path on the base URI, e.g. http://host/author
	base := *a.BaseURI
	base.Path = base.Path + ref.Path
	base.RawPath = ""
	return &base, nil
}
