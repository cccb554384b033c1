package sling

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

var ErrNotFound = errors.New("sling: resource not found")

// GetTree fetches a node and its descendants down to opts.Depth as an ordered JSON object.
func (api *API) GetTree(ctx context.Context, opts TreeQuery) (*Object, error) {
	ep, err := api.getTreeEndpoint(opts)
	if err != nil {
		return nil, fmt.Errorf("sling: couldn't get tree endpoint: %w", err)
	}

	body, err := api.request(ctx, ep, "application/json")
	if err != nil {
		return nil, fmt.Errorf("sling: couldn't perform request: %w", err)
	}

	tree, err := DecodeObject(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("sling: couldn't parse json response: %w", err)
	}

	return tree, nil
}

// GetBinary downloads the data of a file node.
func (api *API) GetBinary(ctx context.Context, nodePath string) ([]byte, error) {
	ep, err := api.getBinaryEndpoint(nodePath)
	if err != nil {
		return nil, fmt.Errorf("sling: couldn't get binary endpoint: %w", err)
	}

	body, err := api.request(ctx, ep, "*/*")
	if err != nil {
		return nil, fmt.Errorf("sling: couldn't perform request: %w", err)
	}
	return body, nil
}

func (api *API) request(ctx context.Context, url *url.URL, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("sling: couldn't instantiate http request: %w", err)
	}

	req.Header.Add("Accept", accept)

	// if user & token are not set, do not add authorization header
	if api.username != "" && api.token != "" {
		req.SetBasicAuth(api.username, api.token)
	} else if api.token != "" {
		req.Header.Set("Authorization", "Bearer "+api.token)
	}

	response, err := api.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sling: couldn't perform http request: %w", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("sling: couldn't read http response body: %w", err)
	}

	switch response.StatusCode {
	case http.StatusOK, http.StatusNonAuthoritativeInfo, http.StatusPartialContent:
		return body, nil
	case http.StatusMultipleChoices:
		// the servlet refuses trees above its node limit and lists the depths it would serve
		return nil, fmt.Errorf("sling: tree too large, request a smaller depth: %s", url.String())
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("sling: authentication failed: %s", response.Status)
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url.Path)
	case http.StatusServiceUnavailable:
		return nil, fmt.Errorf("sling: service is not available: %s", response.Status)
	case http.StatusInternalServerError:
		return nil, fmt.Errorf("sling: internal server error: %s", response.Status)
	}

	return nil, fmt.Errorf("sling: unknown HTTP response status: %s: %s", response.Status, url.String())
}
