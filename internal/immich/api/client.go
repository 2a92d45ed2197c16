package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/dustin/go-humanize"
)

// Client provides a raw HTTP client for accessing the immich API. All requests
// get rewritten to the API endpoint with authorization, so only the path is
// required for requests.
//
// Example:
//
// ```
// client, err := NewClient(Config{ServerURL: "https://photos.example.com", APIKey: key})
// albums, err := client.GetAlbums(ctx)
// ```
type Client struct {
	hc           *http.Client
	base         http.RoundTripper
	maxAssetSize uint64
}

// Config holds the values needed to reach an immich server.
type Config struct {
	// ServerURL is the base URL of the immich server. The "/api" suffix is
	// optional.
	ServerURL string
	// APIKey is sent on every request in the X-API-Key header.
	APIKey string
}

// immichTransport is a custom http.RoundTripper that rewrites the
// http.Request via transformF before handing it to base.
type immichTransport struct {
	base       http.RoundTripper
	transformF func(*http.Request)
}

func (i immichTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	i.transformF(req)
	return i.base.RoundTrip(req)
}

// clientOpt is used for configuring the [Client].
type clientOpt func(*Client)

// WithTransport sets the underlying transport requests are sent through.
// Defaults to http.DefaultTransport.
func WithTransport(rt http.RoundTripper) clientOpt {
	return func(c *Client) {
		if rt != nil {
			c.base = rt
		}
	}
}

// WithMaxAssetSize limits how many bytes [Client.DownloadOriginal] will read.
// A value of 0 means unlimited.
func WithMaxAssetSize(n uint64) clientOpt {
	return func(c *Client) { c.maxAssetSize = n }
}

// NewClient initializes a Client with the provided server URL and API key. An
// error is returned if the server URL cannot be used to build the API
// endpoint.
func NewClient(conf Config, opts ...clientOpt) (Client, error) {
	apiEndpointURI, err := apiEndpoint(conf.ServerURL)
	if err != nil {
		return Client{}, err
	}
	c := Client{base: http.DefaultTransport}
	for _, opt := range opts {
		opt(&c)
	}

	// Build a custom transport to set the API credentials and host.
	transport := immichTransport{
		base: c.base,
		transformF: func(r *http.Request) {
			r.Header.Set("X-API-Key", conf.APIKey)
			// Prefix the API endpoint in the new URL.
			immichAPI := *apiEndpointURI
			immichAPI.Path = path.Join(immichAPI.Path, r.URL.Path)
			immichAPI.RawQuery = r.URL.RawQuery
			r.URL = &immichAPI
			r.Host = immichAPI.Host
		},
	}
	c.hc = &http.Client{Transport: transport}
	return c, nil
}

// apiEndpoint canonicalizes serverURL into the immich API root, keeping any
// sub-path the server is hosted under.
func apiEndpoint(serverURL string) (*url.URL, error) {
	if serverURL == "" {
		return nil, errors.New("misconfigured client: missing immich server url")
	}
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid immich server url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid immich server url %q: expected scheme and host", serverURL)
	}
	p := strings.TrimSuffix(u.Path, "/")
	if !strings.HasSuffix(p, "/api") {
		p += "/api"
	}
	u.Path = p
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// get performs a GET request for the API path p. Non-2xx responses are
// returned as a *StatusError and network failures as a *ConnectivityError.
// The caller must close the response body.
func (c Client) get(ctx context.Context, p string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, &ConnectivityError{Op: "GET " + p, Err: unwrapURLError(err)}
	}
	if err := checkStatusCode(resp); err != nil {
		io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

// readAsset reads the asset body, honoring the configured size limit.
func (c Client) readAsset(r io.Reader) ([]byte, error) {
	if c.maxAssetSize == 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, int64(c.maxAssetSize)+1))
	if err != nil {
		return nil, err
	}
	if uint64(len(data)) > c.maxAssetSize {
		return nil, fmt.Errorf("asset exceeds max size of %s", humanize.Bytes(c.maxAssetSize))
	}
	return data, nil
}

// checkStatusCode is a helper function to check for a 2xx status code and
// return a descriptive error if not.
func checkStatusCode(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       strings.TrimSpace(string(snippet)),
	}
}

// unwrapURLError strips the *url.Error added by http.Client since the
// request URL it reports is the relative API path.
func unwrapURLError(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}
