package earthengine

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/airbusgeo/s2-exporter/service"
	"github.com/jonboulle/clockwork"
	"golang.org/x/oauth2/google"
)

const (
	// DefaultBaseURL is the endpoint of the Earth Engine REST API
	DefaultBaseURL = "https://earthengine.googleapis.com/v1"
	// Scope of the Earth Engine API
	Scope              = "https://www.googleapis.com/auth/earthengine"
	cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"
	// PublicProject hosts the public catalog
	PublicProject = "projects/earthengine-public"

	defaultPageSize = 1000
	nbTries         = 3
	retryDelay      = time.Second
)

// Client of the Earth Engine REST API.
// It implements catalog.ScenesProvider (listImages) and export.JobSubmitter (image:export)
type Client struct {
	HTTP     *http.Client
	BaseURL  string
	Project  string // Cloud project the exports are billed to
	PageSize int
	Clock    clockwork.Clock
}

// NewClient creates a client authenticated with the application default credentials
func NewClient(ctx context.Context, project string) (*Client, error) {
	if project == "" {
		return nil, fmt.Errorf("NewClient: a cloud project is required")
	}
	hc, err := google.DefaultClient(ctx, Scope, cloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("NewClient.DefaultClient: %w", err)
	}
	return &Client{
		HTTP:     hc,
		BaseURL:  DefaultBaseURL,
		Project:  project,
		PageSize: defaultPageSize,
		Clock:    clockwork.NewRealClock(),
	}, nil
}

// do sends the request, retrying temporary errors (5xx, 429, network)
func (c *Client) do(ctx context.Context, method, url string, payload, out interface{}) error {
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	return service.Retriable(ctx, func() error {
		err := service.DoJSON(ctx, client, method, url, payload, out)
		if err != nil && !service.Temporary(err) {
			return service.MakeFatal(err)
		}
		return err
	}, retryDelay, nbTries)
}

func (c *Client) baseURL() string {
	if c.BaseURL == "" {
		return DefaultBaseURL
	}
	return c.BaseURL
}
