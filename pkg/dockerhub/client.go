package dockerhub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	zlog "github.com/rs/zerolog/log"
	"go.uber.org/ratelimit"
)

const DockerHubURL = "https://hub.docker.com/v2"
const DefaultMaxRPS = 5
const DefaultRequestTimeout = 10 * time.Second
const DefaultRetryDelay = 2 * time.Second

const pageSize = 100

type Config struct {
	APIURL  string
	MaxRPS  int
	Timeout time.Duration

	// RetryDelay is the fixed pause before the single retry
	// of a rate-limited request.
	RetryDelay time.Duration
}

type Client struct {
	apiURL     string
	rl         ratelimit.Limiter
	retryDelay time.Duration

	cli *http.Client
}

// NewClient builds a Docker Hub client. A custom *http.Client replaces
// the assembled one entirely, including its timeout; cfg.Timeout applies
// only to the default client.
func NewClient(cfg Config, httpCli ...*http.Client) *Client {
	if cfg.APIURL == "" {
		cfg.APIURL = DockerHubURL
	}
	if cfg.MaxRPS == 0 {
		cfg.MaxRPS = DefaultMaxRPS
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultRequestTimeout
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}

	c := &Client{
		apiURL:     cfg.APIURL,
		rl:         ratelimit.New(cfg.MaxRPS),
		retryDelay: cfg.RetryDelay,
		cli:        &http.Client{Timeout: cfg.Timeout},
	}
	if len(httpCli) == 1 {
		c.cli = httpCli[0]
	}

	return c
}

// GetTags fetches all tags of the given repository, following pagination
// until the registry reports no next page. Records keep the registry's
// ordering. Any page failure fails the whole call, no partial result
// is returned.
func (c *Client) GetTags(ctx context.Context, ref RepositoryRef) ([]ImageTag, error) {
	nextURL := fmt.Sprintf("%s/repositories/%s/%s/tags/?page_size=%d", c.apiURL, ref.Namespace, ref.Name, pageSize)

	var tags []ImageTag
	for {
		resp, err := c.getTagsPage(ctx, ref, nextURL)
		if err != nil {
			return nil, err
		}

		tags = append(tags, resp.Results...)
		if resp.Next == nil || *resp.Next == "" {
			break
		}

		nextURL = *resp.Next
	}

	return tags, nil
}

func (c *Client) getTagsPage(ctx context.Context, ref RepositoryRef, url string) (*GetImageTagsResponse, error) {
	resp, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		resp.Body.Close()

		zlog.Debug().Str("url", url).Msg("rate limited, retrying once")

		select {
		case <-ctx.Done():
			return nil, errors.Wrapf(ErrNetwork, "%v", ctx.Err())
		case <-time.After(c.retryDelay):
		}

		resp, err = c.get(ctx, url)
		if err != nil {
			return nil, err
		}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, errors.Wrapf(ErrNotFound, "repository %s", ref)
	case http.StatusTooManyRequests:
		return nil, errors.Wrapf(ErrRateLimited, "repository %s", ref)
	default:
		return nil, errors.Errorf("unexpected status from registry: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(ErrNetwork, "body read failed: %v", err)
	}

	response := new(GetImageTagsResponse)
	err = json.Unmarshal(body, response)
	if err != nil {
		zlog.Debug().Err(err).Str("url", url).Msg("failed to decode image tags")

		return nil, errors.Wrapf(ErrMalformedResponse, "unmarshal failed: %v", err)
	}

	return response, nil
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	c.rl.Take()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(ErrNetwork, "invalid request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.cli.Do(req)
	if err != nil {
		return nil, errors.Wrapf(ErrNetwork, "request failed: %v", err)
	}

	return resp, nil
}
