package twitter

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/dghubble/oauth1"
	"github.com/gocolly/colly/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/OmarIbannez/clean-twitter/internal/config"
	"github.com/OmarIbannez/clean-twitter/internal/logging"
)

const userAgent = "clean-twitter/1.0"

// ErrMissingCredentials is returned when any part of the OAuth credentials is empty
var ErrMissingCredentials = errors.New("twitter: consumer key, consumer secret, access token and access token secret are required")

// Client handles calls to the Twitter REST API for one authenticated account
type Client struct {
	collector *colly.Collector
	baseURL   string
	logger    *zap.Logger
}

// NewClient creates a new Twitter client signing every request with the
// configured OAuth 1.0a user credentials
func NewClient(cfg config.TwitterConfig, logger *zap.Logger) (*Client, error) {
	if cfg.ConsumerKey == "" || cfg.ConsumerSecret == "" || cfg.AccessToken == "" || cfg.AccessTokenSecret == "" {
		return nil, ErrMissingCredentials
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse twitter base url")
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("twitter base url must be absolute, got %q", cfg.BaseURL)
	}

	c := colly.NewCollector(
		colly.AllowedDomains(base.Hostname()),
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
	)

	if err := c.Limit(&colly.LimitRule{
		DomainGlob: "*",
		Delay:      cfg.RequestDelay,
	}); err != nil {
		return nil, errors.Wrap(err, "set rate limit")
	}
	if cfg.Timeout > 0 {
		c.SetRequestTimeout(cfg.Timeout)
	}

	oauthConfig := oauth1.NewConfig(cfg.ConsumerKey, cfg.ConsumerSecret)
	token := oauth1.NewToken(cfg.AccessToken, cfg.AccessTokenSecret)
	c.WithTransport(oauthConfig.Client(oauth1.NoContext, token).Transport)

	return &Client{
		collector: c,
		baseURL:   base.String(),
		logger:    logging.OrNop(logger),
	}, nil
}

// do issues one request and returns the response body of a 2xx reply.
// Any other status becomes an *APIError.
func (tc *Client) do(ctx context.Context, method, endpoint string, query url.Values) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	target := tc.baseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var (
		status int
		body   []byte
	)

	// Clone the collector for this specific request
	c := tc.collector.Clone()

	c.OnRequest(func(r *colly.Request) {
		tc.logger.Debug("api_request", zap.String("method", r.Method), zap.String("path", r.URL.Path))
	})

	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})

	c.OnError(func(r *colly.Response, err error) {
		tc.logger.Debug("api_request_failed", zap.String("endpoint", endpoint), zap.Error(err))
	})

	hdr := http.Header{}
	hdr.Set("Accept", "application/json")
	if err := c.Request(method, target, nil, colly.NewContext(), hdr); err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, endpoint)
	}

	if status < 200 || status > 299 {
		return nil, newAPIError(status, body)
	}
	return body, nil
}
