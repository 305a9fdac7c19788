package paapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/wtsr/backend/internal/domain"
	"golang.org/x/time/rate"
)

// DefaultTimeout bounds a single GetItems call
const DefaultTimeout = 6 * time.Second

// Credentials are the PA-API access key pair, the associate partner tag and the region
type Credentials struct {
	AccessKey  string
	SecretKey  string
	PartnerTag string
	Region     string
}

// Complete reports whether every field needed to sign a request is present
func (c Credentials) Complete() bool {
	return c.AccessKey != "" && c.SecretKey != "" && c.PartnerTag != ""
}

// Config holds client configuration
type Config struct {
	Credentials       Credentials
	Endpoint          string // overrides https://<region host>
	Timeout           time.Duration
	RequestsPerSecond float64
	Verbose           bool
}

// Client handles communication with the Product Advertising API.
// It never returns an error to its caller: every failure collapses to "no result".
type Client struct {
	httpClient  *http.Client
	credentials Credentials
	region      Region
	endpoint    string
	signer      *Signer
	rateLimiter *rate.Limiter
	verbose     bool
	logger      *slog.Logger
	nowFunc     func() time.Time
}

// NewClient creates a new PA-API client
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	// PA-API starts new associates at one request per second
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}

	region := LookupRegion(cfg.Credentials.Region)
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "https://" + region.Host
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		credentials: cfg.Credentials,
		region:      region,
		endpoint:    endpoint,
		signer:      NewSigner(cfg.Credentials.AccessKey, cfg.Credentials.SecretKey, region.Name, serviceName),
		rateLimiter: rate.NewLimiter(rate.Limit(rps), 1),
		verbose:     cfg.Verbose,
		logger:      logger.With("component", "paapi"),
		nowFunc:     time.Now,
	}
}

// SetVerbose toggles diagnostic logging of requests and failure reasons
func (c *Client) SetVerbose(verbose bool) {
	c.verbose = verbose
}

// Enabled reports whether credentials are complete; a disabled client never touches the network
func (c *Client) Enabled() bool {
	return c.credentials.Complete()
}

// Region returns the resolved region
func (c *Client) Region() Region {
	return c.region
}

// FetchImages requests the primary images and title for a single ASIN
func (c *Client) FetchImages(ctx context.Context, asin string) (*domain.ProductImages, bool) {
	if !c.Enabled() {
		c.diag("credentials incomplete, skipping fetch",
			"asin", asin,
			"access_key_set", c.credentials.AccessKey != "",
			"secret_key_set", c.credentials.SecretKey != "",
			"partner_tag_set", c.credentials.PartnerTag != "",
		)
		return nil, false
	}

	result, err := c.getItems(ctx, asin)
	if err != nil {
		c.diag("fetch failed", "asin", asin, "error", err)
		return nil, false
	}

	c.diag("fetch succeeded", "asin", asin, "image_url", result.Src)
	return result, true
}

func (c *Client) getItems(ctx context.Context, asin string) (*domain.ProductImages, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	body, err := json.Marshal(getItemsRequest{
		ItemIDs:     []string{asin},
		Resources:   getItemsResources,
		PartnerTag:  c.credentials.PartnerTag,
		PartnerType: partnerType,
		Marketplace: c.region.Marketplace,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := c.newSignedRequest(ctx, body)
	if err != nil {
		return nil, err
	}

	c.diag("sending GetItems", "asin", asin, "target", req.URL.String(), "region", c.region.Name)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrUpstreamUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d, body: %s", domain.ErrUpstreamUnavailable, resp.StatusCode, string(respBody))
	}

	var parsed getItemsResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return normalize(&parsed)
}

// newSignedRequest builds the POST with every header except Authorization covered by the signature
func (c *Client) newSignedRequest(ctx context.Context, body []byte) (*http.Request, error) {
	u, err := url.Parse(c.endpoint + getItemsPath)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", c.endpoint, err)
	}

	amzDate := c.nowFunc().UTC().Format(AmzDateFormat)
	headers := map[string]string{
		"accept":               "application/json, text/javascript",
		"content-encoding":     "amz-1.0",
		"content-type":         "application/json; charset=utf-8",
		"host":                 u.Host,
		"x-amz-content-sha256": hashHex(body),
		"x-amz-date":           amzDate,
		"x-amz-target":         getItemsTarget,
	}

	signature := c.signer.Sign(&CanonicalRequest{
		Method:  http.MethodPost,
		Path:    u.EscapedPath(),
		Query:   u.RawQuery,
		Headers: headers,
		Payload: body,
	}, amzDate)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for name, value := range headers {
		if name == "host" {
			continue
		}
		req.Header.Set(name, value)
	}
	req.Header.Set("Authorization", signature.Authorization)

	return req, nil
}

var errNoImages = errors.New("item has no primary image")

// normalize prefers Medium as the primary image and Large as the 2x variant,
// using whichever single size exists for both when only one is present.
func normalize(resp *getItemsResponse) (*domain.ProductImages, error) {
	if resp.ItemsResult == nil || len(resp.ItemsResult.Items) == 0 {
		if len(resp.Errors) > 0 {
			return nil, fmt.Errorf("%w: %s: %s", domain.ErrProductNotFound, resp.Errors[0].Code, resp.Errors[0].Message)
		}
		return nil, domain.ErrProductNotFound
	}

	it := resp.ItemsResult.Items[0]

	var medium, large string
	if it.Images != nil && it.Images.Primary != nil {
		if it.Images.Primary.Medium != nil {
			medium = it.Images.Primary.Medium.URL
		}
		if it.Images.Primary.Large != nil {
			large = it.Images.Primary.Large.URL
		}
	}
	if medium == "" && large == "" {
		return nil, errNoImages
	}

	var title string
	if it.ItemInfo != nil && it.ItemInfo.Title != nil {
		title = it.ItemInfo.Title.DisplayValue
	}

	return &domain.ProductImages{
		Src:   firstNonEmpty(medium, large),
		Src2x: firstNonEmpty(large, medium),
		Title: title,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (c *Client) diag(msg string, args ...any) {
	if c.verbose {
		c.logger.Info(msg, args...)
	}
}
