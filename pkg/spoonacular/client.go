// Package spoonacular wraps the subset of the Spoonacular REST API the
// shop exposes as a recipe passthrough.
package spoonacular

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/sweetcrumb/bakeshop-backend/pkg/errors"
)

const (
	defaultBaseURL            = "https://api.spoonacular.com"
	responseBodyReadLimit int64 = 1024
)

var errAPIKeyRequired = errors.New("spoonacular api key is required")

// Client talks to the Spoonacular recipe endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the Spoonacular client given an API key.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		apiKey:     trimmedKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}

	return client, nil
}

// Recipe is the normalized recipe shape returned by search and detail calls.
type Recipe struct {
	ID              int64
	Title           string
	ImageURL        string
	ReadyInMinutes  int
	Servings        int
	PricePerServing float64
	Summary         string
	SourceURL       string
}

// Search queries recipes matching the free-text query. Number caps how
// many results come back; the API maximum is 100.
func (c *Client) Search(ctx context.Context, query string, number int) ([]Recipe, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "spoonacular client not configured")
	}
	if strings.TrimSpace(query) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search query is required")
	}
	if number <= 0 {
		number = 10
	}
	if number > 100 {
		number = 100
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("number", strconv.Itoa(number))
	params.Set("apiKey", c.apiKey)

	endpoint := c.buildURL("recipes/complexSearch") + "?" + params.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build recipe search request")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute recipe search request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.upstreamError(resp, "recipe search request failed")
	}

	var apiResp struct {
		Results []struct {
			ID    int64  `json:"id"`
			Title string `json:"title"`
			Image string `json:"image"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode recipe search response")
	}

	recipes := make([]Recipe, 0, len(apiResp.Results))
	for _, r := range apiResp.Results {
		recipes = append(recipes, Recipe{
			ID:       r.ID,
			Title:    r.Title,
			ImageURL: r.Image,
		})
	}
	return recipes, nil
}

// GetRecipe fetches full information for a single recipe.
func (c *Client) GetRecipe(ctx context.Context, id int64) (*Recipe, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "spoonacular client not configured")
	}
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipe id must be positive")
	}

	params := url.Values{}
	params.Set("includeNutrition", "false")
	params.Set("apiKey", c.apiKey)

	endpoint := c.buildURL(fmt.Sprintf("recipes/%d/information", id)) + "?" + params.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build recipe detail request")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute recipe detail request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "recipe not found upstream")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.upstreamError(resp, "recipe detail request failed")
	}

	var apiResp struct {
		ID              int64   `json:"id"`
		Title           string  `json:"title"`
		Image           string  `json:"image"`
		ReadyInMinutes  int     `json:"readyInMinutes"`
		Servings        int     `json:"servings"`
		PricePerServing float64 `json:"pricePerServing"`
		Summary         string  `json:"summary"`
		SourceURL       string  `json:"sourceUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode recipe detail response")
	}

	return &Recipe{
		ID:              apiResp.ID,
		Title:           apiResp.Title,
		ImageURL:        apiResp.Image,
		ReadyInMinutes:  apiResp.ReadyInMinutes,
		Servings:        apiResp.Servings,
		PricePerServing: apiResp.PricePerServing,
		Summary:         apiResp.Summary,
		SourceURL:       apiResp.SourceURL,
	}, nil
}

func (c *Client) upstreamError(resp *http.Response, message string) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	return pkgerrors.Wrap(
		pkgerrors.CodeDependency,
		fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
		message,
	)
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}
