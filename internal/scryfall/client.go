package scryfall

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cardcap/internal/prints"
)

// DefaultBaseURL is the public Scryfall API endpoint.
const DefaultBaseURL = "https://api.scryfall.com"

// ImageURIs lists the image renditions of a card or card face.
type ImageURIs struct {
	Small   string `json:"small"`
	Normal  string `json:"normal"`
	Large   string `json:"large"`
	PNG     string `json:"png"`
	ArtCrop string `json:"art_crop"`
}

// CardFace is one face of a multi-faced card.
type CardFace struct {
	Name           string     `json:"name"`
	TypeLine       string     `json:"type_line"`
	IllustrationID string     `json:"illustration_id"`
	ImageURIs      *ImageURIs `json:"image_uris"`
}

// Card is the subset of a Scryfall card object used here.
type Card struct {
	Name            string     `json:"name"`
	Set             string     `json:"set"`
	CollectorNumber string     `json:"collector_number"`
	IllustrationID  string     `json:"illustration_id"`
	TypeLine        string     `json:"type_line"`
	ReleasedAt      string     `json:"released_at"`
	Artist          string     `json:"artist"`
	ImageURIs       *ImageURIs `json:"image_uris"`
	CardFaces       []CardFace `json:"card_faces"`
}

// ArtCropURL returns the art crop, falling back to the first face that has one.
func (c Card) ArtCropURL() string {
	if c.ImageURIs != nil && c.ImageURIs.ArtCrop != "" {
		return c.ImageURIs.ArtCrop
	}
	for _, face := range c.CardFaces {
		if face.ImageURIs != nil && face.ImageURIs.ArtCrop != "" {
			return face.ImageURIs.ArtCrop
		}
	}
	return ""
}

// Type returns the type line, using the front face for multi-faced cards.
func (c Card) Type() string {
	if c.TypeLine != "" {
		return c.TypeLine
	}
	if len(c.CardFaces) > 0 {
		return c.CardFaces[0].TypeLine
	}
	return ""
}

// Illustration returns the illustration id, using the front face when needed.
func (c Card) Illustration() string {
	if c.IllustrationID != "" {
		return c.IllustrationID
	}
	if len(c.CardFaces) > 0 {
		return c.CardFaces[0].IllustrationID
	}
	return ""
}

// Record converts the card into the reconciler's record type.
func (c Card) Record() prints.Record {
	return prints.Record{
		Name:            c.Name,
		SetCode:         c.Set,
		CollectorNumber: c.CollectorNumber,
		IllustrationID:  c.Illustration(),
		TypeLine:        c.Type(),
		ReleasedAt:      c.ReleasedAt,
		ArtURL:          c.ArtCropURL(),
	}
}

type listResponse struct {
	Data     []Card `json:"data"`
	HasMore  bool   `json:"has_more"`
	NextPage string `json:"next_page"`
}

// SearchOptions are the non-query search parameters.
type SearchOptions struct {
	Unique string
	Order  string
	Dir    string
}

// APIError reports a non-success Scryfall response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("scryfall returned %d: %s", e.Status, e.Body)
}

// Client talks to the Scryfall API.
type Client struct {
	baseURL    string
	pageDelay  time.Duration
	httpClient *http.Client
}

var _ prints.Searcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithPageDelay sets the pause between paginated requests.
func WithPageDelay(delay time.Duration) Option {
	return func(c *Client) {
		if delay >= 0 {
			c.pageDelay = delay
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// New creates a Scryfall client. An empty baseURL uses DefaultBaseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse scryfall url: %w", err)
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		pageDelay:  100 * time.Millisecond,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Search runs a card search and follows next_page links until exhausted.
// A 404 means the query matched nothing and yields an empty result.
func (c *Client) Search(ctx context.Context, query string, opts SearchOptions) ([]Card, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	params := url.Values{}
	params.Set("q", query)
	if opts.Unique != "" {
		params.Set("unique", opts.Unique)
	}
	if opts.Order != "" {
		params.Set("order", opts.Order)
	}
	if opts.Dir != "" {
		params.Set("dir", opts.Dir)
	}
	next := c.baseURL + "/cards/search?" + params.Encode()

	var cards []Card
	for page := 1; next != ""; page++ {
		if page > 1 && c.pageDelay > 0 {
			timer := time.NewTimer(c.pageDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}
		var payload listResponse
		found, err := c.getJSON(ctx, next, &payload)
		if err != nil {
			return nil, fmt.Errorf("search %q page %d: %w", query, page, err)
		}
		if !found {
			break
		}
		cards = append(cards, payload.Data...)
		next = ""
		if payload.HasMore {
			next = payload.NextPage
		}
	}
	return cards, nil
}

// SearchPrints searches in release order, oldest first, and converts results
// into reconciler records.
func (c *Client) SearchPrints(ctx context.Context, query string) ([]prints.Record, error) {
	cards, err := c.Search(ctx, query, SearchOptions{Order: "released", Dir: "asc"})
	if err != nil {
		return nil, err
	}
	records := make([]prints.Record, 0, len(cards))
	for _, card := range cards {
		records = append(records, card.Record())
	}
	return records, nil
}

// CardByPrint fetches one printing by set code and collector number. It
// returns (nil, nil) when Scryfall has no such print.
func (c *Client) CardByPrint(ctx context.Context, set, number string) (*Card, error) {
	set = strings.ToLower(strings.TrimSpace(set))
	number = strings.TrimSpace(number)
	if set == "" || number == "" {
		return nil, errors.New("set code and collector number required")
	}
	endpoint := fmt.Sprintf("%s/cards/%s/%s", c.baseURL, url.PathEscape(set), url.PathEscape(number))
	var card Card
	found, err := c.getJSON(ctx, endpoint, &card)
	if err != nil {
		return nil, fmt.Errorf("lookup %s #%s: %w", set, number, err)
	}
	if !found {
		return nil, nil
	}
	return &card, nil
}

// ArtForPrint returns the art crop URL and type line of a printing.
func (c *Client) ArtForPrint(ctx context.Context, set, number string) (string, string, error) {
	card, err := c.CardByPrint(ctx, set, number)
	if err != nil || card == nil {
		return "", "", err
	}
	return card.ArtCropURL(), card.Type(), nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, target any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "cardcap/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return false, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return false, fmt.Errorf("decode scryfall response: %w", err)
	}
	return true, nil
}
