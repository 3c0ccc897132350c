package search

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/krishg0kul/genai-multi-agent/errors"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

const defaultSerpAPIURL = "https://serpapi.com/search.json"

// SerpAPI queries serpapi.com and returns the response body unparsed.
type SerpAPI struct {
	APIKey     string
	Engine     string
	MaxResults int
	BaseURL    string
	HTTPClient *http.Client
}

func NewSerpAPI(apiKey, engine string, maxResults int) (*SerpAPI, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if engine == "" {
		engine = "google"
	}
	return &SerpAPI{
		APIKey:     apiKey,
		Engine:     engine,
		MaxResults: maxResults,
		BaseURL:    defaultSerpAPIURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (s *SerpAPI) Search(ctx context.Context, query string) (any, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("api_key", s.APIKey)
	params.Set("engine", s.Engine)
	if s.MaxResults > 0 {
		params.Set("num", strconv.Itoa(s.MaxResults))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build search request")
	}
	log.Debug().Str("query", query).Str("engine", s.Engine).Msg("searching with SerpAPI")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "search request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read search response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.New("SerpAPI returned %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	if msg := gjson.GetBytes(body, "error"); msg.Exists() {
		return nil, errors.New("SerpAPI error: %s", msg.String())
	}
	return string(body), nil
}
