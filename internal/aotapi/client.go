// Package aotapi implements the HTTP client for the third-party Attack on
// Titan character catalog (fetch by id, search by name).
//
// Every field of a catalog record is optional, so the client applies
// explicit per-field defaults before handing data to callers: missing image
// becomes "", missing species becomes ["Human"], missing gender/status
// become "Unknown", and a missing age is drawn uniformly from [12,40].
// Callers therefore never see a partially populated record: they get a
// fully defaulted one or a typed error.
package aotapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/titandle/titandle-backend/internal/config"
)

// Default values applied to absent catalog fields.
const (
	defaultSpecies = "Human"
	defaultUnknown = "Unknown"
	minDefaultAge  = 12
	maxDefaultAge  = 40
)

// CharacterData is a normalized catalog record with all defaults applied.
type CharacterData struct {
	Name    string   `json:"name"`
	Image   string   `json:"image"`
	Species []string `json:"species"`
	Gender  string   `json:"gender"`
	Age     int      `json:"age"`
	Status  string   `json:"status"`
}

// rawCharacter mirrors the catalog's wire format. Older catalog revisions
// use "img", newer ones "image"; both are accepted.
type rawCharacter struct {
	Name    *string  `json:"name,omitempty"`
	Img     *string  `json:"img,omitempty"`
	Image   *string  `json:"image,omitempty"`
	Species []string `json:"species,omitempty"`
	Gender  *string  `json:"gender,omitempty"`
	Age     *int     `json:"age,omitempty"`
	Status  *string  `json:"status,omitempty"`
}

// Client talks to the catalog with a bounded per-request timeout. It is
// safe for concurrent use.
type Client struct {
	http       *http.Client
	baseURL    string
	maxRetries int
	log        zerolog.Logger

	// randAge draws a default age; injectable for deterministic tests.
	randAge func() int
}

// New constructs a catalog client from configuration.
func New(cfg config.AOTConfig, log zerolog.Logger) *Client {
	return &Client{
		http:       &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		maxRetries: cfg.MaxRetries,
		log:        log,
		randAge: func() int {
			return minDefaultAge + rand.Intn(maxDefaultAge-minDefaultAge+1)
		},
	}
}

// FetchByID retrieves a single character by catalog id. A record without a
// name field fails with MalformedError; an unreachable catalog fails with
// TransportError after the configured retries.
func (c *Client) FetchByID(ctx context.Context, id int) (*CharacterData, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/characters/%d", c.baseURL, id))
	if err != nil {
		return nil, err
	}

	var raw rawCharacter
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &MalformedError{Reason: err.Error()}
	}
	if raw.Name == nil || *raw.Name == "" {
		return nil, &MalformedError{Reason: fmt.Sprintf("character %d has no name", id)}
	}
	data := c.normalize(raw)
	return &data, nil
}

// SearchByName queries the catalog by (partial) name. Records without a
// usable name are skipped, never fatal; the catalog may wrap results in a
// "results" envelope or return a bare array, and both shapes are accepted.
// An empty slice with a nil error means the catalog answered with nothing
// usable.
func (c *Client) SearchByName(ctx context.Context, name string) ([]CharacterData, error) {
	u := fmt.Sprintf("%s/characters?%s", c.baseURL, url.Values{"name": {name}}.Encode())
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var raws []rawCharacter
	var envelope struct {
		Results json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Results != nil {
		if err := json.Unmarshal(envelope.Results, &raws); err != nil {
			return nil, &MalformedError{Reason: err.Error()}
		}
	} else if err := json.Unmarshal(body, &raws); err != nil {
		return nil, &MalformedError{Reason: err.Error()}
	}

	out := make([]CharacterData, 0, len(raws))
	for _, raw := range raws {
		if raw.Name == nil || *raw.Name == "" {
			c.log.Debug().Str("query", name).Msg("skipping catalog record without name")
			continue
		}
		out = append(out, c.normalize(raw))
	}
	return out, nil
}

// get performs one GET (plus configured retries on transport failures) and
// returns the response body of a 2xx answer.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, &TransportError{Err: err}
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = &TransportError{Err: err}
			c.log.Warn().Err(err).Str("url", url).Int("attempt", attempt+1).Msg("catalog request failed")
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = &TransportError{Err: err}
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			// Non-2xx is not retried: the catalog answered, it just said no.
			return nil, &ClientError{StatusCode: resp.StatusCode}
		}
		return body, nil
	}
	return nil, lastErr
}

// normalize applies the per-field defaults to a raw record. The name is
// assumed present (callers filter nameless records first).
func (c *Client) normalize(raw rawCharacter) CharacterData {
	data := CharacterData{
		Name:    *raw.Name,
		Species: raw.Species,
		Gender:  defaultUnknown,
		Status:  defaultUnknown,
	}
	switch {
	case raw.Img != nil:
		data.Image = *raw.Img
	case raw.Image != nil:
		data.Image = *raw.Image
	}
	if len(data.Species) == 0 {
		data.Species = []string{defaultSpecies}
	}
	if raw.Gender != nil && *raw.Gender != "" {
		data.Gender = *raw.Gender
	}
	if raw.Status != nil && *raw.Status != "" {
		data.Status = *raw.Status
	}
	if raw.Age != nil && *raw.Age >= 0 {
		data.Age = *raw.Age
	} else {
		data.Age = c.randAge()
	}
	return data
}
