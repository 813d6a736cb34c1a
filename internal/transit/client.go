package transit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrNullResponse is wrapped in a DecodeError when the API answers with a bare null
var ErrNullResponse = errors.New("response body is null")

// Client talks to the bahn.expert style transit API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a transit API client rooted at baseURL
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// TransportError is returned for any non-2xx answer. It is never retried.
type TransportError struct {
	URL        string
	StatusCode int
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transit API returned status %d for %s", e.StatusCode, e.URL)
}

// DecodeError means the body was not the JSON shape the endpoint promises
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding response from %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// SearchStopPlaces queries the station directory with free text
func (c *Client) SearchStopPlaces(ctx context.Context, text string) ([]StopPlace, error) {
	requestURL := fmt.Sprintf("%s/stopPlace/v1/search/%s", c.baseURL, url.PathEscape(text))

	var places []StopPlace
	if err := c.getJSON(ctx, requestURL, &places); err != nil {
		return nil, err
	}
	// "[]" decodes to an empty slice, only a top level null leaves it nil
	if places == nil {
		return nil, &DecodeError{URL: requestURL, Err: ErrNullResponse}
	}
	return places, nil
}

// Departures requests the departure board of one station. lookahead and lookbehind are minutes.
func (c *Client) Departures(ctx context.Context, evaNumber int64, lookahead, lookbehind int) (*DeparturesResponse, error) {
	params := url.Values{}
	params.Add("lookahead", strconv.Itoa(lookahead))
	params.Add("lookbehind", strconv.Itoa(lookbehind))

	requestURL := fmt.Sprintf("%s/iris/v2/abfahrten/%d?%s", c.baseURL, evaNumber, params.Encode())

	var board *DeparturesResponse
	if err := c.getJSON(ctx, requestURL, &board); err != nil {
		return nil, err
	}
	if board == nil {
		return nil, &DecodeError{URL: requestURL, Err: ErrNullResponse}
	}
	return board, nil
}

func (c *Client) getJSON(ctx context.Context, requestURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call transit API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransportError{URL: requestURL, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DecodeError{URL: requestURL, Err: err}
	}
	return nil
}

// IsTransport reports whether err came from a non-success HTTP answer
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
