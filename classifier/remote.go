package classifier

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/teranos/classdb/errors"
	"github.com/teranos/classdb/internal/httpclient"
)

// maxErrorBody bounds how much of a failed response ends up in the error.
const maxErrorBody = 4096

// Remote is a classifier served by another classdb (or compatible) service.
// It calls GET <base>/classify/<name>/<criterion>?uri=<item>.
type Remote struct {
	name    string
	base    string
	client  *httpclient.SaferClient
	limiter *rate.Limiter
}

// NewRemote creates a remote classifier. A nil limiter means no rate limit.
func NewRemote(name, baseURL string, client *httpclient.SaferClient, limiter *rate.Limiter) (*Remote, error) {
	if name == "" {
		return nil, errors.NewInvalidRequestError("remote classifier name must not be empty")
	}
	if _, err := client.ValidateURL(baseURL); err != nil {
		return nil, errors.WithDetailf(errors.Wrapf(err, "invalid base URL for classifier %s", name), "url: %s", baseURL)
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &Remote{
		name:    name,
		base:    strings.TrimRight(baseURL, "/"),
		client:  client,
		limiter: limiter,
	}, nil
}

func (r *Remote) Name() string { return r.name }

// URL returns the request URL for (criterion, item).
func (r *Remote) URL(criterion, item string) string {
	return r.base + "/classify/" + url.PathEscape(r.name) + "/" + url.PathEscape(criterion) +
		"?uri=" + url.QueryEscape(item)
}

type remoteResponse struct {
	Results map[string]json.RawMessage `json:"results"`
	Error   string                     `json:"error"`
}

// Classify fetches predictions, waiting for the rate limiter first.
func (r *Remote) Classify(ctx context.Context, criterion, item string) ([]Result, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrapf(err, "rate limit wait for classifier %s", r.name)
	}

	target := r.URL(criterion, item)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build request for classifier %s", r.name)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, errors.WithDetailf(errors.Wrapf(err, "classifier %s unreachable", r.name), "url: %s", target)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(body))
		var payload remoteResponse
		if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
			msg = payload.Error
		}
		err := errors.Newf("classifier %s returned %d: %s", r.name, resp.StatusCode, msg)
		if resp.StatusCode == http.StatusNotFound {
			err = errors.Mark(err, errors.ErrNotFound)
		}
		return nil, errors.WithDetailf(err, "url: %s", target)
	}

	var payload remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrapf(err, "failed to decode response of classifier %s", r.name)
	}

	results := make([]Result, 0, len(payload.Results))
	for uri, raw := range payload.Results {
		score, err := parseScore(raw)
		if err != nil {
			// unreadable scores become NaN and are dropped downstream with the other invalid ones
			score = math.NaN()
		}
		results = append(results, Result{PredictionURI: uri, Score: score})
	}
	sortResults(results)
	return results, nil
}

// parseScore accepts a JSON number or a string such as "NaN" or "Infinity".
func parseScore(raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, errors.Newf("score %s is neither a number nor a string", string(raw))
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "score %q", s)
	}
	return f, nil
}

// RemoteOptions configures the remotes built by NewRemotes.
type RemoteOptions struct {
	RatePerSecond float64
	Burst         int
}

// NewRemotes builds one Remote per entry of endpoints (name to base URL).
// All remotes share one limiter.
func NewRemotes(endpoints map[string]string, client *httpclient.SaferClient, opts RemoteOptions) ([]*Remote, error) {
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	burst := opts.Burst
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(limit, burst)

	names := make([]string, 0, len(endpoints))
	for name := range endpoints {
		names = append(names, name)
	}
	sort.Strings(names)

	remotes := make([]*Remote, 0, len(names))
	for _, name := range names {
		r, err := NewRemote(name, endpoints[name], client, limiter)
		if err != nil {
			return nil, err
		}
		remotes = append(remotes, r)
	}
	return remotes, nil
}
