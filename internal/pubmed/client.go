package pubmed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// Client performs single-shot literature lookups against NCBI eutils.
// No ranking and no caching; an empty result simply means the entity
// pair has no literature support.
type Client struct {
	baseURL    string
	maxDocs    int
	httpClient *http.Client
}

// NewClient creates a PubMed client. baseURL may be empty to use the
// public NCBI endpoint; maxDocs bounds the number of fetched abstracts.
func NewClient(baseURL string, maxDocs int) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if maxDocs < 1 {
		maxDocs = 1
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		maxDocs: maxDocs,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type esearchResponse struct {
	ESearchResult struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// Lookup searches PubMed for the entity pair and returns the
// concatenated abstract text. An empty string means no support.
func (c *Client) Lookup(ctx context.Context, head, tail string) (string, error) {
	term := strings.TrimSpace(head + " " + tail)
	if term == "" {
		return "", fmt.Errorf("pubmed lookup requires a non-empty term")
	}

	ids, err := c.search(ctx, term)
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", nil
	}
	return c.fetchAbstracts(ctx, ids)
}

func (c *Client) search(ctx context.Context, term string) ([]string, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", term)
	params.Set("retmax", strconv.Itoa(c.maxDocs))
	params.Set("retmode", "json")

	body, err := c.get(ctx, "/esearch.fcgi", params)
	if err != nil {
		return nil, err
	}

	var parsed esearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode esearch response: %w", err)
	}
	return parsed.ESearchResult.IDList, nil
}

func (c *Client) fetchAbstracts(ctx context.Context, ids []string) (string, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("id", strings.Join(ids, ","))
	params.Set("rettype", "abstract")
	params.Set("retmode", "text")

	body, err := c.get(ctx, "/efetch.fcgi", params)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	endpoint := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pubmed request %s returned status %d", path, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
