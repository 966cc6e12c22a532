package audio

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/sony/gobreaker"
)

const (
	forvoBaseURL = "https://apifree.forvo.com"
	forvoTimeout = 30 * time.Second
)

// ErrNoPronunciation is returned when Forvo has no recording for a query.
// It is a normal miss, not a transport failure, so it never trips the breaker.
var ErrNoPronunciation = errors.New("no pronunciation found")

// ForvoClient looks up recorded native pronunciations on the Forvo API
type ForvoClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// forvoReply is the XML document listing candidate pronunciations
type forvoReply struct {
	Items []forvoItem `xml:"item"`
}

type forvoItem struct {
	PathMP3 string `xml:"pathmp3"`
}

// NewForvoClient creates a new Forvo API client. Repeated transport failures
// open a circuit breaker so a long batch does not hammer a dead endpoint;
// while the breaker is open, lookups fail fast and the resolver falls
// through to synthesis.
func NewForvoClient(apiKey string) *ForvoClient {
	return &ForvoClient{
		apiKey:     apiKey,
		baseURL:    forvoBaseURL,
		httpClient: &http.Client{Timeout: forvoTimeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "forvo",
			MaxRequests: 1,
			Timeout:     2 * time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

// DownloadPronunciation fetches the first candidate recording for a word and
// stores it at outputFile. A miss returns ErrNoPronunciation.
func (c *ForvoClient) DownloadPronunciation(ctx context.Context, word, language, outputFile string) error {
	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx, word, language)
	})
	if err != nil {
		return fmt.Errorf("forvo lookup for %q failed: %w", word, err)
	}

	data := res.([]byte)
	if len(data) == 0 {
		return ErrNoPronunciation
	}

	dir := filepath.Dir(outputFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create audio directory: %w", err)
		}
	}

	if err := os.WriteFile(outputFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write audio file: %w", err)
	}

	return nil
}

// fetch queries the standard-pronunciation endpoint and downloads the first
// candidate's mp3. Returns nil bytes when no recording exists.
func (c *ForvoClient) fetch(ctx context.Context, word, language string) ([]byte, error) {
	apiURL := fmt.Sprintf("%s/key/%s/format/xml/action/standard-pronunciation/word/%s/language/%s",
		c.baseURL, c.apiKey, url.PathEscape(word), language)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("forvo returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var reply forvoReply
	if err := xml.Unmarshal(body, &reply); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(reply.Items) == 0 || reply.Items[0].PathMP3 == "" {
		return nil, nil
	}

	return c.download(ctx, reply.Items[0].PathMP3)
}

func (c *ForvoClient) download(ctx context.Context, mp3URL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mp3URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
