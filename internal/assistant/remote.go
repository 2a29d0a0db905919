package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type RemoteProvider struct {
	BaseURL string
	Path    string
	APIKey  string
	Retries int
	Client  *http.Client
}

func NewRemoteProvider(baseURL, path, apiKey string, timeout time.Duration, retries int) *RemoteProvider {
	if baseURL == "" {
		baseURL = "http://localhost:8085"
	}
	if path == "" {
		path = "/api/chat"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if retries < 0 {
		retries = 0
	}
	return &RemoteProvider{
		BaseURL: baseURL,
		Path:    path,
		APIKey:  apiKey,
		Retries: retries,
		Client:  &http.Client{Timeout: timeout},
	}
}

type askReq struct {
	Question string `json:"question"`
}

// Deployments of the endpoint disagree on the answer field name; the first
// non-empty one wins.
type askResp struct {
	Answer   string `json:"answer"`
	Response string `json:"response"`
	Reply    string `json:"reply"`
	Message  string `json:"message"`
	Text     string `json:"text"`
	Result   string `json:"result"`
	Error    string `json:"error,omitempty"`
}

func (r askResp) answer() string {
	for _, v := range []string{r.Answer, r.Response, r.Reply, r.Message, r.Text, r.Result} {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func (p *RemoteProvider) Ask(ctx context.Context, question string) (string, error) {
	if p.Client == nil {
		return "", errors.New("assistant: http client is nil")
	}

	b, err := json.Marshal(askReq{Question: question})
	if err != nil {
		return "", err
	}

	url := strings.TrimRight(p.BaseURL, "/") + p.Path

	var lastErr error
	for attempt := 0; attempt <= p.Retries; attempt++ {
		answer, err := p.askOnce(ctx, url, b)
		if err == nil {
			return answer, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return "", lastErr
}

func (p *RemoteProvider) askOnce(ctx context.Context, url string, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.APIKey != "" {
		req.Header.Set("X-API-Key", p.APIKey)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("assistant: status %d", resp.StatusCode)
	}

	var decoded askResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	if decoded.Error != "" {
		return "", errors.New(decoded.Error)
	}
	answer := decoded.answer()
	if answer == "" {
		return "", errors.New("assistant: empty answer")
	}
	return answer, nil
}

// HealthCheck probes the endpoint with a hard 5-second abort.
func (p *RemoteProvider) HealthCheck(ctx context.Context) error {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(cctx, http.MethodGet, strings.TrimRight(p.BaseURL, "/")+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("assistant: health status %d", resp.StatusCode)
	}
	return nil
}
