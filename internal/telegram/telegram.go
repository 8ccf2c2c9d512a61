// Package telegram delivers report artifacts to the operations channel.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"PanelLedger/internal/config"
)

// Client talks to the Bot API. Credentials come from the environment; an
// unconfigured client logs and drops instead of failing the caller, so a
// missing bot token never breaks an import or a report run.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	chatID     string
}

// NewClientFromEnv reads TELEGRAM_URL, TELEGRAM_BOT_TOKEN and
// TELEGRAM_CHAT_ID.
func NewClientFromEnv() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    strings.TrimSuffix(os.Getenv("TELEGRAM_URL"), "/"),
		token:      os.Getenv("TELEGRAM_BOT_TOKEN"),
		chatID:     os.Getenv("TELEGRAM_CHAT_ID"),
	}
}

// NewClient builds a client with explicit settings, used by tests.
func NewClient(httpClient *http.Client, baseURL, token, chatID string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		chatID:     chatID,
	}
}

func (c *Client) Enabled() bool {
	return c.token != "" && c.chatID != ""
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s%s/%s", c.baseURL, c.token, method)
}

// SendMessage posts an HTML message, chunked to the per-message character
// budget.
func (c *Client) SendMessage(ctx context.Context, text string) error {
	if !c.Enabled() {
		log.Println("[ERROR] missing Telegram credentials, dropping message")
		return nil
	}

	for _, chunk := range chunkText(text, config.TelegramMessageLimit) {
		body, err := json.Marshal(map[string]string{
			"chat_id":    c.chatID,
			"text":       chunk,
			"parse_mode": "HTML",
		})
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL("sendMessage"), bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("send telegram message: %w", err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("send telegram message: status %d", resp.StatusCode)
		}
	}
	return nil
}

// SendDocument uploads one file to the channel. A false return without an
// error means the API rejected the upload and a retry may help.
func (c *Client) SendDocument(ctx context.Context, path string) (bool, error) {
	if !c.Enabled() {
		log.Println("[ERROR] missing Telegram credentials, dropping document")
		return false, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("chat_id", c.chatID); err != nil {
		return false, err
	}
	part, err := mw.CreateFormFile("document", filepath.Base(path))
	if err != nil {
		return false, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return false, err
	}
	if err := mw.Close(); err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL("sendDocument"), &buf)
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("send telegram document: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK, nil
}

// SendDocumentWithRetry wraps SendDocument in exponential backoff, bounded
// by the configured retry budget.
func (c *Client) SendDocumentWithRetry(ctx context.Context, path string) error {
	attempt := 0
	op := func() error {
		attempt++
		ok, err := c.SendDocument(ctx, path)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ok {
			log.Printf("[ERROR] failed to send document %s (attempt %d/%d)", path, attempt, config.MaxSendRetries)
			return fmt.Errorf("telegram rejected document %s", path)
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(config.MaxSendRetries-1)), ctx)
	return backoff.Retry(op, policy)
}

// chunkText splits text into pieces no longer than limit, preferring line
// boundaries so report tables stay readable.
func chunkText(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	chunks := []string{}
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		for len(line) > limit {
			if b.Len() > 0 {
				chunks = append(chunks, b.String())
				b.Reset()
			}
			chunks = append(chunks, line[:limit])
			line = line[limit:]
		}
		if b.Len() > 0 && b.Len()+len(line)+1 > limit {
			chunks = append(chunks, b.String())
			b.Reset()
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	if b.Len() > 0 {
		chunks = append(chunks, b.String())
	}
	return chunks
}
