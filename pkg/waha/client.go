package waha

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Config holds the gateway connection settings. One Client is built from it
// at startup and threaded through; there is no package-level singleton.
type Config struct {
	BaseURL    string
	APIKey     string // empty disables the X-Api-Key header
	Session    string
	HTTPClient *http.Client
}

// Client is a thin typed wrapper around the WAHA HTTP API.
//
// Read operations (SessionStatus, QR, ListChats, ListMessages) never return
// an error: on any failure they log and degrade to an empty/default value.
// Write operations (SendText, session control, RegisterWebhook) propagate
// errors because callers must know the action failed.
type Client struct {
	baseURL string
	apiKey  string
	session string
	http    *http.Client
}

func NewClient(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	session := cfg.Session
	if session == "" {
		session = "default"
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		session: session,
		http:    hc,
	}
}

// SessionName returns the configured gateway session name.
func (c *Client) SessionName() string { return c.session }

// newRequest builds a request with the JSON and optional API-key headers.
func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
	return req, nil
}

// doJSON executes a request and decodes a JSON response body into out.
// Returns the HTTP status code so callers can special-case 404.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) (int, error) {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return 0, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("gateway %s %s: status %d: %s", method, path, resp.StatusCode, truncate(string(data), 200))
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("gateway %s %s: decode: %w", method, path, err)
		}
	}
	return resp.StatusCode, nil
}

// SessionStatus reports the current session. Transport failures degrade to a
// DISCONNECTED session; a gateway 404 maps to NOT_FOUND.
func (c *Client) SessionStatus(ctx context.Context) Session {
	var s Session
	code, err := c.doJSON(ctx, http.MethodGet, "/api/sessions/"+url.PathEscape(c.session), nil, &s)
	if err != nil {
		if code == http.StatusNotFound {
			return Session{Name: c.session, Status: "NOT_FOUND"}
		}
		log.Printf("[waha] session status failed: %v", err)
		return Session{Name: c.session, Status: "STOPPED"}
	}
	if s.Name == "" {
		s.Name = c.session
	}
	return s
}

// StartSession asks the gateway to start the configured session.
func (c *Client) StartSession(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	_, err := c.doJSON(ctx, http.MethodPost, "/api/sessions/"+url.PathEscape(c.session)+"/start", nil, &raw)
	return raw, err
}

// StopSession stops the session but keeps its pairing.
func (c *Client) StopSession(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	_, err := c.doJSON(ctx, http.MethodPost, "/api/sessions/"+url.PathEscape(c.session)+"/stop", nil, &raw)
	return raw, err
}

// LogoutSession logs the session out, invalidating the pairing.
func (c *Client) LogoutSession(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	_, err := c.doJSON(ctx, http.MethodPost, "/api/sessions/"+url.PathEscape(c.session)+"/logout", nil, &raw)
	return raw, err
}

// QR fetches the current pairing payload. Depending on gateway version the
// endpoint answers JSON ({qr|code|value}) or a plain-text code; the
// content type decides how the payload is unwrapped. Degrades to "".
func (c *Client) QR(ctx context.Context) string {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/"+url.PathEscape(c.session)+"/auth/qr", nil)
	if err != nil {
		log.Printf("[waha] qr request build failed: %v", err)
		return ""
	}
	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("[waha] qr fetch failed: %v", err)
		return ""
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("[waha] qr fetch status=%d err=%v", resp.StatusCode, err)
		return ""
	}
	ct := resp.Header.Get("Content-Type")
	if strings.Contains(ct, "application/json") {
		var body struct {
			QR    string `json:"qr"`
			Code  string `json:"code"`
			Value string `json:"value"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			log.Printf("[waha] qr decode failed: %v", err)
			return ""
		}
		switch {
		case body.QR != "":
			return body.QR
		case body.Code != "":
			return body.Code
		default:
			return body.Value
		}
	}
	return strings.TrimSpace(string(data))
}

// ListChats returns all chats the gateway knows about. Degrades to nil.
func (c *Client) ListChats(ctx context.Context) []Chat {
	var chats []Chat
	if _, err := c.doJSON(ctx, http.MethodGet, "/api/"+url.PathEscape(c.session)+"/chats?sortBy=conversationTimestamp&sortOrder=desc", nil, &chats); err != nil {
		log.Printf("[waha] list chats failed: %v", err)
		return nil
	}
	return chats
}

// ListMessages returns up to limit recent messages of a chat. Degrades to nil.
func (c *Client) ListMessages(ctx context.Context, chatID string, limit int) []Message {
	if limit <= 0 {
		limit = 50
	}
	path := "/api/" + url.PathEscape(c.session) + "/chats/" + url.PathEscape(chatID) +
		"/messages?downloadMedia=false&limit=" + strconv.Itoa(limit)
	var msgs []Message
	if _, err := c.doJSON(ctx, http.MethodGet, path, nil, &msgs); err != nil {
		log.Printf("[waha] list messages chat=%s failed: %v", chatID, err)
		return nil
	}
	return msgs
}

// SendText sends a text message. Errors propagate: the caller must know
// delivery failed.
func (c *Client) SendText(ctx context.Context, chatID, text string) (*SendResult, error) {
	body := map[string]any{
		"session": c.session,
		"chatId":  chatID,
		"text":    text,
	}
	var res SendResult
	if _, err := c.doJSON(ctx, http.MethodPost, "/api/sendText", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// RegisterWebhook points the gateway's push events at webhookURL. The event
// set is fixed; registration is idempotent on the gateway side.
func (c *Client) RegisterWebhook(ctx context.Context, webhookURL string) error {
	body := map[string]any{
		"config": map[string]any{
			"webhooks": []map[string]any{
				{
					"url":    webhookURL,
					"events": []string{"message", "session.status"},
				},
			},
		},
	}
	_, err := c.doJSON(ctx, http.MethodPut, "/api/sessions/"+url.PathEscape(c.session), body, nil)
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
