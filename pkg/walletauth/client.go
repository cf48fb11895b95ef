package walletauth

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strings"
)

// Client is an HTTP client that signs every outgoing request with the
// wallet keypair. A fresh token is minted per request; tokens are never
// reused.
type Client struct {
	httpClient *http.Client
	signer     *Signer
	opts       SignOptions
	baseURL    string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// NewClient creates a signing HTTP client. Every request is stamped with
// the given audience and issuer claims.
func NewClient(baseURL string, signer *Signer, opts SignOptions, clientOpts ...ClientOption) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		signer:     signer,
		opts:       opts,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}

	for _, opt := range clientOpts {
		opt(c)
	}

	return c
}

// Address returns the wallet address the client signs as.
func (c *Client) Address() string {
	return c.signer.Address()
}

// Do signs the request and sends it. The body bytes must be passed
// explicitly so they can be digested; pass nil for bodyless requests.
func (c *Client) Do(req *http.Request, body []byte) (*http.Response, error) {
	if err := c.signer.SignRequest(req, c.opts, body); err != nil {
		return nil, fmt.Errorf("sign request: %w", err)
	}
	return c.httpClient.Do(req)
}

// Get performs a signed GET request.
func (c *Client) Get(path string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req, nil)
}

// Post performs a signed POST request.
func (c *Client) Post(path string, contentType string, body []byte) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	return c.Do(req, body)
}

// PostJSON performs a signed POST request with a JSON body.
func (c *Client) PostJSON(path string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return c.Post(path, "application/json", data)
}

// Delete performs a signed DELETE request.
func (c *Client) Delete(path string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req, nil)
}

// GetJSON performs a signed GET and decodes the JSON response into out.
// Returns an *AuthRejection for 401/403 responses.
func (c *Client) GetJSON(path string, out any) error {
	resp, err := c.Get(path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if rej := ParseAuthRejection(resp); rej != nil {
		return rej
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d for GET %s", resp.StatusCode, path)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// PostJSONDecode performs a signed JSON POST and decodes the JSON
// response into out. Returns an *AuthRejection for 401/403 responses.
func (c *Client) PostJSONDecode(path string, body, out any) error {
	resp, err := c.PostJSON(path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if rej := ParseAuthRejection(resp); rej != nil {
		return rej
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d for POST %s", resp.StatusCode, path)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// AuthRejection is a structured rejection received from a server.
type AuthRejection struct {
	StatusCode int
	Code       string
}

func (e *AuthRejection) Error() string {
	return fmt.Sprintf("authentication rejected: %s", e.Code)
}

// UserFriendlyMessage returns a message suitable for terminal display.
func (e *AuthRejection) UserFriendlyMessage() string {
	switch e.Code {
	case ErrCodeMissingToken:
		return "Authentication failed: credential token required"
	case ErrCodeMalformedToken:
		return "Authentication failed: token could not be decoded"
	case ErrCodeInvalidSignature:
		return "Authentication failed: signature verification failed"
	case ErrCodeExpired, ErrCodeNotYetValid:
		return clockSyncMessage()
	case ErrCodeAudienceMismatch:
		return "Authentication failed: token was minted for a different service"
	case ErrCodeIssuerMismatch:
		return "Authentication failed: token issuer not accepted"
	case ErrCodeBindingMismatch:
		return "Authentication failed: token bound to a different request"
	case ErrCodeOriginRejected:
		return "Authentication failed: request origin not allowed"
	case ErrCodeReplay:
		return "Authentication failed: token already used"
	default:
		return fmt.Sprintf("Authentication failed: %s", e.Code)
	}
}

// IsClockError returns true if the rejection suggests clock
// synchronization issues.
func (e *AuthRejection) IsClockError() bool {
	return e.Code == ErrCodeExpired || e.Code == ErrCodeNotYetValid
}

// clockSyncMessage returns a clock-drift message with a platform-specific
// fix command.
func clockSyncMessage() string {
	base := "Authentication failed: system clock is out of sync"
	switch runtime.GOOS {
	case "linux":
		return base + "\nFix: sudo timedatectl set-ntp true"
	case "darwin":
		return base + "\nFix: sudo sntp -sS time.apple.com"
	case "windows":
		return base + "\nFix: w32tm /resync"
	default:
		return base + " (check NTP settings)"
	}
}

// ParseAuthRejection parses a structured rejection from an HTTP
// response. Returns nil if the response is not a 401/403.
func ParseAuthRejection(resp *http.Response) *AuthRejection {
	if resp.StatusCode != http.StatusUnauthorized && resp.StatusCode != http.StatusForbidden {
		return nil
	}

	var errorResp struct {
		Error string `json:"error"`
	}

	if resp.Body != nil {
		body, err := io.ReadAll(resp.Body)
		if err == nil {
			json.Unmarshal(body, &errorResp)
		}
	}

	code := errorResp.Error
	if code == "" {
		code = "unknown"
	}

	return &AuthRejection{
		StatusCode: resp.StatusCode,
		Code:       code,
	}
}
