// Package client is a Go client for the distribution service HTTP API.
// Base URL and bearer token are fields of Client and every call takes a
// context, so several clients can talk to different servers at once.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Client calls the distribution service
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// APIError is a non-2xx response
type APIError struct {
	StatusCode int
	Message    string `json:"message"`
	Detail     string `json:"error"`
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Message, e.Detail)
	}
	return fmt.Sprintf("%d %s", e.StatusCode, e.Message)
}

// AuthResponse is returned by login and register
type AuthResponse struct {
	Token string `json:"token"`
	Admin Admin  `json:"admin"`
}

// AgentRequest creates or updates an agent. Password is ignored on update.
type AgentRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	MobileNumber string `json:"mobileNumber"`
	Password     string `json:"password,omitempty"`
}

// UploadResponse describes one distributed file
type UploadResponse struct {
	Message      string              `json:"message"`
	TotalItems   int                 `json:"totalItems"`
	DroppedRows  int                 `json:"droppedRows"`
	AgentsCount  int                 `json:"agentsCount"`
	Distribution []AgentDistribution `json:"distribution"`
}

// Summary is the per-agent count over everything stored
type Summary struct {
	TotalItems   int64          `json:"totalItems"`
	AgentsCount  int            `json:"agentsCount"`
	Distribution []AgentSummary `json:"distribution"`
}

// DeleteFileResponse is returned when a whole upload batch is removed
type DeleteFileResponse struct {
	Message      string `json:"message"`
	DeletedCount int64  `json:"deletedCount"`
}

// New creates a client with a default timeout
func New(baseURL, token string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) Register(ctx context.Context, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", map[string]string{"email": email, "password": password}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login authenticates and stores the returned token on the client
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password}, &resp)
	if err != nil {
		return nil, err
	}
	c.Token = resp.Token
	return &resp, nil
}

func (c *Client) CurrentAdmin(ctx context.Context) (*Admin, error) {
	var admin Admin
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/user", nil, &admin); err != nil {
		return nil, err
	}
	return &admin, nil
}

func (c *Client) ListAgents(ctx context.Context) ([]Agent, error) {
	var agents []Agent
	if err := c.doJSON(ctx, http.MethodGet, "/api/agents", nil, &agents); err != nil {
		return nil, err
	}
	return agents, nil
}

func (c *Client) GetAgent(ctx context.Context, id uint) (*Agent, error) {
	var agent Agent
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/agents/%d", id), nil, &agent); err != nil {
		return nil, err
	}
	return &agent, nil
}

func (c *Client) CreateAgent(ctx context.Context, req AgentRequest) (*Agent, error) {
	var agent Agent
	if err := c.doJSON(ctx, http.MethodPost, "/api/agents", req, &agent); err != nil {
		return nil, err
	}
	return &agent, nil
}

func (c *Client) UpdateAgent(ctx context.Context, id uint, req AgentRequest) (*Agent, error) {
	req.Password = ""
	var agent Agent
	if err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/api/agents/%d", id), req, &agent); err != nil {
		return nil, err
	}
	return &agent, nil
}

func (c *Client) DeleteAgent(ctx context.Context, id uint) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/agents/%d", id), nil, nil)
}

// UploadFile sends the file at path as the multipart "file" field
func (c *Client) UploadFile(ctx context.Context, path string) (*UploadResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return c.Upload(ctx, filepath.Base(path), f)
}

// Upload streams r to the server under fileName
func (c *Client) Upload(ctx context.Context, fileName string, r io.Reader) (*UploadResponse, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	var resp UploadResponse
	if err := c.do(ctx, http.MethodPost, "/api/lists/upload", &buf, w.FormDataContentType(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Lists returns stored items. agentID 0 means every agent.
func (c *Client) Lists(ctx context.Context, agentID uint, search string) ([]ListItem, error) {
	q := url.Values{}
	if agentID != 0 {
		q.Set("agentId", strconv.FormatUint(uint64(agentID), 10))
	}
	if search != "" {
		q.Set("search", search)
	}
	path := "/api/lists"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var items []ListItem
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) AgentLists(ctx context.Context, agentID uint) ([]ListItem, error) {
	var items []ListItem
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/lists/agent/%d", agentID), nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) Summary(ctx context.Context) (*Summary, error) {
	var summary Summary
	if err := c.doJSON(ctx, http.MethodGet, "/api/lists/summary", nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *Client) Files(ctx context.Context) ([]FileBatch, error) {
	var files []FileBatch
	if err := c.doJSON(ctx, http.MethodGet, "/api/lists/files", nil, &files); err != nil {
		return nil, err
	}
	return files, nil
}

func (c *Client) DeleteItem(ctx context.Context, id uint) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/lists/%d", id), nil, nil)
}

// DeleteFile removes every item uploaded under fileName
func (c *Client) DeleteFile(ctx context.Context, fileName string) (*DeleteFileResponse, error) {
	var resp DeleteFileResponse
	if err := c.doJSON(ctx, http.MethodDelete, "/api/lists/file/"+url.PathEscape(fileName), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	contentType := ""
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, body, contentType, out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(respBody, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(respBody))
		}
		return apiErr
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	return json.Unmarshal(respBody, out)
}
