package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/atfitk/websystem-api/internal/models"
)

const defaultTimeout = 30 * time.Second

// TokenStore keeps the bearer token between calls.
type TokenStore interface {
	Token() string
	SetToken(token string)
	Clear()
}

// MemoryTokenStore is a TokenStore held in process memory.
type MemoryTokenStore struct {
	mu    sync.RWMutex
	token string
}

func (s *MemoryTokenStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *MemoryTokenStore) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

func (s *MemoryTokenStore) Clear() { s.SetToken("") }

// APIError is returned for every non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// StatusOf returns the HTTP status carried by err, or 0 when err is not an APIError.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// PhotoResult mirrors the upload response.
type PhotoResult struct {
	Photo    string `json:"photo"`
	Filename string `json:"filename"`
}

// File is a downloaded export.
type File struct {
	Filename    string
	ContentType string
	Data        []byte
}

type messageResponse struct {
	Message string `json:"message"`
}

// Client talks to the registry REST API.
type Client struct {
	baseURL string
	hc      *http.Client
	tokens  TokenStore
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithTokenStore replaces the default in-memory token store.
func WithTokenStore(store TokenStore) Option {
	return func(c *Client) { c.tokens = store }
}

// New builds a client for the API root, e.g. "http://localhost:3001".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: defaultTimeout},
		tokens:  &MemoryTokenStore{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tokens exposes the token store.
func (c *Client) Tokens() TokenStore { return c.tokens }

// Login authenticates and stores the issued token.
func (c *Client) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	var resp models.LoginResponse
	req := models.LoginRequest{Username: username, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", req, &resp); err != nil {
		return nil, err
	}
	c.tokens.SetToken(resp.Token)
	return &resp, nil
}

// Me returns the user behind the stored token.
func (c *Client) Me(ctx context.Context) (*models.UserInfo, error) {
	var resp models.MeResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Logout discards the token; the server keeps no session.
func (c *Client) Logout() { c.tokens.Clear() }

func (c *Client) ListStudents(ctx context.Context) ([]models.Student, error) {
	var students []models.Student
	if err := c.doJSON(ctx, http.MethodGet, "/api/students", nil, &students); err != nil {
		return nil, err
	}
	return students, nil
}

func (c *Client) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	var student models.Student
	if err := c.doJSON(ctx, http.MethodGet, studentPath(id), nil, &student); err != nil {
		return nil, err
	}
	return &student, nil
}

func (c *Client) CreateStudent(ctx context.Context, profile models.StudentProfile) (*models.Student, error) {
	var student models.Student
	if err := c.doJSON(ctx, http.MethodPost, "/api/students", profile, &student); err != nil {
		return nil, err
	}
	return &student, nil
}

// UpdateStudent sends the full profile; omitted fields are cleared server-side.
func (c *Client) UpdateStudent(ctx context.Context, id string, profile models.StudentProfile) (*models.Student, error) {
	var student models.Student
	if err := c.doJSON(ctx, http.MethodPut, studentPath(id), profile, &student); err != nil {
		return nil, err
	}
	return &student, nil
}

func (c *Client) DeleteStudent(ctx context.Context, id string) (string, error) {
	var resp messageResponse
	if err := c.doJSON(ctx, http.MethodDelete, studentPath(id), nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// UploadPhoto posts the image as the multipart field "photo".
func (c *Client) UploadPhoto(ctx context.Context, id, filename, contentType string, body io.Reader) (*PhotoResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="photo"; filename=%q`, filename))
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, body); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, studentPath(id)+"/photo", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var result PhotoResult
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) DeletePhoto(ctx context.Context, id string) (string, error) {
	var resp messageResponse
	if err := c.doJSON(ctx, http.MethodDelete, studentPath(id)+"/photo", nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// ExportJournal downloads the filtered journal in csv, xlsx or pdf.
func (c *Client) ExportJournal(ctx context.Context, filter models.StudentFilter, format string) (*File, error) {
	query := url.Values{}
	setIfNotEmpty(query, "format", format)
	setIfNotEmpty(query, "search", filter.Search)
	setIfNotEmpty(query, "group", filter.Group)
	setIfNotEmpty(query, "district", filter.District)
	setIfNotEmpty(query, "status", filter.Status)

	path := "/api/students/export"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.download(ctx, path)
}

// StudentCard downloads the printable PDF card of one student.
func (c *Client) StudentCard(ctx context.Context, id string) (*File, error) {
	return c.download(ctx, studentPath(id)+"/card")
}

// Health pings the API.
func (c *Client) Health(ctx context.Context) error {
	var resp map[string]any
	return c.doJSON(ctx, http.MethodGet, "/api/health", nil, &resp)
}

func (c *Client) download(ctx context.Context, path string) (*File, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &File{
		Filename:    attachmentName(resp.Header.Get("Content-Disposition")),
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := c.newRequest(ctx, method, path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&payload)
	if payload.Error == "" {
		payload.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: payload.Error}
}

func studentPath(id string) string {
	return "/api/students/" + url.PathEscape(id)
}

func setIfNotEmpty(values url.Values, key, value string) {
	if value != "" {
		values.Set(key, value)
	}
}

func attachmentName(disposition string) string {
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}
