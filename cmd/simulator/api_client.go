package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// APIClient handles HTTP communication with the backend
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/") + "/api",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Response types matching backend

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type Task struct {
	ID          string    `json:"id"`
	Owner       string    `json:"owner"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type StreamMessage struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

// StatusError is returned when the server answers with an unexpected status.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

// Register creates a new account
func (c *APIClient) Register(name, email, password string) (*User, error) {
	resp, err := c.do(http.MethodPost, "/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, "")
	if err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	defer resp.Body.Close()

	var user User
	if err := decode(resp, http.StatusCreated, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for a bearer token
func (c *APIClient) Login(email, password string) (*LoginResponse, error) {
	resp, err := c.do(http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	var result LoginResponse
	if err := decode(resp, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RegisterAndLogin creates a uniquely named account and logs it in
func (c *APIClient) RegisterAndLogin(baseName, password string) (*User, string, error) {
	suffix := time.Now().UnixNano() % 1000000
	name := fmt.Sprintf("%s_%d", baseName, suffix)
	email := fmt.Sprintf("%s_%d@example.com", strings.ToLower(baseName), suffix)

	if _, err := c.Register(name, email, password); err != nil {
		return nil, "", err
	}
	login, err := c.Login(email, password)
	if err != nil {
		return nil, "", err
	}
	return &login.User, login.Token, nil
}

func (c *APIClient) CreateTask(token, title string, description *string) (*Task, error) {
	resp, err := c.do(http.MethodPost, "/tasks", taskBody(title, description), token)
	if err != nil {
		return nil, fmt.Errorf("create task request failed: %w", err)
	}
	defer resp.Body.Close()

	var task Task
	if err := decode(resp, http.StatusCreated, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *APIClient) ListTasks(token string) ([]Task, error) {
	resp, err := c.do(http.MethodGet, "/tasks", nil, token)
	if err != nil {
		return nil, fmt.Errorf("list tasks request failed: %w", err)
	}
	defer resp.Body.Close()

	var tasks []Task
	if err := decode(resp, http.StatusOK, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *APIClient) UpdateTask(token, id, title string, description *string) (*Task, error) {
	resp, err := c.do(http.MethodPut, "/tasks/"+id, taskBody(title, description), token)
	if err != nil {
		return nil, fmt.Errorf("update task request failed: %w", err)
	}
	defer resp.Body.Close()

	var task Task
	if err := decode(resp, http.StatusOK, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *APIClient) DeleteTask(token, id string) error {
	resp, err := c.do(http.MethodDelete, "/tasks/"+id, nil, token)
	if err != nil {
		return fmt.Errorf("delete task request failed: %w", err)
	}
	defer resp.Body.Close()

	return decode(resp, http.StatusNoContent, nil)
}

// Stream opens the caller's task event feed
func (c *APIClient) Stream(token string) (*websocket.Conn, error) {
	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/tasks/stream?token=" + token

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, resp, err := dialer.Dial(wsURL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("stream handshake failed (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("stream dial failed: %w", err)
	}
	return conn, nil
}

func taskBody(title string, description *string) map[string]interface{} {
	body := map[string]interface{}{"title": title}
	if description != nil {
		body["description"] = *description
	}
	return body
}

// HTTP helpers

func (c *APIClient) do(method, path string, body interface{}, token string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.httpClient.Do(req)
}

// decode checks the status and, when v is non-nil, decodes the body into it.
// Error bodies are surfaced as a StatusError carrying the server message.
func decode(resp *http.Response, want int, v interface{}) error {
	if resp.StatusCode != want {
		var errBody struct {
			Message string `json:"message"`
		}
		raw, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(raw, &errBody) != nil || errBody.Message == "" {
			errBody.Message = strings.TrimSpace(string(raw))
		}
		return &StatusError{Status: resp.StatusCode, Message: errBody.Message}
	}

	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
