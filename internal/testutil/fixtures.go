package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/dom/task-tracker/internal/domain"
	"github.com/dom/task-tracker/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	name     string
	email    string
	password string
}

// NewUserBuilder creates a new UserBuilder with default values
func NewUserBuilder() *UserBuilder {
	suffix := uuid.New().String()[:8]
	return &UserBuilder{
		name:     fmt.Sprintf("testuser_%s", suffix),
		email:    fmt.Sprintf("user_%s@example.com", suffix),
		password: "testpassword123",
	}
}

// WithName sets the display name
func (b *UserBuilder) WithName(name string) *UserBuilder {
	b.name = name
	return b
}

// WithEmail sets the email address
func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.email = email
	return b
}

// WithPassword sets the password
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

// Build stores the user directly in the repository and returns it with the
// raw password
func (b *UserBuilder) Build(t *testing.T, repo repository.UserRepository) (*domain.User, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Name:         b.name,
		Email:        domain.NormalizeEmail(b.email),
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}

	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// AuthResponse matches the login response body
type AuthResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// BuildAndAuthenticate registers and logs the user in through the API and
// returns the user and its bearer token
func (b *UserBuilder) BuildAndAuthenticate(t *testing.T, ts *TestServer) (*domain.User, string) {
	t.Helper()

	resp := DoJSON(t, http.MethodPost, ts.APIURL("/auth/register"), map[string]string{
		"name":     b.name,
		"email":    b.email,
		"password": b.password,
	}, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: unexpected status code: %d", resp.StatusCode)
	}

	resp = DoJSON(t, http.MethodPost, ts.APIURL("/auth/login"), map[string]string{
		"email":    b.email,
		"password": b.password,
	}, "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: unexpected status code: %d", resp.StatusCode)
	}

	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	return &authResp.User, authResp.Token
}

// TaskBuilder creates test tasks with a builder pattern
type TaskBuilder struct {
	owner       uuid.UUID
	title       string
	description *string
	createdAt   time.Time
}

// NewTaskBuilder creates a new TaskBuilder for the given owner
func NewTaskBuilder(owner uuid.UUID) *TaskBuilder {
	return &TaskBuilder{
		owner:     owner,
		title:     fmt.Sprintf("task_%s", uuid.New().String()[:8]),
		createdAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

// WithTitle sets the title
func (b *TaskBuilder) WithTitle(title string) *TaskBuilder {
	b.title = title
	return b
}

// WithDescription sets the description
func (b *TaskBuilder) WithDescription(description string) *TaskBuilder {
	b.description = &description
	return b
}

// WithCreatedAt sets both timestamps
func (b *TaskBuilder) WithCreatedAt(at time.Time) *TaskBuilder {
	b.createdAt = at.UTC().Truncate(time.Microsecond)
	return b
}

// Build stores the task directly in the repository
func (b *TaskBuilder) Build(t *testing.T, repo repository.TaskRepository) *domain.Task {
	t.Helper()

	task := &domain.Task{
		ID:          uuid.New(),
		OwnerID:     b.owner,
		Title:       b.title,
		Description: b.description,
		CreatedAt:   b.createdAt,
		UpdatedAt:   b.createdAt,
	}

	if err := repo.Create(context.Background(), task); err != nil {
		t.Fatalf("failed to create task: %v", err)
	}

	return task
}

// CreateAuthenticatedRequest creates an HTTP request with auth token
func CreateAuthenticatedRequest(t *testing.T, method, url string, body interface{}, token string) *http.Request {
	t.Helper()

	bodyReader := bytes.NewBuffer(nil)
	switch b := body.(type) {
	case nil:
	case string:
		bodyReader = bytes.NewBufferString(b)
	default:
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, bodyReader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

// DoJSON sends a request and returns the response. A string body is sent
// verbatim; anything else is JSON encoded. The caller closes the body.
func DoJSON(t *testing.T, method, url string, body interface{}, token string) *http.Response {
	t.Helper()

	resp, err := http.DefaultClient.Do(CreateAuthenticatedRequest(t, method, url, body, token))
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	return resp
}
