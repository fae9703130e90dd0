package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/dom/task-tracker/internal/auth"
	"github.com/dom/task-tracker/internal/domain"
	"github.com/dom/task-tracker/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskHandler_Scenario(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp := testutil.DoJSON(t, http.MethodPost, ts.BaseURL()+"/auth/register", map[string]string{
		"name": "Ann", "email": "ann@x.com", "password": "secret1",
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var ann domain.User
	testutil.AssertJSONResponse(t, resp, &ann)
	resp.Body.Close()

	resp = testutil.DoJSON(t, http.MethodPost, ts.BaseURL()+"/auth/login", map[string]string{
		"email": "ann@x.com", "password": "secret1",
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login testutil.AuthResponse
	testutil.AssertJSONResponse(t, resp, &login)
	resp.Body.Close()
	token := login.Token

	resp = testutil.DoJSON(t, http.MethodPost, ts.BaseURL()+"/tasks", map[string]string{"title": "Buy milk"}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var raw map[string]interface{}
	testutil.AssertJSONResponse(t, resp, &raw)
	resp.Body.Close()
	assert.Equal(t, ann.ID.String(), raw["owner"])
	assert.Equal(t, "Buy milk", raw["title"])
	assert.Contains(t, raw, "description")
	assert.Nil(t, raw["description"])
	taskID, _ := raw["id"].(string)
	require.NotEmpty(t, taskID)

	resp = testutil.DoJSON(t, http.MethodGet, ts.BaseURL()+"/tasks", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tasks []domain.Task
	testutil.AssertJSONResponse(t, resp, &tasks)
	resp.Body.Close()
	require.Len(t, tasks, 1)
	assert.Equal(t, taskID, tasks[0].ID.String())

	resp = testutil.DoJSON(t, http.MethodPut, ts.BaseURL()+"/tasks/"+taskID, map[string]string{"title": ""}, token)
	testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "Task title cannot be empty")
	resp.Body.Close()

	_, otherToken := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	resp = testutil.DoJSON(t, http.MethodDelete, ts.BaseURL()+"/tasks/"+taskID, nil, otherToken)
	testutil.AssertErrorResponse(t, resp, http.StatusNotFound, "Task not found")
	resp.Body.Close()

	// Still there for Ann.
	resp = testutil.DoJSON(t, http.MethodGet, ts.BaseURL()+"/tasks/"+taskID, nil, token)
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	resp.Body.Close()
}

func TestTaskHandler_RequiresAuthentication(t *testing.T) {
	ts := testutil.NewTestServer(t)
	id := uuid.New().String()

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/tasks"},
		{http.MethodPost, "/tasks"},
		{http.MethodGet, "/tasks/" + id},
		{http.MethodPut, "/tasks/" + id},
		{http.MethodDelete, "/tasks/" + id},
	}

	tokens := map[string]string{
		"no token":      "",
		"garbage token": "not.a.token",
	}

	for _, route := range routes {
		for name, token := range tokens {
			t.Run(route.method+" "+route.path+" "+name, func(t *testing.T) {
				resp := testutil.DoJSON(t, route.method, ts.APIURL(route.path), map[string]string{"title": "x"}, token)
				defer resp.Body.Close()
				testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, "unauthenticated")
			})
		}
	}
}

func TestTaskHandler_Create(t *testing.T) {
	ts := testutil.NewTestServer(t)
	user, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	tests := []struct {
		name            string
		request         interface{}
		expectedStatus  int
		expectedMessage string
		checkTask       func(*testing.T, *domain.Task)
	}{
		{
			name:           "title and description",
			request:        map[string]string{"title": "Write tests", "description": "for handlers"},
			expectedStatus: http.StatusCreated,
			checkTask: func(t *testing.T, task *domain.Task) {
				assert.Equal(t, "Write tests", task.Title)
				require.NotNil(t, task.Description)
				assert.Equal(t, "for handlers", *task.Description)
				assert.Equal(t, user.ID, task.OwnerID)
				assert.Equal(t, task.CreatedAt, task.UpdatedAt)
			},
		},
		{
			name:           "explicit null description",
			request:        `{"title": "No description", "description": null}`,
			expectedStatus: http.StatusCreated,
			checkTask: func(t *testing.T, task *domain.Task) {
				assert.Nil(t, task.Description)
			},
		},
		{
			name:            "missing title",
			request:         map[string]string{"description": "orphan"},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Task title cannot be empty",
		},
		{
			name:            "whitespace title",
			request:         map[string]string{"title": "   "},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Task title cannot be empty",
		},
		{
			name:            "owner in body is rejected",
			request:         map[string]string{"title": "sneaky", "owner": uuid.New().String()},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Invalid request body",
		},
		{
			name:            "not json",
			request:         "title=x",
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := testutil.DoJSON(t, http.MethodPost, ts.APIURL("/tasks"), tt.request, token)
			defer resp.Body.Close()

			if tt.expectedMessage != "" {
				testutil.AssertErrorResponse(t, resp, tt.expectedStatus, tt.expectedMessage)
				return
			}

			testutil.AssertStatusCode(t, resp, tt.expectedStatus)
			var task domain.Task
			testutil.AssertJSONResponse(t, resp, &task)
			tt.checkTask(t, &task)
		})
	}
}

func TestTaskHandler_ListIsOwnerScoped(t *testing.T) {
	ts := testutil.NewTestServer(t)
	alice, aliceToken := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	bob, bobToken := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	base := time.Now().UTC().Add(-time.Minute)
	first := testutil.NewTaskBuilder(alice.ID).WithTitle("first").WithCreatedAt(base).Build(t, ts.Repos.Task)
	second := testutil.NewTaskBuilder(alice.ID).WithTitle("second").WithCreatedAt(base.Add(time.Second)).Build(t, ts.Repos.Task)
	testutil.NewTaskBuilder(bob.ID).WithTitle("bob's").Build(t, ts.Repos.Task)

	resp := testutil.DoJSON(t, http.MethodGet, ts.APIURL("/tasks"), nil, aliceToken)
	defer resp.Body.Close()
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var tasks []domain.Task
	testutil.AssertJSONResponse(t, resp, &tasks)
	require.Len(t, tasks, 2)
	assert.Equal(t, first.ID, tasks[0].ID)
	assert.Equal(t, second.ID, tasks[1].ID)

	t.Run("empty list is an array", func(t *testing.T) {
		_, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
		resp := testutil.DoJSON(t, http.MethodGet, ts.APIURL("/tasks"), nil, token)
		defer resp.Body.Close()

		testutil.AssertStatusCode(t, resp, http.StatusOK)
		assert.JSONEq(t, "[]", testutil.ReadBody(t, resp))
	})

	t.Run("bob sees only his own", func(t *testing.T) {
		resp := testutil.DoJSON(t, http.MethodGet, ts.APIURL("/tasks"), nil, bobToken)
		defer resp.Body.Close()

		var bobs []domain.Task
		testutil.AssertJSONResponse(t, resp, &bobs)
		require.Len(t, bobs, 1)
		assert.Equal(t, bob.ID, bobs[0].OwnerID)
	})
}

func TestTaskHandler_Update(t *testing.T) {
	ts := testutil.NewTestServer(t)
	user, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	tests := []struct {
		name            string
		request         interface{}
		expectedStatus  int
		expectedMessage string
		wantDesc        *string
	}{
		{
			name:           "replace both fields",
			request:        map[string]string{"title": "updated", "description": "new text"},
			expectedStatus: http.StatusOK,
			wantDesc:       strPtr("new text"),
		},
		{
			name:           "omitted description is cleared",
			request:        map[string]string{"title": "updated"},
			expectedStatus: http.StatusOK,
		},
		{
			name:            "empty title",
			request:         map[string]string{"title": ""},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Task title cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := testutil.NewTaskBuilder(user.ID).
				WithTitle("original").
				WithDescription("original text").
				WithCreatedAt(time.Now().Add(-time.Hour)).
				Build(t, ts.Repos.Task)

			resp := testutil.DoJSON(t, http.MethodPut, ts.APIURL("/tasks/"+task.ID.String()), tt.request, token)
			defer resp.Body.Close()

			if tt.expectedMessage != "" {
				testutil.AssertErrorResponse(t, resp, tt.expectedStatus, tt.expectedMessage)
				return
			}

			testutil.AssertStatusCode(t, resp, tt.expectedStatus)
			var got domain.Task
			testutil.AssertJSONResponse(t, resp, &got)
			assert.Equal(t, task.ID, got.ID)
			assert.Equal(t, "updated", got.Title)
			assert.Equal(t, tt.wantDesc, got.Description)
			assert.True(t, task.CreatedAt.Equal(got.CreatedAt))
			assert.True(t, got.UpdatedAt.After(task.UpdatedAt))
		})
	}
}

func TestTaskHandler_NotFoundIsUniform(t *testing.T) {
	ts := testutil.NewTestServer(t)
	owner, _ := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	_, intruderToken := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	task := testutil.NewTaskBuilder(owner.ID).Build(t, ts.Repos.Task)

	ids := map[string]string{
		"foreign task": task.ID.String(),
		"random id":    uuid.New().String(),
		"malformed id": "not-a-uuid",
	}

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		bodies := make(map[string]string)
		for name, id := range ids {
			resp := testutil.DoJSON(t, method, ts.APIURL("/tasks/"+id), map[string]string{"title": "x"}, intruderToken)
			assert.Equal(t, http.StatusNotFound, resp.StatusCode, "%s %s", method, name)
			bodies[name] = testutil.ReadBody(t, resp)
			resp.Body.Close()
		}
		assert.Equal(t, bodies["random id"], bodies["foreign task"], method)
		assert.Equal(t, bodies["random id"], bodies["malformed id"], method)

		var body map[string]string
		require.NoError(t, json.Unmarshal([]byte(bodies["foreign task"]), &body))
		assert.Equal(t, "Task not found", body["message"])
	}

	got, err := ts.Repos.Task.GetByOwner(context.Background(), owner.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.Title, got.Title)
}

func TestTaskHandler_Delete(t *testing.T) {
	ts := testutil.NewTestServer(t)
	user, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	task := testutil.NewTaskBuilder(user.ID).Build(t, ts.Repos.Task)

	resp := testutil.DoJSON(t, http.MethodDelete, ts.APIURL("/tasks/"+task.ID.String()), nil, token)
	testutil.AssertStatusCode(t, resp, http.StatusNoContent)
	assert.Empty(t, testutil.ReadBody(t, resp))
	resp.Body.Close()

	resp = testutil.DoJSON(t, http.MethodGet, ts.APIURL("/tasks/"+task.ID.String()), nil, token)
	testutil.AssertErrorResponse(t, resp, http.StatusNotFound, "Task not found")
	resp.Body.Close()

	resp = testutil.DoJSON(t, http.MethodDelete, ts.APIURL("/tasks/"+task.ID.String()), nil, token)
	testutil.AssertErrorResponse(t, resp, http.StatusNotFound, "Task not found")
	resp.Body.Close()
}

func TestTaskHandler_TokenForDeletedUserIsRejected(t *testing.T) {
	ts := testutil.NewTestServer(t)

	token, err := auth.NewTokenService(ts.Config.JWTSecret, ts.Config.TokenTTL()).Issue(uuid.New())
	require.NoError(t, err)

	resp := testutil.DoJSON(t, http.MethodGet, ts.APIURL("/tasks"), nil, token)
	defer resp.Body.Close()
	testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, "unauthenticated")
}

func strPtr(s string) *string { return &s }
