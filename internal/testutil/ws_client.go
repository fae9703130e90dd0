package testutil

import (
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/dom/task-tracker/internal/domain"
	"github.com/dom/task-tracker/internal/websocket"
	gorillaWS "github.com/gorilla/websocket"
)

// WSClient is a test client for the task event stream
type WSClient struct {
	t        *testing.T
	conn     *gorillaWS.Conn
	messages chan *websocket.Message
	errors   chan error
	done     chan struct{}
	mu       sync.Mutex
}

// DialWS connects to url and returns the handshake response along with any
// dial error, without failing the test.
func DialWS(url string) (*gorillaWS.Conn, *http.Response, error) {
	dialer := *gorillaWS.DefaultDialer
	dialer.HandshakeTimeout = 5 * time.Second
	return dialer.Dial(url, nil)
}

// NewWSClient creates a new WebSocket test client
func NewWSClient(t *testing.T, url string) *WSClient {
	t.Helper()

	conn, _, err := DialWS(url)
	if err != nil {
		t.Fatalf("failed to connect to websocket: %v", err)
	}

	client := &WSClient{
		t:        t,
		conn:     conn,
		messages: make(chan *websocket.Message, 100),
		errors:   make(chan error, 10),
		done:     make(chan struct{}),
	}

	go client.readPump()

	t.Cleanup(func() {
		client.Close()
	})

	return client
}

// readPump reads messages from the WebSocket connection
func (c *WSClient) readPump() {
	defer close(c.messages)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			case c.errors <- err:
			}
			return
		}

		var msg websocket.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.errors <- err
			continue
		}

		select {
		case c.messages <- &msg:
		case <-c.done:
			return
		}
	}
}

// Close closes the WebSocket connection gracefully
func (c *WSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return
	default:
		close(c.done)
		c.conn.WriteMessage(gorillaWS.CloseMessage, gorillaWS.FormatCloseMessage(gorillaWS.CloseNormalClosure, ""))
		c.conn.Close()
	}
}

// WaitForConnection blocks until the server has registered the connection
// and acknowledged it with CONNECTED
func (c *WSClient) WaitForConnection(timeout time.Duration) *websocket.ConnectedPayload {
	c.t.Helper()

	msg := c.ExpectMessage(websocket.MessageTypeConnected, timeout)
	var payload websocket.ConnectedPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.t.Fatalf("failed to unmarshal CONNECTED payload: %v", err)
	}
	return &payload
}

// ExpectMessage waits for a message of the given type, skipping others
func (c *WSClient) ExpectMessage(msgType websocket.MessageType, timeout time.Duration) *websocket.Message {
	c.t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case msg := <-c.messages:
			if msg == nil {
				c.t.Fatalf("connection closed while waiting for %s", msgType)
			}
			if msg.Type == msgType {
				return msg
			}
		case err := <-c.errors:
			c.t.Fatalf("error while waiting for %s: %v", msgType, err)
		case <-deadline:
			c.t.Fatalf("timeout waiting for message type %s", msgType)
		}
	}
}

// ExpectTask waits for a TASK_CREATED or TASK_UPDATED message and decodes the task
func (c *WSClient) ExpectTask(msgType websocket.MessageType, timeout time.Duration) *domain.Task {
	c.t.Helper()

	msg := c.ExpectMessage(msgType, timeout)
	var task domain.Task
	if err := json.Unmarshal(msg.Payload, &task); err != nil {
		c.t.Fatalf("failed to unmarshal %s payload: %v", msgType, err)
	}
	return &task
}

// ExpectTaskDeleted waits for a TASK_DELETED message
func (c *WSClient) ExpectTaskDeleted(timeout time.Duration) *websocket.TaskDeletedPayload {
	c.t.Helper()

	msg := c.ExpectMessage(websocket.MessageTypeTaskDeleted, timeout)
	var payload websocket.TaskDeletedPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.t.Fatalf("failed to unmarshal TASK_DELETED payload: %v", err)
	}
	return &payload
}

// ExpectNoMessage fails if any message arrives within timeout
func (c *WSClient) ExpectNoMessage(timeout time.Duration) {
	c.t.Helper()

	select {
	case msg := <-c.messages:
		if msg != nil {
			c.t.Fatalf("unexpected message received: %s", msg.Type)
		}
	case <-time.After(timeout):
		// Expected - no message received
	}
}

// ExpectClosed waits for the server to close the connection
func (c *WSClient) ExpectClosed(timeout time.Duration) {
	c.t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case msg, ok := <-c.messages:
			if !ok || msg == nil {
				return
			}
		case <-c.errors:
			return
		case <-deadline:
			c.t.Fatalf("timeout waiting for connection to close")
		}
	}
}

// WaitForMessageCount collects exactly count messages
func (c *WSClient) WaitForMessageCount(count int, timeout time.Duration) []*websocket.Message {
	c.t.Helper()

	messages := make([]*websocket.Message, 0, count)
	deadline := time.After(timeout)

	for len(messages) < count {
		select {
		case msg := <-c.messages:
			if msg == nil {
				c.t.Fatalf("connection closed after receiving %d/%d messages", len(messages), count)
			}
			messages = append(messages, msg)
		case err := <-c.errors:
			c.t.Fatalf("error after receiving %d/%d messages: %v", len(messages), count, err)
		case <-deadline:
			c.t.Fatalf("timeout waiting for messages: got %d/%d", len(messages), count)
		}
	}

	return messages
}
