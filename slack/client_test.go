package slack

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient("xoxb-test")
	c.baseURL = srv.URL
	return c
}

func TestPostMessageReturnsTimestamp(t *testing.T) {
	var gotAuth string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/chat.postMessage", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "C1", body["channel"])

		json.NewEncoder(w).Encode(map[string]any{"ok": true, "ts": "123.456"})
	})

	ts, err := c.PostMessage(context.Background(), "C1", []Block{Divider("")}, "hi")
	require.NoError(t, err)
	assert.Equal(t, "123.456", ts)
	assert.Equal(t, "Bearer xoxb-test", gotAuth)
}

func TestCallSurfacesPlatformError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "channel_not_found"})
	})

	err := c.UpdateMessage(context.Background(), "C1", "123.456", nil)
	var gw *GatewayError
	require.True(t, errors.As(err, &gw))
	assert.Equal(t, "channel_not_found", gw.Code)
	assert.Equal(t, http.StatusOK, gw.StatusCode)
}

func TestCallSurfacesHTTPError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	err := c.DeleteScheduledMessage(context.Background(), "C1", "sched-1")
	var gw *GatewayError
	require.True(t, errors.As(err, &gw))
	assert.Equal(t, http.StatusTooManyRequests, gw.StatusCode)
}

func TestListScheduledMessagesPaginates(t *testing.T) {
	calls := 0
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat.scheduledMessages.list", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		calls++
		switch calls {
		case 1:
			assert.Nil(t, body["cursor"])
			json.NewEncoder(w).Encode(map[string]any{
				"ok":                 true,
				"scheduled_messages": []map[string]any{{"id": "a"}, {"id": "b"}},
				"response_metadata":  map[string]any{"next_cursor": "page2"},
			})
		case 2:
			assert.Equal(t, "page2", body["cursor"])
			json.NewEncoder(w).Encode(map[string]any{
				"ok":                 true,
				"scheduled_messages": []map[string]any{{"id": "c"}},
			})
		default:
			t.Fatal("unexpected extra page request")
		}
	})

	msgs, err := c.ListScheduledMessages(context.Background(), "C1")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "a", msgs[0].ID)
	assert.Equal(t, "c", msgs[2].ID)
}

func TestScheduleMessageReturnsID(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 1767000000, body["post_at"])
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "scheduled_message_id": "Q123"})
	})

	id, err := c.ScheduleMessage(context.Background(), "C1", nil, "Recurring poll", 1767000000)
	require.NoError(t, err)
	assert.Equal(t, "Q123", id)
}
