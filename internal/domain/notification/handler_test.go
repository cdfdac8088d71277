package notification_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"herald/internal/domain/notification"
	"herald/internal/infra/store"
)

func newTestRouter(t *testing.T) (*gin.Engine, *store.MemoryStore, *stubEnqueuer) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logs := store.NewMemoryStore()
	enq := &stubEnqueuer{}
	handler := notification.NewHandler(notification.NewService(logs, enq, nil))

	r := gin.New()
	handler.RegisterRoutes(r.Group("/api/v1"))
	return r, logs, enq
}

func postJSON(r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestDispatchEndpoint_Accepted(t *testing.T) {
	r, _, enq := newTestRouter(t)

	w := postJSON(r, "/api/v1/dispatch", gin.H{
		"user_id": "u1",
		"type":    "welcome",
		"data":    gin.H{"orderId": "A-1"},
	})

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Len(t, enq.ids, 1)

	var resp struct {
		Success bool                          `json:"success"`
		Data    notification.DispatchResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Data.ID)
	assert.Equal(t, "queued", resp.Data.Status)
}

func TestDispatchEndpoint_MissingRequiredFields(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := postJSON(r, "/api/v1/dispatch", gin.H{"data": gin.H{}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDispatchEndpoint_UnknownType(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := postJSON(r, "/api/v1/dispatch", gin.H{
		"user_id": "u1",
		"type":    "smoke_signal",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestGetDispatchEndpoint(t *testing.T) {
	r, logs, _ := newTestRouter(t)

	log := &notification.DispatchLog{
		UserID: "u1",
		Type:   string(notification.TypeWelcome),
		Status: notification.StatusQueued,
	}
	require.NoError(t, logs.Create(context.Background(), log))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dispatches/"+log.ID, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	missing := httptest.NewRequest(http.MethodGet, "/api/v1/dispatches/nope", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, missing)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeliveryWebhookEndpoint(t *testing.T) {
	r, logs, _ := newTestRouter(t)

	log := &notification.DispatchLog{
		UserID: "u1",
		Type:   string(notification.TypeWelcome),
		Status: notification.StatusQueued,
	}
	require.NoError(t, logs.Create(context.Background(), log))
	outcomes := []notification.Outcome{{Channel: notification.ChannelEmail, Success: true, MessageID: "msg-9"}}
	require.NoError(t, logs.UpdateStatus(context.Background(), log.ID, notification.StatusSent, outcomes, ""))

	w := postJSON(r, "/api/v1/webhooks/delivery", gin.H{
		"event":      "delivered",
		"message_id": "msg-9",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	saved, err := logs.GetByID(context.Background(), log.ID)
	require.NoError(t, err)
	assert.Equal(t, notification.StatusDelivered, saved.Status)

	// Unhandled event types are acknowledged and ignored.
	w = postJSON(r, "/api/v1/webhooks/delivery", gin.H{
		"event":      "opened",
		"message_id": "msg-9",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ignored")
}
