package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

// TestRequestIDMiddleware_GeneratesID はヘッダーなしのリクエストでUUIDが
// 新規発行され、レスポンスヘッダーとコンテキストの両方に載ることを検証する。
func TestRequestIDMiddleware_GeneratesID(t *testing.T) {
	var ctxRequestID string
	handler := NewRequestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxRequestID = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/stocks", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	headerID := w.Header().Get("X-Request-Id")
	if headerID == "" {
		t.Fatal("expected X-Request-Id response header")
	}
	if _, err := uuid.Parse(headerID); err != nil {
		t.Errorf("X-Request-Id %q is not a valid UUID: %v", headerID, err)
	}
	if ctxRequestID != headerID {
		t.Errorf("context request ID = %q, want %q", ctxRequestID, headerID)
	}
}

// TestRequestIDMiddleware_PropagatesClientID はクライアント指定のIDが
// そのまま引き継がれることを検証する。
func TestRequestIDMiddleware_PropagatesClientID(t *testing.T) {
	handler := NewRequestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/stocks", nil)
	req.Header.Set("X-Request-Id", "client-supplied-id")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-Id"); got != "client-supplied-id" {
		t.Errorf("X-Request-Id = %q, want client-supplied-id", got)
	}
}
