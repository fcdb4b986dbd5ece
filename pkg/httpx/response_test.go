package httpx_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/persona-ai/partner-gateway/pkg/httpx"
	"github.com/persona-ai/partner-gateway/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/token", nil)
	req = req.WithContext(slogx.WithRequestID(context.Background(), "req-1"))

	rec := httptest.NewRecorder()
	httpx.WriteError(rec, req, http.StatusUnauthorized, httpx.CodeTokenExpired, "token expired", nil)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, false, body["success"])
	require.NotEmpty(t, body["timestamp"])

	errObj := body["error"].(map[string]any)
	require.Equal(t, "AUTH_TOKEN_EXPIRED", errObj["code"])
	require.Equal(t, "token expired", errObj["message"])
	require.Equal(t, "req-1", errObj["request_id"])
	require.NotContains(t, errObj, "details")
}

func TestWriteSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.WriteSuccess(rec, http.StatusOK, map[string]bool{"granted": true})

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, true, body["success"])
	require.Equal(t, map[string]any{"granted": true}, body["data"])
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"bearer   abc", "abc", true},
		{"Basic abc", "", false},
		{"Bearer ", "", false},
		{"Bearer", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			got, ok := httpx.BearerToken(req)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestRequireAdminToken(t *testing.T) {
	call := func(token, header string) int {
		req := httptest.NewRequest(http.MethodGet, "/v1/admin/partners", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		httpx.RequireAdminToken(token)(okHandler).ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, call("s3cret", "Bearer s3cret"))
	require.Equal(t, http.StatusUnauthorized, call("s3cret", "Bearer nope"))
	require.Equal(t, http.StatusUnauthorized, call("s3cret", ""))
	require.Equal(t, http.StatusNotFound, call("", "Bearer anything"))
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(okHandler, mw("outer"), nil, mw("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"outer", "inner"}, order)
}
