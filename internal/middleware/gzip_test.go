package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithGzipResponse(t *testing.T) {
	tests := []struct {
		name           string
		acceptEncoding string
		expectGzip     bool
	}{
		{"gzip accepted", "gzip, deflate", true},
		{"no gzip accepted", "", false},
		{"other encoding", "br", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(`{"urls":[]}`))
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Accept-Encoding", tt.acceptEncoding)

			rec := httptest.NewRecorder()
			WithGzipResponse(handler).ServeHTTP(rec, req)
			resp := rec.Result()
			defer resp.Body.Close()

			assert.Equal(t, http.StatusOK, resp.StatusCode)

			body := resp.Body
			if tt.expectGzip {
				require.Equal(t, "gzip", resp.Header.Get("Content-Encoding"))
				gr, err := gzip.NewReader(resp.Body)
				require.NoError(t, err)
				defer gr.Close()
				body = gr
			} else {
				assert.Empty(t, resp.Header.Get("Content-Encoding"))
			}

			b, err := io.ReadAll(body)
			require.NoError(t, err)
			assert.Equal(t, `{"urls":[]}`, string(b))
		})
	}
}

func TestWithGzipRequest(t *testing.T) {
	t.Run("valid gzip request", func(t *testing.T) {
		var bodyBuf bytes.Buffer
		gzw := gzip.NewWriter(&bodyBuf)
		_, _ = gzw.Write([]byte(`{"originalUrl":"https://example.com"}`))
		require.NoError(t, gzw.Close())

		req := httptest.NewRequest(http.MethodPost, "/", &bodyBuf)
		req.Header.Set("Content-Encoding", "gzip")

		rec := httptest.NewRecorder()
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			assert.Equal(t, `{"originalUrl":"https://example.com"}`, string(b))
			assert.Empty(t, r.Header.Get("Content-Encoding"))
			w.WriteHeader(http.StatusOK)
		})

		WithGzipRequest(handler).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("plain request passes through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("plain"))

		rec := httptest.NewRecorder()
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			assert.Equal(t, "plain", string(b))
		})

		WithGzipRequest(handler).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("invalid gzip request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("not gzip data"))
		req.Header.Set("Content-Encoding", "gzip")

		rec := httptest.NewRecorder()
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called on invalid gzip")
		})

		WithGzipRequest(handler).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"Failed to decompress request body"}`, rec.Body.String())
	})
}
