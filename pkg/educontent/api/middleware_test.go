package api

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecoveryMiddleware(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("nil map write")
	})

	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()
	RecoveryMiddleware(handler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
	body := decodeError(t, rr)
	assert.Equal(t, KindInternal, body.Kind)
	assert.NotContains(t, body.Message, "nil map")
}

func TestRecoveryMiddleware_AbortHandler(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		RecoveryMiddleware(handler).ServeHTTP(rr, req)
	})
}

func TestTimeoutMiddleware(t *testing.T) {
	t.Run("silent handler gets a timeout body", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		})

		req := httptest.NewRequest("GET", "/test", nil)
		rr := httptest.NewRecorder()
		TimeoutMiddleware(10*time.Millisecond)(handler).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusGatewayTimeout, rr.Code)
		assert.Equal(t, KindTimeout, decodeError(t, rr).Kind)
	})

	t.Run("handler error after deadline", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
			renderError(w, r, r.Context().Err())
		})

		req := httptest.NewRequest("GET", "/test", nil)
		rr := httptest.NewRecorder()
		TimeoutMiddleware(10*time.Millisecond)(handler).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusGatewayTimeout, rr.Code)
		assert.Equal(t, KindTimeout, decodeError(t, rr).Kind)
	})

	t.Run("fast handler untouched", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte("done"))
		})

		req := httptest.NewRequest("GET", "/test", nil)
		rr := httptest.NewRecorder()
		TimeoutMiddleware(time.Second)(handler).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, "done", rr.Body.String())
	})
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	var readErr error
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	})
	wrapped := RequestSizeLimitMiddleware(8)(handler)

	req := httptest.NewRequest("POST", "/test", strings.NewReader("12345678"))
	wrapped.ServeHTTP(httptest.NewRecorder(), req)
	assert.NoError(t, readErr)

	req = httptest.NewRequest("POST", "/test", strings.NewReader("123456789"))
	wrapped.ServeHTTP(httptest.NewRecorder(), req)
	var tooLarge *http.MaxBytesError
	assert.True(t, errors.As(readErr, &tooLarge))
}

func TestCORSMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("wildcard allows any origin without credentials", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Origin", "https://evil.example")
		rr := httptest.NewRecorder()
		CORSMiddleware(nil, nil, nil)(ok).ServeHTTP(rr, req)

		assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, rr.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("listed origin echoed with credentials", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Origin", "https://school.example")
		rr := httptest.NewRecorder()
		CORSMiddleware([]string{"https://school.example"}, nil, nil)(ok).ServeHTTP(rr, req)

		assert.Equal(t, "https://school.example", rr.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
		assert.Equal(t, "Origin", rr.Header().Get("Vary"))
	})

	t.Run("unlisted origin gets no headers", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Origin", "https://evil.example")
		rr := httptest.NewRecorder()
		CORSMiddleware([]string{"https://school.example"}, nil, nil)(ok).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, rr.Header().Get("Access-Control-Allow-Credentials"))
	})
}
