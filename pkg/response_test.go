package pkg

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteResponse(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteResponse(rr, ContentType.Text, "hello there", http.StatusOK)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "hello there", rr.Body.String())
	assert.Equal(t, ContentType.Text, rr.Header().Get("Content-Type"))
}

func TestWriteJSONResponseOK(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteJSONResponseOK(rr, `{"message":"ok"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `{"message":"ok"}`, rr.Body.String())
	assert.Equal(t, ContentType.JSON, rr.Header().Get("Content-Type"))
}

func TestWriteResponse_Status(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteResponse(rr, ContentType.JSON, `{"error":"nope"}`, http.StatusConflict)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, `{"error":"nope"}`, rr.Body.String())
}
