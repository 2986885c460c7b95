package httputil

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "certledger/pkg/domain-errors"
)

type testRequest struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type validatedRequest struct {
	Name string `json:"name"`
}

func (r *validatedRequest) Normalize() {
	r.Name = "normalized:" + r.Name
}

func (r *validatedRequest) Validate() error {
	if r.Name == "normalized:" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestDecodeJSON_Success(t *testing.T) {
	body := bytes.NewBufferString(`{"name":"block","count":3}`)
	r := httptest.NewRequest(http.MethodPost, "/", body)
	w := httptest.NewRecorder()

	req, ok := DecodeJSON[testRequest](w, r, testLogger())
	require.True(t, ok)
	assert.Equal(t, "block", req.Name)
	assert.Equal(t, 3, req.Count)
}

func TestDecodeJSON_MalformedBody(t *testing.T) {
	body := bytes.NewBufferString(`{"name":`)
	r := httptest.NewRequest(http.MethodPost, "/", body)
	w := httptest.NewRecorder()

	req, ok := DecodeJSON[testRequest](w, r, testLogger())
	assert.False(t, ok)
	assert.Nil(t, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(dErrors.CodeBadRequest), resp["error"])
}

func TestDecodeAndPrepare_NormalizesThenValidates(t *testing.T) {
	body := bytes.NewBufferString(`{"name":"x"}`)
	r := httptest.NewRequest(http.MethodPost, "/", body)
	w := httptest.NewRecorder()

	req, ok := DecodeAndPrepare[validatedRequest](w, r, testLogger())
	require.True(t, ok)
	assert.Equal(t, "normalized:x", req.Name)
}

func TestDecodeAndPrepare_ValidationFailure(t *testing.T) {
	body := bytes.NewBufferString(`{"name":""}`)
	r := httptest.NewRequest(http.MethodPost, "/", body)
	w := httptest.NewRecorder()

	_, ok := DecodeAndPrepare[validatedRequest](w, r, testLogger())
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(dErrors.CodeValidation), resp["error"])
}

func TestWriteError_DomainCodes(t *testing.T) {
	tests := []struct {
		code dErrors.Code
		want int
	}{
		{dErrors.CodeNotFound, http.StatusNotFound},
		{dErrors.CodeValidation, http.StatusBadRequest},
		{dErrors.CodeConflict, http.StatusConflict},
		{dErrors.CodeUnauthorized, http.StatusUnauthorized},
		{dErrors.CodeForbidden, http.StatusForbidden},
		{dErrors.CodeStorage, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, dErrors.New(tt.code, "boom"))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestWriteError_UnknownError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, io.ErrUnexpectedEOF)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
