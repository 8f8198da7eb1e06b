package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteErrorAppError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, ErrInvalidState.WithDetail("state mismatch"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "invalid_state", body["error"])
	assert.Equal(t, "INVALID_STATE", body["code"])
	assert.Equal(t, "state mismatch", body["detail"])
}

func TestWriteErrorGenericHidesCause(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, stderrors.New("pq: password=hunter2"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "hunter2")
	assert.Contains(t, rr.Body.String(), `"error":"internal_server_error"`)
}

func TestWithDetailDoesNotMutateBase(t *testing.T) {
	_ = ErrBadRequest.WithDetail("x")
	assert.Empty(t, ErrBadRequest.Detail)
}
