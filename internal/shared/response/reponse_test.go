package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorWithDetails_CarriesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(ContextRequestID, "req-42")

	UnprocessableEntity(c, "missing columns", map[string]any{"missing": []string{"barcode"}})

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "req-42", body.RequestID)
	require.NotNil(t, body.Error)
	assert.Equal(t, "UNPROCESSABLE_ENTITY", body.Error.Code)
	assert.NotNil(t, body.Error.Details)
}

func TestSuccess_OmitsEmptyRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Success(c, http.StatusOK, gin.H{"imported_count": 1})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "request_id")
	assert.Contains(t, w.Body.String(), `"success":true`)
}
