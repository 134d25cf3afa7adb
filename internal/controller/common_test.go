package controller

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"smartqa_backend/internal/util"
	"smartqa_backend/pkg/extractor"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestHandleError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid credentials", util.ErrInvalidCredentials, http.StatusBadRequest},
		{"email taken", util.ErrEmailRegistered, http.StatusConflict},
		{"username taken", util.ErrUsernameTaken, http.StatusConflict},
		{"wrapped invalid input", fmt.Errorf("%w: num_questions", util.ErrInvalidInput), http.StatusBadRequest},
		{"unsupported extractor type", extractor.ErrUnsupported, http.StatusBadRequest},
		{"too large", util.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{"forbidden", util.ErrPermissionDenied, http.StatusForbidden},
		{"document missing", util.ErrDocumentNotFound, http.StatusNotFound},
		{"result missing", util.ErrResultNotFound, http.StatusNotFound},
		{"ai unavailable", fmt.Errorf("embed chunks: %w", util.ErrAIUnavailable), http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ctx, _ := gin.CreateTestContext(w)
			ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			handleError(ctx, tt.err)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestParseID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		value  string
		wantOK bool
		wantID uint
	}{
		{"12", true, 12},
		{"0", false, 0},
		{"-3", false, 0},
		{"abc", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			w := httptest.NewRecorder()
			ctx, _ := gin.CreateTestContext(w)
			ctx.Params = gin.Params{{Key: "id", Value: tt.value}}

			id, ok := parseID(ctx, "id", "test")
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
			if !ok {
				assert.Equal(t, http.StatusBadRequest, w.Code)
			}
		})
	}
}
