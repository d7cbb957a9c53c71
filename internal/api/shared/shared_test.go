package shared

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/phrazzld/taskr-api/internal/domain"
	"github.com/phrazzld/taskr-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithPage(t *testing.T) {
	t.Parallel()
	recorder := httptest.NewRecorder()

	RespondWithPage(recorder, httptest.NewRequest(http.MethodGet, "/", nil), "Listed", []string{}, 0)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":true,"message":"Listed","data":[],"total":0}`, recorder.Body.String())
}

func TestRespondWithError_IncludesTraceID(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(SetTraceID(req.Context()))
	recorder := httptest.NewRecorder()

	RespondWithError(recorder, req, http.StatusNotFound, "Task not found")

	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"success":false`)
	assert.Contains(t, recorder.Body.String(), `"traceId":"`+GetTraceID(req.Context())+`"`)
	assert.NotContains(t, recorder.Body.String(), `"data"`)
}

func TestRespondWithErrorAndLog_RedactsError(t *testing.T) {
	t.Parallel()
	ctx, logBuf := logger.NewLogCaptureContext(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
	recorder := httptest.NewRecorder()

	err := errors.New("query failed: postgres://taskr:s3cr3t-pass@db:5432/taskr")
	RespondWithErrorAndLog(recorder, req, http.StatusInternalServerError, "Failed", err)

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.NotContains(t, recorder.Body.String(), "s3cr3t")
	assert.NotContains(t, logBuf.String(), "s3cr3t")
	entries := logger.FindLogEntries(t, logBuf, map[string]interface{}{"level": "ERROR"})
	assert.Len(t, entries, 1)
}

type sampleRequest struct {
	Title      string `json:"title"      validate:"required"`
	AssignedTo string `json:"assignedTo" validate:"required,uuid"`
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantErr error
		wantAny bool
	}{
		{name: "valid", body: `{"title":"t","assignedTo":"x"}`},
		{name: "empty", body: ``, wantErr: ErrEmptyBody},
		{name: "unknown field", body: `{"title":"t","owner":"me"}`, wantAny: true},
		{name: "trailing object", body: `{"title":"t"}{"title":"u"}`, wantAny: true},
		{name: "too large", body: `{"title":"` + strings.Repeat("a", MaxRequestBodyBytes) + `"}`, wantAny: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dest sampleRequest

			err := DecodeJSON(httptest.NewRecorder(), req, &dest)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantAny:
				assert.Error(t, err)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateRequest_UsesJSONNames(t *testing.T) {
	t.Parallel()

	err := ValidateRequest(&sampleRequest{Title: "t", AssignedTo: "not-a-uuid"})

	var validationErrs validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrs)
	require.Len(t, validationErrs, 1)
	assert.Equal(t, "assignedTo", validationErrs[0].Field())
	assert.Equal(t, "uuid", validationErrs[0].Tag())

	assert.NoError(t, ValidateRequest(&sampleRequest{Title: "t", AssignedTo: uuid.NewString()}))
}

func TestContextHelpers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, ok := GetUserID(ctx)
	assert.False(t, ok)
	_, ok = GetUserRole(ctx)
	assert.False(t, ok)
	assert.Empty(t, GetTraceID(ctx))

	userID := uuid.New()
	ctx = WithUser(ctx, userID, domain.UserRoleAdmin)
	gotID, ok := GetUserID(ctx)
	require.True(t, ok)
	assert.Equal(t, userID, gotID)
	role, ok := GetUserRole(ctx)
	require.True(t, ok)
	assert.Equal(t, domain.UserRoleAdmin, role)

	first := GetTraceID(SetTraceID(ctx))
	second := GetTraceID(SetTraceID(ctx))
	assert.Len(t, first, TraceIDLength*2)
	assert.NotEqual(t, first, second)
	assert.Len(t, generateFallbackTraceID(), TraceIDLength*2)
}
