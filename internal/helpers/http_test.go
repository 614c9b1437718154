package helpers_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/isometry/ncm-webhook-relay/internal/helpers"
	"github.com/isometry/ncm-webhook-relay/internal/models"
	"github.com/stretchr/testify/assert"
)

type testCase struct {
	Name     string
	Response models.Response
	Error    error
	Expected expectedResponse
}

type expectedResponse struct {
	StatusCode int
	Body       string
	Header     string
}

func TestRespondHTTP(t *testing.T) {
	testCases := []testCase{
		{
			Name: "accepted",
			Response: models.Response{
				StatusCode: http.StatusAccepted,
				Body:       "accepted",
			},
			Expected: expectedResponse{
				StatusCode: http.StatusAccepted,
				Body:       `{"message":"accepted"}`,
				Header:     "application/json",
			},
		},
		{
			Name: "unavailable_with_error",
			Response: models.Response{
				StatusCode: http.StatusServiceUnavailable,
			},
			Error: errors.New("webhook listener is disabled"),
			Expected: expectedResponse{
				StatusCode: http.StatusServiceUnavailable,
				Body:       `{"error":"webhook listener is disabled"}`,
				Header:     "application/json",
			},
		},
		{
			Name: "custom_header",
			Response: models.Response{
				StatusCode: http.StatusMethodNotAllowed,
				Headers:    map[string]string{"Allow": http.MethodPost},
			},
			Expected: expectedResponse{
				StatusCode: http.StatusMethodNotAllowed,
				Body:       `{}`,
				Header:     "application/json",
			},
		},
		{
			Name:     "with_empty_response_and_no_error",
			Response: models.Response{},
			Expected: expectedResponse{
				StatusCode: http.StatusOK,
				Body:       `{}`,
				Header:     "application/json",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			rw := httptest.NewRecorder()

			helpers.RespondHTTP(tc.Response, tc.Error, rw)

			assert.Equal(t, tc.Expected.StatusCode, rw.Code)
			assert.Equal(t, tc.Expected.Header, rw.Header().Get("Content-Type"))
			assert.JSONEq(t, tc.Expected.Body, rw.Body.String())
			for k, v := range tc.Response.Headers {
				assert.Equal(t, v, rw.Header().Get(k))
			}
		})
	}
}
