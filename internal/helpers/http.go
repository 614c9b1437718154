package helpers

import (
	"encoding/json"
	"net/http"

	"github.com/isometry/ncm-webhook-relay/internal/models"
)

type httpResponse struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ResponseBody renders the JSON document returned to the webhook sender.
func ResponseBody(response models.Response, err error) string {
	hR := httpResponse{
		Message: response.Body,
	}
	if err != nil {
		hR.Error = err.Error()
	}
	respBody, _ := json.Marshal(hR)
	return string(respBody)
}

// RespondHTTP writes response and err as a JSON document. A zero status code is sent as 200.
func RespondHTTP(response models.Response, err error, rw http.ResponseWriter) {
	for k, v := range response.Headers {
		rw.Header().Set(k, v)
	}
	if rw.Header().Get("Content-Type") == "" {
		rw.Header().Set("Content-Type", "application/json")
	}
	statusCode := response.StatusCode
	if statusCode == 0 {
		statusCode = http.StatusOK
	}
	rw.WriteHeader(statusCode)
	_, _ = rw.Write([]byte(ResponseBody(response, err)))
}
