// Package runtime exposes the webhook intake over HTTP and AWS Lambda.
package runtime

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/isometry/ncm-webhook-relay/internal/helpers"
	"github.com/isometry/ncm-webhook-relay/internal/intake"
	"github.com/isometry/ncm-webhook-relay/internal/metrics"
	"github.com/isometry/ncm-webhook-relay/internal/models"
	"github.com/pkg/errors"
)

// Lambda payload types.
const (
	PayloadAPIGatewayV1 = "api-gateway-v1"
	PayloadAPIGatewayV2 = "api-gateway-v2"
	PayloadLambdaURL    = "lambda-url"
)

// DefaultMaxBodyBytes is used when no body limit is configured.
const DefaultMaxBodyBytes = 1 << 20

// Acceptor is the webhook intake driven by the runtime.
type Acceptor interface {
	Enabled() bool
	Accept(payload *models.WebhookPayload, raw []byte) error
}

type Option func(*Runtime)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = logger
	}
}

func WithLambdaPayloadType(payloadType string) Option {
	return func(r *Runtime) {
		r.lambdaPayloadType = payloadType
	}
}

func WithMaxBodyBytes(n int64) Option {
	return func(r *Runtime) {
		r.maxBodyBytes = n
	}
}

func WithMetrics(recorder *metrics.Recorder) Option {
	return func(r *Runtime) {
		r.metrics = recorder
	}
}

type Runtime struct {
	intake            Acceptor
	logger            *slog.Logger
	metrics           *metrics.Recorder
	lambdaPayloadType string
	maxBodyBytes      int64
}

// NewRuntime creates a new runtime instance
func NewRuntime(acceptor Acceptor, opts ...Option) *Runtime {
	_inst := &Runtime{intake: acceptor, lambdaPayloadType: PayloadAPIGatewayV2}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	if _inst.maxBodyBytes <= 0 {
		_inst.maxBodyBytes = DefaultMaxBodyBytes
	}
	return _inst
}

// Handle answers a webhook request. Anything that decodes to a payload is acknowledged with 202;
// what normalization later decides is never reported back to the sender.
func (r *Runtime) Handle(req models.Request) (models.Response, error) {
	if req.Method != http.MethodPost {
		r.logger.Debug("rejecting request...", "reason", "method not allowed", slog.String("method", req.Method))
		r.metrics.Received(metrics.OutcomeNotAllowed)
		return models.Response{
			StatusCode: http.StatusMethodNotAllowed,
			Headers:    map[string]string{"Allow": http.MethodPost},
		}, nil
	}
	if !r.intake.Enabled() {
		r.logger.Debug("listener disabled. rejecting webhook...")
		r.metrics.Received(metrics.OutcomeDisabled)
		return models.Response{StatusCode: http.StatusServiceUnavailable}, intake.ErrDisabled
	}
	if int64(len(req.Body)) > r.maxBodyBytes {
		r.logger.Warn("rejecting oversized webhook", slog.Int("size", len(req.Body)), slog.Int64("limit", r.maxBodyBytes))
		r.metrics.Received(metrics.OutcomeMalformed)
		return models.Response{StatusCode: http.StatusRequestEntityTooLarge}, errors.New("request body too large")
	}

	payload, err := decodePayload(req.Body)
	if err != nil {
		r.logger.Warn("failed to decode webhook payload", slog.Any("error", err), slog.String("body", helpers.Truncate(string(req.Body), 256)))
		r.metrics.Received(metrics.OutcomeMalformed)
		return models.Response{StatusCode: http.StatusBadRequest}, err
	}
	if payload == nil {
		r.metrics.Received(metrics.OutcomeEmpty)
	} else {
		r.logger.Debug("decoded webhook payload", slog.String("orderId", helpers.String(payload.OrderID)), slog.Int("orderIds", len(payload.OrderIDs)), slog.String("event", payload.Event))
	}

	if err = r.intake.Accept(payload, req.Body); err != nil {
		if errors.Is(err, intake.ErrDisabled) {
			r.metrics.Received(metrics.OutcomeDisabled)
			return models.Response{StatusCode: http.StatusServiceUnavailable}, err
		}
		// The intake reports scheduling failures at warn, throttled.
		r.logger.Debug("failed to submit webhook for processing", slog.Any("error", err))
		r.metrics.Received(metrics.OutcomeSaturated)
		return models.Response{StatusCode: http.StatusInternalServerError}, err
	}
	if payload != nil {
		r.metrics.Received(metrics.OutcomeAccepted)
	}
	return models.Response{StatusCode: http.StatusAccepted, Body: "accepted"}, nil
}

// ServeHTTP is the HTTP handler for the runtime
func (r *Runtime) ServeHTTP(resp http.ResponseWriter, req *http.Request) {
	r.logger.Debug("received HTTP request...", slog.Any("requestor", req.RemoteAddr), slog.Any("method", req.Method), slog.Any("path", req.URL.Path))
	headers := make(map[string]string)
	for k, v := range req.Header {
		headers[strings.ToLower(k)] = v[0]
	}

	var body []byte
	if req.Method == http.MethodPost {
		var err error
		body, err = io.ReadAll(http.MaxBytesReader(resp, req.Body, r.maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				r.metrics.Received(metrics.OutcomeMalformed)
				helpers.RespondHTTP(models.Response{StatusCode: http.StatusRequestEntityTooLarge}, errors.New("request body too large"), resp)
				return
			}
			r.logger.Error("failed to read request body", slog.Any("error", err))
			helpers.RespondHTTP(models.Response{StatusCode: http.StatusBadRequest}, err, resp)
			return
		}
	}

	result, err := r.Handle(models.Request{Method: req.Method, Body: body, Headers: headers})
	helpers.RespondHTTP(result, err, resp)
}

// Lambda is the AWS Lambda handler for the runtime. The event shape is selected by the configured payload type.
func (r *Runtime) Lambda(_ context.Context, raw json.RawMessage) (any, error) {
	r.logger.Debug("received lambda event", slog.String("payloadType", r.lambdaPayloadType))
	switch r.lambdaPayloadType {
	case PayloadAPIGatewayV1:
		var evt events.APIGatewayProxyRequest
		if err := json.Unmarshal(raw, &evt); err != nil {
			return nil, errors.Wrap(err, "failed to decode API Gateway v1 event")
		}
		result, err := r.handleLambda(evt.HTTPMethod, evt.Body, evt.IsBase64Encoded, evt.Headers)
		return events.APIGatewayProxyResponse{
			Body:       helpers.ResponseBody(result, err),
			StatusCode: result.StatusCode,
			Headers:    lambdaHeaders(result),
		}, nil
	case PayloadAPIGatewayV2:
		var evt events.APIGatewayV2HTTPRequest
		if err := json.Unmarshal(raw, &evt); err != nil {
			return nil, errors.Wrap(err, "failed to decode API Gateway v2 event")
		}
		result, err := r.handleLambda(evt.RequestContext.HTTP.Method, evt.Body, evt.IsBase64Encoded, evt.Headers)
		return events.APIGatewayV2HTTPResponse{
			Body:       helpers.ResponseBody(result, err),
			StatusCode: result.StatusCode,
			Headers:    lambdaHeaders(result),
		}, nil
	case PayloadLambdaURL:
		var evt events.LambdaFunctionURLRequest
		if err := json.Unmarshal(raw, &evt); err != nil {
			return nil, errors.Wrap(err, "failed to decode Lambda function URL event")
		}
		result, err := r.handleLambda(evt.RequestContext.HTTP.Method, evt.Body, evt.IsBase64Encoded, evt.Headers)
		return events.LambdaFunctionURLResponse{
			Body:       helpers.ResponseBody(result, err),
			StatusCode: result.StatusCode,
			Headers:    lambdaHeaders(result),
		}, nil
	default:
		return nil, errors.Errorf("unsupported lambda payload type: %s", r.lambdaPayloadType)
	}
}

func (r *Runtime) handleLambda(method, body string, isBase64 bool, headers map[string]string) (models.Response, error) {
	lch := make(map[string]string, len(headers))
	for k, v := range headers {
		lch[strings.ToLower(k)] = v
	}
	raw := []byte(body)
	if isBase64 {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			r.logger.Warn("failed to decode base64 body", slog.Any("error", err))
			return models.Response{StatusCode: http.StatusBadRequest}, errors.Wrap(err, "invalid base64 body")
		}
		raw = decoded
	}
	return r.Handle(models.Request{Method: strings.ToUpper(method), Body: raw, Headers: lch})
}

func lambdaHeaders(result models.Response) map[string]string {
	headers := map[string]string{"Content-Type": "application/json"}
	for k, v := range result.Headers {
		headers[k] = v
	}
	return headers
}

// decodePayload returns nil for an empty or JSON null body.
func decodePayload(body []byte) (*models.WebhookPayload, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var payload models.WebhookPayload
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil, errors.Wrap(err, "invalid webhook payload")
	}
	return &payload, nil
}
