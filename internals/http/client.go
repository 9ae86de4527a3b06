package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	PingTimeout     = 5 * time.Second
	RequestIDHeader = "X-Request-ID"

	tracerName = "github.com/GyroTools/ehr-connector-go/internals/http"
)

type Client struct {
	conn       *Connection
	httpClient *http.Client
	logger     zerolog.Logger
	metrics    *Metrics
	tracer     trace.Tracer
}

// this is defined in the client because other wise we would have a circular import:
// models need the client and the client binds itself into decoded models
type BaseModel struct {
	Client *Client `json:"-"`
}

var baseModelType = reflect.TypeOf(BaseModel{})

// Options describe a single request. Method defaults to GET and Body, when
// set, is sent as JSON.
type Options struct {
	Method  string
	Headers map[string]string
	Query   url.Values
	Body    interface{}
}

type ClientOption func(*Client)

// WithHTTPClient overrides the http.Client used for requests. The default
// client has no timeout; requests are bounded by their context only.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) { client.httpClient = c }
}

func WithLogger(logger zerolog.Logger) ClientOption {
	return func(client *Client) { client.logger = logger }
}

func WithMetrics(m *Metrics) ClientOption {
	return func(client *Client) { client.metrics = m }
}

func WithTracerProvider(tp trace.TracerProvider) ClientOption {
	return func(client *Client) { client.tracer = tp.Tracer(tracerName) }
}

// WithHeader adds a header sent with every request. It cannot replace the
// JSON content headers.
func WithHeader(key string, value string) ClientOption {
	return func(client *Client) {
		client.conn.headers = append(client.conn.headers, Header{Key: key, Value: value})
	}
}

func NewClient(url string, verifyCert bool, opts ...ClientOption) *Client {
	connection := &Connection{url: url, verifyCert: verifyCert}
	client := &Client{
		conn:   connection,
		logger: zerolog.Nop(),
		tracer: otel.Tracer(tracerName),
	}
	for _, o := range opts {
		o(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Transport: connection.transport()}
	}
	return client
}

func (client *Client) BaseURL() string {
	return client.conn.getUrl()
}

func (client *Client) VerifiesCertificate() bool {
	return client.conn.verifyCertificate()
}

// Ping checks that the API root answers with a 2xx status.
func (client *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, PingTimeout)
	defer cancel()
	_, err := Request[json.RawMessage](ctx, client, "", Options{})
	return err
}

// CheckConnection verifies that the base URL points at the EHR API by looking
// for the patients endpoint in the API root listing.
func (client *Client) CheckConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, PingTimeout)
	defer cancel()
	root, err := Request[map[string]interface{}](ctx, client, "", Options{})
	if err != nil {
		return err
	}
	if root == nil {
		return fmt.Errorf("empty api root at %s", client.BaseURL())
	}
	if _, ok := (*root)["patients"]; !ok {
		return fmt.Errorf("%s does not look like the EHR api: no patients endpoint", client.BaseURL())
	}
	return nil
}

// Request performs one request and decodes a 2xx body into T. A 204 or an
// empty 2xx body yields nil without decoding. Every failure is an *ApiError.
func Request[T any](ctx context.Context, client *Client, path string, opts Options) (*T, error) {
	resp, err := client.Do(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var target T
	found, err := client.parseResponse(resp, &target)
	if err != nil || !found {
		return nil, err
	}
	return &target, nil
}

// GetAndParse and the verbs below are shorthands around Request for callers
// holding a target value.
func (client *Client) GetAndParse(ctx context.Context, path string, query url.Values, target interface{}) error {
	return client.sendAndParse(ctx, path, Options{Method: http.MethodGet, Query: query}, target)
}

func (client *Client) PostAndParse(ctx context.Context, path string, body interface{}, target interface{}) error {
	return client.sendAndParse(ctx, path, Options{Method: http.MethodPost, Body: body}, target)
}

func (client *Client) PutAndParse(ctx context.Context, path string, body interface{}, target interface{}) error {
	return client.sendAndParse(ctx, path, Options{Method: http.MethodPut, Body: body}, target)
}

func (client *Client) PatchAndParse(ctx context.Context, path string, body interface{}, target interface{}) error {
	return client.sendAndParse(ctx, path, Options{Method: http.MethodPatch, Body: body}, target)
}

func (client *Client) Delete(ctx context.Context, path string) error {
	return client.sendAndParse(ctx, path, Options{Method: http.MethodDelete}, nil)
}

func (client *Client) sendAndParse(ctx context.Context, path string, opts Options, target interface{}) error {
	resp, err := client.Do(ctx, path, opts)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if target == nil {
		target = new(json.RawMessage)
	}
	_, err = client.parseResponse(resp, target)
	return err
}

// Do sends the request and returns the raw response for any HTTP status.
// Only transport and encoding failures are returned as errors here.
func (client *Client) Do(ctx context.Context, path string, opts Options) (*http.Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	requestUrl := client.GetUrl(path)
	u, err := url.Parse(requestUrl)
	if err != nil {
		return nil, newEncodeError(err)
	}
	if len(opts.Query) > 0 {
		q := u.Query()
		for key, values := range opts.Query {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	var body io.Reader
	if opts.Body != nil {
		payload, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, newEncodeError(err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, newEncodeError(err)
	}

	// static and caller headers first so they cannot replace the JSON headers
	for _, h := range client.conn.staticHeaders() {
		req.Header.Set(h.Key, h.Value)
	}
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	requestID := req.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.New().String()
		req.Header.Set(RequestIDHeader, requestID)
	}

	resource := client.resourceName(u)
	ctx, span := client.tracer.Start(ctx, fmt.Sprintf("ehr %s %s", method, resource),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.full", u.String()),
			attribute.String("ehr.resource", resource),
			attribute.String("ehr.request_id", requestID),
		),
	)
	defer span.End()
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := client.httpClient.Do(req)
	elapsed := time.Since(start)

	if err != nil {
		apiErr := newNetworkError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, apiErr.Message)
		client.metrics.observe(method, resource, 0, elapsed)
		client.logger.Warn().
			Err(err).
			Str("request_id", requestID).
			Str("method", method).
			Str("url", u.String()).
			Dur("latency", elapsed).
			Msg("ehr request failed")
		return nil, apiErr
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, resp.Status)
	}
	client.metrics.observe(method, resource, resp.StatusCode, elapsed)

	evt := client.logger.Debug()
	if resp.StatusCode >= 400 {
		evt = client.logger.Warn()
	}
	evt.
		Str("request_id", requestID).
		Str("method", method).
		Str("url", u.String()).
		Int("status", resp.StatusCode).
		Dur("latency", elapsed).
		Msg("ehr request")

	return resp, nil
}

// parseResponse decodes a 2xx body into target and reports whether a body
// was present.
func (client *Client) parseResponse(resp *http.Response, target interface{}) (bool, error) {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, newResponseError(resp)
	}
	if resp.StatusCode == http.StatusNoContent {
		return false, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, newNetworkError(err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return false, nil
	}

	if err := json.Unmarshal(body, target); err != nil {
		return false, newDecodeError(err)
	}
	client.bind(reflect.ValueOf(target))
	return true, nil
}

// bind walks a decoded value and points every embedded BaseModel at this
// client, so models can issue follow-up requests.
func (client *Client) bind(value reflect.Value) {
	for value.Kind() == reflect.Ptr || value.Kind() == reflect.Interface {
		if value.IsNil() {
			return
		}
		value = value.Elem()
	}

	switch value.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < value.Len(); i++ {
			client.bind(value.Index(i))
		}
	case reflect.Struct:
		if value.Type() == baseModelType {
			if value.CanSet() {
				value.Set(reflect.ValueOf(BaseModel{Client: client}))
			}
			return
		}
		valueType := value.Type()
		for i := 0; i < value.NumField(); i++ {
			if !valueType.Field(i).IsExported() {
				continue
			}
			client.bind(value.Field(i))
		}
	}
}

// GetUrl resolves path against the base URL. Leading slashes are relative to
// the API base, and absolute URLs (pagination links) are returned unchanged.
func (client Client) GetUrl(path string) string {
	base := client.conn.getUrl()
	u, err := url.Parse(base)
	if err != nil {
		return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	// Parse the provided path separately
	parsedPath, err := url.Parse(path)
	if err != nil {
		return u.String() + strings.TrimPrefix(path, "/")
	}
	if parsedPath.IsAbs() {
		return parsedPath.String()
	}
	parsedPath.Path = strings.TrimPrefix(parsedPath.Path, "/")

	// Resolve the parsed path against the base URL
	return u.ResolveReference(parsedPath).String()
}

// resourceName is the first path segment below the API base, used as a low
// cardinality label.
func (client *Client) resourceName(u *url.URL) string {
	p := u.Path
	if base, err := url.Parse(client.conn.getUrl()); err == nil {
		p = strings.TrimPrefix(p, strings.TrimSuffix(base.Path, "/"))
	}
	p = strings.Trim(p, "/")
	if p == "" {
		return "root"
	}
	name, _, _ := strings.Cut(p, "/")
	return name
}
