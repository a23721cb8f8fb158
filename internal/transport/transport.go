// Package transport is the seam between the request lifecycle and the
// network. Both the image fetch and the API call go through the Transport
// interface so tests can run the whole pipeline without sockets.
package transport

import (
	"bytes"
	"context"
	"net/http"

	"github.com/oukeidos/pressask/internal/apperrors"
	"github.com/oukeidos/pressask/internal/httpclient"
	"github.com/oukeidos/pressask/internal/logger"
)

// Request is a minimal outbound HTTP request description.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Response carries the status and full body of a completed request.
type Response struct {
	Status int
	Body   []byte
}

// Transport performs outbound HTTP on behalf of the lifecycle.
type Transport interface {
	// FetchBytes downloads url and returns the body plus its MIME type.
	FetchBytes(ctx context.Context, url string) (data []byte, mimeType string, err error)
	// Do executes req and returns the response regardless of status code;
	// the caller interprets non-2xx statuses.
	Do(ctx context.Context, req Request) (Response, error)
}

// HTTPTransport is the production Transport over the shared tuned client.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport returns a Transport over client, or the process default
// client when client is nil.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = httpclient.GetDefaultClient()
	}
	return &HTTPTransport{client: client}
}

// FetchBytes downloads an image. The MIME type comes from the Content-Type
// header when present and from content sniffing otherwise.
func (t *HTTPTransport) FetchBytes(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", apperrors.New(apperrors.KindImageProcessing, "Could not build the image request.", err)
	}

	body, resp, err := httpclient.DoAndRead(t.client, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", apperrors.Canceled(ctx.Err())
		}
		return nil, "", apperrors.New(apperrors.KindImageProcessing, "Could not download the image.", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Warn("Image fetch returned non-success status", "status", resp.StatusCode)
		return nil, "", apperrors.New(apperrors.KindImageProcessing, "The image could not be fetched.", nil)
	}
	if len(body) == 0 {
		return nil, "", apperrors.New(apperrors.KindImageProcessing, "The image response was empty.", nil)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(body)
	}
	return body, mimeType, nil
}

// Do executes the request. Transport failures come back as errors; HTTP
// error statuses come back as a Response for the caller to classify.
func (t *HTTPTransport) Do(ctx context.Context, req Request) (Response, error) {
	var bodyReader *bytes.Reader
	if req.Body != nil {
		bodyReader = bytes.NewReader(req.Body)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bodyReader)
	if err != nil {
		return Response{}, apperrors.New(apperrors.KindNetwork, "Could not build the request.", err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	body, resp, err := httpclient.DoAndRead(t.client, httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return Response{}, apperrors.Canceled(ctx.Err())
		}
		return Response{}, apperrors.New(apperrors.KindNetwork, "The request could not be completed.", err)
	}
	return Response{Status: resp.StatusCode, Body: body}, nil
}
