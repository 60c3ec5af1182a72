// Package client contains Cobra CLI commands for lorabridge.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	transports "github.com/rzbill/lorabridge/internal/cmd/client/transports"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// BaseURLFunc provides the base HTTP API URL (e.g., from env or flag).
type BaseURLFunc func() string

// grpcAddrFromEnv returns the gRPC server address from LORABRIDGE_GRPC or a default.
func grpcAddrFromEnv() string {
	if addr := os.Getenv("LORABRIDGE_GRPC"); addr != "" {
		return addr
	}
	return "127.0.0.1:9090"
}

// dialGRPCContext connects to the gateway with insecure transport for local/dev.
func dialGRPCContext(context.Context) (*grpc.ClientConn, error) {
	return grpc.NewClient(grpcAddrFromEnv(), grpc.WithTransportCredentials(insecure.NewCredentials()))
}

func getTransport(kind string, baseURL BaseURLFunc) (transports.EventsTransport, error) {
	switch kind {
	case "", "grpc":
		return transports.NewGrpcTransport(dialGRPCContext), nil
	case "http":
		return transports.NewHTTPTransport(baseURL(), nil), nil
	default:
		return nil, fmt.Errorf("invalid --transport %q; use grpc|http", kind)
	}
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// doHTTP performs a request and returns the body, failing on non-2xx.
func doHTTP(ctx context.Context, method, u, contentType string, body []byte) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("http error: %s: %s", resp.Status, strings.TrimSpace(string(out)))
	}
	return out, nil
}

func postForm(ctx context.Context, u string, v url.Values) ([]byte, error) {
	return doHTTP(ctx, http.MethodPost, u, "application/x-www-form-urlencoded", []byte(v.Encode()))
}
