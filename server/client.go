package server

import (
	"context"
	"strings"

	"connectrpc.com/connect"
)

// Client calls a remote RunService.
type Client struct {
	run     *connect.Client[RunRequest, RunResponse]
	inspect *connect.Client[InspectRequest, InspectResponse]
}

// NewClient creates a client for the server at baseURL
// (e.g. "http://localhost:4567").
func NewClient(httpClient connect.HTTPClient, baseURL string) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	codec := connect.WithCodec(cborCodec{})
	return &Client{
		run:     connect.NewClient[RunRequest, RunResponse](httpClient, baseURL+RunProcedure, codec),
		inspect: connect.NewClient[InspectRequest, InspectResponse](httpClient, baseURL+InspectProcedure, codec),
	}
}

// Run uploads class and executes method remotely.
func (c *Client) Run(ctx context.Context, class []byte, method string) (*RunResponse, error) {
	resp, err := c.run.CallUnary(ctx, connect.NewRequest(&RunRequest{Class: class, Method: method}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// Inspect uploads class and returns its description.
func (c *Client) Inspect(ctx context.Context, class []byte) (*InspectResponse, error) {
	resp, err := c.inspect.CallUnary(ctx, connect.NewRequest(&InspectRequest{Class: class}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}
