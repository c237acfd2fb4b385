// Package client talks to a running gitmesh server.
package client

import (
	"context"
	"fmt"
	"time"

	imrocreq "github.com/imroc/req/v3"

	"github.com/gitmesh/gitmesh/dao/model"
	"github.com/gitmesh/gitmesh/pkg/db/network"
)

const defaultTimeout = 10 * time.Second

type envelope[T any] struct {
	Code int    `json:"code"`
	Data T      `json:"data"`
	Msg  string `json:"msg"`
}

type Client struct {
	req *imrocreq.Client
}

func New(server string) *Client {
	return &Client{
		req: imrocreq.C().
			SetBaseURL(server).
			SetTimeout(defaultTimeout).
			SetUserAgent("gitmesh-cli"),
	}
}

func get[T any](ctx context.Context, c *Client, path string) (T, error) {
	var (
		result envelope[T]
		zero   T
	)
	resp, err := c.req.R().
		SetContext(ctx).
		SetSuccessResult(&result).
		SetErrorResult(&result).
		Get(path)
	if err != nil {
		return zero, fmt.Errorf("GET %s: %w", path, err)
	}
	if !resp.IsSuccessState() {
		return zero, fmt.Errorf("GET %s: %s: %s", path, resp.Status, result.Msg)
	}
	return result.Data, nil
}

func (c *Client) Stats(ctx context.Context) (*network.Stats, error) {
	stats, err := get[network.Stats](ctx, c, "/api/network/stats")
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) ActivePeers(ctx context.Context) ([]model.Peer, error) {
	return get[[]model.Peer](ctx, c, "/api/peers")
}
