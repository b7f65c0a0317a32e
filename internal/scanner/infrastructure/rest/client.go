package rest

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"

	"github.com/ambatushop/pos-terminal/internal/backend"
	"github.com/ambatushop/pos-terminal/internal/scanner/application"
)

type Client struct {
	backend *backend.Client
}

func NewClient(b *backend.Client) *Client {
	return &Client{backend: b}
}

func (c *Client) Decode(ctx context.Context, image []byte, filename string) (application.Result, error) {
	if filename == "" {
		filename = "scan.png"
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", filename)
	if err != nil {
		return application.Result{}, err
	}
	if _, err := part.Write(image); err != nil {
		return application.Result{}, err
	}
	if err := w.Close(); err != nil {
		return application.Result{}, err
	}

	var res application.Result
	if err := c.backend.Post(ctx, "/api/barcode/decode", w.FormDataContentType(), &body, &res); err != nil {
		return application.Result{}, fmt.Errorf("barcode decode: %w", err)
	}
	return res, nil
}
