package pdf

import (
	"context"
	"io"
)

type Provider interface {
	GenerateReceipt(ctx context.Context, data ReceiptData) (io.Reader, error)
}

type MarotoProvider struct {
	storeName string
}

func New(cfg Config) Provider {
	name := cfg.StoreName
	if name == "" {
		name = defaultStoreName
	}
	return &MarotoProvider{storeName: name}
}

// NoOpProvider renders nothing; handlers treat a nil reader as "receipt unavailable".
type NoOpProvider struct{}

func (p *NoOpProvider) GenerateReceipt(ctx context.Context, data ReceiptData) (io.Reader, error) {
	return nil, nil
}
