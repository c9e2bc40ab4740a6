package generator

import (
	"context"

	"github.com/shouni/go-imagegen-kit/pkg/asset"
	"github.com/shouni/go-imagegen-kit/pkg/backend"
	"github.com/shouni/go-imagegen-kit/pkg/enhancer"
)

type mockContentInvoker struct {
	lastReq backend.ContentRequest
	payload *backend.Payload
	err     error
	calls   int
}

func (m *mockContentInvoker) GenerateImage(ctx context.Context, req backend.ContentRequest) (*backend.Payload, error) {
	m.calls++
	m.lastReq = req
	return m.payload, m.err
}

type mockPredictionInvoker struct {
	lastReq backend.PredictionRequest
	payload *backend.Payload
	err     error
	calls   int
}

func (m *mockPredictionInvoker) GenerateImage(ctx context.Context, req backend.PredictionRequest) (*backend.Payload, error) {
	m.calls++
	m.lastReq = req
	return m.payload, m.err
}

type mockEnhancer struct {
	lastOriginal string
	lastContext  enhancer.Context
	outcome      enhancer.Outcome
	calls        int
}

func (m *mockEnhancer) Enhance(ctx context.Context, original string, ec enhancer.Context) enhancer.Outcome {
	m.calls++
	m.lastOriginal = original
	m.lastContext = ec
	if m.outcome.Prompt == "" {
		return enhancer.Outcome{Prompt: original, Used: false}
	}
	return m.outcome
}

type mockFetcher struct {
	lastURI string
	fetched *asset.Fetched
	err     error
}

func (m *mockFetcher) Fetch(ctx context.Context, uri string) (*asset.Fetched, error) {
	m.lastURI = uri
	return m.fetched, m.err
}

func singleImagePayload(data []byte) *backend.Payload {
	return &backend.Payload{Images: []backend.Image{{Data: data, MimeType: "image/png"}}}
}
