package model

import (
	"context"

	"github.com/harunnryd/pgpt/internal/model/contract"
	"github.com/harunnryd/pgpt/internal/model/sse"
)

// Provider is one configured chat endpoint. *client.Client implements it.
type Provider interface {
	Chat(ctx context.Context, turns []contract.Turn, opts contract.Options) (string, error)
	ChatWithTools(ctx context.Context, turns []contract.Turn, tools []contract.ToolDef, opts contract.Options) (*contract.Response, error)
	ChatStructured(ctx context.Context, turns []contract.Turn, schema contract.StructuredSchema, opts contract.Options, out any) error
	Stream(ctx context.Context, turns []contract.Turn, opts contract.Options, onDelta sse.DeltaFunc) (*contract.Response, error)
	Name() string
	Dialect() contract.Dialect
	Endpoint() string
	Model() string
}
