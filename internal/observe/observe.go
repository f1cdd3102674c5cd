package observe

import (
	"context"
	"net/http"
	"time"

	"github.com/harunnryd/pgpt/internal/model/contract"
)

// RequestInfo describes an outgoing provider request. Headers are already
// redacted when an Observer sees them.
type RequestInfo struct {
	RequestID string
	Provider  string
	Dialect   contract.Dialect
	Endpoint  string
	Model     string
	Stream    bool
	Turns     int
	Tools     int
	Headers   http.Header
	Body      []byte
}

// ResultInfo describes how a request ended. Status is zero when no HTTP
// response arrived.
type ResultInfo struct {
	Request      RequestInfo
	Status       int
	Duration     time.Duration
	ResponseBody []byte
	ToolCalls    int
	Usage        contract.Usage
	Err          error
}

// Observer is notified around every provider call. RequestStarted may return
// a derived context that is later passed to RequestFinished.
type Observer interface {
	RequestStarted(ctx context.Context, info RequestInfo) context.Context
	RequestFinished(ctx context.Context, result ResultInfo)
}

type nop struct{}

func (nop) RequestStarted(ctx context.Context, _ RequestInfo) context.Context { return ctx }
func (nop) RequestFinished(context.Context, ResultInfo)                      {}

// Nop discards every event.
func Nop() Observer { return nop{} }

type multi []Observer

func (m multi) RequestStarted(ctx context.Context, info RequestInfo) context.Context {
	for _, o := range m {
		ctx = o.RequestStarted(ctx, info)
	}
	return ctx
}

func (m multi) RequestFinished(ctx context.Context, result ResultInfo) {
	for i := len(m) - 1; i >= 0; i-- {
		m[i].RequestFinished(ctx, result)
	}
}

// Multi fans events out to observers, finishing in reverse order.
func Multi(observers ...Observer) Observer {
	out := make(multi, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			out = append(out, o)
		}
	}
	switch len(out) {
	case 0:
		return Nop()
	case 1:
		return out[0]
	}
	return out
}
