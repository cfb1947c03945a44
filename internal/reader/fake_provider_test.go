package reader

import (
	"context"
	"fmt"
	"sync"

	"github.com/mohammad-safakhou/readmode/provider"
)

type scriptedReply struct {
	resp provider.Response
	err  error
	// panic makes Generate panic with this value when non-nil
	panic any
}

// scriptedProvider replays canned replies per model in call order.
type scriptedProvider struct {
	mu      sync.Mutex
	replies map[string][]scriptedReply
	calls   []provider.Request
}

func newScriptedProvider() *scriptedProvider {
	return &scriptedProvider{replies: map[string][]scriptedReply{}}
}

func (p *scriptedProvider) on(model string, replies ...scriptedReply) *scriptedProvider {
	p.replies[model] = append(p.replies[model], replies...)
	return p
}

func (p *scriptedProvider) Generate(ctx context.Context, req provider.Request) (provider.Response, error) {
	p.mu.Lock()
	p.calls = append(p.calls, req)
	queue := p.replies[req.Model]
	if len(queue) == 0 {
		p.mu.Unlock()
		return provider.Response{}, fmt.Errorf("no scripted reply for %s", req.Model)
	}
	next := queue[0]
	p.replies[req.Model] = queue[1:]
	p.mu.Unlock()

	if next.panic != nil {
		panic(next.panic)
	}
	if err := ctx.Err(); err != nil {
		return provider.Response{}, err
	}
	return next.resp, next.err
}

func (p *scriptedProvider) callsFor(model string) []provider.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []provider.Request
	for _, c := range p.calls {
		if c.Model == model {
			out = append(out, c)
		}
	}
	return out
}

func (p *scriptedProvider) totalCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func okReply(text string, chunks ...provider.GroundingChunk) scriptedReply {
	return scriptedReply{resp: provider.Response{Text: text, FinishReason: provider.FinishStop, Grounding: chunks}}
}

func finished(reason provider.FinishReason) scriptedReply {
	return scriptedReply{resp: provider.Response{FinishReason: reason}}
}

func failed(err error) scriptedReply {
	return scriptedReply{err: err}
}

var testAttempts = []Attempt{
	{Model: "primary-model", Tools: provider.Tools{Search: true, URLContext: true}},
	{Model: "fallback-model", Tools: provider.Tools{Search: true}},
}
