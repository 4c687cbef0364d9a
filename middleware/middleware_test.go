package middleware

import (
	"context"
	"errors"
	"testing"
)

type namedMiddleware struct {
	name string
	fn   func(ctx *Context, next Handler) error
}

func (m *namedMiddleware) Name() string { return m.name }

func (m *namedMiddleware) Execute(ctx *Context, next Handler) error {
	return m.fn(ctx, next)
}

func TestChainOrder(t *testing.T) {
	var order []string
	mk := func(name string) Middleware {
		return &namedMiddleware{name: name, fn: func(ctx *Context, next Handler) error {
			order = append(order, name+" before")
			err := next(ctx)
			order = append(order, name+" after")
			return err
		}}
	}

	chain := NewChain(mk("outer"), mk("inner"))
	ctx := NewContext(context.Background(), "chat-1", "question")
	err := chain.Execute(ctx, func(c *Context) error {
		order = append(order, "handler")
		c.Answer = "réponse"
		return nil
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	want := []string{"outer before", "inner before", "handler", "inner after", "outer after"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
	if ctx.Answer != "réponse" {
		t.Errorf("Answer = %q", ctx.Answer)
	}
}

func TestChainStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	stop := &namedMiddleware{name: "stop", fn: func(ctx *Context, next Handler) error {
		return boom
	}}

	called := false
	chain := NewChain(stop)
	err := chain.Execute(NewContext(context.Background(), "", "q"), func(c *Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if called {
		t.Error("final handler should not run after middleware error")
	}
}

func TestEmptyChainCallsHandler(t *testing.T) {
	called := false
	err := NewChain().Execute(NewContext(context.Background(), "", "q"), func(c *Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !called {
		t.Error("final handler not called")
	}
}

func TestContextDefaults(t *testing.T) {
	c := &Context{}
	if c.Context() == nil {
		t.Error("Context() should never return nil")
	}

	c = NewContext(context.Background(), "chat", "q")
	c.Metadata["route"] = "document"
	if c.Metadata["route"] != "document" {
		t.Error("metadata not retained")
	}
}
