package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Pass hooks
	p := NoopPassHooks{}
	p.OnRunStart(ctx, "run-1", 42)
	p.OnPassStart(ctx, "run-1", "reduce_transpose")
	p.OnPassComplete(ctx, "run-1", "reduce_transpose", time.Millisecond, errors.New("bad perm"))
	p.OnRunComplete(ctx, "run-1", time.Second, 1)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "graph")
	c.OnCacheMiss(ctx, "graph")
	c.OnCacheSet(ctx, "graph", 1024)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "POST", "/v1/optimize")
	h.OnResponse(ctx, "POST", "/v1/optimize", 200, time.Second)
	h.OnError(ctx, "POST", "/v1/optimize", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Pass().(NoopPassHooks); !ok {
		t.Error("Pass() should return NoopPassHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	// Set custom hooks
	customPass := &testPassHooks{}
	SetPassHooks(customPass)
	if Pass() != customPass {
		t.Error("SetPassHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Pass().(NoopPassHooks); !ok {
		t.Error("Reset() should restore NoopPassHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testPassHooks{}
	SetPassHooks(custom)

	// Setting nil should be ignored
	SetPassHooks(nil)

	if Pass() != custom {
		t.Error("SetPassHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testPassHooks struct{ NoopPassHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
