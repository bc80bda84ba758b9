package entity

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakePayload struct {
	ID    string
	Value int
}

func TestTrustedHandleIsZeroCost(t *testing.T) {
	calls := 0
	inspect := func(ctx context.Context, ref string) (string, *fakePayload, error) {
		calls++
		return ref, &fakePayload{ID: ref}, nil
	}
	h := NewTrusted("client-a", "id", "abc123", DefaultValidity, inspect)
	if got := h.MustID(); got != "abc123" {
		t.Errorf("got id %q, want abc123", got)
	}
	if calls != 0 {
		t.Errorf("trusted construction should not call inspect, got %d calls", calls)
	}
}

func TestUntrustedHandleResolvesIDEagerly(t *testing.T) {
	inspect := func(ctx context.Context, ref string) (string, *fakePayload, error) {
		return "resolved-" + ref, &fakePayload{ID: "resolved-" + ref}, nil
	}
	h, err := NewFromReference(context.Background(), "client-a", "id", "myname", DefaultValidity, inspect)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := h.MustID(); got != "resolved-myname" {
		t.Errorf("got %q, want resolved-myname", got)
	}
}

func TestAttributeBurstCollapsesToOneInspectCall(t *testing.T) {
	calls := 0
	inspect := func(ctx context.Context, ref string) (string, *fakePayload, error) {
		calls++
		return "abc", &fakePayload{ID: "abc", Value: calls}, nil
	}
	h := NewTrusted("client-a", "id", "abc", 50*time.Millisecond, inspect)

	for i := 0; i < 5; i++ {
		if _, err := h.Inspect(context.Background()); err != nil {
			t.Fatalf("Inspect: %v", err)
		}
	}
	if calls != 1 {
		t.Errorf("expected a single inspect call within the validity window, got %d", calls)
	}
}

func TestOverrideValidityForcesRefresh(t *testing.T) {
	calls := 0
	inspect := func(ctx context.Context, ref string) (string, *fakePayload, error) {
		calls++
		return "abc", &fakePayload{ID: "abc", Value: calls}, nil
	}
	h := NewTrusted("client-a", "id", "abc", time.Hour, inspect)
	restore := h.OverrideValidity(0)
	defer restore()

	for i := 0; i < 3; i++ {
		if _, err := h.Inspect(context.Background()); err != nil {
			t.Fatalf("Inspect: %v", err)
		}
	}
	if calls != 3 {
		t.Errorf("expected a refresh per access with zero validity, got %d calls", calls)
	}
}

func TestInvalidateForcesNextAccessToRefresh(t *testing.T) {
	calls := 0
	inspect := func(ctx context.Context, ref string) (string, *fakePayload, error) {
		calls++
		return "abc", &fakePayload{ID: "abc", Value: calls}, nil
	}
	h := NewTrusted("client-a", "id", "abc", time.Hour, inspect)
	if _, err := h.Inspect(context.Background()); err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	h.Invalidate()
	if _, err := h.Inspect(context.Background()); err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected invalidate to force a second inspect call, got %d", calls)
	}
}

func TestEqualityAndHash(t *testing.T) {
	inspect := func(ctx context.Context, ref string) (string, *fakePayload, error) {
		return ref, &fakePayload{ID: ref}, nil
	}
	a := NewTrusted("client-a", "id", "abc", DefaultValidity, inspect)
	b := NewTrusted("client-a", "id", "abc", DefaultValidity, inspect)
	c := NewTrusted("client-b", "id", "abc", DefaultValidity, inspect)
	d := NewTrusted("client-a", "id", "xyz", DefaultValidity, inspect)

	if !a.Equal(b) {
		t.Error("same client + same id should be equal")
	}
	if a.Equal(c) {
		t.Error("different client should not be equal")
	}
	if a.Equal(d) {
		t.Error("different id should not be equal")
	}
	if a.Hash() != b.Hash() {
		t.Error("equal handles should hash equally")
	}
	if a.String() != "abc" {
		t.Errorf("String() got %q, want abc", a.String())
	}
}

func TestBulkReloadMatchesByIDAndFailsOnMissing(t *testing.T) {
	inspect := func(ctx context.Context, ref string) (string, *fakePayload, error) {
		return ref, nil, nil
	}
	h1 := NewTrusted("c", "id", "id1", DefaultValidity, inspect)
	h2 := NewTrusted("c", "id", "id2", DefaultValidity, inspect)

	bulkOK := func(ctx context.Context, ids []string) ([]*fakePayload, error) {
		return []*fakePayload{{ID: "id2", Value: 2}, {ID: "id1", Value: 1}}, nil
	}
	if err := BulkReload(context.Background(), []*Handle[fakePayload]{h1, h2}, bulkOK, func(p *fakePayload) string { return p.ID }); err != nil {
		t.Fatalf("BulkReload: %v", err)
	}
	p1, _ := h1.Inspect(context.Background())
	if p1.Value != 1 {
		t.Errorf("h1 matched wrong payload: %+v", p1)
	}

	bulkMissing := func(ctx context.Context, ids []string) ([]*fakePayload, error) {
		return []*fakePayload{{ID: "id1", Value: 1}}, nil
	}
	err := BulkReload(context.Background(), []*Handle[fakePayload]{h1, h2}, bulkMissing, func(p *fakePayload) string { return p.ID })
	if err == nil {
		t.Fatal("expected an error when an id goes unmatched")
	}
}

func TestScopeRunsTeardownOnClose(t *testing.T) {
	ran := false
	sc := NewScope(func(ctx context.Context) error {
		ran = true
		return nil
	})
	if err := sc.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !ran {
		t.Error("teardown did not run")
	}
}

func TestScopeTeardownRunsEvenAfterError(t *testing.T) {
	ran := false
	func() {
		sc := NewScope(func(ctx context.Context) error {
			ran = true
			return nil
		})
		defer sc.Close(context.Background())
		_ = errors.New("simulated failure path")
	}()
	if !ran {
		t.Error("teardown should run via defer even when the scope body errors")
	}
}

func TestScopeReleaseSkipsTeardown(t *testing.T) {
	ran := false
	sc := NewScope(func(ctx context.Context) error {
		ran = true
		return nil
	})
	sc.Release()
	if err := sc.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if ran {
		t.Error("teardown should not run after Release")
	}
}
