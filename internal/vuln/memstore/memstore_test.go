package memstore

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/linnemanlabs/warden/internal/vuln"
)

func TestStore_PutAndGet(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	r := &vuln.Record{ID: "v-1", Title: "SQL injection", Endpoint: "/login", CVE: "CVE-1"}
	if err := s.Put(ctx, r); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := s.Get(ctx, "v-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected record to be found")
	}
	if got.Title != "SQL injection" {
		t.Errorf("Title = %q, want %q", got.Title, "SQL injection")
	}
	if got.Endpoint != "/login" {
		t.Errorf("Endpoint = %q, want %q", got.Endpoint, "/login")
	}
}

func TestStore_GetMissing(t *testing.T) {
	t.Parallel()

	s := New()
	_, ok, err := s.Get(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for missing ID")
	}
}

func TestStore_GetReturnsCopy(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	if err := s.Put(ctx, &vuln.Record{ID: "v-1", Title: "original"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, _, _ := s.Get(ctx, "v-1")
	got.Title = "mutated"

	again, _, _ := s.Get(ctx, "v-1")
	if again.Title != "original" {
		t.Errorf("stored record mutated through Get copy: Title = %q", again.Title)
	}
}

func TestStore_PutCopiesInput(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	r := &vuln.Record{ID: "v-1", Title: "original"}
	if err := s.Put(ctx, r); err != nil {
		t.Fatalf("Put: %v", err)
	}
	r.Title = "mutated"

	got, _, _ := s.Get(ctx, "v-1")
	if got.Title != "original" {
		t.Errorf("stored record mutated through Put pointer: Title = %q", got.Title)
	}
}

func TestStore_ListKeepsInsertionOrder(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	for _, id := range []string{"c", "a", "b"} {
		if err := s.Put(ctx, &vuln.Record{ID: id}); err != nil {
			t.Fatalf("Put(%s): %v", id, err)
		}
	}
	// update must not move the record
	if err := s.Put(ctx, &vuln.Record{ID: "c", Title: "updated"}); err != nil {
		t.Fatalf("Put update: %v", err)
	}

	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"c", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("List[%d].ID = %q, want %q", i, got[i].ID, id)
		}
	}
	if got[0].Title != "updated" {
		t.Errorf("List[0].Title = %q, want %q", got[0].Title, "updated")
	}
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		_ = s.Put(ctx, &vuln.Record{ID: id})
	}

	ok, err := s.Delete(ctx, "b")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !ok {
		t.Fatal("Delete returned ok=false for existing record")
	}
	if _, found, _ := s.Get(ctx, "b"); found {
		t.Error("record still present after Delete")
	}

	got, _ := s.List(ctx)
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Errorf("List after delete = %+v, want [a c]", got)
	}

	ok, err = s.Delete(ctx, "b")
	if err != nil {
		t.Fatalf("Delete again: %v", err)
	}
	if ok {
		t.Error("second Delete returned ok=true")
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("v-%d", i)
			_ = s.Put(ctx, &vuln.Record{ID: id, Endpoint: "/e"})
			_, _, _ = s.Get(ctx, id)
			_, _ = s.List(ctx)
		}(i)
	}
	wg.Wait()

	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 50 {
		t.Errorf("len = %d, want 50", len(got))
	}
}
