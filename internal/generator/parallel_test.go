package generator

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestGenerateParallelLength(t *testing.T) {
	fields := []FieldSpec{
		{Name: "id", DataType: TypeUUID},
		{Name: "age", DataType: TypeNumber, Options: numberRange(18, 65)},
	}
	for _, tc := range []struct{ count, workers int }{
		{0, 4}, {10, 4}, {5000, 1}, {5000, 4}, {10001, 3}, {-1, 8},
	} {
		records, err := NewSeeded(1).GenerateParallel(context.Background(), fields, tc.count, tc.workers)
		if err != nil {
			t.Fatalf("count=%d workers=%d: %v", tc.count, tc.workers, err)
		}
		want := max(tc.count, 0)
		if len(records) != want {
			t.Fatalf("Expected %d records, got %d", want, len(records))
		}
		for i, rec := range records {
			if rec.Len() != len(fields) {
				t.Fatalf("Record %d has %d keys", i, rec.Len())
			}
			n, _ := rec.Get("age")
			if v := n.(int64); v < 18 || v > 65 {
				t.Fatalf("Record %d: age %d out of range", i, v)
			}
		}
	}
}

func TestGenerateParallelDeterministic(t *testing.T) {
	clock := func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	fields := []FieldSpec{{Name: "id", DataType: TypeUUID}, {Name: "d", DataType: TypeDate}}

	a, err := NewSeeded(5).WithClock(clock).GenerateParallel(context.Background(), fields, 6000, 4)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewSeeded(5).WithClock(clock).GenerateParallel(context.Background(), fields, 6000, 4)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		ja, _ := a[i].MarshalJSON()
		jb, _ := b[i].MarshalJSON()
		if string(ja) != string(jb) {
			t.Fatalf("Record %d differs between runs", i)
		}
	}
}

func TestGenerateParallelCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fields := []FieldSpec{{Name: "s", DataType: TypeString}}
	for _, workers := range []int{1, 4} {
		records, err := NewSeeded(1).GenerateParallel(ctx, fields, 10000, workers)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("workers=%d: expected context.Canceled, got %v", workers, err)
		}
		if records != nil {
			t.Errorf("workers=%d: expected no records on cancel", workers)
		}
	}
}

// lockCheckContext reports whether the generator's lock was free each time
// generation polled for cancellation.
type lockCheckContext struct {
	context.Context
	g      *Generator
	polls  int
	locked int
}

func (c *lockCheckContext) Err() error {
	c.polls++
	if c.g.mu.TryLock() {
		c.g.mu.Unlock()
	} else {
		c.locked++
	}
	return nil
}

func TestGenerateContextLeavesGeneratorFree(t *testing.T) {
	g := NewSeeded(3)
	ctx := &lockCheckContext{Context: context.Background(), g: g}

	records, err := g.GenerateContext(ctx, []FieldSpec{{Name: "n", DataType: TypeNumber}}, 3000)
	if err != nil {
		t.Fatalf("GenerateContext failed: %v", err)
	}
	if len(records) != 3000 {
		t.Fatalf("Expected 3000 records, got %d", len(records))
	}
	if ctx.polls == 0 {
		t.Fatal("Expected generation to poll the context")
	}
	if ctx.locked != 0 {
		t.Errorf("Generator was locked during %d of %d polls", ctx.locked, ctx.polls)
	}
}

func TestConcurrentGenerateContext(t *testing.T) {
	g := NewSeeded(11)
	fields := []FieldSpec{{Name: "n", DataType: TypeNumber, Options: numberRange(0, 9)}}

	errs := make(chan error, 8)
	for w := 0; w < 8; w++ {
		go func() {
			records, err := g.GenerateContext(context.Background(), fields, 500)
			if err == nil && len(records) != 500 {
				err = errors.New("short dataset")
			}
			errs <- err
		}()
	}
	for w := 0; w < 8; w++ {
		if err := <-errs; err != nil {
			t.Errorf("GenerateContext failed: %v", err)
		}
	}
}
