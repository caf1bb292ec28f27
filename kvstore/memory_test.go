package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestMemorySetGet(t *testing.T) {
	kv := NewMemory(DefaultConfig())
	ctx := context.Background()

	if err := kv.Set(ctx, "todos", json.RawMessage(`[{"id":1}]`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	val, ok, err := kv.Get(ctx, "todos")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok {
		t.Fatal("expected key to exist")
	}
	if string(val) != `[{"id":1}]` {
		t.Errorf("expected [{\"id\":1}], got %s", val)
	}
}

func TestMemoryGetMissing(t *testing.T) {
	kv := NewMemory(DefaultConfig())

	val, ok, err := kv.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok || val != nil {
		t.Errorf("expected missing key, got %s", val)
	}
}

func TestMemoryEmptyKey(t *testing.T) {
	kv := NewMemory(DefaultConfig())
	ctx := context.Background()

	if _, _, err := kv.Get(ctx, ""); !errors.Is(err, ErrKeyRequired) {
		t.Errorf("expected ErrKeyRequired from Get, got %v", err)
	}
	if err := kv.Set(ctx, "", json.RawMessage(`1`)); !errors.Is(err, ErrKeyRequired) {
		t.Errorf("expected ErrKeyRequired from Set, got %v", err)
	}
}

func TestMemoryRejectsInvalidJSON(t *testing.T) {
	kv := NewMemory(DefaultConfig())
	ctx := context.Background()

	kv.Set(ctx, "todos", json.RawMessage(`["keep"]`))
	if err := kv.Set(ctx, "todos", json.RawMessage(`[oops`)); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}

	val, _, _ := kv.Get(ctx, "todos")
	if string(val) != `["keep"]` {
		t.Errorf("expected previous value to survive, got %s", val)
	}
}

func TestMemoryDelete(t *testing.T) {
	kv := NewMemory(DefaultConfig())
	ctx := context.Background()

	kv.Set(ctx, "foo", json.RawMessage(`"bar"`))
	kv.Delete(ctx, "foo")

	if _, ok, _ := kv.Get(ctx, "foo"); ok {
		t.Error("expected key to be gone after delete")
	}
}

func TestMemoryKeysSorted(t *testing.T) {
	kv := NewMemory(DefaultConfig())
	ctx := context.Background()

	kv.Set(ctx, "c", json.RawMessage(`3`))
	kv.Set(ctx, "a", json.RawMessage(`1`))
	kv.Set(ctx, "b", json.RawMessage(`2`))

	keys, err := kv.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if fmt.Sprint(keys) != "[a b c]" {
		t.Errorf("expected [a b c], got %v", keys)
	}
}

func TestMemoryReturnsCopies(t *testing.T) {
	kv := NewMemory(DefaultConfig())
	ctx := context.Background()

	in := json.RawMessage(`"abc"`)
	kv.Set(ctx, "k", in)
	in[1] = 'z'

	out, _, _ := kv.Get(ctx, "k")
	out[1] = 'y'

	again, _, _ := kv.Get(ctx, "k")
	if string(again) != `"abc"` {
		t.Errorf("stored value was aliased, got %s", again)
	}
}

func TestMemoryLimits(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		cfg  Config
		key  string
		val  string
		want error
	}{
		{"key too large", Config{MaxKeySize: 4}, "too-long", `1`, ErrKeyTooLarge},
		{"value too large", Config{MaxValueSize: 4}, "k", `"too large"`, ErrValueTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := NewMemory(tt.cfg)
			if err := kv.Set(ctx, tt.key, json.RawMessage(tt.val)); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestMemoryTooManyEntries(t *testing.T) {
	kv := NewMemory(Config{MaxEntries: 2})
	ctx := context.Background()

	kv.Set(ctx, "a", json.RawMessage(`1`))
	kv.Set(ctx, "b", json.RawMessage(`2`))

	if err := kv.Set(ctx, "c", json.RawMessage(`3`)); !errors.Is(err, ErrTooManyEntries) {
		t.Errorf("expected ErrTooManyEntries, got %v", err)
	}
	if err := kv.Set(ctx, "a", json.RawMessage(`10`)); err != nil {
		t.Errorf("overwriting an existing key should not count as a new entry: %v", err)
	}
}

func TestMemoryConcurrent(t *testing.T) {
	kv := NewMemory(DefaultConfig())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := string(rune('a' + (n % 26)))
			kv.Set(ctx, key, json.RawMessage(fmt.Sprint(n)))
			kv.Get(ctx, key)
		}(i)
	}
	wg.Wait()
}
