package persist

import (
	"fmt"
	"sync"
	"testing"
)

func TestStore_GetMissing(t *testing.T) {
	s := NewStore()
	if _, ok := s.Get("missing"); ok {
		t.Error("expected no entry")
	}
	if _, ok := s.Value("missing"); ok {
		t.Error("expected no value entry")
	}
}

func TestStore_PutOverwrites(t *testing.T) {
	s := NewStore()
	s.Put("score", []byte("one"))
	s.Put("score", []byte("two"))

	data, ok := s.Get("score")
	if !ok {
		t.Fatal("expected entry")
	}
	if string(data) != "two" {
		t.Errorf("expected last write 'two', got %q", data)
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", s.Len())
	}
}

func TestStore_PutCopies(t *testing.T) {
	s := NewStore()
	buf := []byte("abc")
	s.Put("k", buf)
	buf[0] = 'z'

	data, _ := s.Get("k")
	if string(data) != "abc" {
		t.Errorf("expected stored copy 'abc', got %q", data)
	}
}

func TestStore_Values(t *testing.T) {
	s := NewStore()
	s.PutValue("v", 1)
	s.PutValue("v", 2)

	v, ok := s.Value("v")
	if !ok {
		t.Fatal("expected value")
	}
	if v.(int) != 2 {
		t.Errorf("expected 2, got %v", v)
	}
}

func TestStore_Keys(t *testing.T) {
	s := NewStore()
	s.Put("b", nil)
	s.PutValue("a", 1)
	s.Put("a", []byte("x"))

	keys := s.Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("expected [a b], got %v", keys)
	}
}

func TestStore_Concurrent(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			s.Put(fmt.Sprintf("k%d", i%5), []byte{byte(i)})
		}(i)
		go func(i int) {
			defer wg.Done()
			s.Get(fmt.Sprintf("k%d", i%5))
		}(i)
	}
	wg.Wait()

	if s.Len() != 5 {
		t.Errorf("expected 5 keys, got %d", s.Len())
	}
}
