package tusd_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/adamwoolhether/tusc/client/protocol"
	"github.com/adamwoolhether/tusc/internal/tusd"
)

func TestStore_Lifecycle(t *testing.T) {
	s := tusd.NewStore()

	info := s.Create(10, []protocol.Pair{{Key: "filename", Value: "a.txt"}})
	if info.ID == "" || info.Offset != 0 || info.Length != 10 {
		t.Fatalf("unexpected info: %+v", info)
	}

	next, err := s.Append(info.ID, 0, []byte("hello"))
	if err != nil || next != 5 {
		t.Fatalf("append: next=%d err=%v", next, err)
	}
	if _, err := s.Append(info.ID, 0, []byte("again")); !errors.Is(err, tusd.ErrOffsetMismatch) {
		t.Errorf("expected ErrOffsetMismatch, got %v", err)
	}
	if _, err := s.Append(info.ID, 5, []byte("too many bytes")); !errors.Is(err, tusd.ErrExceedsLength) {
		t.Errorf("expected ErrExceedsLength, got %v", err)
	}
	if _, err := s.Append(info.ID, 5, []byte("world")); err != nil {
		t.Fatalf("append: %v", err)
	}

	data, got, err := s.Content(info.ID)
	if err != nil {
		t.Fatalf("content: %v", err)
	}
	if string(data) != "helloworld" || !got.Complete() {
		t.Errorf("content: %q complete=%v", data, got.Complete())
	}
	if diff := cmp.Diff([]protocol.Pair{{Key: "filename", Value: "a.txt"}}, got.Metadata); diff != "" {
		t.Errorf("metadata (-want +got):\n%s", diff)
	}

	if err := s.Delete(info.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(info.ID); !errors.Is(err, tusd.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.Delete(info.ID); !errors.Is(err, tusd.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestStore_Concurrent(t *testing.T) {
	s := tusd.NewStore()

	var wg sync.WaitGroup
	for range 20 {
		wg.Go(func() {
			info := s.Create(1, nil)
			if _, err := s.Append(info.ID, 0, []byte{1}); err != nil {
				t.Errorf("append: %v", err)
			}
		})
	}
	wg.Wait()

	if s.Len() != 20 {
		t.Errorf("got %d uploads, want 20", s.Len())
	}
}
