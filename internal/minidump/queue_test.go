package minidump_test

import (
	"context"
	"errors"
	"testing"

	"crashqueue/internal/minidump"
)

type fakeStore struct {
	listings  [][]minidump.Record
	listErr   error
	deleteErr error
	listCalls int
	deleted   []minidump.Record
}

func (s *fakeStore) ListMinidumps(context.Context) ([]minidump.Record, error) {
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	if len(s.listings) == 0 {
		return nil, nil
	}
	next := s.listings[0]
	if len(s.listings) > 1 {
		s.listings = s.listings[1:]
	}
	return append([]minidump.Record(nil), next...), nil
}

func (s *fakeStore) DeleteMinidump(_ context.Context, record minidump.Record) error {
	s.deleted = append(s.deleted, record)
	return s.deleteErr
}

func rec(n string) minidump.Record {
	return minidump.Record{MinidumpPath: "minidump-path" + n, EventPath: "event-path" + n}
}

func mustPeek(t *testing.T, q *minidump.Queue) (minidump.Record, bool) {
	t.Helper()
	head, ok, err := q.Peek(context.Background())
	if err != nil {
		t.Fatalf("Peek returned error: %v", err)
	}
	return head, ok
}

func TestPeekEmptyStoreReturnsNone(t *testing.T) {
	store := &fakeStore{listings: [][]minidump.Record{{}}}
	q := minidump.NewQueue(store)

	if _, ok := mustPeek(t, q); ok {
		t.Fatal("expected empty queue to return no record")
	}
	if q.State() != minidump.StateEmpty {
		t.Fatalf("expected empty state, got %s", q.State())
	}
}

func TestPeekIsIdempotent(t *testing.T) {
	store := &fakeStore{listings: [][]minidump.Record{{rec("1")}}}
	q := minidump.NewQueue(store)

	first, ok := mustPeek(t, q)
	if !ok {
		t.Fatal("expected a record")
	}
	second, _ := mustPeek(t, q)
	if !second.Equal(first) || first != rec("1") {
		t.Fatalf("expected repeated peek to return %+v, got %+v then %+v", rec("1"), first, second)
	}
	if store.listCalls != 1 {
		t.Fatalf("expected a single listing, got %d", store.listCalls)
	}
	if q.State() != minidump.StateHeadReady {
		t.Fatalf("expected head_ready state, got %s", q.State())
	}
}

func TestPeekPropagatesListFailure(t *testing.T) {
	listErr := errors.New("disk on fire")
	store := &fakeStore{listErr: listErr}
	q := minidump.NewQueue(store)

	_, ok, err := q.Peek(context.Background())
	if err == nil || ok {
		t.Fatalf("expected failure, got ok=%v err=%v", ok, err)
	}
	if !errors.Is(err, minidump.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if !errors.Is(err, listErr) {
		t.Fatalf("expected underlying error to be preserved, got %v", err)
	}
	if !minidump.Retryable(err) {
		t.Fatal("expected list failure to be retryable")
	}
	var qerr *minidump.Error
	if !errors.As(err, &qerr) || qerr.ErrorKind() != minidump.KindUnavailable {
		t.Fatalf("expected unavailable kind, got %#v", err)
	}
	if q.State() != minidump.StateEmpty {
		t.Fatalf("expected state to stay empty, got %s", q.State())
	}

	store.listErr = nil
	store.listings = [][]minidump.Record{{rec("1")}}
	head, ok := mustPeek(t, q)
	if !ok || head != rec("1") {
		t.Fatalf("expected retry to succeed, got %+v ok=%v", head, ok)
	}
}

func TestRemoveNilIsNoop(t *testing.T) {
	store := &fakeStore{deleteErr: errors.New("should not be called")}
	q := minidump.NewQueue(store)

	if err := q.Remove(context.Background(), nil); err != nil {
		t.Fatalf("expected nil remove to succeed, got %v", err)
	}
	if len(store.deleted) != 0 {
		t.Fatalf("expected no delete calls, got %v", store.deleted)
	}
	if store.listCalls != 0 {
		t.Fatalf("expected no listing, got %d", store.listCalls)
	}
}

func TestRemoveSkipsHeadWhenDeleteFails(t *testing.T) {
	store := &fakeStore{
		listings:  [][]minidump.Record{{rec("1"), rec("2")}},
		deleteErr: errors.New("permission denied"),
	}
	q := minidump.NewQueue(store)

	head, _ := mustPeek(t, q)
	if head != rec("1") {
		t.Fatalf("unexpected head %+v", head)
	}

	err := q.Remove(context.Background(), &head)
	if !errors.Is(err, minidump.ErrDeleteFailed) {
		t.Fatalf("expected ErrDeleteFailed, got %v", err)
	}
	if minidump.Retryable(err) {
		t.Fatal("delete failure must not be retryable")
	}

	next, ok := mustPeek(t, q)
	if !ok || next != rec("2") {
		t.Fatalf("expected next record after failed delete, got %+v ok=%v", next, ok)
	}
	if store.listCalls != 1 {
		t.Fatalf("expected cached listing to be reused, got %d listings", store.listCalls)
	}
}

func TestRemoveDeletesExactlyTheHead(t *testing.T) {
	store := &fakeStore{listings: [][]minidump.Record{{rec("1"), rec("2")}}}
	q := minidump.NewQueue(store)

	head, _ := mustPeek(t, q)
	if err := q.Remove(context.Background(), &head); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != rec("1") {
		t.Fatalf("expected delete of exactly %+v, got %v", rec("1"), store.deleted)
	}
	if q.Len() != 1 {
		t.Fatalf("expected one cached record left, got %d", q.Len())
	}
}

func TestRemovedRecordDoesNotReappearFromSameListing(t *testing.T) {
	store := &fakeStore{listings: [][]minidump.Record{{rec("1"), rec("2"), rec("3")}}}
	q := minidump.NewQueue(store)

	var seen []minidump.Record
	for {
		head, ok := mustPeek(t, q)
		if !ok {
			break
		}
		if len(seen) > 3 {
			t.Fatalf("queue did not drain: %v", seen)
		}
		seen = append(seen, head)
		if err := q.Remove(context.Background(), &head); err != nil {
			t.Fatalf("Remove returned error: %v", err)
		}
		if q.Len() == 0 {
			store.listings = [][]minidump.Record{{}}
		}
	}

	want := []minidump.Record{rec("1"), rec("2"), rec("3")}
	if len(seen) != len(want) {
		t.Fatalf("expected %v, got %v", want, seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("position %d: expected %+v, got %+v", i, want[i], seen[i])
		}
	}
}

func TestDrainedQueueRelistsStore(t *testing.T) {
	store := &fakeStore{listings: [][]minidump.Record{{rec("1")}, {rec("7")}}}
	q := minidump.NewQueue(store)

	head, _ := mustPeek(t, q)
	if err := q.Remove(context.Background(), &head); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if q.State() != minidump.StateEmpty {
		t.Fatalf("expected empty state after draining, got %s", q.State())
	}

	next, ok := mustPeek(t, q)
	if !ok || next != rec("7") {
		t.Fatalf("expected newly listed record, got %+v ok=%v", next, ok)
	}
	if store.listCalls != 2 {
		t.Fatalf("expected a second listing, got %d", store.listCalls)
	}
}

func TestRemoveDeletesRecordWithoutPeek(t *testing.T) {
	store := &fakeStore{listings: [][]minidump.Record{{rec("1"), rec("2")}}}
	q := minidump.NewQueue(store)

	target := rec("2")
	if err := q.Remove(context.Background(), &target); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != rec("2") {
		t.Fatalf("expected delete of exactly %+v, got %v", rec("2"), store.deleted)
	}
	if store.listCalls != 0 {
		t.Fatalf("expected no listing, got %d", store.listCalls)
	}
}

func TestRemoveNonHeadKeepsHead(t *testing.T) {
	tests := []struct {
		name      string
		target    minidump.Record
		deleteErr error
		wantLen   int
	}{
		{name: "queued record", target: rec("2"), wantLen: 1},
		{name: "unknown record", target: rec("9"), wantLen: 2},
		{name: "same minidump different event", target: minidump.Record{MinidumpPath: "minidump-path1", EventPath: "other"}, wantLen: 2},
		{name: "delete failure", target: rec("2"), deleteErr: errors.New("read-only file system"), wantLen: 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeStore{
				listings:  [][]minidump.Record{{rec("1"), rec("2")}},
				deleteErr: tc.deleteErr,
			}
			q := minidump.NewQueue(store)
			mustPeek(t, q)

			err := q.Remove(context.Background(), &tc.target)
			if tc.deleteErr == nil && err != nil {
				t.Fatalf("Remove returned error: %v", err)
			}
			if tc.deleteErr != nil && !errors.Is(err, minidump.ErrDeleteFailed) {
				t.Fatalf("expected ErrDeleteFailed, got %v", err)
			}
			if len(store.deleted) != 1 || store.deleted[0] != tc.target {
				t.Fatalf("expected delete of %+v, got %v", tc.target, store.deleted)
			}
			head, _ := mustPeek(t, q)
			if head != rec("1") {
				t.Fatalf("expected head unchanged, got %+v", head)
			}
			if q.Len() != tc.wantLen {
				t.Fatalf("expected %d cached records, got %d", tc.wantLen, q.Len())
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	store := &fakeStore{listErr: errors.New("EIO")}
	q := minidump.NewQueue(store)
	_, _, err := q.Peek(context.Background())
	if got := minidump.KindOf(err); got != minidump.KindUnavailable {
		t.Fatalf("expected %q, got %q", minidump.KindUnavailable, got)
	}

	store.listErr = nil
	store.deleteErr = errors.New("EPERM")
	target := rec("1")
	if got := minidump.KindOf(q.Remove(context.Background(), &target)); got != minidump.KindDeleteFailed {
		t.Fatalf("expected %q, got %q", minidump.KindDeleteFailed, got)
	}
	if got := minidump.KindOf(errors.New("plain")); got != "" {
		t.Fatalf("expected empty kind, got %q", got)
	}
}

func TestStateString(t *testing.T) {
	if minidump.StateEmpty.String() != "empty" || minidump.StateHeadReady.String() != "head_ready" {
		t.Fatal("unexpected state labels")
	}
}
