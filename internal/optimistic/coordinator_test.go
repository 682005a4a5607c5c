package optimistic

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/projectdesk/internal/apiclient"
)

type card struct {
	ID        string
	Status    string
	Labels    []string
	UpdatedAt time.Time
}

func cloneCard(c card) card {
	c.Labels = slices.Clone(c.Labels)
	return c
}

var (
	t0 = time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	t1 = t0.Add(time.Minute)
)

func newCards(cards ...card) *Collection[card] {
	c := NewCollection(func(c card) string { return c.ID }, cloneCard)
	c.Reset(cards)
	return c
}

func statusTo(status string, send func(context.Context) (*card, error)) Mutation[card] {
	return Mutation[card]{
		Field: "status",
		Apply: func(c *card) {
			c.Status = status
			c.UpdatedAt = t1
		},
		Revert: func(dst *card, prev card) {
			dst.Status = prev.Status
			dst.UpdatedAt = prev.UpdatedAt
		},
		Send:    send,
		Success: "status updated",
	}
}

func serverError(status int, code, msg string) error {
	return &apiclient.Error{Status: status, Code: code, Message: msg, Kind: kindFor(status)}
}

func kindFor(status int) apiclient.Kind {
	switch status {
	case http.StatusForbidden:
		return apiclient.KindAuthorization
	case http.StatusNotFound:
		return apiclient.KindNotFound
	}
	return apiclient.KindServer
}

func TestUpdateAppliesBeforeSend(t *testing.T) {
	rec := &Recorder{}
	co := New(rec, nil)
	cards := newCards(card{ID: "a", Status: "pending", UpdatedAt: t0})

	err := Update(context.Background(), co, cards, "a", statusTo("in_progress", func(context.Context) (*card, error) {
		got, _ := cards.Get("a")
		assert.Equal(t, "in_progress", got.Status, "local state changes before the request")
		return nil, nil
	}))
	require.NoError(t, err)

	got, _ := cards.Get("a")
	assert.Equal(t, "in_progress", got.Status)
	assert.Equal(t, []Note{{OK: true, Msg: "status updated"}}, rec.Notes())
}

func TestUpdateAdoptsCanonical(t *testing.T) {
	co := New(&Recorder{}, nil)
	cards := newCards(card{ID: "a", Status: "pending", UpdatedAt: t0})
	server := t1.Add(time.Second)

	err := Update(context.Background(), co, cards, "a", statusTo("done", func(context.Context) (*card, error) {
		return &card{ID: "a", Status: "done", UpdatedAt: server}, nil
	}))
	require.NoError(t, err)

	got, _ := cards.Get("a")
	assert.Equal(t, card{ID: "a", Status: "done", UpdatedAt: server}, got)
}

func TestUpdateRollbackRestoresSnapshot(t *testing.T) {
	before := card{ID: "a", Status: "pending", Labels: []string{"ui"}, UpdatedAt: t0}
	failures := []error{
		serverError(http.StatusInternalServerError, "SERVER_ERROR", ""),
		serverError(http.StatusForbidden, "FORBIDDEN", "insufficient permission"),
		&apiclient.Error{Kind: apiclient.KindNetwork, Err: context.DeadlineExceeded},
		context.DeadlineExceeded,
	}
	for _, failure := range failures {
		rec := &Recorder{}
		co := New(rec, nil)
		cards := newCards(before, card{ID: "b", Status: "blocked"})

		err := Update(context.Background(), co, cards, "a", statusTo("done", func(context.Context) (*card, error) {
			return nil, failure
		}))
		require.ErrorIs(t, err, failure)

		got, _ := cards.Get("a")
		assert.Equal(t, before, got)
		assert.Len(t, rec.Errors(), 1)
		assert.Equal(t, Message(failure), rec.Errors()[0])
	}
}

func TestUpdateRevertsOnlyTouchedFields(t *testing.T) {
	co := New(&Recorder{}, nil)
	cards := newCards(card{ID: "a", Status: "pending", UpdatedAt: t0})
	release := make(chan struct{})
	done := make(chan error)

	go func() {
		done <- Update(context.Background(), co, cards, "a", statusTo("done", func(context.Context) (*card, error) {
			<-release
			return nil, errors.New("boom")
		}))
	}()

	require.Eventually(t, func() bool {
		got, _ := cards.Get("a")
		return got.Status == "done"
	}, time.Second, time.Millisecond)

	// An unrelated field changes while the status request is pending.
	require.NoError(t, Update(context.Background(), co, cards, "a", Mutation[card]{
		Field: "labels",
		Apply: func(c *card) { c.Labels = []string{"urgent"} },
		Send:  func(context.Context) (*card, error) { return nil, nil },
	}))

	close(release)
	require.Error(t, <-done)

	got, _ := cards.Get("a")
	assert.Equal(t, "pending", got.Status)
	assert.Equal(t, t0, got.UpdatedAt)
	assert.Equal(t, []string{"urgent"}, got.Labels)
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	rec := &Recorder{}
	co := New(rec, nil)
	cards := newCards(card{ID: "a", Status: "pending", UpdatedAt: t0})
	release := make(chan struct{})
	first := make(chan error)

	go func() {
		first <- Update(context.Background(), co, cards, "a", statusTo("blocked", func(context.Context) (*card, error) {
			<-release
			return nil, errors.New("late failure")
		}))
	}()
	require.Eventually(t, func() bool {
		got, _ := cards.Get("a")
		return got.Status == "blocked"
	}, time.Second, time.Millisecond)

	require.NoError(t, Update(context.Background(), co, cards, "a", statusTo("done", func(context.Context) (*card, error) {
		return &card{ID: "a", Status: "done", UpdatedAt: t1}, nil
	})))

	close(release)
	assert.ErrorIs(t, <-first, ErrStale)

	got, _ := cards.Get("a")
	assert.Equal(t, "done", got.Status)
	assert.Empty(t, rec.Errors())
}

// startBlocked issues an edit to status whose response is held until the
// returned release is called with the outcome.
func startBlocked(t *testing.T, co *Coordinator, cards *Collection[card], status string) (release func(error), result <-chan error) {
	t.Helper()
	outcome := make(chan error)
	done := make(chan error, 1)
	go func() {
		done <- Update(context.Background(), co, cards, "a", statusTo(status, func(context.Context) (*card, error) {
			return nil, <-outcome
		}))
	}()
	require.Eventually(t, func() bool {
		got, _ := cards.Get("a")
		return got.Status == status
	}, time.Second, time.Millisecond)
	return func(err error) { outcome <- err }, done
}

func TestOverlappingFailuresRestoreServerValue(t *testing.T) {
	rec := &Recorder{}
	co := New(rec, nil)
	cards := newCards(card{ID: "a", Status: "pending", UpdatedAt: t0})

	releaseA, resultA := startBlocked(t, co, cards, "in_progress")
	releaseB, resultB := startBlocked(t, co, cards, "done")

	releaseA(errors.New("boom"))
	assert.ErrorIs(t, <-resultA, ErrStale)
	got, _ := cards.Get("a")
	assert.Equal(t, "done", got.Status, "newest edit still pending")

	releaseB(serverError(http.StatusInternalServerError, "SERVER_ERROR", "boom"))
	require.Error(t, <-resultB)

	got, _ = cards.Get("a")
	assert.Equal(t, "pending", got.Status)
	assert.Equal(t, t0, got.UpdatedAt)
	assert.Len(t, rec.Errors(), 1)
}

func TestNewestFailureRevertsToAcceptedOlderEdit(t *testing.T) {
	co := New(&Recorder{}, nil)
	cards := newCards(card{ID: "a", Status: "pending", UpdatedAt: t0})

	releaseA, resultA := startBlocked(t, co, cards, "in_progress")
	releaseB, resultB := startBlocked(t, co, cards, "done")

	releaseA(nil)
	assert.ErrorIs(t, <-resultA, ErrStale)
	releaseB(errors.New("boom"))
	require.Error(t, <-resultB)

	got, _ := cards.Get("a")
	assert.Equal(t, "in_progress", got.Status)
}

func TestLateOlderSuccessAfterNewestFailure(t *testing.T) {
	co := New(&Recorder{}, nil)
	cards := newCards(card{ID: "a", Status: "pending", UpdatedAt: t0})

	releaseA, resultA := startBlocked(t, co, cards, "in_progress")
	releaseB, resultB := startBlocked(t, co, cards, "done")

	releaseB(errors.New("boom"))
	require.Error(t, <-resultB)
	got, _ := cards.Get("a")
	assert.Equal(t, "pending", got.Status)

	releaseA(nil)
	assert.ErrorIs(t, <-resultA, ErrStale)
	got, _ = cards.Get("a")
	assert.Equal(t, "in_progress", got.Status, "server accepted the older edit")
}

func TestUpdateMissingRecord(t *testing.T) {
	co := New(&Recorder{}, nil)
	err := Update(context.Background(), co, newCards(), "nope", statusTo("done", func(context.Context) (*card, error) {
		t.Fatal("send must not run")
		return nil, nil
	}))
	assert.ErrorIs(t, err, ErrMissing)
}

func TestClosedCollectionDropsLateResponse(t *testing.T) {
	rec := &Recorder{}
	co := New(rec, nil)
	cards := newCards(card{ID: "a", Status: "pending"})

	err := Update(context.Background(), co, cards, "a", statusTo("done", func(context.Context) (*card, error) {
		cards.Close()
		return nil, errors.New("boom")
	}))
	assert.ErrorIs(t, err, ErrDisposed)
	assert.Empty(t, rec.Notes())
}

func TestCreateReplacesPlaceholder(t *testing.T) {
	rec := &Recorder{}
	co := New(rec, nil)
	cards := newCards(card{ID: "a"})

	created, err := Create(context.Background(), co, cards, Creation[card]{
		Draft: func(id string) card { return card{ID: id, Status: "pending"} },
		Send: func(context.Context) (card, error) {
			items := cards.Items()
			require.Len(t, items, 2)
			assert.True(t, len(items[1].ID) > len(TempPrefix) && items[1].ID[:len(TempPrefix)] == TempPrefix)
			return card{ID: "b", Status: "pending"}, nil
		},
		Success: "created",
	})
	require.NoError(t, err)
	assert.Equal(t, "b", created.ID)
	assert.Equal(t, []card{{ID: "a"}, {ID: "b", Status: "pending"}}, cards.Items())
}

func TestCreateDedupesAgainstExistingRecord(t *testing.T) {
	co := New(&Recorder{}, nil)
	cards := newCards(card{ID: "a"})

	_, err := Create(context.Background(), co, cards, Creation[card]{
		Draft: func(id string) card { return card{ID: id} },
		Send: func(ctx context.Context) (card, error) {
			// A reload delivered the server record before the create returned.
			cards.Reset(append(cards.Items(), card{ID: "b", Status: "from-list"}))
			return card{ID: "b", Status: "from-create"}, nil
		},
	})
	require.NoError(t, err)

	items := cards.Items()
	var ids []string
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, 1, countOf(ids, "b"))
	assert.Len(t, items, 2, "no placeholder left behind")
	got, _ := cards.Get("b")
	assert.Equal(t, "from-create", got.Status)
}

func countOf(ids []string, id string) int {
	n := 0
	for _, v := range ids {
		if v == id {
			n++
		}
	}
	return n
}

func TestCreateFailureRemovesPlaceholderAndRestoresDraft(t *testing.T) {
	rec := &Recorder{}
	co := New(rec, nil)
	cards := newCards(card{ID: "a"})
	draft := ""

	_, err := Create(context.Background(), co, cards, Creation[card]{
		Draft: func(id string) card { return card{ID: id} },
		Send: func(context.Context) (card, error) {
			return card{}, serverError(http.StatusBadRequest, "VALIDATION_ERROR", "content is required")
		},
		OnFailure: func(error) { draft = "hello" },
	})
	require.Error(t, err)
	assert.Equal(t, []card{{ID: "a"}}, cards.Items())
	assert.Equal(t, "hello", draft)
	assert.Equal(t, []string{"content is required"}, rec.Errors())
}

func TestDeleteRestoresAtIndex(t *testing.T) {
	rec := &Recorder{}
	co := New(rec, nil)
	cards := newCards(card{ID: "a"}, card{ID: "b"}, card{ID: "c"})

	err := Delete(context.Background(), co, cards, "b", func(context.Context) error {
		assert.Equal(t, 2, cards.Len(), "removed before the request")
		return serverError(http.StatusForbidden, "FORBIDDEN", "insufficient permission")
	}, "deleted")
	require.Error(t, err)

	assert.Equal(t, []card{{ID: "a"}, {ID: "b"}, {ID: "c"}}, cards.Items())
	assert.Equal(t, []string{MsgPermission}, rec.Errors())
}

func TestDeleteSuccess(t *testing.T) {
	rec := &Recorder{}
	co := New(rec, nil)
	cards := newCards(card{ID: "a"}, card{ID: "b"})

	require.NoError(t, Delete(context.Background(), co, cards, "a", func(context.Context) error { return nil }, "deleted"))
	assert.Equal(t, []card{{ID: "b"}}, cards.Items())
	assert.Equal(t, []Note{{OK: true, Msg: "deleted"}}, rec.Notes())
}

func TestConfirmedWaitsForServer(t *testing.T) {
	rec := &Recorder{}
	co := New(rec, nil)
	cards := newCards(card{ID: "a"}, card{ID: "b"})

	err := Confirmed(context.Background(), co, cards, func(context.Context) error {
		assert.Equal(t, 2, cards.Len(), "nothing changes before confirmation")
		return serverError(http.StatusInternalServerError, "SERVER_ERROR", "")
	}, Remove(cards, "a"), "deleted")
	require.Error(t, err)
	assert.Equal(t, 2, cards.Len())
	assert.Equal(t, []string{MsgGeneric}, rec.Errors())

	require.NoError(t, Confirmed(context.Background(), co, cards, func(context.Context) error { return nil }, Remove(cards, "a"), "deleted"))
	assert.Equal(t, []card{{ID: "b"}}, cards.Items())

	require.NoError(t, Confirmed(context.Background(), co, cards, func(context.Context) error { return nil }, Upsert(cards, card{ID: "c"}), ""))
	assert.Equal(t, []card{{ID: "b"}, {ID: "c"}}, cards.Items())
}

func TestMessage(t *testing.T) {
	assert.Equal(t, MsgPermission, Message(serverError(http.StatusForbidden, "FORBIDDEN", "insufficient permission")))
	assert.Equal(t, MsgNotFound, Message(serverError(http.StatusNotFound, "NOT_FOUND", "task not found")))
	assert.Equal(t, MsgNetwork, Message(context.DeadlineExceeded))
	assert.Equal(t, MsgSession, Message(apiclient.ErrSessionExpired))
	assert.Equal(t, MsgGeneric, Message(serverError(http.StatusInternalServerError, "", "Error 500")))
	assert.Equal(t, "title is required", Message(serverError(http.StatusBadRequest, "VALIDATION_ERROR", "title is required")))
	assert.Equal(t, MsgGeneric, Message(errors.New("boom")))
	assert.NotEqual(t, MsgPermission, MsgGeneric)
}
