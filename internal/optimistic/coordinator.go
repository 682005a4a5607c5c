package optimistic

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrMissing is returned when a mutation names a record that is not in the
// collection.
var ErrMissing = errors.New("optimistic: record not found")

// ErrDisposed is returned when a response arrived after Close.
var ErrDisposed = errors.New("optimistic: collection closed")

// ErrStale is returned when a newer mutation of the same field superseded
// this one; its response was ignored.
var ErrStale = errors.New("optimistic: superseded by a newer change")

// TempPrefix marks identities generated locally for pending creates.
const TempPrefix = "tmp-"

// TempID returns a fresh temporary identity.
func TempID() string {
	return TempPrefix + uuid.NewString()
}

// Notifier receives exactly one message per completed mutation.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Coordinator runs mutations against collections and reports outcomes.
type Coordinator struct {
	notify Notifier
	logger *zap.Logger
}

func New(notify Notifier, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notify == nil {
		notify = LogNotifier{Logger: logger}
	}
	return &Coordinator{notify: notify, logger: logger}
}

func (co *Coordinator) succeed(msg string) {
	if msg != "" {
		co.notify.Success(msg)
	}
}

func (co *Coordinator) fail(op string, err error) {
	co.logger.Info("mutation failed", zap.String("op", op), zap.Error(err))
	co.notify.Error(Message(err))
}

// Mutation describes a field edit of one record.
type Mutation[T any] struct {
	// Field names what is edited; edits of the same record and field are
	// sequenced so only the newest response is applied.
	Field string
	// Apply edits the record locally before any I/O.
	Apply func(*T)
	// Revert copies the touched fields from prev back into dst. Nil
	// restores the whole record.
	Revert func(dst *T, prev T)
	// Send performs the request. A non-nil record is the server's
	// canonical version and replaces the local one.
	Send func(ctx context.Context) (*T, error)
	// OnFailure runs after the rollback, e.g. to restore a draft.
	OnFailure func(error)
	// Success is the notification text; empty sends none.
	Success string
}

// Update applies m to the record id, sends it and reconciles.
func Update[T any](ctx context.Context, co *Coordinator, c *Collection[T], id string, m Mutation[T]) error {
	key := id + "#" + m.Field

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrDisposed
	}
	i := c.index(id)
	if i < 0 {
		c.mu.Unlock()
		return ErrMissing
	}
	prev := c.clone(c.items[i])
	next := c.clone(c.items[i])
	m.Apply(&next)
	c.items[i] = next
	applied := c.clone(next)
	seq := c.next(key)
	st := c.track(key, prev)
	c.mu.Unlock()

	canonical, err := m.Send(ctx)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrDisposed
	}
	if !c.untrack(key, st) {
		c.mu.Unlock()
		return ErrStale
	}
	revert := func(i int) {
		if m.Revert != nil {
			m.Revert(&c.items[i], st.base)
		} else {
			c.items[i] = c.clone(st.base)
		}
	}
	i = c.index(id)
	if err == nil {
		st.base = applied
		if canonical != nil {
			st.base = c.clone(*canonical)
		}
	}
	if !c.latest(key, seq) {
		// A superseded edit only moves the server baseline, unless the
		// newest edit already failed and reverted to an older one.
		if err == nil && st.settled == c.seq[key] && !st.ok && i >= 0 {
			revert(i)
		}
		c.mu.Unlock()
		co.logger.Debug("discard stale response", zap.String("key", key), zap.Error(err))
		return ErrStale
	}
	st.settled, st.ok = seq, err == nil
	if err == nil {
		if canonical != nil && i >= 0 {
			c.items[i] = c.clone(*canonical)
		}
		c.mu.Unlock()
		co.succeed(m.Success)
		return nil
	}
	if i >= 0 {
		revert(i)
	}
	c.mu.Unlock()
	if m.OnFailure != nil {
		m.OnFailure(err)
	}
	co.fail(m.Field, err)
	return err
}

// Creation describes adding a record under a temporary identity.
type Creation[T any] struct {
	// Draft builds the placeholder shown while the request is pending.
	Draft func(tempID string) T
	Send  func(ctx context.Context) (T, error)
	// OnFailure runs after the placeholder is removed.
	OnFailure func(error)
	Success   string
}

// Create appends a placeholder, sends, and swaps in the server's record.
// The collection ends with exactly one record for the creation: the
// placeholder is replaced in place, or dropped if the server's record is
// already present.
func Create[T any](ctx context.Context, co *Coordinator, c *Collection[T], cr Creation[T]) (T, error) {
	var zero T
	temp := TempID()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return zero, ErrDisposed
	}
	c.items = append(c.items, cr.Draft(temp))
	c.mu.Unlock()

	created, err := cr.Send(ctx)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return zero, ErrDisposed
	}
	ti := c.index(temp)
	if err != nil {
		if ti >= 0 {
			c.remove(ti)
		}
		c.mu.Unlock()
		if cr.OnFailure != nil {
			cr.OnFailure(err)
		}
		co.fail("create", err)
		return zero, err
	}
	switch ci := c.index(c.idOf(created)); {
	case ci >= 0:
		c.items[ci] = c.clone(created)
		if ti >= 0 {
			c.remove(ti)
		}
	case ti >= 0:
		c.items[ti] = c.clone(created)
	default:
		c.items = append(c.items, c.clone(created))
	}
	c.mu.Unlock()
	co.succeed(cr.Success)
	return created, nil
}

// Delete removes id at once and puts it back at the same position if the
// request fails.
func Delete[T any](ctx context.Context, co *Coordinator, c *Collection[T], id string, send func(context.Context) error, success string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrDisposed
	}
	i := c.index(id)
	if i < 0 {
		c.mu.Unlock()
		return ErrMissing
	}
	removed := c.items[i]
	c.remove(i)
	seq := c.next(id + "#delete")
	c.mu.Unlock()

	err := send(ctx)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrDisposed
	}
	if err == nil {
		c.mu.Unlock()
		co.succeed(success)
		return nil
	}
	if c.latest(id+"#delete", seq) && c.index(id) < 0 {
		c.put(i, removed)
	}
	c.mu.Unlock()
	co.fail("delete", err)
	return err
}

// Confirmed runs send and only then applies the change. It is the path for
// list-level operations whose local effect must wait for the server.
func Confirmed[T any](ctx context.Context, co *Coordinator, c *Collection[T], send func(context.Context) error, apply func(items []T) []T, success string) error {
	if c.Closed() {
		return ErrDisposed
	}
	if err := send(ctx); err != nil {
		if c.Closed() {
			return ErrDisposed
		}
		co.fail("confirmed", err)
		return err
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrDisposed
	}
	c.items = apply(c.items)
	c.mu.Unlock()
	co.succeed(success)
	return nil
}

// Remove is an apply function for Confirmed that drops id.
func Remove[T any](c *Collection[T], id string) func([]T) []T {
	return func(items []T) []T {
		if i := c.index(id); i >= 0 {
			return append(items[:i:i], items[i+1:]...)
		}
		return items
	}
}

// Upsert is an apply function for Confirmed that replaces the record with
// v's identity or appends v.
func Upsert[T any](c *Collection[T], v T) func([]T) []T {
	return func(items []T) []T {
		if i := c.index(c.idOf(v)); i >= 0 {
			items[i] = c.clone(v)
			return items
		}
		return append(items, c.clone(v))
	}
}
