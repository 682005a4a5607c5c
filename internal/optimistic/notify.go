package optimistic

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"sync"

	"go.uber.org/zap"

	"github.com/hongminglow/projectdesk/internal/apiclient"
)

// User-facing failure messages.
const (
	MsgPermission = "You don't have permission to do that."
	MsgNotFound   = "That item no longer exists."
	MsgNetwork    = "Could not reach the server. Check your connection and try again."
	MsgSession    = "Your session expired. Please sign in again."
	MsgMalformed  = "The server sent an unexpected response."
	MsgGeneric    = "Something went wrong. Please try again."
)

var statusOnly = regexp.MustCompile(`^Error \d{3}$`)

// Message turns a failed request into the single line shown to the user.
// Server-provided text is used for unclassified failures when present.
func Message(err error) string {
	switch apiclient.KindOf(err) {
	case apiclient.KindAuthorization:
		return MsgPermission
	case apiclient.KindNotFound:
		return MsgNotFound
	case apiclient.KindNetwork:
		return MsgNetwork
	case apiclient.KindAuthentication:
		return MsgSession
	case apiclient.KindValidation:
		return MsgMalformed
	}
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" && !statusOnly.MatchString(apiErr.Message) {
		return apiErr.Message
	}
	return MsgGeneric
}

// LogNotifier writes notifications to a zap logger.
type LogNotifier struct {
	Logger *zap.Logger
}

func (n LogNotifier) Success(msg string) { n.Logger.Info(msg) }
func (n LogNotifier) Error(msg string)   { n.Logger.Warn(msg) }

// WriterNotifier prints notifications as lines, for terminals.
type WriterNotifier struct {
	Out io.Writer
	Err io.Writer
}

func (n WriterNotifier) Success(msg string) { fmt.Fprintln(n.Out, msg) }
func (n WriterNotifier) Error(msg string)   { fmt.Fprintln(n.Err, "error: "+msg) }

// Note is one recorded notification.
type Note struct {
	OK  bool
	Msg string
}

// Recorder keeps notifications in memory.
type Recorder struct {
	mu    sync.Mutex
	notes []Note
}

func (r *Recorder) Success(msg string) { r.add(Note{OK: true, Msg: msg}) }
func (r *Recorder) Error(msg string)   { r.add(Note{Msg: msg}) }

func (r *Recorder) add(n Note) {
	r.mu.Lock()
	r.notes = append(r.notes, n)
	r.mu.Unlock()
}

// Notes returns what was recorded so far.
func (r *Recorder) Notes() []Note {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Note(nil), r.notes...)
}

// Errors returns only the failure messages.
func (r *Recorder) Errors() []string {
	var out []string
	for _, n := range r.Notes() {
		if !n.OK {
			out = append(out, n.Msg)
		}
	}
	return out
}
