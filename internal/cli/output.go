package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hongminglow/projectdesk/internal/apiclient"
	"github.com/hongminglow/projectdesk/internal/models"
)

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// Output formats accepted by --output.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func checkFormat(format string) error {
	switch format {
	case formatTable, formatJSON, formatYAML:
		return nil
	}
	return fmt.Errorf("unknown output format %q (supported: table, json, yaml)", format)
}

// render writes v as JSON or YAML, or calls text for the table format.
func (a *App) render(w io.Writer, v any, text func() error) error {
	switch a.Output {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		// Round trip through JSON so YAML keys follow the json tags.
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(doc)
	}
	return text()
}

// reportedError marks a failure the notifier has already shown.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

// reported wraps err when it is a server failure of an optimistic edit,
// which the notifier prints itself.
func reported(err error) error {
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		return reportedError{err: err}
	}
	return err
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context, app *App, args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand(app)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	if cerr := app.close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		var shown reportedError
		if !errors.As(err, &shown) {
			fmt.Fprintln(stderr, "error:", describe(err))
		}
		return 1
	}
	return 0
}

// describe prefers the server's wording for API failures.
func describe(err error) string {
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

func day(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.DateOnly)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func printTasks(w io.Writer, tasks []models.Task) error {
	tw := table(w)
	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tPRIORITY\tASSIGNEE\tDUE")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", t.ID, t.Title, t.Status, t.Priority, dash(t.AssignedTo), day(t.DueDate))
	}
	return tw.Flush()
}

func printTask(w io.Writer, t models.Task, comments []models.Comment) error {
	tw := table(w)
	fmt.Fprintf(tw, "ID\t%s\n", t.ID)
	fmt.Fprintf(tw, "Title\t%s\n", t.Title)
	if t.Description != "" {
		fmt.Fprintf(tw, "Description\t%s\n", t.Description)
	}
	fmt.Fprintf(tw, "Status\t%s\n", t.Status)
	fmt.Fprintf(tw, "Priority\t%s\n", t.Priority)
	fmt.Fprintf(tw, "Assignee\t%s\n", dash(t.AssignedTo))
	fmt.Fprintf(tw, "Due\t%s\n", day(t.DueDate))
	if len(t.Tags) > 0 {
		fmt.Fprintf(tw, "Tags\t%s\n", strings.Join(t.Tags, ", "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(t.Checklist) > 0 {
		fmt.Fprintln(w, "\nChecklist:")
		for _, it := range t.Checklist {
			mark := " "
			if it.Completed {
				mark = "x"
			}
			fmt.Fprintf(w, "  [%s] %s  (%s)\n", mark, it.Text, it.ID)
		}
	}
	if len(comments) > 0 {
		fmt.Fprintln(w, "\nComments:")
		for _, c := range comments {
			fmt.Fprintf(w, "  %s  %s: %s  (%s)\n", c.CreatedAt.Local().Format(time.DateTime), c.UserName, c.Text, c.ID)
		}
	}
	return nil
}
