// Package report prints comparison progress and verdicts for humans.
package report

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/TFMV/tabdiff/pkg/core"
	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

// Options configures a Reporter.
type Options struct {
	// StrictColumnOrder adds the strict mode notes to the output.
	StrictColumnOrder bool

	// NoColor disables ANSI colors even on a terminal.
	NoColor bool

	// Progress shows a spinner while groups are compared. Only enable it on a terminal.
	Progress bool
}

// Reporter writes the plain text contract to an output stream.
// It implements core.Observer.
type Reporter struct {
	out  io.Writer
	opts Options

	mu      sync.Mutex
	spin    *spinner.Spinner
	groups  int
	failure *color.Color
	success *color.Color
	warning *color.Color
}

var _ core.Observer = (*Reporter)(nil)

// NewReporter creates a reporter writing to out.
func NewReporter(out io.Writer, opts Options) *Reporter {
	r := &Reporter{
		out:     out,
		opts:    opts,
		failure: color.New(color.FgHiRed, color.Bold),
		success: color.New(color.FgHiGreen, color.Bold),
		warning: color.New(color.FgHiYellow),
	}
	if opts.NoColor {
		for _, c := range []*color.Color{r.failure, r.success, r.warning} {
			c.DisableColor()
		}
	}
	if opts.Progress {
		r.spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
	}
	return r
}

// OnRowCount implements core.Observer.
func (r *Reporter) OnRowCount(int64, int64) {}

// OnPlan prints the start line and starts the spinner.
func (r *Reporter) OnPlan(key string, groups [][]string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.out, StartLine(key, r.opts.StrictColumnOrder))
	r.groups = len(groups)
	if r.spin != nil && r.groups > 0 {
		r.spin.Suffix = fmt.Sprintf(" comparing group 1/%d", r.groups)
		r.spin.Start()
	}
}

// OnGroup advances the spinner.
func (r *Reporter) OnGroup(index int, group []string, _ bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.spin == nil || index+1 >= r.groups {
		return
	}
	r.spin.Lock()
	r.spin.Suffix = fmt.Sprintf(" comparing group %d/%d", index+2, r.groups)
	r.spin.Unlock()
}

// OnVerdict stops the spinner and prints the verdict.
func (r *Reporter) OnVerdict(v *core.Verdict) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stop()
	for _, line := range r.lines(v) {
		fmt.Fprintln(r.out, line)
	}
}

// Close stops the spinner if it is still running.
func (r *Reporter) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stop()
}

func (r *Reporter) stop() {
	if r.spin != nil && r.spin.Active() {
		r.spin.Stop()
	}
}

func (r *Reporter) lines(v *core.Verdict) []string {
	switch v.Kind {
	case core.Identical:
		return []string{r.success.Sprint(IdenticalLine(v.KeyColumn))}
	case core.DuplicateKey:
		return []string{r.warning.Sprint(VerdictLine(v))}
	case core.SchemaMismatch:
		out := []string{r.failure.Sprint(VerdictLine(v))}
		if v.Strict {
			out = append(out, r.warning.Sprint("Hint: --strict-column-order flag is active"))
		}
		return out
	default:
		return []string{r.failure.Sprint(VerdictLine(v))}
	}
}

// StartLine returns the line printed before groups are compared.
func StartLine(key string, strict bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Comparing content of each column in both files when sorted by column %q", key)
	if strict {
		b.WriteString(". Strict order of columns enforced")
	}
	b.WriteString("...")
	return b.String()
}

// IdenticalLine returns the success message.
func IdenticalLine(key string) string {
	return "FILES ARE IDENTICAL WHEN SORTED BY COLUMN: " + key
}

// VerdictLine returns the uncolored verdict message.
func VerdictLine(v *core.Verdict) string {
	switch v.Kind {
	case core.Identical:
		return IdenticalLine(v.KeyColumn)
	case core.RowCountMismatch:
		return fmt.Sprintf("FILES ARE DIFFERENT: Different number of rows %d <> %d", v.FirstRows, v.SecondRows)
	case core.SchemaMismatch:
		return fmt.Sprintf("FILES ARE DIFFERENT: Different columns => [%s] != [%s]",
			strings.Join(v.FirstColumns, ","), strings.Join(v.SecondColumns, ","))
	case core.ContentMismatch:
		if len(v.Group) == 1 {
			return fmt.Sprintf("FILES ARE DIFFERENT: Values for column %s are different", v.Group[0])
		}
		return fmt.Sprintf("FILES ARE DIFFERENT: Values for columns %s are different", strings.Join(v.Group, ","))
	case core.DuplicateKey:
		value := fmt.Sprintf("%q", v.Value)
		if v.ValueMissing {
			value = "(missing)"
		}
		return fmt.Sprintf("FILES ARE NOT COMPARABLE: Duplicate value %s in key column %q of %s", value, v.KeyColumn, v.Path)
	default:
		return v.String()
	}
}
