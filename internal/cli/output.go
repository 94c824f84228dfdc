package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/shinji-kodama/service-express/internal/model"
)

// output renders progress and results either as styled text or as a single
// JSON document. Progress messages are suppressed in JSON mode.
type output struct {
	out  io.Writer
	err  io.Writer
	json bool

	path    lipgloss.Style
	heading lipgloss.Style
	command lipgloss.Style
	failure lipgloss.Style
	dim     lipgloss.Style
}

// newOutput creates an output bound to the given writers. Colors are only
// emitted when the writer is a terminal.
func newOutput(out, errOut io.Writer, jsonOutput bool) *output {
	r := lipgloss.NewRenderer(out)
	er := lipgloss.NewRenderer(errOut)
	return &output{
		out:     out,
		err:     errOut,
		json:    jsonOutput,
		path:    r.NewStyle().Foreground(lipgloss.Color("2")),
		heading: r.NewStyle().Bold(true),
		command: r.NewStyle().Foreground(lipgloss.Color("6")),
		failure: er.NewStyle().Foreground(lipgloss.Color("1")),
		dim:     r.NewStyle().Faint(true),
	}
}

// creating announces the scaffold location.
func (o *output) creating(root string) {
	if o.json {
		return
	}
	fmt.Fprintln(o.out)
	fmt.Fprintf(o.out, "Creating a new Express Server in %s.\n", o.path.Render(root))
	fmt.Fprintln(o.out)
}

// installing lists what is about to be installed.
func (o *output) installing(packageManager string, deps model.DependencySet) {
	if o.json {
		return
	}
	fmt.Fprintf(o.out, "Installing packages with %s. This might take a couple of minutes.\n", o.command.Render(packageManager))
	if len(deps.Dependencies) > 0 {
		fmt.Fprintf(o.out, "  dependencies:    %s\n", o.command.Render(strings.Join(deps.Dependencies, ", ")))
	}
	if len(deps.DevDependencies) > 0 {
		fmt.Fprintf(o.out, "  devDependencies: %s\n", o.command.Render(strings.Join(deps.DevDependencies, ", ")))
	}
	fmt.Fprintln(o.out)
}

// aborting reports an installer failure before the error itself is printed.
func (o *output) aborting() {
	if o.json {
		return
	}
	fmt.Fprintln(o.err)
	fmt.Fprintln(o.err, o.failure.Render("Aborting installation."))
}

// conflicts prints the listing of entries that block scaffolding. In JSON
// mode the listing travels with the error object instead.
func (o *output) conflicts(projectDir string, conflicts []model.Conflict) {
	if o.json {
		return
	}
	fmt.Fprintf(o.err, "The directory %s contains files that could conflict:\n", o.path.Render(projectDir))
	fmt.Fprintln(o.err)
	fmt.Fprint(o.err, FormatConflicts(conflicts))
	fmt.Fprintln(o.err)
	fmt.Fprintln(o.err, "Either try using a new directory name, or remove the files listed above.")
	fmt.Fprintln(o.err)
}

// result prints the outcome of a successful run.
func (o *output) result(r scaffoldResult) {
	if o.json {
		data, _ := json.MarshalIndent(r, "", "  ")
		fmt.Fprintln(o.out, string(data))
		return
	}

	for _, name := range r.Removed {
		fmt.Fprintf(o.out, "%s %s\n", o.dim.Render("Removed stale installer log"), name)
	}

	if r.CheckOnly {
		fmt.Fprintf(o.out, "The directory %s is safe to scaffold into.\n", o.path.Render(r.Root))
		return
	}

	fmt.Fprintf(o.out, "%s Created %s at %s\n", o.heading.Render("Success!"), r.Name, o.path.Render(r.Root))
	for _, entry := range r.Created {
		fmt.Fprintf(o.out, "  %s\n", entry)
	}
	switch {
	case r.GitInitialized && r.GitCommitted:
		fmt.Fprintln(o.out, "Initialized a Git repository.")
	case r.GitInitialized:
		fmt.Fprintln(o.out, "Initialized a Git repository, but the initial commit failed. Commit the files yourself.")
	}
	if !r.Installed {
		fmt.Fprintln(o.out)
		fmt.Fprintf(o.out, "Dependencies were not installed. Inside that directory, run %s to install them.\n",
			o.command.Render("npm install"))
	}
}

// FormatConflicts renders the conflict listing, one indented entry per line.
// Directories carry a trailing slash; entries that could not be classified
// are marked.
func FormatConflicts(conflicts []model.Conflict) string {
	var b strings.Builder
	for _, c := range conflicts {
		b.WriteString("  ")
		b.WriteString(c.Display())
		if c.Kind == model.EntryUnknown {
			b.WriteString(" (unreadable)")
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// printError outputs an error in text or JSON format. Errors always go to
// the error writer; stdout is reserved for successful output.
func printError(w io.Writer, jsonOutput bool, message string, underlying error) {
	if jsonOutput {
		errMap := map[string]interface{}{
			"message": message,
		}
		if underlying != nil {
			errMap["detail"] = underlying.Error()
		}
		if conflicts := conflictsOf(underlying); len(conflicts) > 0 {
			errMap["conflicts"] = conflicts
		}
		data, _ := json.MarshalIndent(map[string]interface{}{"error": errMap}, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}

	// The conflict listing was already printed; its summary adds nothing.
	if underlying != nil && conflictsOf(underlying) == nil {
		fmt.Fprintf(w, "Error: %s: %v\n", message, underlying)
	} else {
		fmt.Fprintf(w, "Error: %s\n", message)
	}
}
