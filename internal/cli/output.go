package cli

import (
	"io"
	"os"
	"strconv"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/term"

	"github.com/OmarIbannez/clean-twitter/internal/models"
)

const timeLayout = "2006-01-02 15:04:05"

var (
	headingColor = color.New(color.Bold)
	warnColor    = color.New(color.FgYellow)
	doneColor    = color.New(color.FgGreen, color.Bold)
)

func printPosts(w io.Writer, posts []models.Post) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"ID", "Created At", "Retweeted", "Text"})

	for _, p := range posts {
		created := ""
		if !p.CreatedAt.IsZero() {
			created = p.CreatedAt.Format(timeLayout)
		}
		table.Append([]string{p.ID, created, strconv.FormatBool(p.Retweeted), p.Text})
	}

	table.Render()
}

func printRemovals(w io.Writer, removals []*models.Removal) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Attempted At", "Run", "ID", "Kind", "Result"})

	for _, r := range removals {
		result := "ok"
		if !r.Succeeded() {
			result = r.Error
		}
		table.Append([]string{
			r.AttemptedAt.Local().Format(timeLayout),
			r.RunID,
			r.PostID,
			string(r.Kind),
			result,
		})
	}

	table.Render()
}

// startSpinner shows a spinner on w while the timeline loads. It stays
// silent unless w is a terminal.
func startSpinner(w io.Writer, msg string) (stop func()) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return func() {}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(f))
	s.Suffix = " " + msg
	s.Start()
	return s.Stop
}
