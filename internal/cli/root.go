package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/OmarIbannez/clean-twitter/internal/cleaner"
	"github.com/OmarIbannez/clean-twitter/internal/models"
)

const historySize = 50

var errUsage = errors.New("no action given")

type options struct {
	factory BackendFactory

	words          []string
	ids            []string
	show           bool
	nuke           bool
	deleteTweets   bool
	deleteRetweets bool
	history        bool
	configPath     string
	verbose        bool
}

// NewRootCommand builds the clean-twitter command. factory is called only
// after flags are parsed and an action was requested.
func NewRootCommand(factory BackendFactory) *cobra.Command {
	o := &options{factory: factory}

	cmd := &cobra.Command{
		Use:   "clean-twitter",
		Short: "Clean your twitter account.",
		Long: `clean-twitter fetches your most recent tweets, picks the ones containing
any of the given words and deletes them. Retweets are unretweeted instead.
Use --show first to see what --nuke would remove.`,
		Example: `  clean-twitter --words crypto,nft --show
  clean-twitter --words crypto --words nft --nuke
  clean-twitter --delete-tweets --tweets-ids 1234,5678
  clean-twitter --delete-retweets --tweets-ids 1234 5678`,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          o.run,
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	flags := cmd.Flags()
	flags.StringSliceVarP(&o.words, "words", "w", nil, "list of comma separated words")
	flags.BoolVarP(&o.show, "show", "s", false, "only show the tweets")
	flags.BoolVarP(&o.nuke, "nuke", "n", false, "delete all tweets that match the words list")
	flags.BoolVarP(&o.deleteTweets, "delete-tweets", "d", false, "delete tweets")
	flags.BoolVarP(&o.deleteRetweets, "delete-retweets", "r", false, "delete retweets")
	flags.StringSliceVarP(&o.ids, "tweets-ids", "t", nil, "list of comma separated tweet IDs")
	flags.BoolVar(&o.history, "history", false, "show the most recent removals from the journal")
	flags.StringVarP(&o.configPath, "config", "c", "", "config file path (default is ./config.yaml or ./config/config.yaml)")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "enable verbose output")

	return cmd
}

// Execute runs the command with args and returns the process exit status
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer, factory BackendFactory) int {
	if args == nil {
		// cobra falls back to os.Args on a nil slice
		args = []string{}
	}

	cmd := NewRootCommand(factory)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func (o *options) hasAction() bool {
	return o.show || o.nuke || o.deleteTweets || o.deleteRetweets || o.history
}

// foldArgs appends space separated values trailing --words or --tweets-ids
// to the list they follow
func (o *options) foldArgs(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return nil
	}

	wordsSet := cmd.Flags().Changed("words")
	idsSet := cmd.Flags().Changed("tweets-ids")
	switch {
	case wordsSet && idsSet:
		return errors.Errorf("cannot tell whether %s are words or tweet IDs, separate them with commas", strings.Join(args, " "))
	case idsSet:
		o.ids = append(o.ids, args...)
	case wordsSet:
		o.words = append(o.words, args...)
	default:
		return errors.Errorf("unexpected arguments: %s", strings.Join(args, " "))
	}
	return nil
}

func (o *options) run(cmd *cobra.Command, args []string) error {
	if cmd.Flags().NFlag() == 0 || !o.hasAction() {
		fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
		return errUsage
	}
	if err := o.foldArgs(cmd, args); err != nil {
		return err
	}

	backend, err := o.factory(o.configPath, o.verbose)
	if err != nil {
		return err
	}
	defer backend.Close()

	cfg := backend.Config
	c := cleaner.New(cleaner.Options{
		Source:      backend.Timeline,
		Remover:     backend.Remover,
		Journal:     backend.Journal,
		Logger:      backend.Logger,
		Username:    cfg.Twitter.Username,
		Limit:       cfg.Cleaner.Limit,
		PageSize:    cfg.Cleaner.PageSize,
		Concurrency: cfg.Cleaner.Concurrency,
	})

	r := &runner{
		ctx:     cmd.Context(),
		out:     cmd.OutOrStdout(),
		errOut:  cmd.ErrOrStderr(),
		cleaner: c,
		backend: backend,
	}

	words := cleanList(o.words)
	ids := cleanList(o.ids)

	if (o.show || o.nuke) && len(words) == 0 {
		fmt.Fprintln(r.out, "You need to provide a list of words.")
	}
	if len(words) > 0 && (o.show || o.nuke) {
		matched, err := r.find(words)
		if err != nil {
			return err
		}
		if o.show {
			headingColor.Fprintln(r.out, "The following tweets were found:")
			printPosts(r.out, matched)
		}
		if o.nuke {
			r.nuke(matched)
		}
	}

	if o.deleteTweets {
		r.removeIDs(ids, models.KindDelete)
	}
	if o.deleteRetweets {
		r.removeIDs(ids, models.KindUnretweet)
	}

	if o.history {
		return r.showHistory()
	}
	return nil
}

type runner struct {
	ctx     context.Context
	out     io.Writer
	errOut  io.Writer
	cleaner *cleaner.Cleaner
	backend *Backend
}

func (r *runner) find(words []string) ([]models.Post, error) {
	stop := startSpinner(r.errOut, "Fetching tweets...")
	defer stop()
	return r.cleaner.Find(r.ctx, words)
}

func (r *runner) nuke(matched []models.Post) {
	warnColor.Fprintln(r.out, "Deleting tweets... 😬")
	report := r.cleaner.RemovePosts(r.ctx, matched)
	r.logRejected(report)
	doneColor.Fprintln(r.out, "The following tweets were deleted: 🎉")
	printPosts(r.out, report.Targeted)
}

func (r *runner) removeIDs(ids []string, kind models.RemovalKind) {
	noun := "tweets"
	if kind == models.KindUnretweet {
		noun = "retweets"
	}
	if len(ids) == 0 {
		fmt.Fprintf(r.out, "You need to provide a list of %s IDs.\n", noun)
		return
	}

	warnColor.Fprintf(r.out, "Deleting %s... 😬\n", noun)
	report := r.cleaner.RemoveIDs(r.ctx, ids, kind)
	r.logRejected(report)
	doneColor.Fprintln(r.out, "Done 🎉")
}

// logRejected only logs: a rejected removal never fails the run
func (r *runner) logRejected(report *cleaner.Report) {
	if err := report.Err(); err != nil && r.backend.Logger != nil {
		r.backend.Logger.Debug("removals_rejected", zap.Int("failed", report.Failed()), zap.Error(err))
	}
}

func (r *runner) showHistory() error {
	if r.backend.Journal == nil || !r.backend.Journal.Enabled() {
		fmt.Fprintln(r.out, "The removal journal is disabled, set storage.type to sqlite to keep one.")
		return nil
	}

	removals, err := r.backend.Journal.ListRemovals(historySize)
	if err != nil {
		return err
	}
	headingColor.Fprintln(r.out, "Most recent removals:")
	printRemovals(r.out, removals)
	return nil
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
