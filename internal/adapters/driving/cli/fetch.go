package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/repocensus/internal/adapters/driven/sink/csvfile"
	"github.com/custodia-labs/repocensus/internal/connectors/github"
	"github.com/custodia-labs/repocensus/internal/core/ports/driven"
	"github.com/custodia-labs/repocensus/internal/core/services"
	"github.com/custodia-labs/repocensus/internal/logger"
)

// DefaultOutput is the output file written when neither --output nor the
// config file names one.
const DefaultOutput = "repos.csv"

// progressEvery is how many rows pass between progress line updates.
const progressEvery = 50

var (
	fetchToken     string
	fetchOutput    string
	fetchLanguage  string
	fetchHydrate   bool
	fetchSkipForks bool
	fetchWait      bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Walk the public repository feed into the output file",
	Long: `Walks the GitHub public repository feed in ascending id order and appends
one CSV row per repository. An existing output file is resumed after its
last row; a fresh file gets the header first.

The token (flag, GITHUB_TOKEN, or config file) raises the request quota from
60 to 5,000 per hour. On quota exhaustion the run stops cleanly and a later
run resumes where it left off, unless --wait-for-reset is given.

Examples:
  repocensus fetch --token ghp_xxx
  repocensus fetch --output c-repos.csv --hydrate --language C --skip-forks
  repocensus fetch --wait-for-reset`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(
		&fetchToken, "token", "", "Personal access token (or set GITHUB_TOKEN)")
	fetchCmd.Flags().StringVar(
		&fetchOutput, "output", "", "Output CSV path (default "+DefaultOutput+")")
	fetchCmd.Flags().BoolVar(
		&fetchHydrate, "hydrate", false,
		"Fetch the full record per repository (one extra request each)")
	fetchCmd.Flags().StringVar(
		&fetchLanguage, "language", "", "Keep only repositories with this primary language (requires --hydrate)")
	fetchCmd.Flags().BoolVar(
		&fetchSkipForks, "skip-forks", false, "Drop forked repositories")
	fetchCmd.Flags().BoolVar(
		&fetchWait, "wait-for-reset", false,
		"On quota exhaustion, sleep until the window resets and keep going")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	token := resolveToken(fetchToken, cfg.Token)
	output := fetchOutput
	if output == "" {
		output = cfg.Output
	}
	if output == "" {
		output = DefaultOutput
	}

	if fetchLanguage != "" && !fetchHydrate {
		return errors.New("--language requires --hydrate: the feed omits the language field")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := github.NewClient(ctx, token)
	if err := printBanner(ctx, cmd, client, token); err != nil {
		return err
	}

	sink, err := csvfile.Open(output)
	if err != nil {
		return err
	}

	if sink.Cursor() > 0 {
		cmd.Printf("Resuming %s after repository id %d (%d rows).\n", output, sink.Cursor(), sink.Rows())
	} else {
		cmd.Printf("Starting %s from the beginning of the feed.\n", output)
	}

	skips := services.NewSkipLog(output + ".skipped.log")
	defer skips.Close()

	enumOpts := []github.Option{
		github.WithSkipFunc(func(fullName string, cause error) {
			logger.Warn("skipping %s: %v", fullName, cause)
			skips.Record(fullName, cause)
		}),
	}
	if fetchHydrate {
		enumOpts = append(enumOpts, github.WithHydration())
	}

	progress, finishProgress := progressPrinter(cmd)
	census := services.NewCensus(
		github.NewEnumerator(client, enumOpts...),
		sink,
		skips,
		services.CensusOptions{
			WaitForReset: fetchWait,
			Filter: services.Filter{
				Language:  fetchLanguage,
				SkipForks: fetchSkipForks,
			},
			Progress: progress,
		},
	)

	res, runErr := census.Run(ctx)
	finishProgress()

	// Flush before reporting so the summary describes what is on disk.
	if err := sink.Close(); err != nil && runErr == nil {
		runErr = err
	}

	printSummary(cmd, census, skips, sink.Rows(), res)

	if runErr != nil {
		return fmt.Errorf("fetch: %w", runErr)
	}
	if res.Outcome == driven.OutcomeQuota {
		return fmt.Errorf("rate limit exhausted, resets at %s; re-run to resume",
			res.ResetAt.Format("15:04:05 MST"))
	}
	return nil
}

// resolveToken picks the token from flag, environment, then config file.
func resolveToken(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("GITHUB_TOKEN"); env != "" {
		return env
	}
	return configValue
}

// printBanner reports the auth mode and current quota, the first thing a
// long-running walk should say. An unusable token is fatal here rather than
// one page in.
func printBanner(ctx context.Context, cmd *cobra.Command, client *github.Client, token string) error {
	if token == "" {
		cmd.Println("No API token provided, running unauthenticated (60 requests/hour).")
	} else {
		user, err := client.CurrentUser(ctx)
		if err != nil {
			if github.IsUnauthorized(err) {
				return fmt.Errorf("token rejected: %w", err)
			}
			return err
		}
		cmd.Printf("Authenticated as %s.\n", user.GetLogin())
	}

	limits, err := client.RateLimits(ctx)
	if err == nil && limits.GetCore() != nil {
		core := limits.GetCore()
		cmd.Printf("Rate limit: %d of %d requests remaining.\n", core.Remaining, core.Limit)
	}
	return nil
}

// progressPrinter returns a per-row progress callback and a finisher that
// terminates the rewritten line. Progress lines are only drawn on a TTY.
func progressPrinter(cmd *cobra.Command) (func(rows int, lastID int64), func()) {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return nil, func() {}
	}

	printed := false
	progress := func(rows int, lastID int64) {
		if rows%progressEvery != 0 {
			return
		}
		cmd.Printf("\rFetched %d rows (last id %d)", rows, lastID)
		printed = true
	}
	finish := func() {
		if printed {
			cmd.Println()
		}
	}
	return progress, finish
}

func printSummary(
	cmd *cobra.Command, census *services.Census, skips *services.SkipLog, rows int, res driven.Result,
) {
	cmd.Printf("Appended %d records this run (%d rows total, last id %d).\n",
		census.Appended(), rows, res.LastID)
	if census.Filtered() > 0 {
		cmd.Printf("Filtered out %d records.\n", census.Filtered())
	}
	if skips.Count() > 0 {
		cmd.Printf("Skipped %d malformed records (see skip log).\n", skips.Count())
	}

	switch res.Outcome {
	case driven.OutcomeExhausted:
		cmd.Println("Feed exhausted.")
	case driven.OutcomeCanceled:
		cmd.Println("Interrupted; re-run to resume.")
	}
}
