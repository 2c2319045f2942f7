// Package app wires the pipeline together: resolve the release range,
// reconcile commits against their PRs, summarize each PR, render the
// markdown. The markdown goes to stdout; everything else (report,
// progress, warnings) goes to stderr so output can be piped.
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/git-glance/internal/cache"
	"github.com/kingrea/git-glance/internal/config"
	"github.com/kingrea/git-glance/internal/gitrepo"
	"github.com/kingrea/git-glance/internal/logging"
	"github.com/kingrea/git-glance/internal/lookup"
	"github.com/kingrea/git-glance/internal/model"
	"github.com/kingrea/git-glance/internal/openai"
	"github.com/kingrea/git-glance/internal/reconcile"
	"github.com/kingrea/git-glance/internal/render"
	"github.com/kingrea/git-glance/internal/summarize"
)

var (
	stepStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7AC97A")).Bold(true)
	oidStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
)

// Run executes one glance invocation.
func Run(ctx context.Context, opts Options) error {
	repo, err := gitrepo.Open(opts.RepoDir)
	if err != nil {
		return err
	}

	glanceDir := repo.GlanceDir()
	if err := config.InitGlanceDir(glanceDir); err != nil {
		return err
	}
	cfg, err := config.Load(glanceDir)
	if err != nil {
		return err
	}
	if opts.Workers > 0 {
		cfg.Settings.Workers = opts.Workers
	}

	if opts.Check {
		return runCheck(os.Stderr, cfg)
	}

	log, err := logging.New(cfg.LogsDir())
	if err != nil {
		return err
	}
	defer log.Close()

	rng, err := repo.ReleaseRange(opts.Release, opts.Last)
	if err != nil {
		return err
	}
	printRangeReport(repo, rng)
	log.Printf("range %s..%s: %d commits", rng.BaseRef, rng.TipRef, len(rng.Commits))

	store, err := cache.Open(glanceDir)
	if err != nil {
		return err
	}
	client, err := buildLookup(cfg, repo, opts)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, stepStyle.Render("Getting PR information for commits"))
	bar := newProgressBar(os.Stderr, len(rng.Commits))
	reconciler := &reconcile.Reconciler{
		Cache:   store,
		Lookup:  client,
		Commits: repo,
		Workers: cfg.Settings.Workers,
		OnStep:  bar.Step,
	}
	result, errs := reconciler.Reconcile(ctx, rng.Commits)
	bar.Finish()
	reportErrors(log, errs)

	summaries, errs := summarizePRs(ctx, cfg, result.PRs)
	reportErrors(log, errs)

	header := buildHeader(repo, opts.Release)
	fmt.Fprintln(os.Stderr, stepStyle.Render("Changelog"))
	fmt.Fprint(os.Stdout, render.Render(header, summaries, result.Standalone))
	return nil
}

func printRangeReport(repo *gitrepo.Repository, rng gitrepo.Range) {
	fmt.Fprintln(os.Stderr, stepStyle.Render("Here is what I'm working with:"))
	fmt.Fprintf(os.Stderr, "Tip commit:  %s\n", oidStyle.Render(rng.Tip))
	fmt.Fprintf(os.Stderr, "Last commit: %s\n", oidStyle.Render(rng.Base))
	fmt.Fprintf(os.Stderr, "Number of commits in release: %d\n", len(rng.Commits))
	for _, oid := range rng.Commits {
		info, err := repo.CommitInfo(oid)
		if err != nil {
			continue
		}
		fmt.Fprintf(os.Stderr, "%s %s\n", oidStyle.Render(oid), info.Headline)
	}
	fmt.Fprintln(os.Stderr)
}

func buildLookup(cfg *config.Config, repo *gitrepo.Repository, opts Options) (lookup.Client, error) {
	if cfg.Settings.Lookup.Backend == config.BackendAPI {
		remote, err := repo.RemoteURL()
		if err != nil {
			return nil, err
		}
		token := cfg.GitHubToken()
		if token == "" {
			return nil, fmt.Errorf("app: lookup.backend is %q but GITHUB_TOKEN is not set", config.BackendAPI)
		}
		return lookup.NewAPI(token, remote)
	}
	return lookup.NewCLI(opts.RepoDir), nil
}

func summarizePRs(ctx context.Context, cfg *config.Config, prs map[string]model.PullRequest) ([]model.TaggedSummary, []error) {
	if len(prs) == 0 {
		return nil, nil
	}

	oracle, err := openai.New(
		cfg.OpenAIKey(),
		cfg.Settings.Model,
		cfg.Settings.Temperature,
		cfg.Settings.MaxTokens,
	)
	if err != nil {
		return nil, []error{err}
	}

	fmt.Fprintln(os.Stderr, stepStyle.Render("Summarizing"))
	bar := newProgressBar(os.Stderr, len(prs))
	adapter := &summarize.Adapter{
		Oracle:  oracle,
		Workers: cfg.Settings.Workers,
		OnStep:  bar.Step,
	}
	summaries, errs := adapter.SummarizeAll(ctx, prs)
	bar.Finish()
	return summaries, errs
}

func buildHeader(repo *gitrepo.Repository, release string) render.Header {
	header := render.Header{Release: release}
	if release == "" {
		return header
	}
	when, err := repo.AuthorTime(release)
	if err == nil {
		header.Date = when
		header.HasDate = true
	}
	return header
}

func reportErrors(log *logging.Logger, errs []error) {
	for _, err := range errs {
		log.Printf("%v", err)
		fmt.Fprintln(os.Stderr, warnStyle.Render(fmt.Sprintf("warning: %v", err)))
	}
}
