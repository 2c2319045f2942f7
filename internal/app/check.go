package app

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"

	"github.com/kingrea/git-glance/internal/config"
)

// runCheck reports whether the external collaborators are usable without
// running the pipeline: the oracle credential, and the gh CLI plus its
// authentication state.
func runCheck(out io.Writer, cfg *config.Config) error {
	if cfg.OpenAIKey() != "" {
		fmt.Fprintln(out, stepStyle.Render("* OpenAI key found"))
	} else {
		fmt.Fprintln(out, warnStyle.Render("* OpenAI key not found (set OPENAI_API_KEY)"))
	}

	if cfg.Settings.Lookup.Backend == config.BackendAPI {
		if cfg.GitHubToken() != "" {
			fmt.Fprintln(out, stepStyle.Render("* GitHub token found"))
		} else {
			fmt.Fprintln(out, warnStyle.Render("* GitHub token not found (set GITHUB_TOKEN)"))
		}
		return nil
	}

	if _, err := exec.LookPath("gh"); err != nil {
		fmt.Fprintln(out, warnStyle.Render("* gh not found"))
		fmt.Fprintln(out, oidStyle.Render("  - please install gh from https://cli.github.com/"))
		return nil
	}

	cmd := exec.Command("gh", "auth", "status")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	combined := stdout.String() + " " + stderr.String()
	if err != nil {
		fmt.Fprintln(out, warnStyle.Render("* Failed to run gh"))
		fmt.Fprintln(out, combined)
		return nil
	}
	fmt.Fprintln(out, stepStyle.Render("* gh auth status good"))
	fmt.Fprintln(out, combined)
	return nil
}
