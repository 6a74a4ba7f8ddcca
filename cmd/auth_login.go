package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"ghnotifier/internal/deviceflow"
	"ghnotifier/internal/sink"
	"ghnotifier/pkg/logging"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func newAuthLoginCmd(opts *rootOptions) *cobra.Command {
	var (
		force       bool
		openBrowser bool
		withToken   bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize ghnotifier with the GitHub device flow",
		Long: `Authorize ghnotifier to read your notifications.

ghnotifier prints a URL and a one-time code. Open the URL, enter the code
and approve the request; the access token is then stored in the user
config directory. Nothing happens when a token is already stored, unless
--force is given.

With --with-token the device flow is skipped and a personal access token
with the notifications scope is read from standard input instead:

  ghnotifier auth login --with-token < token.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if withToken {
				return storeManualToken(opts, cmd.InOrStdin(), cmd.OutOrStdout())
			}
			if openBrowser {
				opts.openVerificationURI = sink.OpenBrowser
			}
			_, err := ensureToken(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr(), force)
			return err
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Authorize again even if a token is stored")
	cmd.Flags().BoolVar(&openBrowser, "open", false, "Open the verification URL in the default browser")
	cmd.Flags().BoolVar(&withToken, "with-token", false, "Read a personal access token from standard input")
	cmd.MarkFlagsMutuallyExclusive("with-token", "open")
	return cmd
}

// ensureToken returns the stored token, running the device flow and storing
// its result first when there is none or force is set.
func ensureToken(ctx context.Context, opts *rootOptions, out, errOut io.Writer, force bool) (string, error) {
	store, err := newTokenStore(opts.cfg)
	if err != nil {
		return "", err
	}

	if !force {
		token, err := store.Load()
		if err != nil {
			return "", err
		}
		if token != "" {
			opts.println(out, "Previous token was found")
			return token, nil
		}
	}

	token, err := authorize(ctx, opts, out, errOut)
	if err != nil {
		return "", err
	}
	if err := store.Save(token); err != nil {
		return "", fmt.Errorf("failed to store token: %w", err)
	}

	opts.println(out, text.FgGreen.Sprint("Access granted!"))
	return token, nil
}

// authorize runs the device flow, showing a spinner while waiting for the user.
func authorize(ctx context.Context, opts *rootOptions, out, errOut io.Writer) (string, error) {
	client, err := newGitHubClient(opts.cfg)
	if err != nil {
		return "", err
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(errOut))
	s.Suffix = " Waiting for authorization..."

	authorizer := newAuthorizer(opts.cfg, client, deviceflow.WithProgress(func(p deviceflow.Progress) {
		s.Lock()
		s.Suffix = fmt.Sprintf(" Waiting for authorization (%d/%d)...", p.Attempt, p.Limit)
		s.Unlock()
	}))

	token, err := authorizer.Authorize(ctx, func(code *deviceflow.DeviceCode) {
		fmt.Fprintf(out, "Please open URL %s in your browser and enter the following code: %s\n",
			code.VerificationURI, code.UserCode)
		if opts.openVerificationURI != nil {
			if err := opts.openVerificationURI(code.VerificationURI); err != nil {
				logging.Warn("Auth", "Could not open browser: %v", err)
			}
		}
		if !opts.quiet {
			s.Start()
		}
	})
	s.Stop()

	if err != nil {
		var denied *deviceflow.AuthorizationError
		if errors.As(err, &denied) || errors.Is(err, deviceflow.ErrTimeout) {
			return "", &AuthFailedError{Reason: err}
		}
		return "", err
	}
	return token, nil
}

// storeManualToken saves a token read from in, replacing any stored one.
func storeManualToken(opts *rootOptions, in io.Reader, out io.Writer) error {
	store, err := newTokenStore(opts.cfg)
	if err != nil {
		return err
	}
	token, err := readToken(in, out)
	if err != nil {
		return err
	}
	if token == "" {
		return errors.New("no token was provided on standard input")
	}
	if err := store.Save(token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	opts.println(out, text.FgGreen.Sprint("Token stored"))
	return nil
}

// readToken prompts without echo on a terminal and reads all of in otherwise.
func readToken(in io.Reader, out io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && readline.IsTerminal(int(f.Fd())) {
		rl, err := readline.NewEx(&readline.Config{
			Stdin:           f,
			Stdout:          out,
			InterruptPrompt: "^C",
		})
		if err != nil {
			return "", fmt.Errorf("failed to create readline instance: %w", err)
		}
		defer rl.Close()

		line, err := rl.ReadPassword("Paste your access token: ")
		if err == readline.ErrInterrupt {
			return "", context.Canceled
		}
		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		return strings.TrimSpace(string(line)), nil
	}

	data, err := io.ReadAll(io.LimitReader(in, 4096))
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
