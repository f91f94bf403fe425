// Package cmd implements the quillctl commands.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/quill/internal/cli/styles"
	"github.com/aussiebroadwan/quill/internal/cli/tokenfile"
	"github.com/aussiebroadwan/quill/pkg/blogsdk"
	"github.com/aussiebroadwan/quill/pkg/slogx"
)

const defaultAPIURL = "http://localhost:8000/api/"

var (
	apiURL     string
	tokenPath  string
	jsonOutput bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "quillctl",
	Short: "Terminal client for the quill blog",
	Long: `quillctl talks to the blog REST API from a terminal.

Tokens from "quillctl login" are kept in a JSON file and refreshed
automatically when the access token expires.

Environment Variables:
  QUILL_API_URL  Blog API base URL (default: http://localhost:8000/api/)`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and prints any error.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, styles.Error.Render("Error:"), describe(err))
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Blog API base URL (overrides QUILL_API_URL)")
	rootCmd.PersistentFlags().StringVar(&tokenPath, "token-file", "", "Session file (default: $XDG_CONFIG_HOME/quill/tokens.json)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log API and token refresh activity to stderr")
}

// GetAPIURL returns the API URL from flag, env, or default (in priority order).
func GetAPIURL() string {
	if apiURL != "" {
		return apiURL
	}
	if envURL := os.Getenv("QUILL_API_URL"); envURL != "" {
		return envURL
	}
	return defaultAPIURL
}

// env is what every command runs against.
type env struct {
	out    io.Writer
	client *blogsdk.Client
	prompt Prompter
	json   bool
}

func newEnv(cmd *cobra.Command) (*env, context.Context, error) {
	path := tokenPath
	if path == "" {
		p, err := tokenfile.DefaultPath()
		if err != nil {
			return nil, nil, err
		}
		path = p
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	logger := slog.New(slogx.NewHandler(slogx.Config{Level: level, Format: "text", Output: os.Stderr}))

	e := &env{
		out:    cmd.OutOrStdout(),
		client: blogsdk.NewClient(GetAPIURL(), tokenfile.New(path)),
		prompt: huhPrompter{},
		json:   jsonOutput,
	}
	e.client.OnSessionExpired = func(ctx context.Context) {
		slogx.FromContext(ctx).Debug("session expired; token file cleared", "path", path)
	}

	return e, slogx.WithContext(cmd.Context(), logger), nil
}

// run adapts a command body to cobra.
func run(fn func(ctx context.Context, e *env, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, ctx, err := newEnv(cmd)
		if err != nil {
			return err
		}
		return fn(ctx, e, args)
	}
}

func (e *env) printJSON(v any) error {
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (e *env) ok(format string, args ...any) {
	fmt.Fprintln(e.out, styles.OK.Render("✓"), fmt.Sprintf(format, args...))
}

// describe turns client errors into one line for the terminal.
func describe(err error) string {
	if errors.Is(err, blogsdk.ErrSessionExpired) {
		return `session expired, run "quillctl login" again`
	}

	var verr *blogsdk.ValidationError
	if errors.As(err, &verr) {
		return fieldList(verr.Fields)
	}

	if apiErr, ok := blogsdk.AsAPIError(err); ok {
		msg := apiErr.Message("request failed")
		if len(apiErr.FieldErrors) > 0 {
			msg += ": " + fieldList(apiErr.FieldErrors)
		}
		return msg
	}

	return err.Error()
}

func fieldList(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fields[k])
	}
	return strings.Join(parts, "; ")
}
