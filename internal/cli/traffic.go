package cli

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/stampede/internal/config"
	"github.com/wesleyorama2/stampede/internal/loadgen"
	"github.com/wesleyorama2/stampede/internal/output"
	"github.com/wesleyorama2/stampede/pkg/logger"
)

// errBatchFailed is returned under --fail-on-error so the process exits non-zero.
var errBatchFailed = errors.New("batch had failures")

func newTrafficCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "traffic [URL]",
		Short: "Fire one concurrent batch of GET requests and report the result",
		Long: `Fire a batch of concurrent GET requests at one endpoint and wait for all of
them to settle. Any HTTP response counts as a success; only transport errors
such as timeouts, refused connections or DNS failures count as failures.

  stampede traffic http://localhost:3001/health
  stampede traffic --url http://localhost:3001 --requests 500 --timeout 2s
  stampede traffic --config stampede.yaml --format json --output report.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runTraffic,
	}

	cmd.Flags().StringP("url", "u", "", "Target base URL, or a full URL including the path")
	cmd.Flags().String("path", "", "Path appended to the URL (default \"/health\")")
	cmd.Flags().IntP("requests", "n", loadgen.DefaultRequests, "Number of concurrent requests")
	cmd.Flags().DurationP("timeout", "t", loadgen.DefaultTimeout, "Timeout applied to each request")
	cmd.Flags().StringArrayP("header", "H", []string{}, "Header sent with every request (e.g. 'Authorization: Bearer x')")
	cmd.Flags().BoolP("insecure", "k", false, "Skip TLS certificate verification")
	cmd.Flags().StringP("format", "f", config.DefaultFormat, "Report format: text, json or yaml")
	cmd.Flags().StringP("output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().BoolP("verbose", "v", false, "Include per-request outcomes and debug logging")
	cmd.Flags().Bool("no-color", false, "Disable colored output")
	cmd.Flags().Bool("fail-on-error", false, "Exit non-zero if any request failed")

	return cmd
}

func runTraffic(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	noColor, _ := cmd.Flags().GetBool("no-color")
	failOnError, _ := cmd.Flags().GetBool("fail-on-error")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	traffic, err := resolveTraffic(cmd, args, cfg.Traffic)
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(traffic.Format)
	if err != nil {
		return err
	}

	fallback := logger.ModeQuiet
	if verbose {
		fallback = logger.ModeDebug
	}
	log, err := newLogger(cmd, cfg, fallback)
	if err != nil {
		return err
	}
	defer log.Sync()

	opts := trafficOptions(traffic)
	opts.Logger = log

	report := loadgen.Run(cmd.Context(), opts)

	if !verbose && format != output.FormatText {
		summary := *report
		summary.Outcomes = nil
		report = &summary
	}

	out := cmd.OutOrStdout()
	if traffic.Output != "" {
		rendered, err := output.FormatReport(report, string(format), true)
		if err != nil {
			return err
		}
		if err := writeReport(traffic.Output, rendered); err != nil {
			return err
		}
		fmt.Fprintf(out, "Report: %s\n", traffic.Output)
	} else {
		rendered, err := output.FormatReport(report, string(format), output.NoColor(out, noColor))
		if err != nil {
			return err
		}
		fmt.Fprint(out, rendered)
	}

	if failOnError && report.HasFailures() {
		if report.Degraded() {
			return fmt.Errorf("%w: %s", errBatchFailed, report.FailureReason)
		}
		return fmt.Errorf("%w: %d of %d requests failed", errBatchFailed, report.RequestsFailed, report.RequestsIssued)
	}
	return nil
}

// resolveTraffic layers flags over the config file and validates the result.
func resolveTraffic(cmd *cobra.Command, args []string, fileCfg config.TrafficConfig) (config.TrafficConfig, error) {
	t := fileCfg
	flags := cmd.Flags()

	if len(args) == 1 {
		if flags.Changed("url") {
			return t, fmt.Errorf("give the target either as an argument or with --url, not both")
		}
		t.URL = args[0]
	} else if flags.Changed("url") {
		t.URL, _ = flags.GetString("url")
	}

	if t.URL != "" {
		base, path, err := splitURL(t.URL)
		if err != nil {
			return t, err
		}
		t.URL = base
		if path != "" && t.Path == "" {
			t.Path = path
		}
	}

	if flags.Changed("path") {
		t.Path, _ = flags.GetString("path")
	}
	if flags.Changed("requests") {
		n, _ := flags.GetInt("requests")
		t.Requests = &n
	}
	if flags.Changed("timeout") {
		d, _ := flags.GetDuration("timeout")
		t.Timeout = config.Duration(d)
	}
	if flags.Changed("header") {
		headers, _ := flags.GetStringArray("header")
		merged := make(map[string]string, len(t.Headers)+len(headers))
		for k, v := range t.Headers {
			merged[k] = v
		}
		for _, header := range headers {
			parts := strings.SplitN(header, ":", 2)
			if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
				return t, fmt.Errorf("invalid header %q, want 'Name: value'", header)
			}
			merged[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
		t.Headers = merged
	}
	if flags.Changed("insecure") {
		t.InsecureSkipVerify, _ = flags.GetBool("insecure")
	}
	if flags.Changed("format") || t.Format == "" {
		t.Format, _ = flags.GetString("format")
	}
	if flags.Changed("output") {
		t.Output, _ = flags.GetString("output")
	}

	errs := &config.ValidationErrors{}
	config.ValidateTraffic("traffic", &t, true, errs)
	if errs.HasErrors() {
		return t, errs
	}
	return t, nil
}

// trafficOptions converts validated settings into loadgen options.
func trafficOptions(t config.TrafficConfig) loadgen.Options {
	opts := loadgen.DefaultOptions(t.URL)
	if t.Path != "" {
		opts.Path = t.Path
	}
	if t.Requests != nil {
		opts.Requests = *t.Requests
	}
	opts.Timeout = t.Timeout.GetDuration(loadgen.DefaultTimeout)
	opts.Headers = t.Headers
	opts.InsecureSkipVerify = t.InsecureSkipVerify
	return opts
}

// splitURL separates a target URL into its base (scheme and host) and path.
// A missing scheme defaults to http.
func splitURL(fullURL string) (string, string, error) {
	if !strings.HasPrefix(fullURL, "http://") && !strings.HasPrefix(fullURL, "https://") && !strings.Contains(fullURL, "://") {
		fullURL = "http://" + fullURL
	}

	parsedURL, err := url.Parse(fullURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid URL %q: %w", fullURL, err)
	}
	if parsedURL.RawQuery != "" {
		return "", "", fmt.Errorf("invalid URL %q: query strings are not supported", fullURL)
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	if parsedURL.User != nil {
		baseURL = fmt.Sprintf("%s://%s@%s", parsedURL.Scheme, parsedURL.User.String(), parsedURL.Host)
	}

	path := parsedURL.Path
	if path == "/" {
		path = ""
	}
	return baseURL, path, nil
}

func writeReport(path, content string) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
