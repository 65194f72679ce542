// Package output renders traffic reports for the terminal or for machines.
package output

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/stampede/internal/loadgen"
)

// OutputFormat represents the format for report output
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatYAML OutputFormat = "yaml"
)

// Formats lists every supported format.
var Formats = []OutputFormat{FormatText, FormatJSON, FormatYAML}

// ParseFormat validates a format name. Empty means text.
func ParseFormat(name string) (OutputFormat, error) {
	if name == "" {
		return FormatText, nil
	}
	for _, f := range Formats {
		if string(f) == strings.ToLower(name) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", name)
}

const (
	ruleWidth       = 56
	maxListedErrors = 5
)

// FormatReport renders a report in the named format.
func FormatReport(report *loadgen.Report, format string, noColor bool) (string, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return "", err
	}
	if report == nil {
		return "", fmt.Errorf("no report to format")
	}

	switch f {
	case FormatJSON:
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode report as JSON: %w", err)
		}
		return string(out) + "\n", nil
	case FormatYAML:
		out, err := yaml.Marshal(report)
		if err != nil {
			return "", fmt.Errorf("failed to encode report as YAML: %w", err)
		}
		return string(out), nil
	default:
		return formatText(report, noColor), nil
	}
}

func formatText(r *loadgen.Report, noColor bool) string {
	scheme := NoColorScheme()
	if !noColor {
		scheme = DefaultColorScheme()
		for _, c := range scheme.all() {
			c.EnableColor()
		}
	}

	var buf strings.Builder
	line := scheme.Rule.Sprint(strings.Repeat("━", ruleWidth))

	status := SuccessIcon(noColor) + " " + scheme.Success.Sprint("Completed")
	switch {
	case r.Degraded():
		status = ErrorIcon(noColor) + " " + scheme.Error.Sprint("Degraded")
	case r.RequestsFailed > 0:
		status = WarningIcon(noColor) + " " + scheme.Warn.Sprint("Completed with failures")
	}

	buf.WriteString(line + "\n")
	fmt.Fprintf(&buf, "%s - %s\n", scheme.Title.Sprintf("Traffic %s", r.Target), status)
	buf.WriteString(line + "\n\n")

	row := func(label, value string) {
		fmt.Fprintf(&buf, "%s %s\n", scheme.Label.Sprintf("%-15s", label+":"), value)
	}

	if r.RunID != "" {
		row("Run ID", scheme.Dim.Sprint(r.RunID))
	}
	row("Issued", scheme.Value.Sprint(formatNumber(int64(r.RequestsIssued))))

	succeeded := scheme.Value.Sprint(formatNumber(int64(r.RequestsSucceeded)))
	if r.RequestsIssued > 0 {
		rate := r.SuccessRate()
		succeeded += " " + scheme.rateColor(rate).Sprintf("(%.1f%%)", rate*100)
	}
	row("Succeeded", succeeded)

	failedColor := scheme.Value
	if r.RequestsFailed > 0 {
		failedColor = scheme.Error
	}
	row("Failed", failedColor.Sprint(formatNumber(int64(r.RequestsFailed))))

	avg := scheme.Value.Sprint(r.AverageSuccessLatency.String())
	if !r.AverageSuccessLatency.Defined {
		avg = scheme.Dim.Sprint(r.AverageSuccessLatency.String())
	}
	row("Avg latency", avg)
	if slowest := r.SlowestOutcome(); slowest > 0 {
		row("Slowest", scheme.Value.Sprint(formatDurationShort(slowest)))
	}
	row("Total time", scheme.Value.Sprint(formatDuration(r.TotalElapsed)))
	if r.RequestsSucceeded > 0 {
		row("Reused conns", scheme.Value.Sprintf("%s of %s",
			formatNumber(int64(r.ConnectionsReused)), formatNumber(int64(r.RequestsSucceeded))))
	}
	buf.WriteString("\n")

	if r.Degraded() {
		fmt.Fprintf(&buf, "%s %s\n", scheme.Error.Sprint("Failure reason:"), r.FailureReason)
		return buf.String()
	}

	if r.Latency != nil {
		buf.WriteString(scheme.Title.Sprint("Latency Distribution:") + "\n")
		fmt.Fprintf(&buf, "  Min:       %s\n", formatDurationShort(r.Latency.Min))
		fmt.Fprintf(&buf, "  P50:       %s\n", formatDurationShort(r.Latency.P50))
		fmt.Fprintf(&buf, "  P90:       %s\n", formatDurationShort(r.Latency.P90))
		fmt.Fprintf(&buf, "  P95:       %s\n", formatDurationShort(r.Latency.P95))
		fmt.Fprintf(&buf, "  P99:       %s\n", formatDurationShort(r.Latency.P99))
		fmt.Fprintf(&buf, "  Max:       %s\n", formatDurationShort(r.Latency.Max))
		if ttfb := r.TimeToFirstByte; ttfb != nil {
			fmt.Fprintf(&buf, "  TTFB P50:  %s\n", formatDurationShort(ttfb.P50))
			fmt.Fprintf(&buf, "  TTFB P99:  %s\n", formatDurationShort(ttfb.P99))
		}
		buf.WriteString("\n")
	}

	if len(r.StatusCodes) > 0 {
		buf.WriteString(scheme.Title.Sprint("Status Codes:") + "\n")
		for _, code := range r.StatusCodeList() {
			c := scheme.Success
			switch {
			case code >= 500:
				c = scheme.Error
			case code >= 400:
				c = scheme.Warn
			}
			fmt.Fprintf(&buf, "  %s  %s\n", c.Sprint(code), formatNumber(int64(r.StatusCodes[code])))
		}
		buf.WriteString("\n")
	}

	if len(r.HealthStatuses) > 0 {
		buf.WriteString(scheme.Title.Sprint("Health:") + "\n")
		for _, status := range sortedKeys(r.HealthStatuses) {
			fmt.Fprintf(&buf, "  %-10s %s\n", status, formatNumber(int64(r.HealthStatuses[status])))
		}
		buf.WriteString("\n")
	}

	if len(r.Failures) > 0 {
		buf.WriteString(scheme.Title.Sprint("Failures:") + "\n")
		for _, kind := range r.FailureKinds() {
			fmt.Fprintf(&buf, "  %s %-20s %s\n",
				ErrorIcon(noColor),
				scheme.Error.Sprint(string(kind)),
				formatNumber(int64(r.Failures[kind])))
			fmt.Fprintf(&buf, "    %s\n", scheme.Dim.Sprint(loadgen.Describe(kind)))
		}

		if sample := sampleErrors(r.Outcomes, maxListedErrors); len(sample) > 0 {
			buf.WriteString("  " + scheme.Label.Sprint("Sample errors:") + "\n")
			for _, msg := range sample {
				fmt.Fprintf(&buf, "    - %s\n", msg)
			}
		}
		buf.WriteString("\n")
	}

	return buf.String()
}

// sampleErrors returns up to n distinct failure messages in outcome order.
func sampleErrors(outcomes []loadgen.Outcome, n int) []string {
	seen := make(map[string]bool)
	var msgs []string
	for _, o := range outcomes {
		if o.Success || o.Error == "" || seen[o.Error] {
			continue
		}
		seen[o.Error] = true
		msgs = append(msgs, o.Error)
		if len(msgs) == n {
			break
		}
	}
	return msgs
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// formatDuration formats a duration in a human-readable format.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %02ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
}

// formatDurationShort formats a latency sample.
func formatDurationShort(d time.Duration) string {
	switch {
	case d < time.Microsecond:
		return "0ms"
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
	case d < time.Minute:
		return fmt.Sprintf("%.2fs", d.Seconds())
	default:
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
}

// formatNumber formats a number with thousands separators.
func formatNumber(n int64) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	str := fmt.Sprintf("%d", n)
	if len(str) <= 3 {
		return str
	}

	var result strings.Builder
	offset := len(str) % 3
	if offset > 0 {
		result.WriteString(str[:offset])
	}
	for i := offset; i < len(str); i += 3 {
		if result.Len() > 0 {
			result.WriteString(",")
		}
		result.WriteString(str[i : i+3])
	}
	return result.String()
}
