package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/shopctl/internal/audit"
	"github.com/aidanlsb/shopctl/internal/config"
	"github.com/aidanlsb/shopctl/internal/ui"
)

var (
	auditSince string
	auditID    string
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "List mutations recorded in the audit log",
	Example: `  shopctl audit --since 24h
  shopctl audit --id gid://shopify/Product/1`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := audit.New(config.ResolveAuditPath(getConfigPath(), getConfig()))
		if !logger.Enabled() {
			return newCodedError(ErrConfigInvalid, "no audit log configured; set audit_log in %s", getConfigPath())
		}

		var since time.Time
		if auditSince != "" {
			t, err := parseSince(auditSince, time.Now())
			if err != nil {
				return &codedError{code: ErrInvalidInput, err: err}
			}
			since = t
		}

		var (
			entries []audit.Entry
			err     error
		)
		if id := strings.TrimSpace(auditID); id != "" {
			entries, err = logger.ReadForID(id)
		} else {
			entries, err = logger.ReadSince(since)
		}
		if err != nil {
			return &codedError{code: ErrInternal, err: err}
		}
		return outputAuditEntries(entriesSince(entries, since), logger.Path())
	},
}

// parseSince accepts a duration back from now (24h, 90m) or an RFC3339
// timestamp or a plain date.
func parseSince(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "d") {
		if days, err := strconv.Atoi(strings.TrimSuffix(s, "d")); err == nil && days >= 0 {
			return now.AddDate(0, 0, -days), nil
		}
	}
	if d, err := time.ParseDuration(s); err == nil && d >= 0 {
		return now.Add(-d), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid --since %q: want a duration like 24h or 7d, or a timestamp like 2026-01-02T15:04:05Z", s)
}

func entriesSince(entries []audit.Entry, since time.Time) []audit.Entry {
	var kept []audit.Entry
	for _, e := range entries {
		if !e.Timestamp.Before(since) {
			kept = append(kept, e)
		}
	}
	return kept
}

func outputAuditEntries(entries []audit.Entry, path string) error {
	if entries == nil {
		entries = []audit.Entry{}
	}
	if jsonOutput {
		outputSuccess(map[string]interface{}{"path": path, "entries": entries}, nil, &Meta{Count: len(entries)})
		return nil
	}
	if len(entries) == 0 {
		fmt.Fprintln(stderr, ui.Hint("No audit entries"))
		return nil
	}

	t := ui.NewTable("TIME", "STORE", "OPERATION", "STATUS", "IDS")
	for _, e := range entries {
		t.AddRow(
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			e.Store,
			e.Operation,
			auditStatus(e),
			strings.Join(e.IDs, ","),
		)
	}
	fmt.Fprint(stdout, t.Render(getDisplay()))
	fmt.Fprintln(stderr, ui.Hint(ui.Count(len(entries), "entry", "entries")))
	return nil
}

func auditStatus(e audit.Entry) string {
	switch {
	case e.Error != "":
		return "error"
	case e.UserErrors > 0:
		return fmt.Sprintf("%d user errors", e.UserErrors)
	default:
		return "ok"
	}
}

func init() {
	auditCmd.Flags().StringVar(&auditSince, "since", "", "Only entries newer than a duration (24h, 7d) or timestamp")
	auditCmd.Flags().StringVar(&auditID, "id", "", "Only entries that touched this ID")
	rootCmd.AddCommand(auditCmd)
}
