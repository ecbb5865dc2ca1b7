package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lllypuk/commons/internal/domain/user"
)

func newLifecycleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lifecycle",
		Short: "Work with user lifecycle records",
	}
	cmd.AddCommand(newDeriveCmd())
	return cmd
}

func newDeriveCmd() *cobra.Command {
	var (
		bannedOn, deleted, detainedTill, now string
		detainment                           time.Duration
		asJSON                               bool
	)

	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Collapse legacy lifecycle columns into a single status",
		Example: `  commonsctl lifecycle derive --banned-on 2024-03-01T10:00:00Z
  commonsctl lifecycle derive --detained-till 2030-01-01T00:00:00Z --detainment-duration 72h --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				rec user.LegacyRecord
				err error
			)
			if rec.BannedOn, err = parseOptionalTime("banned-on", bannedOn); err != nil {
				return err
			}
			if rec.Deleted, err = parseOptionalTime("deleted", deleted); err != nil {
				return err
			}
			if rec.DetainedTill, err = parseOptionalTime("detained-till", detainedTill); err != nil {
				return err
			}
			rec.DetainmentDuration = detainment

			at := time.Now().UTC()
			if now != "" {
				if at, err = time.Parse(time.RFC3339, now); err != nil {
					return fmt.Errorf("invalid --now: %w", err)
				}
			}

			status := user.DeriveLifecycle(rec, at)
			return printStatus(cmd, status, at, asJSON)
		},
	}

	cmd.Flags().StringVar(&bannedOn, "banned-on", "", "ban timestamp (RFC 3339)")
	cmd.Flags().StringVar(&deleted, "deleted", "", "deletion timestamp (RFC 3339)")
	cmd.Flags().StringVar(&detainedTill, "detained-till", "", "end of detention (RFC 3339)")
	cmd.Flags().DurationVar(&detainment, "detainment-duration", 0, "length of the detention")
	cmd.Flags().StringVar(&now, "now", "", "evaluate at this instant instead of the current time (RFC 3339)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the status as JSON")
	return cmd
}

func parseOptionalTime(flag, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil //nolint:nilnil // an unset column
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", flag, err)
	}
	return &t, nil
}

type statusOutput struct {
	State    string     `json:"state"`
	Active   bool       `json:"active"`
	Since    *time.Time `json:"since,omitempty"`
	Until    *time.Time `json:"until,omitempty"`
	Duration string     `json:"duration,omitempty"`
}

func printStatus(cmd *cobra.Command, s user.Status, at time.Time, asJSON bool) error {
	out := statusOutput{State: s.State.String(), Active: s.At(at).IsActive()}
	if !s.Since.IsZero() {
		out.Since = &s.Since
	}
	if !s.Until.IsZero() {
		out.Until = &s.Until
	}
	if s.Duration > 0 {
		out.Duration = s.Duration.String()
	}

	w := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	line := out.State
	if out.Since != nil {
		line += " since " + out.Since.Format(time.RFC3339)
	}
	if out.Until != nil {
		line += " until " + out.Until.Format(time.RFC3339)
	}
	_, err := fmt.Fprintln(w, line)
	return err
}
