package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/finder/internal/openinghours"
	"github.com/hrygo/finder/server/timezone"
)

func newHoursCommand() *cobra.Command {
	var at, tz string
	cmd := &cobra.Command{
		Use:   "hours <opening_hours>",
		Short: "Evaluate an opening_hours value",
		Example: `  finder hours "Mo-Fr 09:00-17:00; Sa 10:00-14:00"
  finder hours "Mo-Su 11:00-23:00; Dec 25 off" --at "2025-12-25 12:00"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if tz == "" {
				tz = viper.GetString("timezone")
			}
			return runHours(cmd.OutOrStdout(), args[0], at, tz)
		},
	}
	cmd.Flags().StringVar(&at, "at", "", `time to evaluate at, RFC 3339 or "2006-01-02 15:04" (default now)`)
	cmd.Flags().StringVar(&tz, "tz", "", "IANA timezone of the venue (default --timezone)")
	return cmd
}

func runHours(out io.Writer, value, at, tz string) error {
	loc, err := timezone.ParseTimezone(tz)
	if err != nil {
		return err
	}
	t, err := timezone.ParseLocalTime(at, loc)
	if err != nil {
		return err
	}

	verdict := openinghours.Explain(value, openinghours.At(t))
	fmt.Fprintf(out, "%s\n", verdict.State.Badge())
	fmt.Fprintf(out, "at:     %s\n", t.Format("Mon 2006-01-02 15:04 MST"))
	if verdict.Clause != "" {
		fmt.Fprintf(out, "clause: %s (%s)\n", verdict.Clause, verdict.Kind)
	}
	return nil
}
