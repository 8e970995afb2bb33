package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/username/podroznik/internal/monitor"
	"github.com/username/podroznik/internal/schedule"
	"github.com/username/podroznik/internal/upstream"
	"github.com/username/podroznik/pkg/dateutil"
)

func suggestCmd() *cobra.Command {
	var (
		kind        string
		suggestType string
		stopsOnly   bool
		format      string
	)

	cmd := &cobra.Command{
		Use:   "suggest QUERY",
		Short: "List places matching a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newUpstreamClient()
			if err != nil {
				return err
			}

			resp, err := client.Suggest(cmd.Context(), args[0], kind, suggestType)
			if err != nil {
				return err
			}

			suggestions := upstream.RealSuggestions(resp.Suggestions)
			if stopsOnly {
				suggestions = upstream.StopSuggestions(suggestions)
			}

			logger.Debug("Suggestions received",
				zap.String("query", args[0]),
				zap.Int("count", len(suggestions)))

			return writeSuggestions(cmd.OutOrStdout(), suggestions, format)
		},
	}

	cmd.Flags().StringVar(&kind, "kind", upstream.KindSource, "Request kind: SOURCE or DESTINATION")
	cmd.Flags().StringVar(&suggestType, "type", "ALL", "Suggestion type: ALL, CITIES, STOPS, ...")
	cmd.Flags().BoolVar(&stopsOnly, "stops", false, "Only list suggestions that identify a single stop")
	cmd.Flags().StringVar(&format, "format", formatTable, "Output format: table or json")

	return cmd
}

func searchCmd() *cobra.Command {
	var (
		p      upstream.SearchParams
		output string
	)

	cmd := &cobra.Command{
		Use:   "search FROM TO",
		Short: "Search connections and save the results page",
		Long:  "Resolves both places through the autocompleter and submits the connection search. The results page HTML is written to --output (stdout by default).",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := newUpstreamClient()
			if err != nil {
				return err
			}

			if p.FromV, err = resolvePlace(ctx, client, args[0], upstream.KindSource); err != nil {
				return err
			}
			if p.ToV, err = resolvePlace(ctx, client, args[1], upstream.KindDestination); err != nil {
				return err
			}
			p.FromQuery, p.ToQuery = args[0], args[1]
			if p.Date == "" {
				p.Date = dateutil.Today().Format(dateutil.ISODate)
			}

			html, err := client.Search(ctx, p)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, html)
		},
	}

	cmd.Flags().StringVar(&p.Date, "date", "", "Travel date (YYYY-MM-DD or dd.mm.yyyy, default today)")
	cmd.Flags().StringVar(&p.Time, "time", "", "Departure or arrival time (HH:MM)")
	cmd.Flags().StringVar(&p.Arrival, "mode", upstream.ModeDeparture, "DEPARTURE or ARRIVAL")
	cmd.Flags().BoolVar(&p.PreferDirects, "direct", false, "Prefer direct connections")
	cmd.Flags().BoolVar(&p.OnlyOnline, "online", false, "Only connections sold online")
	cmd.Flags().StringVar(&p.MinChange, "min-change", "", "Minimal change time in minutes")
	cmd.Flags().IntSliceVar(&p.CarrierTypes, "carrier", nil, "Carrier types 1..5")
	cmd.Flags().StringVar(&p.ReturnDate, "return-date", "", "Return date; makes the search two-way")
	cmd.Flags().StringVar(&p.ReturnTime, "return-time", "", "Return time (HH:MM)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the page to this file instead of stdout")

	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		p.OmitTime = p.Time == ""
		if p.ReturnDate != "" {
			p.TripType = upstream.TripTwoWay
			p.OmitReturnTime = p.ReturnTime == ""
		}
	}

	return cmd
}

func resolvePlace(ctx context.Context, client *upstream.Client, query, kind string) (string, error) {
	resp, err := client.Suggest(ctx, query, kind, "ALL")
	if err != nil {
		return "", err
	}
	places := upstream.RealSuggestions(resp.Suggestions)
	if s, ok := upstream.PickSuggestion(query, places); ok {
		return s.PlaceDataString, nil
	}
	if len(places) == 0 {
		return "", fmt.Errorf("no place matches %q", query)
	}
	return "", fmt.Errorf("%q is ambiguous (%d matches), try one of: %s", query, len(places), suggestionNames(places, 5))
}

func timetableCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timetable",
		Short: "Fetch and filter stop timetables",
	}
	cmd.AddCommand(timetableFetchCmd(), timetableFilterCmd())
	return cmd
}

func timetableFetchCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "fetch STOP_ID",
		Short: "Download the general timetable page of a stop",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newUpstreamClient()
			if err != nil {
				return err
			}
			html, err := client.GeneralTimetableStop(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, html)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the page to this file instead of stdout")
	return cmd
}

func timetableFilterCmd() *cobra.Command {
	var (
		input   string
		date    string
		from    string
		to      string
		format  string
		results bool
	)

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Filter an extracted timetable by operating date and departure window",
		Long: "Reads timetable JSON ({stop, destinations[{destination, departures[{time, carrier, remarks}]}]}) " +
			"or, with --results, a JSON array of search results, and keeps the departures running on --date " +
			"within --from..--to.",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := schedule.ParseFilter(date, from, to)
			if err != nil {
				return err
			}
			engine, err := newEngine()
			if err != nil {
				return err
			}

			raw, err := readInput(cmd.InOrStdin(), input)
			if err != nil {
				return err
			}

			if results {
				var records []schedule.SearchResultRecord
				if err := json.Unmarshal(raw, &records); err != nil {
					return fmt.Errorf("failed to parse search results: %w", err)
				}
				return writeSearchResults(cmd.OutOrStdout(), engine.FilterSearchResults(records, filter), format)
			}

			var tt schedule.Timetable
			if err := json.Unmarshal(raw, &tt); err != nil {
				return fmt.Errorf("failed to parse timetable: %w", err)
			}
			return writeTimetable(cmd.OutOrStdout(), engine.FilterTimetable(tt, filter), format)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "-", "Input file, - for stdin")
	cmd.Flags().StringVar(&date, "date", "", "Operating date (YYYY-MM-DD, dd.mm.yyyy or YYYYMMDD)")
	cmd.Flags().StringVar(&from, "from", "", "Earliest departure (HH:MM)")
	cmd.Flags().StringVar(&to, "to", "", "Latest departure (HH:MM)")
	cmd.Flags().StringVar(&format, "format", formatJSON, "Output format: json or table")
	cmd.Flags().BoolVar(&results, "results", false, "Input is a list of search results")

	return cmd
}

func appliesCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "applies REMARK...",
		Short: "Tell whether a departure with the given remarks runs on a date",
		Example: `  podroznik applies --date 2026-12-25 "kursuje w dni robocze"
  podroznik applies --date 2026-07-04 "kursuje w soboty" "nie kursuje w okresie 1.VII-31.VIII"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day := dateutil.Today()
			if date != "" {
				d, err := dateutil.ParseDate(date)
				if err != nil {
					return err
				}
				day = d
			}

			engine, err := newEngine()
			if err != nil {
				return err
			}

			runs := engine.Applies(schedule.DepartureRecord{Remarks: args}, day)
			printVerdict(cmd.OutOrStdout(), runs, day)
			if !runs {
				return &exitError{code: 3, err: fmt.Errorf("does not run on %s", day.Format(dateutil.ISODate))}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Date to check (default today)")
	return cmd
}

func dayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "day [DATE]",
		Short: "Show the weekday and public holiday status of a date",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day := dateutil.Today()
			if len(args) == 1 {
				d, err := dateutil.ParseDate(args[0])
				if err != nil {
					return err
				}
				day = d
			}

			cal, err := newCalendar()
			if err != nil {
				return err
			}
			writeDayInfo(cmd.OutOrStdout(), cal.GetDayInfo(day))
			return nil
		},
	}
	return cmd
}

func newChecker() (*monitor.Checker, error) {
	client, err := newUpstreamClient()
	if err != nil {
		return nil, err
	}
	return monitor.NewChecker(client, monitor.Probe{
		SuggestQuery: cfg.Monitor.SuggestQuery,
		SearchFrom:   cfg.Monitor.SearchFrom,
		SearchTo:     cfg.Monitor.SearchTo,
		StopID:       cfg.Monitor.StopID,
	}, logger), nil
}

func checkCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the upstream health check once (exit code 2 on failure)",
		RunE: func(cmd *cobra.Command, args []string) error {
			checker, err := newChecker()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			res := checker.Check(ctx)
			if res.OK {
				writeReport(cmd.OutOrStdout(), res)
				return nil
			}
			writeReport(cmd.ErrOrStderr(), res)
			return &exitError{code: 2, err: fmt.Errorf("upstream check failed")}
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Overall time limit of the check")
	return cmd
}

func monitorCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Run the upstream health check periodically until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			checker, err := newChecker()
			if err != nil {
				return err
			}
			if interval <= 0 {
				interval = cfg.Monitor.Interval
			}

			out := cmd.OutOrStdout()
			d := monitor.NewDaemon(checker, interval, func(res monitor.Result) {
				fmt.Fprintf(out, "# %s\n", res.At.Format(time.RFC3339))
				writeReport(out, res)
			}, logger)

			return d.Start(cmd.Context())
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Check interval (default monitor.interval from config)")
	return cmd
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return data, nil
}

func writeOutput(stdout io.Writer, path, body string) error {
	if path == "" || path == "-" {
		_, err := io.WriteString(stdout, body)
		return err
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	logger.Info("Page saved", zap.String("file", path), zap.Int("bytes", len(body)))
	return nil
}
