package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli"

	"eventcal/internal/csvbridge"
	"eventcal/internal/dashboard"
	"eventcal/internal/ics"
	appLog "eventcal/internal/log"
	"eventcal/internal/model"
	"eventcal/internal/natural"
	"eventcal/internal/store"
)

var ListCmd = cli.Command{
	Name:  "list",
	Usage: "Lists events",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "status",
			Usage: "all, completed or pending",
			Value: dashboard.StatusAll,
		},
		&cli.StringFlag{
			Name:  "event",
			Usage: "Only events with this name",
		},
		&cli.StringFlag{
			Name:  "platform",
			Usage: "Only events on this platform",
		},
		&cli.BoolFlag{
			Name:  "by-date",
			Usage: "Order by date instead of stored order",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Print JSON instead of a table",
		},
	},
	Action: listEvents,
}

// eventFlags are shared by add and update.
var eventFlags = []cli.Flag{
	&cli.StringFlag{Name: "date", Usage: `Date, as YYYY-MM-DD or e.g. "next friday"`},
	&cli.StringFlag{Name: "day", Usage: "Day name (derived from the date when empty)"},
	&cli.StringFlag{Name: "start", Usage: `Start time, e.g. "9:00 AM"`},
	&cli.StringFlag{Name: "end", Usage: "End time"},
	&cli.StringFlag{Name: "name", Usage: "Event name"},
	&cli.StringFlag{Name: "format", Usage: "Format, e.g. Live Stream"},
	&cli.StringFlag{Name: "platform", Usage: "Platform, e.g. YouTube"},
	&cli.StringFlag{Name: "notes", Usage: "Focus / notes"},
	&cli.BoolFlag{Name: "completed", Usage: "Mark as completed"},
}

var AddCmd = cli.Command{
	Name:  "add",
	Usage: "Adds an event",
	Flags: append(append([]cli.Flag{}, eventFlags...),
		&cli.StringFlag{Name: "repeat", Usage: `Repeat rule, e.g. "FREQ=WEEKLY;COUNT=4"`},
	),
	Action: addEvent,
}

var UpdateCmd = cli.Command{
	Name:      "update",
	Usage:     "Replaces the fields of an event; unset flags keep their value",
	ArgsUsage: "<id>",
	Flags: append(append([]cli.Flag{}, eventFlags...),
		&cli.BoolFlag{Name: "pending", Usage: "Mark as not completed"},
	),
	Action: updateEvent,
}

var DeleteCmd = cli.Command{
	Name:      "delete",
	Usage:     "Deletes an event",
	ArgsUsage: "<id>",
	Action:    deleteEvent,
}

var DoneCmd = cli.Command{
	Name:      "done",
	Usage:     "Marks an event completed",
	ArgsUsage: "<id>",
	Action:    setCompleted(true),
}

var UndoCmd = cli.Command{
	Name:      "undo",
	Usage:     "Marks an event pending",
	ArgsUsage: "<id>",
	Action:    setCompleted(false),
}

var StatsCmd = cli.Command{
	Name:   "stats",
	Usage:  "Shows event counts and completion rate",
	Action: showStats,
}

var AnalyticsCmd = cli.Command{
	Name:   "analytics",
	Usage:  "Shows completion per event and counts per platform and format",
	Action: showAnalytics,
}

var ImportCmd = cli.Command{
	Name:      "import",
	Usage:     "Imports events from a CSV (or .ics) file, replacing the collection",
	ArgsUsage: "<file>",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "append",
			Usage: "Append instead of replacing",
		},
	},
	Action: importEvents,
}

var ExportCmd = cli.Command{
	Name:  "export",
	Usage: "Exports events as CSV",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "out",
			Usage: "Output file (default stdout)",
		},
	},
	Action: exportCSV,
}

var ExportICSCmd = cli.Command{
	Name:  "export-ics",
	Usage: "Exports events as an iCalendar feed",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "out",
			Usage: "Output file (default stdout)",
		},
	},
	Action: exportICS,
}

var SeedCmd = cli.Command{
	Name:  "seed",
	Usage: "Writes the example events",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "force",
			Usage: "Overwrite existing events",
		},
	},
	Action: seedEvents,
}

func listEvents(c *cli.Context) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	status := c.String("status")
	switch strings.ToLower(status) {
	case dashboard.StatusAll, dashboard.StatusCompleted, dashboard.StatusPending:
	default:
		return fmt.Errorf("invalid status %q", status)
	}

	f := dashboard.Filter{
		Status:    status,
		EventName: c.String("event"),
		Platform:  c.String("platform"),
	}
	events := f.Apply(st.Records())
	if c.Bool("by-date") {
		events = dashboard.SortByDate(events)
	}

	if c.Bool("json") {
		return printJSON(c.App.Writer, events)
	}
	if len(events) == 0 {
		fmt.Fprintln(c.App.Writer, "No events match the selected filters.")
		return nil
	}
	return printTable(c.App.Writer, events)
}

func printTable(w io.Writer, events []model.Event) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tDAY\tTIME\tEVENT\tFORMAT\tPLATFORM\tDONE")
	for _, ev := range events {
		when := ev.StartTime
		if ev.EndTime != "" {
			when += " - " + ev.EndTime
		}
		done := ""
		if ev.Completed {
			done = "x"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			ev.ID, ev.Date, ev.DayName, when, ev.EventName, ev.Format, ev.Platform, done)
	}
	return tw.Flush()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// fieldsFrom overlays the flags that were set on base.
func fieldsFrom(c *cli.Context, base model.Fields) (model.Fields, error) {
	f := base
	set := func(flag string, dst *string) {
		if c.IsSet(flag) {
			*dst = c.String(flag)
		}
	}
	set("date", &f.Date)
	set("day", &f.DayName)
	set("start", &f.StartTime)
	set("end", &f.EndTime)
	set("name", &f.EventName)
	set("format", &f.Format)
	set("platform", &f.Platform)
	set("notes", &f.FocusNotes)
	if c.Bool("completed") {
		f.Completed = true
	}
	if c.Bool("pending") {
		f.Completed = false
	}

	if c.IsSet("date") && strings.TrimSpace(f.Date) != "" {
		date, day, err := natural.Resolve(f.Date, time.Now().In(conf.Location()))
		if err != nil {
			return f, fmt.Errorf("unrecognized date %q: %w", f.Date, err)
		}
		f.Date = date
		if !c.IsSet("day") {
			f.DayName = day
		}
	}
	return f, nil
}

func addEvent(c *cli.Context) error {
	f, err := fieldsFrom(c, model.Fields{})
	if err != nil {
		return err
	}
	if err := f.Validate(); err != nil {
		return fmt.Errorf("%w (--name, --date)", err)
	}
	st, err := openStore()
	if err != nil {
		return err
	}

	if rule := c.String("repeat"); rule != "" {
		res, err := ics.ExpandSeries(f.Event(""), rule, ics.ExpandConfig{Location: conf.Location()})
		if err != nil {
			return err
		}
		if err := st.AppendAll(res.Events); err != nil {
			return err
		}
		for _, ev := range res.Events {
			fmt.Fprintln(c.App.Writer, ev.ID)
		}
		if res.Truncated {
			fmt.Fprintf(c.App.ErrWriter, "series truncated after %d events\n", len(res.Events))
		}
		return nil
	}

	ev, err := st.Create(f)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, ev.ID)
	return nil
}

func requireID(c *cli.Context) (string, error) {
	id := strings.TrimSpace(c.Args().First())
	if id == "" {
		return "", fmt.Errorf("usage: %s %s %s", c.App.Name, c.Command.Name, c.Command.ArgsUsage)
	}
	return id, nil
}

func updateEvent(c *cli.Context) error {
	id, err := requireID(c)
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	current, err := st.Get(id)
	if err != nil {
		return fmt.Errorf("%s: %w", id, err)
	}
	f, err := fieldsFrom(c, current.Fields())
	if err != nil {
		return err
	}
	ev, err := st.Update(id, f)
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, ev)
}

func deleteEvent(c *cli.Context) error {
	id, err := requireID(c)
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	ev, err := st.Delete(id)
	if err != nil {
		return fmt.Errorf("%s: %w", id, err)
	}
	fmt.Fprintf(c.App.Writer, "deleted %s (%s %s)\n", ev.ID, ev.Date, ev.EventName)
	return nil
}

func setCompleted(completed bool) func(c *cli.Context) error {
	return func(c *cli.Context) error {
		id, err := requireID(c)
		if err != nil {
			return err
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		ev, err := st.SetCompleted(id, completed)
		if err != nil {
			return fmt.Errorf("%s: %w", id, err)
		}
		fmt.Fprintf(c.App.Writer, "%s %s: completed=%s\n", ev.Date, ev.EventName, csvbridge.FormatBool(ev.Completed))
		return nil
	}
}

func showStats(c *cli.Context) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	s := dashboard.ComputeStats(st.Records())
	fmt.Fprintf(c.App.Writer, "Total Events:     %d\n", s.Total)
	fmt.Fprintf(c.App.Writer, "Completed:        %d\n", s.Completed)
	fmt.Fprintf(c.App.Writer, "Pending:          %d\n", s.Pending)
	fmt.Fprintf(c.App.Writer, "Completion Rate:  %.1f%%\n", s.Rate)
	return nil
}

func showAnalytics(c *cli.Context) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	rep := dashboard.Analytics(st.Records())
	w := c.App.Writer

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "EVENT\tCOMPLETED\tTOTAL\tRATE")
	for _, e := range rep.ByEvent {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.1f%%\n", e.EventName, e.Completed, e.Total, e.Rate)
	}
	fmt.Fprintln(tw, "\t\t\t")
	fmt.Fprintln(tw, "PLATFORM\tEVENTS\t\t")
	for _, p := range rep.ByPlatform {
		fmt.Fprintf(tw, "%s\t%d\t\t\n", p.Value, p.Count)
	}
	fmt.Fprintln(tw, "\t\t\t")
	fmt.Fprintln(tw, "FORMAT\tEVENTS\t\t")
	for _, f := range rep.ByFormat {
		fmt.Fprintf(tw, "%s\t%d\t\t\n", f.Value, f.Count)
	}
	return tw.Flush()
}

func importEvents(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("usage: %s import [--append] <file>", c.App.Name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var events []model.Event
	if strings.EqualFold(filepath.Ext(path), ".ics") {
		events, err = ics.ParseICS(data, ics.ExpandConfig{Location: conf.Location()})
	} else {
		events, err = csvbridge.FromCSV(string(data))
	}
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	mode := "replaced"
	if c.Bool("append") {
		mode = "appended"
		err = st.AppendAll(events)
	} else {
		err = st.Replace(events)
	}
	if err != nil {
		return err
	}
	appLog.Info("events imported", "file", path, "count", len(events), "mode", mode)
	fmt.Fprintf(c.App.Writer, "%s %d events from %s\n", mode, len(events), path)
	return nil
}

// output returns where an export goes and a function that finishes it.
func output(c *cli.Context) (io.Writer, func() error, error) {
	path := c.String("out")
	if path == "" {
		return c.App.Writer, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func exportCSV(c *cli.Context) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	w, done, err := output(c)
	if err != nil {
		return err
	}
	if err := csvbridge.WriteCSV(w, st.Records()); err != nil {
		_ = done()
		return err
	}
	return done()
}

func exportICS(c *cli.Context) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	body := ics.ToICS(st.Records(), conf.Location())
	w, done, err := output(c)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, body); err != nil {
		_ = done()
		return err
	}
	return done()
}

func seedEvents(c *cli.Context) error {
	st := store.New(newBackend(conf))
	events, err := st.Load()
	if err != nil {
		return err
	}
	if len(events) > 0 && !c.Bool("force") {
		return fmt.Errorf("store already holds %d events; use --force to overwrite", len(events))
	}
	seeded, err := st.Initialize()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "seeded %d events\n", len(seeded))
	return nil
}
