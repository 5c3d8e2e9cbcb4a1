// selftest drives one in-process page session through a scripted visit and
// prints what the debug overlay captured. Time is simulated, so the idle
// nudge and engagement heartbeats appear without waiting.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"

	"pawty/internal/consent/models"
	"pawty/internal/debug"
	"pawty/internal/platform/logger"
	"pawty/internal/session"
	"pawty/internal/telemetry/datalayer"
	"pawty/internal/trackers/scroll"
	"pawty/pkg/platform/clock"
)

type options struct {
	path      string
	title     string
	consent   string
	logLevel  string
	dumpLayer bool
	verbose   bool
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	var opts options
	flagSet := pflag.NewFlagSet("selftest", pflag.ContinueOnError)
	flagSet.StringVar(&opts.path, "path", "/", "page path of the simulated visit")
	flagSet.StringVar(&opts.title, "title", "Corgi Party", "page title of the simulated visit")
	flagSet.StringVar(&opts.consent, "consent", string(models.ActionAcceptAll), "consent choice: accept_all, reject_all, essential_only or dismiss")
	flagSet.StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")
	flagSet.BoolVar(&opts.dumpLayer, "datalayer", false, "print the data layer records as JSON lines")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "also print the self-test report")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	clk := clock.NewFake(time.Now())
	queue := datalayer.NewQueue()
	s := session.New("selftest", session.Page{
		Path:      opts.path,
		Title:     opts.title,
		Query:     url.Values{debug.QueryFlag: []string{"1"}},
		UserAgent: "pawty-selftest/1.0",
	}, session.Deps{
		Sink:           queue,
		Propagator:     datalayer.NewConsentPropagator(queue),
		Clock:          clk,
		Logger:         logger.NewWithWriter(os.Stderr, opts.logLevel),
		ConsentTTL:     365 * 24 * time.Hour,
		OverlayOptions: []debug.Option{debug.WithTheme(debug.NewTheme(lipgloss.NewRenderer(out)))},
	})

	ctx := context.Background()
	s.Start(ctx)
	defer s.Unload(ctx)

	if err := script(ctx, s, clk, opts.consent); err != nil {
		return err
	}

	report := s.SelfTest()
	if opts.verbose {
		fmt.Fprintf(out, "sink attached: %t, subscribers: %d, event: %s\n\n",
			report.SinkAttached, report.Subscribers, report.Event.Name)
	}

	fmt.Fprintln(out, s.Overlay().Render())

	if opts.dumpLayer {
		enc := json.NewEncoder(out)
		for _, record := range queue.Records() {
			if err := enc.Encode(record); err != nil {
				return fmt.Errorf("encode record: %w", err)
			}
		}
	}
	return nil
}

// script plays a short visit: a consent choice, reading down the page,
// watching the hero video, a keyboard shortcut and a stretch of idling.
func script(ctx context.Context, s *session.Session, clk *clock.FakeClock, choice string) error {
	consent := s.Consent()
	if choice == "dismiss" {
		if err := consent.Dismiss(ctx); err != nil {
			return fmt.Errorf("dismiss consent: %w", err)
		}
	} else {
		action := models.Action(choice)
		if !action.IsValid() {
			return fmt.Errorf("unknown consent choice %q", choice)
		}
		if err := consent.Resolve(ctx, action); err != nil {
			return fmt.Errorf("resolve consent: %w", err)
		}
	}

	for _, y := range []float64{400, 1200, 2200, 3200} {
		s.Scroll(scroll.Position{ScrollY: y, ScrollHeight: 4000, ViewportHeight: 800})
		clk.Advance(scroll.DefaultWindow)
	}

	v, err := s.Video("hero")
	if err != nil {
		return err
	}
	v.Play()
	for _, at := range []float64{15, 30, 45} {
		if err := v.Progress(at, 60); err != nil {
			return err
		}
	}
	v.Ended()

	s.Shortcut("b")

	// Long enough for the idle nudge and one engagement heartbeat.
	clk.Advance(30 * time.Second)
	if s.NudgeVisible() {
		s.AcknowledgeNudge()
	}
	return nil
}
