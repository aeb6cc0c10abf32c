package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/tidwall/sjson"

	"github.com/verte-zerg/tradescan/internal/config"
	"github.com/verte-zerg/tradescan/internal/engine"
	"github.com/verte-zerg/tradescan/internal/hostfeed"
	"github.com/verte-zerg/tradescan/internal/model"
	"github.com/verte-zerg/tradescan/internal/price"
	"github.com/verte-zerg/tradescan/internal/store"
	"github.com/verte-zerg/tradescan/internal/watchui"
)

var (
	scanSession        bool
	scanServer         string
	scanJSON           bool
	scanSounds         bool
	scanOpacityFloor   float64
	scanSessionMinutes float64

	watchInterval time.Duration
	watchLoop     bool
	watchServer   string
	watchNoStore  bool
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <feed>",
		Short: "Replay a host feed and print highlight and alarm intents",
		Args:  cobra.ExactArgs(1),
		RunE:  runScanCmd,
	}
	cmd.Flags().BoolVar(&scanSession, "session", false, "collect search-term stats and store the session")
	cmd.Flags().StringVar(&scanServer, "server", "", "pick the profile serving this address")
	cmd.Flags().BoolVar(&scanJSON, "json", false, "print one JSON object per pass")
	cmd.Flags().BoolVar(&scanSounds, "sounds", true, "decide alarm sounds")
	cmd.Flags().Float64Var(&scanOpacityFloor, "opacity-floor", config.DefaultOpacityFloor, "minimum highlight opacity (0-1)")
	cmd.Flags().Float64Var(&scanSessionMinutes, "session-minutes", config.DefaultSessionMinutes, "session length in minutes")
	return cmd
}

func runScanCmd(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	applyBoolConfig(cmd, "sounds", &scanSounds, a.file.SoundsEnabled)
	applyFloatConfig(cmd, "opacity-floor", &scanOpacityFloor, a.file.OpacityFloor)
	applyFloatConfig(cmd, "session-minutes", &scanSessionMinutes, a.file.SessionMinutes)
	if scanOpacityFloor < 0 || scanOpacityFloor > 1 {
		return fmt.Errorf("--opacity-floor must be between 0 and 1")
	}
	if scanSessionMinutes <= 0 {
		return fmt.Errorf("--session-minutes must be > 0")
	}

	in, closeIn, err := openFeed(args[0])
	if err != nil {
		return err
	}
	defer closeIn()

	opts := []engine.Option{
		engine.WithPlayer(logPlayer{log: a.log}),
		engine.WithSoundsEnabled(scanSounds),
		engine.WithOpacityFloor(scanOpacityFloor),
		engine.WithSessionDuration(time.Duration(scanSessionMinutes * float64(time.Minute))),
	}
	var st *store.Store
	if scanSession {
		st, err = store.Open(config.DefaultDBPath())
		if err != nil {
			return fmt.Errorf("failed to open db: %w", err)
		}
		defer func() {
			if cerr := st.Close(); cerr != nil {
				logErrf("failed to close db: %v\n", cerr)
			}
		}()
		opts = append(opts, engine.WithSessionEndHook(persistSession(a, st, cmd.OutOrStdout())))
	}
	eng, err := a.newEngine(opts...)
	if err != nil {
		return err
	}
	if scanServer != "" {
		name, err := eng.UseServer(scanServer)
		if err != nil {
			return fmt.Errorf("failed to resolve server: %w", err)
		}
		a.log.Info().Str("server", scanServer).Str("profile", name).Msg("profile selected")
	}
	if scanSession {
		id := eng.StartSession()
		if err := writeLines(cmd.OutOrStdout(), []string{a.msgs.Format("session.started", map[string]string{
			"session": id,
			"minutes": strconv.FormatFloat(scanSessionMinutes, 'f', -1, 64),
		})}); err != nil {
			eng.Close()
			return err
		}
	}

	err = replayFeed(cmd.OutOrStdout(), a, eng, hostfeed.NewReader(in))
	eng.Close()
	return err
}

func replayFeed(out io.Writer, a *app, eng *engine.Engine, feed *hostfeed.Reader) error {
	for {
		frame, err := feed.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		res := eng.ProcessPass(frame.Events)
		if scanJSON {
			doc, err := passJSON(frame, res)
			if err != nil {
				return fmt.Errorf("failed to encode pass: %w", err)
			}
			if err := writeLines(out, []string{doc}); err != nil {
				return err
			}
			continue
		}
		if err := writeLines(out, passLines(a, frame, res)); err != nil {
			return err
		}
	}
}

func passLines(a *app, frame hostfeed.Frame, res engine.PassResult) []string {
	names := slotNames(frame)
	lines := []string{a.msgs.Format("scan.pass", map[string]string{
		"frame":   strconv.Itoa(frame.Number),
		"matched": strconv.Itoa(res.Matched),
		"counted": strconv.Itoa(res.Counted),
		"skipped": strconv.Itoa(res.Skipped),
	})}
	for _, h := range res.Highlights {
		lines = append(lines, a.msgs.Format("scan.highlight", map[string]string{
			"slot":    strconv.Itoa(h.Slot),
			"item":    names[h.Slot],
			"price":   price.Format(h.UnitPrice),
			"max":     price.Format(h.MaxPrice),
			"color":   h.Color.Hex(),
			"opacity": strconv.FormatFloat(h.Opacity, 'f', 2, 64),
		}))
	}
	if len(res.Alarm) > 0 {
		lines = append(lines, a.msgs.Format("scan.alarm", map[string]string{
			"count": strconv.Itoa(len(res.Alarm)),
			"sound": res.Alarm[0].Sound,
		}))
	}
	return lines
}

// passJSON encodes one pass as a single-line JSON object.
func passJSON(frame hostfeed.Frame, res engine.PassResult) (string, error) {
	names := slotNames(frame)
	doc := `{"highlights":[],"alarm":[]}`
	var err error
	set := func(path string, value any) {
		if err == nil {
			doc, err = sjson.Set(doc, path, value)
		}
	}
	set("frame", frame.Number)
	set("matched", res.Matched)
	set("counted", res.Counted)
	set("skipped", res.Skipped)
	for _, h := range res.Highlights {
		item := `{}`
		for _, kv := range []struct {
			path  string
			value any
		}{
			{"slot", h.Slot},
			{"item", names[h.Slot]},
			{"rule", h.Rule.Display()},
			{"unit_price", h.UnitPrice},
			{"max_price", h.MaxPrice},
			{"color", h.Color.Hex()},
			{"opacity", h.Opacity},
		} {
			if err == nil {
				item, err = sjson.Set(item, kv.path, kv.value)
			}
		}
		if err == nil {
			doc, err = sjson.SetRaw(doc, "highlights.-1", item)
		}
	}
	for _, r := range res.Alarm {
		entry := `{}`
		if err == nil {
			entry, err = sjson.Set(entry, "delay_ms", r.Delay.Milliseconds())
		}
		if err == nil {
			entry, err = sjson.Set(entry, "sound", r.Sound)
		}
		if err == nil {
			doc, err = sjson.SetRaw(doc, "alarm.-1", entry)
		}
	}
	return doc, err
}

func slotNames(frame hostfeed.Frame) map[int]string {
	names := make(map[int]string, len(frame.Events))
	for _, ev := range frame.Events {
		names[ev.Slot] = ev.DisplayName
	}
	return names
}

// persistSession returns a session-end hook that stores each finished session.
func persistSession(a *app, st *store.Store, out io.Writer) func(model.SessionRecord) {
	return func(rec model.SessionRecord) {
		id, err := st.InsertSession(context.Background(), rec)
		if err != nil {
			a.log.Error().Err(err).Str("session", rec.ID).Msg("failed to store session")
			return
		}
		if out == nil {
			return
		}
		if err := writeLines(out, []string{
			a.msgs.Format("session.ended", map[string]string{"session": id, "reason": rec.Reason}),
			a.msgs.Format("session.saved", map[string]string{"session": id}),
		}); err != nil {
			a.log.Warn().Err(err).Msg("failed to report session")
		}
	}
}

func openFeed(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open feed: %w", err)
	}
	return f, func() {
		if err := f.Close(); err != nil {
			logErrf("failed to close feed: %v\n", err)
		}
	}, nil
}

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <feed>",
		Short: "Replay a host feed in a live dashboard",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatchCmd,
	}
	cmd.Flags().DurationVar(&watchInterval, "interval", watchui.DefaultInterval, "delay between frames")
	cmd.Flags().BoolVar(&watchLoop, "loop", false, "restart the feed after the last frame")
	cmd.Flags().StringVar(&watchServer, "server", "", "pick the profile serving this address")
	cmd.Flags().BoolVar(&watchNoStore, "no-store", false, "do not store finished sessions")
	return cmd
}

func runWatchCmd(cmd *cobra.Command, args []string) error {
	// The dashboard owns the terminal, so diagnostics go to the log file only.
	a, err := loadApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	in, closeIn, err := openFeed(args[0])
	if err != nil {
		return err
	}
	frames, err := hostfeed.ReadAll(in)
	closeIn()
	if err != nil {
		return err
	}

	var program atomic.Pointer[tea.Program]
	var persist func(model.SessionRecord)
	if !watchNoStore {
		st, err := store.Open(config.DefaultDBPath())
		if err != nil {
			return fmt.Errorf("failed to open db: %w", err)
		}
		defer func() {
			if cerr := st.Close(); cerr != nil {
				logErrf("failed to close db: %v\n", cerr)
			}
		}()
		persist = persistSession(a, st, nil)
	}
	hook := func(rec model.SessionRecord) {
		if persist != nil {
			persist(rec)
		}
		if p := program.Load(); p != nil {
			p.Send(watchui.SessionEndedMsg{Record: rec})
		}
	}
	eng, err := a.newEngine(
		engine.WithPlayer(logPlayer{log: a.log}),
		engine.WithSessionEndHook(hook),
	)
	if err != nil {
		return err
	}
	if watchServer != "" {
		if _, err := eng.UseServer(watchServer); err != nil {
			return fmt.Errorf("failed to resolve server: %w", err)
		}
	}

	ui := watchui.NewModel(eng, frames, watchui.Options{
		Interval: watchInterval,
		Loop:     watchLoop,
		Messages: a.msgs,
	})
	p := tea.NewProgram(ui, tea.WithAltScreen())
	program.Store(p)
	_, runErr := p.Run()
	program.Store(nil)
	eng.Close()
	if runErr != nil {
		return fmt.Errorf("failed to run watch TUI: %w", runErr)
	}
	return nil
}
