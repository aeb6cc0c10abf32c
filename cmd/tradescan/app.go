package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/tradescan/internal/config"
	"github.com/verte-zerg/tradescan/internal/engine"
	"github.com/verte-zerg/tradescan/internal/itemkey"
	"github.com/verte-zerg/tradescan/internal/logging"
	"github.com/verte-zerg/tradescan/internal/messages"
	"github.com/verte-zerg/tradescan/internal/rules"
)

// app bundles what every command needs: the loaded config, its resolved settings and a logger.
type app struct {
	path     string
	file     config.FileConfig
	settings config.Settings
	log      zerolog.Logger
	closer   io.Closer
	msgs     *messages.Catalog
}

func loadApp(cmd *cobra.Command, console bool) (*app, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	fc, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	settings, err := config.Resolve(fc)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	applyStringConfig(cmd, "log-level", &logLevel, &settings.LogLevel)

	opts := logging.Options{
		Level:   logLevel,
		Console: console && settings.LogConsole,
		File:    settings.LogFile,
		NoColor: noColor(os.Stderr),
		Out:     cmd.ErrOrStderr(),
	}
	if !console && opts.File == "" {
		opts.File = config.DefaultLogPath()
	}
	log, closer, err := logging.New(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return &app{
		path:     path,
		file:     fc,
		settings: settings,
		log:      log,
		closer:   closer,
		msgs:     messages.Default(),
	}, nil
}

func (a *app) close() {
	if err := a.closer.Close(); err != nil {
		logErrf("failed to close log: %v\n", err)
	}
}

// newEngine builds an engine over the configured profiles and search list.
func (a *app) newEngine(opts ...engine.Option) (*engine.Engine, error) {
	store := rules.NewStore()
	for _, p := range a.settings.Profiles {
		store.Add(p)
	}
	base := []engine.Option{
		engine.WithLogger(a.log),
		engine.WithDefaultProfile(a.settings.DefaultProfile),
		engine.WithOpacityFloor(a.settings.OpacityFloor),
		engine.WithSessionDuration(a.settings.SessionDuration),
		engine.WithSoundsEnabled(a.settings.SoundsEnabled),
	}
	eng := engine.New(store, append(base, opts...)...)
	for _, raw := range a.settings.Search {
		if _, _, err := eng.AddSearchTerm(raw); err != nil {
			return nil, fmt.Errorf("invalid search term %q: %w", raw, err)
		}
	}
	return eng, nil
}

// save writes the engine's rules and search list back to the config file.
func (a *app) save(eng *engine.Engine) error {
	config.ApplyProfiles(&a.file, eng.AllProfiles())
	a.file.Search = displayKeys(eng.SearchTerms())
	if err := config.SaveConfig(a.path, a.file); err != nil {
		return err
	}
	a.log.Debug().Str("path", a.path).Msg("config saved")
	return nil
}

func displayKeys(keys []itemkey.Key) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k.Display())
	}
	return out
}

func noColor(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return true
	}
	return !term.IsTerminal(int(f.Fd()))
}

// logPlayer stands in for the host's audio sink by logging each sound.
type logPlayer struct {
	log zerolog.Logger
}

func (p logPlayer) Play(sound string) {
	p.log.Info().Str("sound", sound).Msg("play")
}
