package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/example/battlemap/internal/config"
	"github.com/example/battlemap/internal/notify"
	"github.com/example/battlemap/internal/theme"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

type runnable interface{ Run() error }

type root struct {
	fs            *flag.FlagSet
	program       string
	notifier      *notify.Notifier
	config        *config.Config
	saveAlerts    bool
	storageAlerts bool
	themeName     string
	db            string
	docName       string
	dev           bool
	activeTheme   *theme.Theme
}

func (r *root) Program() string {
	return r.program
}

func (r *root) FlagSet() *flag.FlagSet {
	return r.fs
}

func newRoot() *root {
	prefs := notify.LoadPreferences()
	loader := config.NewLoader(version, configPathOverride)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg = config.New()
	}
	if envCfg, err := config.ParseEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: ignoring environment: %v\n", err)
	} else {
		cfg = envCfg.Apply(cfg)
	}

	r := &root{
		fs:       flag.NewFlagSet("battlemap", flag.ExitOnError),
		program:  "battlemap",
		notifier: notify.New(prefs),
		config:   cfg,
	}
	r.fs.BoolVar(&r.saveAlerts, "notify-save", cfg.Notify.Save, "show a desktop notification after the maps are saved")
	r.fs.BoolVar(&r.storageAlerts, "notify-storage", cfg.Notify.StorageErrors, "show a desktop notification when an image cannot be stored")
	r.fs.BoolVar(&r.dev, "dev", cfg.Dev, "fail loudly on wiring errors")
	r.fs.StringVar(&r.db, "db", "", "database file (default from config, then ~/.local/share/battlemap/maps.db)")
	r.fs.StringVar(&r.docName, "doc", defaultDocument, "name of the map collection inside the database")

	// Precedence: CLI > Env > Config > Default
	r.fs.StringVar(&r.themeName, "theme", "", "color theme to use ("+strings.Join(append([]string{"default"}, theme.Names()...), ", ")+")")
	r.fs.Usage = usageFunc(r)
	return r
}

func (r *root) dbPath() string {
	if r.db != "" {
		return r.db
	}
	return r.config.DBPath()
}

// loadTheme resolves the theme name from the flag, then the config with
// environment overrides applied.
func (r *root) loadTheme() *theme.Theme {
	themeName := r.themeName
	if themeName == "" {
		themeName = r.config.Theme
	}
	if cfgTheme, ok := r.config.Themes[strings.ToLower(themeName)]; ok {
		return cfgTheme
	}
	loader := theme.NewLoader()
	loader.Strict = r.dev
	t, err := loader.Load(themeName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load theme '%s': %v. using default.\n", themeName, err)
		return theme.Default()
	}
	return t
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}
	if r.notifier != nil {
		r.notifier.Enable(notify.EventSave, r.saveAlerts)
		r.notifier.Enable(notify.EventStorageError, r.storageAlerts)
	}
	r.activeTheme = r.loadTheme()

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var (
		cmd runnable
		err error
	)
	switch cmdName {
	case "edit":
		cmd, err = parseEditCmd(subArgs, r)
	case "maps":
		cmd, err = parseMapsCmd(subArgs, r)
	case "add-map":
		cmd, err = parseAddMapCmd(subArgs, r)
	case "rename-map":
		cmd, err = parseRenameMapCmd(subArgs, r)
	case "remove-map":
		cmd, err = parseRemoveMapCmd(subArgs, r)
	case "background":
		cmd, err = parseBackgroundCmd(subArgs, r)
	case "export":
		cmd, err = parseExportCmd(subArgs, r)
	case "colors":
		cmd, err = parseColorsCmd(subArgs, r)
	case "config":
		cmd, err = parseConfigCmd(subArgs, r)
	case "version":
		cmd = &versionCmd{r: r}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

func main() {
	r := newRoot()
	if err := r.Run(os.Args[1:]); err != nil {
		var uerr *UsageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (r *root) notifySave(detail string, preview image.Image) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Save(detail, preview)
}

func (r *root) notifyStorage(action string, err error) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.StorageError(action, err)
}
