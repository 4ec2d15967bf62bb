package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/starford/noteagator/internal"
	"github.com/starford/noteagator/internal/apperr"
	"github.com/starford/noteagator/internal/catalog"
	"github.com/starford/noteagator/internal/clip"
	"github.com/starford/noteagator/internal/index"
	"github.com/starford/noteagator/internal/mcpserver"
	"github.com/starford/noteagator/internal/nav"
	"github.com/starford/noteagator/internal/noteservice"
	"github.com/starford/noteagator/internal/render"
	"github.com/starford/noteagator/internal/state"
	"github.com/starford/noteagator/internal/storage"
	pkgconfig "github.com/starford/noteagator/pkg/config"
)

// appDirName is created under the home directory.
const appDirName = ".noteagator"

// deps are the process-level collaborators, swapped out in tests.
type deps struct {
	stdout io.Writer
	clip   clip.Copier
	now    func() time.Time
}

// session is what every command loads before it runs: settings, the state
// document and a logger.
type session struct {
	home   string
	config *internal.Config
	states *state.Store
	state  *state.State
	logger *slog.Logger
}

func loadSession(cmd *cli.Command) (*session, error) {
	root := cmd.Root()

	home := root.String("home")
	if home == "" {
		h, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		home = h
	}
	appDir := filepath.Join(home, appDirName)

	cfg := internal.NewDefaultConfig(appDir)
	configPath := root.String("config")
	if configPath == "" {
		configPath = filepath.Join(appDir, internal.SettingsFileName)
	}
	if _, err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	states, err := state.Open(appDir)
	if err != nil {
		return nil, err
	}
	st, err := states.Load()
	if err != nil {
		return nil, err
	}
	logger.Debug("session loaded",
		slog.String("base", st.Base),
		slog.String("cwd", st.Cwd),
		slog.String("config", configPath))

	return &session{home: home, config: cfg, states: states, state: st, logger: logger}, nil
}

func (s *session) save() error {
	return s.states.Save(s.state)
}

func (s *session) service(cat catalog.Catalog) (*noteservice.Service, error) {
	store, err := storage.NewFS(s.state.Base)
	if err != nil {
		return nil, fmt.Errorf("notebook base %s: %w", s.state.Base, err)
	}
	return noteservice.NewService(store, cat, s.logger), nil
}

func requireArg(cmd *cli.Command, name string) (string, error) {
	if cmd.Args().Len() < 1 {
		return "", fmt.Errorf("missing argument %s: %w", name, apperr.ErrInvalidArgument)
	}
	return cmd.Args().First(), nil
}

func newApp(d deps) *cli.Command {
	return &cli.Command{
		Name:    "ngt",
		Usage:   "Browse, search, and render a directory of text notes",
		Version: version,
		Writer:  d.stdout,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "home",
				Usage:       "Directory holding the .noteagator application directory",
				DefaultText: "user home directory",
				Sources:     cli.EnvVars("NGT_HOME"),
			},
			&cli.StringFlag{
				Name:        "config",
				Usage:       "Path to the settings file",
				DefaultText: "<home>/.noteagator/ngt.yaml",
				Sources:     cli.EnvVars("NGT_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			setBaseCommand(d),
			showBaseCommand(d),
			lsCommand(d),
			printCommand(d),
			cdCommand(),
			searchCommand(d),
			jotCommand(d),
			printModeCommand(d),
			serveCommand(),
			mcpCommand(),
			catalogCommand(d),
		},
	}
}

func setBaseCommand(d deps) *cli.Command {
	return &cli.Command{
		Name:      "set-base",
		Usage:     "Set the notebook base directory",
		ArgsUsage: "PATH",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			arg, err := requireArg(cmd, "PATH")
			if err != nil {
				return err
			}
			s, err := loadSession(cmd)
			if err != nil {
				return err
			}
			p, err := verifyDir(arg, s.home)
			if err != nil {
				return err
			}
			s.state.Base = p
			s.state.Cwd = p
			return s.save()
		},
	}
}

// verifyDir expands a leading ~, makes p absolute and requires an existing
// directory.
func verifyDir(p, home string) (string, error) {
	if p == "~" {
		p = home
	} else if strings.HasPrefix(p, "~/") {
		p = filepath.Join(home, p[2:])
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("'%s' does not exist or is not a directory", abs)
	}
	return abs, nil
}

func showBaseCommand(d deps) *cli.Command {
	return &cli.Command{
		Name:  "show-base",
		Usage: "Print the notebook base directory",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := loadSession(cmd)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(d.stdout, s.state.Base)
			return err
		},
	}
}

func lsCommand(d deps) *cli.Command {
	return &cli.Command{
		Name:  "ls",
		Usage: "List notes and folders in the current notebook directory",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "max-depth",
				Aliases: []string{"d"},
				Usage:   "Display subdirectories down to level N",
				Value:   1,
			},
			&cli.BoolFlag{
				Name:    "recursive",
				Aliases: []string{"R"},
				Usage:   "Display subdirectories recursively",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			depth := int(cmd.Int("max-depth"))
			if depth < 1 {
				return fmt.Errorf("--max-depth must be at least 1: %w", apperr.ErrInvalidArgument)
			}
			if cmd.Bool("recursive") {
				depth = 0
			}
			s, err := loadSession(cmd)
			if err != nil {
				return err
			}
			svc, err := s.service(nil)
			if err != nil {
				return err
			}
			display, err := svc.Tree(ctx, d.stdout, s.state.Cwd, depth)
			if err != nil {
				return err
			}
			s.state.DisplayIndex = display
			return s.save()
		},
	}
}

func printCommand(d deps) *cli.Command {
	flags := []cli.Flag{
		&cli.IntFlag{
			Name:    "copy",
			Aliases: []string{"c"},
			Usage:   "Copy code block `N` to the clipboard",
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "Output mode: markdown or slim",
		},
	}
	for _, key := range render.PlaceholderKeys {
		flags = append(flags, &cli.StringFlag{
			Name:  key,
			Usage: "Replacement value for the '" + key + "' placeholder",
		})
	}

	return &cli.Command{
		Name:      "print",
		Usage:     "Render a note by INDEX",
		ArgsUsage: "INDEX",
		Description: "Notes can declare placeholder keys in YAML front matter:\n\n" +
			"   ---\n   description: My note\n   placeholders:\n     i: keyWord\n   ---\n\n" +
			"`ngt print -i newWord NUM` replaces every occurrence of 'keyWord' with 'newWord'.",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			token, err := requireArg(cmd, "INDEX")
			if err != nil {
				return err
			}
			copyN := int(cmd.Int("copy"))
			if cmd.IsSet("copy") && copyN < 1 {
				return fmt.Errorf("--copy must be at least 1: %w", apperr.ErrInvalidArgument)
			}
			s, err := loadSession(cmd)
			if err != nil {
				return err
			}

			path, err := s.state.DisplayIndex.File(token)
			if err != nil {
				return err
			}

			opts := render.Options{
				Mode:        cmd.String("format"),
				DefaultMode: string(s.state.PrintMode),
				Copy:        copyN,
			}
			for _, key := range render.PlaceholderKeys {
				if cmd.IsSet(key) {
					if opts.Replacements == nil {
						opts.Replacements = render.Replacements{}
					}
					opts.Replacements[key] = cmd.String(key)
				}
			}

			svc, err := s.service(nil)
			if err != nil {
				return err
			}
			res, err := svc.RenderFile(ctx, path, opts)
			if err != nil {
				var stale *apperr.StaleIndexError
				if errors.As(err, &stale) {
					stale.Key = token
				}
				return err
			}

			fmt.Fprintln(d.stdout, res.Metadata)
			fmt.Fprintln(d.stdout, "---")
			fmt.Fprintln(d.stdout, res.Body)

			if copyN == 0 {
				return nil
			}
			if !res.CopyFound {
				_, err := fmt.Fprintln(d.stdout, render.MissingCopyMessage(copyN))
				return err
			}
			if err := d.clip.Copy(res.Copy); err != nil {
				return fmt.Errorf("copy to clipboard: %w", err)
			}
			s.logger.Debug("copied block", slog.Int("block", copyN))
			return nil
		},
	}
}

func cdCommand() *cli.Command {
	return &cli.Command{
		Name:      "cd",
		Usage:     "Change directory within the notebook",
		ArgsUsage: "INDEX|..|/",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			token, err := requireArg(cmd, "INDEX")
			if err != nil {
				return err
			}
			s, err := loadSession(cmd)
			if err != nil {
				return err
			}
			var target *index.Entry
			if e, ok := s.state.DisplayIndex.Lookup(token); ok {
				target = &e
			}
			s.state.Cwd = nav.Resolve(token, target, s.state.Cwd, s.state.Base)
			return s.save()
		},
	}
}

func searchCommand(d deps) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search notes for a term",
		ArgsUsage: "TERM",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			term, err := requireArg(cmd, "TERM")
			if err != nil {
				return err
			}
			s, err := loadSession(cmd)
			if err != nil {
				return err
			}
			svc, err := s.service(nil)
			if err != nil {
				return err
			}
			display, err := svc.Search(ctx, d.stdout, term)
			if err != nil {
				return err
			}
			if len(display) == 0 {
				return nil
			}
			s.state.DisplayIndex = display
			return s.save()
		},
	}
}

func jotCommand(d deps) *cli.Command {
	return &cli.Command{
		Name:      "jot",
		Usage:     "Append text to jots/MM-DD-YYYY.md, creating it if missing",
		ArgsUsage: "TEXT",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			text, err := requireArg(cmd, "TEXT")
			if err != nil {
				return err
			}
			s, err := loadSession(cmd)
			if err != nil {
				return err
			}
			svc, err := s.service(nil)
			if err != nil {
				return err
			}
			_, err = svc.Jot(ctx, text, d.now())
			return err
		},
	}
}

func printModeCommand(d deps) *cli.Command {
	return &cli.Command{
		Name:      "print-mode",
		Usage:     "Set the default print mode (markdown or slim)",
		ArgsUsage: "MODE",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			arg, err := requireArg(cmd, "MODE")
			if err != nil {
				return err
			}
			mode := render.Mode(strings.ToLower(arg))
			if !mode.Valid() {
				return fmt.Errorf("mode must be %s or %s: %w", render.ModeMarkdown, render.ModeSlim, apperr.ErrInvalidArgument)
			}
			s, err := loadSession(cmd)
			if err != nil {
				return err
			}
			s.state.PrintMode = mode
			if err := s.save(); err != nil {
				return err
			}
			_, err = fmt.Fprintf(d.stdout, "Default print mode set to: %s\n", mode)
			return err
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the notebook over HTTP",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := loadSession(cmd)
			if err != nil {
				return err
			}
			opts := []internal.Option{
				internal.WithConfig(s.config),
				internal.WithBase(s.state.Base),
				internal.WithPrintMode(s.state.PrintMode),
			}
			if err := internal.Run(ctx, opts...); err != nil {
				return fmt.Errorf("app run error: %w", err)
			}
			return nil
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the notebook to MCP clients over stdio",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := loadSession(cmd)
			if err != nil {
				return err
			}
			db, err := openSyncedCatalog(s)
			if err != nil {
				return err
			}
			defer db.Close()

			svc, err := s.service(db)
			if err != nil {
				return err
			}
			svc.SetDefaultMode(s.state.PrintMode)
			return mcpserver.New(svc, version).ServeStdio()
		},
	}
}

func catalogCommand(d deps) *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "Maintain the note catalog",
		Commands: []*cli.Command{
			{
				Name:  "sync",
				Usage: "Bring the catalog up to date with the notebook",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					s, err := loadSession(cmd)
					if err != nil {
						return err
					}
					db, err := openSyncedCatalog(s)
					if err != nil {
						return err
					}
					defer db.Close()

					notes, err := db.List("")
					if err != nil {
						return err
					}
					_, err = fmt.Fprintf(d.stdout, "Catalogued %d notes in %s\n", len(notes), s.config.Catalog.Path)
					return err
				},
			},
		},
	}
}

func openSyncedCatalog(s *session) (*catalog.DB, error) {
	store, err := storage.NewFS(s.state.Base)
	if err != nil {
		return nil, fmt.Errorf("notebook base %s: %w", s.state.Base, err)
	}
	if err := os.MkdirAll(filepath.Dir(s.config.Catalog.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create catalog dir: %w", err)
	}
	db, err := catalog.Open(s.config.Catalog.Path)
	if err != nil {
		return nil, err
	}
	if err := catalog.Sync(db, store, s.logger); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
