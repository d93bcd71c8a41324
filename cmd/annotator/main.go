package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"annotator/internal/adapters/editor"
	"annotator/internal/adapters/sqlite"
	"annotator/internal/adapters/tui"
	"annotator/internal/adapters/viewer"
	"annotator/internal/application"
	"annotator/internal/config"
	"annotator/internal/domain"
	"annotator/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s <type:id>...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	objects, err := application.ParseObjectRefs(flag.Args())
	if err != nil {
		return err
	}
	if len(objects) == 0 {
		flag.Usage()
		return application.ErrNoSelection
	}

	// the screen belongs to the TUI; only a log file receives output
	b := logging.New().FromWriter(io.Discard).Level(cfg.LogLevel)
	if cfg.LogFile != "" {
		b = b.FromPath(cfg.LogFile)
	}
	logger, closer, err := b.Make()
	if err != nil {
		return err
	}
	defer closer.Close()

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()
	store.SetLogger(logger)

	ctx := context.Background()
	user, err := store.EnsureExperimenter(ctx, cfg.User)
	if err != nil {
		return err
	}

	filter, err := domain.DefaultNamespaceFilter(cfg.ExcludedNamespaces...)
	if err != nil {
		return err
	}

	session := application.NewEditor(store, application.StaticPermissions{ReadOnly: cfg.ReadOnly}, user,
		application.WithLogger(logger),
		application.WithNamespaceFilter(filter),
	)
	if err := session.SetRootObject(ctx, application.SelectionOf(objects)); err != nil {
		return err
	}

	app := tui.NewApp(session, store, editor.NewOpener(), viewer.NewOpener(cfg.AttachmentDir))

	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
