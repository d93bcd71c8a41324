package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"annotator/internal/adapters/sqlite"
	"annotator/internal/application"
	"annotator/internal/config"
	"annotator/internal/domain"
	"annotator/internal/logging"
	"annotator/internal/ports"
)

var (
	dbPath   string
	userName string
	readOnly bool

	store     ports.AnnotationStore
	perms     ports.PermissionModel
	user      domain.Experimenter
	logger    zerolog.Logger
	logCloser io.Closer

	editorOpts []application.EditorOption
)

var rootCmd = &cobra.Command{
	Use:   "annotator-cli",
	Short: "CLI for annotating objects one at a time or in bulk",
	Long: `annotator-cli links tags, files, ratings and other annotations to data
objects. Every command accepts one or more objects written as type:id;
with several objects the changes are reconciled across all of them.

Examples:
  annotator-cli object add image 1
  annotator-cli set image:1 image:2 --kind tag mitosis --mode add
  annotator-cli common image:1 image:2 --kind tag
  annotator-cli rate image:1 4`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for help commands
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("db") {
			cfg.DBPath = config.ExpandHome(dbPath)
		}
		if cmd.Flags().Changed("user") {
			cfg.User = userName
		}
		if cmd.Flags().Changed("read-only") {
			cfg.ReadOnly = readOnly
		}

		b := logging.New().Console().Level(cfg.LogLevel)
		if cfg.LogFile != "" {
			b = b.FromPath(cfg.LogFile)
		}
		logger, logCloser, err = b.Make()
		if err != nil {
			return err
		}

		s, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		s.SetLogger(logger)
		store = s

		user, err = s.EnsureExperimenter(context.Background(), cfg.User)
		if err != nil {
			return err
		}
		perms = application.StaticPermissions{ReadOnly: cfg.ReadOnly}

		filter, err := domain.DefaultNamespaceFilter(cfg.ExcludedNamespaces...)
		if err != nil {
			return err
		}
		editorOpts = []application.EditorOption{
			application.WithLogger(logger),
			application.WithNamespaceFilter(filter),
		}
		logger.Debug().Str("db", cfg.DBPath).Str("user", user.Name).Msg("store opened")
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if store != nil {
			if err := store.Close(); err != nil {
				return err
			}
		}
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", config.DefaultDBPath, "path to the annotation database")
	rootCmd.PersistentFlags().StringVarP(&userName, "user", "u", config.DefaultUser, "user the changes are made for")
	rootCmd.PersistentFlags().BoolVar(&readOnly, "read-only", false, "refuse to link new annotations")
}

// GetStore returns the initialized store
func GetStore() ports.AnnotationStore {
	return store
}

// objectsArg parses the type:id arguments of a command
func objectsArg(args []string) ([]domain.ObjectRef, error) {
	return application.ParseObjectRefs(args)
}
