package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"annotator/internal/application/commands"
)

var rateCmd = &cobra.Command{
	Use:   "rate <type:id>... <stars>",
	Short: "Rate objects from 0 to 5 stars",
	Long: `Set your rating on every given object. A rating of 0 removes it.

Examples:
  annotator-cli rate image:1 image:2 4
  annotator-cli rate image:1 0`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		last := args[len(args)-1]
		stars, err := strconv.Atoi(last)
		if err != nil {
			return fmt.Errorf("invalid rating %q: %w", last, err)
		}
		objects, err := objectsArg(args[:len(args)-1])
		if err != nil {
			return err
		}

		rateCmd := commands.NewRateCommand(GetStore(), perms, user, objects, stars, editorOpts...)
		result, err := rateCmd.Execute(context.Background())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

func publishCommand(use, short string, published bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <type:id>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			objects, err := objectsArg(args)
			if err != nil {
				return err
			}

			publishCmd := commands.NewPublishCommand(GetStore(), perms, user, objects, published, editorOpts...)
			result, err := publishCmd.Execute(context.Background())
			if err != nil {
				return err
			}
			fmt.Println(result.Message)
			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(rateCmd)
	rootCmd.AddCommand(publishCommand("publish", "Mark objects as published", true))
	rootCmd.AddCommand(publishCommand("unpublish", "Clear the published mark of objects", false))
}
