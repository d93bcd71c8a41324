package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"annotator/internal/application/commands"
)

var groupID int64

var objectCmd = &cobra.Command{
	Use:   "object",
	Short: "Register and list annotatable objects",
}

var objectAddCmd = &cobra.Command{
	Use:   "add <type> <id>",
	Short: "Register an object",
	Long: `Register an object so that it can be annotated.

Examples:
  annotator-cli object add image 1
  annotator-cli object add dataset 7 --group 3`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid object id %q: %w", args[1], err)
		}

		createCmd := commands.NewCreateObjectCommand(GetStore(), args[0], id, groupID)
		result, err := createCmd.Execute(context.Background())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

var objectListCmd = &cobra.Command{
	Use:   "list [type]",
	Short: "List registered objects",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var objectType string
		if len(args) == 1 {
			objectType = args[0]
		}

		listCmd := commands.NewListObjectsCommand(GetStore(), objectType)
		objects, err := listCmd.Execute(context.Background())
		if err != nil {
			return err
		}

		for _, o := range objects {
			fmt.Printf("%s\tgroup %d\n", o, o.GroupID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(objectCmd)
	objectCmd.AddCommand(objectAddCmd)
	objectCmd.AddCommand(objectListCmd)

	objectAddCmd.Flags().Int64VarP(&groupID, "group", "g", 0, "group owning the object")
}
