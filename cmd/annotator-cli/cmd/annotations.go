package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"annotator/internal/application/commands"
	"annotator/internal/domain"
)

var (
	listKind   string
	commonKind string
	setKind    string
	setMode    string
	values     []string
)

// parseKind reads a --kind flag; an empty name means every kind
func parseKind(name string) (domain.Kind, error) {
	if name == "" {
		return domain.KindUnknown, nil
	}
	return domain.ParseKind(name)
}

var listCmd = &cobra.Command{
	Use:   "list <type:id>...",
	Short: "List annotations linked to objects",
	Long: `List the annotations linked to one or more objects, with the number
of selected objects carrying each of them.

Examples:
  annotator-cli list image:1
  annotator-cli list image:1 image:2 --kind tag`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		objects, err := objectsArg(args)
		if err != nil {
			return err
		}
		kind, err := parseKind(listKind)
		if err != nil {
			return err
		}

		listCmd := commands.NewListAnnotationsCommand(GetStore(), user, objects, kind, editorOpts...)
		result, err := listCmd.Execute(context.Background())
		if err != nil {
			return err
		}

		for _, s := range result.Annotations {
			names := make([]string, 0, len(s.Annotators))
			for _, u := range s.Annotators {
				names = append(names, u.Name)
			}
			fmt.Printf("#%d\t%s\t%s\t%d/%d\t%s\n",
				s.Annotation.ID, s.Annotation.Kind(), s.Annotation.DisplayValue(),
				s.Linked, result.Objects, strings.Join(names, ","))
		}
		if result.RatingCount > 0 {
			fmt.Printf("rating: %d (average %.1f over %d)\n", result.Rating, result.AvgRating, result.RatingCount)
		}
		if result.Published {
			fmt.Println("published")
		}
		logger.Debug().Str("state", result.State.String()).Msg(result.Message)
		return nil
	},
}

var commonCmd = &cobra.Command{
	Use:   "common <type:id>...",
	Short: "Show annotations shared by every object",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		objects, err := objectsArg(args)
		if err != nil {
			return err
		}
		kind, err := parseKind(commonKind)
		if err != nil {
			return err
		}

		commonCmd := commands.NewCommonAnnotationsCommand(GetStore(), user, objects, kind, editorOpts...)
		result, err := commonCmd.Execute(context.Background())
		if err != nil {
			return err
		}

		for _, a := range result.Annotations {
			fmt.Printf("#%d\t%s\n", a.ID, a.DisplayValue())
		}
		fmt.Println(result.Message)
		return nil
	},
}

var setCmd = &cobra.Command{
	Use:   "set <type:id>... --value <value>...",
	Short: "Change the annotations of one kind on objects",
	Long: `Change the annotations of one kind on every given object, then save.

Modes:
  replace  the values become the exact annotations of every object (default)
  add      the values are linked to every object
  remove   the values are unlinked from every object

Links made by other users are never removed.

Examples:
  annotator-cli set image:1 image:2 --kind tag --value mitosis --value G1
  annotator-cli set image:1 --kind map --value "lens=60x,stain=dapi" --mode add
  annotator-cli set image:1 image:2 --kind tag --value blurry --mode remove`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		objects, err := objectsArg(args)
		if err != nil {
			return err
		}
		kind, err := parseKind(setKind)
		if err != nil {
			return err
		}
		mode, err := commands.ParseSetMode(setMode)
		if err != nil {
			return err
		}

		setCmd := commands.NewSetAnnotationsCommand(GetStore(), perms, user, objects, kind, values, mode, editorOpts...)
		result, err := setCmd.Execute(context.Background())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(commonCmd)
	rootCmd.AddCommand(setCmd)

	listCmd.Flags().StringVarP(&listKind, "kind", "k", "", "only list annotations of this kind")
	commonCmd.Flags().StringVarP(&commonKind, "kind", "k", "tag", "annotation kind")
	setCmd.Flags().StringVarP(&setKind, "kind", "k", "tag", "annotation kind")
	setCmd.Flags().StringVarP(&setMode, "mode", "m", "replace", "replace, add or remove")
	setCmd.Flags().StringArrayVar(&values, "value", nil, "annotation value; repeat for several")
}
