package mcp

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"annotator/internal/application"
	"annotator/internal/application/commands"
	"annotator/internal/domain"
	"annotator/internal/ports"
)

// Session is what every tool acts through: the store and the user it acts for
type Session struct {
	Store       ports.AnnotationStore
	Permissions ports.PermissionModel
	User        domain.Experimenter

	// Options configure every editor a tool opens
	Options []application.EditorOption
}

// RegisterReadTools adds all read-only annotation tools to the MCP server.
func RegisterReadTools(s *server.MCPServer, sess Session) {
	s.AddTool(listObjectsTool(), listObjectsHandler(sess))
	s.AddTool(listAnnotationsTool(), listAnnotationsHandler(sess))
	s.AddTool(commonAnnotationsTool(), commonAnnotationsHandler(sess))
}

// --- list_objects ---

func listObjectsTool() mcp.Tool {
	return mcp.NewTool("list_objects",
		mcp.WithDescription("List the annotatable objects. Each line is a reference (type:id) usable by the other tools."),
		mcp.WithString("type",
			mcp.Description("Object type to list (e.g. image, dataset). Omit to list every object."),
		),
	)
}

func listObjectsHandler(sess Session) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		objects, err := commands.NewListObjectsCommand(sess.Store, req.GetString("type", "")).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return formatEntities(objects, formatObject)
	}
}

// --- list_annotations ---

func listAnnotationsTool() mcp.Tool {
	return mcp.NewTool("list_annotations",
		mcp.WithDescription("List the annotations linked to one or more objects, with how many of the objects carry each one."),
		mcp.WithString("objects",
			mcp.Description("Comma-separated object references (e.g. image:1,image:2)"),
			mcp.Required(),
		),
		mcp.WithString("kind",
			mcp.Description("Restrict to one kind: tag, attachment, boolean, long, double, term, xml, time, map"),
		),
	)
}

func listAnnotationsHandler(sess Session) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		objects, err := objectsArg(req)
		if err != nil {
			return toolError(err)
		}
		kind := domain.KindUnknown
		if name := req.GetString("kind", ""); name != "" {
			if kind, err = application.ParseKind(name); err != nil {
				return toolError(err)
			}
		}

		result, err := commands.NewListAnnotationsCommand(sess.Store, sess.User, objects, kind, sess.Options...).Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "%s\n", result.Message)
		for _, s := range result.Annotations {
			fmt.Fprintf(&sb, "%s  %d/%d  %s\n", formatAnnotation(s.Annotation), s.Linked, result.Objects, formatOwners(s.Annotators))
		}
		if result.RatingCount > 0 {
			fmt.Fprintf(&sb, "rating: %d (average %.1f over %d)\n", result.Rating, result.AvgRating, result.RatingCount)
		}
		if result.Published {
			sb.WriteString("published\n")
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- common_annotations ---

func commonAnnotationsTool() mcp.Tool {
	return mcp.NewTool("common_annotations",
		mcp.WithDescription("List the annotations of one kind linked to every one of the given objects."),
		mcp.WithString("objects",
			mcp.Description("Comma-separated object references (e.g. image:1,image:2)"),
			mcp.Required(),
		),
		mcp.WithString("kind",
			mcp.Description("Annotation kind (default: tag)"),
		),
	)
}

func commonAnnotationsHandler(sess Session) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		objects, err := objectsArg(req)
		if err != nil {
			return toolError(err)
		}
		kind, err := application.ParseKind(req.GetString("kind", "tag"))
		if err != nil {
			return toolError(err)
		}

		result, err := commands.NewCommonAnnotationsCommand(sess.Store, sess.User, objects, kind, sess.Options...).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return formatEntities(result.Annotations, formatAnnotation)
	}
}

// --- helpers ---

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

func objectsArg(req mcp.CallToolRequest) ([]domain.ObjectRef, error) {
	raw := req.GetString("objects", "")
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("objects is required")
	}
	return application.ParseObjectRefs(splitList(raw, ","))
}

func splitList(raw, sep string) []string {
	var out []string
	for _, part := range strings.Split(raw, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func intArg(req mcp.CallToolRequest, name string) (int, error) {
	raw := strings.TrimSpace(req.GetString(name, ""))
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got: %s", name, raw)
	}
	return n, nil
}

func formatEntities[T any](entities []T, format func(T) string) (*mcp.CallToolResult, error) {
	if len(entities) == 0 {
		return mcp.NewToolResultText("No results."), nil
	}
	var sb strings.Builder
	for _, e := range entities {
		sb.WriteString(format(e))
		sb.WriteByte('\n')
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func formatObject(o domain.ObjectRef) string {
	return fmt.Sprintf("%s  group %d", o, o.GroupID)
}

func formatAnnotation(a *domain.Annotation) string {
	if a.Namespace != "" {
		return fmt.Sprintf("#%d  %s  %s  [%s]", a.ID, a.Kind(), a.DisplayValue(), a.Namespace)
	}
	return fmt.Sprintf("#%d  %s  %s", a.ID, a.Kind(), a.DisplayValue())
}

func formatOwners(owners []domain.Experimenter) string {
	names := make([]string, 0, len(owners))
	for _, o := range owners {
		names = append(names, o.Name)
	}
	return "by " + strings.Join(names, ", ")
}
