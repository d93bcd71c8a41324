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
)

// RegisterWriteTools adds all annotation-changing tools to the MCP server.
func RegisterWriteTools(s *server.MCPServer, sess Session) {
	s.AddTool(createObjectTool(), createObjectHandler(sess))
	s.AddTool(setAnnotationsTool(), setAnnotationsHandler(sess))
	s.AddTool(rateTool(), rateHandler(sess))
	s.AddTool(publishTool(), publishHandler(sess))
}

// --- create_object ---

func createObjectTool() mcp.Tool {
	return mcp.NewTool("create_object",
		mcp.WithDescription("Register an object so it can be annotated."),
		mcp.WithString("type",
			mcp.Description("Object type (e.g. image, dataset)"),
			mcp.Required(),
		),
		mcp.WithString("id",
			mcp.Description("Numeric object ID"),
			mcp.Required(),
		),
		mcp.WithString("group",
			mcp.Description("Numeric group ID the object belongs to (default 0)"),
		),
	)
}

func createObjectHandler(sess Session) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := strconv.ParseInt(strings.TrimSpace(req.GetString("id", "")), 10, 64)
		if err != nil {
			return toolError(fmt.Errorf("id must be a number"))
		}
		group := int64(0)
		if raw := strings.TrimSpace(req.GetString("group", "")); raw != "" {
			if group, err = strconv.ParseInt(raw, 10, 64); err != nil {
				return toolError(fmt.Errorf("group must be a number"))
			}
		}

		result, err := commands.NewCreateObjectCommand(sess.Store, req.GetString("type", ""), id, group).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- set_annotations ---

func setAnnotationsTool() mcp.Tool {
	return mcp.NewTool("set_annotations",
		mcp.WithDescription("Change the annotations of one kind on every given object. "+
			"mode=replace makes the values the exact set on each object, add links them, remove unlinks them. "+
			"Only links you own are ever removed."),
		mcp.WithString("objects",
			mcp.Description("Comma-separated object references (e.g. image:1,image:2)"),
			mcp.Required(),
		),
		mcp.WithString("kind",
			mcp.Description("Annotation kind (default: tag)"),
		),
		mcp.WithString("values",
			mcp.Description("Semicolon-separated values. Maps are written key=value,key=value."),
		),
		mcp.WithString("mode",
			mcp.Description("replace (default), add or remove"),
		),
	)
}

func setAnnotationsHandler(sess Session) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		objects, err := objectsArg(req)
		if err != nil {
			return toolError(err)
		}
		kind, err := application.ParseKind(req.GetString("kind", "tag"))
		if err != nil {
			return toolError(err)
		}
		mode, err := commands.ParseSetMode(req.GetString("mode", ""))
		if err != nil {
			return toolError(err)
		}
		values := splitList(req.GetString("values", ""), ";")

		cmd := commands.NewSetAnnotationsCommand(sess.Store, sess.Permissions, sess.User, objects, kind, values, mode, sess.Options...)
		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- rate ---

func rateTool() mcp.Tool {
	return mcp.NewTool("rate",
		mcp.WithDescription("Set your rating (1-5 stars) on every given object. 0 removes your rating."),
		mcp.WithString("objects",
			mcp.Description("Comma-separated object references (e.g. image:1,image:2)"),
			mcp.Required(),
		),
		mcp.WithString("stars",
			mcp.Description("Stars from 0 to 5"),
			mcp.Required(),
		),
	)
}

func rateHandler(sess Session) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		objects, err := objectsArg(req)
		if err != nil {
			return toolError(err)
		}
		stars, err := intArg(req, "stars")
		if err != nil {
			return toolError(err)
		}

		result, err := commands.NewRateCommand(sess.Store, sess.Permissions, sess.User, objects, stars, sess.Options...).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- publish ---

func publishTool() mcp.Tool {
	return mcp.NewTool("publish",
		mcp.WithDescription("Set or clear the published flag of every given object."),
		mcp.WithString("objects",
			mcp.Description("Comma-separated object references (e.g. image:1,image:2)"),
			mcp.Required(),
		),
		mcp.WithString("published",
			mcp.Description("true to publish (default), false to unpublish"),
		),
	)
}

func publishHandler(sess Session) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		objects, err := objectsArg(req)
		if err != nil {
			return toolError(err)
		}
		published, err := strconv.ParseBool(req.GetString("published", "true"))
		if err != nil {
			return toolError(fmt.Errorf("published must be true or false"))
		}

		result, err := commands.NewPublishCommand(sess.Store, sess.Permissions, sess.User, objects, published, sess.Options...).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}
