package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/mj1618/desktop-intent/internal/automation"
	"github.com/mj1618/desktop-intent/internal/config"
	"github.com/mj1618/desktop-intent/internal/logging"
	"github.com/mj1618/desktop-intent/internal/model"
	"github.com/mj1618/desktop-intent/internal/output"
	"github.com/mj1618/desktop-intent/internal/version"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// mcpServer exposes the step executor as MCP tools over one long-lived
// automation session, so element ids and held keys survive across calls.
type mcpServer struct {
	exec    *executor
	limiter *rate.Limiter
	timeout atomic.Int64 // per-request timeout in nanoseconds
	mcp     *mcpserver.MCPServer
	log     zerolog.Logger
}

// newMCPServer creates the MCP server and registers every tool.
func newMCPServer(svc *automation.Service, c *config.Config) *mcpServer {
	s := &mcpServer{
		exec:    &executor{svc: svc, defaults: params{}},
		limiter: rate.NewLimiter(rate.Limit(c.RequestRate), c.RequestBurst),
		log:     logging.For("mcp"),
	}
	s.timeout.Store(int64(c.RequestTimeout))
	if c.RequestRate <= 0 {
		s.limiter = rate.NewLimiter(rate.Inf, 0)
	}
	s.mcp = mcpserver.NewMCPServer(
		"desktop-intent",
		version.Version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithLogging(),
		mcpserver.WithRecovery(),
	)
	s.registerTools()
	return s
}

// serve runs the transport until ctx is done or the client disconnects.
// When the config was read from a file it is watched alongside, and a
// changed log_level is applied without a restart.
func (s *mcpServer) serve(ctx context.Context, c *config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return s.listen(ctx, c)
	})
	if c.File != "" {
		g.Go(func() error {
			if err := config.Watch(ctx, c.File, s.reload); err != nil {
				s.log.Warn().Err(err).Str("path", c.File).Msg("config watch stopped")
			}
			return nil
		})
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *mcpServer) listen(ctx context.Context, c *config.Config) error {
	switch c.Transport {
	case config.TransportStdio:
		s.log.Info().Str("transport", "stdio").Msg("mcp server started")
		return mcpserver.NewStdioServer(s.mcp).Listen(ctx, os.Stdin, os.Stdout)
	case config.TransportHTTP:
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		errCh := make(chan error, 1)
		go func() {
			s.log.Info().Str("transport", "http").Str("address", c.HTTPAddress).Msg("mcp server started")
			errCh <- httpServer.Start(c.HTTPAddress)
		}()
		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), c.CloseTimeout)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		}
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or http)", c.Transport)
	}
}

// reload applies the parts of a changed config that can change live.
func (s *mcpServer) reload(c *config.Config) {
	if err := logging.SetLevel(c.LogLevel); err != nil {
		s.log.Warn().Err(err).Msg("ignoring log_level from reloaded config")
	}
	if c.RequestRate > 0 {
		s.limiter.SetLimit(rate.Limit(c.RequestRate))
		s.limiter.SetBurst(c.RequestBurst)
	} else {
		s.limiter.SetLimit(rate.Inf)
	}
	s.timeout.Store(int64(c.RequestTimeout))
	s.log.Info().Str("log_level", c.LogLevel).Float64("request_rate", c.RequestRate).Msg("config reloaded")
}

// stepHandler adapts a step to an MCP tool. Failed results are returned as
// tool errors carrying the full result, so agents see error_kind and
// diagnostics either way.
func (s *mcpServer) stepHandler(step string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		p := params(request.GetArguments())
		res := s.call(ctx, request.Params.Name, func(ctx context.Context) interface{} {
			return s.exec.run(ctx, step, p)
		})
		return s.toolResult(res)
	}
}

// handleDo runs a batch of steps in one tool call.
func (s *mcpServer) handleDo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	steps, err := toSteps(args["steps"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	stopOnError := params(args).boolean("stop_on_error", true)
	out := s.call(ctx, "ui_do", func(ctx context.Context) interface{} {
		r := runBatch(ctx, s.exec, steps, stopOnError)
		return &r
	})
	return s.toolResult(out)
}

// call rate-limits and time-bounds one request. A request that cannot get
// a slot before its deadline fails with queue_full.
func (s *mcpServer) call(ctx context.Context, tool string, fn func(ctx context.Context) interface{}) interface{} {
	if timeout := time.Duration(s.timeout.Load()); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return failed(model.Wrap(model.KindQueueFull, err, "request rate limit"))
	}
	start := time.Now()
	out := fn(ctx)
	ev := s.log.Debug()
	if res, ok := out.(*model.AutomationResult); ok && !res.Success {
		ev = s.log.Info().Str("error_kind", string(res.ErrorKind))
	}
	ev.Str("tool", tool).Dur("elapsed", time.Since(start)).Msg("tool call")
	return out
}

func (s *mcpServer) toolResult(out interface{}) (*mcp.CallToolResult, error) {
	text, err := output.Marshal(output.FormatYAML, out)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	switch r := out.(type) {
	case *model.AutomationResult:
		if !r.Success {
			return mcp.NewToolResultError(text), nil
		}
	case *DoResult:
		if !r.OK {
			return mcp.NewToolResultError(text), nil
		}
	}
	return mcp.NewToolResultText(text), nil
}

// toSteps converts the steps argument, a list of single-key maps or a YAML
// string, into batch steps.
func toSteps(v interface{}) ([]map[string]map[string]interface{}, error) {
	if s, ok := v.(string); ok {
		return parseSteps([]byte(s))
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("invalid steps: %w", err)
	}
	return parseSteps(data)
}

// queryOptions are the element query arguments shared by most tools.
func queryOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("window", mcp.Description("Window title substring (default: foreground window)")),
		mcp.WithString("process", mcp.Description("Process name of the window, e.g. notepad")),
		mcp.WithString("window_handle", mcp.Description("Window handle, decimal or 0x hex")),
		mcp.WithString("name", mcp.Description("Exact element name (case-insensitive)")),
		mcp.WithString("name_contains", mcp.Description("Substring of the element name")),
		mcp.WithString("name_pattern", mcp.Description("Regular expression on the element name")),
		mcp.WithString("control_type", mcp.Description("Control type, e.g. Button, Edit, CheckBox, ListItem")),
		mcp.WithString("automation_id", mcp.Description("Automation id")),
		mcp.WithString("class_name", mcp.Description("Native class name")),
		mcp.WithString("parent_id", mcp.Description("Search under this element id")),
		mcp.WithNumber("max_depth", mcp.Description("Maximum tree depth (default 25)")),
		mcp.WithNumber("found_index", mcp.Description("Pick the Nth match (1-based) instead of requiring a unique match")),
		mcp.WithBoolean("sort_by_prominence", mcp.Description("Order matches by size and position before picking")),
		mcp.WithString("region", mcp.Description("Only elements intersecting x,y,w,h")),
		mcp.WithString("near", mcp.Description("Only elements near this element id")),
		mcp.WithString("near_direction", mcp.Description("left, right, above or below the near element")),
		mcp.WithNumber("timeout", mcp.Description("Seconds to keep searching")),
	}
}

// windowOptions select a top-level window.
func windowOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("window", mcp.Description("Window title substring (default: foreground window)")),
		mcp.WithString("process", mcp.Description("Process name of the window, e.g. notepad")),
		mcp.WithString("window_handle", mcp.Description("Window handle, decimal or 0x hex")),
		mcp.WithNumber("pid", mcp.Description("Process ID of the window")),
	}
}

// targetOptions adds the element id argument to the query arguments.
func targetOptions() []mcp.ToolOption {
	return append(queryOptions(), mcp.WithString("id", mcp.Description("Element id from an earlier result; wins over the query")))
}

func tool(name, description string, groups ...[]mcp.ToolOption) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(description)}
	for _, g := range groups {
		opts = append(opts, g...)
	}
	return mcp.NewTool(name, opts...)
}

func (s *mcpServer) registerTools() {
	states := strings.Join(automation.States, ", ")

	s.mcp.AddTool(tool("ui_find",
		"Find UI elements by name, type or id. Exactly one must match unless all is set; multiple matches fail with the candidates listed.",
		queryOptions(),
		[]mcp.ToolOption{mcp.WithBoolean("all", mcp.Description("Return every match"))},
	), s.stepHandler("find"))

	s.mcp.AddTool(tool("ui_click",
		"Click an element. Plain left clicks use the Invoke pattern; other clicks are synthesized at the element's click point.",
		targetOptions(),
		[]mcp.ToolOption{
			mcp.WithString("button", mcp.Description("left, right or middle")),
			mcp.WithBoolean("double", mcp.Description("Double-click")),
			mcp.WithArray("modifiers", mcp.Description("Modifiers held during the click: ctrl, shift, alt, win")),
		},
	), s.stepHandler("click"))

	s.mcp.AddTool(tool("ui_type",
		"Type text into an element (or the focused control when no element is given). Uses the Value pattern when available, keystrokes otherwise.",
		targetOptions(),
		[]mcp.ToolOption{
			mcp.WithString("text", mcp.Description("Text to type"), mcp.Required()),
			mcp.WithBoolean("append", mcp.Description("Append to the current value")),
			mcp.WithBoolean("clear", mcp.Description("Clear the field before typing keystrokes")),
		},
	), s.stepHandler("type"))

	s.mcp.AddTool(tool("ui_select",
		"Select a list item, tab or combo box entry. With item, the target is the container and the named item inside it is selected.",
		targetOptions(),
		[]mcp.ToolOption{mcp.WithString("item", mcp.Description("Name of the item inside the target to select"))},
	), s.stepHandler("select"))

	s.mcp.AddTool(tool("ui_toggle",
		"Toggle a check box or toggle button, optionally until it reaches a state.",
		targetOptions(),
		[]mcp.ToolOption{mcp.WithString("state", mcp.Description("Desired state: on, off or indeterminate"))},
	), s.stepHandler("toggle"))

	s.mcp.AddTool(tool("ui_expand",
		"Expand or collapse a tree item, menu or combo box.",
		targetOptions(),
		[]mcp.ToolOption{mcp.WithString("action", mcp.Description("expand (default) or collapse"))},
	), s.stepHandler("expand"))

	s.mcp.AddTool(tool("ui_focus",
		"Give keyboard focus to an element.",
		targetOptions(),
	), s.stepHandler("focus"))

	s.mcp.AddTool(tool("ui_wait",
		"Wait for an element to appear, to disappear (gone) or to reach a state: "+states+".",
		targetOptions(),
		[]mcp.ToolOption{
			mcp.WithBoolean("gone", mcp.Description("Wait until nothing matches")),
			mcp.WithString("state", mcp.Description("State to wait for")),
			mcp.WithString("value", mcp.Description("Expected value for value_equals")),
		},
	), s.stepHandler("wait"))

	s.mcp.AddTool(tool("ui_read",
		"Read an element's text from its Text pattern, value or name, optionally with descendant text.",
		targetOptions(),
		[]mcp.ToolOption{
			mcp.WithBoolean("include_children", mcp.Description("Append descendant text")),
			mcp.WithNumber("text_depth", mcp.Description("Depth limit for descendant text")),
			mcp.WithNumber("max_bytes", mcp.Description("Truncate to this many bytes")),
			mcp.WithBoolean("ocr", mcp.Description("Fall back to OCR when no accessible text is found")),
		},
	), s.stepHandler("read"))

	s.mcp.AddTool(tool("ui_scroll_find",
		"Scroll a list until an element matching the query is realized, then scroll it into view. Use for virtualized lists.",
		queryOptions(),
		[]mcp.ToolOption{
			mcp.WithString("container", mcp.Description("Element id of the container (default: first scrollable element)")),
			mcp.WithNumber("max_pages", mcp.Description("Maximum pages to scroll")),
		},
	), s.stepHandler("scroll_find"))

	s.mcp.AddTool(tool("keyboard_control",
		"Synthetic keyboard input. Keys held with down stay held across calls until up or release_all.",
		[]mcp.ToolOption{
			mcp.WithString("action", mcp.Description("press (default), down, up, release_all, held, sequence or type")),
			mcp.WithString("key", mcp.Description("Key or combo, e.g. enter, ctrl+s, alt+f4")),
			mcp.WithArray("keys", mcp.Description("Combos for sequence, or {key, modifiers, delay} objects")),
			mcp.WithString("text", mcp.Description("Text for type")),
			mcp.WithNumber("delay", mcp.Description("Seconds to pause after each sequence item")),
		},
	), s.stepHandler("key"))

	s.mcp.AddTool(tool("mouse_control",
		"Synthetic mouse input at absolute virtual-screen coordinates.",
		[]mcp.ToolOption{
			mcp.WithString("action", mcp.Description("move, click (default), scroll or drag")),
			mcp.WithNumber("x", mcp.Description("X coordinate")),
			mcp.WithNumber("y", mcp.Description("Y coordinate")),
			mcp.WithNumber("to_x", mcp.Description("Drag destination X")),
			mcp.WithNumber("to_y", mcp.Description("Drag destination Y")),
			mcp.WithString("button", mcp.Description("left, right or middle")),
			mcp.WithNumber("count", mcp.Description("Number of clicks")),
			mcp.WithNumber("dx", mcp.Description("Horizontal wheel clicks; positive scrolls right")),
			mcp.WithNumber("dy", mcp.Description("Vertical wheel clicks; positive scrolls down")),
		},
	), s.stepHandler("mouse"))

	s.mcp.AddTool(tool("ui_windows",
		"List visible top-level windows.",
		[]mcp.ToolOption{
			mcp.WithString("title", mcp.Description("Filter by title substring")),
			mcp.WithString("process", mcp.Description("Filter by process name")),
			mcp.WithNumber("pid", mcp.Description("Filter by process ID")),
		},
	), s.stepHandler("windows"))

	s.mcp.AddTool(tool("window_management",
		"Manage a top-level window: "+strings.Join(automation.WindowActions, ", ")+", or list, find, foreground and wait. Close waits for the window to go away; discard answers a save prompt with Don't Save.",
		windowOptions(),
		[]mcp.ToolOption{
			mcp.WithString("action", mcp.Description("Window action"), mcp.Required()),
			mcp.WithNumber("x", mcp.Description("Left edge for move")),
			mcp.WithNumber("y", mcp.Description("Top edge for move")),
			mcp.WithNumber("width", mcp.Description("Width for resize")),
			mcp.WithNumber("height", mcp.Description("Height for resize")),
			mcp.WithBoolean("discard", mcp.Description("close: dismiss a save prompt without saving")),
			mcp.WithBoolean("gone", mcp.Description("wait: wait until no window matches")),
			mcp.WithNumber("timeout", mcp.Description("Seconds to wait for close or wait")),
		},
	), s.stepHandler("window"))

	s.mcp.AddTool(tool("file_save",
		"Save through the window's Save As dialog: opens it with the shortcut when needed, enters the path, presses Save and waits for the dialog to close.",
		windowOptions(),
		[]mcp.ToolOption{
			mcp.WithString("path", mcp.Description("File path to save to"), mcp.Required()),
			mcp.WithString("shortcut", mcp.Description("Combo that opens the dialog (default ctrl+shift+s)")),
			mcp.WithBoolean("overwrite", mcp.Description("Replace an existing file")),
			mcp.WithNumber("timeout", mcp.Description("Seconds to wait for the dialog to open and to close")),
		},
	), s.stepHandler("file_save"))

	s.mcp.AddTool(tool("ui_do",
		"Execute several steps in one call. Each step is a single-key object such as {\"click\": {\"name\": \"OK\"}}. An id of \"$prev\" refers to the element of the previous step. Step types: "+strings.Join(stepNames(), ", "),
		[]mcp.ToolOption{
			mcp.WithArray("steps", mcp.Description("Array of step objects"), mcp.Required()),
			mcp.WithBoolean("stop_on_error", mcp.Description("Stop on the first failure (default: true)")),
		},
	), s.handleDo)
}
