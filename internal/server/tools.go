package server

import (
	"context"
	"encoding/json"
	"fmt"

	"awimctl/internal/config"
	"awimctl/internal/supervisor"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerTools() {
	s.mcp.AddTool(getStateTool(), s.handleGetState)
	s.mcp.AddTool(validateAddressTool(), s.handleValidateAddress)
	s.mcp.AddTool(validatePortTool(), s.handleValidatePort)
	s.mcp.AddTool(updateConfigTool(), s.handleUpdateConfig)
	s.mcp.AddTool(setTransportModeTool(), s.handleSetTransportMode)
	s.mcp.AddTool(setEnabledTool(), s.handleSetEnabled)
}

func getStateTool() mcp.Tool {
	return mcp.NewTool("awim_get_state",
		mcp.WithDescription("Get the current worker configuration, liveness and inferred connection status"),
	)
}

func validateAddressTool() mcp.Tool {
	return mcp.NewTool("awim_validate_address",
		mcp.WithDescription("Check whether a string is a valid IPv4 or IPv6 literal"),
		mcp.WithString("address",
			mcp.Required(),
			mcp.Description("Address to validate"),
		),
	)
}

func validatePortTool() mcp.Tool {
	return mcp.NewTool("awim_validate_port",
		mcp.WithDescription("Check whether a port number is in the allowed range 1024-65535"),
		mcp.WithNumber("port",
			mcp.Required(),
			mcp.Description("Port to validate"),
		),
	)
}

func updateConfigTool() mcp.Tool {
	return mcp.NewTool("awim_update_config",
		mcp.WithDescription("Update and persist the worker's target address and port"),
		mcp.WithString("address",
			mcp.Required(),
			mcp.Description("Server address the worker should bridge to"),
		),
		mcp.WithNumber("port",
			mcp.Required(),
			mcp.Description("Server port, 1024-65535"),
		),
	)
}

func setTransportModeTool() mcp.Tool {
	return mcp.NewTool("awim_set_transport_mode",
		mcp.WithDescription("Switch the worker transport between UDP (default) and TCP"),
		mcp.WithBoolean("tcp",
			mcp.Required(),
			mcp.Description("True for TCP mode, false for UDP"),
		),
	)
}

func setEnabledTool() mcp.Tool {
	return mcp.NewTool("awim_set_enabled",
		mcp.WithDescription("Start or stop the awim worker"),
		mcp.WithBoolean("enabled",
			mcp.Required(),
			mcp.Description("True to start the worker, false to stop it"),
		),
	)
}

func (s *Server) handleGetState(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return snapshotResult(s.sup.Snapshot())
}

func (s *Server) handleValidateAddress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := toolArgs(req)
	address, ok := args["address"].(string)
	if !ok {
		return mcp.NewToolResultError("address must be a string"), nil
	}
	return boolResult(config.ValidateAddress(address))
}

func (s *Server) handleValidatePort(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := toolArgs(req)
	port, ok := numberArg(args, "port")
	if !ok {
		return mcp.NewToolResultError("port must be an integer"), nil
	}
	return boolResult(config.ValidatePort(port))
}

func (s *Server) handleUpdateConfig(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := toolArgs(req)
	address, ok := args["address"].(string)
	if !ok {
		return mcp.NewToolResultError("address must be a string"), nil
	}
	port, ok := numberArg(args, "port")
	if !ok {
		return mcp.NewToolResultError("port must be an integer"), nil
	}
	if _, err := s.store.Update(address, port); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return snapshotResult(s.sup.Snapshot())
}

func (s *Server) handleSetTransportMode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := toolArgs(req)
	tcp, ok := args["tcp"].(bool)
	if !ok {
		return mcp.NewToolResultError("tcp must be a boolean"), nil
	}
	s.store.SetTCPMode(tcp)
	return snapshotResult(s.sup.Snapshot())
}

func (s *Server) handleSetEnabled(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := toolArgs(req)
	enabled, ok := args["enabled"].(bool)
	if !ok {
		return mcp.NewToolResultError("enabled must be a boolean"), nil
	}
	snap, err := s.sup.SetEnabled(enabled)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to change awim state: %v", err)), nil
	}
	return snapshotResult(snap)
}

func toolArgs(req mcp.CallToolRequest) map[string]interface{} {
	if argsMap, ok := req.Params.Arguments.(map[string]interface{}); ok {
		return argsMap
	}
	return map[string]interface{}{}
}

// numberArg extracts an integral JSON number. Fractional ports are rejected
// rather than truncated.
func numberArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

func snapshotResult(snap supervisor.Snapshot) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal state: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func boolResult(valid bool) (*mcp.CallToolResult, error) {
	data, _ := json.Marshal(map[string]bool{"valid": valid})
	return mcp.NewToolResultText(string(data)), nil
}
