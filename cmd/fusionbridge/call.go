package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fusionbridge/fusionbridge"
	"github.com/fusionbridge/fusionbridge/client"
	"github.com/viant/mcp-protocol/schema"
)

// CallCmd invokes a single tool on a running bridge and prints the result.
// Usage: fusionbridge call fusion360_create_sketch -d '{"plane":"xy"}'
type CallCmd struct {
	Data      string `short:"d" long:"data" description:"tool arguments as JSON"`
	URL       string `short:"u" long:"url" description:"bridge transport URL"`
	Transport string `short:"t" long:"transport" description:"transport type" choice:"streamable" choice:"sse" default:"streamable"`
}

func (c *CallCmd) Execute(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing tool name, usage: call <tool> [-d json]")
	}
	tool := args[0]
	var arguments map[string]interface{}
	if c.Data != "" {
		if err := json.Unmarshal([]byte(c.Data), &arguments); err != nil {
			return fmt.Errorf("invalid arguments JSON: %w", err)
		}
	}

	ctx := context.Background()
	options := &fusionbridge.ClientOptions{}
	options.Transport.Type = c.Transport
	options.Transport.URL = c.URL
	// Keepalive frames go to stderr so stdout stays a clean result stream
	aClient, err := fusionbridge.NewClient(ctx, options,
		client.WithProgressListener(func(progress *client.Progress) {
			if progress.Message == "" {
				return
			}
			fmt.Fprintln(os.Stderr, progress.Message)
		}))
	if err != nil {
		return err
	}

	result, err := aClient.CallTool(ctx, &schema.CallToolRequestParams{Name: tool, Arguments: arguments})
	if err != nil {
		return err
	}
	if result.IsError != nil && *result.IsError {
		message := "tool call failed"
		if len(result.Content) > 0 {
			if text := contentText(result.Content[0]); text != "" {
				message = text
			}
		}
		if data, err := json.MarshalIndent(result.StructuredContent, "", "  "); err == nil && result.StructuredContent != nil {
			fmt.Fprintln(os.Stderr, string(data))
		}
		return fmt.Errorf("%s", message)
	}
	if result.StructuredContent != nil {
		data, err := json.MarshalIndent(result.StructuredContent, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	for _, elem := range result.Content {
		if text := contentText(elem); text != "" {
			fmt.Println(text)
		}
	}
	return nil
}

// contentText extracts the text of a content element. Elements decoded off
// the wire arrive as generic maps rather than typed structs.
func contentText(elem schema.CallToolResultContentElem) string {
	switch actual := elem.(type) {
	case schema.TextContent:
		return actual.Text
	case *schema.TextContent:
		return actual.Text
	case map[string]interface{}:
		text, _ := actual["text"].(string)
		return text
	}
	return ""
}
