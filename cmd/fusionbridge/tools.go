package main

import (
	"context"
	"fmt"

	"github.com/fusionbridge/fusionbridge"
)

// ToolsCmd lists the tools registered on a running bridge.
type ToolsCmd struct {
	URL       string `short:"u" long:"url" description:"bridge transport URL"`
	Transport string `short:"t" long:"transport" description:"transport type" choice:"streamable" choice:"sse" default:"streamable"`
}

func (t *ToolsCmd) Execute(_ []string) error {
	ctx := context.Background()
	options := &fusionbridge.ClientOptions{}
	options.Transport.Type = t.Transport
	options.Transport.URL = t.URL
	aClient, err := fusionbridge.NewClient(ctx, options)
	if err != nil {
		return err
	}
	var cursor *string
	for {
		result, err := aClient.ListTools(ctx, cursor)
		if err != nil {
			return err
		}
		for _, tool := range result.Tools {
			description := ""
			if tool.Description != nil {
				description = *tool.Description
			}
			fmt.Printf("%-36s %s\n", tool.Name, description)
		}
		if result.NextCursor == nil || *result.NextCursor == "" {
			break
		}
		cursor = result.NextCursor
	}
	return nil
}
