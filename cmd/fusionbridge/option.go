package main

// Options is the root command that groups sub-commands. The struct tags are
// interpreted by github.com/jessevdk/go-flags.
type Options struct {
	Serve   *ServeCmd   `command:"serve" description:"Start the bridge server"`
	Health  *HealthCmd  `command:"health" description:"Check bridge and Fusion 360 add-in health"`
	Tools   *ToolsCmd   `command:"tools" description:"List tools registered on a running bridge"`
	Call    *CallCmd    `command:"call" description:"Invoke a tool and print the result"`
	Version *VersionCmd `command:"version" description:"Print build version"`
}

// Init instantiates the sub-command referenced by the first argument so that
// flags.Parse can populate its fields.
func (o *Options) Init(firstArg string) {
	switch firstArg {
	case "serve":
		o.Serve = &ServeCmd{}
	case "health":
		o.Health = &HealthCmd{}
	case "tools":
		o.Tools = &ToolsCmd{}
	case "call":
		o.Call = &CallCmd{}
	case "version":
		o.Version = &VersionCmd{}
	}
}
