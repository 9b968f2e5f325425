// Package admincmd describes text commands restricted to bot admins.
package admincmd

import (
	"context"
	"strings"
)

// Func runs a command with its raw argument text and returns the reply.
type Func func(ctx context.Context, args string) (string, error)

// Command is a named admin command.
type Command struct {
	Name        string
	Description string
	Handler     Func
}

// Find returns the command called name, ignoring case.
func Find(commands []Command, name string) (Command, bool) {
	name = strings.TrimSpace(name)
	for _, cmd := range commands {
		if strings.EqualFold(strings.TrimSpace(cmd.Name), name) {
			return cmd, true
		}
	}
	return Command{}, false
}

// Names lists command names in declaration order.
func Names(commands []Command) []string {
	names := make([]string, 0, len(commands))
	for _, cmd := range commands {
		if name := strings.TrimSpace(cmd.Name); name != "" {
			names = append(names, strings.ToLower(name))
		}
	}
	return names
}
