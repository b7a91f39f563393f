package external

import (
	"context"
	"fmt"
	"strings"

	"github.com/open3fs/m3disk/pkg/errors"
)

// Command define command
type Command struct {
	runner RunnerInterface

	cmdName string
	args    []string
}

// Command gets the command
func (cmd *Command) Command() string {
	if len(cmd.args) > 0 {
		return cmd.cmdName + " " + strings.Join(cmd.args, " ")
	}
	return cmd.cmdName
}

// AppendArgs append new args to current args
func (cmd *Command) AppendArgs(args ...any) {
	for _, arg := range args {
		cmd.args = append(cmd.args, fmt.Sprintf("%v", arg))
	}
}

// Exec execute the command
func (cmd *Command) Exec(ctx context.Context) (out string, err error) {
	if cmd.cmdName == "" {
		return "", errors.New("no command")
	}
	if cmd.runner == nil {
		return "", errors.Errorf("no runner for %s", cmd.cmdName)
	}
	return cmd.runner.Exec(ctx, cmd.cmdName, cmd.args...)
}

func (cmd *Command) String() string {
	return fmt.Sprintf("cmd: %s", cmd.Command())
}

// NewCommand inits a new command
func NewCommand(runner RunnerInterface, cmdName string, args ...any) *Command {
	cmd := &Command{
		runner:  runner,
		cmdName: cmdName,
	}
	cmd.AppendArgs(args...)

	return cmd
}
