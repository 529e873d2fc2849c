// vmtool is the command-line interface to the assembler and interpreter: a
// tagged-word stack/register virtual machine and its toolchain.
package main

import (
	"context"
	"os"

	"github.com/avl-tools/tinyvm/internal/cli"
	"github.com/avl-tools/tinyvm/internal/cli/cmd"
)

var commands = []cli.Command{
	cmd.Assembler(),
	cmd.Runner(),
}

func main() {
	result :=
		cli.New(context.Background()).
			WithLogger(os.Stderr).
			WithCommands(commands).
			WithHelp(cmd.Help(commands)).
			Execute(os.Args[1:])

	os.Exit(result)
}
