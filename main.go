package main

import (
	"fmt"
	"os"

	fieldscmd "github.com/rijnhardtkotze/icann-reports/cmd/fields"
	"github.com/rijnhardtkotze/icann-reports/cmd/process"
	"github.com/rijnhardtkotze/icann-reports/cmd/root"
)

func init() {
	root.Init()

	root.Cmd.AddCommand(process.Cmd)
	root.Cmd.AddCommand(fieldscmd.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
