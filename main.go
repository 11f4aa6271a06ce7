// Package main is the entry point for the leadsync application
package main

import (
	"github.com/growatorchard/leadsync/cmd"
)

func main() {
	cmd.Execute()
}
