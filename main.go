package main

import "github.com/nvdat/webtrace/cmd"

// execCmd is indirected for tests.
var execCmd = cmd.Execute

func main() {
	execCmd()
}
