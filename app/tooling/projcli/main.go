package main

import "github.com/blockcast/blockcast/app/tooling/projcli/cmd"

func main() {
	cmd.Execute()
}
