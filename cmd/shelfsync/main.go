package main

import "shelfsync/cmd/shelfsync/cmd"

func main() {
	cmd.Execute()
}
