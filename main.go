package main

import "github.com/notargets/glacierflow/cmd"

func main() {
	cmd.Execute()
}
