package main

import "annotator/cmd/annotator-cli/cmd"

func main() {
	cmd.Execute()
}
