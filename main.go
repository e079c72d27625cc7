package main

import "github.com/marcol480/fink-broker/cmd"

func main() {
	cmd.Execute()
}
