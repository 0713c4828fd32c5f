package main

import (
	"HipsterFM/cmd"
)

func main() {
	cmd.Execute()
}
