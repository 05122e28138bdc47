package main

import (
	"os"

	partchatcmder "github.com/papercomputeco/partchat/cmd/partchat"
)

func main() {
	cmd := partchatcmder.NewPartchatCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
