package main

import (
	"os"

	studybotcmder "github.com/papercomputeco/studybot/cmd/studybot"
)

func main() {
	cmd := studybotcmder.NewStudybotCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
