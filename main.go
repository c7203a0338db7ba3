package main

import (
	"os"

	"github.com/FACorreiaa/nizhal-navigator/cmd"
)

//	@title			Nizhal Navigator API
//	@version		1.0
//	@description	Tourism chat assistant: answers, map links and supplementary links.
//	@host			localhost:8000
//	@BasePath		/api/v1
func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
