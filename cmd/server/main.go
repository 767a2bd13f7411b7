// Package main is the entrypoint of the events API.
package main

import "github.com/eventhub/backend/cmd/server/cmd"

func main() {
	cmd.Execute()
}
