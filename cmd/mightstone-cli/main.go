package main

import (
	"context"

	"mightstone-backend/cmd/mightstone-cli/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
