package main

import (
	"context"

	"ebird-pages/cmd/ebird-pages/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
