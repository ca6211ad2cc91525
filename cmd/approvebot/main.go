package main

import (
	"github.com/duchph/approvebot/internal/cli"
)

func main() {
	cli.Execute()
}
