package main

import (
	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/cli"
)

func main() {
	cli.Execute()
}
