package main

import (
	"os"

	"github.com/kysee/zkevm-state/checker"
)

func main() {
	checker.Main(checker.NewConfig(os.Args...))
}
