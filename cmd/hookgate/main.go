package main

import (
	"os"

	"github.com/adrianpk/hookgate/internal/log"
)

func main() {
	closeLog := log.Setup()
	code := Execute()
	closeLog()
	os.Exit(code)
}
