package main

import (
	"github.com/mj1618/desktop-intent/cmd"
	_ "github.com/mj1618/desktop-intent/internal/platform/fake"
)

func main() {
	cmd.Execute()
}
