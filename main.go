package main

import (
	"os"

	"github.com/sg-semilla/semilla-auth/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
