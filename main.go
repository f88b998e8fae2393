package main

import (
	"os"

	"github.com/catalog-admin/catalog-admin/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
