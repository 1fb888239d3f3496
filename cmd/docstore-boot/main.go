// Package main is the entry point of docstore-boot.
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/kart-io/docstore-boot/cmd/docstore-boot/app"
)

func main() {
	app.NewApp().Run()
}
