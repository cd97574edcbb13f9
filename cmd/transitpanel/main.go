package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/autopeer-io/transitpanel/cmd/transitpanel/app"
)

func main() {
	app.NewApp().Run()
}
