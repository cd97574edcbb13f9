package app

import (
	"fmt"

	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/transitpanel/cmd/transitpanel/app/options"
	"github.com/autopeer-io/transitpanel/pkg/app"
	"github.com/autopeer-io/transitpanel/pkg/log"
)

const (
	commandName = "transitpanel"
	commandDesc = `The transit panel shows live Wiener Linien departures for a list of stops
on an e-paper display. It keeps the WLAN association alive, feeds the hardware
watchdog while it waits and suspends the board between long refresh intervals.`
)

func NewApp() *app.App {
	opts := options.NewPanelOptions()
	var application *app.App
	application = app.NewApp(
		commandName,
		"Launch the departure panel",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(run(opts)),
		app.WithCommands(
			newDeparturesCommand(opts),
			newConfigCommand(func() *app.App { return application }),
		),
	)
	return application
}

func run(opts *options.PanelOptions) app.RunFunc {
	return func() error {
		log.Init(opts.Log)
		defer func() { _ = log.Sync() }()

		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		runner, err := cfg.NewRunner()
		if err != nil {
			return fmt.Errorf("failed to create panel: %w", err)
		}

		return runner.Run(ctx)
	}
}
