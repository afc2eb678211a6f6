// Package bootstrap runs a service through its lifecycle: start the
// registered components in order, run hooks, check readiness, print a
// startup summary, wait for SIGINT/SIGTERM and stop everything in reverse
// order within a graceful timeout.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(hubComponent)
//	app.RegisterComponent(serverComponent)
//	err = app.Run(ctx)
package bootstrap
