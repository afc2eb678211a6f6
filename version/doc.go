// Package version reports build information for the /info endpoint and the
// version command.
//
// Release builds stamp it with -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/eventhub/version.Version=1.0.0" ./cmd/eventhub
//
// Without ldflags the VCS data Go embeds in the binary is used.
package version
