package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/eventhub/httpclient"
	"github.com/kbukum/eventhub/logger"
	"github.com/kbukum/eventhub/sse"
	"github.com/kbukum/eventhub/version"
)

type tailOptions struct {
	url            string
	raw            bool
	comments       bool
	reconnect      bool
	reconnectDelay time.Duration
	maxReconnects  int
}

func newTailCommand() *cobra.Command {
	var opts tailOptions
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Connect to an event stream and print its events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return tail(cmd.Context(), nil, opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.url, "url", "http://localhost:3000/todos/stream", "stream URL")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "print payloads exactly as received")
	cmd.Flags().BoolVar(&opts.comments, "comments", false, "also print keep-alive comments")
	cmd.Flags().BoolVar(&opts.reconnect, "reconnect", false, "resubscribe when the stream ends")
	cmd.Flags().DurationVar(&opts.reconnectDelay, "reconnect-delay", time.Second, "delay before resubscribing unless the server sets one")
	cmd.Flags().IntVar(&opts.maxReconnects, "max-reconnects", 0, "give up after this many failed attempts in a row (0 = never)")
	return cmd
}

// tail prints events until the stream ends or ctx is canceled. A canceled
// ctx is not an error. hc may be nil.
func tail(ctx context.Context, hc *http.Client, opts tailOptions, out io.Writer) error {
	clientOpts := []httpclient.Option{httpclient.WithLogger(logger.WithComponent("tail"))}
	if hc != nil {
		clientOpts = append(clientOpts, httpclient.WithHTTPClient(hc))
	}
	client, err := httpclient.New(httpclient.Config{
		URL:            opts.url,
		Headers:        map[string]string{"User-Agent": version.UserAgent("eventhub")},
		Reconnect:      opts.reconnect,
		ReconnectDelay: opts.reconnectDelay,
		MaxReconnects:  opts.maxReconnects,
	}, clientOpts...)
	if err != nil {
		return err
	}

	return client.Subscribe(ctx, func(msg sse.Message) error {
		switch {
		case msg.IsComment():
			if opts.comments {
				_, err = fmt.Fprintf(out, ": %s\n", msg.Comment)
			}
		case opts.raw:
			_, err = fmt.Fprintln(out, msg.Data)
		default:
			_, err = fmt.Fprintf(out, "[%s] %s\n", msg.ID, stripWrapper(msg.Data))
		}
		return err
	})
}

// stripWrapper removes the <div> the server wraps payloads in.
func stripWrapper(data string) string {
	data = strings.TrimPrefix(data, "<div>")
	data = strings.TrimSuffix(data, "</div>")
	return strings.TrimRight(data, "\n")
}
