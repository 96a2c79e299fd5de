package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/goforj/usersearch/location"
	"github.com/goforj/usersearch/page"
	"github.com/goforj/usersearch/query"
	"github.com/goforj/usersearch/search"
	"github.com/goforj/usersearch/view"
)

func newInteractiveCmd(f *flags) *cobra.Command {
	var start string
	cmd := &cobra.Command{
		Use:   "interactive",
		Short: "Search from the terminal",
		Long: "Each input line is the current text of the search field. The URL is rewritten " +
			"once typing pauses for the debounce interval, and results are printed as they change.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			logger := log.New(cmd.ErrOrStderr(), log.Prefix(), log.Flags())
			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.close(ctx); err != nil {
					logger.Printf("close: %v", err)
				}
			}()

			history, err := location.Parse(start)
			if err != nil {
				return fmt.Errorf("parse --url: %w", err)
			}
			p := page.New(ctx, history, query.NewQuery(a.users), search.WithDelay(cfg.Debounce))
			defer p.Close()
			return runInteractive(ctx, p, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&start, "url", "/", "Initial page URL, e.g. /?search=Leanne")
	return cmd
}

// runInteractive feeds lines from in to the page until EOF or ctx ends, then
// flushes the last input and prints the settled result.
func runInteractive(ctx context.Context, p *page.Page, in io.Reader, out io.Writer) error {
	var mu sync.Mutex
	var last string
	render := func(s page.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		var b strings.Builder
		fmt.Fprintf(&b, "-- %s\n", s.URL)
		_ = view.RenderText(&b, s.State)
		// Placeholder and settled notifications often render the same frame.
		if b.String() == last {
			return
		}
		last = b.String()
		_, _ = io.WriteString(out, last)
	}
	p.Subscribe(render)
	render(p.Snapshot())

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line := <-lines:
			p.Input(line)
		case err := <-scanErr:
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			p.Control().Flush()
			s, err := p.Await(ctx)
			if err != nil {
				return nil
			}
			render(s)
			return nil
		}
	}
}
