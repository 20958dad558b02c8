package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/five82/livelog/internal/config"
	"github.com/five82/livelog/internal/logtail"
	"github.com/five82/livelog/internal/session"
	"github.com/five82/livelog/internal/ui"
)

const followTick = 200 * time.Millisecond

// ListOptions control ListFiles output.
type ListOptions struct {
	Filter string // overrides the server's default filter
	All    bool   // ignore every filter
}

// ListFiles prints the server's files, one per line.
func ListFiles(ctx context.Context, opts Options, list ListOptions, w io.Writer) error {
	env, err := Setup(ctx, opts)
	if err != nil {
		return err
	}
	defer env.Close()

	s := env.Session
	if list.Filter != "" {
		s.SetListFilter(list.Filter)
	}
	if err := s.LoadFiles(ctx); err != nil {
		return err
	}

	files := s.VisibleFiles()
	if list.All {
		files = s.Files()
	}
	for _, f := range files {
		if _, err := fmt.Fprintln(w, f); err != nil {
			return err
		}
	}
	return nil
}

// Follow prints new lines of opts.File to w, colored by grouping, until ctx
// is cancelled. Lines not matching filter are skipped.
func Follow(ctx context.Context, opts Options, filter string, w io.Writer) error {
	if opts.File == "" {
		return session.ErrNoSelection
	}
	env, err := Setup(ctx, opts)
	if err != nil {
		return err
	}
	defer env.Close()

	s := env.Session
	s.SetContentFilter(filter)
	if err := s.Open(ctx, opts.File); err != nil {
		fmt.Fprintf(w, "warning: %v\n", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.Run(gctx) })
	g.Go(func() error { return printNewLines(gctx, s, w) })
	return g.Wait()
}

func printNewLines(ctx context.Context, s *session.Session, w io.Writer) error {
	ticker := time.NewTicker(followTick)
	defer ticker.Stop()

	var (
		version uint64
		last    int64 = -1
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		v := s.Version()
		if v == version {
			continue
		}
		version = v

		for _, line := range s.Lines() {
			if line.Line <= last {
				continue
			}
			last = line.Line
			if _, err := fmt.Fprintln(w, ui.RenderPlainLine(line)); err != nil {
				return err
			}
		}
	}
}

// ShowLog prints the last n lines of livelog's own log file. It needs no
// server.
func ShowLog(opts Options, n int, w io.Writer) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load livelog config: %w", err)
	}
	lines, err := logtail.Last(cfg.LogFile, n)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
