package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/peteklapka/wagipedia/render"
	"github.com/peteklapka/wagipedia/sheet"
	"github.com/peteklapka/wagipedia/state"
)

func readSource(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}

func writeDestination(name string, data []byte) error {
	if name == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(name, data, 0o644)
}

func renderPage(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	if cmd.Args().Len() == 0 {
		return errors.New("no source page has been specified")
	}
	if cmd.Args().Len() > 2 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}
	src, dst := cmd.Args().Get(0), cmd.Args().Get(1)

	data, err := readSource(src)
	if err != nil {
		return fmt.Errorf("unable to read source page '%s': %w", src, err)
	}
	if env.Rpt != nil {
		env.Rpt.StoreData("render/source.html", data)
	}
	doc, err := sheet.Parse(bytes.NewReader(data))
	if err != nil {
		return err
	}

	editing := cmd.Bool("editing") || render.IsEditPath(cmd.String("url"))
	guard := render.NewGuard(render.Options{
		FallbackName:        env.Cfg.Render.FallbackName,
		DefaultSectionTitle: env.Cfg.Render.DefaultSectionTitle,
		TipPrefixes:         env.Cfg.Render.TipPrefixes,
	}, env.Log)

	stats, err := guard.Apply(doc, editing)
	if err != nil {
		return err
	}

	if cmd.Bool("style") && !editing {
		theme, err := render.LoadTheme(env.Cfg.Render.Stylesheet, env.Log)
		if err != nil {
			return err
		}
		if render.InjectTheme(doc, theme) {
			env.Log.Debug("Theme injected", zap.Int("rules", len(theme.Rules)))
		}
	}

	var out bytes.Buffer
	if err := html.Render(&out, doc); err != nil {
		return fmt.Errorf("unable to serialize rendered page: %w", err)
	}
	if env.Rpt != nil {
		env.Rpt.StoreData("render/result.html", out.Bytes())
	}
	if err := writeDestination(dst, out.Bytes()); err != nil {
		return fmt.Errorf("unable to write rendered page: %w", err)
	}

	env.Log.Info("Page rendered", zap.String("source", src), zap.Bool("editing", editing),
		zap.Int("tables", stats.Rendered), zap.Int("skipped", stats.Skipped), zap.Int("tips", stats.TipsHidden))
	return nil
}
