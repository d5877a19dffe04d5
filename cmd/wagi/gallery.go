package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/peteklapka/wagipedia/gallery"
	"github.com/peteklapka/wagipedia/render"
	"github.com/peteklapka/wagipedia/state"
	"github.com/peteklapka/wagipedia/store"
)

// dryRunTemplate seeds in-memory store so dry runs can create entries.
const dryRunTemplate = `<table>
<tr><th>WAG_CARD</th><th>v1</th></tr>
<tr><td><strong>Character Name</strong></td><td data-cc="name">CHARACTER NAME</td></tr>
<tr><td><strong>Player Name</strong></td><td></td></tr>
<tr><td><strong>Level</strong></td><td>1</td></tr>
</table>
<h2>About CHARACTER NAME</h2>
`

func galleryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "locale", Usage: "`LOCALE` of new entries and name ordering, overrides configuration"},
		&cli.BoolFlag{Name: "dry-run", Aliases: []string{"n"}, Usage: "work with in-memory store seeded with sample template, nothing is sent to the wiki"},
	}
}

func newSync(cmd *cli.Command, env *state.LocalEnv) (*gallery.Sync, error) {
	var st store.Store
	if cmd.Bool("dry-run") {
		mem := store.NewMemory()
		mem.Put(env.Cfg.Gallery.Locale, env.Cfg.Gallery.Template, "Character Template", dryRunTemplate)
		st = mem
		env.Log.Info("Dry run, using in-memory store")
	} else {
		st = store.NewClient(&env.Cfg.Store, env.Log)
	}

	options := []gallery.Option{gallery.WithLocale(cmd.String("locale"))}
	if env.Rpt != nil {
		options = append(options, gallery.WithReport(env.Rpt))
	}
	return gallery.New(st, &env.Cfg.Gallery, env.Log, options...)
}

func listGallery(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	sync, err := newSync(cmd, env)
	if err != nil {
		return err
	}
	entries, err := sync.Refresh(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPLAYER\tLEVEL\tPATH")
	for _, e := range entries {
		level := e.Meta.LevelText
		if level == "" {
			level = "-"
		}
		name := e.Meta.Name
		if e.Err != nil {
			name += " (unreadable)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.Ref.ID, name, e.Meta.Player, level, e.Ref.Path)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("unable to write gallery list: %w", err)
	}

	if fname := cmd.String("html"); fname != "" {
		text, err := render.Gallery("Characters", sync.Cards(entries)).HTML()
		if err != nil {
			return err
		}
		if err := os.WriteFile(fname, []byte(text), 0o644); err != nil {
			return fmt.Errorf("unable to write gallery page '%s': %w", fname, err)
		}
	}

	env.Log.Info("Gallery listed", zap.Int("characters", len(entries)), zap.String("policy", env.Cfg.Gallery.FailurePolicy))
	return nil
}

func newCharacter(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	name := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if name == "" {
		return errors.New("character name has not been specified")
	}
	sync, err := newSync(cmd, env)
	if err != nil {
		return err
	}
	ref, err := sync.CreateFromTemplate(ctx, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "%s\t%s\n", ref.Path, gallery.EditURL(sync.Locale(), ref.Path))
	return nil
}

func deleteCharacter(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	if cmd.Args().Len() != 1 {
		return errors.New("exactly one entry id is expected")
	}
	id, err := strconv.Atoi(cmd.Args().First())
	if err != nil {
		return fmt.Errorf("malformed entry id '%s': %w", cmd.Args().First(), err)
	}
	sync, err := newSync(cmd, env)
	if err != nil {
		return err
	}
	return sync.DeleteEntry(ctx, id)
}

