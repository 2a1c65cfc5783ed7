package commands

import (
	"context"

	"github.com/wolfeidau/staffdesk/internal/directory"
	"github.com/wolfeidau/staffdesk/internal/seed"
)

// SeedCmd loads a YAML seed file into the configured store and exits.
type SeedCmd struct {
	File  string     `arg:"" help:"YAML file of users, departments and employees" type:"existingfile"`
	Store StoreFlags `embed:""`
}

func (c *SeedCmd) Run(ctx context.Context, globals *Globals) error {
	log := setupLogging(globals.Debug)

	f, err := seed.Load(c.File)
	if err != nil {
		return err
	}

	st, err := c.Store.open(ctx)
	if err != nil {
		return err
	}
	defer st.close()

	res, err := seed.Apply(ctx, directory.NewService(st.users, st.departments, st.employees, st.audit), f)
	if err != nil {
		return err
	}

	log.Info().Int("created", res.Created).Int("skipped", res.Skipped).Str("file", c.File).Msg("Seed data applied")
	return nil
}
