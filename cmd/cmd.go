package cmd

import (
	"fmt"

	"github.com/olegri/foosrank/store"
)

// CommonOpts contains information that is common for all commands.
type CommonOpts struct {
	Version string
}

// Set sets the common options.
func (c *CommonOpts) Set(cc CommonOpts) {
	c.Version = cc.Version
}

// StoreOpts selects and locates the persistence backend, shared by all
// commands that touch the ladder.
type StoreOpts struct {
	Backend  string `long:"backend" env:"BACKEND" default:"sqlite" choice:"sqlite" choice:"sheet" description:"persistence backend"`
	Location string `long:"loc"     env:"LOCATION" default:"foosrank.db" description:"database file (sqlite) or sheet directory"`
}

// Open builds the selected backend. Both implementations satisfy the player
// store and the match log capabilities.
func (o StoreOpts) Open() (store.PlayerStore, store.MatchLog, error) {
	switch o.Backend {
	case "sheet":
		sh, err := store.NewSheet(o.Location)
		if err != nil {
			return nil, nil, fmt.Errorf("init sheet store: %w", err)
		}
		return sh, sh, nil
	default:
		s, err := store.New(o.Location)
		if err != nil {
			return nil, nil, fmt.Errorf("init store: %w", err)
		}
		return s, s, nil
	}
}
