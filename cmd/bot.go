package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/olegri/foosrank/event"
	"github.com/olegri/foosrank/rating"
	"github.com/olegri/foosrank/store"
)

// Bot is a command to run the ladder as a discord bot.
type Bot struct {
	Token  string `long:"token" env:"TOKEN" description:"Discord bot token"`
	FixedK int    `long:"fixed-k" env:"FIXED_K" description:"use a constant K-factor instead of the experience tiers"`
	StoreOpts
}

// Execute runs the command.
func (b Bot) Execute([]string) error {
	players, matches, err := b.Open()
	if err != nil {
		return err
	}

	cfg := rating.DefaultConfig
	if b.FixedK > 0 {
		cfg = rating.Config{Policy: rating.FixedK, K: b.FixedK}
	}

	if !players.Transactional() {
		log.Printf("[WARN] %s backend has no write isolation, concurrent submissions from other processes can get lost", b.Backend)
	}

	disc := &event.Discord{
		Token: b.Token,
		Service: &store.Service{
			Players: players,
			Matches: matches,
			Rating:  cfg,
		},
	}

	ctx, cancel := context.WithCancelCause(context.Background())
	go func() { // catch signal and invoke graceful termination
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		sig := <-stop
		log.Printf("[WARN] caught signal: %s", sig)
		cancel(fmt.Errorf("caught signal: %s", sig))
	}()

	ewg, ctx := errgroup.WithContext(ctx)
	ewg.Go(func() error {
		log.Printf("[INFO] starting bot")
		return disc.Run(ctx)
	})
	ewg.Go(func() error {
		<-ctx.Done()
		log.Printf("[INFO] stopping bot")
		return nil
	})

	if err := ewg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}
