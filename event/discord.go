package event

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/syohex/go-texttable"

	"github.com/olegri/foosrank/store"
)

// Discord is a handler for Discord commands.
type Discord struct {
	Token          string
	Service        *store.Service
	HandlerTimeout time.Duration
	se             *discordgo.Session
}

// Run runs the Discord handler.
// Blocking call.
func (d *Discord) Run(ctx context.Context) error {
	if d.HandlerTimeout == 0 {
		d.HandlerTimeout = 5 * time.Second
	}

	se, err := discordgo.New(fmt.Sprintf("Bot %s", d.Token))
	if err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}

	d.se = se

	log.Printf("[INFO] opening discord session")
	if err := d.se.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}

	d.se.Identify.Intents = discordgo.IntentsGuildMessages
	d.se.AddHandler(d.onMessage)

	<-ctx.Done()

	log.Printf("[WARN] stopping bot with reason: %v", context.Cause(ctx))
	if err := d.se.Close(); err != nil {
		return fmt.Errorf("close discord session: %w", err)
	}

	return nil
}

func (d *Discord) onMessage(s *discordgo.Session, msg *discordgo.MessageCreate) {
	if msg.Author.ID == s.State.User.ID {
		return // ignore messages from the bot
	}

	log.Printf("[DEBUG] received message from %s: %s", msg.ChannelID, msg.Content)

	msg.Content = strings.TrimSpace(msg.Content)
	if msg.Content == "" || !strings.HasPrefix(msg.Content, "!") {
		return // do nothing
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.HandlerTimeout)
	defer cancel()

	var command func(ctx context.Context, args []string) (reply string, err error)
	args := strings.Fields(msg.Content)[1:] // first word is the command itself

	switch content := msg.Content; {
	case strings.HasPrefix(content, "!match"):
		command = d.match
	case strings.HasPrefix(content, "!addplayer"):
		command = d.addPlayer
	case strings.HasPrefix(content, "!standings"):
		command = d.standings
	case strings.HasPrefix(content, "!history"):
		command = d.history
	case strings.HasPrefix(content, "!ping"):
		command = d.ping
	case strings.HasPrefix(content, "!help"):
		command = d.help
	default:
		return // do nothing
	}

	replyTo := &discordgo.MessageReference{MessageID: msg.ID, ChannelID: msg.ChannelID}
	reply, err := command(ctx, args)
	if err != nil {
		log.Printf("[WARN] failed to execute command: %v", err)
		reply = "failed to execute command, check logs"
	}
	if _, err = s.ChannelMessageSendReply(msg.ChannelID, reply, replyTo); err != nil {
		log.Printf("[WARN] failed to send message: %v", err)
	}
}

func (d *Discord) match(ctx context.Context, args []string) (string, error) {
	if len(args) < 4 || len(args) > 5 {
		return "usage: !match <player1> <player2> <score1> <score2> [side]", nil
	}

	req := store.SubmitRequest{PlayerA: args[0], PlayerB: args[1]}
	if v, err := strconv.Atoi(args[2]); err == nil {
		req.ScoreA = &v
	}
	if v, err := strconv.Atoi(args[3]); err == nil {
		req.ScoreB = &v
	}
	if len(args) == 5 {
		req.Side = args[4]
	}

	res, err := d.Service.SubmitMatch(ctx, req)
	if err != nil {
		return replyForError(err)
	}

	summary := fmt.Sprintf("%s beat %s %d-%d, ratings now %d / %d",
		res.Record.Winner, res.Record.Loser,
		res.Record.ScoreWinner, res.Record.ScoreLoser,
		res.Record.ELOWinner, res.Record.ELOLoser)

	return summary + "\n" + drawStandings(res.Standings), nil
}

func (d *Discord) addPlayer(ctx context.Context, args []string) (string, error) {
	if len(args) != 1 {
		return "usage: !addplayer <name>", nil
	}

	standings, err := d.Service.AddPlayer(ctx, args[0])
	if err != nil {
		return replyForError(err)
	}

	return fmt.Sprintf("player %s registered\n", args[0]) + drawStandings(standings), nil
}

func (d *Discord) standings(ctx context.Context, _ []string) (string, error) {
	standings, err := d.Service.Standings(ctx)
	if err != nil {
		return replyForError(err)
	}

	if len(standings) == 0 {
		return "no players registered yet, use !addplayer", nil
	}

	return drawStandings(standings), nil
}

func (d *Discord) history(ctx context.Context, args []string) (string, error) {
	if len(args) != 1 {
		return "usage: !history <name>", nil
	}

	entries, err := d.Service.History(ctx, args[0])
	if err != nil {
		return replyForError(err)
	}

	if len(entries) == 0 {
		return fmt.Sprintf("%s has not played any matches yet", args[0]), nil
	}

	tbl := &texttable.TextTable{}
	_ = tbl.SetHeader("When", "Opponent", "Result", "ELO")

	for _, e := range entries {
		result := fmt.Sprintf("won %d-%d", e.PlayerScore, e.OpponentScore)
		if !e.Won {
			result = fmt.Sprintf("lost %d-%d", e.PlayerScore, e.OpponentScore)
		}
		_ = tbl.AddRow(e.MatchID, e.Opponent, result, strconv.Itoa(e.RatingAfter))
	}

	return "```\n" + tbl.Draw() + "\n```", nil
}

func (d *Discord) ping(context.Context, []string) (string, error) { return "pong!", nil }

func (d *Discord) help(context.Context, []string) (reply string, err error) {
	return `
!match <player1> <player2> <score1> <score2> [side] - report a match, one side must score 10
!addplayer <name> - register a new player
!standings - current ladder, best first
!history <name> - rating trace for a player
!ping - pong!
!help - this message
	`, nil
}

// replyForError turns service errors into user-facing replies. Validation
// rejections surface verbatim, storage failures as a generic retry hint,
// anything else bubbles up.
func replyForError(err error) (string, error) {
	var rejected store.ErrRejected
	if errors.As(err, &rejected) {
		return rejected.Error(), nil
	}

	if errors.Is(err, store.ErrUnavailable) {
		return "ranking storage is unavailable, try again later", nil
	}

	return "", err
}

func drawStandings(standings []store.Player) string {
	tbl := &texttable.TextTable{}
	_ = tbl.SetHeader("Name", "ELO", "Games", "Wins", "Losses", "Streak")

	for _, pl := range standings {
		_ = tbl.AddRow(
			pl.Name,
			strconv.Itoa(pl.ELO),
			strconv.Itoa(pl.GamesPlayed),
			strconv.Itoa(pl.Wins),
			strconv.Itoa(pl.Losses),
			strconv.Itoa(pl.WinStreak),
		)
	}

	return "```\n" + tbl.Draw() + "\n```"
}
