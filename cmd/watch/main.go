package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/tcgsim/battlesim/internal/bootstrap"
	"github.com/tcgsim/battlesim/internal/config"
	"github.com/tcgsim/battlesim/internal/game"
	"github.com/tcgsim/battlesim/internal/server"
)

var (
	address = flag.String("addr", "localhost:8080", "websocket address of the simulation server")
	matchID = flag.String("match", "", "follow a single match")
	turns   = flag.Bool("turns", false, "print every turn, not only results")

	replayID  = flag.String("replay", "", "print a saved replay instead of watching the live feed")
	replayDir = flag.String("replay-dir", "replays", "directory of saved replays")
)

func main() {
	flag.Parse()

	logger, err := bootstrap.NewLogger(config.LoggingConfig{Level: "info", Format: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *replayID != "" {
		if err := playback(*replayDir, *replayID); err != nil {
			logger.Error("failed to read replay", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("watching match feed", zap.String("address", *address), zap.String("match_id", *matchID))
	err = server.Watch(ctx, *address, *matchID, func(ev server.FeedEvent) {
		switch {
		case ev.Type == "match_over":
			printResult(ev.Snapshot)
		case *turns:
			printTurn(ev.Snapshot)
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("feed closed", zap.Error(err))
		os.Exit(1)
	}
}

func printTurn(s game.MatchSnapshot) {
	p0, p1 := s.Players[0], s.Players[1]
	fmt.Printf("%s turn %3d  %-8s prizes %d  |  %-8s prizes %d\n",
		s.MatchID, s.Turn, p0.Archetype, p0.Prizes, p1.Archetype, p1.Prizes)
}

func printResult(s game.MatchSnapshot) {
	if s.Result == nil {
		return
	}
	winner := "draw"
	if !s.Result.IsDraw() {
		winner = s.Players[s.Result.Winner].Archetype
	}
	fmt.Printf("%s %s vs %s: %s (%s, %d turns)\n",
		s.MatchID, s.Players[0].Archetype, s.Players[1].Archetype, winner, s.Result.Reason, s.Result.Turns)
}

func playback(dir, matchID string) error {
	replay, err := game.LoadReplayFromFile(dir, matchID)
	if err != nil {
		return err
	}
	replay.Start()
	for snap := replay.Next(); snap != nil; snap = replay.Next() {
		printTurn(*snap)
		if snap.Over {
			printResult(*snap)
		}
	}
	return nil
}
