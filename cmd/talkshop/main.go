// cmd/talkshop/main.go
//
// Entry point for the talkshop CLI.
//
// Subcommands:
//   talkshop            launch the console (text stand-in for a voice call)
//   talkshop serve      run the room bridge HTTP server until interrupted
//   talkshop briefs     seed and list the challenge day briefs
//   talkshop progress   show challenge progress recorded so far

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mkerring/talkshop/internal/agent"
	"github.com/mkerring/talkshop/internal/brief"
	"github.com/mkerring/talkshop/internal/config"
	"github.com/mkerring/talkshop/internal/logging"
	"github.com/mkerring/talkshop/internal/personas"
	"github.com/mkerring/talkshop/internal/roombridge"
	"github.com/mkerring/talkshop/internal/store"
	"github.com/mkerring/talkshop/internal/tui"
)

func main() {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting working directory: %v\n", err)
		os.Exit(1)
	}

	command := "console"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "console":
		err = runConsole(cwd)
	case "serve":
		err = runServe(cwd)
	case "briefs":
		err = runBriefs(cwd)
	case "progress":
		err = runProgress(cwd)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", command)
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`talkshop — voice agent workshop runner

Usage:
  talkshop            launch the console
  talkshop serve      run the room bridge server
  talkshop briefs     seed and list challenge briefs
  talkshop progress   show challenge progress`)
}

func runConsole(projectDir string) error {
	if err := config.InitWorkspace(projectDir); err != nil {
		return err
	}
	// Missing provider keys are fine for the console; warn so real room
	// runs are not a surprise.
	if creds, err := config.LoadCredentials(projectDir); err == nil && !creds.HasProviderKeys() {
		fmt.Fprintf(os.Stderr, "note: missing provider keys (%v), running offline\n",
			creds.MissingProviderKeys())
	}
	return tui.Run(projectDir)
}

func runServe(projectDir string) error {
	if err := config.InitWorkspace(projectDir); err != nil {
		return err
	}
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		return err
	}
	logger, err := logging.New(projectDir)
	if err != nil {
		return err
	}
	defer logger.Close()

	settings := roombridge.SettingsFromConfig(cfg)
	router := roombridge.NewRouter(roombridge.RouterWithLogger(logger))
	server := roombridge.NewServer(settings,
		roombridge.WithProcessor(router),
		roombridge.WithPersonas(personas.NewRegistry().IDs()),
		roombridge.WithLogger(logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		return err
	}
	fmt.Printf("room bridge listening on %s\n", server.BaseURL())

	<-ctx.Done()
	fmt.Println("shutting down...")
	return server.Shutdown(context.Background())
}

func runBriefs(projectDir string) error {
	if err := config.InitWorkspace(projectDir); err != nil {
		return err
	}
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		return err
	}
	written, err := brief.Seed(cfg)
	if err != nil {
		return err
	}
	if written > 0 {
		fmt.Printf("seeded %d briefs into %s\n", written, cfg.BriefsDir())
	}

	briefs, err := brief.LoadDir(cfg.BriefsDir())
	if err != nil {
		return err
	}
	for _, b := range briefs {
		fmt.Printf("day %d: %s (persona: %s, %d steps)\n",
			b.Meta.Day, b.Meta.Title, b.Meta.Persona, len(b.Steps))
	}
	return nil
}

func runProgress(projectDir string) error {
	if err := config.InitWorkspace(projectDir); err != nil {
		return err
	}
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		return err
	}
	ctx := agent.NewContext(cfg, store.New(cfg), nil, "")
	p := brief.LoadProgress(ctx)
	fmt.Println(p.Summary())
	if done := p.CompletedDays(); done > 0 {
		fmt.Printf("%d day(s) complete\n", done)
	}
	return nil
}
