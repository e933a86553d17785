package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

const version = "0.1.0"

func newApp() *cli.App {
	return &cli.App{
		Name:    "inboxwatch",
		Usage:   "Live, presence-ranked view of your chat inbox",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "Inbox API base `URL`",
				Value:   "http://localhost:8080",
				EnvVars: []string{"INBOXRANK_SERVER"},
			},
			&cli.StringFlag{
				Name:     "token",
				Usage:    "Session `TOKEN`",
				EnvVars:  []string{"INBOXRANK_TOKEN"},
				Required: true,
			},
			&cli.StringFlag{
				Name:     "user",
				Aliases:  []string{"u"},
				Usage:    "Your user `ID`",
				EnvVars:  []string{"INBOXRANK_USER"},
				Required: true,
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "warn",
			},
		},
		Commands: []*cli.Command{
			watchCommand(),
			createGroupCommand(),
			usersCommand(),
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
