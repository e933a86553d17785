package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"inboxrank/server/internal/apiclient"
	"inboxrank/server/internal/inbox"
	"inboxrank/server/internal/logging"
	"inboxrank/server/internal/models"
	"inboxrank/server/internal/presence"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func setup(c *cli.Context) *apiclient.Client {
	logging.Setup(c.String("log-level"), true)
	return apiclient.New(c.String("server"), c.String("token"))
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Print the ranked inbox every time presence or conversations change",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "refresh",
				Usage: "How often to refetch conversations",
				Value: 30 * time.Second,
			},
		},
		Action: func(c *cli.Context) error {
			api := setup(c)
			userID := c.String("user")

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := c.App.Writer
			ib := inbox.New(userID, func(entries []models.InboxEntry) {
				printInbox(out, entries)
			})
			tracker := presence.NewTracker(userID, ib.SetOnline)

			if err := refresh(ctx, api, ib); err != nil {
				return err
			}
			go refreshLoop(ctx, api, ib, c.Duration("refresh"))

			wsURL, err := api.PresenceURL()
			if err != nil {
				return err
			}
			sock, err := presence.Dial(ctx, wsURL, c.String("token"))
			if err != nil {
				return fmt.Errorf("connect to presence: %w", err)
			}
			defer sock.Close()

			err = tracker.Watch(ctx, sock)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func refresh(ctx context.Context, api *apiclient.Client, ib *inbox.Inbox) error {
	conversations, err := api.ListConversations(ctx)
	if err != nil {
		return fmt.Errorf("fetch conversations: %w", err)
	}
	ib.SetConversations(conversations)
	return nil
}

func refreshLoop(ctx context.Context, api *apiclient.Client, ib *inbox.Inbox, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := refresh(ctx, api, ib); err != nil {
				log.Warn().Err(err).Msg("Conversation refresh failed")
			}
		}
	}
}

func printInbox(out io.Writer, entries []models.InboxEntry) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "\n%s\n", time.Now().Format(time.Kitchen))
	for _, e := range entries {
		dot := " "
		if e.Live {
			dot = "●"
		}
		unseen := ""
		if e.UnseenCount > 0 {
			unseen = fmt.Sprintf("(%d)", e.UnseenCount)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", dot, e.Title, e.Preview, unseen, e.Href)
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "No conversations")
	}
	w.Flush()
}

func createGroupCommand() *cli.Command {
	return &cli.Command{
		Name:  "create-group",
		Usage: "Create a group conversation",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "member",
				Aliases: []string{"m"},
				Usage:   "User `ID` to add; repeat to toggle",
			},
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "Group name (max 25 characters)",
			},
		},
		Action: func(c *cli.Context) error {
			api := setup(c)

			var draft inbox.GroupDraft
			for _, id := range c.StringSlice("member") {
				draft.Toggle(id)
			}
			draft.SetName(c.String("name"))

			redirect, err := draft.Submit(c.Context, inbox.NewBuilder(api), c.String("user"))
			if err != nil {
				return err
			}

			if redirect.Existing {
				fmt.Fprintf(c.App.Writer, "Conversation already exists: %s\n", redirect.Path())
				return nil
			}
			fmt.Fprintf(c.App.Writer, "Created: %s\n", redirect.Path())
			return nil
		},
	}
}

func usersCommand() *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "List users you can add to a group",
		Action: func(c *cli.Context) error {
			api := setup(c)

			users, err := api.SuggestedUsers(c.Context)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
			for _, u := range users {
				status := "offline"
				if u.IsOnline {
					status = "online"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", u.ID, u.Name, status)
			}
			return w.Flush()
		},
	}
}
