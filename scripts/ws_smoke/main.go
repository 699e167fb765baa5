// Smoke test client: logs into a channel, submits one event, logs out,
// and prints what the server answered. Exits non-zero on any failure.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/owlchat/owlchat-server/internal/client"
	"github.com/owlchat/owlchat-server/internal/core"
	"github.com/owlchat/owlchat-server/internal/utils"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	name := flag.String("name", "tester", "display name")
	channel := flag.String("channel", "lobby", "channel name")
	text := flag.String("text", "hello from smoke test", "event text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	c, err := client.Dial(ctx, *addr, client.Handlers{})
	if err != nil {
		return err
	}
	defer c.Close()

	suggested, err := c.SuggestName(ctx)
	if err != nil {
		return fmt.Errorf("suggest name: %w", err)
	}
	fmt.Printf("Suggested channel name: %s\n", suggested)

	user := core.User{Name: *name, SessionID: utils.NewID()}

	proj, err := c.Login(ctx, *channel, user)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	fmt.Printf("Logged into %s (users: %s, events: %d)\n",
		proj.Name, strings.Join(proj.Users, ", "), len(proj.Events))

	ev, err := c.SendEvent(ctx, *channel, user, map[string]any{"text": *text})
	if err != nil {
		return fmt.Errorf("send event: %w", err)
	}
	fmt.Printf("Event accepted: id=%s time=%d\n", ev.ID, ev.Time)

	proj, err = c.Logout(ctx, *channel, user)
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if proj == nil {
		fmt.Println("Logged out; channel removed")
	} else {
		fmt.Printf("Logged out; remaining users: %s\n", strings.Join(proj.Users, ", "))
	}

	return nil
}
