// Interactive terminal client: logs into a channel, prints incoming
// events and membership changes, and sends each stdin line as an event.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/owlchat/owlchat-server/internal/client"
	"github.com/owlchat/owlchat-server/internal/core"
	"github.com/owlchat/owlchat-server/internal/proto"
	"github.com/owlchat/owlchat-server/internal/utils"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	name := flag.String("name", "cli-user", "display name")
	channel := flag.String("channel", "lobby", "channel to join")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	user := core.User{Name: *name, SessionID: utils.NewID()}

	c, err := client.Dial(ctx, *addr, client.Handlers{
		OnConnectError: func(err error) {
			log.Printf("connection error: %v", err)
			stop()
		},
		OnChannelEvent: func(ev *core.Event) {
			fmt.Printf("[%s] %s: %v\n", ev.Channel, ev.User, ev.Data)
		},
		OnChannelLogin: func(resp proto.LoginResponse) {
			if resp.Channel != nil {
				fmt.Printf("[%s] users: %s\n", resp.Channel.Name, strings.Join(resp.Channel.Users, ", "))
			}
		},
		OnChannelLogout: func(resp proto.LogoutResponse) {
			if resp.Channel != nil {
				fmt.Printf("[%s] users: %s\n", resp.Channel.Name, strings.Join(resp.Channel.Users, ", "))
			}
		},
	})
	if err != nil {
		return err
	}
	defer c.Close()

	proj, err := c.Login(ctx, *channel, user)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	fmt.Printf("Connected to %s as %s in channel %s (users: %s)\n",
		*addr, user.Name, proj.Name, strings.Join(proj.Users, ", "))
	fmt.Println("Type messages and press Enter to send. Ctrl+C to exit.")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			// The signal context is gone; give the logout its own.
			logoutCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_, _ = c.Logout(logoutCtx, *channel, user)
			return nil
		case line, ok := <-lines:
			if !ok {
				_, _ = c.Logout(ctx, *channel, user)
				return nil
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			if _, err := c.SendEvent(ctx, *channel, user, map[string]any{"text": text}); err != nil {
				log.Printf("send error: %v", err)
				return nil
			}
		}
	}
}
