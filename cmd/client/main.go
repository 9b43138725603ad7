// Terminal client for the relay: dials the gateway, registers as a
// user, and renders the live event stream. Handy for watching fan-out
// behavior without a browser.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/coder/websocket"
	"github.com/gookit/color"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
)

type Config struct {
	ServerURL string `envconfig:"RELAY_URL" default:"ws://localhost:8080/ws"`
	UserID    string `envconfig:"RELAY_USER_ID" required:"true"`
	// RELAY_COLOURS enables colorized output for better readability
	Colours bool `envconfig:"RELAY_COLOURS" default:"true"`
}

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type message struct {
	ID        string `json:"id"`
	SenderID  string `json:"senderId"`
	Text      string `json:"text"`
	ImageRef  string `json:"imageRef"`
	Forwarded bool   `json:"forwarded"`
}

type peerSignal struct {
	From string `json:"from"`
}

func main() {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Config error: %v", err)
	}
	color.Enable = cfg.Colours

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	url := fmt.Sprintf("%s?userId=%s", cfg.ServerURL, cfg.UserID)
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		log.Fatalf("Failed to dial %s: %v", url, err)
	}
	defer conn.CloseNow()

	fmt.Println(color.New(color.FgGreen).Render("Connected as " + cfg.UserID))

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			fmt.Println(color.New(color.FgRed).Render("Connection closed"))
			return
		}

		var frame envelope
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}
		render(frame)
	}
}

func render(frame envelope) {
	switch frame.Event {
	case "getOnlineUsers":
		var userIDs []string
		if err := json.Unmarshal(frame.Data, &userIDs); err != nil {
			return
		}
		renderOnlineUsers(userIDs)
	case "newMessage":
		var msg message
		if err := json.Unmarshal(frame.Data, &msg); err != nil {
			return
		}
		body := msg.Text
		if body == "" {
			body = "[image] " + msg.ImageRef
		}
		prefix := msg.SenderID
		if msg.Forwarded {
			prefix += " (forwarded)"
		}
		fmt.Printf("%s %s\n", color.New(color.FgCyan).Render(prefix+":"), body)
	case "messageDeleted":
		var payload struct {
			MessageID string `json:"messageId"`
		}
		if err := json.Unmarshal(frame.Data, &payload); err != nil {
			return
		}
		fmt.Println(color.New(color.FgYellow).Render("message deleted: " + payload.MessageID))
	case "typing":
		var signal peerSignal
		if err := json.Unmarshal(frame.Data, &signal); err != nil {
			return
		}
		fmt.Println(color.New(color.FgDarkGray).Render(signal.From + " is typing..."))
	case "stopTyping":
		var signal peerSignal
		if err := json.Unmarshal(frame.Data, &signal); err != nil {
			return
		}
		fmt.Println(color.New(color.FgDarkGray).Render(signal.From + " stopped typing"))
	}
}

func renderOnlineUsers(userIDs []string) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Online users"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	for _, id := range userIDs {
		table.Append([]string{id})
	}
	table.Render()
}
