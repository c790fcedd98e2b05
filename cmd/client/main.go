package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

type Config struct {
	ServerAddr string `envconfig:"PAIRCHAT_ADDR" default:"localhost:3000"`
	Username   string `envconfig:"PAIRCHAT_USER" required:"true"`
	Password   string `envconfig:"PAIRCHAT_PASSWORD" required:"true"`
}

type userPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	LastSeen int64  `json:"lastSeen"`
	Online   bool   `json:"online"`
}

type loginResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Token   string      `json:"token"`
	User    userPayload `json:"user"`
}

type peersResponse struct {
	Success bool          `json:"success"`
	Error   string        `json:"error"`
	Users   []userPayload `json:"users"`
}

type conversationResponse struct {
	Success      bool `json:"success"`
	Conversation struct {
		ID string `json:"id"`
	} `json:"conversation"`
	Error string `json:"error"`
}

type messagePayload struct {
	FromUsername string `json:"fromUsername"`
	Body         string `json:"body"`
	CreatedAt    int64  `json:"createdAt"`
}

type historyResponse struct {
	Success  bool             `json:"success"`
	Error    string           `json:"error"`
	Messages []messagePayload `json:"messages"`
}

type wireEnvelope struct {
	Type           string `json:"type"`
	Token          string `json:"token,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
	ToUserID       string `json:"toUserId,omitempty"`
	Body           string `json:"body,omitempty"`
	UserID         string `json:"userId,omitempty"`
	Online         bool   `json:"online,omitempty"`
	FromUsername   string `json:"fromUsername,omitempty"`
	CreatedAt      int64  `json:"createdAt,omitempty"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run drives one interactive session: login, pick a peer, open the realtime
// connection and relay stdin lines until Ctrl+C.
func run() (int, error) {
	// 1. Load configuration from environment variables.
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	base := "http://" + cfg.ServerAddr

	// 2. Login and fetch the peer list.
	login, err := doLogin(ctx, base, cfg.Username, cfg.Password)
	if err != nil {
		return exitRuntime, err
	}
	color.Green.Printf("Logged in as %s\n", login.User.Username)

	peers, err := fetchPeers(ctx, base, login.Token)
	if err != nil {
		return exitRuntime, err
	}
	if len(peers) == 0 {
		color.Yellow.Println("Nobody else is registered yet, try again later")
		return exitOK, nil
	}
	printPeers(peers)

	// 3. Pick the peer to chat with.
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Chat with #: ")
	line, err := reader.ReadString('\n')
	if err != nil {
		return exitRuntime, err
	}
	idx, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || idx < 1 || idx > len(peers) {
		return exitConfig, fmt.Errorf("invalid peer number %q", strings.TrimSpace(line))
	}
	peer := peers[idx-1]

	// 4. Resolve the conversation and print its history.
	conversationID, err := resolveConversation(ctx, base, login.Token, peer.ID)
	if err != nil {
		return exitRuntime, err
	}
	history, err := fetchHistory(ctx, base, login.Token, conversationID)
	if err != nil {
		return exitRuntime, err
	}
	for _, m := range history {
		printMessage(m.FromUsername, m.Body, m.CreatedAt, m.FromUsername == login.User.Username)
	}

	// 5. Open the realtime connection and authenticate in-band.
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, "ws://"+cfg.ServerAddr+"/ws", nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to server at %s: %w", cfg.ServerAddr, err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(wireEnvelope{Type: "connect", Token: login.Token}); err != nil {
		return exitRuntime, fmt.Errorf("handshake failed: %w", err)
	}

	// 6. Reception loop in the background.
	go func() {
		defer stop()
		for {
			var env wireEnvelope
			if err := conn.ReadJSON(&env); err != nil {
				return
			}
			switch env.Type {
			case "connected":
				color.Cyan.Println(">>> Connected! (Ctrl+C to quit)")
			case "user_status":
				if env.UserID == peer.ID {
					state := "offline"
					if env.Online {
						state = "online"
					}
					color.Yellow.Printf("*** %s is now %s\n", peer.Username, state)
				}
			case "message":
				printMessage(env.FromUsername, env.Body, env.CreatedAt,
					env.FromUsername == login.User.Username)
			case "send_failed":
				color.Red.Println("!!! message was not delivered, try again")
			}
		}
	}()

	// 7. Send loop: one stdin line per message.
	lines := make(chan string)
	go func() {
		defer close(lines)
		for {
			text, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			if t := strings.TrimSpace(text); t != "" {
				lines <- t
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nBye.")
			return exitOK, nil
		case text, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			err := conn.WriteJSON(wireEnvelope{
				Type:           "message",
				ConversationID: conversationID,
				ToUserID:       peer.ID,
				Body:           text,
			})
			if err != nil {
				return exitRuntime, fmt.Errorf("send failed: %w", err)
			}
		}
	}
}

func doLogin(ctx context.Context, base, username, password string) (loginResponse, error) {
	var out loginResponse
	body := map[string]string{"username": username, "password": password}
	if err := postJSON(ctx, base+"/api/auth/login", "", body, &out); err != nil {
		return out, err
	}
	if !out.Success {
		return out, fmt.Errorf("login rejected: %s", out.Error)
	}
	return out, nil
}

func fetchPeers(ctx context.Context, base, token string) ([]userPayload, error) {
	var out peersResponse
	if err := getJSON(ctx, base+"/api/users", token, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, fmt.Errorf("peer listing rejected: %s", out.Error)
	}
	return out.Users, nil
}

func resolveConversation(ctx context.Context, base, token, peerID string) (string, error) {
	var out conversationResponse
	if err := getJSON(ctx, base+"/api/conversations?userId="+peerID, token, &out); err != nil {
		return "", err
	}
	if !out.Success {
		return "", fmt.Errorf("conversation lookup rejected: %s", out.Error)
	}
	return out.Conversation.ID, nil
}

func fetchHistory(ctx context.Context, base, token, conversationID string) ([]messagePayload, error) {
	var out historyResponse
	if err := getJSON(ctx, base+"/api/messages?conversationId="+conversationID, token, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, fmt.Errorf("history rejected: %s", out.Error)
	}
	return out.Messages, nil
}

func printPeers(peers []userPayload) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"#", "Username", "Email", "Status", "Last seen"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for i, p := range peers {
		status := color.Gray.Render("offline")
		if p.Online {
			status = color.Green.Render("online")
		}
		table.Append([]string{
			strconv.Itoa(i + 1),
			p.Username,
			p.Email,
			status,
			time.Unix(p.LastSeen, 0).Format(time.DateTime),
		})
	}
	table.Render()
}

func printMessage(author, body string, createdAt int64, own bool) {
	stamp := time.Unix(createdAt, 0).Format(time.TimeOnly)
	name := color.Magenta.Render(author)
	if own {
		name = color.Blue.Render(author)
	}
	fmt.Printf("[%s] %s: %s\n", stamp, name, body)
}

func postJSON(ctx context.Context, url, token string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return send(req, token, out)
}

func getJSON(ctx context.Context, url, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	return send(req, token, out)
}

func send(req *http.Request, token string, out any) error {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(out)
}
