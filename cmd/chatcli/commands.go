package main

import (
	"bufio"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func sessionsCmd(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List your chat sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			var out struct {
				Sessions       []session `json:"sessions"`
				TotalSessions  int64     `json:"total_sessions"`
				ActiveSessions int64     `json:"active_sessions"`
			}
			if err := newAPIClient(opts).do(http.MethodGet, "/chat/v1/sessions", nil, &out); err != nil {
				return err
			}
			for _, s := range out.Sessions {
				printSession(s)
			}
			color.Cyan("%d sessions, %d active", out.TotalSessions, out.ActiveSessions)
			return nil
		},
	}
}

func newSessionCmd(opts *clientOptions) *cobra.Command {
	var mode, title string
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Open a new chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]interface{}{"mode": mode}
			if title != "" {
				body["title"] = title
			}
			var out session
			if err := newAPIClient(opts).do(http.MethodPost, "/chat/v1/sessions", body, &out); err != nil {
				return err
			}
			printSession(out)
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "laws_public", "laws_public or laws_internal")
	cmd.Flags().StringVar(&title, "title", "", "optional session title")
	return cmd
}

func closeSessionCmd(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "close SESSION_ID",
		Short: "Close a chat session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out session
			if err := newAPIClient(opts).do(http.MethodPost, "/chat/v1/sessions/"+args[0]+"/close", nil, &out); err != nil {
				return err
			}
			printSession(out)
			return nil
		},
	}
}

func historyCmd(opts *clientOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history SESSION_ID",
		Short: "Print the full message history of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(opts)
			cursor := ""
			for {
				var page struct {
					Messages   []message `json:"messages"`
					NextCursor *string   `json:"next_cursor"`
					HasMore    bool      `json:"has_more"`
				}
				path := fmt.Sprintf("/chat/v1/sessions/%s/messages?limit=%d", args[0], limit)
				if cursor != "" {
					path += "&cursor=" + url.QueryEscape(cursor)
				}
				if err := client.do(http.MethodGet, path, nil, &page); err != nil {
					return err
				}
				for _, m := range page.Messages {
					printMessage(m)
				}
				if !page.HasMore || page.NextCursor == nil {
					return nil
				}
				cursor = *page.NextCursor
			}
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "page size")
	return cmd
}

type streamFrame struct {
	Type      string                 `json:"type"`
	Content   string                 `json:"content"`
	MessageId *string                `json:"message_id"`
	Metadata  map[string]interface{} `json:"metadata"`
	Event     string                 `json:"event"`
}

func chatCmd(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat SESSION_ID",
		Short: "Chat interactively, streaming answers as they are generated",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid session id: %w", err)
			}

			wsURL, err := newAPIClient(opts).wsURL()
			if err != nil {
				return err
			}
			conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			defer conn.Close()

			done := make(chan struct{}, 1)
			go readFrames(conn, done)

			color.Cyan("Connected. Type a question, or /quit to leave.")
			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("> ")
				if !scanner.Scan() {
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if line == "/quit" {
					return nil
				}

				if err := conn.WriteJSON(map[string]interface{}{
					"type":       "message",
					"session_id": sessionID.String(),
					"content":    line,
					"request_id": uuid.NewString(),
				}); err != nil {
					return err
				}
				<-done
			}
		},
	}
}

// readFrames prints frames and signals done after each terminal event.
func readFrames(conn *websocket.Conn, done chan<- struct{}) {
	for {
		var frame streamFrame
		if err := conn.ReadJSON(&frame); err != nil {
			color.Red("\nconnection closed: %v", err)
			os.Exit(1)
		}
		switch frame.Type {
		case "token":
			fmt.Print(frame.Content)
		case "complete":
			color.HiBlack("\n[tokens: %v]", frame.Metadata["tokens"])
			done <- struct{}{}
		case "error":
			color.Red("\n[%v] %s", frame.Metadata["code"], frame.Content)
			done <- struct{}{}
		case "session_event":
			color.HiBlack("\n[%s]", frame.Event)
		}
	}
}

func printSession(s session) {
	title := "(untitled)"
	if s.Title != nil {
		title = *s.Title
	}
	status := color.GreenString(s.Status)
	if s.Status != "active" {
		status = color.YellowString(s.Status)
	}
	fmt.Printf("%s  %-13s %-6s %3d msgs  %s\n", s.Id, s.Mode, status, s.MessageCount, title)
}

func printMessage(m message) {
	who := color.CyanString(m.Sender)
	if m.Sender == "assistant" {
		who = color.GreenString(m.Sender)
	}
	fmt.Printf("#%d %s %s\n%s\n\n", m.Seq, who, m.CreatedAt.Local().Format("2006-01-02 15:04"), m.Content)
}
