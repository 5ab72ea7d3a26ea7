package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/matchchat-server/internal/proto"
)

type outbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func main() {
	base := flag.String("base", "http://localhost:3001", "server base URL")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	chatID := createConversation(ctx, *base)
	log.Printf("created conversation %s", chatID)

	wsURL := strings.Replace(*base, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	mustSend := func(typ string, v any) {
		payload, err := json.Marshal(v)
		if err != nil {
			log.Fatalf("marshal %s: %v", typ, err)
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
			log.Fatalf("send %s: %v", typ, err)
		}
	}
	mustRead := func() outbound {
		var out outbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			log.Fatalf("read: %v", err)
		}
		if out.Type == proto.OutboundTypeError {
			log.Fatalf("server error: %+v", out.Error)
		}
		return out
	}

	mustSend(proto.InboundTypeSendMessage, proto.SendMessageData{
		ChatID: chatID, Sender: "smoke-a", Receiver: "smoke-b", Content: *text,
	})
	if out := mustRead(); out.Event != proto.EventReceiveMessage {
		log.Fatalf("expected %s, got %+v", proto.EventReceiveMessage, out)
	}

	mustSend(proto.InboundTypeFetchHistory, proto.FetchHistoryData{ConversationID: chatID})
	out := mustRead()
	if out.Event != proto.EventChatHistory {
		log.Fatalf("expected %s, got %+v", proto.EventChatHistory, out)
	}
	var history []proto.Message
	if err := json.Unmarshal(out.Data, &history); err != nil {
		log.Fatalf("unmarshal history: %v", err)
	}
	if len(history) != 1 || history[0].Content != *text {
		log.Fatalf("unexpected history: %+v", history)
	}

	fmt.Println("smoke test passed")
}

func createConversation(ctx context.Context, base string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/messages", bytes.NewBufferString(`{"chat":[]}`))
	if err != nil {
		log.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("create conversation: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		log.Fatalf("create conversation: status %d", resp.StatusCode)
	}

	var conv struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&conv); err != nil {
		log.Fatalf("decode conversation: %v", err)
	}
	return conv.ID
}
