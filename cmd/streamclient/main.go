package main

import (
	"flag"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"

	httpapi "convi-text-pipeline/internal/http"
	"convi-text-pipeline/internal/service/session"
)

func main() {
	file := flag.String("file", "", "Path to a transcript file")
	serverAddr := flag.String("server", "localhost:8080", "HTTP API host:port")
	sessionId := flag.String("session", "test-stream-"+time.Now().Format("150405"), "Session ID")
	flag.Parse()

	if *file == "" {
		log.Fatal("-file is required")
	}
	b, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("Failed to read transcript: %v", err)
	}

	u := url.URL{Scheme: "ws", Host: *serverAddr, Path: "/v1/transcripts/stream"}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	log.Printf("Connected to %s", u.String())

	if err := conn.WriteJSON(session.Request{SessionID: *sessionId, Transcript: string(b)}); err != nil {
		log.Fatalf("Failed to send transcript: %v", err)
	}

	start := time.Now()
	var turns int
	for {
		var msg httpapi.StreamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			log.Fatalf("Stream closed unexpectedly: %v", err)
		}

		switch msg.Type {
		case "turn":
			turns++
			pt := msg.Turn
			log.Printf("turn %d %s (%s, %s): %s", pt.TurnIndex, pt.SpeakerID, pt.Role, pt.Language, pt.CleanedText)
		case "error":
			log.Fatalf("Pipeline failed (%d): %s", msg.Status, msg.Error)
		case "output":
			out := msg.Output
			log.Printf("Stream completed: session=%s turns=%d speakers=%d entities=%d dominant=%s in %v",
				out.SessionID, turns, out.SpeakerCount, len(out.AllEntities), out.DominantLanguage, time.Since(start))
			return
		}
	}
}
