package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"convi-text-pipeline/internal/models"
	"convi-text-pipeline/internal/service/session"
)

const sampleTranscript = `Agent: Good morning, thank you for calling XYZ Bank.
Customer: Hi, I lost my debit card in Mumbai yesterday.
Agent: I'm sorry to hear that. May I have your name?
Customer: Rahul Menon.
Agent: Thank you, Mr. Rahul Menon. I will block the card right away.`

func main() {
	server := flag.String("server", "http://localhost:8080", "HTTP API base URL")
	file := flag.String("file", "", "Path to a transcript file (uses a built-in sample when empty)")
	sessionId := flag.String("session", "", "Session ID (generated by the server when empty)")
	xlsxPath := flag.String("xlsx", "", "Also download the XLSX export to this path")
	flag.Parse()

	transcript := sampleTranscript
	if *file != "" {
		b, err := os.ReadFile(*file)
		if err != nil {
			log.Fatalf("failed to read transcript: %v", err)
		}
		transcript = string(b)
	}

	body, err := json.Marshal(session.Request{SessionID: *sessionId, Transcript: transcript})
	if err != nil {
		log.Fatalf("failed to encode request: %v", err)
	}

	client := &http.Client{Timeout: 60 * time.Second}

	resp, err := client.Post(*server+"/v1/transcripts", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		log.Fatalf("server returned %d: %s", resp.StatusCode, b)
	}

	var out models.TextPipelineOutput
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.Fatalf("failed to decode response: %v", err)
	}

	log.Printf("session=%s dominant=%s speakers=%d turns=%d entities=%d",
		out.SessionID, out.DominantLanguage, out.SpeakerCount, len(out.Turns), len(out.AllEntities))
	for _, pt := range out.Turns {
		fmt.Printf("[%d] %-11s %-8s %s (%.2f) %s\n",
			pt.TurnIndex, pt.SpeakerID, pt.Role, pt.Language, pt.LanguageConfidence, pt.CleanedText)
		for _, e := range pt.Entities {
			fmt.Printf("      %s %q [%d:%d]\n", e.Label, e.Text, e.StartChar, e.EndChar)
		}
	}

	if *xlsxPath == "" {
		return
	}

	// reuse the server-assigned session so both calls share an id
	body, _ = json.Marshal(session.Request{SessionID: out.SessionID, Transcript: transcript})
	resp2, err := client.Post(*server+"/v1/transcripts/export", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("export request failed: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp2.Body)
		log.Fatalf("export returned %d: %s", resp2.StatusCode, b)
	}

	f, err := os.Create(*xlsxPath)
	if err != nil {
		log.Fatalf("failed to create %s: %v", *xlsxPath, err)
	}
	defer f.Close()
	n, err := io.Copy(f, resp2.Body)
	if err != nil {
		log.Fatalf("failed to save export: %v", err)
	}
	log.Printf("Saved %s (%d bytes)", *xlsxPath, n)
}
