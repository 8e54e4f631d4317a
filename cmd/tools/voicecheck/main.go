package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// voicecheck pokes a running backend over HTTP: one conversational turn,
// one synthesis, and optionally one transcription from a local audio file.
func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	base := flag.String("base", "http://localhost:5002", "backend base URL")
	text := flag.String("text", "Hello, I have a question about my bill.", "message to converse and synthesize")
	audioPath := flag.String("audio", "", "audio file to transcribe (skipped when empty)")
	session := flag.String("session", "", "custom session_id, auto-generated when empty")
	timeout := flag.Duration("timeout", 45*time.Second, "request timeout")
	flag.Parse()

	sessionID := *session
	if sessionID == "" {
		sessionID = fmt.Sprintf("voicecheck-%d", time.Now().UnixNano())
	}

	client := &http.Client{Timeout: *timeout}
	baseURL := strings.TrimRight(*base, "/")

	if err := runConverse(client, baseURL, sessionID, *text); err != nil {
		log.Fatalf("converse failed: %v", err)
	}
	if err := runSynthesize(client, baseURL, sessionID, *text); err != nil {
		log.Fatalf("synthesize failed: %v", err)
	}
	if *audioPath != "" {
		if err := runTranscribe(client, baseURL, *audioPath); err != nil {
			log.Fatalf("transcribe failed: %v", err)
		}
	}
}

func runConverse(client *http.Client, baseURL, sessionID, text string) error {
	payload, _ := json.Marshal(map[string]string{
		"message":    text,
		"session_id": sessionID,
	})
	resp, err := client.Post(baseURL+"/api/converse", "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}

	var result struct {
		Intent     string  `json:"intent"`
		Confidence float32 `json:"confidence"`
		Response   string  `json:"response"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	log.Printf("converse: intent=%s confidence=%.2f", result.Intent, result.Confidence)
	log.Printf("converse: %s", result.Response)
	return nil
}

func runSynthesize(client *http.Client, baseURL, sessionID, text string) error {
	payload, _ := json.Marshal(map[string]string{
		"text":       text,
		"session_id": sessionID,
	})
	resp, err := client.Post(baseURL+"/api/synthesize", "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Printf("synthesize: unavailable (status %d: %s)", resp.StatusCode, body)
		return nil
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	outPath := fmt.Sprintf("voicecheck-%d.mp3", time.Now().Unix())
	if err := os.WriteFile(outPath, audio, 0o644); err != nil {
		return fmt.Errorf("write audio: %w", err)
	}
	log.Printf("synthesize: %d bytes (%s) -> %s", len(audio), resp.Header.Get("Content-Type"), outPath)
	return nil
}

func runTranscribe(client *http.Client, baseURL, audioPath string) error {
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return fmt.Errorf("read audio file: %w", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("audio", filepath.Base(audioPath))
	if err != nil {
		return err
	}
	if _, err := part.Write(audio); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	resp, err := client.Post(baseURL+"/api/transcribe", writer.FormDataContentType(), body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, raw)
	}

	var result struct {
		Transcript string `json:"transcript"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	log.Printf("transcribe: %q", result.Transcript)
	return nil
}
