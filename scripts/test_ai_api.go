//go:build ignore

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

// Usage: TUTOR_TOKEN=<jwt> go run scripts/test_ai_api.go
// The token must carry a user_id claim signed with the server's JWT_SECRET.

func baseURL() string {
	if v := os.Getenv("TUTOR_API_URL"); v != "" {
		return v
	}
	return "http://localhost:3000/api/tutor/v1"
}

func prettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(b))
}

func sendRequest(method, path, token string, body interface{}) (*http.Response, map[string]interface{}, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL()+path, bodyReader)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	// model calls can take a while on a cold local backend
	client := &http.Client{Timeout: 3 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, nil, err
	}
	var decoded map[string]interface{}
	_ = json.Unmarshal(raw, &decoded)
	return resp, decoded, nil
}

func must(resp *http.Response, err error) {
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	if resp.StatusCode >= 400 {
		color.Red("Status: %s", resp.Status)
		return
	}
	color.Green("Status: %s", resp.Status)
}

func printAnswer(body map[string]interface{}) {
	data, ok := body["data"].(map[string]interface{})
	if !ok {
		prettyPrint(body)
		return
	}
	fmt.Printf("Tier: %v  Cached: %v  Confidence: %v  Cost: %v\n",
		data["model_tier"], data["cached"], data["confidence"], data["estimated_cost"])
	fmt.Printf("Reply: %s\n", data["text"])
	if sources, ok := data["sources"].([]interface{}); ok {
		fmt.Printf("Sources: %d\n", len(sources))
	}
	if follow, ok := data["follow_up_suggestions"].([]interface{}); ok {
		for _, f := range follow {
			fmt.Printf("  -> %v\n", f)
		}
	}
}

func main() {
	token := os.Getenv("TUTOR_TOKEN")
	if token == "" {
		color.Red("TUTOR_TOKEN is not set")
		os.Exit(1)
	}
	sessionID := "smoke-" + uuid.NewString()
	color.Cyan("Starting tutor API smoke test (session %s)\n", sessionID)

	ask := map[string]interface{}{
		"user_id":    "ignored-by-server",
		"session_id": sessionID,
		"query":      "Can you explain how recursion works?",
		"mode":       "tutor",
		"language":   "en",
	}

	color.Yellow("\n1. Ask in tutor mode")
	resp, body, err := sendRequest("POST", "/ask", token, ask)
	must(resp, err)
	printAnswer(body)

	color.Yellow("\n2. Repeat the same question (expect a cache hit)")
	ask["query"] = "  can you explain how RECURSION works? "
	resp, body, err = sendRequest("POST", "/ask", token, ask)
	must(resp, err)
	printAnswer(body)

	color.Yellow("\n3. Switch to interviewer mode")
	resp, body, err = sendRequest("POST", "/mode", token, map[string]interface{}{
		"user_id":    "ignored-by-server",
		"session_id": sessionID,
		"mode":       "interviewer",
		"reason":     "smoke test",
	})
	must(resp, err)
	prettyPrint(body["data"])

	color.Yellow("\n4. Ask in interviewer mode")
	ask["mode"] = "interviewer"
	ask["query"] = "Give me a system design question about caching."
	resp, body, err = sendRequest("POST", "/ask", token, ask)
	must(resp, err)
	printAnswer(body)

	color.Yellow("\n5. Read the session")
	resp, body, err = sendRequest("GET", "/sessions/"+sessionID, token, nil)
	must(resp, err)
	if data, ok := body["data"].(map[string]interface{}); ok {
		history, _ := data["history"].([]interface{})
		fmt.Printf("Mode: %v  Turns: %d\n", data["mode"], len(history))
	} else {
		prettyPrint(body)
	}

	color.Yellow("\n6. List mode transitions")
	resp, body, err = sendRequest("GET", "/transitions", token, nil)
	must(resp, err)
	prettyPrint(body["data"])

	color.Yellow("\n7. Unknown session (expect 404)")
	resp, body, err = sendRequest("GET", "/sessions/does-not-exist", token, nil)
	if err != nil {
		color.Red("Failed: %v", err)
	} else {
		color.Green("Status: %s", resp.Status)
		prettyPrint(body)
	}

	color.Cyan("\nSmoke test complete")
}
