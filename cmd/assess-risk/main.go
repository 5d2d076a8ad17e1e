package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prism-platform/riskengine/internal/riskassess"
)

// assess-risk runs a single assessment from a JSON request on stdin (or a
// file) and prints the record to stdout. Set ANTHROPIC_API_KEY for narrative
// enrichment; without it the tool still produces a fallback assessment.
func main() {
	inPath := flag.String("in", "-", "request JSON file, or - for stdin")
	model := flag.String("model", "", "provider model override")
	timeout := flag.Duration("timeout", riskassess.DefaultProviderTimeout, "provider call timeout")
	noProvider := flag.Bool("no-provider", false, "skip narrative enrichment")
	flag.Parse()

	blob, err := readInput(*inPath)
	if err != nil {
		log.Fatal(err)
	}
	var req riskassess.AssessmentRequest
	if err := json.Unmarshal(blob, &req); err != nil {
		log.Fatalf("invalid request JSON: %v", err)
	}

	var caller riskassess.NarrativeCaller
	if !*noProvider {
		apiKey := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
		if apiKey != "" {
			caller, err = riskassess.NewAnthropicCaller(apiKey, *model, 0)
			if err != nil {
				log.Fatal(err)
			}
		} else {
			fmt.Fprintln(os.Stderr, "ANTHROPIC_API_KEY not set; producing fallback assessment")
		}
	}

	engine := riskassess.NewEngine(caller, riskassess.EngineConfig{ProviderTimeout: *timeout}, nil, nil)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx, timeoutCancel := context.WithTimeout(ctx, *timeout+30*time.Second)
	defer timeoutCancel()

	out, err := engine.Assess(ctx, req)
	if err != nil {
		log.Fatal(err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatal(err)
	}
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
