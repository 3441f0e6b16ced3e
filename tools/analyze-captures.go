//go:build ignore

// Analyze-captures summarizes a sandbox capture file.
//
// Usage: go run tools/analyze-captures.go <capture-*.jsonl>
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/muurk/checkout/internal/protocol"
	"github.com/muurk/checkout/internal/sandbox"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: analyze-captures <jsonl-file>")
		fmt.Println("Example: analyze-captures ./captures/capture-20260101-120000.jsonl")
		os.Exit(1)
	}

	filename := os.Args[1]
	f, err := os.Open(filename)
	if err != nil {
		fmt.Printf("Error reading file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	var frames []sandbox.CapturedFrame
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*protocol.MaxMessageSize)
	for line := 1; scanner.Scan(); line++ {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var frame sandbox.CapturedFrame
		if err := json.Unmarshal(scanner.Bytes(), &frame); err != nil {
			fmt.Printf("Error parsing line %d: %v\n", line, err)
			continue
		}
		frames = append(frames, frame)
	}
	if err := scanner.Err(); err != nil {
		fmt.Printf("Error reading file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("=== Sandbox Capture Analyzer ===\n")
	fmt.Printf("File: %s\n", filename)
	fmt.Printf("Frames: %d\n\n", len(frames))

	printTimeline(frames)
	printMethodCounts(frames)
	printLatencies(frames)
}

func printTimeline(frames []sandbox.CapturedFrame) {
	fmt.Println("Timeline:")
	fmt.Println("  #     Offset     Direction         Type      Method / detail")
	fmt.Println("  ----  ---------  ----------------  --------  ------------------------------")

	var start time.Time
	for _, fr := range frames {
		if start.IsZero() {
			start = fr.Timestamp
		}
		fmt.Printf("  %-4d  %9s  %-16s  %-8s  %s\n",
			fr.MessageNum,
			fr.Timestamp.Sub(start).Round(time.Millisecond),
			fr.Direction,
			fr.Type,
			detail(fr),
		)
	}
	fmt.Println()
}

// detail returns the method plus the interesting part of the envelope
func detail(fr sandbox.CapturedFrame) string {
	if len(fr.Envelope) == 0 {
		return "(undecodable) " + fr.Raw
	}
	var env protocol.Envelope
	if err := json.Unmarshal(fr.Envelope, &env); err != nil {
		return "(undecodable) " + fr.Raw
	}

	out := env.Method
	if env.Error != nil {
		out += fmt.Sprintf(" error %s: %s", env.Error.Code, env.Error.Message)
	} else if env.Type == protocol.TypeEvent && len(env.Params) > 0 {
		out += " " + string(env.Params)
	}
	return out
}

func printMethodCounts(frames []sandbox.CapturedFrame) {
	counts := make(map[string]int)
	for _, fr := range frames {
		if fr.Method == "" {
			continue
		}
		counts[fr.Type+" "+fr.Method]++
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Println("Counts:")
	for _, k := range keys {
		fmt.Printf("  %-45s %d\n", k, counts[k])
	}
	fmt.Println()
}

// printLatencies pairs requests with responses by id
func printLatencies(frames []sandbox.CapturedFrame) {
	type pending struct {
		method string
		at     time.Time
	}
	requests := make(map[string]pending)

	fmt.Println("Request latency:")
	for _, fr := range frames {
		switch protocol.MessageType(fr.Type) {
		case protocol.TypeRequest:
			if fr.ID != "" {
				requests[fr.ID] = pending{method: fr.Method, at: fr.Timestamp}
			}
		case protocol.TypeResponse:
			req, ok := requests[fr.ID]
			if !ok {
				continue
			}
			delete(requests, fr.ID)
			fmt.Printf("  %-32s %s\n", req.method, fr.Timestamp.Sub(req.at).Round(time.Microsecond))
		}
	}

	for id, req := range requests {
		fmt.Printf("  %-32s no response (id %s)\n", req.method, id)
	}
}
