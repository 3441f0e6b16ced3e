package sandbox

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/checkout/internal/logging"
	"github.com/muurk/checkout/internal/protocol"
)

// Frame directions recorded in captures.
const (
	DirectionInbound  = "client->sandbox"
	DirectionOutbound = "sandbox->client"
)

// CapturedFrame is one line of a capture file
type CapturedFrame struct {
	Timestamp  time.Time       `json:"timestamp"`
	MessageNum int             `json:"message_num"`
	RemoteAddr string          `json:"remote_addr"`
	Direction  string          `json:"direction"`
	Type       string          `json:"type,omitempty"`
	Method     string          `json:"method,omitempty"`
	ID         string          `json:"id,omitempty"`
	PayloadLen int             `json:"payload_length"`
	Envelope   json.RawMessage `json:"envelope,omitempty"`
	Raw        string          `json:"raw,omitempty"`
}

// Capture appends frames to a JSON Lines file. A nil Capture discards everything.
type Capture struct {
	mu   sync.Mutex
	path string
}

// NewCapture creates a capture writing to a timestamped file in dir.
// It returns nil when dir is empty.
func NewCapture(dir string) (*Capture, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create capture directory: %w", err)
	}
	name := fmt.Sprintf("capture-%s.jsonl", time.Now().Format("20060102-150405"))
	return &Capture{path: filepath.Join(dir, name)}, nil
}

// Path returns the capture file path
func (c *Capture) Path() string {
	if c == nil {
		return ""
	}
	return c.path
}

// Save records one frame. Failures are logged, never returned.
func (c *Capture) Save(remoteAddr string, messageNum int, direction string, data []byte) {
	if c == nil {
		return
	}

	record := CapturedFrame{
		Timestamp:  time.Now(),
		MessageNum: messageNum,
		RemoteAddr: remoteAddr,
		Direction:  direction,
		PayloadLen: len(data),
	}
	if env, err := protocol.Decode(data); err == nil {
		record.Type = string(env.Type)
		record.Method = env.Method
		record.ID = env.ID
		record.Envelope = json.RawMessage(data)
	} else {
		record.Raw = string(data)
	}

	line, err := json.Marshal(record)
	if err != nil {
		logging.Error("Failed to marshal captured frame", zap.Error(err))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Append to JSONL file (JSON Lines format - one JSON object per line)
	f, err := os.OpenFile(c.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		logging.Error("Failed to open capture file",
			zap.String("filename", c.path),
			zap.Error(err),
		)
		return
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(append(line, '\n')); err != nil {
		logging.Error("Failed to write to capture file",
			zap.String("filename", c.path),
			zap.Error(err),
		)
		return
	}

	logging.Debug("Saved frame to capture file",
		zap.String("filename", c.path),
		zap.Int("message_num", messageNum),
	)
}
