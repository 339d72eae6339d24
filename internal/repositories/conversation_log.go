package repositories

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/astralisone/voice-agent-be/internal/models"
	"github.com/google/uuid"
)

// ConversationLog appends customer exchanges per client. One JSONL file
// per client under the log directory.
type ConversationLog interface {
	LogConversation(clientID, message, response string) error
}

type conversationLog struct {
	dir string
	mu  sync.Mutex
}

func NewConversationLog(dir string) (ConversationLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create conversations dir %s: %w", dir, err)
	}
	return &conversationLog{dir: dir}, nil
}

func (l *conversationLog) LogConversation(clientID, message, response string) error {
	entry := models.Conversation{
		ID:        uuid.NewString(),
		ClientID:  clientID,
		Message:   message,
		Response:  response,
		CreatedAt: time.Now().UTC(),
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("serialize conversation: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	path := filepath.Join(l.dir, clientID+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open conversation log %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append conversation log %s: %w", path, err)
	}
	return nil
}
