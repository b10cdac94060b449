package generator

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandClient runs a local model command for offline development. The
// system prompt is passed as an argument and the user prompt on stdin; the
// reply is read from stdout.
type CommandClient struct {
	path string
}

func NewCommandClient(path string) *CommandClient {
	return &CommandClient{path: path}
}

func (c *CommandClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	cmd := exec.CommandContext(ctx, c.path, "--system-prompt", systemPrompt)
	cmd.Stdin = strings.NewReader(userPrompt)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("model command error: %w\nstderr: %s", err, stderr.String())
	}

	responseText := strings.TrimSpace(stdout.String())
	if responseText == "" {
		return nil, ErrEmptyResponse
	}

	return &LLMResponse{Content: responseText}, nil
}
