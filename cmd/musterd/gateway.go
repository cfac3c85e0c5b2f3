package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
)

// consoleGateway writes outbound messages to a local stream. It stands in
// for a chat transport: deployments wrap their messaging bridge in the same
// interface and swap it in here.
type consoleGateway struct {
	out         io.Writer
	groupChatID string
	logger      *slog.Logger
}

func newConsoleGateway(out io.Writer, groupChatID string, logger *slog.Logger) *consoleGateway {
	return &consoleGateway{out: out, groupChatID: groupChatID, logger: logger}
}

// SendGroupMessage writes the message to the stream and mints an identifier
// so reactions can be correlated the way a chat transport would.
func (g *consoleGateway) SendGroupMessage(ctx context.Context, text string) (string, error) {
	messageID := uuid.NewString()
	if _, err := fmt.Fprintf(g.out, "[group %s] (%s)\n%s\n\n", g.groupChatID, messageID, text); err != nil {
		return "", fmt.Errorf("failed to write group message: %w", err)
	}
	g.logger.Debug("group message sent", "message_id", messageID)
	return messageID, nil
}

// SendDirectMessage writes the message to the stream addressed to the member.
func (g *consoleGateway) SendDirectMessage(ctx context.Context, memberID, text string) error {
	if _, err := fmt.Fprintf(g.out, "[dm %s]\n%s\n\n", memberID, text); err != nil {
		return fmt.Errorf("failed to write direct message: %w", err)
	}
	return nil
}
