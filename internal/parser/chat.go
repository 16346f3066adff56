package parser

import (
	"bufio"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"chatquery/internal/models"
)

// Chat export line format: [D/M/YYYY, H:MM:SS] Sender: Body
var chatLinePattern = regexp.MustCompile(`^\[(\d{1,2}/\d{1,2}/\d{4}),\s*(\d{1,2}:\d{2}:\d{2})\]\s*(.+?):\s*(.+)$`)

const chatTimeLayout = "2/1/2006 15:04:05"

// parseText handles .txt uploads. It first tries the chat export format; when
// not a single line matches, the file is treated as plain paragraphs instead.
func parseText(path string) ([]models.Message, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	msgs := ParseChat(string(content))
	for _, m := range msgs {
		if m.SourceKind == models.SourceChatLine {
			return msgs, nil
		}
	}
	return parsePlainText(string(content)), nil
}

// ParseChat parses a chat export line by line. A line failing the message
// pattern is appended to the previous message's body when one exists, and
// otherwise emitted as a system-sender message. Lines whose timestamp fails
// strict D/M/YYYY H:MM:SS parsing are skipped rather than assigned a
// fabricated "now" timestamp.
func ParseChat(content string) []models.Message {
	var msgs []models.Message
	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		m := chatLinePattern.FindStringSubmatch(line)
		if m == nil {
			if len(msgs) > 0 {
				// Multi-line continuation of the previous message.
				last := &msgs[len(msgs)-1]
				if appended := Clean(last.Text + " " + line); appended != "" {
					last.Text = appended
				}
				continue
			}
			if text := Clean(line); text != "" {
				msgs = append(msgs, models.Message{
					SourceKind: models.SourceSystem,
					Sender:     "system",
					Text:       text,
					Timestamp:  time.Now(),
				})
			}
			continue
		}
		ts, err := time.Parse(chatTimeLayout, m[1]+" "+m[2])
		if err != nil {
			continue
		}
		text := Clean(m[4])
		if text == "" {
			continue
		}
		msgs = append(msgs, models.Message{
			SourceKind: models.SourceChatLine,
			Sender:     strings.TrimSpace(m[3]),
			Text:       text,
			Timestamp:  ts,
		})
	}
	return msgs
}

// ChatStats summarizes parsed chat messages for upload reporting.
func ChatStats(msgs []models.Message) models.MessageStats {
	if len(msgs) == 0 {
		return models.MessageStats{}
	}
	senders := make(map[string]struct{})
	stats := models.MessageStats{TotalMessages: len(msgs)}
	for _, m := range msgs {
		senders[m.Sender] = struct{}{}
		if stats.Start.IsZero() || m.Timestamp.Before(stats.Start) {
			stats.Start = m.Timestamp
		}
		if m.Timestamp.After(stats.End) {
			stats.End = m.Timestamp
		}
	}
	stats.UniqueSenders = len(senders)
	stats.Senders = make([]string, 0, len(senders))
	for s := range senders {
		stats.Senders = append(stats.Senders, s)
	}
	sort.Strings(stats.Senders)
	return stats
}
