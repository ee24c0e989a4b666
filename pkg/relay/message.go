package relay

import (
	"dancavallaro.com/serialmon/pkg/serialmon"
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
)

const DefaultTopicPrefix = "device"

// LineMessage is the MQTT payload for one monitored line. Raw carries the hex
// rendering for lines that were not valid UTF-8, in which case Text is empty.
type LineMessage struct {
	Time     time.Time `json:"time"`
	Severity string    `json:"severity"`
	Text     string    `json:"text,omitempty"`
	Raw      string    `json:"raw,omitempty"`
}

func NewLineMessage(rec serialmon.Record) LineMessage {
	msg := LineMessage{Time: rec.Time, Severity: rec.Severity.String()}
	if rec.Decoded {
		msg.Text = rec.Text
	} else {
		msg.Raw = rec.Hex()
	}
	return msg
}

func DecodeLineMessage(payload []byte) (LineMessage, error) {
	var msg LineMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return msg, fmt.Errorf("decode line message: %w", err)
	}
	switch msg.Severity {
	case "ERROR", "WARN", "INFO", "PLAIN":
		return msg, nil
	default:
		return msg, fmt.Errorf("decode line message: unknown severity %q", msg.Severity)
	}
}

func LineTopic(prefix string, device string) string {
	return fmt.Sprintf("%s/%s/log", prefix, device)
}

// LineSubscription is the wildcard topic matching every device under prefix.
func LineSubscription(prefix string) string {
	return LineTopic(prefix, "+")
}

var lineTopicRegex = regexp.MustCompile(`^.+/([^/]+)/log$`)

// DeviceFromTopic extracts the device segment of a line topic.
func DeviceFromTopic(topic string) (string, bool) {
	match := lineTopicRegex.FindStringSubmatch(topic)
	if match == nil {
		return "", false
	}
	return match[1], true
}

var unsafeTopicChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// DeviceName turns a port identifier like "/dev/ttyACM0" or "COM3" into a topic
// segment.
func DeviceName(port string) string {
	name := path.Base(strings.ReplaceAll(port, `\`, "/"))
	name = unsafeTopicChars.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == "_" {
		return "unknown"
	}
	return name
}
