// Package mqtt carries frames between the two nodes over an MQTT broker.
// Each peer id owns two topics, <prefix>/<peer>/frame for frames and
// <prefix>/<peer>/ack for replies.
package mqtt

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Transport status codes. 0 is success.
const (
	StatusNotConnected uint8 = 1
	StatusTimeout      uint8 = 2
	StatusPublishError uint8 = 3
	StatusNoReply      uint8 = 4
	StatusWrongSize    uint8 = 5
)

const (
	DefaultBroker         = "tcp://localhost:1883"
	DefaultPrefix         = "fanctl"
	DefaultConnectTimeout = 10 * time.Second
	DefaultPublishTimeout = time.Second
	DefaultReplyTimeout   = 500 * time.Millisecond
)

// FrameTopic is where frames addressed to peer are published.
func FrameTopic(prefix string, peer byte) string {
	return topic(prefix, peer, "frame")
}

// AckTopic is where peer publishes its replies.
func AckTopic(prefix string, peer byte) string {
	return topic(prefix, peer, "ack")
}

func topic(prefix string, peer byte, kind string) string {
	if prefix == "" {
		return fmt.Sprintf("%c/%s", peer, kind)
	}
	return fmt.Sprintf("%s/%c/%s", prefix, peer, kind)
}

// Handler receives a frame published to a subscribed peer.
type Handler func(peer byte, payload []byte)

// ClientID returns a broker client id unique to this process, so a
// restarted daemon does not collide with its own stale session.
func ClientID(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}
