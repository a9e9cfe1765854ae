package mqtt

import (
	"sync"
	"time"

	"codeberg.org/mutker/fanctl/internal/errors"
	"codeberg.org/mutker/fanctl/internal/logger"
	paho "github.com/eclipse/paho.mqtt.golang"
)

type Options struct {
	Broker         string
	ClientID       string
	Username       string
	Password       string
	Prefix         string
	ConnectTimeout time.Duration
	PublishTimeout time.Duration
	ReplyTimeout   time.Duration
}

// Client implements both ends of the link on top of a paho client.
type Client struct {
	client paho.Client
	opts   Options
	logger logger.Logger

	mu       sync.Mutex
	replies  map[byte]chan []byte
	handlers map[byte]Handler
}

// Dial connects to the broker. Subscriptions are restored after every
// reconnect.
func Dial(opts Options, log logger.Logger) (*Client, error) {
	errFactory := errors.New()
	c := &Client{
		opts:     opts,
		logger:   log,
		replies:  make(map[byte]chan []byte),
		handlers: make(map[byte]Handler),
	}

	po := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(c.onConnectionLost)
	if opts.Username != "" {
		po.SetUsername(opts.Username)
		po.SetPassword(opts.Password)
	}

	c.client = paho.NewClient(po)
	token := c.client.Connect()
	if !token.WaitTimeout(opts.ConnectTimeout) {
		return nil, errFactory.WithMessage(errors.ErrBusConnect, "connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, errFactory.Wrap(errors.ErrBusConnect, err)
	}

	return c, nil
}

func (c *Client) onConnect(paho.Client) {
	c.logger.Info().Str("broker", c.opts.Broker).Msg("Connected to broker")

	c.mu.Lock()
	replyPeers := make([]byte, 0, len(c.replies))
	for peer := range c.replies {
		replyPeers = append(replyPeers, peer)
	}
	framePeers := make([]byte, 0, len(c.handlers))
	for peer := range c.handlers {
		framePeers = append(framePeers, peer)
	}
	c.mu.Unlock()

	for _, peer := range replyPeers {
		c.client.Subscribe(AckTopic(c.opts.Prefix, peer), 0, c.ackHandler(peer))
	}
	for _, peer := range framePeers {
		c.client.Subscribe(FrameTopic(c.opts.Prefix, peer), 0, c.frameHandler(peer))
	}
}

func (c *Client) onConnectionLost(_ paho.Client, err error) {
	c.logger.Warn().Err(err).Msg("Connection to broker lost")
}

func (c *Client) subscribe(topic string, cb paho.MessageHandler) error {
	token := c.client.Subscribe(topic, 0, cb)
	if !token.WaitTimeout(c.opts.ConnectTimeout) {
		return errors.New().WithMessage(errors.ErrBusSubscribe, "subscribe timeout")
	}
	if err := token.Error(); err != nil {
		return errors.New().Wrap(errors.ErrBusSubscribe, err)
	}
	return nil
}

// Watch subscribes to the replies of peer. Transmit does this on first
// use; calling it at startup moves the wait out of the control loop.
func (c *Client) Watch(peer byte) error {
	c.mu.Lock()
	if _, ok := c.replies[peer]; ok {
		c.mu.Unlock()
		return nil
	}
	c.replies[peer] = make(chan []byte, 1)
	c.mu.Unlock()

	return c.subscribe(AckTopic(c.opts.Prefix, peer), c.ackHandler(peer))
}

func (c *Client) ackHandler(peer byte) paho.MessageHandler {
	return func(_ paho.Client, msg paho.Message) {
		ch := c.replyChan(peer)
		// Keep only the newest reply.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- msg.Payload():
		default:
		}
	}
}

func (c *Client) replyChan(peer byte) chan []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.replies[peer]
}

// Transmit publishes buf to peer's frame topic. Replies received before
// the call are discarded.
func (c *Client) Transmit(peer byte, buf []byte) uint8 {
	if !c.client.IsConnectionOpen() {
		return StatusNotConnected
	}
	if err := c.Watch(peer); err != nil {
		c.logger.Debug().Err(err).Msg("Ack subscription failed")
		return StatusPublishError
	}

	ch := c.replyChan(peer)
	select {
	case <-ch:
	default:
	}

	return c.publish(FrameTopic(c.opts.Prefix, peer), buf)
}

func (c *Client) publish(topic string, buf []byte) uint8 {
	token := c.client.Publish(topic, 0, false, buf)
	if !token.WaitTimeout(c.opts.PublishTimeout) {
		return StatusTimeout
	}
	if err := token.Error(); err != nil {
		c.logger.Debug().Err(err).Str("topic", topic).Msg("Publish failed")
		return StatusPublishError
	}
	return 0
}

// Receive waits up to the reply timeout for peer's answer to the last
// Transmit and copies it into out.
func (c *Client) Receive(peer byte, out []byte) uint8 {
	ch := c.replyChan(peer)
	if ch == nil {
		return StatusNoReply
	}

	timer := time.NewTimer(c.opts.ReplyTimeout)
	defer timer.Stop()

	select {
	case payload := <-ch:
		if len(payload) != len(out) {
			return StatusWrongSize
		}
		copy(out, payload)
		return 0
	case <-timer.C:
		return StatusNoReply
	}
}

// Subscribe delivers frames addressed to peer to h, from the paho
// callback goroutine.
func (c *Client) Subscribe(peer byte, h Handler) error {
	c.mu.Lock()
	c.handlers[peer] = h
	c.mu.Unlock()

	return c.subscribe(FrameTopic(c.opts.Prefix, peer), c.frameHandler(peer))
}

func (c *Client) frameHandler(peer byte) paho.MessageHandler {
	return func(_ paho.Client, msg paho.Message) {
		c.mu.Lock()
		h := c.handlers[peer]
		c.mu.Unlock()
		if h != nil {
			h(peer, msg.Payload())
		}
	}
}

// Reply publishes buf on peer's ack topic.
func (c *Client) Reply(peer byte, buf []byte) uint8 {
	if !c.client.IsConnectionOpen() {
		return StatusNotConnected
	}
	return c.publish(AckTopic(c.opts.Prefix, peer), buf)
}

// IsConnected reports whether the broker connection is up.
func (c *Client) IsConnected() bool {
	return c.client.IsConnectionOpen()
}

func (c *Client) Close() error {
	c.client.Disconnect(1000)
	return nil
}
