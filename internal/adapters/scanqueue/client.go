// Package scanqueue connects the service to the scan-execution backend over
// AMQP. It publishes scan requests and consumes per-scan event queues that
// carry scan progress and inserted results as JSON envelopes.
package scanqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"github.com/krishanraja/adfixus-sales-sub001/internal/domain"
	"github.com/krishanraja/adfixus-sales-sub001/internal/ports"
)

const (
	requestQueue = "scan.requests"

	reconnectBackoffMin = time.Second
	reconnectBackoffMax = 30 * time.Second
)

func eventQueue(scanID string) string { return "scan.events." + scanID }

// envelope is the wire format on a scan's event queue.
type envelope struct {
	Type   string               `json:"type"` // scan_updated | result_inserted
	Scan   *domain.Scan         `json:"scan,omitempty"`
	Result *domain.DomainRecord `json:"result,omitempty"`
}

type scanRequest struct {
	Scan    domain.Scan `json:"scan"`
	Domains []string    `json:"domains"`
}

// Client implements ports.ScanRequestPublisher and ports.ScanStream. One
// consumer runs per scan regardless of how many subscriptions are open; it
// stops when the last subscription is released.
type Client struct {
	url string

	mu        sync.Mutex
	listeners map[string]*listener
}

func NewClient(url string) *Client {
	return &Client{url: url, listeners: map[string]*listener{}}
}

// PublishScanRequest hands a created scan to the execution backend. Broker
// failures are reported as ports.ErrTransport so callers can mark the
// operation retryable.
func (c *Client) PublishScanRequest(ctx context.Context, scan domain.Scan, domains []string) error {
	body, err := json.Marshal(scanRequest{Scan: scan, Domains: domains})
	if err != nil {
		return fmt.Errorf("encode scan request: %w", err)
	}

	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrTransport, err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrTransport, err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(requestQueue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%w: declare %s: %v", ports.ErrTransport, requestQueue, err)
	}
	if err := ch.Publish("", q.Name, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	}); err != nil {
		return fmt.Errorf("%w: publish: %v", ports.ErrTransport, err)
	}
	return nil
}

// SubscribeScanUpdates delivers scan progress envelopes for one scan until
// the returned Unsubscribe is called.
func (c *Client) SubscribeScanUpdates(ctx context.Context, scanID string, onUpdate func(domain.Scan)) (ports.Unsubscribe, error) {
	return c.subscribe(ctx, scanID, func(l *listener) int {
		return l.addUpdate(onUpdate)
	}, func(l *listener, id int) {
		l.removeUpdate(id)
	})
}

// SubscribeResultInserts delivers newly inserted domain results for one scan.
func (c *Client) SubscribeResultInserts(ctx context.Context, scanID string, onInsert func(domain.DomainRecord)) (ports.Unsubscribe, error) {
	return c.subscribe(ctx, scanID, func(l *listener) int {
		return l.addInsert(onInsert)
	}, func(l *listener, id int) {
		l.removeInsert(id)
	})
}

func (c *Client) subscribe(ctx context.Context, scanID string, register func(*listener) int, remove func(*listener, int)) (ports.Unsubscribe, error) {
	c.mu.Lock()
	l, ok := c.listeners[scanID]
	if !ok {
		// Probe the broker before committing to a background retry loop so
		// the caller learns right away it is running poll-only.
		if err := c.probe(); err != nil {
			c.mu.Unlock()
			return nil, err
		}
		runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		l = newListener(scanID, cancel)
		c.listeners[scanID] = l
		go c.consume(runCtx, l)
	}
	id := register(l)
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			remove(l, id)
			if l.empty() {
				l.cancel()
				delete(c.listeners, scanID)
			}
		})
	}, nil
}

func (c *Client) probe() error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrTransport, err)
	}
	return conn.Close()
}

// consume reads the scan's event queue until cancelled, reconnecting with
// exponential backoff when the broker drops the connection.
func (c *Client) consume(ctx context.Context, l *listener) {
	backoff := reconnectBackoffMin
	for {
		if ctx.Err() != nil {
			return
		}
		err := c.consumeOnce(ctx, l)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			slog.Warn("scan event consumer error, reconnecting",
				"scan_id", l.scanID, "backoff", backoff, "error", err)
		} else {
			backoff = reconnectBackoffMin
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > reconnectBackoffMax {
			backoff = reconnectBackoffMax
		}
	}
}

func (c *Client) consumeOnce(ctx context.Context, l *listener) error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	qName := eventQueue(l.scanID)
	q, err := ch.QueueDeclare(qName, false, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare %s: %w", qName, err)
	}
	msgs, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", qName, err)
	}

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	for {
		select {
		case <-ctx.Done():
			return nil
		case amqpErr := <-closed:
			if amqpErr != nil {
				return fmt.Errorf("connection closed: %s", amqpErr.Error())
			}
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			l.dispatch(msg.Body)
		}
	}
}

// listener fans one scan's event stream out to its registered callbacks.
type listener struct {
	scanID string
	cancel context.CancelFunc

	mu       sync.Mutex
	nextID   int
	onUpdate map[int]func(domain.Scan)
	onInsert map[int]func(domain.DomainRecord)
}

func newListener(scanID string, cancel context.CancelFunc) *listener {
	return &listener{
		scanID:   scanID,
		cancel:   cancel,
		onUpdate: map[int]func(domain.Scan){},
		onInsert: map[int]func(domain.DomainRecord){},
	}
}

func (l *listener) addUpdate(fn func(domain.Scan)) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	l.onUpdate[l.nextID] = fn
	return l.nextID
}

func (l *listener) addInsert(fn func(domain.DomainRecord)) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	l.onInsert[l.nextID] = fn
	return l.nextID
}

func (l *listener) removeUpdate(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.onUpdate, id)
}

func (l *listener) removeInsert(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.onInsert, id)
}

func (l *listener) empty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.onUpdate) == 0 && len(l.onInsert) == 0
}

func (l *listener) dispatch(body []byte) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		slog.Warn("discarding malformed scan event", "scan_id", l.scanID, "error", err)
		return
	}

	l.mu.Lock()
	updates := make([]func(domain.Scan), 0, len(l.onUpdate))
	for _, fn := range l.onUpdate {
		updates = append(updates, fn)
	}
	inserts := make([]func(domain.DomainRecord), 0, len(l.onInsert))
	for _, fn := range l.onInsert {
		inserts = append(inserts, fn)
	}
	l.mu.Unlock()

	switch env.Type {
	case "scan_updated":
		if env.Scan == nil {
			return
		}
		for _, fn := range updates {
			fn(*env.Scan)
		}
	case "result_inserted":
		if env.Result == nil {
			return
		}
		for _, fn := range inserts {
			fn(*env.Result)
		}
	default:
		slog.Debug("ignoring unknown scan event type", "scan_id", l.scanID, "type", env.Type)
	}
}
