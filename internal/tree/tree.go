// Package tree implements aggregation trees: one accumulator per group key,
// each with an optional nested child collector.
package tree

import (
	"errors"
	"fmt"

	"github.com/hupe1980/statagg/internal/accum"
	"github.com/hupe1980/statagg/model"
	"github.com/hupe1980/statagg/resource"
)

var (
	// ErrMismatch is returned when a key, value or nested entry does not fit the collector shape.
	ErrMismatch = errors.New("collector mismatch")

	// ErrConsumed is returned when a collector is used after it was merged away.
	ErrConsumed = errors.New("collector consumed by merge")

	// ErrFailed is returned by a collector whose nested add failed halfway.
	// Its parent and child counts no longer agree, so it accepts no more values
	// and cannot be merged.
	ErrFailed = errors.New("collector failed")
)

// Options carries the accumulator settings shared by every level.
type Options struct {
	Compression accum.Compression
	Controller  *resource.Controller
}

// Node is one group's accumulator plus its optional child collector.
type Node struct {
	// Key is the zero GroupKey for data-mode nodes.
	Key      model.GroupKey
	Acc      accum.Accumulator
	Children *Collector
}

// Collector is a single-level aggregation: either one root node (data mode)
// or an arena of nodes indexed by group key (list mode).
//
// Collector is NOT thread-safe. Each segment owns its own collector.
type Collector struct {
	spec *model.CollectorSpec
	opts Options

	root *Node // data mode

	nodes []Node // list mode arena, insertion order
	index map[model.GroupKey]int32

	consumed bool
	failed   error
}

// New creates an empty collector for spec. The spec is assumed validated;
// only the closed axes are checked here.
func New(spec *model.CollectorSpec, opts Options) (*Collector, error) {
	if spec == nil {
		return nil, fmt.Errorf("%w: nil spec", ErrMismatch)
	}
	c := &Collector{spec: spec, opts: opts}

	switch spec.Mode {
	case model.ModeData:
		n, err := c.newNode(model.GroupKey{})
		if err != nil {
			return nil, err
		}
		c.root = &n
	case model.ModeList:
		c.index = make(map[model.GroupKey]int32)
		// Probe the accumulator axes once so a bad spec fails at construction.
		probe, err := c.newNode(model.GroupKey{})
		if err != nil {
			return nil, err
		}
		probe.release()
	default:
		return nil, fmt.Errorf("%w: %d", model.ErrUnknownMode, spec.Mode)
	}
	return c, nil
}

func (c *Collector) newNode(key model.GroupKey) (Node, error) {
	acc, err := accum.New(accum.Config{
		Domain:      c.spec.Domain,
		Level:       c.spec.Level,
		MaxValues:   c.spec.MaxValues,
		Compression: c.opts.Compression,
		Controller:  c.opts.Controller,
	})
	if err != nil {
		return Node{}, err
	}
	n := Node{Key: key, Acc: acc}
	if c.spec.Sub != nil {
		if n.Children, err = New(c.spec.Sub, c.opts); err != nil {
			return Node{}, err
		}
	}
	return n, nil
}

// Spec returns the spec of this level.
func (c *Collector) Spec() *model.CollectorSpec { return c.spec }

// Mode returns the collector mode.
func (c *Collector) Mode() model.Mode { return c.spec.Mode }

// Options returns the accumulator settings.
func (c *Collector) Options() Options { return c.opts }

// Consumed reports whether the collector was merged into another.
func (c *Collector) Consumed() bool { return c.consumed }

// AddValue accumulates v under key and forwards sub into the key's child collector.
// Data-mode collectors require a nil key, list-mode collectors a non-nil one.
// Keys, values and nested entries are validated before any state changes.
//
// Only the memory budget can fail an add after validation. When that happens
// inside a nested level the collector is marked failed and rejects every
// later value with ErrFailed.
func (c *Collector) AddValue(key *model.GroupKey, v model.Value, sub []model.Entry) error {
	if c.consumed {
		return ErrConsumed
	}
	if c.failed != nil {
		return fmt.Errorf("%w: %w", ErrFailed, c.failed)
	}
	if err := c.check(key, v, sub); err != nil {
		return err
	}
	dirty, err := c.add(key, v, sub)
	if err != nil && dirty {
		c.failed = err
	}
	return err
}

// Failed returns the error that left the collector inconsistent, if any.
func (c *Collector) Failed() error { return c.failed }

func (c *Collector) check(key *model.GroupKey, v model.Value, sub []model.Entry) error {
	switch c.spec.Mode {
	case model.ModeData:
		if key != nil {
			return fmt.Errorf("%w: data collector got key %s", ErrMismatch, key)
		}
	case model.ModeList:
		if key == nil {
			return fmt.Errorf("%w: list collector requires a key", ErrMismatch)
		}
	}
	if err := accum.CheckValue(c.spec.Domain, v); err != nil {
		return fmt.Errorf("%w: %w", ErrMismatch, err)
	}
	if len(sub) == 0 {
		return nil
	}
	if c.spec.Sub == nil {
		return fmt.Errorf("%w: nested values without a sub-collector", ErrMismatch)
	}
	child := Collector{spec: c.spec.Sub}
	for _, e := range sub {
		if err := child.check(e.Key, e.Value, e.Sub); err != nil {
			return err
		}
	}
	return nil
}

// add reports dirty when it fails after some state already changed.
func (c *Collector) add(key *model.GroupKey, v model.Value, sub []model.Entry) (dirty bool, err error) {
	var node *Node
	if c.root != nil {
		node = c.root
	} else {
		i, ok := c.index[*key]
		if !ok {
			n, err := c.newNode(*key)
			if err != nil {
				return false, err
			}
			i = int32(len(c.nodes))
			c.nodes = append(c.nodes, n)
			c.index[*key] = i
		}
		node = &c.nodes[i]
		if !ok {
			if err := node.Acc.Add(v); err != nil {
				// Nodes only exist once they hold a value.
				node.release()
				c.nodes = c.nodes[:i]
				delete(c.index, *key)
				return false, err
			}
			return node.forward(sub)
		}
	}
	if err := node.Acc.Add(v); err != nil {
		return false, err
	}
	return node.forward(sub)
}

func (n *Node) forward(sub []model.Entry) (dirty bool, err error) {
	for _, e := range sub {
		if _, err := n.Children.add(e.Key, e.Value, e.Sub); err != nil {
			return true, err
		}
	}
	return false, nil
}

// Size returns the number of distinct keys (data mode: 1 once a value arrived).
func (c *Collector) Size() int {
	if c.root != nil {
		if c.root.Acc.Count() > 0 {
			return 1
		}
		return 0
	}
	return len(c.nodes)
}

// Root returns the data-mode root node, or nil in list mode.
func (c *Collector) Root() *Node { return c.root }

// Get returns the node for key.
func (c *Collector) Get(key model.GroupKey) (*Node, bool) {
	i, ok := c.index[key]
	if !ok {
		return nil, false
	}
	return &c.nodes[i], true
}

// Nodes returns the list-mode arena in insertion order. The slice is owned by
// the collector and invalidated by the next insertion.
func (c *Collector) Nodes() []Node { return c.nodes }

// Adopt moves a node from another collector of the same shape into c.
// The key must not be present yet.
func (c *Collector) Adopt(n Node) error {
	if c.root != nil {
		return fmt.Errorf("%w: adopt into data collector", ErrMismatch)
	}
	if _, ok := c.index[n.Key]; ok {
		return fmt.Errorf("%w: duplicate key %s", ErrMismatch, n.Key)
	}
	c.index[n.Key] = int32(len(c.nodes))
	c.nodes = append(c.nodes, n)
	return nil
}

// Consume marks c as merged away and drops its nodes without releasing
// accumulator memory, which now belongs to the merge destination.
func (c *Collector) Consume() {
	c.consumed = true
	c.root = nil
	c.nodes = nil
	c.index = nil
}

// Release returns memory held by every accumulator in the tree.
func (c *Collector) Release() {
	if c.root != nil {
		c.root.release()
	}
	for i := range c.nodes {
		c.nodes[i].release()
	}
}

func (n *Node) release() {
	n.Acc.Release()
	if n.Children != nil {
		n.Children.Release()
	}
}
