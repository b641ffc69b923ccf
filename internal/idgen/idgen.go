package idgen

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// NewKSUID returns a globally unique, time-sortable identifier.
func NewKSUID() string {
	return ksuid.New().String()
}

// Sequence hands out snowflake numbers for human-facing references such as
// receipt numbers. Node ids must be distinct per running instance.
type Sequence struct {
	node *snowflake.Node
}

// NewSequence builds a sequence for the given node id (0-1023).
func NewSequence(nodeID int64) (*Sequence, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", nodeID, err)
	}
	return &Sequence{node: node}, nil
}

// Next returns the next number as a decimal string.
func (s *Sequence) Next() string {
	return s.node.Generate().String()
}
