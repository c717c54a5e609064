package id

import (
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/snowflake"
)

// Snowflake node IDs per process kind. trialctl never mints IDs.
const (
	NodeServer int64 = 1
	NodeWorker int64 = 2
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init initializes the Snowflake node with the given node ID.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// New generates a new globally unique int64 ID using the Snowflake algorithm.
// IDs are time-ordered and unique across distributed instances.
func New() int64 {
	return node.Generate().Int64()
}

// Code renders a human facing identifier such as "TSK-1A2B3C4D5E" for an ID.
func Code(prefix string, id int64) string {
	return prefix + "-" + strings.ToUpper(snowflake.ID(id).Base36())
}

// ParseCode reverses Code. Prefix and digits match case-insensitively.
func ParseCode(prefix, code string) (int64, error) {
	digits, ok := strings.CutPrefix(strings.ToUpper(strings.TrimSpace(code)), strings.ToUpper(prefix)+"-")
	if !ok || digits == "" {
		return 0, fmt.Errorf("code %q is not a %s code", code, prefix)
	}
	parsed, err := snowflake.ParseBase36(strings.ToLower(digits))
	if err != nil {
		return 0, fmt.Errorf("parsing code %q: %w", code, err)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("code %q does not name an id", code)
	}
	return parsed.Int64(), nil
}
