// Package shortid provides generators for the short identifiers used as
// short link path segments. Generators only produce candidates; uniqueness
// against stored records is checked by the caller.
package shortid

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/vadimbarashkov/shortlink/pkg/base62"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	GeneratorNanoID    = "nanoid"
	GeneratorSnowflake = "snowflake"
)

// Generator produces candidate short identifiers.
type Generator interface {
	Generate() (string, error)
}

// NanoID generates random base62 identifiers of a fixed length.
type NanoID struct {
	length int
}

// NewNanoID returns a NanoID generator producing identifiers of the given length.
func NewNanoID(length int) *NanoID {
	return &NanoID{length: length}
}

func (g *NanoID) Generate() (string, error) {
	const op = "shortid.NanoID.Generate"

	id, err := gonanoid.Generate(base62.Alphabet, g.length)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

// Snowflake generates time-ordered identifiers from a snowflake node,
// encoded in base62.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake returns a Snowflake generator for the given node (0-1023).
func NewSnowflake(nodeID int64) (*Snowflake, error) {
	const op = "shortid.NewSnowflake"

	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create node %d: %w", op, nodeID, err)
	}

	return &Snowflake{node: node}, nil
}

func (g *Snowflake) Generate() (string, error) {
	const op = "shortid.Snowflake.Generate"

	id, err := base62.Encode(g.node.Generate().Int64())
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

// New builds the generator named by kind.
func New(kind string, length int, nodeID int64) (Generator, error) {
	switch kind {
	case GeneratorNanoID:
		return NewNanoID(length), nil
	case GeneratorSnowflake:
		g, err := NewSnowflake(nodeID)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("shortid.New: unknown generator %q", kind)
	}
}
