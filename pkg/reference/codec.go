package reference

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"curator-bot/internal/entity"
	"curator-bot/internal/pkg/logger"

	"github.com/google/uuid"
)

const idLength = 36

var prefixPattern = regexp.MustCompile(`^[0-9a-f-]{1,36}$`)

// Resolver looks up record ids starting with prefix, ascending, returning at most limit ids.
type Resolver interface {
	ResolvePrefix(ctx context.Context, prefix string, limit int) ([]uuid.UUID, error)
}

// Codec maps record ids to the shortest id prefix that is unambiguous within
// a listing, and back.
type Codec struct {
	resolver  Resolver
	minLength int
	logger    logger.ILogger
}

func NewCodec(resolver Resolver, minLength int, log logger.ILogger) *Codec {
	if minLength < 1 {
		minLength = 1
	}
	if minLength > idLength {
		minLength = idLength
	}
	return &Codec{resolver: resolver, minLength: minLength, logger: log}
}

// Encode returns the button payload for action on id, with id shortened
// against listing (id itself need not be in listing).
func (c *Codec) Encode(action Action, id uuid.UUID, listing []uuid.UUID) (string, error) {
	prefixes := c.prefixes(append([]uuid.UUID{id}, listing...))
	return Token{Action: action, Arg: prefixes[id]}.Payload()
}

// EncodeListing encodes every id of a listing in one pass.
func (c *Codec) EncodeListing(action Action, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	prefixes := c.prefixes(ids)
	out := make(map[uuid.UUID]string, len(ids))
	for _, id := range ids {
		p, err := Token{Action: action, Arg: prefixes[id]}.Payload()
		if err != nil {
			return nil, err
		}
		out[id] = p
	}
	return out, nil
}

// Decode resolves a token argument to a record id. Several matches are a
// degraded case resolved to the lexicographically smallest id.
func (c *Codec) Decode(ctx context.Context, prefix string) (uuid.UUID, error) {
	if !prefixPattern.MatchString(prefix) {
		return uuid.Nil, fmt.Errorf("%w: malformed reference %q", entity.ErrRecordNotFound, prefix)
	}

	ids, err := c.resolver.ResolvePrefix(ctx, prefix, 2)
	if err != nil {
		return uuid.Nil, err
	}
	if len(ids) == 0 {
		return uuid.Nil, fmt.Errorf("%w: reference %q", entity.ErrRecordNotFound, prefix)
	}
	if len(ids) > 1 {
		c.logger.Warn("ReferenceCodec", "Ambiguous reference, using smallest id", map[string]interface{}{
			"prefix":   prefix,
			"resolved": ids[0].String(),
		})
	}
	return ids[0], nil
}

// prefixes computes, for each distinct id, the shortest prefix no other id in
// the set shares, floored at minLength.
func (c *Codec) prefixes(ids []uuid.UUID) map[uuid.UUID]string {
	seen := make(map[uuid.UUID]bool, len(ids))
	sorted := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		sorted = append(sorted, id.String())
	}
	sort.Strings(sorted)

	out := make(map[uuid.UUID]string, len(sorted))
	for i, s := range sorted {
		n := 0
		if i > 0 {
			n = max(n, commonPrefix(s, sorted[i-1]))
		}
		if i < len(sorted)-1 {
			n = max(n, commonPrefix(s, sorted[i+1]))
		}
		length := min(max(c.minLength, n+1), idLength)
		out[uuid.MustParse(s)] = s[:length]
	}
	return out
}

func commonPrefix(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}
