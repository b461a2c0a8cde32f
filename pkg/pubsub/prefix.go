package pubsub

import "strings"

// ChannelPrefix holds independent publish-side and subscribe-side prefixes.
// Blank values (after trimming) mean no prefix in that direction.
type ChannelPrefix struct {
	Pub string
	Sub string
}

// SharedPrefix applies the same prefix to both directions.
func SharedPrefix(prefix string) ChannelPrefix {
	return ChannelPrefix{Pub: prefix, Sub: prefix}
}

type direction int

const (
	directionPub direction = iota
	directionSub
)

// prefixResolver maps logical channels to wire channels and back.
type prefixResolver struct {
	pub string
	sub string
}

// parseChannelPrefix accepts a string, ChannelPrefix, *ChannelPrefix or a
// map with "pub"/"sub" string entries. Any other shape, and any blank value,
// leaves the corresponding prefix unset. Parsing never fails.
func parseChannelPrefix(v any) prefixResolver {
	var r prefixResolver
	switch p := v.(type) {
	case string:
		if s := strings.TrimSpace(p); s != "" {
			r.pub, r.sub = s, s
		}
	case ChannelPrefix:
		r.pub, r.sub = strings.TrimSpace(p.Pub), strings.TrimSpace(p.Sub)
	case *ChannelPrefix:
		if p != nil {
			r.pub, r.sub = strings.TrimSpace(p.Pub), strings.TrimSpace(p.Sub)
		}
	case map[string]string:
		r.pub, r.sub = strings.TrimSpace(p["pub"]), strings.TrimSpace(p["sub"])
	case map[string]any:
		if s, ok := p["pub"].(string); ok {
			r.pub = strings.TrimSpace(s)
		}
		if s, ok := p["sub"].(string); ok {
			r.sub = strings.TrimSpace(s)
		}
	}
	return r
}

func (r prefixResolver) toWire(channel string, d direction) string {
	if d == directionPub {
		return r.pub + channel
	}
	return r.sub + channel
}

// fromWire strips the subscribe prefix from an inbound wire channel. A wire
// channel that does not carry the prefix, or consists of nothing but the
// prefix, cannot be mapped back and ok is false.
func (r prefixResolver) fromWire(wireChannel string) (channel string, ok bool) {
	if r.sub == "" {
		return wireChannel, wireChannel != ""
	}
	if !strings.HasPrefix(wireChannel, r.sub) || len(wireChannel) == len(r.sub) {
		return "", false
	}
	return wireChannel[len(r.sub):], true
}
