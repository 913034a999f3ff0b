package yaml

import (
	"encoding/base64"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/yamlkit/yaml/internal/yamlh"
)

// A Constructor turns resolved raw nodes into typed ones. The composer
// consults it by (kind, tag) after resolution; the YAML 1.1 set is
// pre-registered and user registrations extend it with new tags.
type Constructor struct {
	scalar   map[string]ScalarConstructor
	sequence map[string]SequenceConstructor
	mapping  map[string]MappingConstructor
}

// ScalarConstructor builds a node from a scalar's text.
type ScalarConstructor func(value string) (*Node, error)

// SequenceConstructor builds a node from composed sequence items.
type SequenceConstructor func(items []*Node) (*Node, error)

// MappingConstructor builds a node from composed mapping pairs.
type MappingConstructor func(pairs []Pair) (*Node, error)

// NewConstructor returns a constructor with the YAML 1.1 defaults
// registered.
func NewConstructor() *Constructor {
	c := &Constructor{
		scalar:   make(map[string]ScalarConstructor),
		sequence: make(map[string]SequenceConstructor),
		mapping:  make(map[string]MappingConstructor),
	}

	c.AddScalar(yamlh.NullTag, func(string) (*Node, error) { return NullNode(), nil })
	c.AddScalar(yamlh.BoolTag, constructBool)
	c.AddScalar(yamlh.IntTag, constructInt)
	c.AddScalar(yamlh.FloatTag, constructFloat)
	c.AddScalar(yamlh.StrTag, func(v string) (*Node, error) { return StringNode(v), nil })
	c.AddScalar(yamlh.TimestampTag, constructTimestamp)
	c.AddScalar(yamlh.BinaryTag, constructBinary)
	// '=' resolves to !!value; it reads as its literal text.
	c.AddScalar(yamlh.ValueTag, func(v string) (*Node, error) { return StringNode(v), nil })
	c.AddScalar(yamlh.MergeTag, func(v string) (*Node, error) { return StringNode(v), nil })

	c.AddSequence(yamlh.SeqTag, func(items []*Node) (*Node, error) {
		return SequenceNode(items...), nil
	})
	c.AddSequence(yamlh.OmapTag, constructOmap)
	c.AddSequence(yamlh.PairsTag, constructPairs)

	c.AddMapping(yamlh.MapTag, func(pairs []Pair) (*Node, error) {
		return MappingNode(pairs...), nil
	})
	c.AddMapping(yamlh.SetTag, constructSet)

	return c
}

// AddScalar registers a scalar constructor for a tag, replacing any
// previous registration.
func (c *Constructor) AddScalar(tag string, fn ScalarConstructor) {
	c.scalar[tag] = fn
}

// AddSequence registers a sequence constructor for a tag.
func (c *Constructor) AddSequence(tag string, fn SequenceConstructor) {
	c.sequence[tag] = fn
}

// AddMapping registers a mapping constructor for a tag.
func (c *Constructor) AddMapping(tag string, fn MappingConstructor) {
	c.mapping[tag] = fn
}

func (c *Constructor) constructScalar(tag, value string) (*Node, error) {
	fn, ok := c.scalar[tag]
	if !ok {
		return nil, fmt.Errorf("no constructor for scalar tag %q", tag)
	}
	return fn(value)
}

func (c *Constructor) constructSequence(tag string, items []*Node) (*Node, error) {
	fn, ok := c.sequence[tag]
	if !ok {
		return nil, fmt.Errorf("no constructor for sequence tag %q", tag)
	}
	return fn(items)
}

func (c *Constructor) constructMapping(tag string, pairs []Pair) (*Node, error) {
	fn, ok := c.mapping[tag]
	if !ok {
		return nil, fmt.Errorf("no constructor for mapping tag %q", tag)
	}
	return fn(pairs)
}

// YAML 1.1 scalar constructions.

func constructBool(value string) (*Node, error) {
	switch value {
	case "yes", "Yes", "YES", "true", "True", "TRUE", "on", "On", "ON", "y", "Y":
		return BoolNode(true), nil
	case "no", "No", "NO", "false", "False", "FALSE", "off", "Off", "OFF", "n", "N":
		return BoolNode(false), nil
	}
	return nil, fmt.Errorf("cannot parse %q as a bool", value)
}

// constructInt handles the YAML 1.1 integer forms: decimal with '_'
// separators, binary, octal, hexadecimal, and base-60.
func constructInt(value string) (*Node, error) {
	s := strings.ReplaceAll(value, "_", "")
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	var v int64
	var err error
	switch {
	case strings.HasPrefix(s, "0b"):
		v, err = strconv.ParseInt(s[2:], 2, 64)
	case strings.HasPrefix(s, "0x"):
		v, err = strconv.ParseInt(s[2:], 16, 64)
	case strings.Contains(s, ":"):
		v, err = parseSexagesimalInt(s)
	case len(s) > 1 && s[0] == '0':
		v, err = strconv.ParseInt(s[1:], 8, 64)
	default:
		v, err = strconv.ParseInt(s, 10, 64)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot parse %q as an int: %v", value, err)
	}
	if neg {
		v = -v
	}
	return IntNode(v), nil
}

func parseSexagesimalInt(s string) (int64, error) {
	var v int64
	for _, part := range strings.Split(s, ":") {
		d, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return 0, err
		}
		v = v*60 + d
	}
	return v, nil
}

func constructFloat(value string) (*Node, error) {
	s := strings.ReplaceAll(value, "_", "")
	switch s {
	case ".inf", ".Inf", ".INF", "+.inf", "+.Inf", "+.INF":
		return FloatNode(math.Inf(1)), nil
	case "-.inf", "-.Inf", "-.INF":
		return FloatNode(math.Inf(-1)), nil
	case ".nan", ".NaN", ".NAN":
		return FloatNode(math.NaN()), nil
	}

	if strings.Contains(s, ":") {
		neg := false
		switch {
		case strings.HasPrefix(s, "-"):
			neg = true
			s = s[1:]
		case strings.HasPrefix(s, "+"):
			s = s[1:]
		}
		var v float64
		for _, part := range strings.Split(s, ":") {
			d, err := strconv.ParseFloat(part, 64)
			if err != nil {
				return nil, fmt.Errorf("cannot parse %q as a float: %v", value, err)
			}
			v = v*60 + d
		}
		if neg {
			v = -v
		}
		return FloatNode(v), nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("cannot parse %q as a float: %v", value, err)
	}
	return FloatNode(v), nil
}

// The ISO 8601 subset of the timestamp tag, plus the lenient
// space-separated form with a short timezone like " -5".
var timestampPattern = regexp.MustCompile(
	`^([0-9]{4})-([0-9]{1,2})-([0-9]{1,2})` +
		`(?:(?:[Tt]|[ \t]+)([0-9]{1,2}):([0-9]{2}):([0-9]{2})(\.[0-9]*)?` +
		`(?:[ \t]*(Z|[-+][0-9]{1,2}(?::?[0-9]{2})?))?)?$`)

func constructTimestamp(value string) (*Node, error) {
	m := timestampPattern.FindStringSubmatch(value)
	if m == nil {
		return nil, fmt.Errorf("cannot parse %q as a timestamp", value)
	}

	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	if m[4] == "" {
		return TimestampNode(time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)), nil
	}

	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	second, _ := strconv.Atoi(m[6])

	nsec := 0
	if len(m[7]) > 1 {
		frac := m[7][1:]
		if len(frac) > 9 {
			frac = frac[:9]
		}
		n, _ := strconv.Atoi(frac)
		for i := len(frac); i < 9; i++ {
			n *= 10
		}
		nsec = n
	}

	loc := time.UTC
	if tz := m[8]; tz != "" && tz != "Z" {
		sign := 1
		if tz[0] == '-' {
			sign = -1
		}
		hhmm := strings.ReplaceAll(tz[1:], ":", "")
		var offHour, offMin int
		switch len(hhmm) {
		case 1, 2:
			offHour, _ = strconv.Atoi(hhmm)
		default:
			offHour, _ = strconv.Atoi(hhmm[:len(hhmm)-2])
			offMin, _ = strconv.Atoi(hhmm[len(hhmm)-2:])
		}
		loc = time.FixedZone("", sign*(offHour*3600+offMin*60))
	}

	return TimestampNode(time.Date(year, time.Month(month), day, hour, minute, second, nsec, loc)), nil
}

func constructBinary(value string) (*Node, error) {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, value)
	data, err := base64.StdEncoding.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("cannot decode base64 data: %v", err)
	}
	return BinaryNode(data), nil
}

// YAML 1.1 collection constructions.

// constructOmap turns a sequence of single-pair mappings into an ordered
// mapping; duplicate keys are rejected.
func constructOmap(items []*Node) (*Node, error) {
	pairs, err := pairsFromItems(items)
	if err != nil {
		return nil, err
	}
	for i := range pairs {
		for j := i + 1; j < len(pairs); j++ {
			if pairs[i].Key.Equal(pairs[j].Key) {
				return nil, fmt.Errorf("duplicate key %s in ordered mapping", pairs[j].Key)
			}
		}
	}
	n := MappingNode(pairs...)
	n.Tag = yamlh.OmapTag
	return n, nil
}

// constructPairs is like omap but keeps duplicates.
func constructPairs(items []*Node) (*Node, error) {
	pairs, err := pairsFromItems(items)
	if err != nil {
		return nil, err
	}
	n := MappingNode(pairs...)
	n.Tag = yamlh.PairsTag
	return n, nil
}

func pairsFromItems(items []*Node) ([]Pair, error) {
	pairs := make([]Pair, 0, len(items))
	for _, item := range items {
		if item.Kind() != MappingKind || item.Len() != 1 {
			return nil, fmt.Errorf("expected a single-pair mapping, got %s", item)
		}
		pairs = append(pairs, item.Pairs()[0])
	}
	return pairs, nil
}

// constructSet keeps the mapping shape with null values.
func constructSet(pairs []Pair) (*Node, error) {
	for _, p := range pairs {
		if !p.Value.IsNull() {
			return nil, fmt.Errorf("set entry %s has a non-null value", p.Key)
		}
	}
	n := MappingNode(pairs...)
	n.Tag = yamlh.SetTag
	return n, nil
}
