//
// Copyright (c) 2011-2019 Canonical Ltd
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package yaml implements a YAML 1.1 processor: it reads documents into
// trees of typed nodes and writes node trees back out, preserving tags
// and presentation styles where the grammar allows.
//
// Reading goes through Reader, Scanner, Parser, and Composer; writing
// through Serializer and Emitter. The Loader and Dumper types are the
// entry points:
//
//	docs, err := yaml.LoadString("key: value\n")
//
//	var buf bytes.Buffer
//	err := yaml.Dump(&buf, docs...)
package yaml

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yamlkit/yaml/internal/emitter"
	"github.com/yamlkit/yaml/internal/parserc"
	"github.com/yamlkit/yaml/internal/resolve"
	"github.com/yamlkit/yaml/internal/yamlh"
)

// Loader reads a stream of YAML documents.
type Loader struct {
	parser      *parserc.Parser
	resolver    *resolve.Resolver
	constructor *Constructor

	started bool
	done    bool
	err     error
}

// NewLoader reads all of r and returns a loader over its documents.
func NewLoader(r io.Reader) (*Loader, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &yamlh.ReaderError{Problem: "cannot read input: " + err.Error()}
	}
	return NewLoaderBytes(data)
}

// NewLoaderBytes returns a loader over the documents of data. The input
// may be UTF-8, UTF-16, or UTF-32; it is decoded up front, so encoding
// errors surface here.
func NewLoaderBytes(data []byte) (*Loader, error) {
	p, err := parserc.NewParserBytes(data)
	if err != nil {
		return nil, err
	}
	return &Loader{
		parser:      p,
		resolver:    resolve.NewResolver(),
		constructor: NewConstructor(),
	}, nil
}

// NewLoaderString returns a loader over the documents of s.
func NewLoaderString(s string) (*Loader, error) {
	return NewLoaderBytes([]byte(s))
}

// Constructor returns the loader's constructor registry for user tag
// registrations. Registrations affect documents loaded afterwards.
func (l *Loader) Constructor() *Constructor {
	return l.constructor
}

// AddResolverRule registers an implicit resolution rule for plain
// scalars; see the Resolver contract: user rules cannot shadow the
// YAML 1.1 core schema.
func (l *Loader) AddResolverRule(tag, pattern, first string) error {
	return l.resolver.AddRule(tag, pattern, first)
}

// Load returns the next document, or io.EOF after the last one. The
// first malformed document fails the load and ends iteration.
func (l *Loader) Load() (*Node, error) {
	if l.err != nil {
		return nil, l.err
	}
	if l.done {
		return nil, io.EOF
	}

	if !l.started {
		ev, err := l.parser.Next()
		if err != nil {
			return nil, l.fail(err)
		}
		if ev.Type != yamlh.StreamStartEvent {
			return nil, l.fail(&yamlh.ComposerError{
				Problem:     fmt.Sprintf("expected stream start, got %v", ev.Type),
				ProblemMark: ev.Start,
			})
		}
		l.started = true
	}

	next, err := l.parser.Peek()
	if err != nil {
		return nil, l.fail(err)
	}
	if next.Type == yamlh.StreamEndEvent {
		if _, err := l.parser.Next(); err != nil {
			return nil, l.fail(err)
		}
		l.done = true
		return nil, io.EOF
	}

	c := newComposer(l.parser, l.resolver, l.constructor)
	node, err := c.composeDocument()
	if err != nil {
		return nil, l.fail(err)
	}
	return node, nil
}

func (l *Loader) fail(err error) error {
	l.err = err
	return err
}

// LoadAll returns every remaining document.
func (l *Loader) LoadAll() ([]*Node, error) {
	var docs []*Node
	for {
		doc, err := l.Load()
		if err == io.EOF {
			return docs, nil
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
}

// Load returns the documents of data.
func Load(data []byte) ([]*Node, error) {
	l, err := NewLoaderBytes(data)
	if err != nil {
		return nil, err
	}
	return l.LoadAll()
}

// LoadString returns the documents of s.
func LoadString(s string) ([]*Node, error) {
	return Load([]byte(s))
}

// Dumper writes node trees as a YAML stream.
type Dumper struct {
	// Canonical forces explicit tags, double-quoted scalars, and flow
	// collections.
	Canonical bool

	// Indent is the indentation increment, 2 through 9. Out-of-range
	// values fall back to 2.
	Indent int

	// TextWidth is the preferred maximum line length. Non-positive
	// means unlimited.
	TextWidth int

	// LineBreak selects the output line break characters.
	LineBreak LineBreak

	// ExplicitStart and ExplicitEnd force the '---' and '...' document
	// markers.
	ExplicitStart bool
	ExplicitEnd   bool

	// Version, when non-empty, emits a %YAML directive. Only major
	// version 1 is accepted.
	Version string

	// TagDirectives are emitted as %TAG directives and used to shorten
	// matching tags.
	TagDirectives []TagDirective

	writer      io.Writer
	representer *Representer
}

// NewDumper returns a dumper writing to w with the defaults: indent 2,
// width 80, Unix breaks, no explicit markers.
func NewDumper(w io.Writer) *Dumper {
	return &Dumper{
		Indent:      2,
		TextWidth:   80,
		LineBreak:   UnixBreak,
		writer:      w,
		representer: NewRepresenter(),
	}
}

// Representer returns the dumper's representer registry for user value
// registrations.
func (d *Dumper) Representer() *Representer {
	return d.representer
}

// Dump writes the given documents as one YAML stream.
func (d *Dumper) Dump(nodes ...*Node) error {
	em := emitter.New(d.writer)
	em.SetCanonical(d.Canonical)
	em.SetIndent(d.Indent)
	em.SetWidth(d.TextWidth)
	em.SetBreak(d.LineBreak)

	version, err := parseVersion(d.Version)
	if err != nil {
		return err
	}

	s := &serializer{
		emitter:       em,
		resolver:      resolve.NewResolver(),
		representer:   d.representer,
		explicitStart: d.ExplicitStart || d.Canonical,
		explicitEnd:   d.ExplicitEnd,
		version:       version,
		tagDirectives: d.TagDirectives,
	}
	if err := s.open(); err != nil {
		return err
	}
	for _, n := range nodes {
		if err := s.serialize(n); err != nil {
			return err
		}
	}
	return s.close()
}

func parseVersion(v string) (*yamlh.VersionDirective, error) {
	if v == "" {
		return nil, nil
	}
	major, minor, ok := strings.Cut(v, ".")
	if !ok {
		return nil, &yamlh.EmitterError{Problem: fmt.Sprintf("invalid YAML version %q", v)}
	}
	ma, err1 := strconv.Atoi(major)
	mi, err2 := strconv.Atoi(minor)
	if err1 != nil || err2 != nil || ma != 1 || mi < 0 || mi > 127 {
		return nil, &yamlh.EmitterError{Problem: fmt.Sprintf("invalid YAML version %q", v)}
	}
	return &yamlh.VersionDirective{Major: int8(ma), Minor: int8(mi)}, nil
}

// Dump writes nodes to w with the default configuration.
func Dump(w io.Writer, nodes ...*Node) error {
	return NewDumper(w).Dump(nodes...)
}

// DumpString renders nodes with the default configuration.
func DumpString(nodes ...*Node) (string, error) {
	var b strings.Builder
	if err := NewDumper(&b).Dump(nodes...); err != nil {
		return "", err
	}
	return b.String(), nil
}
