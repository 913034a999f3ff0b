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

package resolve

import (
	"regexp"
	"strings"

	"github.com/yamlkit/yaml/internal/yamlh"
)

// Kind of the node being resolved.
type Kind int8

const (
	ScalarKind Kind = iota
	SequenceKind
	MappingKind
)

// A rule maps a scalar's textual form to an implicit tag. The first-
// character set is a cheap pre-filter before the regular expression runs.
type rule struct {
	re    *regexp.Regexp
	tag   string
	first string
}

// The YAML 1.1 implicit tag rules, in registration order. Earlier rules
// win; user rules are consulted after these so they cannot shadow the
// core schema.
var defaultRules = []rule{
	{
		re:    regexp.MustCompile(`^(?:yes|Yes|YES|no|No|NO|true|True|TRUE|false|False|FALSE|on|On|ON|off|Off|OFF|y|Y|n|N)$`),
		tag:   yamlh.BoolTag,
		first: "yYnNtTfFoO",
	},
	{
		re:    regexp.MustCompile(`^(?:[-+]?0b[0-1_]+|[-+]?0x[0-9a-fA-F_]+|[-+]?0[0-7_]+|[-+]?(?:0|[1-9][0-9_]*)|[-+]?[1-9][0-9_]*(?::[0-5]?[0-9])+)$`),
		tag:   yamlh.IntTag,
		first: "-+0123456789",
	},
	{
		re: regexp.MustCompile(`^(?:[-+]?(?:[0-9][0-9_]*)\.[0-9_]*(?:[eE][-+]?[0-9]+)?` +
			`|\.[0-9_]+(?:[eE][-+]?[0-9]+)?` +
			`|[-+]?[0-9][0-9_]*(?::[0-5]?[0-9])+\.[0-9_]*` +
			`|[-+]?\.(?:inf|Inf|INF)` +
			`|\.(?:nan|NaN|NAN))$`),
		tag:   yamlh.FloatTag,
		first: "-+0123456789.",
	},
	{
		re:    regexp.MustCompile(`^(?:~|null|Null|NULL|)$`),
		tag:   yamlh.NullTag,
		first: "~nN\x00",
	},
	{
		re: regexp.MustCompile(`^(?:[0-9][0-9][0-9][0-9]-[0-9][0-9]-[0-9][0-9]` +
			`|[0-9][0-9][0-9][0-9]-[0-9][0-9]?-[0-9][0-9]?(?:[Tt]|[ \t]+)[0-9][0-9]?` +
			`:[0-9][0-9]:[0-9][0-9](?:\.[0-9]*)?` +
			`(?:[ \t]*(?:Z|[-+][0-9][0-9]?(?::[0-9][0-9])?))?)$`),
		tag:   yamlh.TimestampTag,
		first: "0123456789",
	},
	{
		re:    regexp.MustCompile(`^(?:<<)$`),
		tag:   yamlh.MergeTag,
		first: "<",
	},
	{
		re:    regexp.MustCompile(`^(?:=)$`),
		tag:   yamlh.ValueTag,
		first: "=",
	},
}

// Resolver decides the tag of untagged nodes. The default rule table is
// process-wide and immutable; user rules live on the instance.
type Resolver struct {
	userRules []rule
}

// NewResolver returns a resolver with the YAML 1.1 rules and no user
// rules.
func NewResolver() *Resolver {
	return &Resolver{}
}

// AddRule registers an implicit resolution rule for plain scalars whose
// first character is in first and whose full text matches pattern. User
// rules are consulted after the YAML 1.1 set.
func (r *Resolver) AddRule(tag, pattern, first string) error {
	if tag == "" {
		return &yamlh.ResolverError{Problem: "cannot register a resolver rule with an empty tag"}
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return &yamlh.ResolverError{Problem: "cannot compile resolver rule pattern: " + err.Error()}
	}
	r.userRules = append(r.userRules, rule{re: re, tag: tag, first: first})
	return nil
}

// Resolve returns the tag for a node: the explicit tag when one is given,
// the kind's default tag for collections, non-specific or non-implicit
// scalars, and otherwise the first matching implicit rule.
func (r *Resolver) Resolve(kind Kind, tag, value string, implicit bool) string {
	if tag != "" && tag != yamlh.NonSpecificTag {
		return tag
	}
	switch kind {
	case SequenceKind:
		return yamlh.DefaultSequenceTag
	case MappingKind:
		return yamlh.DefaultMappingTag
	}
	if !implicit || tag == yamlh.NonSpecificTag {
		return yamlh.DefaultScalarTag
	}

	for _, rl := range defaultRules {
		if matchRule(rl, value) {
			return rl.tag
		}
	}
	for _, rl := range r.userRules {
		if matchRule(rl, value) {
			return rl.tag
		}
	}
	return yamlh.DefaultScalarTag
}

func matchRule(rl rule, value string) bool {
	if value == "" {
		// The empty scalar is matchable only by rules that opted into it
		// with a NUL in their first-character set.
		if !strings.Contains(rl.first, "\x00") {
			return false
		}
	} else if !strings.Contains(rl.first, value[:1]) {
		return false
	}
	return rl.re.MatchString(value)
}
