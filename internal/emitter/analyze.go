package emitter

import (
	"strings"
	"unicode/utf8"

	"github.com/yamlkit/yaml/internal/common"
	"github.com/yamlkit/yaml/internal/yamlh"
)

func analyzeVersionDirective(version *yamlh.VersionDirective) error {
	if version.Major != 1 {
		return &yamlh.EmitterError{Problem: "incompatible %YAML directive"}
	}
	return nil
}

func analyzeTagDirective(dir yamlh.TagDirective) error {
	if dir.Handle == "" {
		return &yamlh.EmitterError{Problem: "tag handle must not be empty"}
	}
	if dir.Handle[0] != '!' {
		return &yamlh.EmitterError{Problem: "tag handle must start with '!'"}
	}
	if dir.Handle[len(dir.Handle)-1] != '!' {
		return &yamlh.EmitterError{Problem: "tag handle must end with '!'"}
	}
	for _, r := range dir.Handle[1 : len(dir.Handle)-1] {
		if !common.IsAlpha(r) {
			return &yamlh.EmitterError{Problem: "tag handle must contain alphanumerical characters only"}
		}
	}
	if dir.Prefix == "" {
		return &yamlh.EmitterError{Problem: "tag prefix must not be empty"}
	}
	return nil
}

func (e *Emitter) analyzeAnchor(anchor string, alias bool) error {
	what := "anchor"
	if alias {
		what = "alias"
	}
	if anchor == "" {
		return &yamlh.EmitterError{Problem: what + " value must not be empty"}
	}
	for _, r := range anchor {
		if !common.IsAlpha(r) {
			return &yamlh.EmitterError{Problem: what + " value must contain alphanumerical characters only"}
		}
	}
	e.anchorData.anchor = anchor
	e.anchorData.alias = alias
	return nil
}

// analyzeTag prepares the shortest legal output form: a registered
// directive whose prefix is a prefix of the tag yields handle+suffix;
// anything else is emitted verbatim as '!<uri>'.
func (e *Emitter) analyzeTag(tag string) error {
	if tag == "" {
		return &yamlh.EmitterError{Problem: "tag value must not be empty"}
	}
	if e.canonical {
		// Canonical output spells every tag out in full.
		e.tagData.suffix = tag
		return nil
	}
	for _, dir := range e.tagDirectives {
		if strings.HasPrefix(tag, dir.Prefix) && len(tag) > len(dir.Prefix) {
			e.tagData.handle = dir.Handle
			e.tagData.suffix = tag[len(dir.Prefix):]
			return nil
		}
	}
	e.tagData.suffix = tag
	return nil
}

// analyzeEvent fills the anchor, tag, and scalar analyses the state
// functions consume for the head event.
func (e *Emitter) analyzeEvent(event *yamlh.Event) error {
	e.anchorData.anchor = ""
	e.tagData.handle = ""
	e.tagData.suffix = ""
	e.scalarData.value = ""

	switch event.Type {
	case yamlh.AliasEvent:
		return e.analyzeAnchor(event.Anchor, true)

	case yamlh.ScalarEvent:
		if event.Anchor != "" {
			if err := e.analyzeAnchor(event.Anchor, false); err != nil {
				return err
			}
		}
		if event.Tag != "" && (e.canonical || (!event.Implicit && !event.QuotedImplicit)) {
			if err := e.analyzeTag(event.Tag); err != nil {
				return err
			}
		}
		e.analyzeScalar(event.Value)

	case yamlh.SequenceStartEvent, yamlh.MappingStartEvent:
		if event.Anchor != "" {
			if err := e.analyzeAnchor(event.Anchor, false); err != nil {
				return err
			}
		}
		if event.Tag != "" && (e.canonical || !event.Implicit) {
			if err := e.analyzeTag(event.Tag); err != nil {
				return err
			}
		}
	}
	return nil
}

// analyzeScalar inspects a scalar value and records which output styles
// can express it.
func (e *Emitter) analyzeScalar(value string) {
	var (
		blockIndicators   bool
		flowIndicators    bool
		lineBreaks        bool
		specialCharacters bool
		tabCharacters     bool

		leadingSpace  bool
		leadingBreak  bool
		trailingSpace bool
		trailingBreak bool
		breakSpace    bool
		spaceBreak    bool

		precededByWhitespace bool
		followedByWhitespace bool
		previousSpace        bool
		previousBreak        bool
	)

	e.scalarData.value = value

	if value == "" {
		e.scalarData.multiline = false
		e.scalarData.flowPlainAllowed = false
		e.scalarData.blockPlainAllowed = true
		e.scalarData.singleQuotedAllowed = true
		e.scalarData.blockAllowed = false
		return
	}

	if strings.HasPrefix(value, "---") || strings.HasPrefix(value, "...") {
		blockIndicators = true
		flowIndicators = true
	}

	precededByWhitespace = true
	for i, w := 0, 0; i < len(value); i += w {
		r, width := utf8.DecodeRuneInString(value[i:])
		w = width

		next, _ := utf8.DecodeRuneInString(value[i+w:])
		if i+w >= len(value) {
			next = common.EOF
		}
		followedByWhitespace = common.IsBlankZ(next)

		if i == 0 {
			switch r {
			case '#', ',', '[', ']', '{', '}', '&', '*', '!', '|', '>', '\'', '"', '%', '@', '`':
				flowIndicators = true
				blockIndicators = true
			case '?', ':':
				flowIndicators = true
				if followedByWhitespace {
					blockIndicators = true
				}
			case '-':
				if followedByWhitespace {
					flowIndicators = true
					blockIndicators = true
				}
			}
		} else {
			switch r {
			case ',', '?', '[', ']', '{', '}':
				flowIndicators = true
			case ':':
				flowIndicators = true
				if followedByWhitespace {
					blockIndicators = true
				}
			case '#':
				if precededByWhitespace {
					flowIndicators = true
					blockIndicators = true
				}
			}
		}

		if r == '\t' {
			tabCharacters = true
		} else if !common.IsPrintable(r) || r == 0xfeff {
			specialCharacters = true
		}

		switch {
		case r == ' ':
			if i == 0 {
				leadingSpace = true
			}
			if i+w == len(value) {
				trailingSpace = true
			}
			if previousBreak {
				breakSpace = true
			}
			previousSpace = true
			previousBreak = false
		case common.IsBreak(r):
			lineBreaks = true
			if i == 0 {
				leadingBreak = true
			}
			if i+w == len(value) {
				trailingBreak = true
			}
			if previousSpace {
				spaceBreak = true
			}
			previousSpace = false
			previousBreak = true
		default:
			previousSpace = false
			previousBreak = false
		}

		precededByWhitespace = common.IsBlankZ(r)
	}

	e.scalarData.multiline = lineBreaks
	e.scalarData.flowPlainAllowed = true
	e.scalarData.blockPlainAllowed = true
	e.scalarData.singleQuotedAllowed = true
	e.scalarData.blockAllowed = true

	if leadingSpace || leadingBreak || trailingSpace || trailingBreak {
		e.scalarData.flowPlainAllowed = false
		e.scalarData.blockPlainAllowed = false
	}
	if trailingSpace {
		e.scalarData.blockAllowed = false
	}
	if breakSpace {
		e.scalarData.flowPlainAllowed = false
		e.scalarData.blockPlainAllowed = false
		e.scalarData.singleQuotedAllowed = false
	}
	if spaceBreak || tabCharacters || specialCharacters {
		e.scalarData.flowPlainAllowed = false
		e.scalarData.blockPlainAllowed = false
		e.scalarData.singleQuotedAllowed = false
	}
	if spaceBreak || specialCharacters {
		e.scalarData.blockAllowed = false
	}
	if lineBreaks {
		e.scalarData.flowPlainAllowed = false
		e.scalarData.blockPlainAllowed = false
	}
	if flowIndicators {
		e.scalarData.flowPlainAllowed = false
	}
	if blockIndicators {
		e.scalarData.blockPlainAllowed = false
	}
}
