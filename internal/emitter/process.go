package emitter

import (
	"github.com/yamlkit/yaml/internal/yamlh"
)

func (e *Emitter) processAnchor() error {
	if e.anchorData.anchor == "" {
		return nil
	}
	indicator := "&"
	if e.anchorData.alias {
		indicator = "*"
	}
	if err := e.writeIndicator(indicator, true, false, false); err != nil {
		return err
	}
	return e.writeAnchor(e.anchorData.anchor)
}

func (e *Emitter) processTag() error {
	if e.tagData.handle == "" && e.tagData.suffix == "" {
		return nil
	}
	if e.tagData.handle != "" {
		if err := e.writeTagHandle(e.tagData.handle); err != nil {
			return err
		}
		if e.tagData.suffix != "" {
			return e.writeTagContent(e.tagData.suffix, false)
		}
		return nil
	}
	if err := e.writeIndicator("!<", true, false, false); err != nil {
		return err
	}
	if err := e.writeTagContent(e.tagData.suffix, false); err != nil {
		return err
	}
	return e.writeIndicator(">", false, false, false)
}

// selectScalarStyle picks the output style for the head scalar event,
// falling through the preference order until the analysis permits one.
func (e *Emitter) selectScalarStyle(event *yamlh.Event) error {
	noTag := e.tagData.handle == "" && e.tagData.suffix == ""
	if noTag && !event.Implicit && !event.QuotedImplicit {
		return &yamlh.EmitterError{Problem: "neither tag nor implicit flags are specified"}
	}

	style := event.ScalarStyle
	if style == yamlh.AnyScalarStyle {
		style = yamlh.PlainScalarStyle
	}
	if e.canonical {
		style = yamlh.DoubleQuotedScalarStyle
	}
	if e.simpleKeyContext && e.scalarData.multiline {
		style = yamlh.DoubleQuotedScalarStyle
	}

	if style == yamlh.PlainScalarStyle {
		if (e.flowLevel > 0 && !e.scalarData.flowPlainAllowed) ||
			(e.flowLevel == 0 && !e.scalarData.blockPlainAllowed) {
			style = yamlh.SingleQuotedScalarStyle
		}
		if e.scalarData.value == "" && (e.flowLevel > 0 || e.simpleKeyContext) {
			style = yamlh.SingleQuotedScalarStyle
		}
		if noTag && !event.Implicit {
			style = yamlh.SingleQuotedScalarStyle
		}
	}
	if style == yamlh.SingleQuotedScalarStyle {
		if !e.scalarData.singleQuotedAllowed {
			style = yamlh.DoubleQuotedScalarStyle
		}
	}
	if style == yamlh.LiteralScalarStyle || style == yamlh.FoldedScalarStyle {
		if !e.scalarData.blockAllowed || e.flowLevel > 0 || e.simpleKeyContext {
			style = yamlh.DoubleQuotedScalarStyle
		}
	}

	// A non-plain style loses the plain-implicit resolution, so an
	// otherwise untagged scalar needs the non-specific '!'.
	if noTag && !event.QuotedImplicit && style != yamlh.PlainScalarStyle {
		e.tagData.handle = "!"
	}
	e.scalarData.style = style
	return nil
}

func (e *Emitter) processScalar() error {
	switch e.scalarData.style {
	case yamlh.PlainScalarStyle:
		return e.writePlainScalar(e.scalarData.value, !e.simpleKeyContext)
	case yamlh.SingleQuotedScalarStyle:
		return e.writeSingleQuotedScalar(e.scalarData.value, !e.simpleKeyContext)
	case yamlh.DoubleQuotedScalarStyle:
		return e.writeDoubleQuotedScalar(e.scalarData.value, !e.simpleKeyContext)
	case yamlh.LiteralScalarStyle:
		return e.writeLiteralScalar(e.scalarData.value)
	case yamlh.FoldedScalarStyle:
		return e.writeFoldedScalar(e.scalarData.value)
	}
	panic("unknown scalar style")
}
