package rule

import (
	"fmt"

	"github.com/phobologic/rspeclint/internal/config"
	"github.com/phobologic/rspeclint/internal/model"
)

// Offense messages.
const (
	MsgDefaultArgument = "Omit the argument when you want to have auto-generated description."
	MsgAddDescription  = "Add a description."
)

// Evaluate maps a classification and style to an offense. It is a pure function.
//
// An explicit empty string is reported in every style and takes precedence over
// the missing-description check. A multi-line specify block never needs a
// description: `specify do ... end` reads as a sentence on its own.
func Evaluate(c Classification, style config.Style) (model.Offense, bool) {
	switch c.Kind {
	case NotAnExample:
		return model.Offense{}, false
	case ItExample, SpecifyExample:
	default:
		panic(fmt.Sprintf("rule: unknown example kind %d", c.Kind))
	}

	if c.HasDescription {
		if c.DescriptionIsEmptyString {
			return model.Offense{
				Cop:         model.CopName,
				Message:     MsgDefaultArgument,
				Range:       c.FirstArgumentRange,
				Correctable: true,
			}, true
		}
		return model.Offense{}, false
	}

	if c.Kind == SpecifyExample && !c.SingleLineBlock {
		return model.Offense{}, false
	}

	if !requiresDescription(style, c.SingleLineBlock) {
		return model.Offense{}, false
	}
	return model.Offense{
		Cop:     model.CopName,
		Message: MsgAddDescription,
		Range:   c.CallRange,
	}, true
}

func requiresDescription(style config.Style, singleLine bool) bool {
	switch style {
	case config.AlwaysAllow:
		return false
	case config.SingleLineOnly:
		return !singleLine
	case config.Disallow:
		return true
	default:
		panic(fmt.Sprintf("rule: unvalidated style %q", style))
	}
}
