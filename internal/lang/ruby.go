package lang

import (
	"github.com/smacker/go-tree-sitter/ruby"
)

// Ruby is the only language rspeclint inspects.
var Ruby = &Language{
	Name:       "ruby",
	Extensions: []string{".rb"},
	lang:       ruby.GetLanguage(),
}
