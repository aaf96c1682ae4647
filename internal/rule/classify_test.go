package rule

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/rspeclint/internal/config"
	"github.com/phobologic/rspeclint/internal/lang"
	"github.com/phobologic/rspeclint/internal/parse"
)

// annotation is an expected offense written under its source line:
//
//	it '' do
//	   ^^ Omit the argument when you want to have auto-generated description.
type annotation struct {
	Line    int
	Column  int
	Length  int
	Message string
}

// splitAnnotated strips caret lines from src and returns the plain source and
// the annotations they described.
func splitAnnotated(src string) (string, []annotation) {
	var (
		lines []string
		want  []annotation
	)
	for _, line := range strings.Split(src, "\n") {
		trimmed := strings.TrimLeft(line, " ")
		if strings.HasPrefix(trimmed, "^") && len(lines) > 0 {
			carets := len(trimmed) - len(strings.TrimLeft(trimmed, "^"))
			want = append(want, annotation{
				Line:    len(lines),
				Column:  len(line) - len(trimmed) + 1,
				Length:  carets,
				Message: strings.TrimSpace(trimmed[carets:]),
			})
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), want
}

// inspect classifies and evaluates every call in source.
func inspect(t *testing.T, source string, style config.Style) []annotation {
	t.Helper()
	q, err := lang.Ruby.GetCallQuery()
	if err != nil {
		t.Fatalf("GetCallQuery: %v", err)
	}
	p := lang.Ruby.NewParser()
	defer p.Close()

	src := []byte(source)
	var got []annotation
	err = parse.Calls(context.Background(), p, q, src, func(call, _ *sitter.Node) {
		off, ok := Evaluate(Classify(call, src), style)
		if !ok {
			return
		}
		got = append(got, annotation{
			Line:    off.Range.Start.Line,
			Column:  off.Range.Start.Column,
			Length:  off.Range.Len(),
			Message: off.Message,
		})
	})
	if err != nil {
		t.Fatalf("Calls: %v", err)
	}
	return got
}

func expectOffense(t *testing.T, style config.Style, annotated string) {
	t.Helper()
	source, want := splitAnnotated(annotated)
	got := inspect(t, source, style)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("offenses mismatch (-want +got):\n%s\nsource:\n%s", diff, source)
	}
}

func expectNoOffenses(t *testing.T, style config.Style, source string) {
	t.Helper()
	if got := inspect(t, source, style); len(got) != 0 {
		t.Errorf("expected no offenses, got %+v\nsource:\n%s", got, source)
	}
}

func TestAlwaysAllow(t *testing.T) {
	t.Parallel()
	style := config.AlwaysAllow

	t.Run("flags it with an empty string", func(t *testing.T) {
		t.Parallel()
		expectOffense(t, style, `it '' do
   ^^ Omit the argument when you want to have auto-generated description.
  expect(subject).to be_good
end
`)
	})

	t.Run("ignores it with a description", func(t *testing.T) {
		t.Parallel()
		expectNoOffenses(t, style, `it 'is good' do
  expect(subject).to be_good
end
`)
	})

	t.Run("ignores it without an argument", func(t *testing.T) {
		t.Parallel()
		expectNoOffenses(t, style, `it do
  expect(subject).to be_good
end
`)
	})

	t.Run("flags specify with an empty string", func(t *testing.T) {
		t.Parallel()
		expectOffense(t, style, `specify '' do
        ^^ Omit the argument when you want to have auto-generated description.
  expect(subject).to be_good
end
`)
	})

	t.Run("ignores specify without an argument", func(t *testing.T) {
		t.Parallel()
		expectNoOffenses(t, style, `specify do
  expect(subject).to be_good
end
`)
	})

	t.Run("ignores specify with a description", func(t *testing.T) {
		t.Parallel()
		expectNoOffenses(t, style, `specify 'is good' do
  expect(subject).to be_good
end
`)
	})
}

func TestSingleLineOnly(t *testing.T) {
	t.Parallel()
	style := config.SingleLineOnly

	t.Run("flags it missing description in multi-line examples", func(t *testing.T) {
		t.Parallel()
		expectOffense(t, style, `it do
^^ Add a description.
  expect(subject).to be_good
end
`)
	})

	t.Run("ignores it missing description in single-line examples", func(t *testing.T) {
		t.Parallel()
		expectNoOffenses(t, style, "it { expect(subject).to be_good }\n")
	})

	t.Run("flags it with an empty string", func(t *testing.T) {
		t.Parallel()
		expectOffense(t, style, `it('') { expect(subject).to be_good }
   ^^ Omit the argument when you want to have auto-generated description.
`)
	})

	t.Run("ignores specify missing description in multi-line examples", func(t *testing.T) {
		t.Parallel()
		expectNoOffenses(t, style, `specify do
  expect(subject).to be_good
end
`)
	})

	t.Run("ignores specify missing description in single-line examples", func(t *testing.T) {
		t.Parallel()
		expectNoOffenses(t, style, "specify { expect(subject).to be_good }\n")
	})

	t.Run("flags specify with an empty string", func(t *testing.T) {
		t.Parallel()
		expectOffense(t, style, `specify('') { expect(subject).to be_good }
        ^^ Omit the argument when you want to have auto-generated description.
`)
	})
}

func TestDisallow(t *testing.T) {
	t.Parallel()
	style := config.Disallow

	t.Run("flags it missing description in multi-line examples", func(t *testing.T) {
		t.Parallel()
		expectOffense(t, style, `it do
^^ Add a description.
  expect(subject).to be_good
end
`)
	})

	t.Run("flags it missing description in single-line examples", func(t *testing.T) {
		t.Parallel()
		expectOffense(t, style, `it { expect(subject).to be_good }
^^ Add a description.
`)
	})

	t.Run("ignores it with a description", func(t *testing.T) {
		t.Parallel()
		expectNoOffenses(t, style, `it 'is good' do
  expect(subject).to be_good
end
`)
	})

	t.Run("ignores specify missing description in multi-line examples", func(t *testing.T) {
		t.Parallel()
		expectNoOffenses(t, style, `specify do
  expect(subject).to be_good
end
`)
	})

	t.Run("flags specify missing description in single-line examples", func(t *testing.T) {
		t.Parallel()
		expectOffense(t, style, `specify { expect(subject).to be_good }
^^^^^^^ Add a description.
`)
	})

	t.Run("ignores specify with a description", func(t *testing.T) {
		t.Parallel()
		expectNoOffenses(t, style, `specify 'is good' do
  expect(subject).to be_good
end
`)
	})

	t.Run("flags nested examples", func(t *testing.T) {
		t.Parallel()
		expectOffense(t, style, `describe User do
  context 'when admin' do
    it { is_expected.to be_admin }
    ^^ Add a description.
  end
end
`)
	})
}

func TestNonExampleCallsNeverOffend(t *testing.T) {
	t.Parallel()

	sources := map[string]string{
		"other callee":          "describe do\n  x\nend\n",
		"pending without block": "it 'is pending'\n",
		"bare it":               "it\n",
		"receiver":              "helper.it { ok }\nhelper.specify do\n  ok\nend\n",
		"splat arguments":       "it(*args) do\n  ok\nend\n",
		"block pass":            "it(&blk)\n",
		"not a call":            "x = ''\n",
	}
	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			for _, style := range config.Styles {
				expectNoOffenses(t, style, src)
			}
		})
	}
}

func TestEmptyHeredocIsNotAnEmptyString(t *testing.T) {
	t.Parallel()

	src := "it <<~TXT do\nTXT\n  expect(subject).to be_good\nend\n"
	for _, style := range config.Styles {
		expectNoOffenses(t, style, src)
	}
}

// firstExampleCall returns the classification of the first it/specify call.
func firstExampleCall(t *testing.T, source string) Classification {
	t.Helper()
	q, err := lang.Ruby.GetCallQuery()
	if err != nil {
		t.Fatalf("GetCallQuery: %v", err)
	}
	p := lang.Ruby.NewParser()
	defer p.Close()

	src := []byte(source)
	var (
		got   Classification
		found bool
	)
	err = parse.Calls(context.Background(), p, q, src, func(call, name *sitter.Node) {
		n := lang.NodeText(name, src)
		if found || (n != "it" && n != "specify") {
			return
		}
		found = true
		got = Classify(call, src)
	})
	if err != nil {
		t.Fatalf("Calls: %v", err)
	}
	if !found {
		t.Fatalf("no it/specify call in %q", source)
	}
	return got
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		src        string
		kind       Kind
		hasDesc    bool
		empty      bool
		singleLine bool
	}{
		{"it do-block", "it do\n  ok\nend\n", ItExample, false, false, false},
		{"it brace single-line", "it { ok }\n", ItExample, false, false, true},
		{"it brace multi-line", "it {\n  ok\n}\n", ItExample, false, false, false},
		{"do-block on one line", "it do ok end\n", ItExample, false, false, true},
		{"specify described", "specify 'works' do\n  ok\nend\n", SpecifyExample, true, false, false},
		{"empty single quotes", "it '' do\n  ok\nend\n", ItExample, true, true, false},
		{"empty double quotes", "it(\"\") { ok }\n", ItExample, true, true, true},
		{"interpolated", "it \"#{name}\" do\n  ok\nend\n", ItExample, true, false, false},
		{"whitespace only", "it ' ' do\n  ok\nend\n", ItExample, true, false, false},
		{"variable description", "it description do\n  ok\nend\n", ItExample, true, false, false},
		{"symbol description", "it :shared do\n  ok\nend\n", ItExample, true, false, false},
		{"empty parens", "it() { ok }\n", ItExample, false, false, true},
		{"metadata only", "it focus: true do\n  ok\nend\n", ItExample, true, false, false},
		{"pending", "it 'is pending'\n", NotAnExample, false, false, false},
		{"receiver", "obj.it { ok }\n", NotAnExample, false, false, false},
		{"splat", "it(*args) { ok }\n", NotAnExample, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := firstExampleCall(t, tt.src)
			if c.Kind != tt.kind {
				t.Fatalf("kind = %s, want %s", c.Kind, tt.kind)
			}
			if c.Kind == NotAnExample {
				return
			}
			if c.HasDescription != tt.hasDesc {
				t.Errorf("HasDescription = %v, want %v", c.HasDescription, tt.hasDesc)
			}
			if c.DescriptionIsEmptyString != tt.empty {
				t.Errorf("DescriptionIsEmptyString = %v, want %v", c.DescriptionIsEmptyString, tt.empty)
			}
			if c.SingleLineBlock != tt.singleLine {
				t.Errorf("SingleLineBlock = %v, want %v", c.SingleLineBlock, tt.singleLine)
			}
			if c.DescriptionIsEmptyString && !c.HasDescription {
				t.Error("empty description without description argument")
			}
		})
	}
}

func TestClassifyRanges(t *testing.T) {
	t.Parallel()

	c := firstExampleCall(t, "  it('') { ok }\n")

	if c.CalleeRange.Start.Column != 3 || c.CalleeRange.Len() != 2 {
		t.Errorf("CalleeRange = %+v", c.CalleeRange)
	}
	if c.FirstArgumentRange.Start.Column != 6 || c.FirstArgumentRange.Len() != 2 {
		t.Errorf("FirstArgumentRange = %+v", c.FirstArgumentRange)
	}
	// it('')
	if c.CallRange.Start.Column != 3 || c.CallRange.Len() != 6 {
		t.Errorf("CallRange = %+v", c.CallRange)
	}
	if c.BlockRange.Start.Column != 10 || !c.BlockRange.SingleLine() {
		t.Errorf("BlockRange = %+v", c.BlockRange)
	}
}

func TestClassifyNil(t *testing.T) {
	t.Parallel()

	if got := Classify(nil, nil); got.Kind != NotAnExample {
		t.Errorf("Classify(nil) kind = %s", got.Kind)
	}
}
