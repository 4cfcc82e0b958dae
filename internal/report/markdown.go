package report

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"factsheet/pkg/contracts/domain"
)

// TextPolicy is the fixed styling applied to boilerplate text blocks.
type TextPolicy struct {
	HeadingSize  float64
	HeadingColor string
}

var markdown = goldmark.New()

// StyleMarkdown converts Markdown into styled runs. Headings get the policy's
// size and color in bold, strong emphasis is bold, emphasis italic. Blocks are
// separated by a blank line; list items are bulleted.
func StyleMarkdown(src string, policy TextPolicy) domain.StyledText {
	source := []byte(src)
	doc := markdown.Parser().Parse(text.NewReader(source))

	s := &styler{source: source, policy: policy}
	_ = ast.Walk(doc, s.visit)
	return s.result()
}

type styler struct {
	source  []byte
	policy  TextPolicy
	runs    []domain.TextRun
	heading int
	bold    int
	italic  int
}

func (s *styler) visit(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Heading:
		if entering {
			s.blockBreak()
			s.heading++
		} else {
			s.heading--
		}
	case *ast.Paragraph, *ast.TextBlock:
		if entering && !isTightListChild(n) {
			s.blockBreak()
		}
	case *ast.List:
		if entering {
			s.blockBreak()
		}
	case *ast.ListItem:
		if entering {
			s.lineBreak()
			s.emit("• ")
		}
	case *ast.Emphasis:
		target := &s.italic
		if node.Level >= 2 {
			target = &s.bold
		}
		if entering {
			*target++
		} else {
			*target--
		}
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		if entering {
			s.blockBreak()
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				s.emit(string(seg.Value(s.source)))
			}
			return ast.WalkSkipChildren, nil
		}
	case *ast.Text:
		if entering {
			s.emit(string(node.Segment.Value(s.source)))
			if node.HardLineBreak() || node.SoftLineBreak() {
				s.emit("\n")
			}
		}
	case *ast.String:
		if entering {
			s.emit(string(node.Value))
		}
	}
	return ast.WalkContinue, nil
}

// isTightListChild reports whether n is the paragraph of a tight list item,
// which must stay on the bullet's line.
func isTightListChild(n ast.Node) bool {
	_, ok := n.Parent().(*ast.ListItem)
	return ok
}

func (s *styler) style() domain.TextStyle {
	var st domain.TextStyle
	if s.heading > 0 {
		st.Size = s.policy.HeadingSize
		st.Color = s.policy.HeadingColor
		st.Bold = true
	}
	if s.bold > 0 {
		st.Bold = true
	}
	if s.italic > 0 {
		st.Italic = true
	}
	return st
}

func (s *styler) emit(t string) {
	if t == "" {
		return
	}
	st := s.style()
	if n := len(s.runs); n > 0 && s.runs[n-1].Style == st {
		s.runs[n-1].Text += t
		return
	}
	s.runs = append(s.runs, domain.TextRun{Text: t, Style: st})
}

func (s *styler) endsWith(suffix string) bool {
	if len(s.runs) == 0 {
		return true
	}
	return strings.HasSuffix(s.runs[len(s.runs)-1].Text, suffix)
}

func (s *styler) lineBreak() {
	if !s.endsWith("\n") {
		s.emitPlain("\n")
	}
}

func (s *styler) blockBreak() {
	if len(s.runs) == 0 {
		return
	}
	s.lineBreak()
	if !s.endsWith("\n\n") {
		s.emitPlain("\n")
	}
}

// emitPlain writes separators unstyled so they never enlarge a heading.
func (s *styler) emitPlain(t string) {
	saved := [3]int{s.heading, s.bold, s.italic}
	s.heading, s.bold, s.italic = 0, 0, 0
	s.emit(t)
	s.heading, s.bold, s.italic = saved[0], saved[1], saved[2]
}

func (s *styler) result() domain.StyledText {
	for len(s.runs) > 0 {
		last := &s.runs[len(s.runs)-1]
		last.Text = strings.TrimRight(last.Text, "\n")
		if last.Text != "" {
			break
		}
		s.runs = s.runs[:len(s.runs)-1]
	}
	return domain.StyledText{Runs: s.runs}
}
