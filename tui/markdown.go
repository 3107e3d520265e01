// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// messageParserInstance is initialized once and reused. The parser
// configuration never changes and the goldmark Parser is safe to
// share; parsing creates per-call state via Parse(reader).
var (
	messageParserInstance goldmark.Markdown
	messageParserOnce     sync.Once
)

func getMessageParser() goldmark.Markdown {
	messageParserOnce.Do(func() {
		messageParserInstance = goldmark.New(
			goldmark.WithExtensions(
				extension.Strikethrough,
				extension.Linkify,
			),
		)
	})
	return messageParserInstance
}

// renderMessageMarkdown parses a message body as markdown and renders
// it as styled terminal text wrapped to width. Chat messages are
// short, so the supported surface is the one people actually type:
// emphasis, strikethrough, inline code, fenced code blocks,
// blockquotes, lists, and links.
func renderMessageMarkdown(input string, theme Theme, width int) string {
	if input == "" {
		return ""
	}
	source := []byte(input)
	reader := text.NewReader(source)
	document := getMessageParser().Parser().Parse(reader)

	// Force ANSI256: this output is always for the bubbletea display,
	// so auto-detection (which sees no TTY under tests) is bypassed.
	lipRenderer := lipgloss.NewRenderer(os.Stderr, termenv.WithProfile(termenv.ANSI256))
	lipRenderer.SetColorProfile(termenv.ANSI256)

	renderer := &messageRenderer{
		source:      source,
		theme:       theme,
		width:       width,
		lipRenderer: lipRenderer,
	}
	ast.Walk(document, renderer.walk)

	return strings.TrimRight(renderer.output.String(), "\n")
}

// messageRenderer walks a goldmark AST and produces styled terminal
// text. Inline content accumulates in a buffer and is word-wrapped as
// a unit when the containing block closes.
type messageRenderer struct {
	source []byte
	theme  Theme
	width  int

	output strings.Builder
	inline strings.Builder

	// Prefix applied to every emitted line (blockquote bars, list
	// indents). bullet, when set, replaces the prefix for the next
	// line only.
	prefix      string
	prefixWidth int
	bullet      string

	// Style counters rather than booleans so nested emphasis
	// balances.
	boldCount          int
	italicCount        int
	strikethroughCount int

	listDepth   int
	listCounter []int // Per-depth ordered-list counters; 0 for bullet lists.

	lipRenderer *lipgloss.Renderer
}

func (renderer *messageRenderer) newStyle() lipgloss.Style {
	return renderer.lipRenderer.NewStyle()
}

func (renderer *messageRenderer) currentWidth() int {
	width := renderer.width - renderer.prefixWidth
	if width < 10 {
		width = 10
	}
	return width
}

func (renderer *messageRenderer) styledText(content string) string {
	style := renderer.newStyle().Foreground(renderer.theme.NormalText)
	if renderer.boldCount > 0 {
		style = style.Bold(true)
	}
	if renderer.italicCount > 0 {
		style = style.Italic(true)
	}
	if renderer.strikethroughCount > 0 {
		style = style.Strikethrough(true)
	}
	return style.Render(content)
}

// flushInline word-wraps the accumulated inline content, applies line
// prefixes, and writes it to the output followed by a newline.
func (renderer *messageRenderer) flushInline() {
	content := renderer.inline.String()
	renderer.inline.Reset()
	if content == "" {
		return
	}

	wrapped := ansi.Wrap(content, renderer.currentWidth(), " ,.;-+|")
	for index, line := range strings.Split(wrapped, "\n") {
		if index == 0 && renderer.bullet != "" {
			renderer.output.WriteString(renderer.bullet)
			renderer.bullet = ""
		} else {
			renderer.output.WriteString(renderer.prefix)
		}
		renderer.output.WriteString(line)
		renderer.output.WriteString("\n")
	}
}

// blockLines returns the raw text of a code block node.
func (renderer *messageRenderer) blockLines(node ast.Node) string {
	var content strings.Builder
	lines := node.Lines()
	for index := 0; index < lines.Len(); index++ {
		segment := lines.At(index)
		content.Write(segment.Value(renderer.source))
	}
	return content.String()
}

// renderCode emits a code block, syntax-highlighted when the fence
// named a language chroma knows.
func (renderer *messageRenderer) renderCode(code, language string) {
	code = strings.TrimRight(code, "\n")

	highlighted := ""
	if language != "" {
		var buffer strings.Builder
		if err := quick.Highlight(&buffer, code, language, "terminal256", renderer.theme.SyntaxTheme); err == nil {
			highlighted = strings.TrimRight(buffer.String(), "\n")
		}
	}
	if highlighted == "" {
		highlighted = renderer.newStyle().Foreground(renderer.theme.FaintText).Render(code)
	}

	for _, line := range strings.Split(highlighted, "\n") {
		renderer.output.WriteString(renderer.prefix)
		renderer.output.WriteString("  ")
		renderer.output.WriteString(line)
		renderer.output.WriteString("\x1b[0m\n")
	}
}

func (renderer *messageRenderer) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node.Kind() {

	case ast.KindDocument:

	case ast.KindParagraph, ast.KindTextBlock:
		if entering {
			renderer.inline.Reset()
		} else {
			renderer.flushInline()
		}

	case ast.KindHeading:
		if entering {
			renderer.inline.Reset()
		} else {
			// Chat headings render as bold text; terminal output has
			// no font sizes.
			content := ansi.Strip(renderer.inline.String())
			renderer.inline.Reset()
			renderer.inline.WriteString(renderer.newStyle().
				Foreground(renderer.theme.HeaderForeground).
				Bold(true).
				Render(content))
			renderer.flushInline()
		}

	case ast.KindFencedCodeBlock:
		if entering {
			block := node.(*ast.FencedCodeBlock)
			language := ""
			if block.Info != nil {
				language = string(block.Info.Segment.Value(renderer.source))
			}
			renderer.renderCode(renderer.blockLines(block), language)
			return ast.WalkSkipChildren, nil
		}

	case ast.KindCodeBlock:
		if entering {
			renderer.renderCode(renderer.blockLines(node), "")
			return ast.WalkSkipChildren, nil
		}

	case ast.KindBlockquote:
		bar := renderer.newStyle().Foreground(renderer.theme.BorderColor).Render("│ ")
		if entering {
			renderer.prefix += bar
			renderer.prefixWidth += 2
		} else {
			renderer.prefix = renderer.prefix[:len(renderer.prefix)-len(bar)]
			renderer.prefixWidth -= 2
		}

	case ast.KindList:
		if entering {
			renderer.listDepth++
			start := 0
			if list := node.(*ast.List); list.IsOrdered() {
				start = list.Start
				if start == 0 {
					start = 1
				}
			}
			renderer.listCounter = append(renderer.listCounter, start)
		} else {
			renderer.listDepth--
			renderer.listCounter = renderer.listCounter[:len(renderer.listCounter)-1]
		}

	case ast.KindListItem:
		if entering {
			indent := strings.Repeat("  ", renderer.listDepth-1)
			counter := renderer.listCounter[len(renderer.listCounter)-1]
			marker := "• "
			if counter > 0 {
				marker = renderer.newStyle().Foreground(renderer.theme.FaintText).
					Render(strconv.Itoa(counter) + ". ")
				renderer.listCounter[len(renderer.listCounter)-1]++
			} else {
				marker = renderer.newStyle().Foreground(renderer.theme.FaintText).Render(marker)
			}
			renderer.bullet = renderer.prefix + indent + marker
			renderer.prefix += indent + "  "
			renderer.prefixWidth += len(indent) + 2
		} else {
			indent := strings.Repeat("  ", renderer.listDepth-1)
			renderer.prefix = renderer.prefix[:len(renderer.prefix)-len(indent)-2]
			renderer.prefixWidth -= len(indent) + 2
			renderer.bullet = ""
		}

	case ast.KindThematicBreak:
		if entering {
			renderer.output.WriteString(renderer.newStyle().
				Foreground(renderer.theme.BorderColor).
				Render(strings.Repeat("─", renderer.currentWidth())))
			renderer.output.WriteString("\n")
		}

	case ast.KindText:
		if entering {
			textNode := node.(*ast.Text)
			renderer.inline.WriteString(renderer.styledText(string(textNode.Segment.Value(renderer.source))))
			// Soft breaks become spaces so hard-wrapped source
			// reflows at the terminal width; hard breaks stay.
			if textNode.HardLineBreak() {
				renderer.inline.WriteString("\n")
			} else if textNode.SoftLineBreak() {
				renderer.inline.WriteString(" ")
			}
		}

	case ast.KindString:
		if entering {
			renderer.inline.WriteString(renderer.styledText(string(node.(*ast.String).Value)))
		}

	case ast.KindEmphasis:
		emphasis := node.(*ast.Emphasis)
		delta := 1
		if !entering {
			delta = -1
		}
		if emphasis.Level >= 2 {
			renderer.boldCount += delta
		} else {
			renderer.italicCount += delta
		}

	case ast.KindCodeSpan:
		if entering {
			var code strings.Builder
			for child := node.FirstChild(); child != nil; child = child.NextSibling() {
				if textNode, ok := child.(*ast.Text); ok {
					code.Write(textNode.Segment.Value(renderer.source))
				}
			}
			renderer.inline.WriteString(renderer.newStyle().
				Foreground(renderer.theme.Reaction).
				Render(code.String()))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindLink:
		if entering {
			link := node.(*ast.Link)
			label := renderer.plainChildText(link)
			destination := string(link.Destination)
			linkStyle := renderer.newStyle().Foreground(renderer.theme.LinkForeground).Underline(true)
			if label != "" && label != destination {
				renderer.inline.WriteString(renderer.styledText(label) + " ")
				renderer.inline.WriteString(linkStyle.Render("(" + destination + ")"))
			} else {
				renderer.inline.WriteString(linkStyle.Render(destination))
			}
			return ast.WalkSkipChildren, nil
		}

	case ast.KindAutoLink:
		if entering {
			autoLink := node.(*ast.AutoLink)
			renderer.inline.WriteString(renderer.newStyle().
				Foreground(renderer.theme.LinkForeground).
				Underline(true).
				Render(string(autoLink.URL(renderer.source))))
		}

	case ast.KindImage:
		if entering {
			image := node.(*ast.Image)
			renderer.inline.WriteString(renderer.newStyle().
				Foreground(renderer.theme.LinkForeground).
				Render("[image: " + string(image.Destination) + "]"))
			return ast.WalkSkipChildren, nil
		}

	case extast.KindStrikethrough:
		if entering {
			renderer.strikethroughCount++
		} else {
			renderer.strikethroughCount--
		}
	}

	return ast.WalkContinue, nil
}

// plainChildText collects the unstyled text of a node's children.
func (renderer *messageRenderer) plainChildText(node ast.Node) string {
	var content strings.Builder
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		if textNode, ok := child.(*ast.Text); ok {
			content.Write(textNode.Segment.Value(renderer.source))
		}
	}
	return content.String()
}
