// Copyright 2026 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

// Package htmlutils turns HTML fragments into plain text.
package htmlutils

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Text returns the visible text of an HTML fragment with whitespace collapsed.
// Plain text goes through unchanged apart from entity decoding and whitespace
// collapsing. Script and style contents are dropped.
func Text(s string) string {
	if !strings.ContainsRune(s, '<') {
		return collapse(html.UnescapeString(s))
	}

	nodes, err := html.ParseFragment(strings.NewReader(s), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return collapse(html.UnescapeString(s))
	}

	sb := strings.Builder{}
	for _, n := range nodes {
		Node2string(n, &sb)
	}

	return collapse(sb.String())
}

// Node2string appends the text nodes below n to sb, separated by spaces.
func Node2string(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		tmp := strings.TrimSpace(n.Data)
		if tmp == "" {
			return
		}

		if sb.Len() != 0 {
			sb.WriteByte(' ')
		}

		sb.WriteString(tmp)
	case html.ElementNode:
		if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
			return
		}

		fallthrough
	default:
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			Node2string(child, sb)
		}
	}
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
