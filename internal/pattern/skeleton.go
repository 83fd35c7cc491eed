// Package pattern fingerprints generated markup by structure and tracks how
// often, and how well, each structure recurs.
package pattern

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/net/html"
)

// Structural roles.
const (
	RoleHeading    = "heading"
	RoleAction     = "action"
	RoleInput      = "input"
	RoleNavigation = "navigation"
	RoleLink       = "link"
	RoleList       = "list"
	RoleItem       = "item"
	RoleMedia      = "media"
	RoleForm       = "form"
	RoleSection    = "section"
	RoleText       = "text"
	RoleContainer  = "container"
)

// HashLength is the number of hex characters kept from the SHA-256 digest.
const HashLength = 16

// skipped elements are dropped with everything inside them.
var skipped = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"head": true, "title": true, "meta": true, "link": true,
}

// transparent elements contribute no node; their children attach to the
// parent. These are document wrappers and inline styling.
var transparent = map[string]bool{
	"html": true, "body": true,
	"b": true, "strong": true, "i": true, "em": true, "u": true,
	"small": true, "mark": true, "br": true, "wbr": true, "hr": true,
}

var tagRoles = map[string]string{
	"h1": RoleHeading, "h2": RoleHeading, "h3": RoleHeading,
	"h4": RoleHeading, "h5": RoleHeading, "h6": RoleHeading,
	"button":   RoleAction,
	"textarea": RoleInput, "select": RoleInput,
	"nav": RoleNavigation,
	"ul":  RoleList, "ol": RoleList,
	"li":  RoleItem,
	"img": RoleMedia, "svg": RoleMedia, "video": RoleMedia, "picture": RoleMedia,
	"form":    RoleForm,
	"section": RoleSection, "article": RoleSection, "header": RoleSection,
	"footer": RoleSection, "main": RoleSection, "aside": RoleSection,
	"p": RoleText, "span": RoleText, "label": RoleText,
}

// voidElements never have an end tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// leafRoles hide their descendants: an icon's paths or a select's options
// are content, not layout.
var leafRoles = map[string]bool{RoleMedia: true, RoleInput: true}

type node struct {
	role     string
	name     string
	children []*node
}

// ExtractSkeleton returns the structural signature of markup: one role per
// element, siblings joined by "+", nesting by ">", and a child group in
// parentheses when it has more than one element. Text, comments, attributes
// and script/style bodies are ignored; attributes only hint at roles.
// Unclosed tags are closed at the end of input.
func ExtractSkeleton(code string) string {
	root := &node{}
	stack := []*node{root}
	skipDepth := 0
	var skipName string

	z := html.NewTokenizer(strings.NewReader(code))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt != html.StartTagToken && tt != html.EndTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		tok := z.Token()
		name := strings.ToLower(tok.Data)

		if skipDepth > 0 {
			if name == skipName {
				switch tt {
				case html.StartTagToken:
					skipDepth++
				case html.EndTagToken:
					skipDepth--
				}
			}
			continue
		}

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			if skipped[name] {
				if tt == html.StartTagToken && !voidElements[name] {
					skipDepth, skipName = 1, name
				}
				continue
			}
			if transparent[name] {
				continue
			}
			parent := stack[len(stack)-1]
			n := &node{role: roleFor(name, tok.Attr), name: name}
			parent.children = append(parent.children, n)
			if tt != html.StartTagToken || voidElements[name] {
				continue
			}
			if leafRoles[n.role] {
				skipDepth, skipName = 1, name
				continue
			}
			stack = append(stack, n)
		case html.EndTagToken:
			if transparent[name] {
				continue
			}
			for i := len(stack) - 1; i > 0; i-- {
				if stack[i].name == name {
					stack = stack[:i]
					break
				}
			}
		}
	}
	return renderGroup(root.children, false)
}

func render(n *node) string {
	if len(n.children) == 0 {
		return n.role
	}
	return n.role + ">" + renderGroup(n.children, true)
}

func renderGroup(nodes []*node, wrap bool) string {
	parts := make([]string, len(nodes))
	for i, c := range nodes {
		parts[i] = render(c)
	}
	s := strings.Join(parts, "+")
	if wrap && len(nodes) > 1 {
		return "(" + s + ")"
	}
	return s
}

func roleFor(name string, attrs []html.Attribute) string {
	switch name {
	case "a":
		if strings.EqualFold(attr(attrs, "role"), "button") {
			return RoleAction
		}
		return RoleLink
	case "input":
		switch strings.ToLower(attr(attrs, "type")) {
		case "submit", "button", "reset":
			return RoleAction
		}
		return RoleInput
	}
	if role, ok := tagRoles[name]; ok {
		return role
	}
	switch strings.ToLower(attr(attrs, "role")) {
	case "button":
		return RoleAction
	case "navigation":
		return RoleNavigation
	case "heading":
		return RoleHeading
	case "list":
		return RoleList
	case "listitem":
		return RoleItem
	}
	return RoleContainer
}

func attr(attrs []html.Attribute, key string) string {
	for _, at := range attrs {
		if strings.EqualFold(at.Key, key) {
			return at.Val
		}
	}
	return ""
}

// Hash returns the truncated hex SHA-256 of a skeleton.
func Hash(skeleton string) string {
	sum := sha256.Sum256([]byte(skeleton))
	return hex.EncodeToString(sum[:])[:HashLength]
}
