package battery

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// scriptTag is one <script src> element of the delivered document.
type scriptTag struct {
	Src       string `json:"src"`
	Integrity string `json:"integrity,omitempty"`
}

// parseHTML parses the bounded body; returns nil when the body is empty or
// unparseable. x/net/html is lenient, so nil effectively means empty.
func parseHTML(body []byte) *html.Node {
	if len(body) == 0 {
		return nil
	}
	node, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil
	}
	return node
}

func walk(node *html.Node, visit func(*html.Node)) {
	if node == nil {
		return
	}
	visit(node)
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		walk(child, visit)
	}
}

func attr(node *html.Node, name string) (string, bool) {
	for _, a := range node.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}

// metaCSPValues extracts the content of `<meta http-equiv="Content-Security-Policy">`
// tags, in document order.
func metaCSPValues(body []byte) []string {
	var values []string
	walk(parseHTML(body), func(node *html.Node) {
		if node.Type != html.ElementNode || node.Data != "meta" {
			return
		}
		equiv, ok := attr(node, "http-equiv")
		if !ok || !strings.EqualFold(equiv, "content-security-policy") {
			return
		}
		if content, ok := attr(node, "content"); ok {
			values = append(values, content)
		}
	})
	return values
}

// metaReferrerValue extracts the last `<meta name="referrer">` content.
func metaReferrerValue(body []byte) (string, bool) {
	value, found := "", false
	walk(parseHTML(body), func(node *html.Node) {
		if node.Type != html.ElementNode || node.Data != "meta" {
			return
		}
		name, ok := attr(node, "name")
		if !ok || !strings.EqualFold(name, "referrer") {
			return
		}
		if content, ok := attr(node, "content"); ok {
			value, found = content, true
		}
	})
	return value, found
}

// scriptTags extracts every script element carrying a src attribute.
func scriptTags(body []byte) []scriptTag {
	var tags []scriptTag
	walk(parseHTML(body), func(node *html.Node) {
		if node.Type != html.ElementNode || node.Data != "script" {
			return
		}
		src, ok := attr(node, "src")
		if !ok || strings.TrimSpace(src) == "" {
			return
		}
		integrity, _ := attr(node, "integrity")
		tags = append(tags, scriptTag{Src: src, Integrity: strings.TrimSpace(integrity)})
	})
	return tags
}
