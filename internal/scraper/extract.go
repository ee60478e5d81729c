package scraper

import (
	"bytes"
	"mime"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"
	"golang.org/x/text/cases"
)

// Anchor はページ内のリンク1件（hrefとリンクテキスト）。
type Anchor struct {
	Href string
	Text string
}

// jobHrefMarkers はhrefに含まれていれば求人関連とみなす部分文字列（大文字小文字を区別）。
var jobHrefMarkers = []string{"job", "career", "position", "opening"}

// minHintTokenLength はキーワードヒントの単語として扱う最小文字数（これより長いもの）。
const minHintTokenLength = 2

// ExtractAnchors はHTMLからhref属性を持つa要素を出現順に取り出す。
// リンクテキストは子孫のテキストを空白1つで連結したもの。
func ExtractAnchors(body []byte) []Anchor {
	var anchors []Anchor

	tokenizer := html.NewTokenizer(bytes.NewReader(body))
	var current *Anchor
	var texts []string

	flush := func() {
		if current != nil {
			current.Text = strings.Join(texts, " ")
			anchors = append(anchors, *current)
		}
		current = nil
		texts = nil
	}

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			flush()
			return anchors

		case html.StartTagToken:
			tn, hasAttr := tokenizer.TagName()
			if string(tn) != "a" {
				continue
			}
			// a要素は入れ子にできないため、開始タグで直前のaを閉じる
			flush()
			if href, ok := hrefAttr(tokenizer, hasAttr); ok {
				current = &Anchor{Href: href}
			}

		case html.SelfClosingTagToken:
			tn, hasAttr := tokenizer.TagName()
			if string(tn) != "a" {
				continue
			}
			flush()
			if href, ok := hrefAttr(tokenizer, hasAttr); ok {
				anchors = append(anchors, Anchor{Href: href})
			}

		case html.TextToken:
			if current == nil {
				continue
			}
			if text := strings.TrimSpace(string(tokenizer.Text())); text != "" {
				texts = append(texts, text)
			}

		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			if string(tn) == "a" {
				flush()
			}
		}
	}
}

func hrefAttr(tokenizer *html.Tokenizer, hasAttr bool) (string, bool) {
	for hasAttr {
		key, val, more := tokenizer.TagAttr()
		if strings.EqualFold(string(key), "href") {
			return string(val), true
		}
		hasAttr = more
	}
	return "", false
}

// ExtractFeedAnchors はRSS/Atomフィードの各記事をリンクとして取り出す。
// 記事タイトルをリンクテキスト、記事リンクをhrefとして扱う。
func ExtractFeedAnchors(body []byte) ([]Anchor, error) {
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	anchors := make([]Anchor, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		link := item.Link
		if link == "" && len(item.Links) > 0 {
			link = item.Links[0]
		}
		if link == "" {
			continue
		}
		anchors = append(anchors, Anchor{Href: link, Text: item.Title})
	}
	return anchors, nil
}

// FilterLinks は求人らしいリンクを選び、絶対URLに解決して重複を除いたものを出現順に返す。
//
// hintが空文字列でない場合、2文字より長い単語のいずれかがリンクテキストに
// 含まれるものだけを残す（大文字小文字は区別しない）。
// 条件を満たす単語が1つも無いヒント（空白のみを含む）では何も残らない。
func FilterLinks(anchors []Anchor, pageURL, hint string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	tokens, useHint := hintTokens(hint)
	fold := cases.Fold()

	seen := make(map[string]struct{})
	var links []string
	for _, a := range anchors {
		if !hasJobMarker(a.Href) {
			continue
		}
		if useHint && !matchesHint(fold.String(normalizeText(a.Text)), tokens) {
			continue
		}
		full := resolveHref(base, a.Href)
		if _, dup := seen[full]; dup {
			continue
		}
		seen[full] = struct{}{}
		links = append(links, full)
	}
	return links
}

// hintTokens はヒントを比較用の単語に分割する。ヒントが空文字列の場合のみuseHint=false。
// 空白のみや短い単語だけのヒントは比較できる単語が無いため、どのリンクにも一致しない。
func hintTokens(hint string) ([]string, bool) {
	if hint == "" {
		return nil, false
	}
	fold := cases.Fold()
	var tokens []string
	for _, w := range strings.Fields(hint) {
		if utf8.RuneCountInString(w) > minHintTokenLength {
			tokens = append(tokens, fold.String(w))
		}
	}
	return tokens, true
}

func matchesHint(text string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(text, tok) {
			return true
		}
	}
	return false
}

func hasJobMarker(href string) bool {
	for _, m := range jobHrefMarkers {
		if strings.Contains(href, m) {
			return true
		}
	}
	return false
}

// normalizeText は連続する空白を1つにまとめ、前後の空白を除く。
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// resolveHref はhrefをページURLを基準に解決する。
// "//host/path" はページのスキームを補い、"/path" はスキームとホストを補う。
// それ以外（絶対URL、相対パス）はそのまま返す。
func resolveHref(base *url.URL, href string) string {
	switch {
	case strings.HasPrefix(href, "//"):
		return base.Scheme + ":" + href
	case strings.HasPrefix(href, "/"):
		return base.Scheme + "://" + base.Host + href
	default:
		return href
	}
}

var feedContentTypes = []string{
	"application/rss+xml",
	"application/atom+xml",
}

var xmlContentTypes = []string{
	"text/xml",
	"application/xml",
}

// IsFeed はContent-Typeとボディの先頭からRSS/Atomフィードかを判定する。
func IsFeed(contentType string, body []byte) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.Split(contentType, ";")[0])
	}
	mediaType = strings.ToLower(mediaType)

	for _, ct := range feedContentTypes {
		if mediaType == ct {
			return true
		}
	}

	isXML := false
	for _, ct := range xmlContentTypes {
		if mediaType == ct {
			isXML = true
			break
		}
	}
	if !isXML || len(body) == 0 {
		return false
	}

	// 先頭4KBにルート要素が含まれる前提
	prefix := body
	if len(prefix) > 4096 {
		prefix = prefix[:4096]
	}
	head := strings.ToLower(string(prefix))
	if strings.Contains(head, "<rss") || strings.Contains(head, "<rdf:rdf") {
		return true
	}
	return strings.Contains(head, "<feed") && strings.Contains(head, "http://www.w3.org/2005/atom")
}
