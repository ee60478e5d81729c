package scraper

import (
	"slices"
	"testing"
)

func TestExtractAnchors(t *testing.T) {
	body := []byte(`<html><body>
<a href="/jobs/1">  Data
   Scientist </a>
<A HREF="/careers">Careers &amp; Culture</A>
<a name="top">no href</a>
<a href="/openings/2"><span>ML</span><span>Engineer</span></a>
<a href="">empty</a>
</body></html>`)

	got := ExtractAnchors(body)

	want := []Anchor{
		{Href: "/jobs/1", Text: "Data\n   Scientist"},
		{Href: "/careers", Text: "Careers & Culture"},
		{Href: "/openings/2", Text: "ML Engineer"},
		{Href: "", Text: "empty"},
	}
	if !slices.Equal(got, want) {
		t.Errorf("ExtractAnchors() = %#v, want %#v", got, want)
	}
}

func TestFilterLinks(t *testing.T) {
	tests := []struct {
		name    string
		anchors []Anchor
		hint    string
		want    []string
	}{
		{
			name:    "ルート相対パスはスキームとホストで解決",
			anchors: []Anchor{{Href: "/jobs/42", Text: "Machine Learning Engineer"}},
			hint:    "machine learning",
			want:    []string{"https://x.com/jobs/42"},
		},
		{
			name:    "求人マーカーの無いhrefは除外",
			anchors: []Anchor{{Href: "/about", Text: "Machine Learning team"}},
			hint:    "machine learning",
			want:    nil,
		},
		{
			name:    "hrefのマーカーは大文字小文字を区別",
			anchors: []Anchor{{Href: "/JOBS/1", Text: "Engineer"}},
			hint:    "",
			want:    nil,
		},
		{
			name: "重複は最初の出現のみ",
			anchors: []Anchor{
				{Href: "/jobs/1", Text: "a"},
				{Href: "/career/2", Text: "b"},
				{Href: "https://x.com/jobs/1", Text: "c"},
			},
			hint: "",
			want: []string{"https://x.com/jobs/1", "https://x.com/career/2"},
		},
		{
			name:    "プロトコル相対URLはスキームを補う",
			anchors: []Anchor{{Href: "//boards.example.com/jobs/9", Text: "x"}},
			hint:    "",
			want:    []string{"https://boards.example.com/jobs/9"},
		},
		{
			name:    "相対パスはそのまま",
			anchors: []Anchor{{Href: "positions/3", Text: "x"}},
			hint:    "",
			want:    []string{"positions/3"},
		},
		{
			name:    "ヒントは大文字小文字を区別しない",
			anchors: []Anchor{{Href: "/jobs/1", Text: "MACHINE Vision Engineer"}},
			hint:    "Machine Learning",
			want:    []string{"https://x.com/jobs/1"},
		},
		{
			name:    "2文字以下の単語はヒントに使わない",
			anchors: []Anchor{{Href: "/jobs/1", Text: "ml ai engineer"}},
			hint:    "ML AI",
			want:    nil,
		},
		{
			name:    "空白のみのヒントはどのリンクにも一致しない",
			anchors: []Anchor{{Href: "/opening/1", Text: "Anything"}},
			hint:    "   ",
			want:    nil,
		},
		{
			name:    "空文字列のヒントは指定なし扱い",
			anchors: []Anchor{{Href: "/opening/1", Text: "Anything"}},
			hint:    "",
			want:    []string{"https://x.com/opening/1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterLinks(tt.anchors, "https://x.com/careers", tt.hint)
			if !slices.Equal(got, tt.want) {
				t.Errorf("FilterLinks() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsFeed(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        bool
	}{
		{"RSS Content-Type", "application/rss+xml; charset=utf-8", "", true},
		{"Atom Content-Type", "application/atom+xml", "", true},
		{"XMLのRSS", "text/xml", `<?xml version="1.0"?><rss version="2.0"></rss>`, true},
		{"XMLのAtom", "application/xml", `<feed xmlns="http://www.w3.org/2005/Atom"></feed>`, true},
		{"XMLだがフィードでない", "application/xml", `<sitemap></sitemap>`, false},
		{"HTML", "text/html", `<rss>`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFeed(tt.contentType, []byte(tt.body)); got != tt.want {
				t.Errorf("IsFeed() = %v, want %v", got, tt.want)
			}
		})
	}
}
