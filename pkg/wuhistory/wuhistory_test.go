package wuhistory

import (
	"strings"
	"testing"
)

const samplePage = `<html><body>
<div class="supLeftNav">
<ul>
<li><a class="supLeftNavLink" href="/help/5049981">January 14, 2025&#8212;KB5049981 (OS Builds 19044.5371 and 19045.5371)</a></li>
<li><a class="supLeftNavLink" href="/help/5050081">January 28, 2025&#8212;KB5050081 (OS Build 19045.5440) Preview</a></li>
<li><a class="supLeftNavLink" href="/windows10">Windows 10 update history</a></li>
</ul>
</div>
</body></html>`

func TestExtractLinks(t *testing.T) {
	links, err := extractLinks(samplePage)
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 2 {
		t.Fatalf("expected 2 KB anchors, got %d: %v", len(links), links)
	}

	first := links[0]
	if !strings.Contains(first.Title, "KB5049981") {
		t.Fatalf("unexpected title: %q", first.Title)
	}
	if first.Href != "/help/5049981" {
		t.Fatalf("unexpected href: %q", first.Href)
	}
	if !strings.Contains(first.OuterHTML, "<a") || !strings.Contains(first.OuterHTML, "KB5049981") {
		t.Fatalf("outer HTML not captured: %q", first.OuterHTML)
	}

	// The plain navigation link carries no KB id and is dropped.
	for _, l := range links {
		if strings.Contains(l.Title, "update history") {
			t.Fatalf("nav link should have been dropped: %q", l.Title)
		}
	}
}
