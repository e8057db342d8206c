package parser

import (
	"strings"
	"testing"
)

func TestHTMLParser_ExtractsBlocks(t *testing.T) {
	input := `<html><head><title>Weekly listings</title><style>p{}</style></head>
<body>
<nav>Home | About</nav>
<h1>Cars</h1>
<p>Toyota Corolla 2012<br>50,000 km</p>
<ul><li>Honda Civic 2015</li><li>Ford Focus 2018</li></ul>
<script>var x = 1;</script>
</body></html>`
	p := &HTMLParser{}
	doc, err := p.Parse(strings.NewReader(input), "page.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Weekly listings" {
		t.Errorf("expected title from <title>, got %q", doc.Title)
	}
	want := "Cars\n\nToyota Corolla 2012\n50,000 km\n\nHonda Civic 2015\n\nFord Focus 2018"
	if doc.Text != want {
		t.Errorf("expected %q, got %q", want, doc.Text)
	}
}

func TestHTMLParser_TableRows(t *testing.T) {
	input := `<table>
<tr><th>Make</th><th>Model</th><th>Price</th></tr>
<tr><td>Toyota</td><td>Corolla</td><td>8000</td></tr>
</table>`
	p := &HTMLParser{}
	doc, err := p.Parse(strings.NewReader(input), "table.htm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "table" {
		t.Errorf("expected title from filename, got %q", doc.Title)
	}
	want := "Make | Model | Price\n\nToyota | Corolla | 8000"
	if doc.Text != want {
		t.Errorf("expected %q, got %q", want, doc.Text)
	}
}
