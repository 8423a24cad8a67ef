// Package main compares the reserved-word tables in pkg/dialects against the
// vendor documentation pages they were transcribed from.
//
// Usage:
//
//	go run ./scripts/checkreserved
//	go run ./scripts/checkreserved -datastore=redshift
//
// Words listed by the vendor but missing from every category are reported as
// "missing"; words in the tables but not listed by the vendor are reported as
// "extra". Extras are expected for the curated forbidden categories, so the
// exit status only reflects missing words.
package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html"

	"github.com/leapstack-labs/mcp-panther/pkg/dialect"
	_ "github.com/leapstack-labs/mcp-panther/pkg/dialects/redshift"
	_ "github.com/leapstack-labs/mcp-panther/pkg/dialects/snowflake"
)

var sources = map[string]string{
	"snowflake": "https://docs.snowflake.com/en/sql-reference/reserved-keywords",
	"redshift":  "https://docs.aws.amazon.com/redshift/latest/dg/r_pg_keywords.html",
}

// words the tables leave out on purpose
var ignored = map[string]bool{
	"NULL": true,
}

var (
	datastoreFlag = flag.String("datastore", "all", "datastore to check: snowflake, redshift, all")
	timeoutFlag   = flag.Duration("timeout", 30*time.Second, "HTTP timeout")
)

var wordPattern = regexp.MustCompile(`^[A-Z_][A-Z0-9_]*$`)

func main() {
	flag.Parse()

	names := dialect.List()
	if *datastoreFlag != "all" {
		if _, ok := dialect.Get(*datastoreFlag); !ok {
			log.Fatalf("unknown -datastore value: %s (use: %s, all)", *datastoreFlag, strings.Join(names, ", "))
		}
		names = []string{*datastoreFlag}
	}

	client := resty.New().
		SetTimeout(*timeoutFlag).
		SetHeader("User-Agent", "mcp-panther-checkreserved/1.0").
		SetHeader("Accept", "text/html,application/xhtml+xml")

	failed := false
	for _, name := range names {
		d, _ := dialect.Get(name)
		log.Printf("Fetching %s reserved keywords from %s", name, sources[name])

		resp, err := client.R().Get(sources[name])
		if err != nil {
			log.Fatalf("failed to fetch %s: %v", sources[name], err)
		}
		if resp.IsError() {
			log.Fatalf("failed to fetch %s: HTTP %s", sources[name], resp.Status())
		}

		documented, err := parseKeywordsPage(resp.Body())
		if err != nil {
			log.Fatalf("failed to parse %s: %v", sources[name], err)
		}
		missing, extra := compare(documented, tableWords(d))
		log.Printf("%s: %d documented, %d missing, %d extra", name, len(documented), len(missing), len(extra))

		for _, w := range missing {
			fmt.Printf("%s\tmissing\t%s\n", name, w)
		}
		for _, w := range extra {
			fmt.Printf("%s\textra\t%s\n", name, w)
		}
		failed = failed || len(missing) > 0
	}

	if failed {
		os.Exit(1)
	}
}

// tableWords returns every word in any category of d.
func tableWords(d *dialect.Dialect) map[string]bool {
	words := make(map[string]bool)
	for _, c := range []dialect.Category{
		dialect.AutoQuotable, dialect.ForbiddenScalar, dialect.ForbiddenColumn, dialect.ForbiddenFromClause,
	} {
		for _, w := range d.Words(c) {
			words[w] = true
		}
	}
	return words
}

// compare returns the documented words absent from the table and the table
// words absent from the documentation, both sorted.
func compare(documented []string, table map[string]bool) (missing, extra []string) {
	docSet := make(map[string]bool, len(documented))
	for _, w := range documented {
		docSet[w] = true
		if !table[w] && !ignored[w] {
			missing = append(missing, w)
		}
	}
	for w := range table {
		if !docSet[w] {
			extra = append(extra, w)
		}
	}
	sort.Strings(missing)
	sort.Strings(extra)
	return missing, extra
}

// parseKeywordsPage extracts keywords from the first cell of every table row
// (Snowflake) and from every line of <pre> blocks (Redshift).
func parseKeywordsPage(body []byte) ([]string, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	add := func(s string) {
		s = strings.ToUpper(strings.TrimSpace(s))
		// Skip letter headers (single char A-Z)
		if len(s) < 2 || !wordPattern.MatchString(s) {
			return
		}
		seen[s] = true
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "tr":
				if td := firstCell(n); td != nil {
					add(extractText(td))
				}
				return
			case "pre":
				sc := bufio.NewScanner(strings.NewReader(extractText(n)))
				for sc.Scan() {
					add(sc.Text())
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	words := make([]string, 0, len(seen))
	for w := range seen {
		words = append(words, w)
	}
	sort.Strings(words)
	return words, nil
}

func firstCell(tr *html.Node) *html.Node {
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "td" {
			return c
		}
	}
	return nil
}

func extractText(n *html.Node) string {
	var buf bytes.Buffer
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}
