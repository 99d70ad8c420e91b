// Package research gives the research agent access to the web: a Serper
// backed search client, a readable text extractor for pages and the tools
// wrapping both.
package research
