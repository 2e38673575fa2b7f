// Package corpusdash provides an in-process Go client for searching
// part-of-speech-tagged Chinese novel texts with boolean queries and for
// substring search inside remote JSON documents.
//
// Corpus texts are fetched from raw URLs, cached (in memory or in Redis),
// split into sentences and matched word by word.
//
// # Corpus search
//
//	client, _ := corpusdash.New(ctx)
//	defer client.Close()
//
//	report, _ := client.Search("祥子 AND (车 OR 钱)").Limit(50).Do(ctx)
//	for _, row := range report.Rows {
//	    fmt.Println(row.Source, row.Index, row.Sentence)
//	}
//
// Legacy mode evaluates strictly left to right and ignores parentheses:
//
//	report, _ := client.Search("祥子 AND NOT 车").Mode(corpusdash.ModeLegacy).Do(ctx)
//
// # JSON search
//
//	res, _ := client.SearchJSON(ctx, "https://example.com/data.json", "alice")
//	fmt.Println(res.Found, len(res.Matches))
//
// # Pure evaluation
//
//	corpusdash.Evaluate("love OR peace", []string{"Love"}) // true
package corpusdash
