package models

// ScrapeResult - outcome of a batch scrape: parsed records and the URLs that failed.
type ScrapeResult struct {
	Products   []Product
	FailedURLs []string
}

// MergeResult - counters reported by the ingestion merger.
// Skipped counts records rejected by sanitation; Failed counts valid records lost to write errors.
type MergeResult struct {
	Stored  int
	Updated int
	Skipped int
	Failed  int
}

// CycleResult is the summary of one pipeline invocation.
//
// Success, Message and Count form the stable contract for callers; the remaining
// counters are informational.
type CycleResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int    `json:"count"`

	Discovered int `json:"discovered"`
	Fresh      int `json:"fresh"`
	Scraped    int `json:"scraped"`
	Failed     int `json:"failed"`
	Updated    int `json:"updated"`
	Skipped    int `json:"skipped"`
	WriteFail  int `json:"writeFailed"`
}
