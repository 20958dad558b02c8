package livelog

// LogLine is one line of a log file as returned by /api/tail.
type LogLine struct {
	Line    int64  `json:"line"`
	Content string `json:"content"`
}

// Grouping is a server-side classification rule. Order matters: the first
// rule whose Regex matches a line decides its Color.
type Grouping struct {
	Regex string `json:"regex"`
	Color string `json:"color"`
}

// AnalyticsEntry mirrors one row of /api/analytics.
type AnalyticsEntry struct {
	Pattern string `json:"pattern"`
	Color   string `json:"color"`
	Count   int64  `json:"count"`
}

// TailQuery configures /api/tail requests.
type TailQuery struct {
	File string
	// From is the first line position wanted (cursor+1). Nil reads the file
	// from the beginning.
	From *int64
}
