package util

import (
	"strings"
	"time"
)

// dateTokens is ordered so longer tokens win over their prefixes.
var dateTokens = strings.NewReplacer(
	"YYYY", "2006",
	"YY", "06",
	"MM", "01",
	"DD", "02",
	"hh", "15",
	"mm", "04",
	"ss", "05",
)

// FormatDate formats t in UTC using a template with placeholders.
//
// Supported placeholders:
//   - YYYY: 4-digit year
//   - YY: 2-digit year
//   - MM: 2-digit month (01-12)
//   - DD: 2-digit day (01-31)
//   - hh: 2-digit hour (00-23)
//   - mm: 2-digit minute (00-59)
//   - ss: 2-digit second (00-59)
//
// A zero t formats as "".
//
//	FormatDate(t, "YYYY.MM.DD")       // "2023.11.10"
//	FormatDate(t, "YYYY-MM-DD hh:mm") // "2023-11-10 00:00"
func FormatDate(t time.Time, tpl string) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTokens.Replace(tpl))
}
