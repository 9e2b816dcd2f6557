package generation

import (
	"regexp"
	"strings"
)

// threadSeparator matches blank lines and the numbering styles people paste threads with
var threadSeparator = regexp.MustCompile(`\n\s*\n+|\d+/\d+|\d+/\s|\d+\.\s|(?i:tweet\s+\d+:)`)

// SplitThread breaks pasted thread text into tweets, at most 25
func SplitThread(content string) []string {
	var tweets []string
	for _, part := range threadSeparator.Split(content, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		tweets = append(tweets, part)
		if len(tweets) == maxRewriteTweets {
			break
		}
	}
	return tweets
}
