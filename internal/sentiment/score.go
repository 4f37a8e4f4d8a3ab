package sentiment

import (
	"sort"
	"strings"
	"time"

	"helios/internal/domain"
)

// Lexicon-based scorer. Word lists are intentionally small and crypto
// flavored; the score of a text is (pos - neg) / (pos + neg) over the hit
// counts, 0 when nothing matches.

var positiveWords = map[string]bool{
	"bullish": true, "moon": true, "pump": true, "surge": true,
	"rally": true, "gain": true, "gains": true, "breakout": true,
	"adoption": true, "soar": true, "soars": true, "record": true,
	"profit": true, "buy": true, "upgrade": true, "partnership": true,
	"up": true, "high": true, "strong": true, "growth": true,
	"approval": true, "institutional": true,
}

var negativeWords = map[string]bool{
	"bearish": true, "dump": true, "crash": true, "plunge": true,
	"plunges": true, "scam": true, "hack": true, "hacked": true,
	"fraud": true, "selloff": true, "fear": true, "drop": true,
	"drops": true, "loss": true, "losses": true, "ban": true,
	"lawsuit": true, "liquidation": true, "collapse": true,
	"down": true, "weak": true, "sell": true, "panic": true,
}

var wordSplitRe = strings.NewReplacer(
	".", " ", ",", " ", "!", " ", "?", " ", ";", " ", ":", " ",
	"(", " ", ")", " ", "\"", " ", "'", " ", "#", " ", "$", " ",
)

// ScoreText scores one piece of text in [-1, 1]. Texts with no lexicon hits
// score 0.
func ScoreText(text string) float64 {
	var pos, neg int
	for _, w := range strings.Fields(wordSplitRe.Replace(strings.ToLower(text))) {
		if positiveWords[w] {
			pos++
		}
		if negativeWords[w] {
			neg++
		}
	}
	if pos+neg == 0 {
		return 0
	}
	return float64(pos-neg) / float64(pos+neg)
}

// scoreArticle scores headline and body together. The headline counts twice:
// it carries most of the signal in short-form feeds.
func scoreArticle(a Article) float64 {
	return ScoreText(a.Headline + " " + a.Headline + " " + a.Content)
}

// DailyScores aggregates articles into one SentimentPoint per UTC day:
// Score is the mean article score, Mentions the article count, and
// Engagement the total word count as an activity proxy. Results are sorted
// by date.
func DailyScores(symbol string, articles []Article) []domain.SentimentPoint {
	symbol = strings.ToUpper(symbol)

	type acc struct {
		sum      float64
		count    int64
		words    float64
		midnight time.Time
	}
	days := make(map[string]*acc)
	for _, a := range articles {
		k := a.Time.UTC().Format(domain.DateLayout)
		d, ok := days[k]
		if !ok {
			t := a.Time.UTC()
			d = &acc{midnight: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
			days[k] = d
		}
		d.sum += scoreArticle(a)
		d.count++
		d.words += float64(len(strings.Fields(a.Headline)) + len(strings.Fields(a.Content)))
	}

	points := make([]domain.SentimentPoint, 0, len(days))
	for _, d := range days {
		points = append(points, domain.SentimentPoint{
			Symbol:     symbol,
			Timestamp:  d.midnight,
			Score:      d.sum / float64(d.count),
			Mentions:   d.count,
			Engagement: d.words,
		})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})
	return points
}
