package similarity

import (
	"fmt"
	"math"
)

// maxEntropyCategories caps the normalization base so a bank with hundreds
// of one-off topics does not trivially score as perfectly diverse.
const maxEntropyCategories = 10

// Profile is the classification view of an item used for diversity analysis.
type Profile struct {
	Topic string `json:"topic"`
	Level string `json:"cognitive_level"`
}

// Diversity summarizes how evenly a collection spreads over topics and
// cognitive levels. Score is the mean of the two normalized entropies.
type Diversity struct {
	Score           float64  `json:"score"`
	TopicEntropy    float64  `json:"topic_entropy"`
	LevelEntropy    float64  `json:"level_entropy"`
	Topics          int      `json:"topics"`
	Levels          int      `json:"levels"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// AnalyzeDiversity computes Shannon entropy over the topic and level
// distributions, each normalized against the capped category count.
func AnalyzeDiversity(items []Profile) Diversity {
	if len(items) == 0 {
		return Diversity{Recommendations: []string{"bank is empty; author or generate items before analyzing"}}
	}
	topicCounts := map[string]int{}
	levelCounts := map[string]int{}
	for _, it := range items {
		topicCounts[it.Topic]++
		levelCounts[it.Level]++
	}
	d := Diversity{
		TopicEntropy: normalizedEntropy(topicCounts, len(items)),
		LevelEntropy: normalizedEntropy(levelCounts, len(items)),
		Topics:       len(topicCounts),
		Levels:       len(levelCounts),
	}
	d.Score = (d.TopicEntropy + d.LevelEntropy) / 2

	if d.Topics == 1 {
		d.Recommendations = append(d.Recommendations, "all items share one topic; broaden the specification matrix")
	} else if d.TopicEntropy < 0.5 {
		d.Recommendations = append(d.Recommendations, fmt.Sprintf("topic distribution is skewed (entropy %.2f); add items for under-represented topics", d.TopicEntropy))
	}
	if d.Levels <= 2 {
		d.Recommendations = append(d.Recommendations, "fewer than three cognitive levels represented; add higher-order items")
	} else if d.LevelEntropy < 0.5 {
		d.Recommendations = append(d.Recommendations, fmt.Sprintf("cognitive-level distribution is skewed (entropy %.2f)", d.LevelEntropy))
	}
	if len(d.Recommendations) == 0 {
		d.Recommendations = append(d.Recommendations, "distribution looks healthy")
	}
	return d
}

func normalizedEntropy(counts map[string]int, total int) float64 {
	if len(counts) <= 1 || total == 0 {
		return 0
	}
	h := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / float64(total)
		h -= p * math.Log2(p)
	}
	cats := len(counts)
	if cats > maxEntropyCategories {
		cats = maxEntropyCategories
	}
	max := math.Log2(float64(cats))
	if max == 0 {
		return 0
	}
	if h > max {
		return 1
	}
	return h / max
}
