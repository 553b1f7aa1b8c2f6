package search

import (
	"sort"
	"strings"
	"time"
)

const (
	defaultLimit        = 50
	defaultSimilarLimit = 5
	defaultDupThreshold = 0.8
)

// Params are the filters for a Search call. Zero values mean "not
// filtered"; DateFrom/DateTo bound ProcessedAt when non-zero.
type Params struct {
	Query       string
	Category    string
	Topics      []string
	ContentType string
	MinScore    float64
	DateFrom    string
	DateTo      string
	Limit       int
	Offset      int
}

// Result is a matched document with its relevance score.
type Result struct {
	*Document
	Relevance int `json:"relevance"`
}

// Page is one page of search results.
type Page struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Offset  int      `json:"offset"`
	Limit   int      `json:"limit"`
}

// Search filters and ranks the index. Query tokens of length <= 2 are
// ignored for matching; matching is exact-term plus substring over the
// indexed vocabulary. With a query, results are ordered by relevance
// (title hits weigh 10, summary 5, topics 3, key points 2 per term);
// without one, by processed time descending.
func Search(idx *Index, p Params) Page {
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}

	candidates := candidateIDs(idx, p.Category)

	if p.Query != "" {
		matching := matchQuery(idx, p.Query)
		candidates = intersect(candidates, matching)
	}

	if len(p.Topics) > 0 {
		topicIDs := make(map[string]bool)
		for _, topic := range p.Topics {
			for _, id := range idx.Topics[strings.ToLower(topic)] {
				topicIDs[id] = true
			}
		}
		candidates = intersect(candidates, topicIDs)
	}

	results := make([]Result, 0, len(candidates))
	for _, id := range candidates {
		doc := idx.Docs[id]
		if doc == nil {
			continue
		}
		if p.ContentType != "" && doc.ContentType != p.ContentType {
			continue
		}
		if doc.Score < p.MinScore {
			continue
		}
		if !matchesDateRange(doc, p.DateFrom, p.DateTo) {
			continue
		}
		results = append(results, Result{Document: doc, Relevance: relevance(doc, p.Query)})
	}

	sort.Slice(results, func(i, j int) bool {
		if p.Query != "" && results[i].Relevance != results[j].Relevance {
			return results[i].Relevance > results[j].Relevance
		}
		if !results[i].ProcessedAt.Equal(results[j].ProcessedAt) {
			return results[i].ProcessedAt.After(results[j].ProcessedAt)
		}
		return results[i].ID < results[j].ID
	})

	total := len(results)
	start := p.Offset
	if start > total {
		start = total
	}
	end := start + p.Limit
	if end > total {
		end = total
	}

	return Page{Results: results[start:end], Total: total, Offset: p.Offset, Limit: p.Limit}
}

// candidateIDs returns sorted candidate ids, narrowed by category when
// one is given. Sorting keeps result order deterministic on ties.
func candidateIDs(idx *Index, category string) []string {
	var ids []string
	if category != "" {
		ids = append(ids, idx.Categories[category]...)
	} else {
		for id := range idx.Docs {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// matchQuery unions postings for each query token, exact matches plus
// every indexed term containing the token as a substring.
func matchQuery(idx *Index, query string) map[string]bool {
	matching := make(map[string]bool)
	for _, term := range tokenize(query) {
		for _, id := range idx.Terms[term] {
			matching[id] = true
		}
		for indexTerm, ids := range idx.Terms {
			if strings.Contains(indexTerm, term) {
				for _, id := range ids {
					matching[id] = true
				}
			}
		}
	}
	return matching
}

func intersect(ids []string, keep map[string]bool) []string {
	out := ids[:0]
	for _, id := range ids {
		if keep[id] {
			out = append(out, id)
		}
	}
	return out
}

func matchesDateRange(doc *Document, from, to string) bool {
	if from != "" {
		if t, ok := parseDate(from); ok && doc.ProcessedAt.Before(t) {
			return false
		}
	}
	if to != "" {
		if t, ok := parseDate(to); ok && doc.ProcessedAt.After(t) {
			return false
		}
	}
	return true
}

// parseDate accepts RFC3339 or a bare yyyy-mm-dd date. Unparseable
// bounds are ignored rather than failing the whole search.
func parseDate(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// relevance scores a document against the raw query terms. Unlike
// matching, scoring does not drop short tokens.
func relevance(doc *Document, query string) int {
	if query == "" {
		return 0
	}
	score := 0
	title := strings.ToLower(doc.Title)
	summary := strings.ToLower(doc.Summary)
	for _, term := range strings.Fields(strings.ToLower(query)) {
		if strings.Contains(title, term) {
			score += 10
		}
		if strings.Contains(summary, term) {
			score += 5
		}
		if anyContains(doc.Topics, term) {
			score += 3
		}
		if anyContains(doc.KeyPoints, term) {
			score += 2
		}
	}
	return score
}

func anyContains(values []string, term string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), term) {
			return true
		}
	}
	return false
}

// SimilarResult is a document related to another, with its similarity
// score.
type SimilarResult struct {
	*Document
	Similarity int `json:"similarity"`
}

// FindSimilar ranks other documents against the one with the given id:
// 2 points per shared topic, 1 for the same category, 1 for the same
// content type. Returns nil when the id is unknown.
func FindSimilar(idx *Index, contentID string, limit int) []SimilarResult {
	source := idx.Docs[contentID]
	if source == nil {
		return nil
	}
	if limit <= 0 {
		limit = defaultSimilarLimit
	}

	scores := make(map[string]int)

	for _, topic := range source.Topics {
		for _, id := range idx.Topics[strings.ToLower(topic)] {
			if id != contentID {
				scores[id] += 2
			}
		}
	}

	for _, id := range idx.Categories[source.Category] {
		if id != contentID {
			scores[id]++
		}
	}

	for id, doc := range idx.Docs {
		if id != contentID && doc.ContentType == source.ContentType {
			scores[id]++
		}
	}

	similar := make([]SimilarResult, 0, len(scores))
	for id, score := range scores {
		similar = append(similar, SimilarResult{Document: idx.Docs[id], Similarity: score})
	}
	sort.Slice(similar, func(i, j int) bool {
		if similar[i].Similarity != similar[j].Similarity {
			return similar[i].Similarity > similar[j].Similarity
		}
		return similar[i].ID < similar[j].ID
	})

	if len(similar) > limit {
		similar = similar[:limit]
	}
	return similar
}

// DuplicateMatch pairs a probable duplicate with its similarity.
type DuplicateMatch struct {
	Document   *Document `json:"document"`
	Similarity float64   `json:"similarity"`
}

// DuplicateGroup clusters a document with its probable duplicates.
type DuplicateGroup struct {
	Original   *Document        `json:"original"`
	Duplicates []DuplicateMatch `json:"duplicates"`
}

// DetectDuplicates pairwise-compares all documents and greedily groups
// those whose similarity reaches the threshold. Iteration is in sorted
// id order so the grouping is deterministic.
func DetectDuplicates(idx *Index, threshold float64) []DuplicateGroup {
	if threshold <= 0 {
		threshold = defaultDupThreshold
	}

	ids := make([]string, 0, len(idx.Docs))
	for id := range idx.Docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var groups []DuplicateGroup
	processed := make(map[string]bool)

	for _, id1 := range ids {
		if processed[id1] {
			continue
		}
		doc1 := idx.Docs[id1]

		var matches []DuplicateMatch
		for _, id2 := range ids {
			if id1 == id2 || processed[id2] {
				continue
			}
			doc2 := idx.Docs[id2]
			if sim := pairSimilarity(doc1, doc2); sim >= threshold {
				matches = append(matches, DuplicateMatch{Document: doc2, Similarity: sim})
			}
		}

		if len(matches) > 0 {
			groups = append(groups, DuplicateGroup{Original: doc1, Duplicates: matches})
			processed[id1] = true
			for _, m := range matches {
				processed[m.Document.ID] = true
			}
		}
	}

	return groups
}

// pairSimilarity combines title similarity (0.4 exact, 0.2 when one
// title contains the other), topic Jaccard overlap scaled to 0.3, and
// a 0.3 bonus when the key points share more than five words longer
// than three characters.
func pairSimilarity(doc1, doc2 *Document) float64 {
	var similarity float64

	t1 := strings.ToLower(doc1.Title)
	t2 := strings.ToLower(doc2.Title)
	switch {
	case t1 == t2:
		similarity += 0.4
	case strings.Contains(t1, t2) || strings.Contains(t2, t1):
		similarity += 0.2
	}

	topics1 := lowerSet(doc1.Topics)
	topics2 := lowerSet(doc2.Topics)
	overlap := 0
	for t := range topics1 {
		if topics2[t] {
			overlap++
		}
	}
	union := len(topics2)
	for t := range topics1 {
		if !topics2[t] {
			union++
		}
	}
	if union > 0 {
		similarity += float64(overlap) / float64(union) * 0.3
	}

	kp1 := strings.ToLower(strings.Join(doc1.KeyPoints, " "))
	kp2 := strings.ToLower(strings.Join(doc2.KeyPoints, " "))
	common := 0
	for _, w := range strings.Fields(kp1) {
		if len(w) > 3 && strings.Contains(kp2, w) {
			common++
		}
	}
	if common > 5 {
		similarity += 0.3
	}

	return similarity
}

func lowerSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = true
	}
	return set
}
