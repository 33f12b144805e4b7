package aggregate

import (
	"math"
	"sort"

	"github.com/justestif/go-spotify-circle/internal/spotify"
)

// soloPenalty demotes a track only one user plays below most shared tracks
// while keeping solo tracks in their own relative order.
const soloPenalty = 25

// RankedTrack is one entry of the combined top-track list for two users.
type RankedTrack struct {
	spotify.Track
	Shared       bool `json:"shared"`
	CombinedRank int  `json:"combined_rank"`
}

// combineRankings merges two top-track lists into one ranked list. A track
// on both lists scores the average of its two 1-based ranks and is flagged
// shared; a track on one list scores its rank plus the solo penalty. Lower
// score ranks higher; equal scores keep encounter order (mine before
// theirs). The internal score is not exposed.
func combineRankings(mine, theirs []spotify.Track) []RankedTrack {
	theirRank := make(map[string]int, len(theirs))
	for i, t := range theirs {
		theirRank[t.ID] = i + 1
	}

	type scoredTrack struct {
		RankedTrack
		score float64
	}

	all := make([]scoredTrack, 0, len(mine)+len(theirs))
	mineIDs := make(map[string]bool, len(mine))
	for i, t := range mine {
		mineIDs[t.ID] = true
		myRank := i + 1
		if otherRank, ok := theirRank[t.ID]; ok {
			all = append(all, scoredTrack{
				RankedTrack: RankedTrack{Track: t, Shared: true},
				score:       float64(myRank+otherRank) / 2,
			})
			continue
		}
		all = append(all, scoredTrack{
			RankedTrack: RankedTrack{Track: t},
			score:       float64(myRank + soloPenalty),
		})
	}
	for i, t := range theirs {
		if mineIDs[t.ID] {
			continue
		}
		all = append(all, scoredTrack{
			RankedTrack: RankedTrack{Track: t},
			score:       float64(i + 1 + soloPenalty),
		})
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].score < all[j].score })

	ranked := make([]RankedTrack, len(all))
	for i := range all {
		all[i].CombinedRank = i + 1
		ranked[i] = all[i].RankedTrack
	}
	return ranked
}

// compatibilityScore maps the shared-artist overlap onto 0..100 with one
// decimal. The divisor is the mean list size, floored at 1 so two empty
// lists score 0 rather than dividing by zero; the result is capped at 100.
func compatibilityScore(mineCount, theirsCount, sharedCount int) float64 {
	divisor := float64(mineCount+theirsCount) / 2
	if divisor < 1 {
		divisor = 1
	}
	score := math.Round(100*float64(sharedCount)/divisor*10) / 10
	return math.Min(score, 100)
}

// sharedArtistNames returns the names of artists on both lists, in the
// order they appear on mine.
func sharedArtistNames(mine, theirs []spotify.Artist) []string {
	theirIDs := make(map[string]bool, len(theirs))
	for _, a := range theirs {
		theirIDs[a.ID] = true
	}

	shared := []string{}
	for _, a := range mine {
		if theirIDs[a.ID] {
			shared = append(shared, a.Name)
		}
	}
	return shared
}

// sharedTrackCount counts track ids present on both lists.
func sharedTrackCount(mine, theirs []spotify.Track) int {
	theirIDs := make(map[string]bool, len(theirs))
	for _, t := range theirs {
		theirIDs[t.ID] = true
	}

	count := 0
	for _, t := range mine {
		if theirIDs[t.ID] {
			count++
		}
	}
	return count
}

// topGenres counts genre occurrences across an artist list (one count per
// genre per artist) and returns the n most frequent. Ties keep
// first-encounter order.
func topGenres(artists []spotify.Artist, n int) []string {
	counts := make(map[string]int)
	var order []string
	for _, a := range artists {
		for _, g := range a.Genres {
			if counts[g] == 0 {
				order = append(order, g)
			}
			counts[g]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })

	if len(order) > n {
		order = order[:n]
	}
	if order == nil {
		order = []string{}
	}
	return order
}
