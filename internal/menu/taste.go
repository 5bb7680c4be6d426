package menu

import "weekmenu/backend/internal/domain"

// TasteProfile weighs tags by how often they occur on favorited recipes.
type TasteProfile struct {
	Freq map[string]int
	// Max is the highest frequency in Freq, never below 1.
	Max int
}

func BuildTasteProfile(recipes []domain.Recipe) TasteProfile {
	profile := TasteProfile{Freq: make(map[string]int), Max: 1}
	for _, r := range recipes {
		if !r.IsFavorite {
			continue
		}
		for _, tag := range r.Tags {
			profile.Freq[tag]++
			if profile.Freq[tag] > profile.Max {
				profile.Max = profile.Freq[tag]
			}
		}
	}
	return profile
}

// Affinity is the mean profile frequency of tags, scaled by Max into [0,1].
func (p TasteProfile) Affinity(tags []string) float64 {
	if len(tags) == 0 {
		return 0
	}
	sum := 0
	for _, tag := range tags {
		sum += p.Freq[tag]
	}
	return float64(sum) / float64(len(tags)) / float64(p.Max)
}
