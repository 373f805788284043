package regime

// TransitionStats summarises how regime labels change over a run.
type TransitionStats struct {
	TotalTransitions int
	Counts           map[Label]int
	AverageDurations map[Label]float64
}

// AnalyzeTransitions counts label changes and the average run length of
// each regime across a label series. Unknown bars participate like any
// other label so warm-up shows up in the distribution.
func AnalyzeTransitions(labels []Label) TransitionStats {
	stats := TransitionStats{
		Counts:           make(map[Label]int),
		AverageDurations: make(map[Label]float64),
	}
	if len(labels) == 0 {
		return stats
	}

	durations := make(map[Label][]int)
	current := labels[0]
	runLength := 1
	stats.Counts[current]++

	for _, label := range labels[1:] {
		stats.Counts[label]++
		if label == current {
			runLength++
			continue
		}
		durations[current] = append(durations[current], runLength)
		stats.TotalTransitions++
		current = label
		runLength = 1
	}
	durations[current] = append(durations[current], runLength)

	for label, runs := range durations {
		total := 0
		for _, r := range runs {
			total += r
		}
		stats.AverageDurations[label] = float64(total) / float64(len(runs))
	}
	return stats
}
